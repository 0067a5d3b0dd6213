package main

import (
	"loketkita/src/boot"
	"loketkita/src/middlewares"
	"loketkita/src/services"
	"loketkita/src/types"
	"net/http"

	"github.com/gin-gonic/gin"
)

func eventHandlers(g *gin.RouterGroup, app *boot.App) *gin.RouterGroup {
	organiser := middlewares.RequireRole(types.ROLE_ORGANISER)
	g.
		POST("/events", organiser, func(ctx *gin.Context) {
			var body types.CreateEventRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			event, err := app.Events.Create(ctx.Request.Context(), ctx.GetUint("id"), services.CreateEventParams{
				Name:        body.Name,
				Description: body.Description,
				Location:    body.Location,
				StartDate:   body.StartDate,
				EndDate:     body.EndDate,
				Quota:       body.Quota,
				Price:       body.Price,
				Publish:     body.Publish,
			})
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": event})
		}).
		PATCH("/events/:id", organiser, func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.UpdateEventRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			event, err := app.Events.Update(ctx.Request.Context(), ctx.GetUint("id"), params.ID, services.UpdateEventParams{
				Name:        body.Name,
				Description: body.Description,
				Location:    body.Location,
				StartDate:   body.StartDate,
				EndDate:     body.EndDate,
				Price:       body.Price,
				AddQuota:    body.AddQuota,
				Status:      body.Status,
			})
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": event})
		}).
		DELETE("/events/:id", organiser, func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := app.Events.Delete(ctx.Request.Context(), ctx.GetUint("id"), params.ID); err != nil {
				respondError(ctx, err)
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		POST("/events/:id/vouchers", organiser, func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.CreateDiscountCodeRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			voucher, err := app.Promotions.CreateVoucher(ctx.Request.Context(), ctx.GetUint("id"), params.ID, services.DiscountCodeParams{
				Code:      body.Code,
				Discount:  body.Discount,
				StartDate: body.StartDate,
				EndDate:   body.EndDate,
			})
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": voucher})
		}).
		DELETE("/events/:id/vouchers/:code", organiser, func(ctx *gin.Context) {
			var params struct {
				ID   uint   `uri:"id" binding:"required"`
				Code string `uri:"code" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			err := app.Promotions.DeleteVoucher(ctx.Request.Context(), ctx.GetUint("id"), params.ID, params.Code)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		GET("/events/:id/attendees", organiser, func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var page types.PageQuery
			if err := ctx.ShouldBindQuery(&page); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			attendees, total, err := app.Events.Attendees(ctx.Request.Context(), ctx.GetUint("id"), params.ID, page)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": attendees, "count": total})
		}).
		POST("/events/:id/reviews", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.CreateReviewRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			review, err := app.Events.CreateReview(ctx.Request.Context(), ctx.GetUint("id"), params.ID, body.Rating, body.Comment)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": review})
		})
	return g
}
