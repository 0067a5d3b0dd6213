package main

import (
	"loketkita/src/boot"
	"loketkita/src/services"
	"loketkita/src/types"
	"net/http"

	"github.com/gin-gonic/gin"
)

func couponHandlers(g *gin.RouterGroup, app *boot.App) *gin.RouterGroup {
	g.
		POST("", func(ctx *gin.Context) {
			var body types.CreateDiscountCodeRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			coupon, err := app.Promotions.CreateCoupon(ctx.Request.Context(), services.DiscountCodeParams{
				Code:      body.Code,
				Discount:  body.Discount,
				StartDate: body.StartDate,
				EndDate:   body.EndDate,
			})
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": coupon})
		}).
		DELETE("/:code", func(ctx *gin.Context) {
			if err := app.Promotions.DeleteCoupon(ctx.Request.Context(), ctx.Param("code")); err != nil {
				respondError(ctx, err)
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
