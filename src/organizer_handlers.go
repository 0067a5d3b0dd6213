package main

import (
	"loketkita/src/boot"
	"loketkita/src/types"
	"net/http"

	"github.com/gin-gonic/gin"
)

func organizerHandlers(g *gin.RouterGroup, app *boot.App) *gin.RouterGroup {
	g.
		GET("/transactions", func(ctx *gin.Context) {
			var page types.PageQuery
			if err := ctx.ShouldBindQuery(&page); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			status := types.TransactionStatus(ctx.Query("status"))
			txns, total, err := app.Transactions.ListForOrganizer(ctx.Request.Context(), ctx.GetUint("id"), status, page)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": txns, "count": total})
		}).
		GET("/stats", func(ctx *gin.Context) {
			var query types.StatsQuery
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			stats, err := app.Events.Stats(ctx.Request.Context(), ctx.GetUint("id"), query.Range)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": stats, "range": query.Range})
		}).
		GET("/profile", func(ctx *gin.Context) {
			profile, err := app.Events.OrganizerProfile(ctx.Request.Context(), ctx.GetUint("id"))
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": profile})
		})
	return g
}
