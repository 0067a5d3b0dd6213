package main

import (
	"loketkita/src/boot"
	"loketkita/src/types"
	"net/http"

	"github.com/gin-gonic/gin"
)

func pointHandlers(g *gin.RouterGroup, app *boot.App) *gin.RouterGroup {
	g.
		GET("/points", func(ctx *gin.Context) {
			var page types.PageQuery
			if err := ctx.ShouldBindQuery(&page); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userID := ctx.GetUint("id")
			ledger := app.Transactions.Ledger()
			balance, err := ledger.Balance(ctx.Request.Context(), userID)
			if err != nil {
				respondError(ctx, err)
				return
			}
			history, total, err := ledger.History(ctx.Request.Context(), userID, page)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"balance": balance,
				"data":    history,
				"count":   total,
			})
		})
	return g
}
