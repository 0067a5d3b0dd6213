package main

import (
	"log"
	"loketkita/src/boot"
	"loketkita/src/lib"
	"loketkita/src/middlewares"
	"loketkita/src/models"
	"loketkita/src/services"
	"loketkita/src/types"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxProofSize = 5 << 20

var proofContentTypes = []string{"image/jpeg", "image/png", "application/pdf"}

func transactionHandlers(g *gin.RouterGroup, app *boot.App) *gin.RouterGroup {
	g.
		POST("/transactions", func(ctx *gin.Context) {
			var body types.CreateTransactionRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			txn, err := app.Transactions.Create(ctx.Request.Context(), ctx.GetUint("id"), services.CreateTransactionParams{
				EventID:     body.EventID,
				Quantity:    body.Quantity,
				Point:       body.Point,
				VoucherCode: body.VoucherCode,
				CouponCode:  body.CouponCode,
			})
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": txn})
		}).
		GET("/transactions", func(ctx *gin.Context) {
			var page types.PageQuery
			if err := ctx.ShouldBindQuery(&page); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			status := types.TransactionStatus(ctx.Query("status"))
			txns, total, err := app.Transactions.ListForUser(ctx.Request.Context(), ctx.GetUint("id"), status, page)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": txns, "count": total})
		}).
		GET("/transactions/:id", func(ctx *gin.Context) {
			txn, ok := visibleTransaction(ctx, app)
			if !ok {
				return
			}
			res := gin.H{"data": txn}
			if signer, ok := app.Files.(lib.URLSigner); ok && txn.PaymentProof != nil {
				url, err := signer.PresignURL(ctx.Request.Context(), *txn.PaymentProof)
				if err != nil {
					log.Printf("Could not sign proof url for %s: %s\n", txn.ID, err.Error())
				} else {
					res["payment_proof_url"] = url
				}
			}
			ctx.JSON(http.StatusOK, res)
		}).
		POST("/transactions/:id/payment-proof", func(ctx *gin.Context) {
			id, ok := transactionID(ctx)
			if !ok {
				return
			}
			txn, err := app.Transactions.Get(ctx.Request.Context(), id)
			if err != nil {
				respondError(ctx, err)
				return
			}
			if txn.UserID != ctx.GetUint("id") {
				ctx.JSON(http.StatusForbidden, gin.H{"error": "you are not allowed to perform this action"})
				return
			}
			if txn.Status != types.TRANSACTION_WAITING_PAYMENT {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "transaction is not waiting for payment"})
				return
			}
			fh, err := ctx.FormFile("file")
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			contentType := fh.Header.Get("Content-Type")
			if fh.Size > maxProofSize || !slices.Contains(proofContentTypes, contentType) {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "payment proof must be a jpeg, png or pdf of at most 5MB"})
				return
			}
			f, err := fh.Open()
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			defer f.Close()
			ref, err := app.Files.Put(ctx.Request.Context(), lib.ProofKey(id.String(), fh.Filename), f, contentType)
			if err != nil {
				log.Printf("Error storing payment proof for %s: %s\n", id, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "could not store payment proof"})
				return
			}
			txn, err = app.Transactions.UploadPaymentProof(ctx.Request.Context(), id, ref)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": txn})
		}).
		PATCH("/transactions/:id/status", middlewares.RequireRole(types.ROLE_ORGANISER), func(ctx *gin.Context) {
			id, ok := transactionID(ctx)
			if !ok {
				return
			}
			var body types.UpdateTransactionStatusRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			txn, err := app.Transactions.UpdateStatus(ctx.Request.Context(), ctx.GetUint("id"), id, body.Status)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": txn})
		})
	return g
}

func transactionID(ctx *gin.Context) (uuid.UUID, bool) {
	var params types.TransactionRequestParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return uuid.Nil, false
	}
	return uuid.MustParse(params.ID), true
}

// visibleTransaction loads the transaction named in the path if the caller
// bought it or organizes its event.
func visibleTransaction(ctx *gin.Context, app *boot.App) (*models.Transaction, bool) {
	id, ok := transactionID(ctx)
	if !ok {
		return nil, false
	}
	txn, err := app.Transactions.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return nil, false
	}
	caller := ctx.GetUint("id")
	if txn.UserID != caller && txn.Event.OrganizerID != caller {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		return nil, false
	}
	return txn, true
}
