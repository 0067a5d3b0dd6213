package controllers

import (
	"log"
	"loketkita/src/middlewares"
	"loketkita/src/models"
	"loketkita/src/services"
	"loketkita/src/types"
	"net/http"

	"github.com/gin-gonic/gin"
)

func ProfileGet(ctx *gin.Context) (user *models.User, status int, err error) {
	if accounts == nil {
		return nil, http.StatusInternalServerError, errNotConfigured
	}
	user, err = accounts.Get(ctx.Request.Context(), ctx.GetUint("id"))
	if err != nil {
		return nil, StatusOf(err), err
	}
	return user, http.StatusOK, nil
}

func ProfileUpdate(ctx *gin.Context) (user *models.User, status int, err error) {
	if accounts == nil {
		return nil, http.StatusInternalServerError, errNotConfigured
	}
	var body types.UpdateProfileRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	user, err = accounts.UpdateProfile(ctx.Request.Context(), ctx.GetUint("id"), services.UpdateProfileParams{
		FirstName:   body.FirstName,
		LastName:    body.LastName,
		OldPassword: body.OldPassword,
		NewPassword: body.NewPassword,
	})
	if err != nil {
		return nil, StatusOf(err), err
	}
	return user, http.StatusOK, nil
}

// AuthRefresh issues a fresh access token for the caller, keeping the session
// alive.
func AuthRefresh(ctx *gin.Context) (token *string, status int, err error) {
	if accounts == nil {
		return nil, http.StatusInternalServerError, errNotConfigured
	}
	user, err := accounts.Get(ctx.Request.Context(), ctx.GetUint("id"))
	if err != nil {
		return nil, StatusOf(err), err
	}
	jwt, err := middlewares.IssueAccessToken(user, clock())
	if err != nil {
		log.Printf("Error signing token for user [%d]: %s\n", user.ID, err.Error())
		return nil, http.StatusInternalServerError, err
	}
	return &jwt, http.StatusOK, nil
}
