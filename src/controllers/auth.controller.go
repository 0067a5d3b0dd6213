package controllers

import (
	"errors"
	"log"
	"loketkita/src/middlewares"
	"loketkita/src/models"
	"loketkita/src/services"
	"loketkita/src/types"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

func AuthLogin(ctx *gin.Context) (token *string, status int, err error) {
	if accounts == nil {
		return nil, http.StatusInternalServerError, errNotConfigured
	}
	var body types.LoginRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	user, err := accounts.Authenticate(ctx.Request.Context(), body.Email, body.Password)
	if err != nil {
		if services.IsKind(err, services.ErrUnauthorized) {
			return nil, http.StatusUnauthorized, err
		}
		return nil, StatusOf(err), err
	}
	jwt, err := middlewares.IssueAccessToken(user, clock())
	if err != nil {
		log.Printf("Error signing token for user [%d]: %s\n", user.ID, err.Error())
		return nil, http.StatusInternalServerError, err
	}
	return &jwt, http.StatusOK, nil
}

func AuthRegister(ctx *gin.Context) (user *models.User, status int, err error) {
	if accounts == nil {
		return nil, http.StatusInternalServerError, errNotConfigured
	}
	var body types.RegisterRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	user, err = accounts.Register(ctx.Request.Context(), services.RegisterParams{
		FirstName:    body.FirstName,
		LastName:     body.LastName,
		Email:        body.Email,
		Password:     body.Password,
		Role:         body.Role,
		ReferralCode: body.ReferralCode,
	})
	if err != nil {
		return nil, StatusOf(err), err
	}
	sendVerificationMail(ctx, user)
	return user, http.StatusCreated, nil
}

// sendVerificationMail never fails the registration; the user can log in
// and the mail can be requested again later.
func sendVerificationMail(ctx *gin.Context, user *models.User) {
	if notifier == nil {
		return
	}
	token, err := middlewares.IssueVerificationToken(user, clock())
	if err != nil {
		log.Printf("Error signing verification token for user [%d]: %s\n", user.ID, err.Error())
		return
	}
	link := appURL + "/verify-email?token=" + url.QueryEscape(token)
	msg, err := services.VerificationMail(user, link)
	if err != nil {
		log.Printf("Error rendering verification mail: %s\n", err.Error())
		return
	}
	if err := notifier.Notify(ctx.Request.Context(), msg); err != nil {
		log.Printf("[Mail] Could not send verification mail to %s: %s\n", user.Email, err.Error())
	}
}

func AuthVerifyEmail(ctx *gin.Context) (user *models.User, status int, err error) {
	if accounts == nil {
		return nil, http.StatusInternalServerError, errNotConfigured
	}
	token := ctx.Query("token")
	if token == "" {
		return nil, http.StatusBadRequest, errors.New("token is required")
	}
	uid, err := middlewares.ParseVerificationToken(token)
	if err != nil {
		return nil, http.StatusUnauthorized, err
	}
	user, err = accounts.VerifyEmail(ctx.Request.Context(), uid)
	if err != nil {
		return nil, StatusOf(err), err
	}
	return user, http.StatusOK, nil
}
