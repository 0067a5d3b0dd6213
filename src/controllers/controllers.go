package controllers

import (
	"errors"
	"loketkita/src/services"
	"net/http"
	"time"
)

var (
	accounts *services.AccountService
	notifier services.Notifier
	appURL   string
	clock    = time.Now
)

// Setup wires the services the auth controllers call into.
func Setup(a *services.AccountService, n services.Notifier, url string) {
	accounts = a
	notifier = n
	appURL = url
}

var errNotConfigured = errors.New("controllers are not configured")

// StatusOf maps a service error onto the HTTP status returned to clients.
func StatusOf(err error) int {
	kind, ok := services.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case services.ErrNotFound:
		return http.StatusNotFound
	case services.ErrUnauthorized, services.ErrUserNotVerified:
		return http.StatusForbidden
	case services.ErrInsufficientQuota, services.ErrInsufficientPoints, services.ErrAlreadyExists:
		return http.StatusConflict
	case services.ErrInvalidState:
		return http.StatusUnprocessableEntity
	case services.ErrInvalidVoucher, services.ErrVoucherNotActive, services.ErrVoucherWrongEvent,
		services.ErrInvalidCoupon, services.ErrCouponNotActive:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
