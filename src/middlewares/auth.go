package middlewares

import (
	"log"
	"loketkita/src/db"
	"loketkita/src/models"
	"loketkita/src/types"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware accepts a Bearer access token and exposes the caller as
// id, email, role and verified on the context. Role and verification come
// from the database so changes apply before the token expires.
func AuthMiddleware(ctx *gin.Context) {
	bearerToken := ctx.Request.Header.Get("Authorization")
	reqToken, ok := strings.CutPrefix(bearerToken, "Bearer ")
	if !ok || reqToken == "" {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	uid, err := parseAccessToken(reqToken)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	err = db.GetDb().
		WithContext(ctx.Request.Context()).
		Select("id", "email", "role", "is_verified").
		Where("id = ?", uid).
		First(&user).
		Error
	if err != nil {
		log.Printf("[auth] Unknown user %d: %s\n", uid, err.Error())
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrInvalidToken.Error()})
		return
	}
	ctx.Set("id", user.ID)
	ctx.Set("email", user.Email)
	ctx.Set("role", user.Role)
	ctx.Set("verified", user.IsVerified)
	ctx.Next()
}

// RequireRole must run after AuthMiddleware.
func RequireRole(roles ...types.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		role, _ := ctx.Get("role")
		r, _ := role.(types.Role)
		if !slices.Contains(roles, r) {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "you are not allowed to perform this action"})
			return
		}
		ctx.Next()
	}
}
