package middlewares

import (
	"loketkita/src/db"
	"loketkita/src/db/dbtest"
	"loketkita/src/models"
	"loketkita/src/types"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*gin.Engine, models.User) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	SetJWTKey("test-secret")
	gdb := dbtest.Open(t)
	db.NewDB(gdb)

	user := models.User{
		FirstName:    "Gita",
		Email:        "gita@example.com",
		Role:         types.ROLE_ORGANISER,
		ReferralCode: "GITA0001",
		IsVerified:   true,
	}
	require.NoError(t, gdb.Create(&user).Error)

	router := gin.New()
	router.GET("/me", AuthMiddleware, func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"id":       ctx.GetUint("id"),
			"email":    ctx.GetString("email"),
			"verified": ctx.GetBool("verified"),
		})
	})
	router.GET("/organizer", AuthMiddleware, RequireRole(types.ROLE_ORGANISER), func(ctx *gin.Context) {
		ctx.Status(http.StatusNoContent)
	})
	router.GET("/admin", AuthMiddleware, RequireRole(types.ROLE_ADMIN), func(ctx *gin.Context) {
		ctx.Status(http.StatusNoContent)
	})
	return router, user
}

func get(router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	router, user := setup(t)
	token, err := IssueAccessToken(&user, time.Now())
	require.NoError(t, err)

	w := get(router, "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id": 1, "email": "gita@example.com", "verified": true}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, get(router, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, "/me", "garbage").Code)
}

func TestAuthMiddlewareRejectsOtherTokens(t *testing.T) {
	router, user := setup(t)

	expired, err := IssueAccessToken(&user, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(router, "/me", expired).Code)

	verification, err := IssueVerificationToken(&user, time.Now())
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(router, "/me", verification).Code)

	ghost := models.User{ID: 42, Email: "ghost@example.com"}
	token, err := IssueAccessToken(&ghost, time.Now())
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(router, "/me", token).Code)

	SetJWTKey("rotated")
	fresh, err := IssueAccessToken(&user, time.Now())
	require.NoError(t, err)
	SetJWTKey("test-secret")
	assert.Equal(t, http.StatusUnauthorized, get(router, "/me", fresh).Code)
}

func TestRequireRole(t *testing.T) {
	router, user := setup(t)
	token, err := IssueAccessToken(&user, time.Now())
	require.NoError(t, err)

	assert.Equal(t, http.StatusNoContent, get(router, "/organizer", token).Code)
	assert.Equal(t, http.StatusForbidden, get(router, "/admin", token).Code)
}

func TestVerificationToken(t *testing.T) {
	SetJWTKey("test-secret")
	user := models.User{ID: 7, Email: "hana@example.com"}

	token, err := IssueVerificationToken(&user, time.Now())
	require.NoError(t, err)
	id, err := ParseVerificationToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)

	access, err := IssueAccessToken(&user, time.Now())
	require.NoError(t, err)
	_, err = ParseVerificationToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	stale, err := IssueVerificationToken(&user, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = ParseVerificationToken(stale)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
