package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"loketkita/src/db"
	"loketkita/src/db/dbtest"
	"loketkita/src/middlewares"
	"loketkita/src/services"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type outbox struct {
	mu   sync.Mutex
	sent []services.Notification
}

func (o *outbox) Notify(_ context.Context, n services.Notification) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, n)
	return nil
}

func setupAuth(t *testing.T) (*gin.Engine, *outbox) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middlewares.SetJWTKey("test-secret")
	gdb := dbtest.Open(t)
	db.NewDB(gdb)
	t.Cleanup(func() { db.NewDB(nil) })
	box := &outbox{}
	txs := services.NewTransactionService(gdb, services.WithNotifier(box))
	Setup(services.NewAccountService(txs).WithHashCost(bcrypt.MinCost), box, "https://loketkita.test")

	r := gin.New()
	r.POST("/register", func(ctx *gin.Context) {
		user, status, err := AuthRegister(ctx)
		if err != nil {
			ctx.JSON(status, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(status, gin.H{"data": user})
	})
	r.POST("/login", func(ctx *gin.Context) {
		token, status, err := AuthLogin(ctx)
		if err != nil {
			ctx.JSON(status, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(status, gin.H{"token": token})
	})
	r.GET("/verify-email", func(ctx *gin.Context) {
		user, status, err := AuthVerifyEmail(ctx)
		if err != nil {
			ctx.JSON(status, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(status, gin.H{"data": user})
	})

	authed := r.Group("", middlewares.AuthMiddleware)
	authed.GET("/me", func(ctx *gin.Context) {
		user, status, err := ProfileGet(ctx)
		if err != nil {
			ctx.JSON(status, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(status, gin.H{"data": user})
	})
	authed.PATCH("/me", func(ctx *gin.Context) {
		user, status, err := ProfileUpdate(ctx)
		if err != nil {
			ctx.JSON(status, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(status, gin.H{"data": user})
	})
	authed.POST("/refresh", func(ctx *gin.Context) {
		token, status, err := AuthRefresh(ctx)
		if err != nil {
			ctx.JSON(status, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(status, gin.H{"token": token})
	})
	return r, box
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	return doAs(r, method, path, body, "")
}

func doAs(r *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r *gin.Engine, email, password string) string {
	t.Helper()
	w := do(r, http.MethodPost, "/login", `{"email": "`+email+`", "password": "`+password+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

const registerBody = `{
	"first_name": "Sari",
	"last_name": "Dewi",
	"email": "Sari@Example.com",
	"password": "rahasia123",
	"role": "customer"
}`

func TestRegisterLoginVerify(t *testing.T) {
	r, box := setupAuth(t)

	w := do(r, http.MethodPost, "/register", registerBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "rahasia123")

	require.Len(t, box.sent, 1)
	assert.Equal(t, []string{"sari@example.com"}, box.sent[0].To)
	link := regexp.MustCompile(`href="([^"]+)"`).FindStringSubmatch(box.sent[0].HTML)
	require.Len(t, link, 2)
	u, err := url.Parse(strings.ReplaceAll(link[1], "&amp;", "&"))
	require.NoError(t, err)
	assert.Equal(t, "/verify-email", u.Path)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)

	w = do(r, http.MethodPost, "/login", `{"email": "sari@example.com", "password": "salah"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = do(r, http.MethodPost, "/login", `{"email": "sari@example.com", "password": "rahasia123"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token"`)

	w = do(r, http.MethodGet, "/verify-email?token="+url.QueryEscape(token), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_verified":true`)

	w = do(r, http.MethodGet, "/verify-email?token=nope", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = do(r, http.MethodGet, "/verify-email", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfileAndRefresh(t *testing.T) {
	r, _ := setupAuth(t)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/register", registerBody).Code)
	token := login(t, r, "sari@example.com", "rahasia123")

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", "").Code)
	w := doAs(r, http.MethodGet, "/me", "", token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"email":"sari@example.com"`)

	w = doAs(r, http.MethodPatch, "/me", `{"last_name": "Lestari"}`, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"last_name":"Lestari"`)

	w = doAs(r, http.MethodPatch, "/me", `{"old_password": "salah", "new_password": "baru12345"}`, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doAs(r, http.MethodPatch, "/me", `{"new_password": "baru12345"}`, token)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	w = doAs(r, http.MethodPatch, "/me", `{"new_password": "abc"}`, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doAs(r, http.MethodPatch, "/me", `{"old_password": "rahasia123", "new_password": "baru12345"}`, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login(t, r, "sari@example.com", "baru12345")

	w = doAs(r, http.MethodPost, "/refresh", "", token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, http.StatusOK, doAs(r, http.MethodGet, "/me", "", out.Token).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/refresh", "").Code)
}

func TestRegisterRejections(t *testing.T) {
	r, box := setupAuth(t)

	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/register", registerBody).Code)
	assert.Equal(t, http.StatusConflict, do(r, http.MethodPost, "/register", registerBody).Code)

	w := do(r, http.MethodPost, "/register", `{
		"first_name": "Budi",
		"last_name": "Santoso",
		"email": "budi@example.com",
		"password": "rahasia123",
		"role": "customer",
		"referral_code": "NOPE0000"
	}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(r, http.MethodPost, "/register", `{"email": "not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/register", `{
		"first_name": "Eka",
		"last_name": "Putri",
		"email": "eka@example.com",
		"password": "rahasia123",
		"role": "admin"
	}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Len(t, box.sent, 1)
}

func TestStatusOf(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want int
	}{
		{services.Kind(services.ErrNotFound), http.StatusNotFound},
		{services.Kind(services.ErrUnauthorized), http.StatusForbidden},
		{services.Kind(services.ErrUserNotVerified), http.StatusForbidden},
		{services.Kind(services.ErrInsufficientQuota), http.StatusConflict},
		{services.Kind(services.ErrInsufficientPoints), http.StatusConflict},
		{services.Kind(services.ErrAlreadyExists), http.StatusConflict},
		{services.Kind(services.ErrInvalidState), http.StatusUnprocessableEntity},
		{services.Kind(services.ErrVoucherWrongEvent), http.StatusBadRequest},
		{services.Kind(services.ErrCouponNotActive), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	} {
		assert.Equal(t, tc.want, StatusOf(tc.err), tc.err.Error())
	}
}
