package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Materia/internal/apperr"
	"github.com/lshigami/Materia/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver map[uint]*auth.Viewer

func (s stubResolver) Authenticate(_ context.Context, userID uint) (*auth.Viewer, error) {
	if userID == 500 {
		return nil, errors.New("db down")
	}
	v, ok := s[userID]
	if !ok {
		return nil, apperr.Unauthorized("user not found for token")
	}
	return v, nil
}

func newRouter(t *testing.T) (*gin.Engine, *auth.TokenManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens, err := auth.NewTokenManager("test-secret")
	require.NoError(t, err)
	am := NewAuthMiddleware(tokens, stubResolver{
		1: {ID: 1},
		2: {ID: 2, IsAdmin: true},
	})

	whoami := func(c *gin.Context) {
		v := auth.ViewerFrom(c.Request.Context())
		if v == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": v.ID, "admin": v.IsAdmin})
	}
	r := gin.New()
	r.Use(RequestID())
	r.GET("/optional", am.OptionalAuth(), whoami)
	r.GET("/required", am.RequireAuth(), whoami)
	r.GET("/admin", am.RequireAuth(), am.RequireAdmin(), whoami)
	return r, tokens
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func issue(t *testing.T, tokens *auth.TokenManager, id uint) string {
	t.Helper()
	tok, err := tokens.Issue(id, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestOptionalAuth(t *testing.T) {
	r, tokens := newRouter(t)

	w := do(r, "/optional", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anonymous", w.Body.String())

	w = do(r, "/optional", issue(t, tokens, 1))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"admin":false}`, w.Body.String())

	w = do(r, "/optional", "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code, "bad tokens are never downgraded to anonymous")

	w = do(r, "/optional", issue(t, tokens, 99))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, "/optional", issue(t, tokens, 500))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequireAuth(t *testing.T) {
	r, tokens := newRouter(t)

	w := do(r, "/required", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"unauthorized"`)

	expired, err := tokens.Issue(1, -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/required", expired).Code)

	assert.Equal(t, http.StatusOK, do(r, "/required", issue(t, tokens, 1)).Code)
}

func TestRequireAdmin(t *testing.T) {
	r, tokens := newRouter(t)

	assert.Equal(t, http.StatusUnauthorized, do(r, "/admin", "").Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/admin", issue(t, tokens, 1)).Code)
	assert.Equal(t, http.StatusOK, do(r, "/admin", issue(t, tokens, 2)).Code)
}

func TestRequestID(t *testing.T) {
	r, _ := newRouter(t)

	w := do(r, "/optional", "")
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestExtractBearer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for header, want := range map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"Bearer":       "",
		"":             "",
	} {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			c.Request.Header.Set("Authorization", header)
		}
		assert.Equal(t, want, extractBearer(c), header)
	}
}
