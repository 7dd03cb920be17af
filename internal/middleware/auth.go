package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Materia/internal/apperr"
	"github.com/lshigami/Materia/internal/auth"
	"github.com/lshigami/Materia/internal/dto"
	"github.com/rs/zerolog/log"
)

// ViewerResolver loads the account behind a verified token subject.
type ViewerResolver interface {
	Authenticate(ctx context.Context, userID uint) (*auth.Viewer, error)
}

type AuthMiddleware struct {
	tokens *auth.TokenManager
	users  ViewerResolver
}

func NewAuthMiddleware(tokens *auth.TokenManager, users ViewerResolver) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// OptionalAuth lets anonymous requests through but rejects a bad token
// instead of silently downgrading to anonymous.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c)
		if token == "" {
			c.Next()
			return
		}
		if !am.attach(c, token) {
			return
		}
		c.Next()
	}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c)
		if token == "" {
			abort(c, http.StatusUnauthorized, apperr.KindUnauthorized, "authentication credentials were not provided")
			return
		}
		if !am.attach(c, token) {
			return
		}
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func (am *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer := auth.ViewerFrom(c.Request.Context())
		if viewer == nil {
			abort(c, http.StatusUnauthorized, apperr.KindUnauthorized, "authentication credentials were not provided")
			return
		}
		if !viewer.IsAdmin {
			abort(c, http.StatusForbidden, apperr.KindForbidden, "admin privileges required")
			return
		}
		c.Next()
	}
}

func (am *AuthMiddleware) attach(c *gin.Context, token string) bool {
	userID, err := am.tokens.Parse(token)
	if err != nil {
		log.Debug().Err(err).Str("path", c.FullPath()).Msg("rejected bearer token")
		abort(c, http.StatusUnauthorized, apperr.KindUnauthorized, "invalid or expired token")
		return false
	}
	viewer, err := am.users.Authenticate(c.Request.Context(), userID)
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) && appErr.Kind == apperr.KindUnauthorized {
			abort(c, http.StatusUnauthorized, apperr.KindUnauthorized, appErr.Message)
			return false
		}
		log.Error().Err(err).Uint("userID", userID).Msg("failed to load token user")
		abort(c, http.StatusInternalServerError, apperr.KindInternal, "internal server error")
		return false
	}
	c.Request = c.Request.WithContext(auth.WithViewer(c.Request.Context(), viewer))
	return true
}

func extractBearer(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func abort(c *gin.Context, status int, kind apperr.Kind, msg string) {
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Message: msg, Code: string(kind)})
}
