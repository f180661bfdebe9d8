package middleware

import (
	"context"
	"errors"
	"strings"

	"rbac-admin/common"
	"rbac-admin/domain"
	"rbac-admin/pkg/log"

	"github.com/gin-gonic/gin"
)

type JwtProvider interface {
	Verify(tokenType domain.TokenType, tokenStr string) (*domain.JwtClaims, error)
}

type SessionRepository interface {
	FindByID(ctx context.Context, sessionID string) (*domain.UserSession, error)
}

type UserRepository interface {
	FindOne(ctx context.Context, filter *domain.UserFilter, option *domain.FindOneOption) (*domain.User, error)
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

// Authenticator resolves the bearer token to an active session and a user
// that is not trashed.
func (m *middlewares) Authenticator() gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken := extractBearerToken(c)
		if accessToken == "" {
			common.ResponseError(c, domain.ErrUnauthorized.WithReason("Missing bearer token"))
			return
		}

		claims, err := m.jwtProvider.Verify(domain.TokenTypeAccess, accessToken)
		if err != nil {
			common.ResponseError(c, domain.ErrInvalidToken.WithWrap(err))
			return
		}

		ctx := c.Request.Context()
		session, err := m.sessionRepo.FindByID(ctx, claims.Sid)
		if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
			common.ResponseError(c, domain.ErrInternalServerError.WithWrap(err))
			return
		}
		if session == nil || !session.IsActive() || session.UserID != claims.Sub {
			common.ResponseError(c, domain.ErrSessionExpired)
			return
		}

		user, err := m.userRepo.FindOne(ctx, &domain.UserFilter{ID: &claims.Sub}, &domain.FindOneOption{
			Preloads: []string{"Roles"},
		})
		if err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				common.ResponseError(c, domain.ErrUnauthorized.WithReason("The account no longer exists"))
				return
			}
			common.ResponseError(c, domain.ErrInternalServerError.WithWrap(err))
			return
		}

		c.Request = c.Request.WithContext(log.ContextWithUserID(ctx, user.ID))
		c.Set(common.UserContextKey, user)
		c.Set(common.SessionIDContextKey, session.ID)
		c.Next()
	}
}

// RequirePermissions lets the request through when the user holds any of
// permissions.
func (m *middlewares) RequirePermissions(permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := common.GetUserFromCtx(c)
		if user == nil {
			common.ResponseError(c, domain.ErrUnauthorized.WithReason("User context not found"))
			return
		}

		allowed, err := m.access.Can(c.Request.Context(), user, permissions...)
		if err != nil {
			common.ResponseError(c, err)
			return
		}
		if !allowed {
			common.ResponseForbidden(c, "Requires one of: "+strings.Join(permissions, ", "))
			return
		}

		c.Next()
	}
}
