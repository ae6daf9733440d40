package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/handler/httperr"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/errs"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/pkg/jwt"
	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/shared"

	"github.com/gin-gonic/gin"
)

var (
	errMissingToken     = errs.New("missing bearer token")
	errNoActor          = errs.New("no actor in context")
	errInsufficientRole = errs.New("insufficient role")
)

type AuthMiddleware struct {
	tokens *jwt.Service
}

const ctxActorKey = "actor"

var roleHierarchy = map[shared.Role]int{
	shared.RoleGuest: 1,
	shared.RoleHost:  2,
	shared.RoleAdmin: 3,
}

func NewAuthMiddleware(tokens *jwt.Service) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimSpace(authHeader[len("Bearer "):])
		}

		if token == "" {
			httperr.AbortWithError(c, http.StatusUnauthorized, errMissingToken, "Access token required", nil)
			return
		}

		claims, err := m.tokens.ValidateToken(token)
		if err != nil {
			slog.Warn("Token validation failed in auth middleware", "error", err.Error())
			httperr.AbortWithError(c, http.StatusUnauthorized, err, "Invalid or expired token", nil)
			return
		}

		actor := shared.Actor{UserID: claims.UserID, Role: shared.Role(claims.Role)}
		c.Set(ctxActorKey, actor)
		c.Set("jwt_claims", map[string]any{
			"user_id": actor.UserID.String(),
			"role":    string(actor.Role),
		})
		c.Next()
	}
}

func (m *AuthMiddleware) RequireRoleAtLeast(minRole shared.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			// Unexpected error: should be used after RequireAuth()
			httperr.AbortWithError(c, http.StatusInternalServerError, errNoActor, "Internal server error", nil)
			return
		}

		if !hasMinimumRole(actor.Role, minRole) {
			httperr.AbortWithError(c, http.StatusForbidden, errInsufficientRole, "Insufficient permissions", nil)
			return
		}

		c.Next()
	}
}

func hasMinimumRole(role, minRole shared.Role) bool {
	level, ok := roleHierarchy[role]
	minLevel, minOk := roleHierarchy[minRole]
	return ok && minOk && level >= minLevel
}

func GetActor(c *gin.Context) (shared.Actor, bool) {
	v, exists := c.Get(ctxActorKey)
	if !exists {
		return shared.Actor{}, false
	}

	actor, ok := v.(shared.Actor)
	return actor, ok
}
