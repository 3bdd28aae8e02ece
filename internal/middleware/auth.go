package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"Volunteer_Hub/internal/pkg"
	"Volunteer_Hub/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey = "user_id"
	ContextRoleKey   = "role"
	ContextCallerKey = "caller"
)

// Authenticator 校验 access token 并返回调用方
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (service.Caller, error)
}

func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "missing authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid authorization format"})
			return
		}

		caller, err := auth.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			status := pkg.HTTPStatus(err)
			msg := err.Error()
			if status == http.StatusInternalServerError {
				msg = "internal server error"
			}
			c.AbortWithStatusJSON(status, gin.H{"msg": msg})
			return
		}

		// 注入调用方
		c.Set(ContextUserIDKey, caller.ID)
		c.Set(ContextRoleKey, caller.Role)
		c.Set(ContextCallerKey, caller)
		c.Next()
	}
}

// RequireRole 必须挂在 AuthMiddleware 之后
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "unauthorized"})
			return
		}
		if !slices.Contains(roles, caller.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"msg": "user role '" + caller.Role + "' is not authorized to access this route"})
			return
		}
		c.Next()
	}
}

func CallerFrom(c *gin.Context) (service.Caller, bool) {
	v, ok := c.Get(ContextCallerKey)
	if !ok {
		return service.Caller{}, false
	}
	caller, ok := v.(service.Caller)
	return caller, ok
}
