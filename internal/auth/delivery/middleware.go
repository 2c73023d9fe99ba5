package delivery

import (
	"net/http"
	"strings"

	authdomain "ticktask-backend/internal/auth/domain"
	"ticktask-backend/internal/auth/usecase"
	"ticktask-backend/pkg/apperror"
	"ticktask-backend/pkg/httpx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const userKey = "user"

func AuthMiddleware(authUsecase usecase.AuthUsecase, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		user, err := authUsecase.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			if apperror.Is(err, apperror.CodeUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
				return
			}
			httpx.Error(c, logger, err)
			c.Abort()
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated actor set by AuthMiddleware.
func CurrentUser(c *gin.Context) *authdomain.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*authdomain.User); ok {
			return user
		}
	}
	return nil
}

// SetCurrentUser stores the actor on the context.
func SetCurrentUser(c *gin.Context, user *authdomain.User) {
	c.Set(userKey, user)
}
