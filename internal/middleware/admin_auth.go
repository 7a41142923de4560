package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vaahiiid/askimateplatform/internal/model"
)

// AdminAuthMiddleware 校验当前用户是否具有管理员角色。
// 必须挂在 AuthMiddleware 之后使用。
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get("user")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "未认证"})
			return
		}
		user, ok := value.(*model.User)
		if !ok || user.Role != "ADMIN" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "需要管理员权限"})
			return
		}
		c.Next()
	}
}
