package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuthRequired проверяет наличие корректного статичного Bearer-токена.
// Токен задаётся переменной окружения API_TOKEN; пустой токен означает,
// что защита не подключается вовсе (см. setupRouter).
func AuthRequired(token string) gin.HandlerFunc {
	expected := "Bearer " + token
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != expected {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
