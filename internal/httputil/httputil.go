// Пакет httputil — общие ответы HTTP-обработчиков.
package httputil

import "github.com/gin-gonic/gin"

// RespondError завершает запрос ошибкой в формате {"error": msg}.
// Цепочка обработчиков при этом обрывается: диспетчер сессий различает
// статусы 4xx/5xx, и частично сформированный ответ ему хуже явного отказа.
func RespondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
