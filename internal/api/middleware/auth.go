package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"turnline/queue-gateway/internal/constant"
)

// HandleOperator guards the operator routes with a shared key.
func HandleOperator(operatorKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if operatorKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"code": http.StatusServiceUnavailable,
				"msg":  "operator access is not configured",
			})
			return
		}

		key := c.GetHeader(constant.OperatorKeyHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(operatorKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": http.StatusUnauthorized,
				"msg":  "operator is not authorized",
			})
			return
		}

		c.Next()
	}
}
