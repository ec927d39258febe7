package router

import (
	"net/http"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/handlers"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/utils"

	"github.com/gin-gonic/gin"
)

// NonceMiddleware creates a new cryptographic nonce for each request
// and adds it to the Gin context for use in headers and templates.
func NonceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		nonce, err := utils.GenerateSecureToken(16)
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Set(handlers.NonceContextKey, nonce)
		c.Next()
	}
}
