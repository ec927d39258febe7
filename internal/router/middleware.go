package router

import (
	"net/http"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/handlers"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/repository"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const loginPath = "/auth/login"

// UserLoaderMiddleware checks for a userID in the session.
// If found, it loads the user from the store and adds it to the context.
// This ensures we don't have "zombie" sessions for users who no longer exist.
func UserLoaderMiddleware(log *zap.Logger, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get("userID").(string)
		if !ok || userID == "" {
			c.Next()
			return
		}

		user, err := users.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			log.Info("Dropping session for unknown user", zap.String("user", userID), zap.Error(err))
			session.Delete("userID")
			if err := session.Save(); err != nil {
				log.Error("Failed to save session", zap.Error(err))
			}
			c.Next()
			return
		}

		c.Set(handlers.UserContextKey, user)
		c.Next()
	}
}

func isLoggedIn(c *gin.Context) bool {
	_, exists := c.Get(handlers.UserContextKey)
	return exists
}

// AuthRequired sends guests to the login page.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isLoggedIn(c) {
			if c.GetHeader("HX-Request") == "true" {
				c.Header("HX-Redirect", loginPath)
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// APIAuthRequired answers 401 JSON to guests.
func APIAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isLoggedIn(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// RedirectIfAuthenticated keeps signed-in admins off the login and signup pages.
func RedirectIfAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isLoggedIn(c) {
			c.Redirect(http.StatusFound, "/dashboard")
			c.Abort()
			return
		}
		c.Next()
	}
}
