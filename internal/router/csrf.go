package router

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/handlers"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Define keys for storing the token in the session and requests.
const (
	csrfTokenSessionKey = "csrf_token"
	csrfTokenFormKey    = "_csrf"
	csrfTokenHeaderKey  = "X-CSRF-Token"
)

// CSRFProtection issues a per-session token and checks it on unsafe
// methods. Paths under exempt are skipped; the JSON API is guarded by
// CORS and JSON-only bodies instead.
func CSRFProtection(exempt ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		// 1. Get or create the real CSRF token for the session.
		token, _ := session.Get(csrfTokenSessionKey).(string)
		if token == "" {
			newToken, err := utils.GenerateSecureToken(32)
			if err != nil {
				c.AbortWithError(http.StatusInternalServerError, errors.New("failed to generate CSRF token"))
				return
			}
			token = newToken
			session.Set(csrfTokenSessionKey, token)
			if err := session.Save(); err != nil {
				c.AbortWithError(http.StatusInternalServerError, errors.New("failed to save session"))
				return
			}
		}

		// 2. Make the token available for the templates.
		c.Set(handlers.CSRFContextKey, token)

		// 3. Validate the token on unsafe methods.
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}
		for _, prefix := range exempt {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}

		// The header is checked first so raw bodies such as recorder
		// chunks are never parsed as forms.
		submittedToken := c.GetHeader(csrfTokenHeaderKey)
		if submittedToken == "" {
			submittedToken = c.PostForm(csrfTokenFormKey)
		}

		if submittedToken == "" || submittedToken != token {
			if c.GetHeader("HX-Request") == "true" {
				c.Header("HX-Redirect", "/")
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.AbortWithError(http.StatusForbidden, errors.New("invalid CSRF token"))
			return
		}

		c.Next()
	}
}
