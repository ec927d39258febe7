package handlers

import (
	"net/http"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/models"
	"github.com/Daniel-T-Dada/vector-interview-app/views"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
)

// Context keys set by the router middleware.
const (
	UserContextKey  = "user"
	CSRFContextKey  = "csrf_token"
	NonceContextKey = "csp_nonce"
)

// Session keys.
const (
	sessionUserID           = "userID"
	sessionCandidateName    = "candidateName"
	sessionInterviewID      = "interviewId"
	sessionCandidateSession = "candidateSession"
)

func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

func csrfToken(c *gin.Context) string {
	return c.GetString(CSRFContextKey)
}

func cspNonce(c *gin.Context) string {
	return c.GetString(NonceContextKey)
}

// currentUser returns the admin loaded by the user middleware, or nil.
func currentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(UserContextKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// render writes component alone for HTMX requests and inside the page
// layout otherwise.
func render(c *gin.Context, status int, title string, component templ.Component) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")

	ctx := c.Request.Context()
	if isHTMX(c) {
		_ = component.Render(ctx, c.Writer)
		return
	}
	layout := views.Layout(title, currentUser(c), csrfToken(c), cspNonce(c))
	_ = layout.Render(templ.WithChildren(ctx, component), c.Writer)
}

func renderError(c *gin.Context, status int, message, retryURL string) {
	render(c, status, http.StatusText(status), views.ErrorPage(status, message, retryURL))
}

// jsonError writes the {success:false, message} body the JSON API uses.
func jsonError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// redirect sends browsers and HTMX requests to location.
func redirect(c *gin.Context, location string) {
	if isHTMX(c) {
		c.Header("HX-Redirect", location)
		c.Status(http.StatusOK)
		return
	}
	c.Redirect(http.StatusSeeOther, location)
}
