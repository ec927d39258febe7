package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/models"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/repository"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestStore(t *testing.T, interviews ...models.Interview) *repository.MemoryStore {
	t.Helper()
	store, err := repository.NewMemoryStore(&models.SeedData{
		Interviews: interviews,
		Questions: models.QuestionBank{
			"default": {{ID: "bank-1", Text: "Tell us about yourself.", Type: models.QuestionText, TimeLimit: 60}},
		},
	})
	require.NoError(t, err)
	return store
}

// newEngine returns an engine with cookie sessions. When user is set it
// is placed in the context the way the router's user loader does.
func newEngine(user *models.User) *gin.Engine {
	r := gin.New()
	r.Use(sessions.Sessions("test", cookie.NewStore([]byte("test-secret"))))
	r.Use(func(c *gin.Context) {
		c.Set(CSRFContextKey, "token")
		c.Set(NonceContextKey, "nonce")
		if user != nil {
			c.Set(UserContextKey, user)
		}
		c.Next()
	})
	return r
}

// client carries cookies between requests against one engine.
type client struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

func newClient(t *testing.T, handler http.Handler) *client {
	return &client{t: t, handler: handler, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		c.cookies[ck.Name] = ck
	}
	return w
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *client) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *client) postRaw(path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", "application/octet-stream")
	return c.do(req)
}

func newHTMXRequest(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("HX-Request", "true")
	return req
}
