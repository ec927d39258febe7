package router

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/config"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/models"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/repository"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/services"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/session"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/ws"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var csrfPattern = regexp.MustCompile(`name="_csrf" value="([^"]+)"`)

type browser struct {
	t       *testing.T
	engine  *gin.Engine
	cookies map[string]*http.Cookie
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range b.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	b.engine.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		b.cookies[ck.Name] = ck
	}
	return w
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) csrf(path string) string {
	b.t.Helper()
	w := b.get(path)
	m := csrfPattern.FindStringSubmatch(w.Body.String())
	require.Len(b.t, m, 2, "no CSRF field on %s", path)
	return m[1]
}

func newBrowser(t *testing.T) *browser {
	gin.SetMode(gin.TestMode)

	store, err := repository.NewMemoryStore(&models.SeedData{
		Interviews: []models.Interview{{
			ID: "int-001", Title: "Frontend", Description: "Screening",
			Questions: []models.Question{{ID: "q1", Text: "Why us?", TimeLimit: 60}},
		}},
		Users: []models.SeedAccount{{Name: "Demo User", Email: "user@example.com", Password: "password123"}},
	})
	require.NoError(t, err)

	cfg := &config.Config{
		Server: config.ServerConfig{SessionSecret: "session-secret", CORSOrigins: []string{"*"}},
		Interview: config.InterviewConfig{
			DefaultTimeLimit: 120,
			MinTimeLimit:     30,
			PreferredCodec:   session.PreferredCodec,
			FallbackCodec:    session.FallbackCodec,
		},
		Uploads: config.UploadsConfig{Directory: t.TempDir()},
	}
	mock := clock.NewMock()
	hub := ws.NewHub(zap.NewNop())
	registry := session.NewRegistry(mock)
	t.Cleanup(registry.CloseAll)

	engine := Setup(zap.NewNop(), cfg, Deps{
		Store:     store,
		Registry:  registry,
		Hub:       hub,
		Broker:    ws.NewDeviceBroker(hub),
		Submitter: services.NewSubmitter(store, cfg.Uploads.Directory, nil, zap.NewNop()),
		Links:     services.NewShareLinks("share-secret", time.Hour, mock),
		Clock:     mock,
	})
	return &browser{t: t, engine: engine, cookies: map[string]*http.Cookie{}}
}

func TestHomeSetsSecurityHeaders(t *testing.T) {
	b := newBrowser(t)

	w := b.get("/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Welcome to Vector Interview")
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "'nonce-")
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestDashboardRequiresLogin(t *testing.T) {
	b := newBrowser(t)

	w := b.get("/dashboard")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login", w.Header().Get("Location"))

	w = b.get("/api/users")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginFlow(t *testing.T) {
	b := newBrowser(t)
	token := b.csrf("/auth/login")

	w := b.postForm("/auth/login", url.Values{"email": {"user@example.com"}, "password": {"password123"}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = b.postForm("/auth/login", url.Values{
		"_csrf": {token}, "email": {"user@example.com"}, "password": {"password123"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))

	w = b.get("/dashboard")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Welcome, Demo User")

	w = b.get("/auth/login")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))

	w = b.get("/api/users")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestAPIIsExemptFromCSRF(t *testing.T) {
	b := newBrowser(t)

	req := httptest.NewRequest(http.MethodPost, "/api/register",
		strings.NewReader(`{"name":"Ada","email":"ada@example.com","password":"Secret123"}`))
	req.Header.Set("Content-Type", "application/json")
	w := b.do(req)
	assert.Equal(t, http.StatusCreated, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/interviews", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w = b.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCandidateStartThroughRouter(t *testing.T) {
	b := newBrowser(t)
	token := b.csrf("/interview/int-001")

	w := b.postForm("/interview/int-001/start", url.Values{"_csrf": {token}, "name": {"Ada"}})
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = b.get("/interview/int-001/questions")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Question 1 of 1")
	assert.Contains(t, w.Body.String(), "Finish Interview")
}
