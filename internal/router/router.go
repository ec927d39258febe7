package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/config"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/handlers"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/repository"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/services"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/session"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/ws"
	"github.com/Daniel-T-Dada/vector-interview-app/views"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/a-h/templ"
	"github.com/benbjohnson/clock"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

// Deps are the long-lived services the routes are built on.
type Deps struct {
	Store     repository.Store
	Registry  *session.Registry
	Hub       *ws.Hub
	Broker    *ws.DeviceBroker
	Submitter session.Submitter
	Links     *services.ShareLinks
	Clock     clock.Clock
	// AssetsDir is served under /assets; empty disables it.
	AssetsDir string
}

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.String(http.StatusTooManyRequests, "Too many requests. Try again later.")
}

func contentSecurityPolicy(c *gin.Context) {
	if c.GetHeader("HX-Request") != "true" {
		nonce := c.GetString(handlers.NonceContextKey)
		csp := fmt.Sprintf(
			"default-src 'self'; script-src 'self' https://unpkg.com https://cdn.jsdelivr.net 'nonce-%s'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; media-src 'self' blob:; connect-src 'self'",
			nonce,
		)
		c.Header("Content-Security-Policy", csp)
	}
	c.Next()
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	conf := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = origins
		conf.AllowCredentials = true
	}
	return cors.New(conf)
}

func Setup(log *zap.Logger, cfg *config.Config, deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Server.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400 * 7,
	})
	router.Use(sessions.Sessions("vector_session", store))

	// Everything below relies on the session.
	router.Use(NonceMiddleware())
	router.Use(CSRFProtection("/api/"))
	router.Use(UserLoaderMiddleware(log, deps.Store))
	router.Use(contentSecurityPolicy)

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "same-origin",
	})
	router.Use(func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
		c.Next()
	})

	if deps.AssetsDir != "" {
		router.Static("/assets", deps.AssetsDir)
	}

	authHandler := handlers.NewAuthHandler(log, deps.Store)
	dashboardHandler := handlers.NewDashboardHandler(log, deps.Store)
	interviewHandler := handlers.NewInterviewHandler(log, deps.Store, deps.Links, cfg.Interview, cfg.Uploads.Directory)
	candidateHandler := handlers.NewCandidateHandler(log, handlers.CandidateDeps{
		Store:     deps.Store,
		Registry:  deps.Registry,
		Hub:       deps.Hub,
		Broker:    deps.Broker,
		Submitter: deps.Submitter,
		Links:     deps.Links,
		Clock:     deps.Clock,
		Config:    cfg.Interview,
	})

	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: 5,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	router.GET("/", func(c *gin.Context) {
		if isLoggedIn(c) {
			c.Redirect(http.StatusFound, "/dashboard")
			return
		}
		csrfToken := c.GetString(handlers.CSRFContextKey)
		cspNonce := c.GetString(handlers.NonceContextKey)
		views.Layout("Home", nil, csrfToken, cspNonce).Render(templ.WithChildren(c.Request.Context(), views.Home()), c.Writer)
	})

	router.POST("/auth/logout", authHandler.Logout)
	authRoutes := router.Group("/auth", RedirectIfAuthenticated())
	{
		authRoutes.GET("/login", authHandler.ShowLogin)
		authRoutes.POST("/login", limiter, authHandler.Login)
		authRoutes.GET("/signup", authHandler.ShowSignup)
		authRoutes.POST("/signup", limiter, authHandler.Signup)
	}

	dashboard := router.Group("/dashboard", AuthRequired())
	{
		dashboard.GET("", dashboardHandler.Show)
		dashboard.GET("/users", dashboardHandler.Users)
		dashboard.GET("/interviews", interviewHandler.List)
		dashboard.GET("/interviews/create", interviewHandler.ShowCreate)
		dashboard.POST("/interviews/create", interviewHandler.Create)
		dashboard.GET("/interviews/:id/results", interviewHandler.Results)
		dashboard.POST("/interviews/:id/status", interviewHandler.UpdateStatus)
		dashboard.POST("/interviews/:id/delete", interviewHandler.Delete)
		dashboard.GET("/recordings/*path", interviewHandler.ServeRecording)
	}

	api := router.Group("/api", corsMiddleware(cfg.Server.CORSOrigins))
	{
		api.GET("/interviews", interviewHandler.APIList)
		api.GET("/interviews/:id", interviewHandler.APIGet)
		api.POST("/interviews", APIAuthRequired(), interviewHandler.APICreate)
		api.GET("/interviews/:id/share", APIAuthRequired(), interviewHandler.APIShare)
		api.POST("/register", limiter, authHandler.Register)
		api.GET("/users", dashboardHandler.APIUsers)
	}

	candidate := router.Group("/interview/:id")
	{
		candidate.GET("", candidateHandler.Gateway)
		candidate.POST("/start", candidateHandler.Start)
		candidate.GET("/questions", candidateHandler.Questions)
		candidate.GET("/panel", candidateHandler.Panel)
		candidate.GET("/capture", candidateHandler.Capture)
		candidate.GET("/state", candidateHandler.State)
		candidate.POST("/answer", candidateHandler.Answer)
		candidate.POST("/next", candidateHandler.Next)
		candidate.POST("/recording/:action", candidateHandler.Recording)
		candidate.POST("/chunks", candidateHandler.Chunks)
		candidate.POST("/permission", candidateHandler.Permission)
		candidate.POST("/exit", candidateHandler.Exit)
		candidate.GET("/complete", candidateHandler.Complete)
		candidate.GET("/ws", candidateHandler.WS)
	}

	return router
}
