package handlers

import (
	"net/http"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/repository"
	"github.com/Daniel-T-Dada/vector-interview-app/views"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const recentInterviews = 5

type DashboardHandler struct {
	log   *zap.Logger
	store repository.Store
}

func NewDashboardHandler(log *zap.Logger, store repository.Store) *DashboardHandler {
	return &DashboardHandler{log: log, store: store}
}

func (h *DashboardHandler) Show(c *gin.Context) {
	ctx := c.Request.Context()

	interviews, err := h.store.ListInterviews(ctx)
	if err != nil {
		h.log.Error("Failed to list interviews", zap.Error(err))
		renderError(c, http.StatusServiceUnavailable, "Failed to load dashboard.", "/dashboard")
		return
	}
	candidates, err := h.store.CountCandidates(ctx)
	if err != nil {
		h.log.Warn("Failed to count candidates", zap.Error(err))
	}
	completed, err := h.store.CountSubmissions(ctx)
	if err != nil {
		h.log.Warn("Failed to count submissions", zap.Error(err))
	}
	users, err := h.store.CountUsers(ctx)
	if err != nil {
		h.log.Warn("Failed to count users", zap.Error(err))
	}

	recent := append(interviews[:0:0], interviews...)
	sortInterviews(recent, "dateCreated", false)
	if len(recent) > recentInterviews {
		recent = recent[:recentInterviews]
	}

	render(c, http.StatusOK, "Dashboard", views.Dashboard(views.DashboardData{
		User:            currentUser(c),
		TotalInterviews: len(interviews),
		Candidates:      candidates,
		Completed:       completed,
		Users:           users,
		Recent:          recent,
		ChartJSON:       chartJSON(generateStatusChart(interviews)),
	}))
}

func (h *DashboardHandler) Users(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to list users", zap.Error(err))
		renderError(c, http.StatusServiceUnavailable, "Failed to load users.", "/dashboard/users")
		return
	}
	render(c, http.StatusOK, "Users", views.Users(users))
}

// APIUsers returns every account to signed-in admins.
func (h *DashboardHandler) APIUsers(c *gin.Context) {
	if currentUser(c) == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}
	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}
