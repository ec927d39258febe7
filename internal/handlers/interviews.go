package handlers

import (
	"errors"
	"net/http"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/config"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/metrics"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/models"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/repository"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/services"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/utils"
	"github.com/Daniel-T-Dada/vector-interview-app/views"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const interviewsPerPage = 10

// InterviewHandler serves interview management for admins and the JSON API.
type InterviewHandler struct {
	log       *zap.Logger
	store     repository.Store
	links     *services.ShareLinks
	cfg       config.InterviewConfig
	uploadDir string
}

func NewInterviewHandler(log *zap.Logger, store repository.Store, links *services.ShareLinks, cfg config.InterviewConfig, uploadDir string) *InterviewHandler {
	return &InterviewHandler{log: log, store: store, links: links, cfg: cfg, uploadDir: uploadDir}
}

// APIList returns every interview.
func (h *InterviewHandler) APIList(c *gin.Context) {
	interviews, err := h.store.ListInterviews(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to list interviews", zap.Error(err))
		jsonError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": interviews})
}

// APICreate stores an interview posted as JSON.
func (h *InterviewHandler) APICreate(c *gin.Context) {
	var iv models.Interview
	if err := c.ShouldBindJSON(&iv); err != nil {
		jsonError(c, http.StatusBadRequest, "Missing required fields")
		return
	}
	if err := h.store.CreateInterview(c.Request.Context(), &iv); err != nil {
		if errors.Is(err, repository.ErrValidation) {
			jsonError(c, http.StatusBadRequest, "Missing required fields")
			return
		}
		h.log.Error("Failed to create interview", zap.Error(err))
		jsonError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.log.Info("Interview created", zap.String("interview", iv.ID))
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": iv})
}

// APIGet returns one interview with its questions.
func (h *InterviewHandler) APIGet(c *gin.Context) {
	iv, err := h.store.GetInterview(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			jsonError(c, http.StatusNotFound, "Interview not found")
			return
		}
		h.log.Error("Failed to fetch interview", zap.Error(err))
		jsonError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": iv})
}

// APIShare issues a signed candidate link.
func (h *InterviewHandler) APIShare(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.store.GetInterview(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			jsonError(c, http.StatusNotFound, "Interview not found")
			return
		}
		jsonError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	link, expires, err := h.shareLink(id)
	if err != nil {
		h.log.Error("Failed to sign share link", zap.Error(err))
		jsonError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"url": link, "expiresAt": expires}})
}

func (h *InterviewHandler) shareLink(id string) (string, time.Time, error) {
	token, expires, err := h.links.Issue(id)
	if err != nil {
		return "", time.Time{}, err
	}
	return "/interview/" + id + "?t=" + token, expires, nil
}

// List renders the sortable, paginated interview table.
func (h *InterviewHandler) List(c *gin.Context) {
	interviews, err := h.store.ListInterviews(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to list interviews", zap.Error(err))
		renderError(c, http.StatusServiceUnavailable, "Failed to load interviews.", c.Request.URL.String())
		return
	}

	field := c.DefaultQuery("sort", "dateCreated")
	dir := c.DefaultQuery("dir", "desc")
	if dir != "asc" {
		dir = "desc"
	}
	sortInterviews(interviews, field, dir == "asc")

	pages := (len(interviews) + interviewsPerPage - 1) / interviewsPerPage
	if pages == 0 {
		pages = 1
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * interviewsPerPage
	end := min(start+interviewsPerPage, len(interviews))

	render(c, http.StatusOK, "Interviews", views.InterviewTable(views.InterviewTableData{
		Rows:      interviews[start:end],
		Sort:      field,
		Dir:       dir,
		Page:      page,
		Pages:     pages,
		Total:     len(interviews),
		CSRFToken: csrfToken(c),
	}))
}

// sortInterviews orders rows by field. Unknown fields sort by creation date.
func sortInterviews(rows []models.Interview, field string, asc bool) {
	less := func(a, b models.Interview) bool {
		switch field {
		case "title":
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		case "position":
			return strings.ToLower(a.Position) < strings.ToLower(b.Position)
		case "candidateName":
			return strings.ToLower(a.Candidate) < strings.ToLower(b.Candidate)
		case "status":
			return a.Status < b.Status
		default:
			return a.DateCreated.Before(b.DateCreated)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if asc {
			return less(rows[i], rows[j])
		}
		return less(rows[j], rows[i])
	})
}

func (h *InterviewHandler) blankQuestion() models.Question {
	limit := h.cfg.DefaultTimeLimit
	if limit <= 0 {
		limit = models.DefaultTimeLimit
	}
	return models.Question{Type: models.QuestionText, TimeLimit: limit}
}

func (h *InterviewHandler) ShowCreate(c *gin.Context) {
	render(c, http.StatusOK, "Create Interview", views.CreateInterview(views.InterviewFormData{
		Interview:    models.Interview{Questions: []models.Question{h.blankQuestion()}},
		MinTimeLimit: h.cfg.MinTimeLimit,
		CSRFToken:    csrfToken(c),
	}))
}

// parseInterviewForm reads the create form. Question fields arrive as
// parallel arrays.
func parseInterviewForm(c *gin.Context) models.Interview {
	iv := models.Interview{
		Title:       strings.TrimSpace(c.PostForm("title")),
		Description: strings.TrimSpace(c.PostForm("description")),
		Position:    strings.TrimSpace(c.PostForm("position")),
		Candidate:   strings.TrimSpace(c.PostForm("candidateName")),
		Status:      models.StatusScheduled,
	}
	texts := c.PostFormArray("question_text")
	types := c.PostFormArray("question_type")
	limits := c.PostFormArray("question_time_limit")
	for i, text := range texts {
		q := models.Question{Text: strings.TrimSpace(text), Type: models.QuestionText}
		if i < len(types) && models.QuestionType(types[i]) == models.QuestionVideo {
			q.Type = models.QuestionVideo
		}
		if i < len(limits) {
			q.TimeLimit, _ = strconv.Atoi(limits[i])
		}
		iv.Questions = append(iv.Questions, q)
	}
	return iv
}

func (h *InterviewHandler) Create(c *gin.Context) {
	iv := parseInterviewForm(c)
	form := views.InterviewFormData{Interview: iv, MinTimeLimit: h.cfg.MinTimeLimit, CSRFToken: csrfToken(c)}

	if c.PostForm("add_question") != "" {
		form.Interview.Questions = append(form.Interview.Questions, h.blankQuestion())
		render(c, http.StatusOK, "Create Interview", views.CreateInterview(form))
		return
	}

	if errs := utils.InterviewErrors(&iv, h.cfg.MinTimeLimit); len(errs) > 0 {
		form.Errors = errs
		render(c, http.StatusBadRequest, "Create Interview", views.CreateInterview(form))
		return
	}

	if err := h.store.CreateInterview(c.Request.Context(), &iv); err != nil {
		h.log.Error("Failed to create interview", zap.Error(err))
		form.Errors = map[string]string{"title": "Failed to save interview. Please try again."}
		render(c, http.StatusInternalServerError, "Create Interview", views.CreateInterview(form))
		return
	}
	h.log.Info("Interview created", zap.String("interview", iv.ID), zap.Int("questions", len(iv.Questions)))
	redirect(c, "/dashboard/interviews/"+iv.ID+"/results")
}

func (h *InterviewHandler) UpdateStatus(c *gin.Context) {
	status := models.InterviewStatus(c.PostForm("status"))
	switch status {
	case models.StatusScheduled, models.StatusPending, models.StatusCompleted, models.StatusCancelled:
	default:
		c.String(http.StatusBadRequest, "Invalid status")
		return
	}
	if err := h.store.UpdateInterviewStatus(c.Request.Context(), c.Param("id"), status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.String(http.StatusNotFound, "Interview not found")
			return
		}
		h.log.Error("Failed to update status", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to update status")
		return
	}
	redirect(c, "/dashboard/interviews")
}

func (h *InterviewHandler) Delete(c *gin.Context) {
	if err := h.store.DeleteInterview(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.String(http.StatusNotFound, "Interview not found")
			return
		}
		h.log.Error("Failed to delete interview", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to delete interview")
		return
	}
	redirect(c, "/dashboard/interviews")
}

// Results shows submissions and per-question metrics for one interview.
func (h *InterviewHandler) Results(c *gin.Context) {
	ctx := c.Request.Context()
	iv, err := h.store.GetInterview(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			renderError(c, http.StatusNotFound, "Interview not found", "")
			return
		}
		h.log.Error("Failed to fetch interview", zap.Error(err))
		renderError(c, http.StatusServiceUnavailable, "Failed to load interview.", c.Request.URL.String())
		return
	}

	subs, err := h.store.ListSubmissions(ctx, iv.ID)
	if err != nil {
		h.log.Error("Failed to list submissions", zap.Error(err), zap.String("interview", iv.ID))
		renderError(c, http.StatusServiceUnavailable, "Failed to load submissions.", c.Request.URL.String())
		return
	}

	option := metrics.Option(c.Query("metric"))
	summaries := metrics.Summarize(iv.Questions, subs)

	shareURL := ""
	if h.links != nil {
		if link, _, err := h.shareLink(iv.ID); err == nil {
			shareURL = link
		} else {
			h.log.Warn("Failed to sign share link", zap.Error(err))
		}
	}

	render(c, http.StatusOK, iv.Title, views.Results(views.ResultsData{
		Interview:   *iv,
		Summaries:   summaries,
		Submissions: subs,
		Metric:      option.Value,
		ChartJSON:   chartJSON(generateMetricChart(summaries, option)),
		ShareURL:    shareURL,
	}))
}

// ServeRecording streams a stored answer video from the uploads directory.
func (h *InterviewHandler) ServeRecording(c *gin.Context) {
	rel := path.Clean("/" + c.Param("path"))
	if rel == "/" {
		c.Status(http.StatusNotFound)
		return
	}
	c.File(filepath.Join(h.uploadDir, filepath.FromSlash(rel)))
}
