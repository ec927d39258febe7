package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/config"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/models"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/services"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testInterviewConfig = config.InterviewConfig{
	DefaultTimeLimit: 120,
	MinTimeLimit:     30,
	InFlightPolicy:   "discard",
	PreferredCodec:   "video/webm;codecs=vp9,opus",
	FallbackCodec:    "video/webm",
}

func frontendInterview() models.Interview {
	return models.Interview{
		ID:          "int-001",
		Title:       "Frontend Developer Interview",
		Description: "Technical screening",
		Position:    "Senior Frontend Developer",
		Status:      models.StatusScheduled,
		Questions: []models.Question{
			{ID: "q1", Text: "Describe a complex UI.", Type: models.QuestionText, TimeLimit: 30},
			{ID: "q2", Text: "How do you debug slow renders?", Type: models.QuestionText, TimeLimit: 45},
		},
	}
}

func interviewEngine(t *testing.T, interviews ...models.Interview) (*client, *InterviewHandler) {
	store := newTestStore(t, interviews...)
	links := services.NewShareLinks("share-secret", time.Hour, clock.NewMock())
	h := NewInterviewHandler(zap.NewNop(), store, links, testInterviewConfig, t.TempDir())

	r := newEngine(&models.User{ID: "admin", Name: "Demo User"})
	r.GET("/api/interviews", h.APIList)
	r.POST("/api/interviews", h.APICreate)
	r.GET("/api/interviews/:id", h.APIGet)
	r.GET("/api/interviews/:id/share", h.APIShare)
	r.GET("/dashboard/interviews", h.List)
	r.GET("/dashboard/interviews/create", h.ShowCreate)
	r.POST("/dashboard/interviews/create", h.Create)
	r.GET("/dashboard/interviews/:id/results", h.Results)
	r.POST("/dashboard/interviews/:id/status", h.UpdateStatus)
	r.POST("/dashboard/interviews/:id/delete", h.Delete)
	r.GET("/dashboard/recordings/*path", h.ServeRecording)
	return newClient(t, r), h
}

func TestInterviewAPI(t *testing.T) {
	c, _ := interviewEngine(t, frontendInterview())

	w := c.postJSON("/api/interviews", `{"title":"Missing bits"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Missing required fields"}`, w.Body.String())

	w = c.postJSON("/api/interviews", `{"title":"Ops","description":"On-call","questions":[{"text":"Tell us about an outage."}]}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
	assert.Contains(t, w.Body.String(), `"status":"scheduled"`)

	w = c.get("/api/interviews/int-001")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"timeLimit":45`)

	w = c.get("/api/interviews/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Interview not found"}`, w.Body.String())

	w = c.get("/api/interviews")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Frontend Developer Interview")
	assert.Contains(t, w.Body.String(), "Ops")
}

func TestInterviewAPIFallsBackToQuestionBank(t *testing.T) {
	iv := frontendInterview()
	iv.ID = "int-002"
	iv.Questions = nil
	c, _ := interviewEngine(t, iv)

	w := c.get("/api/interviews/int-002")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Tell us about yourself.")
}

func TestShareLink(t *testing.T) {
	c, h := interviewEngine(t, frontendInterview())

	w := c.get("/api/interviews/int-001/share")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `/interview/int-001?t=`)

	link, _, err := h.shareLink("int-001")
	require.NoError(t, err)
	token := link[len("/interview/int-001?t="):]
	assert.NoError(t, h.links.Validate(token, "int-001"))

	w = c.get("/api/interviews/missing/share")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInterviewTablePaginates(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	var interviews []models.Interview
	for i := 0; i < 12; i++ {
		iv := frontendInterview()
		iv.ID = fmt.Sprintf("int-%02d", i)
		iv.Title = fmt.Sprintf("Interview %02d", i)
		iv.DateCreated = base.Add(time.Duration(i) * time.Hour)
		interviews = append(interviews, iv)
	}
	c, _ := interviewEngine(t, interviews...)

	w := c.get("/dashboard/interviews")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Page 1 of 2 (12 interviews)")
	// Newest first by default.
	assert.Contains(t, w.Body.String(), "Interview 11")
	assert.NotContains(t, w.Body.String(), "Interview 00")

	w = c.get("/dashboard/interviews?sort=title&dir=asc&page=2")
	assert.Contains(t, w.Body.String(), "Page 2 of 2")
	assert.Contains(t, w.Body.String(), "Interview 10")
	assert.Contains(t, w.Body.String(), "Interview 11")
	assert.NotContains(t, w.Body.String(), "Interview 09")
}

func TestSortInterviews(t *testing.T) {
	rows := []models.Interview{
		{Title: "b", Status: models.StatusPending},
		{Title: "C", Status: models.StatusCancelled},
		{Title: "a", Status: models.StatusScheduled},
	}
	sortInterviews(rows, "title", true)
	assert.Equal(t, []string{"a", "b", "C"}, []string{rows[0].Title, rows[1].Title, rows[2].Title})

	sortInterviews(rows, "status", false)
	assert.Equal(t, models.StatusScheduled, rows[0].Status)
	assert.Equal(t, models.StatusCancelled, rows[2].Status)
}

func TestCreateInterviewForm(t *testing.T) {
	c, h := interviewEngine(t)

	w := c.get("/dashboard/interviews/create")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `value="120"`)

	w = c.postForm("/dashboard/interviews/create", url.Values{
		"title":               {"Support"},
		"description":         {""},
		"question_text":       {"Why support?"},
		"question_type":       {"text"},
		"question_time_limit": {"10"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Description is required")
	assert.Contains(t, w.Body.String(), "Time limit must be at least 30 seconds")

	w = c.postForm("/dashboard/interviews/create", url.Values{
		"title":               {"Support"},
		"question_text":       {"Why support?"},
		"question_type":       {"text"},
		"question_time_limit": {"60"},
		"add_question":        {"1"},
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Question 2")

	w = c.postForm("/dashboard/interviews/create", url.Values{
		"title":               {"Support"},
		"description":         {"Customer support role"},
		"question_text":       {"Why support?", "Record a greeting."},
		"question_type":       {"text", "video"},
		"question_time_limit": {"60", "90"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)

	all, err := h.store.ListInterviews(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "/dashboard/interviews/"+all[0].ID+"/results", w.Header().Get("Location"))
	require.Len(t, all[0].Questions, 2)
	assert.Equal(t, models.QuestionVideo, all[0].Questions[1].Type)
	assert.Equal(t, 90, all[0].Questions[1].TimeLimit)
}

func TestUpdateStatusAndDelete(t *testing.T) {
	c, h := interviewEngine(t, frontendInterview())

	w := c.postForm("/dashboard/interviews/int-001/status", url.Values{"status": {"bogus"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.postForm("/dashboard/interviews/int-001/status", url.Values{"status": {"completed"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	iv, err := h.store.GetInterview(context.Background(), "int-001")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, iv.Status)

	w = c.postForm("/dashboard/interviews/int-001/delete", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	w = c.postForm("/dashboard/interviews/int-001/delete", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResultsPage(t *testing.T) {
	c, h := interviewEngine(t, frontendInterview())
	require.NoError(t, h.store.SaveSubmission(context.Background(), &models.Submission{
		ID:            "s1",
		InterviewID:   "int-001",
		CandidateName: "Ada Lovelace",
		Answers: []models.Answer{
			{QuestionID: "q1", QuestionText: "Describe a complex UI.", Text: "A dashboard with live charts"},
			{QuestionID: "q2", QuestionText: "How do you debug slow renders?", VideoPath: "s1/question-02.webm", VideoSize: 2048},
		},
		CompletedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}))

	w := c.get("/dashboard/interviews/int-001/results?metric=word_count")
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Ada Lovelace")
	assert.Contains(t, body, "A dashboard with live charts")
	assert.Contains(t, body, "/dashboard/recordings/s1/question-02.webm")
	assert.Contains(t, body, "2 KB")
	assert.Contains(t, body, "/interview/int-001?t=")
	assert.Contains(t, body, `id="metric-chart" class="chart" data-chart="`)

	w = c.get("/dashboard/interviews/missing/results")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServeRecordingStaysInUploadDir(t *testing.T) {
	c, h := interviewEngine(t)
	dir := filepath.Join(h.uploadDir, "s1")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "question-01.webm"), []byte("webm"), 0o644))

	w := c.get("/dashboard/recordings/s1/question-01.webm")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "webm", w.Body.String())

	w = c.get("/dashboard/recordings/../../etc/passwd")
	assert.NotEqual(t, http.StatusOK, w.Code)
}
