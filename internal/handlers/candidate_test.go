package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/models"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/repository"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/services"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/session"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/ws"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type candidateFixture struct {
	*client
	h     *CandidateHandler
	store *repository.MemoryStore
	clock *clock.Mock
}

func newCandidateFixture(t *testing.T, requireToken bool, interviews ...models.Interview) *candidateFixture {
	store := newTestStore(t, interviews...)
	mock := clock.NewMock()
	hub := ws.NewHub(zap.NewNop())
	registry := session.NewRegistry(mock)
	t.Cleanup(registry.CloseAll)

	cfg := testInterviewConfig
	cfg.RequireShareToken = requireToken
	h := NewCandidateHandler(zap.NewNop(), CandidateDeps{
		Store:     store,
		Registry:  registry,
		Hub:       hub,
		Broker:    ws.NewDeviceBroker(hub),
		Submitter: services.NewSubmitter(store, t.TempDir(), nil, zap.NewNop()),
		Links:     services.NewShareLinks("share-secret", time.Hour, mock),
		Clock:     mock,
		Config:    cfg,
	})

	r := newEngine(nil)
	g := r.Group("/interview/:id")
	g.GET("", h.Gateway)
	g.POST("/start", h.Start)
	g.GET("/questions", h.Questions)
	g.GET("/panel", h.Panel)
	g.GET("/capture", h.Capture)
	g.GET("/state", h.State)
	g.POST("/answer", h.Answer)
	g.POST("/next", h.Next)
	g.POST("/recording/:action", h.Recording)
	g.POST("/chunks", h.Chunks)
	g.POST("/permission", h.Permission)
	g.POST("/exit", h.Exit)
	g.GET("/complete", h.Complete)

	return &candidateFixture{client: newClient(t, r), h: h, store: store, clock: mock}
}

func (f *candidateFixture) start(t *testing.T, id, name string) {
	t.Helper()
	w := f.postForm("/interview/"+id+"/start", url.Values{"name": {name}})
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	require.Equal(t, "/interview/"+id+"/questions", w.Header().Get("Location"))
}

func (f *candidateFixture) state(t *testing.T, id string) session.View {
	t.Helper()
	w := f.get("/interview/" + id + "/state")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data session.View `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Data
}

func TestGateway(t *testing.T) {
	f := newCandidateFixture(t, false, frontendInterview())

	w := f.get("/interview/int-001")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Frontend Developer Interview")
	assert.Contains(t, w.Body.String(), "Position: Senior Frontend Developer")
	assert.Contains(t, w.Body.String(), "Full Name")
	assert.Contains(t, w.Body.String(), "Start Interview")

	w = f.get("/interview/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Interview not found")
}

func TestStartRequiresName(t *testing.T) {
	f := newCandidateFixture(t, false, frontendInterview())

	w := f.postForm("/interview/int-001/start", url.Values{"name": {"   "}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please enter your name to continue")

	n, err := f.store.CountCandidates(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCandidateCompletesInterview(t *testing.T) {
	f := newCandidateFixture(t, false, frontendInterview())
	f.start(t, "int-001", "Ada Lovelace")

	w := f.get("/interview/int-001/questions")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Question 1 of 2")
	assert.Contains(t, w.Body.String(), "Candidate: Ada Lovelace")
	assert.Contains(t, w.Body.String(), "00:30")
	assert.Contains(t, w.Body.String(), "Next Question")

	w = f.postForm("/interview/int-001/answer", url.Values{"text": {"A trading dashboard"}})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.postForm("/interview/int-001/next", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Question 2 of 2")
	assert.Contains(t, w.Body.String(), "00:45")
	assert.Contains(t, w.Body.String(), "Finish Interview")

	v := f.state(t, "int-001")
	assert.Equal(t, 2, v.QuestionNumber)
	assert.True(t, v.IsLastQuestion)

	w = f.postForm("/interview/int-001/next", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/interview/int-001/complete", w.Header().Get("Location"))

	subs, err := f.store.ListSubmissions(context.Background(), "int-001")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "Ada Lovelace", subs[0].CandidateName)
	require.Len(t, subs[0].Answers, 2)
	assert.Equal(t, "A trading dashboard", subs[0].Answers[0].Text)
	assert.Empty(t, subs[0].Answers[1].Text)

	w = f.get("/interview/int-001/complete")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Interview Completed")
	assert.Contains(t, w.Body.String(), "Thank you for completing this interview, Ada Lovelace.")

	// The finished session is gone; the questions page sends the candidate back.
	w = f.get("/interview/int-001/questions")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/interview/int-001", w.Header().Get("Location"))
}

func TestHTMXFinishUsesRedirectHeader(t *testing.T) {
	iv := frontendInterview()
	iv.Questions = iv.Questions[:1]
	f := newCandidateFixture(t, false, iv)
	f.start(t, "int-001", "Ada")

	req := httptest.NewRequest(http.MethodPost, "/interview/int-001/next", nil)
	req.Header.Set("HX-Request", "true")
	w := f.do(req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/interview/int-001/complete", w.Header().Get("HX-Redirect"))
}

func TestTimerExpiryAdvances(t *testing.T) {
	f := newCandidateFixture(t, false, frontendInterview())
	f.start(t, "int-001", "Ada")

	require.Eventually(t, func() bool {
		f.clock.Add(time.Second)
		return f.state(t, "int-001").QuestionNumber == 2
	}, 5*time.Second, 5*time.Millisecond)
}

func TestCandidateGuard(t *testing.T) {
	f := newCandidateFixture(t, false, frontendInterview(), models.Interview{
		ID: "int-002", Title: "Other", Description: "x",
		Questions: []models.Question{{ID: "o1", Text: "Other?", TimeLimit: 60}},
	})

	for _, path := range []string{"/interview/int-001/questions", "/interview/int-001/state"} {
		w := f.get(path)
		assert.Equal(t, http.StatusSeeOther, w.Code, path)
		assert.Equal(t, "/interview/int-001", w.Header().Get("Location"), path)
	}

	// A session for one interview does not open another.
	f.start(t, "int-002", "Ada")
	w := f.get("/interview/int-001/questions")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/interview/int-001", w.Header().Get("Location"))
}

func TestExitAbandonsSession(t *testing.T) {
	f := newCandidateFixture(t, false, frontendInterview())
	f.start(t, "int-001", "Ada")
	require.Equal(t, 1, f.h.Registry.Len())

	w := f.postForm("/interview/int-001/exit", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, 0, f.h.Registry.Len())

	subs, err := f.store.ListSubmissions(context.Background(), "int-001")
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestRecordingOnTextQuestion(t *testing.T) {
	f := newCandidateFixture(t, false, frontendInterview())
	f.start(t, "int-001", "Ada")

	w := f.postForm("/interview/int-001/recording/start", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.postForm("/interview/int-001/recording/explode", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.get("/interview/int-001/capture")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func videoInterview() models.Interview {
	return models.Interview{
		ID: "int-video", Title: "Video", Description: "Recorded answers",
		Questions: []models.Question{
			{ID: "v1", Text: "Introduce yourself on camera.", Type: models.QuestionVideo, TimeLimit: 60},
			{ID: "v2", Text: "Anything else?", Type: models.QuestionText, TimeLimit: 60},
		},
	}
}

func (f *candidateFixture) captureState(t *testing.T) session.CaptureState {
	v := f.state(t, "int-video")
	if v.Capture == nil {
		return ""
	}
	return v.Capture.State
}

func (f *candidateFixture) resolvePermission(t *testing.T, granted string) {
	t.Helper()
	sid := f.state(t, "int-video").SessionID
	var reqID string
	require.Eventually(t, func() bool {
		var ok bool
		reqID, ok = f.h.Broker.Pending(sid)
		return ok
	}, 2*time.Second, 5*time.Millisecond)

	w := f.postForm("/interview/int-video/permission", url.Values{"granted": {"true"}, "requestId": {"stale"}})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = f.postForm("/interview/int-video/permission", url.Values{"granted": {granted}, "requestId": {reqID}})
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestVideoAnswerFlow(t *testing.T) {
	f := newCandidateFixture(t, false, videoInterview())
	f.start(t, "int-video", "Ada")
	assert.Equal(t, session.CaptureRequesting, f.captureState(t))

	f.resolvePermission(t, "true")
	require.Eventually(t, func() bool {
		return f.captureState(t) == session.CaptureLive
	}, 2*time.Second, 5*time.Millisecond)

	w := f.get("/interview/int-video/capture")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Start Recording")

	w = f.postForm("/interview/int-video/recording/start", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"state":"recording"`)

	w = f.postRaw("/interview/int-video/chunks", strings.NewReader(strings.Repeat("x", 2048)))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.postForm("/interview/int-video/recording/stop", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	v := f.state(t, "int-video")
	require.NotNil(t, v.Response)
	assert.True(t, v.Response.HasVideo)
	assert.Equal(t, 2, v.Response.VideoKB)

	w = f.postForm("/interview/int-video/recording/review", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = f.postForm("/interview/int-video/recording/start", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.postForm("/interview/int-video/next", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.postForm("/interview/int-video/next", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	subs, err := f.store.ListSubmissions(context.Background(), "int-video")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, 2048, subs[0].Answers[0].VideoSize)
	assert.NotEmpty(t, subs[0].Answers[0].VideoPath)
}

func TestVideoPermissionDenied(t *testing.T) {
	f := newCandidateFixture(t, false, videoInterview())
	f.start(t, "int-video", "Ada")

	f.resolvePermission(t, "false")
	require.Eventually(t, func() bool {
		return f.captureState(t) == session.CaptureDenied
	}, 2*time.Second, 5*time.Millisecond)

	w := f.postForm("/interview/int-video/recording/start", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Typing still works on a question whose camera was refused.
	w = f.postForm("/interview/int-video/answer", url.Values{"text": {"No camera, sorry"}})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "No camera, sorry", f.state(t, "int-video").Response.Text)

	w = f.postForm("/interview/int-video/permission", url.Values{"granted": {"true"}})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestShareTokenRequired(t *testing.T) {
	f := newCandidateFixture(t, true, frontendInterview())

	w := f.get("/interview/int-001")
	assert.Equal(t, http.StatusForbidden, w.Code)

	token, _, err := f.h.Links.Issue("int-001")
	require.NoError(t, err)
	w = f.get("/interview/int-001?t=" + token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="t" value="`+token+`"`)

	other, _, err := f.h.Links.Issue("int-999")
	require.NoError(t, err)
	w = f.postForm("/interview/int-001/start", url.Values{"name": {"Ada"}, "t": {other}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.postForm("/interview/int-001/start", url.Values{"name": {"Ada"}, "t": {token}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestCommandStatus(t *testing.T) {
	cases := map[error]int{
		session.ErrPermissionDenied:    http.StatusForbidden,
		session.ErrNoCapture:           http.StatusBadRequest,
		session.ErrClosed:              http.StatusGone,
		session.ErrRecordingDisabled:   http.StatusConflict,
		session.ErrEncodingUnsupported: http.StatusConflict,
		session.ErrInvalidState:        http.StatusConflict,
		session.ErrEmptyRecording:      http.StatusConflict,
		session.ErrNotActive:           http.StatusConflict,
		assert.AnError:                 http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, commandStatus(err), err.Error())
	}
}
