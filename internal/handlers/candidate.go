package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/config"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/models"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/repository"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/services"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/session"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/ws"
	"github.com/Daniel-T-Dada/vector-interview-app/views"

	"github.com/benbjohnson/clock"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	maxChunkSize = 8 << 20

	startFailedMessage = "Failed to start interview. Please try again."
	nameMissingMessage = "Please enter your name to continue"
	invalidLinkMessage = "This interview link is invalid or has expired."
)

// CandidateDeps wires the candidate handler.
type CandidateDeps struct {
	Store     repository.Store
	Registry  *session.Registry
	Hub       *ws.Hub
	Broker    *ws.DeviceBroker
	Submitter session.Submitter
	Links     *services.ShareLinks
	Clock     clock.Clock
	Config    config.InterviewConfig
}

// CandidateHandler runs the candidate side: gateway, questions and the
// session commands behind them.
type CandidateHandler struct {
	log *zap.Logger
	CandidateDeps
}

func NewCandidateHandler(log *zap.Logger, deps CandidateDeps) *CandidateHandler {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	return &CandidateHandler{log: log.Named("candidate"), CandidateDeps: deps}
}

func gatewayURL(id string) string {
	return "/interview/" + id
}

// checkLink enforces signed share links when they are required.
func (h *CandidateHandler) checkLink(c *gin.Context, id, token string) bool {
	if !h.Config.RequireShareToken {
		return true
	}
	if err := h.Links.Validate(token, id); err != nil {
		h.log.Info("Rejected share link", zap.String("interview", id), zap.Error(err))
		renderError(c, http.StatusForbidden, invalidLinkMessage, "")
		return false
	}
	return true
}

// loadInterview fetches id and renders the matching error page on failure.
func (h *CandidateHandler) loadInterview(c *gin.Context, id string) (*models.Interview, bool) {
	iv, err := h.Store.GetInterview(c.Request.Context(), id)
	if err == nil {
		return iv, true
	}
	if errors.Is(err, repository.ErrNotFound) {
		renderError(c, http.StatusNotFound, "Interview not found", "")
		return nil, false
	}
	h.log.Error("Failed to fetch interview", zap.String("interview", id), zap.Error(err))
	renderError(c, http.StatusServiceUnavailable, "Failed to load interview. Please try again.", c.Request.URL.String())
	return nil, false
}

// Gateway asks the candidate for their name before the interview starts.
func (h *CandidateHandler) Gateway(c *gin.Context) {
	id := c.Param("id")
	token := c.Query("t")
	if !h.checkLink(c, id, token) {
		return
	}
	if ctrl, ok := h.current(c, id); ok && !ctrl.Finished() {
		redirect(c, gatewayURL(id)+"/questions")
		return
	}

	iv, ok := h.loadInterview(c, id)
	if !ok {
		return
	}
	render(c, http.StatusOK, iv.Title, views.Gateway(views.GatewayData{
		Interview:  iv,
		ShareToken: token,
		CSRFToken:  csrfToken(c),
	}))
}

// Start records the candidate, mounts a session controller and sends the
// candidate to the first question.
func (h *CandidateHandler) Start(c *gin.Context) {
	id := c.Param("id")
	token := c.PostForm("t")
	if !h.checkLink(c, id, token) {
		return
	}
	iv, ok := h.loadInterview(c, id)
	if !ok {
		return
	}

	name := strings.TrimSpace(c.PostForm("name"))
	gateway := func(status int, msg string) {
		render(c, status, iv.Title, views.Gateway(views.GatewayData{
			Interview: iv, ShareToken: token, CSRFToken: csrfToken(c), Name: name, Error: msg,
		}))
	}
	if name == "" {
		gateway(http.StatusBadRequest, nameMissingMessage)
		return
	}

	if _, err := h.Store.SaveCandidate(c.Request.Context(), id, name); err != nil {
		h.log.Error("Failed to save candidate", zap.String("interview", id), zap.Error(err))
		gateway(http.StatusInternalServerError, startFailedMessage)
		return
	}

	sess := sessions.Default(c)
	if prev, ok := sess.Get(sessionCandidateSession).(string); ok {
		h.Registry.Remove(prev)
	}

	sid := uuid.NewString()
	ctrl := session.NewController(sid, *iv, session.Options{
		CandidateName:    name,
		Clock:            h.Clock,
		Devices:          h.Broker.For(sid),
		Encoder:          session.NewChunkEncoder(h.Config.PreferredCodec, h.Config.FallbackCodec),
		Submitter:        h.Submitter,
		Listener:         h.Hub,
		Log:              h.log,
		InFlight:         session.ParseInFlightPolicy(h.Config.InFlightPolicy),
		DefaultTimeLimit: h.Config.DefaultTimeLimit,
		PreferredCodec:   h.Config.PreferredCodec,
		FallbackCodec:    h.Config.FallbackCodec,
	})
	if err := ctrl.Mount(); err != nil {
		h.log.Warn("Failed to start interview session", zap.String("interview", id), zap.Error(err))
		ctrl.Close()
		status := http.StatusInternalServerError
		if errors.Is(err, session.ErrNoQuestions) {
			status = http.StatusUnprocessableEntity
		}
		gateway(status, startFailedMessage)
		return
	}
	h.Registry.Put(ctrl)

	sess.Set(sessionCandidateName, name)
	sess.Set(sessionInterviewID, id)
	sess.Set(sessionCandidateSession, sid)
	if err := sess.Save(); err != nil {
		h.log.Error("Failed to save session", zap.Error(err))
		h.Registry.Remove(sid)
		gateway(http.StatusInternalServerError, startFailedMessage)
		return
	}
	redirect(c, gatewayURL(id)+"/questions")
}

// current returns the live controller bound to this browser for interview id.
func (h *CandidateHandler) current(c *gin.Context, id string) (*session.Controller, bool) {
	sess := sessions.Default(c)
	if stored, _ := sess.Get(sessionInterviewID).(string); stored != id {
		return nil, false
	}
	sid, _ := sess.Get(sessionCandidateSession).(string)
	if sid == "" {
		return nil, false
	}
	return h.Registry.Get(sid)
}

// guard resolves the controller or sends the candidate back to the gateway.
func (h *CandidateHandler) guard(c *gin.Context) (*session.Controller, bool) {
	id := c.Param("id")
	ctrl, ok := h.current(c, id)
	if !ok {
		redirect(c, gatewayURL(id))
		c.Abort()
		return nil, false
	}
	return ctrl, true
}

// Questions renders the question page, or the completion page once the
// interview has been submitted.
func (h *CandidateHandler) Questions(c *gin.Context) {
	ctrl, ok := h.guard(c)
	if !ok {
		return
	}
	if ctrl.Finished() {
		redirect(c, gatewayURL(c.Param("id"))+"/complete")
		return
	}
	v := ctrl.View()
	render(c, http.StatusOK, v.Title, views.QuestionsPage(v, csrfToken(c)))
}

// Panel re-renders the question panel.
func (h *CandidateHandler) Panel(c *gin.Context) {
	ctrl, ok := h.guard(c)
	if !ok {
		return
	}
	h.renderPanel(c, ctrl)
}

func (h *CandidateHandler) renderPanel(c *gin.Context, ctrl *session.Controller) {
	if ctrl.Finished() {
		redirect(c, gatewayURL(c.Param("id"))+"/complete")
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := views.QuestionPanel(ctrl.View()).Render(c.Request.Context(), c.Writer); err != nil {
		h.log.Error("Error rendering question panel", zap.Error(err))
	}
}

// Capture re-renders the recorder controls of the current question.
func (h *CandidateHandler) Capture(c *gin.Context) {
	ctrl, ok := h.guard(c)
	if !ok {
		return
	}
	v := ctrl.View()
	if v.Capture == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := views.CapturePanel(v.InterviewID, *v.Capture, v.Response).Render(c.Request.Context(), c.Writer); err != nil {
		h.log.Error("Error rendering capture panel", zap.Error(err))
	}
}

// State returns the session read model as JSON.
func (h *CandidateHandler) State(c *gin.Context) {
	ctrl, ok := h.guard(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": ctrl.View()})
}

// commandStatus maps session errors onto HTTP statuses.
func commandStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, session.ErrNoCapture):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrClosed):
		return http.StatusGone
	case errors.Is(err, session.ErrRecordingDisabled),
		errors.Is(err, session.ErrEncodingUnsupported),
		errors.Is(err, session.ErrInvalidState),
		errors.Is(err, session.ErrEmptyRecording),
		errors.Is(err, session.ErrNotActive),
		errors.Is(err, session.ErrNoActiveQuestion):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *CandidateHandler) commandError(c *gin.Context, err error) {
	status := commandStatus(err)
	if status == http.StatusInternalServerError {
		h.log.Error("Session command failed", zap.Error(err))
	}
	jsonError(c, status, err.Error())
}

// Answer stores the typed answer for the current question.
func (h *CandidateHandler) Answer(c *gin.Context) {
	ctrl, ok := h.guard(c)
	if !ok {
		return
	}
	if err := ctrl.OnTextChange(c.PostForm("text")); err != nil {
		h.commandError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Next advances to the following question, or finishes the interview.
func (h *CandidateHandler) Next(c *gin.Context) {
	ctrl, ok := h.guard(c)
	if !ok {
		return
	}
	if _, err := ctrl.OnAdvance(); err != nil {
		h.commandError(c, err)
		return
	}
	h.renderPanel(c, ctrl)
}

// Recording runs a recorder command: start, stop, review, live or retake.
func (h *CandidateHandler) Recording(c *gin.Context) {
	ctrl, ok := h.guard(c)
	if !ok {
		return
	}

	var err error
	switch c.Param("action") {
	case "start":
		err = ctrl.StartRecording()
	case "stop":
		err = ctrl.StopRecording()
	case "review":
		err = ctrl.Review()
	case "live":
		err = ctrl.ReturnToLive()
	case "retake":
		err = ctrl.Retake()
	default:
		jsonError(c, http.StatusNotFound, "Unknown recording action")
		return
	}
	if err != nil {
		h.commandError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": ctrl.View().Capture})
}

// Chunks accepts one timesliced recorder chunk as the raw request body.
func (h *CandidateHandler) Chunks(c *gin.Context) {
	ctrl, ok := h.guard(c)
	if !ok {
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxChunkSize))
	if err != nil {
		jsonError(c, http.StatusRequestEntityTooLarge, "Chunk too large")
		return
	}
	if err := ctrl.AppendChunk(data); err != nil {
		h.commandError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Permission reports the outcome of the browser's camera prompt.
func (h *CandidateHandler) Permission(c *gin.Context) {
	ctrl, ok := h.guard(c)
	if !ok {
		return
	}
	if !h.Broker.Resolve(ctrl.ID(), c.PostForm("requestId"), c.PostForm("granted") == "true") {
		jsonError(c, http.StatusConflict, "No permission request is pending")
		return
	}
	c.Status(http.StatusNoContent)
}

func clearCandidate(sess sessions.Session, keepName bool) {
	if !keepName {
		sess.Delete(sessionCandidateName)
	}
	sess.Delete(sessionInterviewID)
	sess.Delete(sessionCandidateSession)
}

// Exit abandons the interview without submitting.
func (h *CandidateHandler) Exit(c *gin.Context) {
	id := c.Param("id")
	if ctrl, ok := h.current(c, id); ok {
		h.Registry.Remove(ctrl.ID())
		h.log.Info("Candidate left the interview", zap.String("session", ctrl.ID()))
	}
	sess := sessions.Default(c)
	clearCandidate(sess, false)
	if err := sess.Save(); err != nil {
		h.log.Error("Failed to save session", zap.Error(err))
	}
	redirect(c, gatewayURL(id))
}

// Complete thanks the candidate and drops the finished controller.
func (h *CandidateHandler) Complete(c *gin.Context) {
	id := c.Param("id")
	sess := sessions.Default(c)
	name, _ := sess.Get(sessionCandidateName).(string)

	if ctrl, ok := h.current(c, id); ok {
		if !ctrl.Finished() {
			redirect(c, gatewayURL(id)+"/questions")
			return
		}
		h.Registry.Remove(ctrl.ID())
		clearCandidate(sess, true)
		if err := sess.Save(); err != nil {
			h.log.Error("Failed to save session", zap.Error(err))
		}
	}
	render(c, http.StatusOK, "Interview Completed", views.Complete(name))
}

// inbound is a JSON frame sent by the candidate page.
type inbound struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId"`
	Granted   bool   `json:"granted"`
	Text      string `json:"text"`
}

// WS attaches the candidate page to the session event stream. Binary
// frames are recorder chunks; text frames are JSON commands.
func (h *CandidateHandler) WS(c *gin.Context) {
	ctrl, ok := h.guard(c)
	if !ok {
		return
	}
	sid := ctrl.ID()

	err := h.Hub.Serve(c.Writer, c.Request, sid, func(messageType int, data []byte) {
		if messageType == websocket.BinaryMessage {
			if err := ctrl.AppendChunk(data); err != nil {
				h.log.Debug("Dropping chunk", zap.String("session", sid), zap.Error(err))
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			h.log.Debug("Ignoring malformed frame", zap.String("session", sid), zap.Error(err))
			return
		}
		switch msg.Type {
		case "hello":
			// Requests published before the page connected are replayed.
			if reqID, ok := h.Broker.Pending(sid); ok {
				h.Hub.Broadcast(sid, ws.Message{Type: ws.EventDeviceRequest, Data: map[string]string{"requestId": reqID}})
			}
		case "permission":
			if !h.Broker.Resolve(sid, msg.RequestID, msg.Granted) {
				h.log.Debug("Dropping stale permission answer", zap.String("session", sid), zap.String("request", msg.RequestID))
			}
		case "answer":
			if err := ctrl.OnTextChange(msg.Text); err != nil {
				h.log.Debug("Dropping answer", zap.String("session", sid), zap.Error(err))
			}
		}
	})
	if err != nil {
		h.log.Warn("Websocket upgrade failed", zap.String("session", sid), zap.Error(err))
	}
}
