package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/models"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// InFlightPolicy decides what happens to an unstopped recording when the
// question advances.
type InFlightPolicy string

const (
	// InFlightDiscard drops the unfinished recording.
	InFlightDiscard InFlightPolicy = "discard"
	// InFlightAutoSave stops the recording and stores it before advancing.
	InFlightAutoSave InFlightPolicy = "autosave"
)

// ParseInFlightPolicy maps a config value onto a policy, defaulting to discard.
func ParseInFlightPolicy(s string) InFlightPolicy {
	if InFlightPolicy(s) == InFlightAutoSave {
		return InFlightAutoSave
	}
	return InFlightDiscard
}

// Event types pushed to listeners.
const (
	EventTick     = "tick"
	EventQuestion = "question"
	EventCapture  = "capture"
	EventFinished = "finished"
)

// Event is a state change pushed to the candidate's browser.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Listener receives events for a session. Publish may be called from the
// countdown goroutine and must be safe for concurrent use.
type Listener interface {
	Publish(sessionID string, event Event)
}

// Result is handed to the Submitter when a session finishes.
type Result struct {
	SessionID     string
	Interview     models.Interview
	Questions     []models.Question
	CandidateName string
	Responses     []models.Response
	StartedAt     time.Time
	CompletedAt   time.Time
}

// Submitter persists finished sessions.
type Submitter interface {
	Submit(ctx context.Context, result Result) error
}

// Options wires a Controller to its collaborators.
type Options struct {
	CandidateName    string
	Clock            clock.Clock
	Devices          Devices
	Encoder          Encoder
	Submitter        Submitter
	Listener         Listener
	Log              *zap.Logger
	InFlight         InFlightPolicy
	DefaultTimeLimit int
	PreferredCodec   string
	FallbackCodec    string
	SubmitTimeout    time.Duration
}

// ResponseView is the read model of the current response slot.
type ResponseView struct {
	Text     string `json:"text"`
	HasVideo bool   `json:"hasVideo"`
	VideoKB  int    `json:"videoKb"`
}

// View is the read model the candidate page renders.
type View struct {
	SessionID        string           `json:"sessionId"`
	InterviewID      string           `json:"interviewId"`
	Title            string           `json:"title"`
	Position         string           `json:"position,omitempty"`
	CandidateName    string           `json:"candidateName"`
	State            string           `json:"state"`
	CurrentQuestion  *models.Question `json:"currentQuestion,omitempty"`
	QuestionNumber   int              `json:"questionNumber"`
	TotalQuestions   int              `json:"totalQuestions"`
	RemainingSeconds int              `json:"remainingSeconds"`
	TimerSeverity    Severity         `json:"timerSeverity"`
	TimerDisplay     string           `json:"timerDisplay"`
	IsLastQuestion   bool             `json:"isLastQuestion"`
	IsFinished       bool             `json:"isFinished"`
	Response         *ResponseView    `json:"response,omitempty"`
	Capture          *CaptureView     `json:"capture,omitempty"`
}

// Controller runs one candidate's interview: it owns the state machine,
// the countdown and the per-question capture, and is the single place
// where they meet.
type Controller struct {
	id        string
	interview models.Interview
	opts      Options
	log       *zap.Logger

	mu            sync.Mutex
	machine       *Machine
	timer         *Countdown
	capture       *Capture
	cancelAcquire context.CancelFunc
	startedAt     time.Time
	completedAt   time.Time
	closed        bool
}

// NewController prepares a session for interview. Mount starts it.
func NewController(id string, interview models.Interview, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.InFlight == "" {
		opts.InFlight = InFlightDiscard
	}
	if opts.Encoder == nil {
		opts.Encoder = NewChunkEncoder(PreferredCodec, FallbackCodec)
	}
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = 30 * time.Second
	}

	c := &Controller{
		id:        id,
		interview: interview,
		opts:      opts,
		log:       opts.Log.With(zap.String("session", id), zap.String("interview", interview.ID)),
		timer:     NewCountdown(opts.Clock),
	}
	c.machine = NewMachine(func([]models.Response) {
		c.completedAt = c.opts.Clock.Now()
	})
	c.timer.OnTick(c.publishTick)
	return c
}

// ID returns the candidate session id.
func (c *Controller) ID() string { return c.id }

// Mount initializes the state machine and opens the first question.
func (c *Controller) Mount() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if err := c.machine.Initialize(c.questions()); err != nil {
		return err
	}
	c.startedAt = c.opts.Clock.Now()
	c.log.Info("Interview session started", zap.Int("questions", c.machine.Len()))
	c.startQuestionLocked()
	return nil
}

// questions applies the configured default to questions without a time limit.
func (c *Controller) questions() []models.Question {
	qs := make([]models.Question, len(c.interview.Questions))
	copy(qs, c.interview.Questions)
	if c.opts.DefaultTimeLimit > 0 {
		for i := range qs {
			if qs[i].TimeLimit == 0 {
				qs[i].TimeLimit = c.opts.DefaultTimeLimit
			}
		}
	}
	return qs
}

func (c *Controller) startQuestionLocked() {
	q, err := c.machine.CurrentQuestion()
	if err != nil {
		return
	}
	idx := c.machine.Index()

	if err := c.timer.Start(q.TimeLimit, func() { c.expire(idx) }); err != nil {
		c.log.Error("Failed to start countdown", zap.Error(err))
	}

	if q.IsVideo() && c.opts.Devices != nil {
		capture := NewCapture(c.opts.Devices, c.opts.Encoder, CaptureOptions{
			PreferredCodec: c.opts.PreferredCodec,
			FallbackCodec:  c.opts.FallbackCodec,
			Clock:          c.opts.Clock,
			Log:            c.log.With(zap.Int("question", idx+1)),
			OnVideo:        func(b *models.Blob) { c.storeVideoLocked(idx, b) },
		})
		ctx, cancel := context.WithCancel(context.Background())
		c.capture = capture
		c.cancelAcquire = cancel
		go func() {
			if err := capture.Acquire(ctx); err != nil && !errors.Is(err, ErrClosed) {
				c.log.Info("Capture unavailable, text answers remain open", zap.Error(err))
			}
			c.publish(Event{Type: EventCapture, Data: capture.Snapshot()})
		}()
	}

	c.publish(Event{Type: EventQuestion, Data: c.viewLocked()})
}

// closeQuestionLocked tears down everything owned by the current question.
func (c *Controller) closeQuestionLocked() {
	if c.capture != nil {
		if c.capture.State() == CaptureRecording {
			switch c.opts.InFlight {
			case InFlightAutoSave:
				if _, err := c.capture.StopRecording(); err != nil {
					c.log.Warn("Auto-save of in-flight recording failed", zap.Error(err))
				}
			default:
				c.log.Info("Discarding in-flight recording")
			}
		}
		c.cancelAcquire()
		c.capture.Release()
		c.capture = nil
		c.cancelAcquire = nil
	}
	c.timer.Stop()
}

// expire is the countdown callback armed for question idx.
func (c *Controller) expire(idx int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkCurrentLocked(idx); err != nil {
		c.log.Debug("Dropping timer expiry", zap.Int("question", idx+1), zap.Error(err))
		return
	}
	c.log.Info("Time limit reached", zap.Int("question", idx+1))
	c.advanceLocked()
}

func (c *Controller) checkCurrentLocked(idx int) error {
	if c.closed || c.machine.State() != StateActive || c.machine.Index() != idx {
		return errStaleTransition
	}
	return nil
}

// OnAdvance moves to the next question or finishes the interview.
// Repeated calls after the last question are no-ops.
func (c *Controller) OnAdvance() (Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return TransitionNone, ErrClosed
	}
	return c.advanceLocked(), nil
}

func (c *Controller) advanceLocked() Transition {
	if c.machine.State() != StateActive {
		return TransitionNone
	}

	c.closeQuestionLocked()
	t := c.machine.Advance()
	switch t {
	case TransitionNext:
		c.startQuestionLocked()
	case TransitionFinished:
		c.submitLocked()
	}
	return t
}

func (c *Controller) submitLocked() {
	result := Result{
		SessionID:     c.id,
		Interview:     c.interview,
		Questions:     c.questions(),
		CandidateName: c.opts.CandidateName,
		Responses:     c.machine.Responses(),
		StartedAt:     c.startedAt,
		CompletedAt:   c.completedAt,
	}

	if c.opts.Submitter != nil {
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.SubmitTimeout)
		defer cancel()
		if err := c.opts.Submitter.Submit(ctx, result); err != nil {
			c.log.Error("Failed to submit interview responses", zap.Error(err))
		}
	}
	c.log.Info("Interview session finished")
	c.publish(Event{Type: EventFinished, Data: c.viewLocked()})
}

// OnTextChange stores the typed answer for the current question.
func (c *Controller) OnTextChange(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	return c.machine.RecordResponse(KindText, text, nil)
}

// OnVideoChange stores or clears the video answer for the current question.
func (c *Controller) OnVideoChange(blob *models.Blob) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	return c.machine.RecordResponse(KindVideo, "", blob)
}

// storeVideoLocked is the capture callback for question idx.
func (c *Controller) storeVideoLocked(idx int, blob *models.Blob) {
	if err := c.checkCurrentLocked(idx); err != nil {
		c.log.Debug("Dropping recorder callback", zap.Int("question", idx+1), zap.Error(err))
		return
	}
	if err := c.machine.RecordResponse(KindVideo, "", blob); err != nil {
		c.log.Warn("Failed to store video response", zap.Error(err))
	}
}

// withCapture runs fn against the current question's capture.
func (c *Controller) withCapture(fn func(*Capture) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.machine.State() != StateActive {
		return ErrNoActiveQuestion
	}
	if c.capture == nil {
		return ErrNoCapture
	}
	err := fn(c.capture)
	c.publish(Event{Type: EventCapture, Data: c.capture.Snapshot()})
	return err
}

func (c *Controller) StartRecording() error {
	return c.withCapture(func(m *Capture) error { return m.StartRecording() })
}

func (c *Controller) StopRecording() error {
	return c.withCapture(func(m *Capture) error {
		_, err := m.StopRecording()
		return err
	})
}

func (c *Controller) Review() error {
	return c.withCapture(func(m *Capture) error { return m.Review() })
}

func (c *Controller) ReturnToLive() error {
	return c.withCapture(func(m *Capture) error { return m.ReturnToLive() })
}

func (c *Controller) Retake() error {
	return c.withCapture(func(m *Capture) error { return m.Retake() })
}

// AppendChunk buffers recorded media for the current question.
func (c *Controller) AppendChunk(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.capture == nil {
		return ErrNoCapture
	}
	return c.capture.AppendChunk(data)
}

// View returns the read model.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller) viewLocked() View {
	v := View{
		SessionID:      c.id,
		InterviewID:    c.interview.ID,
		Title:          c.interview.Title,
		Position:       c.interview.Position,
		CandidateName:  c.opts.CandidateName,
		State:          c.machine.State().String(),
		TotalQuestions: c.machine.Len(),
		IsFinished:     c.machine.IsFinished(),
	}

	q, err := c.machine.CurrentQuestion()
	if err != nil {
		return v
	}
	remaining := c.timer.Remaining()
	total := c.timer.Total()
	responses := c.machine.Responses()
	current := responses[c.machine.Index()]

	v.CurrentQuestion = &q
	v.QuestionNumber = c.machine.Index() + 1
	v.IsLastQuestion = c.machine.IsLastQuestion()
	v.RemainingSeconds = remaining
	v.TimerSeverity = SeverityFor(remaining, total)
	v.TimerDisplay = FormatClock(remaining)
	v.Response = &ResponseView{
		Text:     current.Text,
		HasVideo: current.HasVideo(),
		VideoKB:  current.Video.SizeKB(),
	}
	if c.capture != nil {
		snap := c.capture.Snapshot()
		v.Capture = &snap
	}
	return v
}

// Responses returns a copy of every response slot.
func (c *Controller) Responses() []models.Response {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Responses()
}

// Finished reports whether the interview has been submitted.
func (c *Controller) Finished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.IsFinished()
}

// Close cancels the countdown and releases the camera. Idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.closeQuestionLocked()
	c.log.Info("Interview session closed")
}

func (c *Controller) publishTick(remaining, total int) {
	c.publish(Event{Type: EventTick, Data: map[string]any{
		"remainingSeconds": remaining,
		"timerSeverity":    SeverityFor(remaining, total),
		"timerDisplay":     FormatClock(remaining),
	}})
}

func (c *Controller) publish(ev Event) {
	if c.opts.Listener != nil {
		c.opts.Listener.Publish(c.id, ev)
	}
}
