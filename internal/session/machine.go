package session

import (
	"fmt"
	"strings"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/models"
)

// State is the lifecycle position of a Machine.
type State int

const (
	StateLoading State = iota
	StateActive
	StateSubmitting
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	case StateSubmitting:
		return "submitting"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// ResponseKind selects which field of a Response is written.
type ResponseKind string

const (
	KindText  ResponseKind = "text"
	KindVideo ResponseKind = "video"
)

// Transition describes what a call to Advance did.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionNext
	TransitionFinished
)

// Machine sequences questions and owns the response slots of one session.
// It is not safe for concurrent use; the Controller serializes access.
type Machine struct {
	questions []models.Question
	responses []models.Response
	index     int
	state     State

	// onFinish runs between Submitting and Finished.
	onFinish func([]models.Response)
}

// NewMachine returns a machine in the Loading state.
func NewMachine(onFinish func([]models.Response)) *Machine {
	return &Machine{state: StateLoading, onFinish: onFinish}
}

// Initialize validates the question list and opens the first question.
func (m *Machine) Initialize(questions []models.Question) error {
	if m.state != StateLoading {
		return fmt.Errorf("initialize called in state %s", m.state)
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}
	for i, q := range questions {
		if strings.TrimSpace(q.Text) == "" || q.TimeLimit <= 0 {
			return fmt.Errorf("question %d: %w", i+1, ErrNoQuestions)
		}
	}

	m.questions = append([]models.Question(nil), questions...)
	m.responses = make([]models.Response, len(questions))
	m.index = 0
	m.state = StateActive
	return nil
}

// RecordResponse overwrites one field of the current response slot.
// The other field is left untouched.
func (m *Machine) RecordResponse(kind ResponseKind, text string, video *models.Blob) error {
	if m.state != StateActive {
		return ErrNotActive
	}
	slot := &m.responses[m.index]
	switch kind {
	case KindText:
		slot.Text = text
	case KindVideo:
		slot.Video = video
	default:
		return fmt.Errorf("unknown response kind %q", kind)
	}
	return nil
}

// Advance moves to the next question, or finishes after the last one.
// Once the session is submitting or finished it does nothing, so a timer
// expiry racing a manual click cannot finish twice.
func (m *Machine) Advance() Transition {
	if m.state != StateActive {
		return TransitionNone
	}
	if m.index < len(m.questions)-1 {
		m.index++
		return TransitionNext
	}

	m.state = StateSubmitting
	if m.onFinish != nil {
		m.onFinish(m.Responses())
	}
	m.state = StateFinished
	return TransitionFinished
}

// CurrentQuestion returns the question being answered.
func (m *Machine) CurrentQuestion() (models.Question, error) {
	if m.state != StateActive {
		return models.Question{}, ErrNoActiveQuestion
	}
	return m.questions[m.index], nil
}

// Responses returns a copy of the response slots.
func (m *Machine) Responses() []models.Response {
	out := make([]models.Response, len(m.responses))
	copy(out, m.responses)
	return out
}

// State returns the lifecycle position.
func (m *Machine) State() State {
	return m.state
}

// Index returns the zero-based position of the current question.
func (m *Machine) Index() int {
	return m.index
}

// Len returns the number of questions.
func (m *Machine) Len() int {
	return len(m.questions)
}

func (m *Machine) IsFinished() bool {
	return m.state == StateFinished
}

func (m *Machine) IsSubmitting() bool {
	return m.state == StateSubmitting
}

// IsLastQuestion reports whether Advance will finish the session.
func (m *Machine) IsLastQuestion() bool {
	return m.index == len(m.questions)-1
}
