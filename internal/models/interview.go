package models

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// QuestionType selects how a candidate is expected to answer.
type QuestionType string

const (
	QuestionText  QuestionType = "text"
	QuestionVideo QuestionType = "video"
)

// InterviewStatus mirrors the statuses shown on the admin interview table.
type InterviewStatus string

const (
	StatusScheduled InterviewStatus = "scheduled"
	StatusCompleted InterviewStatus = "completed"
	StatusCancelled InterviewStatus = "cancelled"
	StatusPending   InterviewStatus = "pending"
)

// DefaultTimeLimit is used when a question arrives without a time limit.
const DefaultTimeLimit = 120

// Question is one timed prompt. Order inside an Interview is the presentation order.
type Question struct {
	ID        string       `json:"id" yaml:"id"`
	Text      string       `json:"text" yaml:"text"`
	Type      QuestionType `json:"type,omitempty" yaml:"type"`
	TimeLimit int          `json:"timeLimit" yaml:"time_limit"`
}

// IsVideo reports whether the question expects a recorded answer.
func (q Question) IsVideo() bool {
	return q.Type == QuestionVideo
}

// Interview is the definition an admin creates and a candidate takes.
type Interview struct {
	ID           string          `json:"id" yaml:"id"`
	Title        string          `json:"title" yaml:"title"`
	Description  string          `json:"description,omitempty" yaml:"description"`
	Position     string          `json:"position,omitempty" yaml:"position"`
	Candidate    string          `json:"candidateName,omitempty" yaml:"candidate_name"`
	Status       InterviewStatus `json:"status,omitempty" yaml:"status"`
	Interviewers []string        `json:"interviewers,omitempty" yaml:"interviewers"`
	Questions    []Question      `json:"questions" yaml:"questions"`
	DateCreated  time.Time       `json:"dateCreated" yaml:"date_created"`
}

// QuestionBank holds the fallback question sets keyed by interview id.
// The "default" set is used for interviews that have neither their own
// questions nor a dedicated set.
type QuestionBank map[string][]Question

// Lookup returns the set for id, falling back to the default set.
func (b QuestionBank) Lookup(id string) []Question {
	if qs, ok := b[id]; ok && len(qs) > 0 {
		return qs
	}
	return b["default"]
}

// SeedData is the YAML document that bootstraps the in-memory store.
type SeedData struct {
	Interviews []Interview   `yaml:"interviews"`
	Questions  QuestionBank  `yaml:"question_bank"`
	Users      []SeedAccount `yaml:"users"`
}

// SeedAccount is a demo admin account; the password is hashed on load.
type SeedAccount struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// LoadSeed reads and parses the seed file.
func LoadSeed(path string) (*SeedData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed SeedData
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal seed YAML: %w", err)
	}
	return &seed, nil
}

// FormatStatus capitalizes a status for display.
func FormatStatus(status InterviewStatus) string {
	s := string(status)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
