package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrValidation wraps input problems; handlers answer 400.
	ErrValidation = errors.New("validation failed")
	// ErrConflict is returned for duplicate unique keys such as user email.
	ErrConflict = errors.New("record already exists")
	// ErrFetch marks a failure of the backing store itself; callers may retry.
	ErrFetch = errors.New("failed to fetch data")
)

// InterviewRepository provides interview definitions.
type InterviewRepository interface {
	ListInterviews(ctx context.Context) ([]models.Interview, error)
	// GetInterview returns the interview with its questions. An interview
	// without its own questions is filled from the question bank.
	GetInterview(ctx context.Context, id string) (*models.Interview, error)
	CreateInterview(ctx context.Context, interview *models.Interview) error
	UpdateInterviewStatus(ctx context.Context, id string, status models.InterviewStatus) error
	DeleteInterview(ctx context.Context, id string) error
}

// UserRepository stores admin accounts.
type UserRepository interface {
	// CreateUser hashes password and returns ErrConflict for a taken email.
	CreateUser(ctx context.Context, name, email, password string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

// SubmissionRepository stores finished candidate sessions.
type SubmissionRepository interface {
	SaveSubmission(ctx context.Context, submission *models.Submission) error
	ListSubmissions(ctx context.Context, interviewID string) ([]models.Submission, error)
	CountSubmissions(ctx context.Context) (int64, error)
}

// CandidateRepository records who opened an interview.
type CandidateRepository interface {
	SaveCandidate(ctx context.Context, interviewID, name string) (*models.Candidate, error)
	CountCandidates(ctx context.Context) (int64, error)
}

// Store is everything the application needs from persistence.
type Store interface {
	InterviewRepository
	UserRepository
	SubmissionRepository
	CandidateRepository
}

// normalizeEmail makes email lookups case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// checkInterview enforces the fields every stored interview must carry.
func checkInterview(iv *models.Interview) error {
	if strings.TrimSpace(iv.Title) == "" || strings.TrimSpace(iv.Description) == "" || len(iv.Questions) == 0 {
		return fmt.Errorf("%w: missing required fields", ErrValidation)
	}
	return nil
}

// prepareInterview fills the fields a new interview gets on creation.
func prepareInterview(iv *models.Interview, now time.Time) {
	if iv.ID == "" {
		iv.ID = uuid.NewString()
	}
	if iv.Status == "" {
		iv.Status = models.StatusScheduled
	}
	if iv.DateCreated.IsZero() {
		iv.DateCreated = now
	}
	for i := range iv.Questions {
		q := &iv.Questions[i]
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if q.Type == "" {
			q.Type = models.QuestionText
		}
	}
}

// cloneInterview copies iv so callers cannot mutate stored slices.
func cloneInterview(iv models.Interview) models.Interview {
	iv.Questions = append([]models.Question(nil), iv.Questions...)
	iv.Interviewers = append([]string(nil), iv.Interviewers...)
	return iv
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*GormStore)(nil)
)
