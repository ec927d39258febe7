package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MemoryStore keeps everything in process. It is the default store and
// is seeded from the interview seed file.
type MemoryStore struct {
	mu          sync.RWMutex
	interviews  []models.Interview
	bank        models.QuestionBank
	users       []models.User
	submissions []models.Submission
	candidates  []models.Candidate
	now         func() time.Time
}

// NewMemoryStore builds a store from seed. A nil seed yields an empty store.
func NewMemoryStore(seed *models.SeedData) (*MemoryStore, error) {
	s := &MemoryStore{bank: models.QuestionBank{}, now: time.Now}
	if seed == nil {
		return s, nil
	}

	for _, iv := range seed.Interviews {
		iv := cloneInterview(iv)
		prepareInterview(&iv, s.now())
		s.interviews = append(s.interviews, iv)
	}
	for id, qs := range seed.Questions {
		s.bank[id] = append([]models.Question(nil), qs...)
	}
	for _, acct := range seed.Users {
		if _, err := s.CreateUser(context.Background(), acct.Name, acct.Email, acct.Password); err != nil {
			return nil, fmt.Errorf("seed user %s: %w", acct.Email, err)
		}
	}
	return s, nil
}

func (s *MemoryStore) ListInterviews(_ context.Context) ([]models.Interview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Interview, len(s.interviews))
	for i, iv := range s.interviews {
		out[i] = cloneInterview(iv)
	}
	return out, nil
}

func (s *MemoryStore) GetInterview(_ context.Context, id string) (*models.Interview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, iv := range s.interviews {
		if iv.ID == id {
			iv = cloneInterview(iv)
			if len(iv.Questions) == 0 {
				iv.Questions = append([]models.Question(nil), s.bank.Lookup(id)...)
			}
			return &iv, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateInterview(_ context.Context, interview *models.Interview) error {
	if err := checkInterview(interview); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prepareInterview(interview, s.now())
	for _, iv := range s.interviews {
		if iv.ID == interview.ID {
			return fmt.Errorf("interview %s: %w", interview.ID, ErrConflict)
		}
	}
	s.interviews = append(s.interviews, cloneInterview(*interview))
	return nil
}

func (s *MemoryStore) UpdateInterviewStatus(_ context.Context, id string, status models.InterviewStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.interviews {
		if s.interviews[i].ID == id {
			s.interviews[i].Status = status
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) DeleteInterview(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.interviews {
		if s.interviews[i].ID == id {
			s.interviews = append(s.interviews[:i], s.interviews[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) CreateUser(_ context.Context, name, email, password string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email = normalizeEmail(email)
	for _, u := range s.users {
		if u.Email == email {
			return nil, fmt.Errorf("user %s: %w", email, ErrConflict)
		}
	}
	user := models.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Password:  string(hashedPassword),
		CreatedAt: s.now(),
	}
	s.users = append(s.users, user)
	return &user, nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = normalizeEmail(email)
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.User(nil), s.users...), nil
}

func (s *MemoryStore) CountUsers(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

// SaveSubmission stores submission, replacing any earlier one with the same id.
func (s *MemoryStore) SaveSubmission(_ context.Context, submission *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	stored := *submission
	stored.Answers = append([]models.Answer(nil), submission.Answers...)
	for i := range s.submissions {
		if s.submissions[i].ID == stored.ID {
			s.submissions[i] = stored
			return nil
		}
	}
	s.submissions = append(s.submissions, stored)
	return nil
}

// ListSubmissions returns the interview's submissions, newest first.
func (s *MemoryStore) ListSubmissions(_ context.Context, interviewID string) ([]models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Submission
	for _, sub := range s.submissions {
		if sub.InterviewID == interviewID {
			sub.Answers = append([]models.Answer(nil), sub.Answers...)
			out = append(out, sub)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	return out, nil
}

func (s *MemoryStore) CountSubmissions(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.submissions)), nil
}

func (s *MemoryStore) SaveCandidate(_ context.Context, interviewID, name string) (*models.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := models.Candidate{
		ID:          uuid.NewString(),
		InterviewID: interviewID,
		Name:        name,
		CreatedAt:   s.now(),
	}
	s.candidates = append(s.candidates, c)
	return &c, nil
}

func (s *MemoryStore) CountCandidates(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.candidates)), nil
}
