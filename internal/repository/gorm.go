package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/database"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// GormStore persists to postgres through gorm. Interviews without their
// own questions still fall back to the seed question bank.
type GormStore struct {
	db   *gorm.DB
	bank models.QuestionBank
}

// NewGormStore wraps db. bank may be nil.
func NewGormStore(db *gorm.DB, bank models.QuestionBank) *GormStore {
	if bank == nil {
		bank = models.QuestionBank{}
	}
	return &GormStore{db: db, bank: bank}
}

// Migrate creates the store's tables.
func (s *GormStore) Migrate(log *zap.Logger) error {
	return database.Migrate(s.db, log, Records()...)
}

// Seed inserts the seed interviews and accounts that are not stored yet.
func (s *GormStore) Seed(ctx context.Context, seed *models.SeedData, log *zap.Logger) error {
	if seed == nil {
		return nil
	}
	for _, iv := range seed.Interviews {
		iv := cloneInterview(iv)
		if _, err := s.GetInterview(ctx, iv.ID); err == nil {
			continue
		}
		if err := s.CreateInterview(ctx, &iv); err != nil && !errors.Is(err, ErrConflict) {
			return err
		}
	}
	for _, acct := range seed.Users {
		_, err := s.CreateUser(ctx, acct.Name, acct.Email, acct.Password)
		if err != nil && !errors.Is(err, ErrConflict) {
			return err
		}
	}
	log.Info("Seed data ensured", zap.Int("interviews", len(seed.Interviews)), zap.Int("users", len(seed.Users)))
	return nil
}

// translate maps gorm errors onto the repository's sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return fmt.Errorf("%w: %v", ErrFetch, err)
	}
}

func orderedQuestions(db *gorm.DB) *gorm.DB {
	return db.Order("ordinal ASC")
}

func (s *GormStore) ListInterviews(ctx context.Context) ([]models.Interview, error) {
	var recs []interviewRecord
	err := s.db.WithContext(ctx).
		Preload("Questions", orderedQuestions).
		Order("created_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, translate(err)
	}

	out := make([]models.Interview, len(recs))
	for i, rec := range recs {
		out[i] = rec.toInterview()
	}
	return out, nil
}

func (s *GormStore) GetInterview(ctx context.Context, id string) (*models.Interview, error) {
	var rec interviewRecord
	err := s.db.WithContext(ctx).
		Preload("Questions", orderedQuestions).
		First(&rec, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}

	iv := rec.toInterview()
	if len(iv.Questions) == 0 {
		iv.Questions = append([]models.Question(nil), s.bank.Lookup(id)...)
	}
	return &iv, nil
}

func (s *GormStore) CreateInterview(ctx context.Context, interview *models.Interview) error {
	if err := checkInterview(interview); err != nil {
		return err
	}
	prepareInterview(interview, time.Now().UTC())

	rec := toInterviewRecord(interview)
	return translate(s.db.WithContext(ctx).Create(&rec).Error)
}

func (s *GormStore) UpdateInterviewStatus(ctx context.Context, id string, status models.InterviewStatus) error {
	result := s.db.WithContext(ctx).
		Model(&interviewRecord{}).
		Where("id = ?", id).
		Update("status", string(status))
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteInterview(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).
		Select("Questions").
		Delete(&interviewRecord{ID: id})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CreateUser(ctx context.Context, name, email, password string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	rec := userRecord{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     normalizeEmail(email),
		Password:  string(hashedPassword),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, translate(err)
	}
	return rec.toUser(), nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var rec userRecord
	if err := s.db.WithContext(ctx).First(&rec, "email = ?", normalizeEmail(email)).Error; err != nil {
		return nil, translate(err)
	}
	return rec.toUser(), nil
}

func (s *GormStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var rec userRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return rec.toUser(), nil
}

func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var recs []userRecord
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&recs).Error; err != nil {
		return nil, translate(err)
	}
	out := make([]models.User, len(recs))
	for i, rec := range recs {
		out[i] = *rec.toUser()
	}
	return out, nil
}

func (s *GormStore) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&userRecord{}).Count(&n).Error
	return n, translate(err)
}

// SaveSubmission replaces any stored submission with the same id.
func (s *GormStore) SaveSubmission(ctx context.Context, submission *models.Submission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	rec := toSubmissionRecord(submission)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("submission_id = ?", rec.ID).Delete(&answerRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", rec.ID).Delete(&submissionRecord{}).Error; err != nil {
			return err
		}
		return tx.Create(&rec).Error
	})
	return translate(err)
}

func (s *GormStore) ListSubmissions(ctx context.Context, interviewID string) ([]models.Submission, error) {
	var recs []submissionRecord
	err := s.db.WithContext(ctx).
		Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order("ordinal ASC") }).
		Where("interview_id = ?", interviewID).
		Order("completed_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, translate(err)
	}

	out := make([]models.Submission, len(recs))
	for i, rec := range recs {
		out[i] = rec.toSubmission()
	}
	return out, nil
}

func (s *GormStore) CountSubmissions(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&submissionRecord{}).Count(&n).Error
	return n, translate(err)
}

func (s *GormStore) SaveCandidate(ctx context.Context, interviewID, name string) (*models.Candidate, error) {
	rec := candidateRecord{
		ID:          uuid.NewString(),
		InterviewID: interviewID,
		Name:        name,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, translate(err)
	}
	return &models.Candidate{
		ID:          rec.ID,
		InterviewID: rec.InterviewID,
		Name:        rec.Name,
		CreatedAt:   rec.CreatedAt,
	}, nil
}

func (s *GormStore) CountCandidates(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&candidateRecord{}).Count(&n).Error
	return n, translate(err)
}
