package repository

import (
	"time"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/models"

	"github.com/lib/pq"
)

type interviewRecord struct {
	ID            string `gorm:"primaryKey;type:varchar(64)"`
	Title         string `gorm:"not null"`
	Description   string
	Position      string
	CandidateName string
	Status        string           `gorm:"type:varchar(16);index"`
	Interviewers  pq.StringArray   `gorm:"type:text[]"`
	Questions     []questionRecord `gorm:"foreignKey:InterviewID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time
}

func (interviewRecord) TableName() string { return "interviews" }

type questionRecord struct {
	InterviewID string `gorm:"primaryKey;type:varchar(64)"`
	ID          string `gorm:"primaryKey;type:varchar(64)"`
	Ordinal     int    `gorm:"not null"`
	Text        string `gorm:"not null"`
	Type        string `gorm:"type:varchar(8)"`
	TimeLimit   int
}

func (questionRecord) TableName() string { return "questions" }

type userRecord struct {
	ID        string `gorm:"primaryKey;type:varchar(64)"`
	Name      string
	Email     string `gorm:"uniqueIndex;not null"`
	Password  string `gorm:"not null"`
	CreatedAt time.Time
}

func (userRecord) TableName() string { return "users" }

type submissionRecord struct {
	ID            string `gorm:"primaryKey;type:varchar(64)"`
	InterviewID   string `gorm:"type:varchar(64);not null"`
	CandidateName string
	Answers       []answerRecord `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE"`
	StartedAt     time.Time
	CompletedAt   time.Time
}

func (submissionRecord) TableName() string { return "submissions" }

type answerRecord struct {
	ID           uint   `gorm:"primaryKey"`
	SubmissionID string `gorm:"index;type:varchar(64);not null"`
	Ordinal      int
	QuestionID   string
	QuestionText string
	Text         string
	VideoPath    string
	VideoMIME    string
	VideoSize    int
}

func (answerRecord) TableName() string { return "answers" }

type candidateRecord struct {
	ID          string `gorm:"primaryKey;type:varchar(64)"`
	InterviewID string `gorm:"type:varchar(64);not null"`
	Name        string
	CreatedAt   time.Time
}

func (candidateRecord) TableName() string { return "candidates" }

// Records lists every table the gorm store migrates.
func Records() []any {
	return []any{
		&interviewRecord{},
		&questionRecord{},
		&userRecord{},
		&submissionRecord{},
		&answerRecord{},
		&candidateRecord{},
	}
}

func toInterviewRecord(iv *models.Interview) interviewRecord {
	rec := interviewRecord{
		ID:            iv.ID,
		Title:         iv.Title,
		Description:   iv.Description,
		Position:      iv.Position,
		CandidateName: iv.Candidate,
		Status:        string(iv.Status),
		Interviewers:  pq.StringArray(iv.Interviewers),
		CreatedAt:     iv.DateCreated,
	}
	for i, q := range iv.Questions {
		rec.Questions = append(rec.Questions, questionRecord{
			InterviewID: iv.ID,
			ID:          q.ID,
			Ordinal:     i,
			Text:        q.Text,
			Type:        string(q.Type),
			TimeLimit:   q.TimeLimit,
		})
	}
	return rec
}

// toInterview expects rec.Questions already sorted by Ordinal.
func (rec interviewRecord) toInterview() models.Interview {
	iv := models.Interview{
		ID:           rec.ID,
		Title:        rec.Title,
		Description:  rec.Description,
		Position:     rec.Position,
		Candidate:    rec.CandidateName,
		Status:       models.InterviewStatus(rec.Status),
		Interviewers: []string(rec.Interviewers),
		Questions:    make([]models.Question, 0, len(rec.Questions)),
		DateCreated:  rec.CreatedAt,
	}
	for _, q := range rec.Questions {
		iv.Questions = append(iv.Questions, models.Question{
			ID:        q.ID,
			Text:      q.Text,
			Type:      models.QuestionType(q.Type),
			TimeLimit: q.TimeLimit,
		})
	}
	return iv
}

func (rec userRecord) toUser() *models.User {
	return &models.User{
		ID:        rec.ID,
		Name:      rec.Name,
		Email:     rec.Email,
		Password:  rec.Password,
		CreatedAt: rec.CreatedAt,
	}
}

func toSubmissionRecord(sub *models.Submission) submissionRecord {
	rec := submissionRecord{
		ID:            sub.ID,
		InterviewID:   sub.InterviewID,
		CandidateName: sub.CandidateName,
		StartedAt:     sub.StartedAt,
		CompletedAt:   sub.CompletedAt,
	}
	for i, a := range sub.Answers {
		rec.Answers = append(rec.Answers, answerRecord{
			SubmissionID: sub.ID,
			Ordinal:      i,
			QuestionID:   a.QuestionID,
			QuestionText: a.QuestionText,
			Text:         a.Text,
			VideoPath:    a.VideoPath,
			VideoMIME:    a.VideoMIME,
			VideoSize:    a.VideoSize,
		})
	}
	return rec
}

func (rec submissionRecord) toSubmission() models.Submission {
	sub := models.Submission{
		ID:            rec.ID,
		InterviewID:   rec.InterviewID,
		CandidateName: rec.CandidateName,
		StartedAt:     rec.StartedAt,
		CompletedAt:   rec.CompletedAt,
	}
	for _, a := range rec.Answers {
		sub.Answers = append(sub.Answers, models.Answer{
			QuestionID:   a.QuestionID,
			QuestionText: a.QuestionText,
			Text:         a.Text,
			VideoPath:    a.VideoPath,
			VideoMIME:    a.VideoMIME,
			VideoSize:    a.VideoSize,
		})
	}
	return sub
}
