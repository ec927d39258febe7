package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/models"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/repository"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/session"

	"go.uber.org/zap"
)

// Submitter stores finished sessions: recordings go to the uploads
// directory and the answers to the submission repository.
type Submitter struct {
	store     repository.SubmissionRepository
	uploadDir string
	notifier  *Notifier
	log       *zap.Logger
}

func NewSubmitter(store repository.SubmissionRepository, uploadDir string, notifier *Notifier, log *zap.Logger) *Submitter {
	return &Submitter{store: store, uploadDir: uploadDir, notifier: notifier, log: log.Named("submitter")}
}

// Submit implements session.Submitter.
func (s *Submitter) Submit(ctx context.Context, result session.Result) error {
	sub := &models.Submission{
		ID:            result.SessionID,
		InterviewID:   result.Interview.ID,
		CandidateName: result.CandidateName,
		StartedAt:     result.StartedAt,
		CompletedAt:   result.CompletedAt,
		Answers:       make([]models.Answer, len(result.Questions)),
	}

	for i, q := range result.Questions {
		answer := models.Answer{QuestionID: q.ID, QuestionText: q.Text}
		if i < len(result.Responses) {
			r := result.Responses[i]
			answer.Text = r.Text
			if r.HasVideo() {
				rel, err := s.writeVideo(result.SessionID, i, r.Video)
				if err != nil {
					return err
				}
				answer.VideoPath = rel
				answer.VideoMIME = r.Video.MIMEType
				answer.VideoSize = r.Video.Size()
			}
		}
		sub.Answers[i] = answer
	}

	if err := s.store.SaveSubmission(ctx, sub); err != nil {
		return fmt.Errorf("failed to save submission: %w", err)
	}
	s.log.Info("Submission saved",
		zap.String("submission", sub.ID),
		zap.String("interview", sub.InterviewID),
		zap.Int("answers", len(sub.Answers)),
	)
	if s.notifier != nil {
		s.notifier.SubmissionReceived(result.Interview, sub)
	}
	return nil
}

// writeVideo stores blob under uploadDir and returns its path relative to it.
func (s *Submitter) writeVideo(sessionID string, index int, blob *models.Blob) (string, error) {
	rel := filepath.Join(sessionID, fmt.Sprintf("question-%02d.webm", index+1))
	full := filepath.Join(s.uploadDir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("could not create upload directory: %w", err)
	}
	if err := os.WriteFile(full, blob.Data, 0o644); err != nil {
		return "", fmt.Errorf("could not write recording: %w", err)
	}
	return filepath.ToSlash(rel), nil
}
