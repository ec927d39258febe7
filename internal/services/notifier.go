package services

import (
	"github.com/Daniel-T-Dada/vector-interview-app/internal/models"

	"go.uber.org/zap"
)

// Notifier tells interviewers that a candidate finished. Delivery is a
// structured log line; the interviewer list comes from the interview.
type Notifier struct {
	log *zap.Logger
}

func NewNotifier(log *zap.Logger) *Notifier {
	return &Notifier{log: log.Named("notifier")}
}

// SubmissionReceived announces sub to the interviewers of interview.
func (n *Notifier) SubmissionReceived(interview models.Interview, sub *models.Submission) {
	videos := 0
	for _, a := range sub.Answers {
		if a.VideoPath != "" {
			videos++
		}
	}
	to := interview.Interviewers
	if len(to) == 0 {
		to = []string{"admin"}
	}
	n.log.Info("Interview submission received",
		zap.Strings("to", to),
		zap.String("interview", interview.Title),
		zap.String("candidate", sub.CandidateName),
		zap.Int("answers", len(sub.Answers)),
		zap.Int("videos", videos),
		zap.Duration("duration", sub.CompletedAt.Sub(sub.StartedAt)),
	)
}
