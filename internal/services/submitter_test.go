package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/models"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/repository"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSubmitterStoresAnswersAndRecordings(t *testing.T) {
	store, err := repository.NewMemoryStore(nil)
	require.NoError(t, err)
	dir := t.TempDir()
	sub := NewSubmitter(store, dir, NewNotifier(zap.NewNop()), zap.NewNop())

	started := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	result := session.Result{
		SessionID:     "sess-1",
		Interview:     models.Interview{ID: "iv-1", Title: "Backend"},
		CandidateName: "Ada",
		Questions: []models.Question{
			{ID: "q1", Text: "Intro?", Type: models.QuestionVideo, TimeLimit: 60},
			{ID: "q2", Text: "Why us?", Type: models.QuestionText, TimeLimit: 30},
		},
		Responses: []models.Response{
			{Text: "notes", Video: &models.Blob{MIMEType: "video/webm", Data: []byte("webm-bytes")}},
			{Text: "Because."},
		},
		StartedAt:   started,
		CompletedAt: started.Add(90 * time.Second),
	}
	require.NoError(t, sub.Submit(context.Background(), result))

	saved, err := store.ListSubmissions(context.Background(), "iv-1")
	require.NoError(t, err)
	require.Len(t, saved, 1)
	s := saved[0]
	assert.Equal(t, "sess-1", s.ID)
	assert.Equal(t, "Ada", s.CandidateName)
	require.Len(t, s.Answers, 2)

	first := s.Answers[0]
	assert.Equal(t, "Intro?", first.QuestionText)
	assert.Equal(t, "notes", first.Text)
	assert.Equal(t, "sess-1/question-01.webm", first.VideoPath)
	assert.Equal(t, len("webm-bytes"), first.VideoSize)
	data, err := os.ReadFile(filepath.Join(dir, first.VideoPath))
	require.NoError(t, err)
	assert.Equal(t, []byte("webm-bytes"), data)

	assert.Empty(t, s.Answers[1].VideoPath)
	assert.Equal(t, "Because.", s.Answers[1].Text)
}
