package metrics

import (
	"testing"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerMetrics(t *testing.T) {
	m := AnswerMetrics(models.Answer{Text: "  I like  Go a lot ", VideoPath: "s/q.webm", VideoSize: 3072})
	assert.Equal(t, 5.0, m[WordCount].Value)
	assert.Equal(t, 16.0, m[CharacterCount].Value)
	assert.True(t, m[VideoKB].Calculated)
	assert.Equal(t, 3.0, m[VideoKB].Value)

	empty := AnswerMetrics(models.Answer{})
	assert.Zero(t, empty[WordCount].Value)
	assert.False(t, empty[VideoKB].Calculated)
}

func TestSummarize(t *testing.T) {
	questions := []models.Question{
		{ID: "q1", Text: "Intro"},
		{ID: "q2", Text: "Why us"},
		{ID: "q3", Text: "Never answered"},
	}
	subs := []models.Submission{
		{Answers: []models.Answer{
			{QuestionID: "q1", Text: "one two three"},
			{QuestionID: "q2", VideoPath: "a.webm", VideoSize: 2048},
		}},
		{Answers: []models.Answer{
			{QuestionID: "q1", Text: "one"},
			{QuestionID: "q2"},
		}},
	}

	out := Summarize(questions, subs)
	require.Len(t, out, 3)

	assert.Equal(t, 2.0, out[0].Metrics[WordCount].Value)
	assert.Equal(t, 100.0, out[0].Metrics[AnswerRate].Value)
	assert.Equal(t, 2, out[0].Metrics[WordCount].SampleSize)

	assert.Equal(t, 50.0, out[1].Metrics[AnswerRate].Value)
	assert.Equal(t, 50.0, out[1].Metrics[VideoRate].Value)
	assert.Equal(t, 2.0, out[1].Metrics[VideoKB].Value)

	assert.False(t, out[2].Metrics[WordCount].Calculated)
	assert.Equal(t, "Never answered", out[2].QuestionText)
}

func TestOption(t *testing.T) {
	assert.Equal(t, "Answer Rate (%)", Option(AnswerRate).Label)
	assert.Equal(t, WordCount, Option("bogus").Value)
}
