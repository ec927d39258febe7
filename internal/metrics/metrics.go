package metrics

import (
	"strings"
	"unicode/utf8"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/models"
)

// Metric keys.
const (
	WordCount      = "word_count"
	CharacterCount = "character_count"
	VideoKB        = "video_kb"
	AnswerRate     = "answer_rate"
	VideoRate      = "video_rate"
)

type MetricResult struct {
	Value      float64 `json:"value"`
	Calculated bool    `json:"calculated"`
	SampleSize int     `json:"sampleSize,omitempty"`
}

// MetricOption is one entry of the results page metric selector.
type MetricOption struct {
	Value string
	Label string
}

// Options lists the metrics the results page can chart, in display order.
var Options = []MetricOption{
	{Value: WordCount, Label: "Average Word Count"},
	{Value: CharacterCount, Label: "Average Characters"},
	{Value: VideoKB, Label: "Average Video Size (KB)"},
	{Value: AnswerRate, Label: "Answer Rate (%)"},
	{Value: VideoRate, Label: "Video Rate (%)"},
}

// Option returns the option for key, or the first option when key is unknown.
func Option(key string) MetricOption {
	for _, o := range Options {
		if o.Value == key {
			return o
		}
	}
	return Options[0]
}

// QuestionSummary aggregates every submission's answer to one question.
type QuestionSummary struct {
	QuestionID   string
	QuestionText string
	Metrics      map[string]MetricResult
}

// AnswerMetrics measures a single stored answer.
func AnswerMetrics(a models.Answer) map[string]MetricResult {
	text := strings.TrimSpace(a.Text)
	return map[string]MetricResult{
		WordCount:      {Value: float64(len(strings.Fields(text))), Calculated: true, SampleSize: 1},
		CharacterCount: {Value: float64(utf8.RuneCountInString(text)), Calculated: true, SampleSize: 1},
		VideoKB:        {Value: float64((a.VideoSize + 512) / 1024), Calculated: a.VideoPath != "", SampleSize: 1},
	}
}

// Summarize computes per-question metrics across submissions. Questions
// come from the interview definition so unanswered ones still appear.
func Summarize(questions []models.Question, subs []models.Submission) []QuestionSummary {
	out := make([]QuestionSummary, 0, len(questions))
	for _, q := range questions {
		var words, chars, kb float64
		var answered, videos, total int
		for _, sub := range subs {
			a, ok := findAnswer(sub, q.ID)
			if !ok {
				continue
			}
			total++
			m := AnswerMetrics(a)
			words += m[WordCount].Value
			chars += m[CharacterCount].Value
			if m[VideoKB].Calculated {
				videos++
				kb += m[VideoKB].Value
			}
			if strings.TrimSpace(a.Text) != "" || a.VideoPath != "" {
				answered++
			}
		}

		out = append(out, QuestionSummary{
			QuestionID:   q.ID,
			QuestionText: q.Text,
			Metrics: map[string]MetricResult{
				WordCount:      average(words, total),
				CharacterCount: average(chars, total),
				VideoKB:        average(kb, videos),
				AnswerRate:     percent(answered, total),
				VideoRate:      percent(videos, total),
			},
		})
	}
	return out
}

func findAnswer(sub models.Submission, questionID string) (models.Answer, bool) {
	for _, a := range sub.Answers {
		if a.QuestionID == questionID {
			return a, true
		}
	}
	return models.Answer{}, false
}

func average(sum float64, n int) MetricResult {
	if n == 0 {
		return MetricResult{}
	}
	return MetricResult{Value: sum / float64(n), Calculated: true, SampleSize: n}
}

func percent(part, n int) MetricResult {
	if n == 0 {
		return MetricResult{}
	}
	return MetricResult{Value: 100 * float64(part) / float64(n), Calculated: true, SampleSize: n}
}
