package session

import (
	"testing"
	"time"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/models"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// expireCurrent runs the current countdown to zero without touching the clock.
func expireCurrent(c *Controller) {
	gen := currentGen(c.timer)
	for !c.timer.tick(gen) {
	}
}

func twoQuestionInterview() models.Interview {
	return models.Interview{
		ID:    "iv-1",
		Title: "Backend Engineer",
		Questions: []models.Question{
			{ID: "q1", Text: "Tell us about yourself.", Type: models.QuestionText, TimeLimit: 30},
			{ID: "q2", Text: "Why this role?", Type: models.QuestionText, TimeLimit: 45},
		},
	}
}

func videoInterview() models.Interview {
	return models.Interview{
		ID:    "iv-video",
		Title: "Video screen",
		Questions: []models.Question{
			{ID: "v1", Text: "Introduce yourself on camera.", Type: models.QuestionVideo, TimeLimit: 60},
			{ID: "v2", Text: "Anything else?", Type: models.QuestionText, TimeLimit: 30},
		},
	}
}

func waitForCapture(t *testing.T, c *Controller, state CaptureState) {
	t.Helper()
	require.Eventually(t, func() bool {
		v := c.View()
		return v.Capture != nil && v.Capture.State == state
	}, time.Second, time.Millisecond)
}

func TestControllerTwoQuestionSession(t *testing.T) {
	sub := &recordingSubmitter{}
	events := &recordedEvents{}
	c := NewController("s-1", twoQuestionInterview(), Options{
		CandidateName: "Ada",
		Clock:         clock.NewMock(),
		Submitter:     sub,
		Listener:      events,
	})
	defer c.Close()
	require.NoError(t, c.Mount())

	v := c.View()
	assert.Equal(t, 1, v.QuestionNumber)
	assert.Equal(t, 2, v.TotalQuestions)
	assert.Equal(t, 30, v.RemainingSeconds)
	assert.Equal(t, "00:30", v.TimerDisplay)
	assert.Equal(t, SeverityAmple, v.TimerSeverity)
	assert.False(t, v.IsLastQuestion)

	require.NoError(t, c.OnTextChange("answer one"))
	tr, err := c.OnAdvance()
	require.NoError(t, err)
	assert.Equal(t, TransitionNext, tr)

	v = c.View()
	assert.Equal(t, 2, v.QuestionNumber)
	assert.Equal(t, 45, v.RemainingSeconds)
	assert.True(t, v.IsLastQuestion)
	assert.Empty(t, v.Response.Text)

	expireCurrent(c)

	assert.True(t, c.Finished())
	results := sub.submitted()
	require.Len(t, results, 1)
	assert.Equal(t, "Ada", results[0].CandidateName)
	require.Len(t, results[0].Responses, 2)
	assert.Equal(t, "answer one", results[0].Responses[0].Text)
	assert.Empty(t, results[0].Responses[1].Text)
	assert.Len(t, results[0].Questions, 2)
	assert.Equal(t, 1, events.count(EventFinished))
	assert.Equal(t, 2, events.count(EventQuestion))

	tr, err = c.OnAdvance()
	require.NoError(t, err)
	assert.Equal(t, TransitionNone, tr)
	assert.Len(t, sub.submitted(), 1)
}

func TestControllerManualAdvanceAndExpiryFinishOnce(t *testing.T) {
	sub := &recordingSubmitter{}
	iv := twoQuestionInterview()
	iv.Questions = iv.Questions[:1]
	c := NewController("s-1", iv, Options{Clock: clock.NewMock(), Submitter: sub})
	defer c.Close()
	require.NoError(t, c.Mount())

	gen := currentGen(c.timer)
	tr, err := c.OnAdvance()
	require.NoError(t, err)
	assert.Equal(t, TransitionFinished, tr)

	// The timer of the finished question can no longer reach the controller.
	assert.True(t, c.timer.tick(gen))
	c.expire(0)

	assert.Len(t, sub.submitted(), 1)
}

func TestControllerDropsStaleExpiry(t *testing.T) {
	iv := twoQuestionInterview()
	iv.Questions = append(iv.Questions, models.Question{ID: "q3", Text: "Questions for us?", TimeLimit: 20})
	c := NewController("s-1", iv, Options{Clock: clock.NewMock()})
	defer c.Close()
	require.NoError(t, c.Mount())

	_, err := c.OnAdvance()
	require.NoError(t, err)
	c.expire(0)

	assert.Equal(t, 2, c.View().QuestionNumber)
}

func TestControllerRestartsTimerPerQuestion(t *testing.T) {
	c := NewController("s-1", twoQuestionInterview(), Options{Clock: clock.NewMock()})
	defer c.Close()
	require.NoError(t, c.Mount())

	gen := currentGen(c.timer)
	for i := 0; i < 25; i++ {
		c.timer.tick(gen)
	}
	v := c.View()
	assert.Equal(t, 5, v.RemainingSeconds)
	assert.Equal(t, SeverityCritical, v.TimerSeverity)

	_, err := c.OnAdvance()
	require.NoError(t, err)
	v = c.View()
	assert.Equal(t, 45, v.RemainingSeconds)
	assert.Equal(t, SeverityAmple, v.TimerSeverity)
}

func TestControllerRetakeKeepsText(t *testing.T) {
	stream := &fakeStream{}
	c := NewController("s-1", videoInterview(), Options{
		Clock:   clock.NewMock(),
		Devices: &fakeDevices{stream: stream},
	})
	defer c.Close()
	require.NoError(t, c.Mount())
	waitForCapture(t, c, CaptureLive)

	require.NoError(t, c.OnTextChange("my notes"))
	require.NoError(t, c.StartRecording())
	require.NoError(t, c.AppendChunk([]byte("frame-1")))
	require.NoError(t, c.AppendChunk([]byte("frame-2")))
	require.NoError(t, c.StopRecording())

	r := c.Responses()[0]
	assert.Equal(t, "my notes", r.Text)
	require.NotNil(t, r.Video)
	assert.Equal(t, []byte("frame-1frame-2"), r.Video.Data)
	assert.True(t, c.View().Response.HasVideo)

	require.NoError(t, c.Review())
	require.NoError(t, c.ReturnToLive())
	require.NoError(t, c.Retake())

	r = c.Responses()[0]
	assert.Equal(t, "my notes", r.Text)
	assert.Nil(t, r.Video)
	assert.Equal(t, CaptureLive, c.View().Capture.State)
}

func TestControllerPermissionDeniedKeepsTextOpen(t *testing.T) {
	events := &recordedEvents{}
	c := NewController("s-1", videoInterview(), Options{
		Clock:    clock.NewMock(),
		Devices:  &fakeDevices{err: ErrPermissionDenied},
		Listener: events,
	})
	defer c.Close()
	require.NoError(t, c.Mount())
	waitForCapture(t, c, CaptureDenied)

	assert.ErrorIs(t, c.StartRecording(), ErrPermissionDenied)
	assert.Equal(t, PermissionMessage, c.View().Capture.Message)

	require.NoError(t, c.OnTextChange("typed instead"))
	assert.Equal(t, "typed instead", c.Responses()[0].Text)
	assert.Positive(t, events.count(EventCapture))
}

func TestControllerInFlightRecordingOnAdvance(t *testing.T) {
	tests := []struct {
		policy    InFlightPolicy
		wantVideo bool
	}{
		{InFlightDiscard, false},
		{InFlightAutoSave, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			stream := &fakeStream{}
			c := NewController("s-1", videoInterview(), Options{
				Clock:    clock.NewMock(),
				Devices:  &fakeDevices{stream: stream},
				InFlight: tt.policy,
			})
			defer c.Close()
			require.NoError(t, c.Mount())
			waitForCapture(t, c, CaptureLive)

			require.NoError(t, c.StartRecording())
			require.NoError(t, c.AppendChunk([]byte("frame")))
			_, err := c.OnAdvance()
			require.NoError(t, err)

			assert.Equal(t, tt.wantVideo, c.Responses()[0].HasVideo())
			assert.Equal(t, int32(1), stream.stops.Load())
			assert.Nil(t, c.View().Capture)
		})
	}
}

func TestControllerTextQuestionHasNoCapture(t *testing.T) {
	c := NewController("s-1", twoQuestionInterview(), Options{
		Clock:   clock.NewMock(),
		Devices: &fakeDevices{stream: &fakeStream{}},
	})
	defer c.Close()
	require.NoError(t, c.Mount())

	assert.ErrorIs(t, c.StartRecording(), ErrNoCapture)
	assert.ErrorIs(t, c.AppendChunk([]byte("x")), ErrNoCapture)
}

func TestControllerCancelsPendingPermissionOnAdvance(t *testing.T) {
	devices := &fakeDevices{stream: &fakeStream{}, gate: make(chan struct{})}
	c := NewController("s-1", videoInterview(), Options{Clock: clock.NewMock(), Devices: devices})
	defer c.Close()
	require.NoError(t, c.Mount())
	require.Eventually(t, func() bool { return devices.opens.Load() == 1 }, time.Second, time.Millisecond)

	_, err := c.OnAdvance()
	require.NoError(t, err)

	require.Eventually(t, func() bool { return devices.returned.Load() == 1 }, time.Second, time.Millisecond)
	v := c.View()
	assert.Equal(t, 2, v.QuestionNumber)
	assert.Nil(t, v.Capture)
	assert.Zero(t, devices.stream.stops.Load())
}

func TestControllerClose(t *testing.T) {
	stream := &fakeStream{}
	c := NewController("s-1", videoInterview(), Options{
		Clock:   clock.NewMock(),
		Devices: &fakeDevices{stream: stream},
	})
	require.NoError(t, c.Mount())
	waitForCapture(t, c, CaptureLive)

	c.Close()
	c.Close()

	assert.Equal(t, int32(1), stream.stops.Load())
	assert.False(t, c.timer.Running())
	assert.ErrorIs(t, c.OnTextChange("late"), ErrClosed)
	assert.ErrorIs(t, c.StartRecording(), ErrClosed)
	_, err := c.OnAdvance()
	assert.ErrorIs(t, err, ErrClosed)
	c.expire(0)
	assert.False(t, c.Finished())
}

func TestControllerMountValidation(t *testing.T) {
	c := NewController("s-1", models.Interview{ID: "empty"}, Options{Clock: clock.NewMock()})
	assert.ErrorIs(t, c.Mount(), ErrNoQuestions)

	untimed := models.Interview{ID: "untimed", Questions: []models.Question{{ID: "q1", Text: "Hello?"}}}
	c = NewController("s-2", untimed, Options{Clock: clock.NewMock()})
	assert.ErrorIs(t, c.Mount(), ErrNoQuestions)

	c = NewController("s-3", untimed, Options{Clock: clock.NewMock(), DefaultTimeLimit: models.DefaultTimeLimit})
	defer c.Close()
	require.NoError(t, c.Mount())
	v := c.View()
	assert.Equal(t, models.DefaultTimeLimit, v.RemainingSeconds)
	assert.Equal(t, "02:00", v.TimerDisplay)
}

func TestParseInFlightPolicy(t *testing.T) {
	assert.Equal(t, InFlightAutoSave, ParseInFlightPolicy("autosave"))
	assert.Equal(t, InFlightDiscard, ParseInFlightPolicy("discard"))
	assert.Equal(t, InFlightDiscard, ParseInFlightPolicy(""))
	assert.Equal(t, InFlightDiscard, ParseInFlightPolicy("bogus"))
}
