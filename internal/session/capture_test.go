package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/models"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func liveCapture(t *testing.T, enc Encoder, onVideo func(*models.Blob)) (*Capture, *fakeStream) {
	t.Helper()
	stream := &fakeStream{}
	m := NewCapture(&fakeDevices{stream: stream}, enc, CaptureOptions{
		Clock:   clock.NewMock(),
		OnVideo: onVideo,
	})
	require.NoError(t, m.Acquire(context.Background()))
	require.Equal(t, CaptureLive, m.State())
	return m, stream
}

func TestCaptureRecordCycle(t *testing.T) {
	var stored []*models.Blob
	m, stream := liveCapture(t, NewChunkEncoder(PreferredCodec, FallbackCodec), func(b *models.Blob) {
		stored = append(stored, b)
	})

	require.NoError(t, m.StartRecording())
	assert.Equal(t, CaptureRecording, m.State())
	assert.Equal(t, PreferredCodec, m.Snapshot().Codec)

	require.NoError(t, m.AppendChunk([]byte("abc")))
	require.NoError(t, m.AppendChunk(nil))
	require.NoError(t, m.AppendChunk([]byte("def")))
	assert.Equal(t, 2, m.Snapshot().Chunks)

	blob, err := m.StopRecording()
	require.NoError(t, err)
	assert.Equal(t, []byte("abcdef"), blob.Data)
	assert.Equal(t, FallbackCodec, blob.MIMEType)
	assert.Equal(t, CaptureRecorded, m.State())
	require.Len(t, stored, 1)
	assert.Same(t, blob, stored[0])

	require.NoError(t, m.Review())
	assert.Equal(t, CaptureReviewing, m.State())
	require.NoError(t, m.ReturnToLive())
	assert.Equal(t, CaptureRecorded, m.State())

	require.NoError(t, m.Retake())
	assert.Equal(t, CaptureLive, m.State())
	require.Len(t, stored, 2)
	assert.Nil(t, stored[1])
	assert.Zero(t, stream.stops.Load(), "retake keeps the live stream")
}

func TestCaptureRetakeFromReview(t *testing.T) {
	m, _ := liveCapture(t, NewChunkEncoder(FallbackCodec), nil)
	require.NoError(t, m.StartRecording())
	require.NoError(t, m.AppendChunk([]byte("x")))
	_, err := m.StopRecording()
	require.NoError(t, err)
	require.NoError(t, m.Review())

	require.NoError(t, m.Retake())
	assert.Equal(t, CaptureLive, m.State())
	assert.Zero(t, m.Snapshot().RecordedKB)
}

func TestCaptureInvalidCommands(t *testing.T) {
	m, _ := liveCapture(t, NewChunkEncoder(PreferredCodec), nil)

	assert.ErrorIs(t, m.Review(), ErrInvalidState)
	assert.ErrorIs(t, m.ReturnToLive(), ErrInvalidState)
	assert.ErrorIs(t, m.Retake(), ErrInvalidState)
	assert.ErrorIs(t, m.AppendChunk([]byte("x")), ErrInvalidState)
	_, err := m.StopRecording()
	assert.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, m.StartRecording())
	assert.ErrorIs(t, m.StartRecording(), ErrInvalidState)
	assert.ErrorIs(t, m.Acquire(context.Background()), ErrInvalidState)
}

func TestCapturePermissionDenied(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"refused", ErrPermissionDenied},
		{"no device", errors.New("no camera found")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewCapture(&fakeDevices{err: tt.err}, NewChunkEncoder(PreferredCodec), CaptureOptions{})

			err := m.Acquire(context.Background())
			assert.ErrorIs(t, err, ErrPermissionDenied)
			assert.Equal(t, CaptureDenied, m.State())
			assert.Equal(t, PermissionMessage, m.Snapshot().Message)

			assert.ErrorIs(t, m.StartRecording(), ErrPermissionDenied)
			assert.Equal(t, CaptureDenied, m.State())
			// A denial is terminal; no second prompt.
			assert.ErrorIs(t, m.Acquire(context.Background()), ErrInvalidState)
		})
	}
}

func TestCaptureFallsBackWhenPreferredUnsupported(t *testing.T) {
	enc := &fakeEncoder{supported: map[string]bool{FallbackCodec: true}}
	m, _ := liveCapture(t, enc, nil)

	require.NoError(t, m.StartRecording())
	assert.Equal(t, FallbackCodec, m.Snapshot().Codec)
}

func TestCaptureRetriesEncodeWithFallback(t *testing.T) {
	enc := &fakeEncoder{
		supported: map[string]bool{PreferredCodec: true, FallbackCodec: true},
		broken:    map[string]bool{PreferredCodec: true},
	}
	m, _ := liveCapture(t, enc, nil)

	require.NoError(t, m.StartRecording())
	require.NoError(t, m.AppendChunk([]byte("frame")))
	blob, err := m.StopRecording()
	require.NoError(t, err)
	assert.Equal(t, FallbackCodec, blob.MIMEType)
	assert.Equal(t, []string{PreferredCodec, FallbackCodec}, enc.encodes)
	assert.False(t, m.Disabled())
}

func TestCaptureDisabledAfterEncodingFailure(t *testing.T) {
	enc := &fakeEncoder{
		supported: map[string]bool{PreferredCodec: true, FallbackCodec: true},
		broken:    map[string]bool{PreferredCodec: true, FallbackCodec: true},
	}
	var calls int
	m, _ := liveCapture(t, enc, func(*models.Blob) { calls++ })

	require.NoError(t, m.StartRecording())
	require.NoError(t, m.AppendChunk([]byte("frame")))
	_, err := m.StopRecording()
	assert.ErrorIs(t, err, ErrEncodingUnsupported)
	assert.True(t, m.Disabled())
	assert.Equal(t, CaptureLive, m.State())
	assert.Zero(t, calls)

	assert.ErrorIs(t, m.StartRecording(), ErrRecordingDisabled)
}

func TestCaptureNoCodecAvailable(t *testing.T) {
	m, _ := liveCapture(t, &fakeEncoder{}, nil)

	assert.ErrorIs(t, m.StartRecording(), ErrEncodingUnsupported)
	assert.True(t, m.Disabled())
	assert.ErrorIs(t, m.StartRecording(), ErrRecordingDisabled)
}

func TestCaptureEmptyRecording(t *testing.T) {
	m, _ := liveCapture(t, NewChunkEncoder(PreferredCodec), nil)

	require.NoError(t, m.StartRecording())
	_, err := m.StopRecording()
	assert.ErrorIs(t, err, ErrEmptyRecording)
	assert.Equal(t, CaptureLive, m.State())
	assert.False(t, m.Disabled())
	assert.NoError(t, m.StartRecording())
}

func TestCaptureReleaseIsIdempotent(t *testing.T) {
	m, stream := liveCapture(t, NewChunkEncoder(PreferredCodec), nil)
	require.NoError(t, m.StartRecording())
	require.NoError(t, m.AppendChunk([]byte("frame")))

	m.Release()
	m.Release()
	assert.Equal(t, int32(1), stream.stops.Load())
	assert.Equal(t, CaptureReleased, m.State())
	assert.Zero(t, m.Snapshot().Chunks)
	assert.ErrorIs(t, m.StartRecording(), ErrInvalidState)
}

func TestCaptureStopsStreamGrantedAfterRelease(t *testing.T) {
	stream := &fakeStream{}
	devices := &fakeDevices{stream: stream, gate: make(chan struct{})}
	m := NewCapture(devices, NewChunkEncoder(PreferredCodec), CaptureOptions{})

	done := make(chan error, 1)
	go func() { done <- m.Acquire(context.Background()) }()
	require.Eventually(t, func() bool { return devices.opens.Load() == 1 }, time.Second, time.Millisecond)

	m.Release()
	close(devices.gate)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("acquire did not return")
	}
	assert.Equal(t, int32(1), stream.stops.Load())
	assert.Equal(t, CaptureReleased, m.State())
}

func TestCaptureSnapshotDuration(t *testing.T) {
	mock := clock.NewMock()
	m := NewCapture(&fakeDevices{stream: &fakeStream{}}, NewChunkEncoder(PreferredCodec), CaptureOptions{Clock: mock})
	require.NoError(t, m.Acquire(context.Background()))
	require.NoError(t, m.StartRecording())

	mock.Add(65 * time.Second)
	assert.Equal(t, "01:05", m.Snapshot().Duration)

	require.NoError(t, m.AppendChunk(make([]byte, 2048)))
	_, err := m.StopRecording()
	require.NoError(t, err)
	mock.Add(time.Minute)
	snap := m.Snapshot()
	assert.Equal(t, "01:05", snap.Duration)
	assert.Equal(t, 2, snap.RecordedKB)
}
