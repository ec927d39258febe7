package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/models"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

const (
	PreferredCodec = "video/webm;codecs=vp9,opus"
	FallbackCodec  = "video/webm"

	PermissionMessage = "Camera and microphone access denied. Please allow access to your camera and microphone to record your answer."
)

// ErrEmptyRecording is returned when a recording stops before any media arrived.
var ErrEmptyRecording = errors.New("recording contains no media")

// CaptureState is the position of a Capture in the record/review cycle.
type CaptureState string

const (
	CaptureRequesting CaptureState = "requesting_permission"
	CaptureDenied     CaptureState = "permission_denied"
	CaptureLive       CaptureState = "live"
	CaptureRecording  CaptureState = "recording"
	CaptureRecorded   CaptureState = "recorded"
	CaptureReviewing  CaptureState = "reviewing"
	CaptureReleased   CaptureState = "released"
)

// Stream is a granted camera+microphone handle.
type Stream interface {
	Stop() error
}

// Devices hands out camera+microphone streams. Open may block until the
// candidate answers the permission prompt; it returns ErrPermissionDenied
// on refusal.
type Devices interface {
	Open(ctx context.Context) (Stream, error)
}

// Encoder turns buffered media chunks into a single blob.
type Encoder interface {
	Supports(mimeType string) bool
	Encode(mimeType string, chunks [][]byte) (*models.Blob, error)
}

// CaptureOptions configures a Capture.
type CaptureOptions struct {
	PreferredCodec string
	FallbackCodec  string
	Clock          clock.Clock
	Log            *zap.Logger
	// OnVideo receives every recorded blob and nil on retake. It runs
	// synchronously inside the command that produced the change.
	OnVideo func(*models.Blob)
}

// CaptureView is the read model of a Capture.
type CaptureView struct {
	State      CaptureState `json:"state"`
	Codec      string       `json:"codec,omitempty"`
	Chunks     int          `json:"chunks"`
	RecordedKB int          `json:"recordedKb"`
	Duration   string       `json:"duration"`
	Disabled   bool         `json:"disabled"`
	Message    string       `json:"message,omitempty"`
}

// Capture owns the camera and microphone for exactly one question.
// A new Capture is created for every question; none is ever reused.
type Capture struct {
	devices Devices
	encoder Encoder
	opts    CaptureOptions
	log     *zap.Logger

	mu        sync.Mutex
	state     CaptureState
	acquiring bool
	stream    Stream
	codec     string
	chunks    [][]byte
	blob      *models.Blob
	disabled  bool
	message   string
	startedAt time.Time
	duration  time.Duration
}

// NewCapture returns a Capture waiting for Acquire.
func NewCapture(devices Devices, encoder Encoder, opts CaptureOptions) *Capture {
	if opts.PreferredCodec == "" {
		opts.PreferredCodec = PreferredCodec
	}
	if opts.FallbackCodec == "" {
		opts.FallbackCodec = FallbackCodec
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Capture{
		devices: devices,
		encoder: encoder,
		opts:    opts,
		log:     log,
		state:   CaptureRequesting,
	}
}

// Acquire asks for camera and microphone access. It is attempted once;
// a denial is terminal for this Capture.
func (m *Capture) Acquire(ctx context.Context) error {
	m.mu.Lock()
	if m.state != CaptureRequesting || m.acquiring {
		m.mu.Unlock()
		return ErrInvalidState
	}
	m.acquiring = true
	m.mu.Unlock()

	stream, err := m.devices.Open(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.acquiring = false

	if m.state == CaptureReleased {
		// The question moved on while the prompt was open.
		if stream != nil {
			if stopErr := stream.Stop(); stopErr != nil {
				m.log.Warn("Failed to stop late stream", zap.Error(stopErr))
			}
		}
		return ErrClosed
	}

	if err != nil {
		m.state = CaptureDenied
		m.message = PermissionMessage
		if errors.Is(err, ErrPermissionDenied) {
			m.log.Info("Camera permission denied")
			return ErrPermissionDenied
		}
		m.log.Warn("Camera acquisition failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}

	m.stream = stream
	m.state = CaptureLive
	return nil
}

// StartRecording begins buffering media. Only valid while Live.
func (m *Capture) StartRecording() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.state == CaptureDenied:
		return ErrPermissionDenied
	case m.disabled:
		return ErrRecordingDisabled
	case m.state != CaptureLive:
		return ErrInvalidState
	}

	codec := m.selectCodec()
	if codec == "" {
		m.disabled = true
		m.log.Error("No supported recording codec",
			zap.String("preferred", m.opts.PreferredCodec),
			zap.String("fallback", m.opts.FallbackCodec),
		)
		return ErrEncodingUnsupported
	}

	m.codec = codec
	m.chunks = nil
	m.startedAt = m.opts.Clock.Now()
	m.duration = 0
	m.state = CaptureRecording
	return nil
}

func (m *Capture) selectCodec() string {
	if m.encoder.Supports(m.opts.PreferredCodec) {
		return m.opts.PreferredCodec
	}
	m.log.Warn("Preferred codec unavailable, using fallback", zap.String("codec", m.opts.PreferredCodec))
	if m.encoder.Supports(m.opts.FallbackCodec) {
		return m.opts.FallbackCodec
	}
	return ""
}

// AppendChunk buffers one slice of recorded media. Empty chunks are ignored.
func (m *Capture) AppendChunk(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != CaptureRecording {
		return ErrInvalidState
	}
	if len(data) == 0 {
		return nil
	}
	m.chunks = append(m.chunks, bytes.Clone(data))
	return nil
}

// StopRecording finalizes the buffered chunks into one blob. If the chosen
// codec cannot encode, the fallback codec is tried once; when that fails
// too, recording is disabled for this question.
func (m *Capture) StopRecording() (*models.Blob, error) {
	m.mu.Lock()
	if m.state != CaptureRecording {
		m.mu.Unlock()
		return nil, ErrInvalidState
	}

	m.duration = m.opts.Clock.Since(m.startedAt)
	chunks := m.chunks
	m.chunks = nil

	if len(chunks) == 0 {
		m.state = CaptureLive
		m.mu.Unlock()
		return nil, ErrEmptyRecording
	}

	blob, err := m.encoder.Encode(m.codec, chunks)
	if errors.Is(err, ErrEncodingUnsupported) && m.codec != m.opts.FallbackCodec {
		m.log.Warn("Encoding failed, retrying with fallback codec",
			zap.String("codec", m.codec),
			zap.Error(err),
		)
		m.codec = m.opts.FallbackCodec
		blob, err = m.encoder.Encode(m.codec, chunks)
	}
	if err != nil {
		m.disabled = true
		m.state = CaptureLive
		m.mu.Unlock()
		m.log.Error("Recording disabled after encoding failure", zap.Error(err))
		return nil, fmt.Errorf("encode recording: %w", err)
	}

	m.blob = blob
	m.state = CaptureRecorded
	onVideo := m.opts.OnVideo
	m.mu.Unlock()

	if onVideo != nil {
		onVideo(blob)
	}
	return blob, nil
}

// Retake discards the recorded blob and returns to the live preview.
// It is the only command that clears a stored video answer.
func (m *Capture) Retake() error {
	m.mu.Lock()
	if m.state != CaptureRecorded && m.state != CaptureReviewing {
		m.mu.Unlock()
		return ErrInvalidState
	}
	m.blob = nil
	m.duration = 0
	m.state = CaptureLive
	onVideo := m.opts.OnVideo
	m.mu.Unlock()

	if onVideo != nil {
		onVideo(nil)
	}
	return nil
}

// Review switches to playback of the recorded blob.
func (m *Capture) Review() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != CaptureRecorded {
		return ErrInvalidState
	}
	m.state = CaptureReviewing
	return nil
}

// ReturnToLive leaves playback without discarding the blob.
func (m *Capture) ReturnToLive() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != CaptureReviewing {
		return ErrInvalidState
	}
	m.state = CaptureRecorded
	return nil
}

// Release stops the device stream and drops all buffers. Idempotent.
func (m *Capture) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == CaptureReleased {
		return
	}
	if m.stream != nil {
		if err := m.stream.Stop(); err != nil {
			m.log.Warn("Failed to stop capture stream", zap.Error(err))
		}
		m.stream = nil
	}
	m.chunks = nil
	m.blob = nil
	m.state = CaptureReleased
}

// State returns the current capture state.
func (m *Capture) State() CaptureState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Disabled reports whether encoding failed for this question.
func (m *Capture) Disabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disabled
}

// Snapshot returns the read model.
func (m *Capture) Snapshot() CaptureView {
	m.mu.Lock()
	defer m.mu.Unlock()

	duration := m.duration
	if m.state == CaptureRecording {
		duration = m.opts.Clock.Since(m.startedAt)
	}
	return CaptureView{
		State:      m.state,
		Codec:      m.codec,
		Chunks:     len(m.chunks),
		RecordedKB: m.blob.SizeKB(),
		Duration:   FormatClock(int(duration / time.Second)),
		Disabled:   m.disabled,
		Message:    m.message,
	}
}

// ChunkEncoder joins timesliced recorder output in arrival order. Browser
// recorders emit container fragments that form a valid stream when
// concatenated, so no transcoding is needed.
type ChunkEncoder struct {
	supported map[string]bool
}

// NewChunkEncoder accepts the listed MIME types.
func NewChunkEncoder(mimeTypes ...string) *ChunkEncoder {
	supported := make(map[string]bool, len(mimeTypes))
	for _, mt := range mimeTypes {
		supported[mt] = true
	}
	return &ChunkEncoder{supported: supported}
}

func (e *ChunkEncoder) Supports(mimeType string) bool {
	return e.supported[mimeType]
}

func (e *ChunkEncoder) Encode(mimeType string, chunks [][]byte) (*models.Blob, error) {
	if !e.supported[mimeType] {
		return nil, fmt.Errorf("%w: %s", ErrEncodingUnsupported, mimeType)
	}
	size := 0
	for _, c := range chunks {
		size += len(c)
	}
	data := make([]byte, 0, size)
	for _, c := range chunks {
		data = append(data, c...)
	}
	// Stored blobs always carry the container type; the codec suffix is
	// only a recorder hint.
	return &models.Blob{MIMEType: FallbackCodec, Data: data}, nil
}
