package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/models"
)

type fakeStream struct {
	stops atomic.Int32
}

func (s *fakeStream) Stop() error {
	s.stops.Add(1)
	return nil
}

// fakeDevices grants stream unless err is set. With a gate, Open blocks
// until the gate closes or ctx is cancelled.
type fakeDevices struct {
	err      error
	gate     chan struct{}
	stream   *fakeStream
	opens    atomic.Int32
	returned atomic.Int32
}

func (d *fakeDevices) Open(ctx context.Context) (Stream, error) {
	d.opens.Add(1)
	defer d.returned.Add(1)
	if d.gate != nil {
		select {
		case <-d.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return d.stream, nil
}

type fakeEncoder struct {
	supported map[string]bool
	broken    map[string]bool
	encodes   []string
}

func (e *fakeEncoder) Supports(mimeType string) bool {
	return e.supported[mimeType]
}

func (e *fakeEncoder) Encode(mimeType string, chunks [][]byte) (*models.Blob, error) {
	e.encodes = append(e.encodes, mimeType)
	if e.broken[mimeType] {
		return nil, fmt.Errorf("%w: %s", ErrEncodingUnsupported, mimeType)
	}
	var data []byte
	for _, c := range chunks {
		data = append(data, c...)
	}
	return &models.Blob{MIMEType: mimeType, Data: data}, nil
}

type recordedEvents struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordedEvents) Publish(_ string, ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recordedEvents) count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}

type recordingSubmitter struct {
	mu      sync.Mutex
	results []Result
	err     error
}

func (s *recordingSubmitter) Submit(_ context.Context, result Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return s.err
}

func (s *recordingSubmitter) submitted() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Result(nil), s.results...)
}
