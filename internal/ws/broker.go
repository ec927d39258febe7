package ws

import (
	"context"
	"sync"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/session"

	"github.com/google/uuid"
)

// Device events sent to the candidate page. The page answers a request
// by calling getUserMedia and reporting the outcome.
const (
	EventDeviceRequest = "device_request"
	EventDeviceRelease = "device_release"
)

type pendingRequest struct {
	id     string
	result chan bool
}

// DeviceBroker bridges session.Devices to the camera and microphone of
// the candidate's browser.
type DeviceBroker struct {
	publish func(sessionID string, msg Message)

	mu      sync.Mutex
	pending map[string]*pendingRequest
}

// NewDeviceBroker sends its requests through hub.
func NewDeviceBroker(hub *Hub) *DeviceBroker {
	return &DeviceBroker{publish: hub.Broadcast, pending: make(map[string]*pendingRequest)}
}

// For returns the Devices of one candidate session.
func (b *DeviceBroker) For(sessionID string) session.Devices {
	return &browserDevices{broker: b, sessionID: sessionID}
}

// Resolve answers the open permission request of sessionID. Answers to
// any other request id are dropped. It reports whether the answer was
// taken.
func (b *DeviceBroker) Resolve(sessionID, requestID string, granted bool) bool {
	b.mu.Lock()
	req, ok := b.pending[sessionID]
	if !ok || req.id != requestID {
		b.mu.Unlock()
		return false
	}
	delete(b.pending, sessionID)
	b.mu.Unlock()

	req.result <- granted
	return true
}

// Pending returns the id of the open request for sessionID, if any. A
// page that connects late uses it to pick up the prompt.
func (b *DeviceBroker) Pending(sessionID string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.pending[sessionID]
	if !ok {
		return "", false
	}
	return req.id, true
}

func (b *DeviceBroker) open(ctx context.Context, sessionID string) (session.Stream, error) {
	req := &pendingRequest{id: uuid.NewString(), result: make(chan bool, 1)}

	b.mu.Lock()
	if prev, ok := b.pending[sessionID]; ok {
		prev.result <- false
	}
	b.pending[sessionID] = req
	b.mu.Unlock()

	b.publish(sessionID, Message{Type: EventDeviceRequest, Data: map[string]string{"requestId": req.id}})

	select {
	case granted := <-req.result:
		if !granted {
			return nil, session.ErrPermissionDenied
		}
		return &browserStream{broker: b, sessionID: sessionID}, nil
	case <-ctx.Done():
		b.mu.Lock()
		if b.pending[sessionID] == req {
			delete(b.pending, sessionID)
		}
		b.mu.Unlock()
		return nil, ctx.Err()
	}
}

type browserDevices struct {
	broker    *DeviceBroker
	sessionID string
}

func (d *browserDevices) Open(ctx context.Context) (session.Stream, error) {
	return d.broker.open(ctx, d.sessionID)
}

type browserStream struct {
	broker    *DeviceBroker
	sessionID string
	once      sync.Once
}

// Stop tells the page to stop its media tracks.
func (s *browserStream) Stop() error {
	s.once.Do(func() {
		s.broker.publish(s.sessionID, Message{Type: EventDeviceRelease})
	})
	return nil
}
