package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Severity is the display band of a countdown.
type Severity string

const (
	SeverityAmple    Severity = "ample"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// SeverityFor maps remaining/total onto a display band:
// >= 60% ample, [30%, 60%) warning, < 30% critical.
func SeverityFor(remaining, total int) Severity {
	if total <= 0 {
		return SeverityCritical
	}
	ratio := float64(remaining) / float64(total)
	switch {
	case ratio >= 0.6:
		return SeverityAmple
	case ratio >= 0.3:
		return SeverityWarning
	default:
		return SeverityCritical
	}
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Countdown counts down whole seconds and fires its expiry callback once
// per Start. Restarting or stopping invalidates every tick of the previous
// run, so a late tick can never reach the new run's callback.
type Countdown struct {
	clock clock.Clock

	mu        sync.Mutex
	gen       uint64
	total     int
	remaining int
	running   bool
	fired     bool
	onExpire  func()
	onTick    func(remaining, total int)
	cancel    chan struct{}
}

// NewCountdown returns a stopped countdown ticking on clk.
// A nil clk uses the wall clock.
func NewCountdown(clk clock.Clock) *Countdown {
	if clk == nil {
		clk = clock.New()
	}
	return &Countdown{clock: clk}
}

// OnTick registers a hook called after every tick with the new remaining time.
func (c *Countdown) OnTick(fn func(remaining, total int)) {
	c.mu.Lock()
	c.onTick = fn
	c.mu.Unlock()
}

// Start begins a new countdown of seconds, cancelling any run in progress.
func (c *Countdown) Start(seconds int, onExpire func()) error {
	if seconds <= 0 {
		return fmt.Errorf("countdown duration must be positive, got %d", seconds)
	}

	c.mu.Lock()
	c.stopLocked()
	c.gen++
	gen := c.gen
	c.total = seconds
	c.remaining = seconds
	c.running = true
	c.fired = false
	c.onExpire = onExpire
	cancel := make(chan struct{})
	c.cancel = cancel
	ticker := c.clock.Ticker(time.Second)
	c.mu.Unlock()

	go c.run(gen, ticker, cancel)
	return nil
}

// Stop cancels the countdown. It is safe to call repeatedly and after expiry.
func (c *Countdown) Stop() {
	c.mu.Lock()
	c.stopLocked()
	c.mu.Unlock()
}

func (c *Countdown) stopLocked() {
	if c.cancel != nil {
		close(c.cancel)
		c.cancel = nil
	}
	c.running = false
	c.onExpire = nil
}

func (c *Countdown) run(gen uint64, ticker *clock.Ticker, cancel <-chan struct{}) {
	defer ticker.Stop()
	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
			if c.tick(gen) {
				return
			}
		}
	}
}

// tick applies one second to run gen and reports whether that run is over.
func (c *Countdown) tick(gen uint64) bool {
	c.mu.Lock()
	if gen != c.gen || !c.running {
		c.mu.Unlock()
		return true
	}

	c.remaining--
	remaining, total := c.remaining, c.total
	onTick := c.onTick

	var expire func()
	if remaining == 0 {
		c.running = false
		if !c.fired {
			c.fired = true
			expire = c.onExpire
			c.onExpire = nil
		}
		if c.cancel != nil {
			close(c.cancel)
			c.cancel = nil
		}
	}
	c.mu.Unlock()

	if onTick != nil {
		onTick(remaining, total)
	}
	if expire != nil {
		expire()
	}
	return remaining == 0
}

// Remaining returns the seconds left in the current run.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Total returns the duration of the current run.
func (c *Countdown) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Running reports whether a run is counting down.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Severity returns the display band for the current run.
func (c *Countdown) Severity() Severity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return SeverityFor(c.remaining, c.total)
}
