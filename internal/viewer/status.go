package viewer

import (
	"sync"
	"time"
)

// DefaultStatusDismissAfter is how long a success status stays visible.
const DefaultStatusDismissAfter = 5 * time.Second

// StatusKind is the severity of a status notification.
type StatusKind string

const (
	StatusInfo    StatusKind = "info"
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
)

// Valid reports whether k is one of the known kinds.
func (k StatusKind) Valid() bool {
	switch k {
	case StatusInfo, StatusSuccess, StatusError:
		return true
	}
	return false
}

// Status is the notification currently shown to the user.
// The zero value is a hidden status.
type Status struct {
	Kind    StatusKind `json:"kind,omitempty"`
	Message string     `json:"message,omitempty"`
	Visible bool       `json:"visible"`
	ShownAt time.Time  `json:"shown_at,omitzero"`
}

// statusBoard holds the single visible status. It has its own lock because
// dismiss timers fire on clock goroutines.
type statusBoard struct {
	clock        Clock
	dismissAfter time.Duration

	mu        sync.Mutex
	current   Status
	gen       uint64
	timer     Timer
	listeners []chan Status
}

func newStatusBoard(clock Clock, dismissAfter time.Duration) *statusBoard {
	return &statusBoard{clock: clock, dismissAfter: dismissAfter}
}

// show replaces the visible status. Success statuses schedule their own
// dismissal; the timer only hides the status it was scheduled for.
func (b *statusBoard) show(kind StatusKind, message string) Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}

	b.gen++
	b.current = Status{
		Kind:    kind,
		Message: message,
		Visible: true,
		ShownAt: b.clock.Now(),
	}

	if kind == StatusSuccess {
		gen := b.gen
		b.timer = b.clock.AfterFunc(b.dismissAfter, func() { b.dismiss(gen) })
	}

	b.broadcastLocked()
	return b.current
}

func (b *statusBoard) dismiss(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if gen != b.gen || !b.current.Visible {
		return
	}
	b.current.Visible = false
	b.timer = nil
	b.broadcastLocked()
}

func (b *statusBoard) get() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// subscribe returns a channel that receives every status change, starting
// with the current one. The returned func unsubscribes and closes the channel.
func (b *statusBoard) subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 8)

	b.mu.Lock()
	b.listeners = append(b.listeners, ch)
	ch <- b.current
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, l := range b.listeners {
				if l == ch {
					b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
					close(ch)
					return
				}
			}
		})
	}
}

// broadcastLocked sends the current status to listeners without blocking;
// a slow listener misses intermediate updates.
func (b *statusBoard) broadcastLocked() {
	for _, ch := range b.listeners {
		select {
		case ch <- b.current:
		default:
		}
	}
}

// close stops any pending dismissal and closes all listener channels.
func (b *statusBoard) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	for _, ch := range b.listeners {
		close(ch)
	}
	b.listeners = nil
}
