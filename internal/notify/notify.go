// Package notify collects short-lived messages ("toasts") for the UI.
package notify

import (
	"sync"
	"time"
)

// Level is the severity of a toast.
type Level string

const (
	Info    Level = "info"
	Warning Level = "warning"
)

const (
	// Visible is how long a toast is shown before it starts fading.
	Visible = 2400 * time.Millisecond
	// Fade is how long the fade-out lasts.
	Fade = 400 * time.Millisecond
)

// Toast is a single message.
type Toast struct {
	Message string
	Level   Level
	Shown   time.Time
}

// Fading reports whether the toast is in its fade-out window at now.
func (t Toast) Fading(now time.Time) bool {
	return now.Sub(t.Shown) >= Visible
}

func (t Toast) expired(now time.Time) bool {
	return now.Sub(t.Shown) >= Visible+Fade
}

// Center holds the toasts of one UI session. Create one with [NewCenter] and
// hand it to whatever needs to report to the player.
type Center struct {
	mu     sync.Mutex
	now    func() time.Time
	toasts []Toast
}

// Option configures a [Center].
type Option func(*Center)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Center) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCenter creates an empty notification center.
func NewCenter(opts ...Option) *Center {
	c := &Center{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Show adds a toast.
func (c *Center) Show(message string, level Level) {
	if level == "" {
		level = Info
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toasts = append(c.toasts, Toast{Message: message, Level: level, Shown: c.now()})
}

// Active drops expired toasts and returns the rest, oldest first.
func (c *Center) Active() []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	kept := c.toasts[:0]
	for _, t := range c.toasts {
		if !t.expired(now) {
			kept = append(kept, t)
		}
	}
	c.toasts = kept
	return append([]Toast(nil), kept...)
}
