// Package counter implements the local tasbih tally.
package counter

import (
	"fmt"
	"sync"
)

// Cue identifies the side effect that accompanies a transition.
type Cue int

const (
	CueIncrement Cue = iota + 1
	CueDecrement
	CueReset
)

func (c Cue) String() string {
	switch c {
	case CueIncrement:
		return "increment"
	case CueDecrement:
		return "decrement"
	case CueReset:
		return "reset"
	default:
		return fmt.Sprintf("cue(%d)", int(c))
	}
}

// Cues receives audible/visual cues. Play must not block.
type Cues interface {
	Play(Cue)
}

// CuesFunc adapts a function to Cues.
type CuesFunc func(Cue)

func (f CuesFunc) Play(c Cue) { f(c) }

// Counter is a non-negative tally. It is safe for concurrent use.
type Counter struct {
	mu    sync.Mutex
	value int
	muted bool
	cues  Cues
}

// New returns a zeroed counter. cues may be nil.
func New(cues Cues) *Counter {
	return &Counter{cues: cues}
}

func (c *Counter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Increment always succeeds.
func (c *Counter) Increment() int {
	c.mu.Lock()
	c.value++
	v := c.value
	c.mu.Unlock()
	c.play(CueIncrement)
	return v
}

// Decrement lowers the tally by one; at zero it does nothing and returns false.
func (c *Counter) Decrement() bool {
	c.mu.Lock()
	if c.value == 0 {
		c.mu.Unlock()
		return false
	}
	c.value--
	c.mu.Unlock()
	c.play(CueDecrement)
	return true
}

// Reset zeroes the tally; at zero it does nothing and returns false.
func (c *Counter) Reset() bool {
	c.mu.Lock()
	if c.value == 0 {
		c.mu.Unlock()
		return false
	}
	c.value = 0
	c.mu.Unlock()
	c.play(CueReset)
	return true
}

func (c *Counter) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

// ToggleMute flips the mute state and returns the new value.
func (c *Counter) ToggleMute() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.muted = !c.muted
	return c.muted
}

// Format renders the value zero-padded to width digits, odometer style.
func (c *Counter) Format(width int) string {
	return fmt.Sprintf("%0*d", width, c.Value())
}

func (c *Counter) play(cue Cue) {
	if c.cues == nil || c.Muted() {
		return
	}
	c.cues.Play(cue)
}
