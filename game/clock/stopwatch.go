package clock

import (
	"fmt"
	"sync"
	"time"
)

// Stopwatch measures elapsed play time. It can be paused and resumed without losing the
// time already counted, and reset back to zero. It is safe for concurrent use.
type Stopwatch struct {
	mu      sync.Mutex
	now     func() time.Time
	started time.Time
	base    time.Duration
	running bool
}

// NewStopwatch returns a stopped stopwatch reading zero
func NewStopwatch() *Stopwatch {
	return NewStopwatchWithNow(time.Now)
}

// NewStopwatchWithNow returns a stopwatch that reads time from now
func NewStopwatchWithNow(now func() time.Time) *Stopwatch {
	return &Stopwatch{now: now}
}

// Start zeroes the stopwatch and starts counting
func (s *Stopwatch) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = 0
	s.started = s.now()
	s.running = true
}

// Pause stops counting and keeps the elapsed time
func (s *Stopwatch) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.base += s.now().Sub(s.started)
	s.running = false
}

// Resume continues counting from the paused reading
func (s *Stopwatch) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.started = s.now()
	s.running = true
}

// Stop freezes the current reading. Unlike Pause, it is meant to be final for the game.
func (s *Stopwatch) Stop() {
	s.Pause()
}

// Reset stops the stopwatch and zeroes it
func (s *Stopwatch) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = 0
	s.running = false
}

// Elapsed returns the time counted so far
func (s *Stopwatch) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return s.base + s.now().Sub(s.started)
	}
	return s.base
}

// Running reports whether the stopwatch is counting
func (s *Stopwatch) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Format renders d as mm:ss
func Format(d time.Duration) string {
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
