// Package voice adapts speech engines to the start/stop and speak/stop
// contracts surfaces rely on.
//
// Engines are opaque: a Recognizer turns speech into text events, a Speaker
// plays text aloud. The adapters own the session state around them, drop
// events from sessions that were stopped or superseded, and translate engine
// failures into a fixed error taxonomy.
package voice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"sync"

	"golang.org/x/text/language"
)

// ErrorCode classifies a capture failure.
type ErrorCode string

const (
	ErrPermissionDenied ErrorCode = "permission-denied"
	ErrNoSpeech         ErrorCode = "no-speech"
	ErrNetwork          ErrorCode = "network"
	ErrCapture          ErrorCode = "capture"
	ErrOther            ErrorCode = "other"
)

// CaptureError is a failed recognition session.
type CaptureError struct {
	Code ErrorCode
	Err  error
}

func (e *CaptureError) Error() string {
	if e.Err == nil {
		return "voice capture: " + string(e.Code)
	}
	return fmt.Sprintf("voice capture: %s: %v", e.Code, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// Classify maps an engine error onto the capture taxonomy.
func Classify(err error) *CaptureError {
	var ce *CaptureError
	if errors.As(err, &ce) {
		return ce
	}
	var netErr net.Error
	var exitErr *exec.ExitError
	switch {
	case errors.Is(err, os.ErrPermission):
		return &CaptureError{Code: ErrPermissionDenied, Err: err}
	case errors.As(err, &netErr):
		return &CaptureError{Code: ErrNetwork, Err: err}
	case errors.As(err, &exitErr), errors.Is(err, exec.ErrNotFound):
		return &CaptureError{Code: ErrCapture, Err: err}
	default:
		return &CaptureError{Code: ErrOther, Err: err}
	}
}

// Emit delivers one recognition result. final marks the end of the utterance.
type Emit func(text string, final bool)

// Recognizer is a speech recognition engine.
type Recognizer interface {
	// Available probes whether the engine can run. It has no side effects.
	Available() bool

	// Recognize listens until the utterance ends, ctx is cancelled or an
	// error occurs, calling emit for each interim and final result.
	Recognize(ctx context.Context, locale language.Tag, emit Emit) error
}

// Capture runs at most one recognition session at a time.
type Capture struct {
	engine Recognizer

	mu         sync.Mutex
	locale     language.Tag
	recording  bool
	transcript string
	gen        uint64
	cancel     context.CancelFunc
	done       chan struct{}
	onResult   func(text string, final bool)
	onError    func(*CaptureError)
}

// NewCapture returns an idle adapter over engine. A nil engine is never
// supported.
func NewCapture(engine Recognizer, locale language.Tag) *Capture {
	return &Capture{engine: engine, locale: locale}
}

// OnResult registers the result callback.
func (c *Capture) OnResult(fn func(text string, final bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onResult = fn
}

// OnError registers the error callback.
func (c *Capture) OnError(fn func(*CaptureError)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = fn
}

// SetLocale changes the locale used by the next session.
func (c *Capture) SetLocale(locale language.Tag) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locale = locale
}

// Supported reports whether the engine can run.
func (c *Capture) Supported() bool {
	return c.engine != nil && c.engine.Available()
}

// Recording reports whether a session is active.
func (c *Capture) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording
}

// Transcript returns the latest text of the current or last session.
func (c *Capture) Transcript() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript
}

// Start begins a session. It is a no-op while recording or when the engine
// is unsupported. The previous transcript is cleared. If a stopped session's
// engine has not returned yet, Start waits for it before launching the next.
func (c *Capture) Start(ctx context.Context) {
	if !c.Supported() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for !c.recording && running(c.done) {
		prev := c.done
		c.mu.Unlock()
		<-prev
		c.mu.Lock()
	}
	if c.recording {
		return
	}

	c.gen++
	gen := c.gen
	c.recording = true
	c.transcript = ""
	sessCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	done := make(chan struct{})
	c.done = done
	locale := c.locale

	go c.run(sessCtx, gen, locale, done)
}

// Stop ends the active session. It is a no-op when idle. Events the engine
// produces after Stop are dropped.
func (c *Capture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.recording {
		return
	}
	c.recording = false
	c.cancel()
}

// Wait blocks until the last started session's engine has returned.
func (c *Capture) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

func running(done chan struct{}) bool {
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

func (c *Capture) live(gen uint64) bool {
	return c.recording && c.gen == gen
}

func (c *Capture) run(ctx context.Context, gen uint64, locale language.Tag, done chan struct{}) {
	defer close(done)

	emit := func(text string, final bool) {
		c.mu.Lock()
		if !c.live(gen) {
			c.mu.Unlock()
			return
		}
		c.transcript = text
		fn := c.onResult
		c.mu.Unlock()
		if fn != nil {
			fn(text, final)
		}
	}

	err := c.engine.Recognize(ctx, locale, emit)
	cancelled := ctx.Err() != nil

	c.mu.Lock()
	live := c.live(gen)
	if live {
		c.recording = false
		c.cancel()
	}
	fn := c.onError
	c.mu.Unlock()

	if err == nil || !live || cancelled {
		return
	}
	if fn != nil {
		fn(Classify(err))
	}
}
