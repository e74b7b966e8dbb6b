package voice

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// Speaker is a speech playback engine.
type Speaker interface {
	// Available probes whether the engine can run. It has no side effects.
	Available() bool

	// Speak plays text and returns when playback has finished or ctx is
	// cancelled.
	Speak(ctx context.Context, text string, locale language.Tag) error
}

// Playback keeps at most one utterance audible. A new Speak cancels the
// current one and waits for it to stop before starting.
type Playback struct {
	engine Speaker

	speakMu sync.Mutex // serializes Speak and Stop

	mu      sync.Mutex
	locale  language.Tag
	playing bool
	cancel  context.CancelFunc
	done    chan struct{}
	onStart func()
	onEnd   func()
	onError func(string)
}

// NewPlayback returns an idle adapter over engine. A nil engine is never
// supported.
func NewPlayback(engine Speaker, locale language.Tag) *Playback {
	return &Playback{engine: engine, locale: locale}
}

// OnStart registers the callback fired when an utterance starts.
func (p *Playback) OnStart(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onStart = fn
}

// OnEnd registers the callback fired when an utterance finishes on its own.
func (p *Playback) OnEnd(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onEnd = fn
}

// OnError registers the callback fired with the engine's error text.
func (p *Playback) OnError(fn func(string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onError = fn
}

// SetLocale changes the locale of subsequent utterances.
func (p *Playback) SetLocale(locale language.Tag) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.locale = locale
}

// Supported reports whether the engine can run.
func (p *Playback) Supported() bool {
	return p.engine != nil && p.engine.Available()
}

// Playing reports whether an utterance is in flight.
func (p *Playback) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Speak starts playing text. Blank text and unsupported engines are no-ops.
// Cancelled utterances fire neither OnEnd nor OnError.
func (p *Playback) Speak(text string) {
	if strings.TrimSpace(text) == "" || !p.Supported() {
		return
	}

	p.speakMu.Lock()
	defer p.speakMu.Unlock()
	p.stopAndWait()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	p.mu.Lock()
	p.playing = true
	p.cancel = cancel
	p.done = done
	locale := p.locale
	onStart := p.onStart
	p.mu.Unlock()

	if onStart != nil {
		onStart()
	}
	go p.run(ctx, text, locale, done)
}

// Stop cancels the current utterance and waits for the engine to return.
// It is idempotent.
func (p *Playback) Stop() {
	p.speakMu.Lock()
	defer p.speakMu.Unlock()
	p.stopAndWait()
}

// Wait blocks until the current utterance, if any, has finished.
func (p *Playback) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (p *Playback) stopAndWait() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Playback) run(ctx context.Context, text string, locale language.Tag, done chan struct{}) {
	defer close(done)

	err := p.engine.Speak(ctx, text, locale)
	cancelled := ctx.Err() != nil

	p.mu.Lock()
	p.playing = false
	onEnd, onError := p.onEnd, p.onError
	p.mu.Unlock()

	switch {
	case cancelled:
	case err != nil:
		if onError != nil {
			onError(err.Error())
		}
	default:
		if onEnd != nil {
			onEnd()
		}
	}
}
