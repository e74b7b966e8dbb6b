package voice

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/nadzzz/lovtrans/internal/lang"
	"github.com/nadzzz/lovtrans/internal/stt"
	"github.com/nadzzz/lovtrans/internal/tts"
)

// scriptedRecognizer emits the scripted results, then blocks until release
// is closed or ctx ends, then returns err.
type scriptedRecognizer struct {
	available bool
	results   []string
	final     bool
	err       error
	release   chan struct{}

	sessions atomic.Int32
	locales  chan language.Tag
}

func (r *scriptedRecognizer) Available() bool { return r.available }

func (r *scriptedRecognizer) Recognize(ctx context.Context, locale language.Tag, emit Emit) error {
	r.sessions.Add(1)
	if r.locales != nil {
		r.locales <- locale
	}
	for i, text := range r.results {
		emit(text, r.final && i == len(r.results)-1)
	}
	if r.release != nil {
		select {
		case <-r.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return r.err
}

type resultLog struct {
	mu      sync.Mutex
	results []string
	finals  []bool
	errs    []*CaptureError
}

func (l *resultLog) onResult(text string, final bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results = append(l.results, text)
	l.finals = append(l.finals, final)
}

func (l *resultLog) onError(err *CaptureError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, err)
}

func newLoggedCapture(engine Recognizer) (*Capture, *resultLog) {
	c := NewCapture(engine, language.MustParse("zh-CN"))
	log := &resultLog{}
	c.OnResult(log.onResult)
	c.OnError(log.onError)
	return c, log
}

func TestCaptureResults(t *testing.T) {
	engine := &scriptedRecognizer{available: true, results: []string{"你", "你好"}, final: true, locales: make(chan language.Tag, 1)}
	c, log := newLoggedCapture(engine)

	c.Start(context.Background())
	c.Wait()

	assert.Equal(t, "zh-CN", (<-engine.locales).String())
	assert.Equal(t, []string{"你", "你好"}, log.results)
	assert.Equal(t, []bool{false, true}, log.finals)
	assert.Equal(t, "你好", c.Transcript())
	assert.False(t, c.Recording(), "engine end returns to idle")
	assert.Empty(t, log.errs)
}

func TestCaptureUnsupported(t *testing.T) {
	engine := &scriptedRecognizer{available: false}
	c, _ := newLoggedCapture(engine)

	assert.False(t, c.Supported())
	c.Start(context.Background())
	assert.False(t, c.Recording())
	assert.Zero(t, engine.sessions.Load())

	assert.False(t, NewCapture(nil, language.English).Supported())
}

func TestCaptureStartWhileRecordingIsNoop(t *testing.T) {
	engine := &scriptedRecognizer{available: true, release: make(chan struct{})}
	c, _ := newLoggedCapture(engine)

	c.Start(context.Background())
	c.Start(context.Background())
	assert.True(t, c.Recording())

	close(engine.release)
	c.Wait()
	assert.Equal(t, int32(1), engine.sessions.Load())
}

func TestCaptureStopWhenIdleIsNoop(t *testing.T) {
	c, log := newLoggedCapture(&scriptedRecognizer{available: true})
	assert.NotPanics(t, c.Stop)
	assert.False(t, c.Recording())
	assert.Empty(t, log.errs)
}

func TestCaptureStopDropsLateEvents(t *testing.T) {
	release := make(chan struct{})
	engine := &lateRecognizer{release: release}
	c, log := newLoggedCapture(engine)

	c.Start(context.Background())
	require.Eventually(t, func() bool { return engine.started.Load() }, time.Second, time.Millisecond)
	c.Stop()
	close(release)
	c.Wait()

	assert.False(t, c.Recording())
	assert.Empty(t, log.results, "events after stop are dropped")
	assert.Empty(t, log.errs, "errors after stop are dropped")
}

// lateRecognizer ignores cancellation and emits once released.
type lateRecognizer struct {
	release chan struct{}
	started atomic.Bool
}

func (r *lateRecognizer) Available() bool { return true }

func (r *lateRecognizer) Recognize(_ context.Context, _ language.Tag, emit Emit) error {
	r.started.Store(true)
	<-r.release
	emit("too late", true)
	return errors.New("engine closed")
}

// slowStopRecognizer takes a while to shut down after cancellation and
// records how many sessions overlapped.
type slowStopRecognizer struct {
	active  atomic.Int32
	maxSeen atomic.Int32
	started chan struct{}
}

func (r *slowStopRecognizer) Available() bool { return true }

func (r *slowStopRecognizer) Recognize(ctx context.Context, _ language.Tag, _ Emit) error {
	n := r.active.Add(1)
	defer r.active.Add(-1)
	for {
		m := r.maxSeen.Load()
		if n <= m || r.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	r.started <- struct{}{}
	<-ctx.Done()
	time.Sleep(50 * time.Millisecond)
	return ctx.Err()
}

func TestCaptureRestartWaitsForStoppedEngine(t *testing.T) {
	engine := &slowStopRecognizer{started: make(chan struct{}, 2)}
	c, log := newLoggedCapture(engine)

	c.Start(context.Background())
	<-engine.started
	c.Stop()
	c.Start(context.Background())
	<-engine.started
	assert.True(t, c.Recording())

	c.Stop()
	c.Wait()
	assert.Equal(t, int32(1), engine.maxSeen.Load(), "engine sessions overlapped")
	assert.Empty(t, log.errs)
}

func TestCaptureClearsTranscriptOnStart(t *testing.T) {
	engine := &scriptedRecognizer{available: true, results: []string{"first"}, final: true}
	c, _ := newLoggedCapture(engine)
	c.Start(context.Background())
	c.Wait()
	require.Equal(t, "first", c.Transcript())

	engine.results = nil
	engine.release = make(chan struct{})
	c.Start(context.Background())
	assert.Empty(t, c.Transcript())
	c.Stop()
	c.Wait()
}

func TestCaptureErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"typed", &CaptureError{Code: ErrNoSpeech}, ErrNoSpeech},
		{"permission", os.ErrPermission, ErrPermissionDenied},
		{"other", errors.New("weird"), ErrOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, log := newLoggedCapture(&scriptedRecognizer{available: true, err: tt.err})
			c.Start(context.Background())
			c.Wait()

			require.Len(t, log.errs, 1)
			assert.Equal(t, tt.want, log.errs[0].Code)
			assert.False(t, c.Recording())
		})
	}
}

// blockingSpeaker blocks each utterance until released or cancelled.
type blockingSpeaker struct {
	mu      sync.Mutex
	spoken  []string
	active  atomic.Int32
	overlap atomic.Bool
	release chan struct{}
	err     error
}

func (s *blockingSpeaker) Available() bool { return true }

func (s *blockingSpeaker) Speak(ctx context.Context, text string, _ language.Tag) error {
	if s.active.Add(1) > 1 {
		s.overlap.Store(true)
	}
	defer s.active.Add(-1)

	s.mu.Lock()
	s.spoken = append(s.spoken, text)
	s.mu.Unlock()

	select {
	case <-s.release:
		return s.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type playbackLog struct {
	starts, ends atomic.Int32
	mu           sync.Mutex
	errs         []string
}

func newLoggedPlayback(engine Speaker) (*Playback, *playbackLog) {
	p := NewPlayback(engine, language.MustParse("ja-JP"))
	log := &playbackLog{}
	p.OnStart(func() { log.starts.Add(1) })
	p.OnEnd(func() { log.ends.Add(1) })
	p.OnError(func(msg string) {
		log.mu.Lock()
		defer log.mu.Unlock()
		log.errs = append(log.errs, msg)
	})
	return p, log
}

func TestPlaybackEnds(t *testing.T) {
	engine := &blockingSpeaker{release: make(chan struct{})}
	close(engine.release)
	p, log := newLoggedPlayback(engine)

	p.Speak("こんにちは")
	p.Wait()

	assert.Equal(t, int32(1), log.starts.Load())
	assert.Equal(t, int32(1), log.ends.Load())
	assert.False(t, p.Playing())
}

func TestPlaybackPreemption(t *testing.T) {
	engine := &blockingSpeaker{release: make(chan struct{})}
	p, log := newLoggedPlayback(engine)

	p.Speak("one")
	p.Speak("two")
	assert.True(t, p.Playing())
	assert.False(t, engine.overlap.Load(), "at most one utterance at a time")

	close(engine.release)
	p.Wait()

	assert.Equal(t, []string{"one", "two"}, engine.spoken)
	assert.Equal(t, int32(2), log.starts.Load())
	assert.Equal(t, int32(1), log.ends.Load(), "cancelled utterance emits no end")
	assert.Empty(t, log.errs)
}

func TestPlaybackStop(t *testing.T) {
	engine := &blockingSpeaker{release: make(chan struct{})}
	p, log := newLoggedPlayback(engine)

	assert.NotPanics(t, p.Stop, "stop before any speech")

	p.Speak("hello")
	p.Stop()
	p.Stop()

	assert.False(t, p.Playing())
	assert.Zero(t, log.ends.Load())
	assert.Empty(t, log.errs)
}

func TestPlaybackNoops(t *testing.T) {
	engine := &blockingSpeaker{release: make(chan struct{})}
	p, log := newLoggedPlayback(engine)

	p.Speak("   ")
	assert.False(t, p.Playing())
	assert.Zero(t, log.starts.Load())

	unsupported := NewPlayback(nil, language.English)
	assert.False(t, unsupported.Supported())
	unsupported.Speak("hello")
	assert.False(t, unsupported.Playing())
}

func TestPlaybackError(t *testing.T) {
	engine := &blockingSpeaker{release: make(chan struct{}), err: errors.New("audio device busy")}
	close(engine.release)
	p, log := newLoggedPlayback(engine)

	p.Speak("hello")
	p.Wait()

	assert.Equal(t, []string{"audio device busy"}, log.errs)
	assert.Zero(t, log.ends.Load())
}

type fakeTranscriber struct {
	text string
	err  error
	opts stt.TranscribeOpts
}

func (f *fakeTranscriber) Name() string { return "fake" }
func (f *fakeTranscriber) Close() error { return nil }
func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte, _ string, opts stt.TranscribeOpts) (*stt.Result, error) {
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &stt.Result{Text: f.text}, nil
}

func fakeRun(out []byte, err error) runFunc {
	return func(context.Context, string, []string, io.Reader) ([]byte, error) {
		return out, err
	}
}

func TestMicRecognizer(t *testing.T) {
	clip := make([]byte, wavHeaderSize+100)

	tests := []struct {
		name     string
		run      runFunc
		tr       *fakeTranscriber
		wantText string
		wantCode ErrorCode
	}{
		{"success", fakeRun(clip, nil), &fakeTranscriber{text: " 你好 "}, "你好", ""},
		{"recorder failed", fakeRun(nil, errors.New("arecord: exit status 1")), &fakeTranscriber{}, "", ErrCapture},
		{"recorder denied", fakeRun(nil, errors.New("arecord: Permission denied")), &fakeTranscriber{}, "", ErrPermissionDenied},
		{"empty clip", fakeRun(clip[:wavHeaderSize], nil), &fakeTranscriber{}, "", ErrNoSpeech},
		{"transcriber failed", fakeRun(clip, nil), &fakeTranscriber{err: errors.New("503")}, "", ErrNetwork},
		{"silence", fakeRun(clip, nil), &fakeTranscriber{text: "  "}, "", ErrNoSpeech},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMicRecognizer(tt.tr, "", 3)
			m.run = tt.run

			var got string
			err := m.Recognize(context.Background(), language.MustParse("zh-CN"), func(text string, final bool) {
				assert.True(t, final)
				got = text
			})

			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantText, got)
				assert.Equal(t, lang.Chinese, tt.tr.opts.Language)
				return
			}
			assert.Equal(t, tt.wantCode, Classify(err).Code)
		})
	}
}

func TestMicRecognizerAvailable(t *testing.T) {
	m := NewMicRecognizer(&fakeTranscriber{}, "arecord", 5)
	m.available = func(string) bool { return true }
	assert.True(t, m.Available())

	m = NewMicRecognizer(nil, "arecord", 5)
	m.available = func(string) bool { return true }
	assert.False(t, m.Available())
}

type fakeSynth struct {
	opts tts.SynthesizeOpts
	err  error
}

func (f *fakeSynth) Name() string { return "fake" }
func (f *fakeSynth) Close() error { return nil }
func (f *fakeSynth) Synthesize(_ context.Context, _ string, opts tts.SynthesizeOpts) (*tts.Result, error) {
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &tts.Result{Audio: []byte("RIFFdata"), ContentType: "audio/wav"}, nil
}

func TestLocaleCodeRoundTrip(t *testing.T) {
	for _, code := range lang.Codes() {
		assert.Equal(t, code, localeCode(lang.VoiceLocale(code)), "locale %s", lang.VoiceLocale(code))
	}
}

func TestPiperSpeaker(t *testing.T) {
	synth := &fakeSynth{}
	s := NewPiperSpeaker(synth, "")

	var played []byte
	s.run = func(_ context.Context, name string, _ []string, stdin io.Reader) ([]byte, error) {
		assert.Equal(t, "aplay", name)
		played, _ = io.ReadAll(stdin)
		return nil, nil
	}

	require.NoError(t, s.Speak(context.Background(), "hola", language.MustParse("es-ES")))
	assert.Equal(t, lang.Spanish, synth.opts.Language)
	assert.Equal(t, []byte("RIFFdata"), played)

	synth.err = tts.ErrNoVoice
	err := s.Speak(context.Background(), "kumusta", lang.VoiceLocale(lang.Tagalog))
	require.ErrorIs(t, err, tts.ErrNoVoice)
	assert.Equal(t, lang.Tagalog, synth.opts.Language)
}
