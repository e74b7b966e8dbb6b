package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nadzzz/lovtrans/internal/lang"
	"github.com/nadzzz/lovtrans/internal/message"
	"github.com/nadzzz/lovtrans/internal/settings"
	"github.com/nadzzz/lovtrans/internal/validate"
)

var (
	// ErrBusy is returned by Submit while a previous submission is in flight.
	ErrBusy = errors.New("a translation is already in progress")

	// ErrNotConfigured is returned when selecting a target that is not one of
	// the three configured languages.
	ErrNotConfigured = errors.New("language is not configured")

	// ErrSlotNotEditable is returned when editing the common language slot.
	ErrSlotNotEditable = errors.New("slot is not editable")
)

// Slot names one of the three configured languages.
type Slot string

const (
	SlotMother      Slot = "mother"
	SlotDestination Slot = "destination"
	SlotCommon      Slot = "common"
)

// SlotView is one language button as a surface displays it.
type SlotView struct {
	Slot     Slot      `json:"slot"`
	Code     lang.Code `json:"code"`
	Editable bool      `json:"editable"`
	Active   bool      `json:"active"`
}

// View is a snapshot of the session for rendering.
type View struct {
	Settings          settings.Settings `json:"settings"`
	Target            lang.Code         `json:"target"`
	Input             string            `json:"input"`
	Output            string            `json:"output"`
	DetectedLanguage  lang.Code         `json:"detectedLanguage,omitempty"`
	Secondary         string            `json:"secondary,omitempty"`
	SecondaryLanguage lang.Code         `json:"secondaryLanguage,omitempty"`
	Error             string            `json:"error,omitempty"`
	Loading           bool              `json:"loading"`
}

// Session is the state one user's surface owns: the settings, the active
// target, the current input and the last result. It is safe for concurrent
// use.
type Session struct {
	orch  *Orchestrator
	store *settings.Store

	// update serializes settings writers across the read, validate and save.
	update sync.Mutex

	mu       sync.Mutex
	settings settings.Settings
	target   lang.Code
	input    string
	result   *message.DualTranslateResponse
	errMsg   string
	loading  bool
}

// NewSession loads the settings from store once and targets the destination
// language.
func NewSession(ctx context.Context, orch *Orchestrator, store *settings.Store) *Session {
	s := store.Load(ctx)
	return &Session{
		orch:     orch,
		store:    store,
		settings: s,
		target:   s.DestinationLanguage,
	}
}

// Settings returns the current settings.
func (s *Session) Settings() settings.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Target returns the active translation target.
func (s *Session) Target() lang.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// SetInput replaces the input text.
func (s *Session) SetInput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = text
}

// SetTarget makes code the active target. It must be one of the configured
// languages.
func (s *Session) SetTarget(code lang.Code) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.settings.Contains(code) {
		return fmt.Errorf("%w: %s", ErrNotConfigured, code)
	}
	s.target = code
	return nil
}

// UpdateSettings validates and replaces the whole settings object, then
// persists it. A target that is no longer configured falls back to the new
// destination language.
func (s *Session) UpdateSettings(ctx context.Context, next settings.Settings) error {
	s.update.Lock()
	defer s.update.Unlock()
	return s.apply(ctx, next, "")
}

// SelectLanguage puts code into the mother or destination slot and makes it
// the active target.
func (s *Session) SelectLanguage(ctx context.Context, slot Slot, code lang.Code) error {
	s.update.Lock()
	defer s.update.Unlock()

	next := s.Settings()
	switch slot {
	case SlotMother:
		next.MotherLanguage = code
	case SlotDestination:
		next.DestinationLanguage = code
	case SlotCommon:
		return fmt.Errorf("%w: %s", ErrSlotNotEditable, slot)
	default:
		return fmt.Errorf("unknown slot %q", slot)
	}
	return s.apply(ctx, next, code)
}

// apply installs next and saves it. target, when set, becomes the active
// target. The caller holds s.update.
func (s *Session) apply(ctx context.Context, next settings.Settings, target lang.Code) error {
	next, err := validate.Settings(next)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.settings = next
	switch {
	case target != "":
		s.target = target
	case !next.Contains(s.target):
		s.target = next.DestinationLanguage
	}
	s.mu.Unlock()

	s.store.Save(ctx, next)
	return nil
}

// Slots returns the configured languages in slot order with duplicate codes
// shown once, under the first slot that holds them.
func (s *Session) Slots() []SlotView {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := []SlotView{
		{Slot: SlotMother, Code: s.settings.MotherLanguage, Editable: true},
		{Slot: SlotDestination, Code: s.settings.DestinationLanguage, Editable: true},
		{Slot: SlotCommon, Code: s.settings.CommonLanguage},
	}
	seen := make(map[lang.Code]bool, len(all))
	out := all[:0]
	for _, v := range all {
		if seen[v.Code] {
			continue
		}
		seen[v.Code] = true
		v.Active = v.Code == s.target
		out = append(out, v)
	}
	return out
}

// Submit translates the current input into the active target. Previous
// output is cleared before the call; on failure the session shows one
// generic message and keeps the input for a retry. Blank input is rejected
// with ErrEmptyInput without touching the state.
func (s *Session) Submit(ctx context.Context) (*message.DualTranslateResponse, error) {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	if strings.TrimSpace(s.input) == "" {
		s.mu.Unlock()
		return nil, ErrEmptyInput
	}
	s.loading = true
	s.errMsg = ""
	s.result = nil
	input, target, current := s.input, s.target, s.settings
	s.mu.Unlock()

	result, err := s.orch.Translate(ctx, input, target, current)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = UserMessage(err)
		return nil, err
	}
	s.result = result
	return result, nil
}

// Loading reports whether a submission is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// View returns a snapshot of the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Settings: s.settings,
		Target:   s.target,
		Input:    s.input,
		Error:    s.errMsg,
		Loading:  s.loading,
	}
	if s.result != nil {
		v.Output = s.result.Primary.TranslatedText
		v.DetectedLanguage = s.result.Primary.DetectedLanguage
		if s.result.Secondary != nil {
			v.Secondary = s.result.Secondary.TranslatedText
			v.SecondaryLanguage = s.result.SecondaryLanguage
		}
	}
	return v
}
