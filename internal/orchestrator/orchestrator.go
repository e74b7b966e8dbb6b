// Package orchestrator implements the translation flow behind every surface.
//
// A translation always produces a primary result in the active target
// language. When the speaker does not already understand the common language
// and the target is not the common language itself, a second, best-effort
// translation into the common language follows the primary one.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/nadzzz/lovtrans/internal/lang"
	"github.com/nadzzz/lovtrans/internal/message"
	"github.com/nadzzz/lovtrans/internal/metrics"
	"github.com/nadzzz/lovtrans/internal/provider"
	"github.com/nadzzz/lovtrans/internal/settings"
	"github.com/nadzzz/lovtrans/internal/validate"
)

// ErrEmptyInput is returned for input that is blank after trimming. No
// provider call is made.
var ErrEmptyInput = errors.New("input is empty")

// GenericFailureMessage is the only text users see for a failed translation.
const GenericFailureMessage = "Translation failed. Please try again."

// TranslationError is a failed primary translation.
type TranslationError struct {
	Target lang.Code
	Err    error
}

func (e *TranslationError) Error() string {
	return "translating to " + string(e.Target) + ": " + e.Err.Error()
}

func (e *TranslationError) Unwrap() error { return e.Err }

// UserMessage returns the text to show a user for err. Validation failures
// name the first failing check; every other failure maps to
// GenericFailureMessage so provider details never reach users.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrEmptyInput) {
		return "Text is required"
	}
	var verr *validate.Error
	if errors.As(err, &verr) && len(verr.Issues) > 0 {
		return verr.Issues[0].Message
	}
	return GenericFailureMessage
}

// Orchestrator coordinates validation and provider calls.
type Orchestrator struct {
	provider provider.Provider
	logger   *slog.Logger
}

// New creates an orchestrator on top of p.
func New(p provider.Provider, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{provider: p, logger: logger}
}

// NeedsSecondary reports whether a translation into target should be
// accompanied by one into the common language. Rules apply in order: no
// when the target already is the common language, no when the mother
// language is the common language, yes otherwise.
func NeedsSecondary(target lang.Code, s settings.Settings) bool {
	if target == s.CommonLanguage {
		return false
	}
	if s.MotherLanguage == s.CommonLanguage {
		return false
	}
	return true
}

// Translate translates input into target and, when NeedsSecondary holds,
// into s.CommonLanguage. The secondary call starts only after the primary
// one has succeeded and its failure is logged, not returned.
func (o *Orchestrator) Translate(ctx context.Context, input string, target lang.Code, s settings.Settings) (*message.DualTranslateResponse, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}
	if _, err := validate.Settings(s); err != nil {
		return nil, err
	}

	primary, err := o.TranslateSingle(ctx, message.TranslateRequest{Text: input, TargetLanguage: target})
	if err != nil {
		o.logger.Error("primary translation failed", "target", target, "provider", o.provider.Name(), "error", err)
		return nil, err
	}
	result := &message.DualTranslateResponse{Primary: *primary}

	if !NeedsSecondary(target, s) {
		metrics.RecordSecondary(metrics.OutcomeSkipped)
		return result, nil
	}

	start := time.Now()
	secondary, err := o.TranslateSingle(ctx, message.TranslateRequest{Text: input, TargetLanguage: s.CommonLanguage})
	if err != nil {
		metrics.RecordSecondary(metrics.OutcomeFailed)
		o.logger.Warn("secondary translation failed", "target", s.CommonLanguage, "error", err)
		return result, nil
	}
	metrics.RecordSecondary(metrics.OutcomeSuccess)
	o.logger.Debug("secondary translation complete", "target", s.CommonLanguage, "duration", time.Since(start))

	result.Secondary = secondary
	result.SecondaryLanguage = s.CommonLanguage
	return result, nil
}

// TranslateSingle validates req and performs one provider translation.
// Validation failures are returned as *validate.Error, provider failures as
// *TranslationError.
func (o *Orchestrator) TranslateSingle(ctx context.Context, req message.TranslateRequest) (*message.TranslateResponse, error) {
	req, err := validate.TranslateRequest(req)
	if err != nil {
		return nil, err
	}

	resp, err := o.provider.Translate(ctx, req)
	if err != nil {
		return nil, &TranslationError{Target: req.TargetLanguage, Err: err}
	}
	return resp, nil
}

// DetectLanguage returns the language of text as identified by the provider.
func (o *Orchestrator) DetectLanguage(ctx context.Context, text string) lang.Code {
	return o.provider.DetectLanguage(ctx, text)
}
