// Package provider defines the contract between lovtrans and the remote
// text-translation service.
package provider

import (
	"context"
	"fmt"

	"github.com/nadzzz/lovtrans/internal/lang"
	"github.com/nadzzz/lovtrans/internal/message"
)

// Provider translates text and identifies its language.
type Provider interface {
	// Name returns the backend identifier (e.g., "llm").
	Name() string

	// Translate performs one translation. When req.SourceLanguage is empty the
	// response carries the detected language of req.Text.
	Translate(ctx context.Context, req message.TranslateRequest) (*message.TranslateResponse, error)

	// DetectLanguage returns the language of text. It never fails; any
	// problem yields the configured fallback code.
	DetectLanguage(ctx context.Context, text string) lang.Code
}

// Error is a failed call to the remote service: a transport failure, a
// non-success status or an unusable response. Status is zero when no
// response was received.
type Error struct {
	Status int
	Body   string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("translation failed (status %d): %s", e.Status, e.Body)
	case e.Err != nil:
		return "translation failed: " + e.Err.Error()
	default:
		return "translation failed"
	}
}

func (e *Error) Unwrap() error { return e.Err }
