// Package message defines the core data types flowing through lovtrans.
package message

import "github.com/nadzzz/lovtrans/internal/lang"

// TranslateRequest asks for a single translation.
type TranslateRequest struct {
	// Text is the phrase to translate (1–5000 characters).
	Text string `json:"text" validate:"required,max=5000"`

	// SourceLanguage is the language of Text. Empty means auto-detect.
	SourceLanguage lang.Code `json:"sourceLanguage,omitempty" validate:"omitempty,langcode"`

	// TargetLanguage is the language to translate into.
	TargetLanguage lang.Code `json:"targetLanguage" validate:"required,langcode"`
}

// TranslateResponse is the result of a single translation.
type TranslateResponse struct {
	// TranslatedText may be empty when the provider returned no content.
	TranslatedText string `json:"translatedText"`

	// DetectedLanguage echoes the request's source language, or the detected
	// one when the source was omitted.
	DetectedLanguage lang.Code `json:"detectedLanguage,omitempty"`
}

// DualTranslateRequest asks for a session-aware translation.
type DualTranslateRequest struct {
	Text string `json:"text"`

	// TargetLanguage defaults to the session's destination language.
	TargetLanguage lang.Code `json:"targetLanguage,omitempty"`
}

// DualTranslateResponse carries the primary translation and, when the
// common-language rule applies and the call succeeded, the secondary one.
type DualTranslateResponse struct {
	Primary           TranslateResponse  `json:"primary"`
	Secondary         *TranslateResponse `json:"secondary,omitempty"`
	SecondaryLanguage lang.Code          `json:"secondaryLanguage,omitempty"`
}

// TTSRequest asks for speech synthesis.
type TTSRequest struct {
	Text     string    `json:"text" validate:"required,max=2000"`
	Language lang.Code `json:"language" validate:"required,langcode"`

	// Voice overrides the default voice for Language.
	Voice string `json:"voice,omitempty"`
}

// TranscribeResponse is the result of speech-to-text.
type TranscribeResponse struct {
	Text     string    `json:"text"`
	Language lang.Code `json:"language,omitempty"`

	// Confidence is reported only by engines that expose it.
	Confidence *float64 `json:"confidence,omitempty"`
}

// ErrorResponse is the body of non-validation failures.
type ErrorResponse struct {
	Error string `json:"error"`
}
