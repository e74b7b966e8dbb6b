// Package validate is the single admission check for requests entering
// lovtrans: translation requests, TTS requests and language settings.
//
// Validators return the value unchanged on success, or an *Error listing
// every failing field. Decode* variants work on raw JSON so that fields of
// the wrong type are reported instead of silently zeroed.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nadzzz/lovtrans/internal/lang"
	"github.com/nadzzz/lovtrans/internal/message"
	"github.com/nadzzz/lovtrans/internal/settings"
)

// Length bounds, counted in characters.
const (
	MaxTranslateTextLength = 5000
	MaxTTSTextLength       = 2000
)

// Issue codes.
const (
	CodeTooSmall     = "too_small"
	CodeTooBig       = "too_big"
	CodeInvalidValue = "invalid_value"
	CodeInvalidType  = "invalid_type"
)

// Issue is one failed check. Path is the JSON field name, empty for the root.
type Issue struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error is returned when a value fails validation.
type Error struct {
	Issues []Issue
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		if is.Path == "" {
			parts = append(parts, is.Message)
			continue
		}
		parts = append(parts, is.Path+": "+is.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether an issue with the given path and code is present.
func (e *Error) Has(path, code string) bool {
	for _, is := range e.Issues {
		if is.Path == path && is.Code == code {
			return true
		}
	}
	return false
}

// Tree is the nested issue report returned with HTTP 422.
type Tree struct {
	Errors     []string        `json:"errors"`
	Properties map[string]Tree `json:"properties,omitempty"`
}

// Tree groups the issues by field.
func (e *Error) Tree() Tree {
	t := Tree{Errors: []string{}}
	for _, is := range e.Issues {
		if is.Path == "" {
			t.Errors = append(t.Errors, is.Message)
			continue
		}
		if t.Properties == nil {
			t.Properties = make(map[string]Tree)
		}
		sub := t.Properties[is.Path]
		sub.Errors = append(sub.Errors, is.Message)
		t.Properties[is.Path] = sub
	}
	return t
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("langcode", func(fl validator.FieldLevel) bool {
		return lang.Supported(lang.Code(fl.Field().String()))
	})
	return v
}

var codeList = func() string {
	codes := lang.Codes()
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = `"` + string(c) + `"`
	}
	return strings.Join(parts, "|")
}()

func invalidCode(path string) Issue {
	return Issue{Path: path, Code: CodeInvalidValue, Message: "Invalid option: expected one of " + codeList}
}

// TranslateRequest validates a translation request.
func TranslateRequest(req message.TranslateRequest) (message.TranslateRequest, error) {
	if issues := check(req, nil); len(issues) > 0 {
		return req, &Error{Issues: issues}
	}
	return req, nil
}

// TTSRequest validates a speech synthesis request.
func TTSRequest(req message.TTSRequest) (message.TTSRequest, error) {
	if issues := check(req, nil); len(issues) > 0 {
		return req, &Error{Issues: issues}
	}
	return req, nil
}

// Settings validates a complete settings object.
func Settings(s settings.Settings) (settings.Settings, error) {
	if issues := check(s, nil); len(issues) > 0 {
		return s, &Error{Issues: issues}
	}
	return s, nil
}

// check runs the struct rules and appends their issues to prior, skipping
// fields that already have an issue from decoding.
func check(v any, prior []Issue) []Issue {
	err := validate.Struct(v)
	if err == nil {
		return prior
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return append(prior, Issue{Code: CodeInvalidType, Message: err.Error()})
	}

	flagged := make(map[string]bool, len(prior))
	for _, is := range prior {
		flagged[is.Path] = true
	}

	issues := prior
	for _, fe := range verrs {
		path := fe.Field()
		if flagged[path] {
			continue
		}
		issues = append(issues, fieldIssue(path, fe))
	}
	return issues
}

func fieldIssue(path string, fe validator.FieldError) Issue {
	isText := fe.Kind() == reflect.String && fe.Type() == reflect.TypeOf("")
	switch fe.Tag() {
	case "required":
		if isText {
			return Issue{Path: path, Code: CodeTooSmall, Message: "Text is required"}
		}
		return Issue{Path: path, Code: CodeInvalidType, Message: "Required"}
	case "max":
		return Issue{Path: path, Code: CodeTooBig, Message: "Text is too long"}
	case "langcode":
		return invalidCode(path)
	default:
		return Issue{Path: path, Code: CodeInvalidValue, Message: fmt.Sprintf("failed %q check", fe.Tag())}
	}
}

// DecodeTranslateRequest parses and validates a JSON translation request.
func DecodeTranslateRequest(data []byte) (message.TranslateRequest, error) {
	var req message.TranslateRequest
	obj, issues := decodeObject(data)
	if obj == nil {
		return req, &Error{Issues: issues}
	}
	req.Text, _ = obj.str("text", &issues)
	req.SourceLanguage = obj.code("sourceLanguage", &issues)
	req.TargetLanguage = obj.code("targetLanguage", &issues)
	if issues = check(req, issues); len(issues) > 0 {
		return req, &Error{Issues: issues}
	}
	return req, nil
}

// DecodeDualTranslateRequest parses a JSON session translation request. It
// checks field types and the target code only: blank or oversized text is
// left to the orchestrator, which owns that distinction.
func DecodeDualTranslateRequest(data []byte) (message.DualTranslateRequest, error) {
	var req message.DualTranslateRequest
	obj, issues := decodeObject(data)
	if obj == nil {
		return req, &Error{Issues: issues}
	}
	req.Text, _ = obj.str("text", &issues)
	req.TargetLanguage = obj.code("targetLanguage", &issues)
	if len(issues) > 0 {
		return req, &Error{Issues: issues}
	}
	return req, nil
}

// DecodeTTSRequest parses and validates a JSON TTS request.
func DecodeTTSRequest(data []byte) (message.TTSRequest, error) {
	var req message.TTSRequest
	obj, issues := decodeObject(data)
	if obj == nil {
		return req, &Error{Issues: issues}
	}
	req.Text, _ = obj.str("text", &issues)
	req.Language = obj.code("language", &issues)
	req.Voice, _ = obj.str("voice", &issues)
	if issues = check(req, issues); len(issues) > 0 {
		return req, &Error{Issues: issues}
	}
	return req, nil
}

// DecodeSettings parses and validates a JSON settings object.
func DecodeSettings(data []byte) (settings.Settings, error) {
	var s settings.Settings
	obj, issues := decodeObject(data)
	if obj == nil {
		return s, &Error{Issues: issues}
	}
	s.MotherLanguage = obj.code("motherLanguage", &issues)
	s.DestinationLanguage = obj.code("destinationLanguage", &issues)
	s.CommonLanguage = obj.code("commonLanguage", &issues)
	if issues = check(s, issues); len(issues) > 0 {
		return s, &Error{Issues: issues}
	}
	return s, nil
}

type object map[string]json.RawMessage

func decodeObject(data []byte) (object, []Issue) {
	var obj object
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return nil, []Issue{{Code: CodeInvalidType, Message: "Invalid input: expected object"}}
	}
	return obj, nil
}

// str returns the string under name. Absent fields are not an issue here;
// present fields that are not strings are.
func (o object) str(name string, issues *[]Issue) (string, bool) {
	raw, ok := o[name]
	if !ok {
		return "", false
	}
	var s string
	if string(raw) == "null" || json.Unmarshal(raw, &s) != nil {
		*issues = append(*issues, Issue{Path: name, Code: CodeInvalidType, Message: "Invalid input: expected string"})
		return "", true
	}
	return s, true
}

func (o object) code(name string, issues *[]Issue) lang.Code {
	before := len(*issues)
	s, present := o.str(name, issues)
	if present && len(*issues) == before && !lang.Supported(lang.Code(s)) {
		*issues = append(*issues, invalidCode(name))
	}
	return lang.Code(s)
}
