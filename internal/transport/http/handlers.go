package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nadzzz/lovtrans/internal/lang"
	"github.com/nadzzz/lovtrans/internal/message"
	"github.com/nadzzz/lovtrans/internal/orchestrator"
	"github.com/nadzzz/lovtrans/internal/settings"
	"github.com/nadzzz/lovtrans/internal/stt"
	"github.com/nadzzz/lovtrans/internal/transport"
	"github.com/nadzzz/lovtrans/internal/tts"
	"github.com/nadzzz/lovtrans/internal/validate"
)

// SessionCookie carries the opaque session identifier that scopes language
// settings.
const SessionCookie = "lovtrans_session"

// translateFailed is the only failure text clients see for provider errors.
const translateFailed = "Translation failed"

type api struct {
	backend      *transport.Backend
	logger       *slog.Logger
	maxBodyBytes int64
	secureCookie bool
}

// LanguageView is one registry entry as listed by the API.
type LanguageView struct {
	lang.Info
	// Label is the name shown in the requested interface language.
	Label string `json:"label"`
}

// handleTranslate processes a POST /api/translate request.
//
// @Summary     Translate a phrase
// @Description Translates text into the target language. When sourceLanguage is omitted the
// @Description source is detected and returned as detectedLanguage.
// @Tags        translate
// @Accept      json
// @Produce     json
// @Param       request  body      message.TranslateRequest   true  "Translation request"
// @Success     200      {object}  message.TranslateResponse
// @Failure     422      {object}  validate.Tree              "Validation issues"
// @Failure     500      {object}  message.ErrorResponse      "Translation failed"
// @Router      /api/translate [post]
func (a *api) handleTranslate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, a.maxBodyBytes))
	if err != nil || !json.Valid(body) {
		requestLogger(r, a.logger).Warn("unreadable translate request", "error", err)
		writeError(w, http.StatusInternalServerError, translateFailed)
		return
	}

	req, err := validate.DecodeTranslateRequest(body)
	if err != nil {
		writeValidation(w, err)
		return
	}

	res, err := a.backend.Orchestrator.TranslateSingle(r.Context(), req)
	if err != nil {
		requestLogger(r, a.logger).Error("translation failed", "target", req.TargetLanguage, "error", err)
		writeError(w, http.StatusInternalServerError, translateFailed)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleDualTranslate processes a POST /api/translate/dual request.
//
// @Summary     Translate with the session's language settings
// @Description Translates into targetLanguage (default: the session's destination language) and,
// @Description when neither the target nor the mother language is the common language, also into
// @Description the common language. A failed common-language translation is omitted.
// @Tags        translate
// @Accept      json
// @Produce     json
// @Param       request  body      message.DualTranslateRequest  true  "Dual translation request"
// @Success     200      {object}  message.DualTranslateResponse
// @Failure     400      {object}  message.ErrorResponse  "Blank text or malformed JSON"
// @Failure     422      {object}  validate.Tree          "Wrong field types or validation issues"
// @Failure     500      {object}  message.ErrorResponse  "Translation failed"
// @Router      /api/translate/dual [post]
func (a *api) handleDualTranslate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, a.maxBodyBytes))
	if err != nil || !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req, err := validate.DecodeDualTranslateRequest(body)
	if err != nil {
		writeValidation(w, err)
		return
	}

	s := a.session(w, r).Load(r.Context())
	target := req.TargetLanguage
	if target == "" {
		target = s.DestinationLanguage
	}
	if !s.Contains(target) {
		writeValidation(w, &validate.Error{Issues: []validate.Issue{{
			Path:    "targetLanguage",
			Code:    validate.CodeInvalidValue,
			Message: "Target language is not one of the configured languages",
		}}})
		return
	}

	res, err := a.backend.Orchestrator.Translate(r.Context(), req.Text, target, s)
	var verr *validate.Error
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, orchestrator.ErrEmptyInput):
		writeError(w, http.StatusBadRequest, orchestrator.UserMessage(err))
	case errors.As(err, &verr):
		writeValidation(w, verr)
	default:
		writeError(w, http.StatusInternalServerError, translateFailed)
	}
}

// handleGetSettings processes a GET /api/settings request.
//
// @Summary     Get the session's language settings
// @Tags        settings
// @Produce     json
// @Success     200  {object}  settings.Settings
// @Router      /api/settings [get]
func (a *api) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.session(w, r).Load(r.Context()))
}

// handlePutSettings processes a PUT /api/settings request.
//
// @Summary     Replace the session's language settings
// @Description The settings object is replaced as a whole. Duplicate languages are allowed.
// @Tags        settings
// @Accept      json
// @Produce     json
// @Param       settings  body      settings.Settings  true  "Language settings"
// @Success     200       {object}  settings.Settings
// @Failure     422       {object}  validate.Tree      "Validation issues"
// @Router      /api/settings [put]
func (a *api) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, a.maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading body failed")
		return
	}
	s, err := validate.DecodeSettings(body)
	if err != nil {
		writeValidation(w, err)
		return
	}
	a.session(w, r).Save(r.Context(), s)
	writeJSON(w, http.StatusOK, s)
}

// handleLanguages processes a GET /api/languages request.
//
// @Summary     List supported languages
// @Tags        languages
// @Produce     json
// @Param       ui   query     string  false  "Interface language for labels (zh or en)"
// @Success     200  {array}   LanguageView
// @Router      /api/languages [get]
func (a *api) handleLanguages(w http.ResponseWriter, r *http.Request) {
	ui, _ := lang.Parse(r.URL.Query().Get("ui"))
	all := lang.All()
	out := make([]LanguageView, 0, len(all))
	for _, info := range all {
		out = append(out, LanguageView{Info: info, Label: info.LocalizedName(ui)})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleTTS processes a POST /api/tts request.
//
// @Summary     Synthesize speech
// @Tags        speech
// @Accept      json
// @Produce     audio/wav
// @Param       request  body      message.TTSRequest     true  "Speech request"
// @Success     200      {file}    binary                 "WAV audio"
// @Failure     422      {object}  validate.Tree          "Validation issues"
// @Failure     502      {object}  message.ErrorResponse  "Synthesis failed"
// @Failure     503      {object}  message.ErrorResponse  "Text-to-speech disabled"
// @Router      /api/tts [post]
func (a *api) handleTTS(w http.ResponseWriter, r *http.Request) {
	synth := a.backend.Synthesizer
	if synth == nil {
		writeError(w, http.StatusServiceUnavailable, "Text-to-speech is disabled")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, a.maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading body failed")
		return
	}
	req, err := validate.DecodeTTSRequest(body)
	if err != nil {
		writeValidation(w, err)
		return
	}

	res, err := synth.Synthesize(r.Context(), req.Text, tts.SynthesizeOpts{Language: req.Language, Voice: req.Voice})
	switch {
	case errors.Is(err, tts.ErrNoVoice):
		writeValidation(w, &validate.Error{Issues: []validate.Issue{{
			Path:    "language",
			Code:    validate.CodeInvalidValue,
			Message: "No voice is available for this language",
		}}})
		return
	case err != nil:
		requestLogger(r, a.logger).Error("speech synthesis failed", "language", req.Language, "error", err)
		writeError(w, http.StatusBadGateway, "Speech synthesis failed")
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Audio)
}

// handleTranscribe processes a POST /api/transcribe request.
//
// @Summary     Transcribe speech
// @Description POST the raw audio bytes with their Content-Type.
// @Tags        speech
// @Accept      audio/wav
// @Accept      audio/ogg
// @Accept      audio/webm
// @Produce     json
// @Param       language  query     string  false  "Language hint (ISO 639-1)"
// @Success     200       {object}  message.TranscribeResponse
// @Failure     400       {object}  message.ErrorResponse  "Empty or unreadable audio"
// @Failure     422       {object}  validate.Tree          "Unsupported language hint"
// @Failure     502       {object}  message.ErrorResponse  "Transcription failed"
// @Failure     503       {object}  message.ErrorResponse  "Speech-to-text disabled"
// @Router      /api/transcribe [post]
func (a *api) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	tr := a.backend.Transcriber
	if tr == nil {
		writeError(w, http.StatusServiceUnavailable, "Speech-to-text is disabled")
		return
	}

	var opts stt.TranscribeOpts
	if hint := r.URL.Query().Get("language"); hint != "" {
		code, ok := lang.Parse(hint)
		if !ok {
			writeValidation(w, &validate.Error{Issues: []validate.Issue{{
				Path:    "language",
				Code:    validate.CodeInvalidValue,
				Message: "Unsupported language",
			}}})
			return
		}
		opts.Language = code
	}

	audio, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAudioBytes))
	if err != nil || len(audio) == 0 {
		writeError(w, http.StatusBadRequest, "audio body is required")
		return
	}

	res, err := tr.Transcribe(r.Context(), audio, r.Header.Get("Content-Type"), opts)
	if err != nil {
		requestLogger(r, a.logger).Error("transcription failed", "error", err)
		writeError(w, http.StatusBadGateway, "Transcription failed")
		return
	}
	writeJSON(w, http.StatusOK, message.TranscribeResponse{
		Text:       strings.TrimSpace(res.Text),
		Language:   res.Language,
		Confidence: res.Confidence,
	})
}

// session returns the settings store of the caller's session, issuing a new
// session cookie when the request has none or an invalid one.
func (a *api) session(w http.ResponseWriter, r *http.Request) *settings.Store {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return a.backend.SessionStore(id.String())
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return a.backend.SessionStore(id)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, message.ErrorResponse{Error: msg})
}

// writeValidation renders a validation failure as a 422 issue tree. Other
// errors become a generic 500.
func writeValidation(w http.ResponseWriter, err error) {
	var verr *validate.Error
	if !errors.As(err, &verr) {
		writeError(w, http.StatusInternalServerError, translateFailed)
		return
	}
	writeJSON(w, http.StatusUnprocessableEntity, verr.Tree())
}
