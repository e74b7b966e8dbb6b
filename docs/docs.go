// Package docs holds the OpenAPI document served under /swagger/. It is in
// swag's output format; go generate ./cmd/lovtrans rebuilds it from the
// handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/languages": {
            "get": {
                "produces": ["application/json"],
                "tags": ["languages"],
                "summary": "List supported languages",
                "parameters": [
                    {"type": "string", "description": "Interface language for labels (zh or en)", "name": "ui", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/http.LanguageView"}}
                    }
                }
            }
        },
        "/api/settings": {
            "get": {
                "produces": ["application/json"],
                "tags": ["settings"],
                "summary": "Get the session's language settings",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/settings.Settings"}}
                }
            },
            "put": {
                "description": "The settings object is replaced as a whole. Duplicate languages are allowed.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["settings"],
                "summary": "Replace the session's language settings",
                "parameters": [
                    {"description": "Language settings", "name": "settings", "in": "body", "required": true, "schema": {"$ref": "#/definitions/settings.Settings"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/settings.Settings"}},
                    "422": {"description": "Validation issues", "schema": {"$ref": "#/definitions/validate.Tree"}}
                }
            }
        },
        "/api/transcribe": {
            "post": {
                "description": "POST the raw audio bytes with their Content-Type.",
                "consumes": ["audio/wav", "audio/ogg", "audio/webm"],
                "produces": ["application/json"],
                "tags": ["speech"],
                "summary": "Transcribe speech",
                "parameters": [
                    {"type": "string", "description": "Language hint (ISO 639-1)", "name": "language", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/message.TranscribeResponse"}},
                    "400": {"description": "Empty or unreadable audio", "schema": {"$ref": "#/definitions/message.ErrorResponse"}},
                    "422": {"description": "Unsupported language hint", "schema": {"$ref": "#/definitions/validate.Tree"}},
                    "502": {"description": "Transcription failed", "schema": {"$ref": "#/definitions/message.ErrorResponse"}},
                    "503": {"description": "Speech-to-text disabled", "schema": {"$ref": "#/definitions/message.ErrorResponse"}}
                }
            }
        },
        "/api/translate": {
            "post": {
                "description": "Translates text into the target language. When sourceLanguage is omitted the\nsource is detected and returned as detectedLanguage.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["translate"],
                "summary": "Translate a phrase",
                "parameters": [
                    {"description": "Translation request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/message.TranslateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/message.TranslateResponse"}},
                    "422": {"description": "Validation issues", "schema": {"$ref": "#/definitions/validate.Tree"}},
                    "500": {"description": "Translation failed", "schema": {"$ref": "#/definitions/message.ErrorResponse"}}
                }
            }
        },
        "/api/translate/dual": {
            "post": {
                "description": "Translates into targetLanguage (default: the session's destination language) and,\nwhen neither the target nor the mother language is the common language, also into\nthe common language. A failed common-language translation is omitted.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["translate"],
                "summary": "Translate with the session's language settings",
                "parameters": [
                    {"description": "Dual translation request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/message.DualTranslateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/message.DualTranslateResponse"}},
                    "400": {"description": "Blank text or malformed JSON", "schema": {"$ref": "#/definitions/message.ErrorResponse"}},
                    "422": {"description": "Wrong field types or validation issues", "schema": {"$ref": "#/definitions/validate.Tree"}},
                    "500": {"description": "Translation failed", "schema": {"$ref": "#/definitions/message.ErrorResponse"}}
                }
            }
        },
        "/api/tts": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["audio/wav"],
                "tags": ["speech"],
                "summary": "Synthesize speech",
                "parameters": [
                    {"description": "Speech request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/message.TTSRequest"}}
                ],
                "responses": {
                    "200": {"description": "WAV audio", "schema": {"type": "file"}},
                    "422": {"description": "Validation issues", "schema": {"$ref": "#/definitions/validate.Tree"}},
                    "502": {"description": "Synthesis failed", "schema": {"$ref": "#/definitions/message.ErrorResponse"}},
                    "503": {"description": "Text-to-speech disabled", "schema": {"$ref": "#/definitions/message.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "http.LanguageView": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "label": {"description": "Label is the name shown in the requested interface language.", "type": "string"},
                "name": {"type": "string"},
                "nameEn": {"type": "string"},
                "nameZh": {"type": "string"}
            }
        },
        "message.DualTranslateRequest": {
            "type": "object",
            "properties": {
                "targetLanguage": {"description": "TargetLanguage defaults to the session's destination language.", "type": "string"},
                "text": {"type": "string"}
            }
        },
        "message.DualTranslateResponse": {
            "type": "object",
            "properties": {
                "primary": {"$ref": "#/definitions/message.TranslateResponse"},
                "secondary": {"$ref": "#/definitions/message.TranslateResponse"},
                "secondaryLanguage": {"type": "string"}
            }
        },
        "message.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "message.TTSRequest": {
            "type": "object",
            "required": ["language", "text"],
            "properties": {
                "language": {"type": "string"},
                "text": {"type": "string", "maxLength": 2000},
                "voice": {"description": "Voice overrides the default voice for Language.", "type": "string"}
            }
        },
        "message.TranscribeResponse": {
            "type": "object",
            "properties": {
                "confidence": {"description": "Confidence is reported only by engines that expose it.", "type": "number"},
                "language": {"type": "string"},
                "text": {"type": "string"}
            }
        },
        "message.TranslateRequest": {
            "type": "object",
            "required": ["targetLanguage", "text"],
            "properties": {
                "sourceLanguage": {"description": "SourceLanguage is the language of Text. Empty means auto-detect.", "type": "string"},
                "targetLanguage": {"description": "TargetLanguage is the language to translate into.", "type": "string"},
                "text": {"description": "Text is the phrase to translate (1–5000 characters).", "type": "string", "maxLength": 5000}
            }
        },
        "message.TranslateResponse": {
            "type": "object",
            "properties": {
                "detectedLanguage": {"description": "DetectedLanguage echoes the request's source language, or the detected\none when the source was omitted.", "type": "string"},
                "translatedText": {"description": "TranslatedText may be empty when the provider returned no content.", "type": "string"}
            }
        },
        "settings.Settings": {
            "type": "object",
            "required": ["commonLanguage", "destinationLanguage", "motherLanguage"],
            "properties": {
                "commonLanguage": {"type": "string"},
                "destinationLanguage": {"type": "string"},
                "motherLanguage": {"type": "string"}
            }
        },
        "validate.Tree": {
            "type": "object",
            "properties": {
                "errors": {"type": "array", "items": {"type": "string"}},
                "properties": {"type": "object", "additionalProperties": {"$ref": "#/definitions/validate.Tree"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "lovtrans API",
	Description:      "Voice-enabled phrase translation between a traveller's mother, destination and common languages.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
