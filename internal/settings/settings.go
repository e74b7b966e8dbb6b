// Package settings holds the three-slot language configuration and persists
// it through a pluggable key-value store.
package settings

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nadzzz/lovtrans/internal/lang"
)

// StorageKey is the key the settings object is persisted under.
const StorageKey = "lovtrans-language-settings"

// Settings is the user's three configured languages. Duplicates are allowed.
type Settings struct {
	MotherLanguage      lang.Code `json:"motherLanguage" validate:"required,langcode"`
	DestinationLanguage lang.Code `json:"destinationLanguage" validate:"required,langcode"`
	CommonLanguage      lang.Code `json:"commonLanguage" validate:"required,langcode"`
}

// Default returns the settings used on first use: Chinese speakers travelling
// to Japan, with English as the shared language.
func Default() Settings {
	return Settings{
		MotherLanguage:      lang.Chinese,
		DestinationLanguage: lang.Japanese,
		CommonLanguage:      lang.English,
	}
}

// Contains reports whether code occupies any of the three slots.
func (s Settings) Contains(code lang.Code) bool {
	return code == s.MotherLanguage || code == s.DestinationLanguage || code == s.CommonLanguage
}

// Store loads and saves one settings object under a fixed key.
type Store struct {
	kv     KV
	key    string
	logger *slog.Logger
}

// NewStore returns a store persisting under key. An empty key means StorageKey.
func NewStore(kv KV, key string, logger *slog.Logger) *Store {
	if key == "" {
		key = StorageKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, key: key, logger: logger.With("settings_key", key)}
}

// SessionKey returns the storage key for a server-side session.
func SessionKey(sessionID string) string {
	return StorageKey + ":" + sessionID
}

// Load returns the persisted settings. Every field that is missing, of the
// wrong type or not a supported code falls back to its default on its own;
// Load never fails.
func (s *Store) Load(ctx context.Context) Settings {
	out := Default()

	raw, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.logger.Warn("loading settings failed, using defaults", "error", err)
		return out
	}
	if !found {
		return out
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		s.logger.Warn("stored settings are corrupt, using defaults", "error", err)
		return out
	}

	take := func(name string, dst *lang.Code) {
		data, ok := fields[name]
		if !ok {
			return
		}
		var code lang.Code
		if err := json.Unmarshal(data, &code); err != nil || !lang.Supported(code) {
			s.logger.Debug("ignoring stored settings field", "field", name)
			return
		}
		*dst = code
	}
	take("motherLanguage", &out.MotherLanguage)
	take("destinationLanguage", &out.DestinationLanguage)
	take("commonLanguage", &out.CommonLanguage)

	return out
}

// Save writes the whole settings object. Failures are logged, not returned.
func (s *Store) Save(ctx context.Context, settings Settings) {
	data, err := json.Marshal(settings)
	if err != nil {
		s.logger.Warn("encoding settings failed", "error", err)
		return
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		s.logger.Warn("saving settings failed", "error", err)
	}
}
