// Package lang is the registry of languages lovtrans can translate between.
//
// The table is fixed at build time. Lookups are pure and never fail: an
// unknown code is reported as not found, and display helpers fall back to the
// raw code.
package lang

import (
	"strings"

	"golang.org/x/text/language"
)

// Code is an ISO-639-1 language code from the supported set.
type Code string

const (
	Chinese    Code = "zh"
	English    Code = "en"
	Japanese   Code = "ja"
	Korean     Code = "ko"
	Thai       Code = "th"
	Vietnamese Code = "vi"
	French     Code = "fr"
	German     Code = "de"
	Spanish    Code = "es"
	Italian    Code = "it"
	Portuguese Code = "pt"
	Russian    Code = "ru"
	Arabic     Code = "ar"
	Hindi      Code = "hi"
	Indonesian Code = "id"
	Malay      Code = "ms"
	Tagalog    Code = "tl"
)

// Info is the display data for one supported language.
type Info struct {
	Code        Code   `json:"code"`
	NativeName  string `json:"name"`
	EnglishName string `json:"nameEn"`
	ChineseName string `json:"nameZh"`
	voiceLocale string
}

// LocalizedName returns the language name as shown to a user whose interface
// language is ui. Chinese interfaces get Chinese names; everything else gets
// English names.
func (i Info) LocalizedName(ui Code) string {
	if ui == Chinese {
		return i.ChineseName
	}
	return i.EnglishName
}

var registry = []Info{
	{Chinese, "中文", "Chinese", "中文", "zh-CN"},
	{English, "English", "English", "英语", "en-US"},
	{Japanese, "日本語", "Japanese", "日语", "ja-JP"},
	{Korean, "한국어", "Korean", "韩语", "ko-KR"},
	{Thai, "ไทย", "Thai", "泰语", "th-TH"},
	{Vietnamese, "Tiếng Việt", "Vietnamese", "越南语", "vi-VN"},
	{French, "Français", "French", "法语", "fr-FR"},
	{German, "Deutsch", "German", "德语", "de-DE"},
	{Spanish, "Español", "Spanish", "西班牙语", "es-ES"},
	{Italian, "Italiano", "Italian", "意大利语", "it-IT"},
	{Portuguese, "Português", "Portuguese", "葡萄牙语", "pt-BR"},
	{Russian, "Русский", "Russian", "俄语", "ru-RU"},
	{Arabic, "العربية", "Arabic", "阿拉伯语", "ar-SA"},
	{Hindi, "हिन्दी", "Hindi", "印地语", "hi-IN"},
	{Indonesian, "Indonesia", "Indonesian", "印尼语", "id-ID"},
	{Malay, "Melayu", "Malay", "马来语", "ms-MY"},
	{Tagalog, "Tagalog", "Tagalog", "他加禄语", "tl-PH"},
}

var byCode = func() map[Code]Info {
	m := make(map[Code]Info, len(registry))
	for _, info := range registry {
		m[info.Code] = info
	}
	return m
}()

// Lookup returns the registry entry for code.
func Lookup(code Code) (Info, bool) {
	info, ok := byCode[code]
	return info, ok
}

// Supported reports whether code is in the registry.
func Supported(code Code) bool {
	_, ok := byCode[code]
	return ok
}

// All returns every registry entry in display order.
func All() []Info {
	out := make([]Info, len(registry))
	copy(out, registry)
	return out
}

// Codes returns every supported code in display order.
func Codes() []Code {
	out := make([]Code, 0, len(registry))
	for _, info := range registry {
		out = append(out, info.Code)
	}
	return out
}

// LocalizedName returns the display name of code for the given interface
// language, or the code itself if it is not in the registry.
func LocalizedName(code, ui Code) string {
	info, ok := byCode[code]
	if !ok {
		return string(code)
	}
	return info.LocalizedName(ui)
}

// EnglishName returns the English display name of code, or the code itself.
func EnglishName(code Code) string {
	return LocalizedName(code, English)
}

// aliases maps bases that x/text canonicalizes onto a registry code.
var aliases = map[string]Code{
	"fil": Tagalog,
}

func resolve(base string) (Code, bool) {
	if code, ok := aliases[base]; ok {
		return code, true
	}
	code := Code(base)
	return code, Supported(code)
}

// Parse normalises s into a supported code. It accepts any casing,
// surrounding whitespace and BCP-47 tags with a region ("ja-JP", "pt_BR").
// Parse(VoiceLocale(c).String()) returns c for every registry code.
func Parse(s string) (Code, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	if code, ok := resolve(s); ok {
		return code, true
	}
	s = strings.ReplaceAll(s, "_", "-")
	if prefix, _, ok := strings.Cut(s, "-"); ok {
		if code, ok := resolve(prefix); ok {
			return code, true
		}
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	return resolve(base.String())
}

// VoiceLocale returns the BCP-47 locale speech engines use for code. Unknown
// codes resolve to the Chinese locale, the default interface language.
func VoiceLocale(code Code) language.Tag {
	info, ok := byCode[code]
	if !ok {
		info = byCode[Chinese]
	}
	return language.MustParse(info.voiceLocale)
}
