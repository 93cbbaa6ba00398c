package service

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language pairs a BCP 47 code with its English display name for the UI.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var supportedLanguageCodes = []string{
	"en", "zh", "zh-Hant", "ja", "ko",
	"fr", "de", "es", "pt", "it",
	"ru", "ar", "hi", "th", "vi",
	"nl", "pl", "tr", "id", "sv",
}

// SupportedLanguages lists the translation targets offered by the UI.
// Any valid BCP 47 code is accepted by the API; this is just the menu.
func SupportedLanguages() []Language {
	namer := display.English.Tags()
	out := make([]Language, 0, len(supportedLanguageCodes))
	for _, code := range supportedLanguageCodes {
		tag := language.Make(code)
		out = append(out, Language{Code: code, Name: namer.Name(tag)})
	}
	return out
}

// ValidateLanguage checks that code parses as a BCP 47 tag. With allowAuto
// set, an empty code or the literal "auto" passes and means detect per file.
func ValidateLanguage(code string, allowAuto bool) error {
	if allowAuto && (code == "" || strings.EqualFold(code, "auto")) {
		return nil
	}
	if _, err := language.Parse(code); err != nil {
		return WrapError(err, ErrValidation, fmt.Sprintf("invalid language code %q", code))
	}
	return nil
}

// IsAutoSource reports whether the source language should be detected.
func IsAutoSource(code string) bool {
	return code == "" || strings.EqualFold(code, "auto")
}
