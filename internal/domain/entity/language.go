// Package entity defines domain entities.
package entity

// PivotLanguage is the language the knowledge base and LLM operate in.
const PivotLanguage = "en"

// Language is one supported input/output language.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// SupportedLanguages lists the languages the assistant accepts, keyed by
// ISO 639-1 code.
var SupportedLanguages = []Language{
	{Code: "en", Name: "English"},
	{Code: "hi", Name: "Hindi"},
	{Code: "gu", Name: "Gujarati"},
	{Code: "mr", Name: "Marathi"},
	{Code: "ta", Name: "Tamil"},
	{Code: "te", Name: "Telugu"},
	{Code: "bn", Name: "Bengali"},
	{Code: "kn", Name: "Kannada"},
	{Code: "ml", Name: "Malayalam"},
	{Code: "pa", Name: "Punjabi"},
}

var languageNames = func() map[string]string {
	m := make(map[string]string, len(SupportedLanguages))
	for _, l := range SupportedLanguages {
		m[l.Code] = l.Name
	}
	return m
}()

// IsSupportedLanguage reports whether code is a supported language.
func IsSupportedLanguage(code string) bool {
	_, ok := languageNames[code]
	return ok
}

// LanguageName returns the display name for code, or the code itself
// when unknown.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}
