package domain

// Language is a spoken language the agent can reply in.
type Language struct {
	Code string
	Name string
}

var (
	Hindi    = Language{Code: "hi", Name: "Hindi"}
	Gujarati = Language{Code: "gu", Name: "Gujarati"}
	English  = Language{Code: "en", Name: "English"}
)

// DefaultLanguage is used whenever detection fails or yields an unsupported code.
var DefaultLanguage = English

var supportedLanguages = map[string]Language{
	Hindi.Code:    Hindi,
	Gujarati.Code: Gujarati,
	English.Code:  English,
}

// LanguageForCode resolves an ISO 639-1 code to a supported language, falling
// back to DefaultLanguage. The second result reports whether code was supported.
func LanguageForCode(code string) (Language, bool) {
	lang, ok := supportedLanguages[code]
	if !ok {
		return DefaultLanguage, false
	}
	return lang, true
}

// SupportedLanguages returns the supported languages in a stable order.
func SupportedLanguages() []Language {
	return []Language{Hindi, Gujarati, English}
}
