package speech

// The voice surface offers a fixed set of recognition locales; the backend
// speaks in short language codes. These tables map between the two.

const (
	defaultLocale = "en-US"
	defaultCode   = "en"
)

var localeToCode = map[string]string{
	"en-US": "en",
	"hi-IN": "hi",
	"te-IN": "te",
}

var codeToLocale = map[string]string{
	"en": "en-US",
	"hi": "hi-IN",
	"te": "te-IN",
}

// SupportedLocales lists the recognition locales the UI may offer.
func SupportedLocales() []string {
	return []string{"en-US", "hi-IN", "te-IN"}
}

// CodeFromLocale maps a recognition locale tag to the backend's short
// language code. Unmapped tags default to English.
func CodeFromLocale(tag string) string {
	if code, ok := localeToCode[tag]; ok {
		return code
	}
	return defaultCode
}

// LocaleFromCode maps a short language code back to a synthesis locale,
// falling back to the English locale for unsupported codes.
func LocaleFromCode(code string) string {
	if tag, ok := codeToLocale[code]; ok {
		return tag
	}
	return defaultLocale
}
