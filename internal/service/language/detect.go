package language

import "unicode"

// Codes the answer pipeline can produce. Anything outside this set clamps
// to English.
var supported = map[string]bool{
	"en": true,
	"hi": true,
	"te": true,
	"kn": true,
}

// Detect guesses the language of text from its dominant script. The
// knowledge base languages all use distinct scripts, so rune ranges are
// enough; mixed or Latin-only text comes back as English.
func Detect(text string) string {
	counts := map[string]int{}
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Devanagari, r):
			counts["hi"]++
		case unicode.Is(unicode.Telugu, r):
			counts["te"]++
		case unicode.Is(unicode.Kannada, r):
			counts["kn"]++
		}
	}

	best, bestCount := "en", 0
	for code, n := range counts {
		if n > bestCount {
			best, bestCount = code, n
		}
	}
	return best
}

// Resolve turns the caller's language hint into the target code: "auto"
// triggers detection, anything unsupported clamps to English.
func Resolve(text, hint string) string {
	code := hint
	if hint == "" || hint == "auto" {
		code = Detect(text)
	}
	if !supported[code] {
		return "en"
	}
	return code
}
