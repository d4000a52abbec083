package ai

import "strings"

const (
	fallbackAdvice  = "If symptoms are severe (e.g., difficulty breathing, very high fever), please go to the nearest PHC immediately."
	fallbackNoMatch = "Sorry, I couldn't find a specific answer in the knowledge base."
)

// FallbackAnswer builds an answer directly from the retrieved context when no
// model is configured or generation failed. It summarizes the first sentences
// of the context and appends referral advice; with no context it apologizes.
func FallbackAnswer(contextChunks []string) string {
	joined := strings.TrimSpace(strings.Join(contextChunks, " "))
	if joined == "" {
		return fallbackNoMatch
	}

	sentences := strings.Split(joined, ".")
	kept := make([]string, 0, 3)
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		kept = append(kept, s)
		if len(kept) == 3 {
			break
		}
	}
	if len(kept) == 0 {
		return fallbackNoMatch
	}

	return strings.Join(kept, ". ") + ". " + fallbackAdvice
}
