package answer

import "strings"

// RefusalReply is returned for questions outside the healthcare domain when
// the gate is enabled.
const RefusalReply = "Sorry, I can only answer questions related to healthcare, diseases, first aid, pollution, or safety."

var healthKeywords = []string{
	"disease", "fever", "infection", "virus", "bacteria", "medicine", "treatment",
	"symptom", "injury", "pain", "poison", "gas leak", "toxic", "prevention",
	"vaccine", "malaria", "diabetes", "hospital", "doctor", "nurse", "health",
	"first aid", "phc", "clinic", "epidemic", "nuclear fallout", "contamination",
	"pollution", "gas tragedy", "mask", "radiation", "emergency", "therapy",
	"wound", "fracture", "sanitation", "hygiene", "cholera", "typhoid", "asthma",
}

// isHealthRelated checks the raw question for domain keywords.
func isHealthRelated(text string) bool {
	low := strings.ToLower(text)
	for _, kw := range healthKeywords {
		if strings.Contains(low, kw) {
			return true
		}
	}
	return false
}
