package ai

import (
	"fmt"
	"strings"
)

const systemInstructions = "You are a medical and public health assistant chatbot. " +
	"Only answer healthcare, disease, treatment, hygiene, radiation safety, or emergency related questions. " +
	"If the question is unrelated, respond with: 'I can only answer healthcare-related questions.' " +
	"Your answer must be accurate, in simple language, and between 100-150 words maximum."

// BuildSystemPrompt renders the assistant instructions together with the
// retrieved context chunks.
func BuildSystemPrompt(contextChunks []string) string {
	var b strings.Builder
	b.WriteString(systemInstructions)
	b.WriteString("\n\nContext: ")
	if len(contextChunks) > 0 {
		b.WriteString(strings.Join(contextChunks, "\n"))
	} else {
		b.WriteString("No relevant documents found.")
	}
	return b.String()
}

// BuildUserPrompt renders the question with the answering guidance.
func BuildUserPrompt(question string) string {
	return fmt.Sprintf("Question: %s\nAnswer clearly for a rural audience. If emergency, say 'If severe symptoms, go to nearest PHC immediately.'", question)
}
