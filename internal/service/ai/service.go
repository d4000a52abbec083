package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

const maxAnswerWords = 150

// Service generates grounded answers through a compiled prompt+model chain.
type Service struct {
	chatModel model.ChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the answering chain around the given chat model.
func NewService(ctx context.Context, chatModel model.ChatModel) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile answer chain: %w", err)
	}

	return &Service{chatModel: chatModel, chain: runnable}, nil
}

// GenerateAnswer runs one question through the chain and tidies the output.
// The question must already be in English; contextChunks may be empty.
func (s *Service) GenerateAnswer(ctx context.Context, question string, contextChunks []string) (string, error) {
	input := map[string]any{
		"system": BuildSystemPrompt(contextChunks),
		"query":  BuildUserPrompt(question),
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("run answer chain: %w", err)
	}

	answer := TidyAnswer(response.Content)
	log.Printf("[ai] generated answer, length=%d", len(answer))
	return answer, nil
}

// TidyAnswer normalizes model output for display: flattens paragraph breaks,
// caps the length at 150 words and guarantees terminal punctuation.
func TidyAnswer(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}

	text = strings.ReplaceAll(text, "\n\n", " ")
	text = strings.ReplaceAll(text, "  ", " ")

	words := strings.Fields(text)
	if len(words) > maxAnswerWords {
		text = strings.Join(words[:maxAnswerWords], " ") + "..."
	}

	if !strings.HasSuffix(text, ".") && !strings.HasSuffix(text, "!") && !strings.HasSuffix(text, "?") {
		text += "."
	}
	return text
}
