package enhance

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIEnhancer implements Enhancer using the OpenAI chat API
type OpenAIEnhancer struct {
	client *openai.Client
	model  string
}

// NewOpenAIEnhancer creates an enhancer backed by OpenAI.
func NewOpenAIEnhancer(apiKey string) *OpenAIEnhancer {
	return &OpenAIEnhancer{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4oMini,
	}
}

func (e *OpenAIEnhancer) Name() string {
	return "openai"
}

// Enhance rewrites the description via a chat completion.
func (e *OpenAIEnhancer) Enhance(ctx context.Context, description string) (string, error) {
	if strings.TrimSpace(description) == "" {
		return "", fmt.Errorf("empty description")
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: enhancerInstruction},
			{Role: openai.ChatMessageRoleUser, Content: description},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai enhancement failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
