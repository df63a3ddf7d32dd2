package enhance

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiEnhancer implements Enhancer using the Gemini API
type GeminiEnhancer struct {
	apiKey string
	model  string
}

// NewGeminiEnhancer creates an enhancer backed by Gemini.
func NewGeminiEnhancer(apiKey string) *GeminiEnhancer {
	return &GeminiEnhancer{
		apiKey: apiKey,
		model:  "gemini-2.0-flash",
	}
}

func (e *GeminiEnhancer) Name() string {
	return "gemini"
}

// Enhance rewrites the description via Gemini content generation.
func (e *GeminiEnhancer) Enhance(ctx context.Context, description string) (string, error) {
	if strings.TrimSpace(description) == "" {
		return "", fmt.Errorf("empty description")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  e.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("gemini client creation failed: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, e.model,
		genai.Text(enhancerInstruction+"\n\n"+description), nil)
	if err != nil {
		return "", fmt.Errorf("gemini enhancement failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini returned empty response")
	}
	return text, nil
}

// ChainEnhancer tries enhancers in order and returns the first success.
type ChainEnhancer struct {
	enhancers []Enhancer
}

// NewChainEnhancer builds a fallback chain over the given enhancers.
func NewChainEnhancer(enhancers ...Enhancer) *ChainEnhancer {
	return &ChainEnhancer{enhancers: enhancers}
}

func (c *ChainEnhancer) Name() string {
	return "chain"
}

// Enhance walks the chain; the last error is returned when every enhancer
// fails.
func (c *ChainEnhancer) Enhance(ctx context.Context, description string) (string, error) {
	var lastErr error
	for _, e := range c.enhancers {
		enhanced, err := e.Enhance(ctx, description)
		if err == nil {
			return enhanced, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no enhancers configured")
	}
	return "", lastErr
}
