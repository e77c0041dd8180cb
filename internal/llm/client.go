// Package llm provides the opaque text-completion capability consumed by
// the ingestion, job-analysis and generation stages. Provider identity and
// model selection are configuration concerns; nothing outside this package
// may assume completion output is schema-valid.
package llm

import (
	"context"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/jonathan/cv-tailor/internal/agent"
)

// DefaultTimeout bounds a single completion call. Exceeding it is a
// transient error eligible for the orchestrator's retry policy.
const DefaultTimeout = 90 * time.Second

// Completer is the text-completion collaborator interface. A non-empty
// schemaHint asks the provider for JSON output matching the hinted shape.
type Completer interface {
	Complete(ctx context.Context, prompt, schemaHint string) (string, error)
}

// GeminiClient implements Completer on top of Google Gemini.
type GeminiClient struct {
	client  *genai.Client
	config  *Config
	timeout time.Duration
}

// NewGeminiClient creates a Gemini-backed completer.
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, agent.Errorf(agent.KindProvider, "API key is required")
	}
	if config == nil {
		config = DefaultConfig()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, agent.Errorf(agent.KindProvider, "failed to create Gemini client: %v", err)
	}

	return &GeminiClient{client: client, config: config, timeout: DefaultTimeout}, nil
}

// Complete generates text for the prompt. When schemaHint is non-empty the
// model is put in JSON mode and the hint is appended to the prompt.
func (c *GeminiClient) Complete(ctx context.Context, prompt, schemaHint string) (string, error) {
	model := c.client.GenerativeModel(c.config.Model)
	model.SetTemperature(c.config.Temperature)

	if schemaHint != "" {
		model.ResponseMIMEType = "application/json"
		prompt = prompt + "\n\nReturn ONLY valid JSON matching this structure:\n" + schemaHint
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := model.GenerateContent(callCtx, genai.Text(prompt))
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return "", agent.Errorf(agent.KindNetwork, "completion timed out after %s", c.timeout)
		}
		return "", agent.Errorf(agent.KindProvider, "completion failed: %v", err)
	}

	text, err := extractText(resp)
	if err != nil {
		return "", err
	}
	if schemaHint != "" {
		return CleanJSONBlock(text), nil
	}
	return text, nil
}

// Close releases the underlying provider connection.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", agent.Errorf(agent.KindProvider, "no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", agent.Errorf(agent.KindProvider, "no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", agent.Errorf(agent.KindProvider, "no text parts in response")
	}
	return strings.Join(parts, ""), nil
}
