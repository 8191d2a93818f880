package nlp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/kaptinlin/jsonrepair"
	"github.com/sashabaranov/go-openai"
	"github.com/soundprediction/sympto/pkg/types"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// OpenAIClient implements Client against any OpenAI-compatible chat API.
// Pointing BaseURL at http://localhost:11434/v1 serves a local Ollama.
type OpenAIClient struct {
	client *openai.Client
	config *Config
}

// NewOpenAIClient creates a new OpenAI-compatible client.
func NewOpenAIClient(config *Config) *OpenAIClient {
	if config == nil {
		config = &Config{}
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}

	apiConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		apiConfig.BaseURL = config.BaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(apiConfig),
		config: config,
	}
}

// Chat implements Client.
func (c *OpenAIClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	req := openai.ChatCompletionRequest{
		Model:    c.config.Model,
		Messages: convertMessages(messages),
		Stop:     c.config.Stop,
	}
	if c.config.Temperature != nil {
		req.Temperature = *c.config.Temperature
	}
	if c.config.MaxTokens != nil {
		req.MaxTokens = *c.config.MaxTokens
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned from API")
	}

	return &types.Response{
		Content:          resp.Choices[0].Message.Content,
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// ChatJSON implements Client. The model output is stripped of code fences
// and think tags, then repaired into valid JSON when necessary.
func (c *OpenAIClient) ChatJSON(ctx context.Context, messages []types.Message) (string, error) {
	resp, err := c.Chat(ctx, messages)
	if err != nil {
		return "", err
	}
	return RepairJSON(resp.Content)
}

// Close implements Client.
func (c *OpenAIClient) Close() error {
	return nil
}

func convertMessages(messages []types.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		var role string
		switch m.Role {
		case RoleSystem:
			role = openai.ChatMessageRoleSystem
		case RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		default:
			role = openai.ChatMessageRoleUser
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}

// RepairJSON extracts and repairs a JSON document from raw model output.
func RepairJSON(content string) (string, error) {
	cleaned := stripNoise(content)

	if json.Valid([]byte(cleaned)) {
		return cleaned, nil
	}

	repaired, err := jsonrepair.JSONRepair(cleaned)
	if err != nil {
		return "", fmt.Errorf("failed to repair model JSON: %w", err)
	}
	return repaired, nil
}

// stripNoise removes markdown code fences and think tags around a JSON body.
func stripNoise(s string) string {
	s = strings.TrimSpace(s)

	if idx := strings.Index(s, "</think>"); idx >= 0 {
		s = s[idx+len("</think>"):]
	}

	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	// Trim prose before the first brace or bracket
	if start := strings.IndexAny(s, "{["); start > 0 {
		s = s[start:]
	}
	return s
}
