package analysis

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/AIwolfie/waybackwolf/internal/config"
)

// maxCompletionTokens bounds the length of a model's summary.
const maxCompletionTokens = 500

// Backend endpoint defaults, overridable from the credentials file.
const (
	defaultChatGPTModel = "gpt-3.5-turbo"

	defaultGrokBaseURL = "https://api.x.ai/v1"
	defaultGrokModel   = "grok-2-latest"

	defaultDeepSeekBaseURL = "https://api.deepseek.com/v1"
	defaultDeepSeekModel   = "deepseek-chat"
)

// ErrUnknownBackend reports a backend name with no provider.
var ErrUnknownBackend = errors.New("unknown analysis backend")

// Provider submits a prompt to one AI backend and returns the raw
// model response.
type Provider interface {
	// Name identifies the backend in logs and verdicts.
	Name() string

	// Analyze submits the prompt and returns the model's reply.
	Analyze(ctx context.Context, prompt string) (string, error)
}

// openAIProvider talks to any OpenAI-compatible chat endpoint.
type openAIProvider struct {
	name   string
	model  string
	client *openai.Client
}

// NewProvider builds the Provider for a named backend from its
// credentials. Base URL and model fall back to the backend's published
// endpoint when the credentials file leaves them empty.
func NewProvider(backend string, creds config.ProviderCredentials) (Provider, error) {
	if creds.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for backend %s", backend)
	}

	cfg := openai.DefaultConfig(creds.APIKey)
	model := creds.Model

	switch backend {
	case config.BackendChatGPT:
		if model == "" {
			model = defaultChatGPTModel
		}
	case config.BackendGrok:
		cfg.BaseURL = defaultGrokBaseURL
		if model == "" {
			model = defaultGrokModel
		}
	case config.BackendDeepSeek:
		cfg.BaseURL = defaultDeepSeekBaseURL
		if model == "" {
			model = defaultDeepSeekModel
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, backend)
	}

	if creds.BaseURL != "" {
		cfg.BaseURL = creds.BaseURL
	}

	return &openAIProvider{
		name:   backend,
		model:  model,
		client: openai.NewClientWithConfig(cfg),
	}, nil
}

// Name implements the Provider interface.
func (p *openAIProvider) Name() string {
	return p.name
}

// Analyze implements the Provider interface.
func (p *openAIProvider) Analyze(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     p.model,
		MaxTokens: maxCompletionTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion via %s failed: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion via %s returned no choices", p.name)
	}
	return resp.Choices[0].Message.Content, nil
}
