package claude

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/spigell/care-matcher/internal/ai"
)

const (
	provider          = "claude"
	defaultModel      = "claude-3-5-sonnet-20241022"
	defaultMaxRetries = 2
	keyPrefix         = "sk-ant-"

	systemPrompt = "Eres un experto en cuidado geriátrico que evalúa la compatibilidad entre cuidadores y adultos mayores. Respondes únicamente con un objeto JSON válido."
)

type newMessageFunc func(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)

// Generator implements ai.Completer with the Anthropic Messages API.
type Generator struct {
	newMessage newMessageFunc
	model      string
	logger     *zap.Logger
}

// NewGenerator creates a Generator. Keys that are empty or do not look like Anthropic
// keys are reported as ai.ErrProviderUnavailable.
func NewGenerator(apiKey, model string, maxRetries int, logger *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: anthropic api key is required", ai.ErrProviderUnavailable)
	}
	if !strings.HasPrefix(apiKey, keyPrefix) {
		return nil, fmt.Errorf("%w: anthropic api key must start with %q", ai.ErrProviderUnavailable, keyPrefix)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(maxRetries),
	)

	return &Generator{
		newMessage: client.Messages.New,
		model:      model,
		logger:     logger,
	}, nil
}

// Complete sends the prompt as a single user message and joins the text blocks of the answer.
func (g *Generator) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if g == nil || g.newMessage == nil {
		return "", errors.New("claude generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}
	if maxTokens <= 0 {
		return "", errors.New("max tokens must be positive")
	}

	message, err := g.newMessage(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: int64(maxTokens),
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("create message: status %d: %w", apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("create message: %w", err)
	}

	texts := make([]string, 0, len(message.Content))
	for _, block := range message.Content {
		if block.Type != "text" {
			continue
		}
		if text := strings.TrimSpace(block.Text); text != "" {
			texts = append(texts, text)
		}
	}

	if len(texts) == 0 {
		return "", errors.New("claude api returned empty response")
	}

	if message.StopReason == anthropic.StopReasonMaxTokens {
		g.logger.Warn("claude response was cut by the token budget", zap.Int("max_tokens", maxTokens))
	}

	return strings.Join(texts, "\n"), nil
}

func (g *Generator) Provider() string {
	return provider
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}
