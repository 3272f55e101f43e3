package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyChoices is returned when the service answers without any choice.
var ErrEmptyChoices = errors.New("ai: empty choices")

type OpenAIClient struct {
	client *openai.Client
	model  string
	log    *log.Logger
}

// NewOpenAIClient talks to any OpenAI-compatible endpoint: requests go to
// {baseURL}/chat/completions with a bearer key.
func NewOpenAIClient(apiKey, baseURL, model string, logger *log.Logger) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL != "" {
		cfg.BaseURL = baseURL
	}

	if model == "" {
		model = "gpt-4.1-mini"
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		log:    logger.WithPrefix("ai"),
	}
}

func (c *OpenAIClient) GetReply(
	ctx context.Context,
	systemPrompt string,
	userPrompt string,
) (string, error) {

	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		c.log.Warn("completion failed", "model", c.model, "err", err)
		return "", err
	}

	if len(resp.Choices) == 0 {
		c.log.Warn("empty choices", "model", c.model)
		return "", ErrEmptyChoices
	}

	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.log.Debug("raw response", "model", c.model, "content", raw)

	return raw, nil
}
