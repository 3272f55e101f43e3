package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// OllamaClient talks to a local model server exposing /api/generate.
// That endpoint takes a single prompt, so the system prompt is prepended.
type OllamaClient struct {
	baseURL string
	model   string
	client  *http.Client
	log     *log.Logger
}

func NewOllamaClient(baseURL, model string, timeout time.Duration, logger *log.Logger) *OllamaClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "mistral"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &OllamaClient{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
		log:     logger.WithPrefix("ollama"),
	}
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

func (c *OllamaClient) GetReply(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	prompt := userPrompt
	if systemPrompt != "" {
		prompt = systemPrompt + "\n\n" + userPrompt
	}

	var out ollamaGenerateResponse
	if err := c.send(ctx, "/api/generate", ollamaGenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	}, &out); err != nil {
		c.log.Warn("generate failed", "model", c.model, "err", err)
		return "", err
	}

	raw := strings.TrimSpace(out.Response)
	if raw == "" {
		return "", errors.New("ollama: empty response")
	}
	c.log.Debug("raw response", "model", c.model, "content", raw)

	return raw, nil
}

func (c *OllamaClient) send(ctx context.Context, path string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+path,
		bytes.NewReader(b),
	)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.New(
			"ollama api error: " +
				resp.Status +
				" body=" + string(respBody),
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ollama: decode response: %w", err)
	}

	return nil
}
