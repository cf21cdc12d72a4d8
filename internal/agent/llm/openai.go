package llm

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

	"github.com/feichai0017/project-assistant/config"
	"github.com/feichai0017/project-assistant/pkg/logger"
)

// OpenAICompatible talks to any /chat/completions endpoint.
type OpenAICompatible struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     logger.Logger
}

func NewOpenAICompatible(cfg config.LLMConfig, log logger.Logger) *OpenAICompatible {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &OpenAICompatible{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		logger:     log,
	}
}

func (c *OpenAICompatible) Complete(ctx context.Context, messages []Message) (string, error) {
	bodyBytes, err := json.Marshal(map[string]interface{}{
		"model":    c.model,
		"messages": messages,
		"stream":   false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal llm request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("build llm request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read llm response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("llm response status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse llm json failed: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("empty llm choices")
	}

	c.logger.Debug("Completion received",
		logger.String("model", c.model),
		logger.Duration("elapsed", time.Since(start)),
	)
	return parsed.Choices[0].Message.Content, nil
}
