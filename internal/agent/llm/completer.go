// Package llm adapts completion services to one synchronous call:
// role-tagged messages in, assistant text out.
package llm

import (
	"context"
	"fmt"

	"github.com/feichai0017/project-assistant/config"
	"github.com/feichai0017/project-assistant/pkg/logger"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// New returns the completer for the configured provider.
func New(ctx context.Context, cfg config.LLMConfig, log logger.Logger) (Completer, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAICompatible(cfg, log), nil
	case "gemini":
		return NewGemini(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}
