package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/feichai0017/project-assistant/config"
	"github.com/feichai0017/project-assistant/pkg/logger"
)

type Gemini struct {
	client *genai.Client
	model  string
	logger logger.Logger
}

func NewGemini(ctx context.Context, cfg config.LLMConfig, log logger.Logger) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("init gemini client failed: %w", err)
	}
	return &Gemini{client: client, model: cfg.Model, logger: log}, nil
}

func (g *Gemini) Complete(ctx context.Context, messages []Message) (string, error) {
	contents, genCfg := buildContents(messages)
	if len(contents) == 0 {
		return "", errors.New("no user content to complete")
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("empty gemini response")
	}
	return text, nil
}

// buildContents moves system messages into the system instruction and maps
// assistant turns to the model role.
func buildContents(messages []Message) ([]*genai.Content, *genai.GenerateContentConfig) {
	var contents []*genai.Content
	var system []*genai.Part

	for _, m := range messages {
		if m.Content == "" {
			continue
		}
		switch m.Role {
		case RoleSystem:
			system = append(system, &genai.Part{Text: m.Content})
		case RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  string(genai.RoleModel),
				Parts: []*genai.Part{{Text: m.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  string(genai.RoleUser),
				Parts: []*genai.Part{{Text: m.Content}},
			})
		}
	}

	cfg := &genai.GenerateContentConfig{}
	if len(system) > 0 {
		cfg.SystemInstruction = &genai.Content{Parts: system}
	}
	return contents, cfg
}
