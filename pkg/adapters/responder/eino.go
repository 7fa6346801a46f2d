package responder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/concierge/pkg/ports"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ChatModel answers free text through an eino chat model.
type ChatModel struct {
	model model.BaseChatModel
	cfg   config
}

var _ ports.Responder = (*ChatModel)(nil)

// NewChatModel wraps any eino chat model.
func NewChatModel(m model.BaseChatModel, opts ...Option) *ChatModel {
	return &ChatModel{model: m, cfg: newConfig(opts)}
}

// OpenAIConfig selects an OpenAI compatible endpoint.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// NewOpenAI builds a ChatModel backed by an OpenAI compatible endpoint.
func NewOpenAI(ctx context.Context, oc OpenAIConfig, opts ...Option) (*ChatModel, error) {
	if oc.APIKey == "" {
		return nil, errors.New("responder: api key is required")
	}
	cfg := newConfig(opts)
	temperature := cfg.temperature
	m, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      oc.APIKey,
		Model:       oc.Model,
		BaseURL:     oc.BaseURL,
		Timeout:     oc.Timeout,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("init chat model: %w", err)
	}
	return &ChatModel{model: m, cfg: cfg}, nil
}

// Respond sends the persona as system message and the enriched utterance as
// user message.
func (c *ChatModel) Respond(ctx context.Context, req ports.ResponderRequest) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(c.cfg.system),
		schema.UserMessage(BuildPrompt(req, c.cfg.prompts)),
	}
	resp, err := c.model.Generate(ctx, messages, model.WithTemperature(c.cfg.temperature))
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", nil
	}
	return resp.Content, nil
}
