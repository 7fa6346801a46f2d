package responder

import (
	"context"
	"errors"

	"github.com/aretw0/concierge/pkg/ports"
	openai "github.com/sashabaranov/go-openai"
)

// Completion answers free text with the Chat Completions API directly.
type Completion struct {
	client *openai.Client
	model  string
	cfg    config
}

var _ ports.Responder = (*Completion)(nil)

// NewCompletion uses client with the given model name. An empty model falls
// back to gpt-4o-mini.
func NewCompletion(client *openai.Client, modelName string, opts ...Option) *Completion {
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}
	return &Completion{client: client, model: modelName, cfg: newConfig(opts)}
}

// NewCompletionClient builds the client from a key and an optional base URL.
func NewCompletionClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

func (c *Completion) Respond(ctx context.Context, req ports.ResponderRequest) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.cfg.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.cfg.system},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(req, c.cfg.prompts)},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("responder: no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Static always answers with the same text. It keeps the engine usable
// without a model, e.g. in the terminal chat with no API key.
type Static string

func (s Static) Respond(context.Context, ports.ResponderRequest) (string, error) {
	return string(s), nil
}
