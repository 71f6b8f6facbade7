// Package openai wraps the OpenAI chat completions API for single-turn JSON
// replies.
package openai

import (
	"context"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// DefaultModel is used when a request leaves Model empty.
const DefaultModel = "gpt-5.2-2025-12-11"

// Client defines the OpenAI operations used by the categorizer.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest is a system prompt plus one user message.
type CompletionRequest struct {
	Model     string
	System    string
	User      string
	MaxTokens int
	// JSON asks the model for a JSON object reply.
	JSON bool
}

// CompletionResponse is the first choice of a completion.
type CompletionResponse struct {
	ID           string
	Model        string
	Text         string
	FinishReason string
	InputTokens  int
	OutputTokens int
}

// Option configures the client.
type Option func(*goopenai.ClientConfig)

// WithBaseURL points the client at another API host or a compatible server.
func WithBaseURL(url string) Option {
	return func(c *goopenai.ClientConfig) {
		if url != "" {
			c.BaseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *goopenai.ClientConfig) {
		c.HTTPClient = hc
	}
}

type chatClient struct {
	client *goopenai.Client
}

// NewClient creates an OpenAI client.
func NewClient(apiKey string, opts ...Option) Client {
	cfg := goopenai.DefaultConfig(apiKey)
	for _, o := range opts {
		o(&cfg)
	}
	return &chatClient{client: goopenai.NewClientWithConfig(cfg)}
}

func (c *chatClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = DefaultModel
	}

	chatReq := goopenai.ChatCompletionRequest{
		Model: model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: req.System},
			{Role: goopenai.ChatMessageRoleUser, Content: req.User},
		},
		MaxCompletionTokens: req.MaxTokens,
	}
	if req.JSON {
		chatReq.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, eris.Wrap(err, "openai: create chat completion")
	}
	if len(resp.Choices) == 0 {
		return nil, eris.New("openai: response has no choices")
	}

	out := &CompletionResponse{
		ID:           resp.ID,
		Model:        resp.Model,
		Text:         resp.Choices[0].Message.Content,
		FinishReason: string(resp.Choices[0].FinishReason),
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}
	zap.L().Info("llm usage",
		zap.String("provider", "openai"),
		zap.String("model", out.Model),
		zap.Int("input_tokens", out.InputTokens),
		zap.Int("output_tokens", out.OutputTokens),
	)
	return out, nil
}
