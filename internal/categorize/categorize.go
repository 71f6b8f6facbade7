// Package categorize asks a language model to sort keyword ideas into
// marketing buckets and recovers a record from whatever it replies.
package categorize

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/keyword-cli/internal/metrics"
	"github.com/sells-group/keyword-cli/internal/repair"
	"github.com/sells-group/keyword-cli/pkg/anthropic"
	"github.com/sells-group/keyword-cli/pkg/openai"
)

// DefaultMaxTokens bounds the model reply.
const DefaultMaxTokens = 4096

// Completer sends one system + user exchange and returns the reply text.
type Completer interface {
	// Name is the provider's display name, e.g. "Anthropic".
	Name() string
	Complete(ctx context.Context, system, user string) (string, error)
}

// Categorizer turns blog text and keyword CSV into a Record.
type Categorizer struct {
	completer Completer
}

// New returns a Categorizer backed by c.
func New(c Completer) *Categorizer {
	return &Categorizer{completer: c}
}

// Categorize never fails: missing input, provider errors and unparseable
// replies all come back as error records.
func (c *Categorizer) Categorize(ctx context.Context, blog, csv string) repair.Record {
	log := zap.L().With(zap.String("component", "categorize"), zap.String("provider", c.completer.Name()))

	if strings.TrimSpace(blog) == "" || strings.TrimSpace(csv) == "" {
		log.Warn("categorization skipped: missing input")
		return repair.ErrorRecord(MissingInputMessage)
	}

	reply, err := c.completer.Complete(ctx, DeveloperPrompt, UserMessage(blog, csv))
	metrics.RemoteCalls.WithLabelValues(strings.ToLower(c.completer.Name()), "categorize", metrics.Result(err)).Inc()
	if err != nil {
		log.Error("categorization call failed", zap.Error(err))
		return repair.ErrorRecord(fmt.Sprintf("Error calling %s API: %v", c.completer.Name(), err))
	}

	rec, strategy := repair.Attempt(reply)
	metrics.RepairOutcomes.WithLabelValues(strategy).Inc()
	if strategy != repair.StrategyDirect {
		log.Warn("model reply needed repair", zap.String("strategy", strategy))
	}
	return rec
}

// Anthropic adapts the Anthropic client to Completer.
type Anthropic struct {
	Client    anthropic.Client
	Model     string
	MaxTokens int64
}

// Name implements Completer.
func (a Anthropic) Name() string { return "Anthropic" }

// Complete implements Completer.
func (a Anthropic) Complete(ctx context.Context, system, user string) (string, error) {
	maxTokens := a.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	model := a.Model
	if model == "" {
		model = anthropic.DefaultModel
	}
	resp, err := a.Client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  []anthropic.Message{{Role: "user", Content: user}},
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogCost(model, "categorize")
	return resp.Text(), nil
}

// OpenAI adapts the OpenAI client to Completer.
type OpenAI struct {
	Client    openai.Client
	Model     string
	MaxTokens int
}

// Name implements Completer.
func (o OpenAI) Name() string { return "OpenAI" }

// Complete implements Completer. Replies are requested in JSON mode.
func (o OpenAI) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := o.Client.Complete(ctx, openai.CompletionRequest{
		Model:     o.Model,
		System:    system,
		User:      user,
		MaxTokens: o.MaxTokens,
		JSON:      true,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
