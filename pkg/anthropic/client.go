// Package anthropic adapts the official SDK to the one call the
// qualification provider makes: a single grounded prompt in, one text
// answer out. Static instructions can ride in cached system blocks.
package anthropic

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Client produces one completion per call.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// CompletionRequest describes a single-turn request. System blocks are sent
// in order ahead of the user prompt; a block with a CacheTTL is marked for
// prompt caching so repeated qualification calls reuse the static prefix.
type CompletionRequest struct {
	Model       string
	MaxTokens   int64
	Temperature float64
	System      []SystemBlock
	Prompt      string
}

// SystemBlock is one system-prompt segment. CacheTTL is empty (no caching),
// "5m", or "1h".
type SystemBlock struct {
	Text     string
	CacheTTL string
}

// Completion is the model's answer with the text blocks already joined.
type Completion struct {
	ID         string
	Model      string
	Text       string
	StopReason string
	Usage      Usage
}

// Usage counts the tokens a completion consumed.
type Usage struct {
	Input      int64
	Output     int64
	CacheWrite int64
	CacheRead  int64
}

// pricing is USD per million tokens.
type pricing struct {
	In  float64
	Out float64
}

var priceTable = map[string]pricing{
	"claude-haiku-4-5-20251001":  {In: 0.80, Out: 4.00},
	"claude-sonnet-4-5-20250929": {In: 3.00, Out: 15.00},
}

// Cost estimates the USD spend for this usage under the given model. Cache
// writes bill at 1.25x input rate, cache reads at 0.1x. Unknown models cost 0.
func (u Usage) Cost(model string) float64 {
	p, ok := priceTable[model]
	if !ok {
		return 0
	}
	perTok := func(n int64, rate float64) float64 { return float64(n) / 1e6 * rate }
	return perTok(u.Input, p.In) +
		perTok(u.Output, p.Out) +
		perTok(u.CacheWrite, p.In*1.25) +
		perTok(u.CacheRead, p.In*0.1)
}

// Log emits the usage and estimated cost for one completion.
func (u Usage) Log(model string) {
	zap.L().Info("anthropic usage",
		zap.String("model", model),
		zap.Int64("input", u.Input),
		zap.Int64("output", u.Output),
		zap.Int64("cache_write", u.CacheWrite),
		zap.Int64("cache_read", u.CacheRead),
		zap.Float64("cost_usd", u.Cost(model)),
	)
}

type client struct {
	api sdk.Client
}

// New builds a Client against the public API.
func New(apiKey string, opts ...option.RequestOption) Client {
	all := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &client{api: sdk.NewClient(all...)}
}

func (c *client) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	params := sdk.MessageNewParams{
		Model:       sdk.Model(req.Model),
		MaxTokens:   req.MaxTokens,
		Temperature: sdk.Float(req.Temperature),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt)),
		},
	}
	for _, b := range req.System {
		block := sdk.TextBlockParam{Text: b.Text}
		if b.CacheTTL != "" {
			block.CacheControl = sdk.NewCacheControlEphemeralParam()
			block.CacheControl.TTL = sdk.CacheControlEphemeralTTL(b.CacheTTL)
		}
		params.System = append(params.System, block)
	}

	msg, err := c.api.Messages.New(ctx, params)
	if err != nil {
		return nil, eris.Wrap(err, "anthropic: complete")
	}

	var texts []string
	for _, b := range msg.Content {
		if b.Type == "text" && b.Text != "" {
			texts = append(texts, b.Text)
		}
	}

	return &Completion{
		ID:         msg.ID,
		Model:      string(msg.Model),
		Text:       strings.Join(texts, "\n"),
		StopReason: string(msg.StopReason),
		Usage: Usage{
			Input:      msg.Usage.InputTokens,
			Output:     msg.Usage.OutputTokens,
			CacheWrite: msg.Usage.CacheCreationInputTokens,
			CacheRead:  msg.Usage.CacheReadInputTokens,
		},
	}, nil
}
