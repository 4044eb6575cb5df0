package reasoner

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/prospectml/leadscout/internal/config"
	"github.com/prospectml/leadscout/internal/model"
	"github.com/prospectml/leadscout/internal/resilience"
)

// leadSchema constrains Gemini's output to an array of lead records, so the
// response is JSON by construction rather than by prompt discipline alone.
var leadSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"companyName":          {Type: genai.TypeString},
			"website":              {Type: genai.TypeString},
			"qualificationSummary": {Type: genai.TypeString},
			"industry":             {Type: genai.TypeString},
			"painPoint":            {Type: genai.TypeString},
			"contactName":          {Type: genai.TypeString},
			"location":             {Type: genai.TypeString},
		},
		Required: []string{"companyName", "website", "qualificationSummary", "industry"},
	},
}

// Gemini qualifies leads through the Gemini API with structured output.
type Gemini struct {
	client  *genai.Client
	cfg     config.ReasonerConfig
	retry   resilience.RetryConfig
	timeout time.Duration
}

// NewGemini creates the Gemini provider. With no API key configured the
// provider still constructs; Qualify then reports the missing credential.
func NewGemini(ctx context.Context, cfg config.ReasonerConfig, retry resilience.RetryConfig) (*Gemini, error) {
	g := &Gemini{cfg: cfg, retry: retry, timeout: timeoutFrom(cfg)}
	if cfg.Gemini.Key == "" {
		return g, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Gemini.Key))
	if err != nil {
		return nil, eris.Wrap(err, "reasoner: create gemini client")
	}
	g.client = client
	return g, nil
}

// Qualify sends the snippets with the role instruction and parses the JSON
// array response into leads.
func (g *Gemini) Qualify(ctx context.Context, snippets, role string) ([]model.QualifiedLead, error) {
	if g.client == nil {
		return nil, model.NewConfigurationError("reasoner.gemini.key")
	}

	// The system instruction varies per request, so the model value is
	// assembled per call; the underlying client is shared.
	m := g.client.GenerativeModel(g.cfg.Gemini.Model)
	m.ResponseMIMEType = "application/json"
	m.ResponseSchema = leadSchema
	m.SetTemperature(0.2)
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(role + "\n\n" + qualificationInstructions)},
	}

	retryCfg := g.retry
	retryCfg.OnRetry = resilience.RetryLogger("gemini", "qualify")

	text, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		resp, genErr := m.GenerateContent(callCtx, genai.Text(snippets))
		if genErr != nil {
			return "", classifyGeminiError(genErr)
		}
		logGeminiUsage(resp)
		return responseText(resp), nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "reasoner: gemini qualification")
	}

	leads := ParseLeads(text)
	zap.L().Info("reasoner: qualification complete",
		zap.String("provider", "gemini"),
		zap.String("model", g.cfg.Gemini.Model),
		zap.Int("leads", len(leads)),
	)
	return leads, nil
}

// Close releases the underlying client connection.
func (g *Gemini) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// classifyGeminiError maps Google API status codes onto the shared transport
// error types so the retry policy treats them like any other HTTP backend.
func classifyGeminiError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return resilience.HTTPStatusError(gerr.Code, gerr.Message)
	}
	return err
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}

func logGeminiUsage(resp *genai.GenerateContentResponse) {
	if resp == nil || resp.UsageMetadata == nil {
		return
	}
	zap.L().Debug("reasoner: gemini usage",
		zap.Int32("prompt_tokens", resp.UsageMetadata.PromptTokenCount),
		zap.Int32("output_tokens", resp.UsageMetadata.CandidatesTokenCount),
		zap.Int32("total_tokens", resp.UsageMetadata.TotalTokenCount),
	)
}
