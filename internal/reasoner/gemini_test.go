package reasoner

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/prospectml/leadscout/internal/config"
	"github.com/prospectml/leadscout/internal/model"
	"github.com/prospectml/leadscout/internal/resilience"
)

func geminiConfig() config.ReasonerConfig {
	return config.ReasonerConfig{
		Provider: "gemini",
		Gemini: config.GeminiConfig{
			Model: "gemini-2.0-flash",
		},
	}
}

func TestGemini_MissingKeyReportsConfiguration(t *testing.T) {
	g, err := NewGemini(context.Background(), geminiConfig(), fastRetry(1))
	require.NoError(t, err)

	_, err = g.Qualify(context.Background(), "[1] snippet", "role")
	require.Error(t, err)

	var cerr *model.ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "reasoner.gemini.key", cerr.Credential)
}

func TestGemini_CloseWithoutClient(t *testing.T) {
	g, err := NewGemini(context.Background(), geminiConfig(), fastRetry(1))
	require.NoError(t, err)
	assert.NoError(t, g.Close())
}

func TestClassifyGeminiError(t *testing.T) {
	t.Run("rate limit is transient", func(t *testing.T) {
		err := classifyGeminiError(&googleapi.Error{Code: 429, Message: "quota exceeded"})
		assert.True(t, resilience.IsTransient(err))
	})

	t.Run("server error is transient", func(t *testing.T) {
		err := classifyGeminiError(&googleapi.Error{Code: 503, Message: "unavailable"})
		assert.True(t, resilience.IsTransient(err))
	})

	t.Run("client error fails fast", func(t *testing.T) {
		err := classifyGeminiError(&googleapi.Error{Code: 400, Message: "bad schema"})
		assert.False(t, resilience.IsTransient(err))

		var herr *resilience.HTTPError
		require.ErrorAs(t, err, &herr)
		assert.Equal(t, 400, herr.StatusCode)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		orig := eris.New("connection reset by peer")
		assert.Equal(t, orig, classifyGeminiError(orig))
	})
}

func TestResponseText(t *testing.T) {
	assert.Equal(t, "", responseText(nil))
	assert.Equal(t, "", responseText(&genai.GenerateContentResponse{}))
	assert.Equal(t, "", responseText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: nil}},
	}))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []genai.Part{genai.Text("[{"), genai.Text("}]")},
			},
		}},
	}
	assert.Equal(t, "[{}]", responseText(resp))
}

func TestLeadSchema_RequiredFields(t *testing.T) {
	require.NotNil(t, leadSchema.Items)
	assert.ElementsMatch(t,
		[]string{"companyName", "website", "qualificationSummary", "industry"},
		leadSchema.Items.Required,
	)
	assert.Contains(t, leadSchema.Items.Properties, "painPoint")
	assert.Contains(t, leadSchema.Items.Properties, "contactName")
	assert.Contains(t, leadSchema.Items.Properties, "location")
}
