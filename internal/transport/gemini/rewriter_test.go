package gemini

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/assessrec/internal/domain"
)

type fakeModels struct {
	resp *genai.GenerateContentResponse
	err  error

	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	f.config = config
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: "model"}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func TestRewriter_Rewrite(t *testing.T) {
	models := &fakeModels{resp: textResponse(" Java ", "", "stakeholder communication")}
	r := newRewriter(models, &Config{Logger: zap.NewNop()})

	out, err := r.Rewrite(context.Background(), "Hiring a Java developer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Java\nstakeholder communication" {
		t.Errorf("unexpected output %q", out)
	}
	if models.model != DefaultModel {
		t.Errorf("expected default model, got %q", models.model)
	}
	if models.config.MaxOutputTokens != defaultMaxTokens {
		t.Errorf("expected %d max tokens, got %d", defaultMaxTokens, models.config.MaxOutputTokens)
	}
	if models.config.Temperature == nil || *models.config.Temperature != defaultTemperature {
		t.Errorf("unexpected temperature %v", models.config.Temperature)
	}
	sys := models.config.SystemInstruction
	if sys == nil || len(sys.Parts) != 1 || sys.Parts[0].Text != domain.RewriterInstruction {
		t.Errorf("unexpected system instruction %+v", sys)
	}
	if len(models.contents) != 1 || models.contents[0].Parts[0].Text != "Hiring a Java developer" {
		t.Errorf("unexpected contents %+v", models.contents)
	}
}

func TestRewriter_Errors(t *testing.T) {
	tests := []struct {
		name   string
		models *fakeModels
		prompt string
	}{
		{"empty prompt", &fakeModels{resp: textResponse("x")}, "  "},
		{"api error", &fakeModels{err: genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED"}}, "q"},
		{"transport error", &fakeModels{err: errors.New("connection reset")}, "q"},
		{"empty response", &fakeModels{resp: textResponse("   ")}, "q"},
		{"no candidates", &fakeModels{resp: &genai.GenerateContentResponse{}}, "q"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRewriter(tt.models, &Config{Model: "gemini-pro", Logger: zap.NewNop()})
			_, err := r.Rewrite(context.Background(), tt.prompt)
			if !errors.Is(err, domain.ErrEnhancement) {
				t.Fatalf("expected ErrEnhancement, got %v", err)
			}
		})
	}
}

func TestNewRewriter_RequiresKey(t *testing.T) {
	_, err := NewRewriter(context.Background(), &Config{APIKey: " ", Logger: zap.NewNop()})
	if !errors.Is(err, domain.ErrProviderNotConfigured) {
		t.Fatalf("expected ErrProviderNotConfigured, got %v", err)
	}
}
