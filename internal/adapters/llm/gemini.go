package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/PabloGalante/trackmate-insights/internal/domain"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/"
	DefaultModel   = "gemini-2.5-flash"
)

// Gateway implements domain.AdviceGateway on a genai client. The same type
// serves the Gemini API (API key) and Vertex AI (project credentials); only
// the client differs. It holds no per-request state.
type Gateway struct {
	client  *genai.Client
	model   string
	backend string
	policy  RetryPolicy
}

func newGateway(client *genai.Client, backend, model string, policy RetryPolicy) *Gateway {
	if model == "" {
		model = DefaultModel
	}
	if policy.isZero() {
		policy = DefaultRetryPolicy()
	}
	return &Gateway{client: client, model: model, backend: backend, policy: policy}
}

// RESTConfig configures the Gemini API backend.
type RESTConfig struct {
	BaseURL    string
	APIVersion string // empty means the SDK default, v1beta
	Model      string
	APIKey     string
	Policy     RetryPolicy
	HTTPClient *http.Client
}

// NewRESTGateway creates a gateway on the Gemini API
// ({BaseURL}/{APIVersion}/models/{Model}:generateContent). The key is sent
// in the x-goog-api-key header.
func NewRESTGateway(ctx context.Context, cfg RESTConfig) (*Gateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini gateway needs an API key")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend:    genai.BackendGeminiAPI,
		APIKey:     cfg.APIKey,
		HTTPClient: cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    cfg.BaseURL,
			APIVersion: cfg.APIVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini API client: %w", err)
	}
	return newGateway(client, "rest", cfg.Model, cfg.Policy), nil
}

// RequestAdvice implements domain.AdviceGateway.
func (g *Gateway) RequestAdvice(ctx context.Context, snap domain.ContextSnapshot) ([]domain.Suggestion, error) {
	user, err := userContent(snap)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{genai.NewContentFromText(user, genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    genaiSchema(),
	}

	return g.policy.run(ctx, g.backend, func(ctx context.Context) ([]domain.Suggestion, error) {
		res, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
		if err != nil {
			return nil, classifyGenAIError(err)
		}
		return ParseSuggestions(res.Text())
	})
}

// classifyGenAIError maps SDK failures onto the gateway error kinds. API
// errors carry the HTTP status; anything else never got a response.
func classifyGenAIError(err error) error {
	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	default:
		return &domain.UpstreamError{Kind: domain.ErrTransport, Reason: "generate content", Cause: err}
	}

	if code == http.StatusTooManyRequests {
		return &domain.UpstreamError{Kind: domain.ErrRateLimited, Status: code, Cause: err}
	}
	return &domain.UpstreamError{Kind: domain.ErrUpstream, Status: code, Reason: err.Error(), Cause: err}
}
