package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// NewVertexGateway creates a gateway on Vertex AI (Gemini) using application
// default credentials for projectID and location.
func NewVertexGateway(ctx context.Context, projectID, location, modelName string, policy RetryPolicy) (*Gateway, error) {
	if projectID == "" || location == "" {
		return nil, fmt.Errorf("vertex gateway needs a GCP project and location")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return newGateway(client, "vertex", modelName, policy), nil
}
