package corrector

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/sirupsen/logrus"

	"github.com/Shimizu-Technology/pdf-corrector-api/internal/apperrors"
)

// generator is the slice of *genai.GenerativeModel we use.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// VertexClient corrects text with a Gemini model on Vertex AI.
type VertexClient struct {
	client *genai.Client
	model  generator
	name   string
	log    logrus.FieldLogger
}

// VertexOptions configures the Vertex AI backend.
type VertexOptions struct {
	ProjectID string
	Region    string
	Model     string
	MaxTokens int
}

// NewVertexClient connects to Vertex AI using Application Default Credentials.
func NewVertexClient(ctx context.Context, opts VertexOptions, log logrus.FieldLogger) (*VertexClient, error) {
	client, err := genai.NewClient(ctx, opts.ProjectID, opts.Region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := client.GenerativeModel(opts.Model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(SystemInstruction)},
	}
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}

	log.WithFields(logrus.Fields{
		"project": opts.ProjectID,
		"region":  opts.Region,
		"model":   opts.Model,
	}).Info("✅ Vertex AI corrector ready")

	return &VertexClient{client: client, model: model, name: opts.Model, log: log}, nil
}

// Correct sends text to Gemini and returns the concatenated text parts of the
// first candidate, trimmed.
func (v *VertexClient) Correct(ctx context.Context, text string) (string, error) {
	v.log.WithFields(logrus.Fields{
		"model": v.name,
		"chars": len(text),
	}).Info("🤖 Requesting text correction")

	resp, err := v.model.GenerateContent(ctx, genai.Text(BuildPrompt(text)))
	if err != nil {
		return "", apperrors.CorrectionService("gemini call failed", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", apperrors.CorrectionService("no candidates in gemini response", nil)
	}

	var sb strings.Builder
	found := false
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
			found = true
		}
	}
	if !found {
		return "", apperrors.CorrectionService("gemini response had no text", nil)
	}
	return strings.TrimSpace(sb.String()), nil
}

// Close releases the underlying gRPC connection.
func (v *VertexClient) Close() error {
	if v.client == nil {
		return nil
	}
	return v.client.Close()
}
