// Package corrector sends extracted text to an LLM and returns the corrected
// version.
//
// Two backends are available: any OpenAI-compatible chat completions endpoint
// (the default) and Gemini on Vertex AI. Both send the same fixed instruction
// and make exactly one request per call. There are no retries; a failed
// correction fails the upload.
package corrector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Shimizu-Technology/pdf-corrector-api/internal/apperrors"
)

// The instruction template sent with every correction.
const (
	SystemInstruction = "Você é um assistente que corrige textos."
	userPromptPrefix  = "Corrija o seguinte texto: "
)

// maxErrorBody caps how much of an upstream error body ends up in logs.
const maxErrorBody = 512

// Corrector returns a corrected version of text.
//
// Go Pattern: The pipeline depends on this interface, so tests can swap in a
// fake without an HTTP server.
type Corrector interface {
	Correct(ctx context.Context, text string) (string, error)
}

// BuildPrompt embeds text in the user instruction.
func BuildPrompt(text string) string {
	return userPromptPrefix + text
}

// Options configures the OpenAI-compatible client.
type Options struct {
	APIKey    string
	BaseURL   string // e.g. https://api.openai.com/v1
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Client talks to an OpenAI-compatible chat completions API.
type Client struct {
	apiKey     string
	endpoint   string
	model      string
	maxTokens  int
	httpClient *http.Client
	log        logrus.FieldLogger
}

// NewClient creates a chat completions client.
func NewClient(opts Options, log logrus.FieldLogger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second // LLMs can be slow
	}
	return &Client{
		apiKey:    opts.APIKey,
		endpoint:  strings.TrimRight(opts.BaseURL, "/") + "/chat/completions",
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		// Go Pattern: Always configure timeouts on HTTP clients.
		// The default http.Client has NO timeout, so requests can hang forever!
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// --- Chat completions API types ---

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Model string `json:"model"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Correct sends text for correction and returns the first choice, trimmed.
func (c *Client) Correct(ctx context.Context, text string) (string, error) {
	if c.apiKey == "" {
		return "", apperrors.CorrectionService("completion API key not configured; set OPENAI_API_KEY", nil)
	}

	c.log.WithFields(logrus.Fields{
		"model": c.model,
		"chars": len(text),
	}).Info("🤖 Requesting text correction")

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemInstruction},
			{Role: "user", Content: BuildPrompt(text)},
		},
		MaxTokens: c.maxTokens,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", apperrors.CorrectionService("failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", apperrors.CorrectionService("failed to create request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.CorrectionService("completion request failed", err)
	}
	defer resp.Body.Close() // Go Pattern: ALWAYS close response bodies!

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.CorrectionService("failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apperrors.CorrectionService(
			fmt.Sprintf("completion API returned %d", resp.StatusCode),
			errors.New(truncate(string(body), maxErrorBody)),
		)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", apperrors.CorrectionService("failed to parse response", err)
	}

	if chatResp.Error != nil {
		return "", apperrors.CorrectionService("completion API error", errors.New(chatResp.Error.Message))
	}

	if len(chatResp.Choices) == 0 {
		return "", apperrors.CorrectionService("no choices in completion response", nil)
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
