package ai

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient interacts with Google Gemini API using the official SDK
type GeminiClient struct {
	client    *genai.Client
	fastModel *genai.GenerativeModel
	proModel  *genai.GenerativeModel
}

// NewGeminiClient creates a new Gemini API client. The fast model handles
// interactive drafts (analysis, specs lookup), the pro model handles the
// longer memorial documents.
func NewGeminiClient(ctx context.Context, apiKey, fastModelName, proModelName string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is empty")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	if fastModelName == "" {
		fastModelName = "gemini-3-flash-preview"
	}
	if proModelName == "" {
		proModelName = "gemini-3-pro-preview"
	}

	return &GeminiClient{
		client:    client,
		fastModel: client.GenerativeModel(fastModelName),
		proModel:  client.GenerativeModel(proModelName),
	}, nil
}

// Close closes the client connection
func (c *GeminiClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// GenerateContent sends a prompt to the fast model and returns the response text
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, c.fastModel, prompt)
}

// GenerateLongContent sends a prompt to the pro model and returns the response text
func (c *GeminiClient) GenerateLongContent(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, c.proModel, prompt)
}

func (c *GeminiClient) generate(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error) {
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}

	var fullText string
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			fullText += string(txt)
		}
	}

	return fullText, nil
}
