package compose

import (
	"context"
	"fmt"
	"os"
	"sync"

	"google.golang.org/genai"
)

// Gemini composes answers through the Gemini API. The client is built
// lazily on first use because genai.NewClient fails without a key and a
// keyless process must still start.
type Gemini struct {
	model       string
	temperature float32
	maxTokens   int

	mu     sync.Mutex
	client *genai.Client
}

// NewGemini builds the Gemini completion service.
func NewGemini(model string, temperature float32, maxTokens int) *Gemini {
	return &Gemini{
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Name implements Service.
func (s *Gemini) Name() string { return "gemini" }

// Available implements Service. The SDK accepts either variable.
func (s *Gemini) Available() bool {
	return os.Getenv("GEMINI_API_KEY") != "" || os.Getenv("GOOGLE_API_KEY") != ""
}

// Complete implements Service.
func (s *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	client, err := s.clientFor(ctx)
	if err != nil {
		return "", err
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(s.temperature),
		MaxOutputTokens:   int32(s.maxTokens),
		SystemInstruction: genai.NewContentFromText(System(req.Language), genai.RoleUser),
	}
	resp, err := client.Models.GenerateContent(ctx, s.model, genai.Text(User(req)), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini complete: %w", err)
	}
	return resp.Text(), nil
}

func (s *Gemini) clientFor(ctx context.Context) (*genai.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	s.client = client
	return client, nil
}
