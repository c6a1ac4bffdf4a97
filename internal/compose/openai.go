package compose

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

// OpenAI composes answers through the OpenAI Responses API. The SDK
// reads OPENAI_API_KEY itself; Available mirrors that check so a keyless
// process degrades per turn instead of erroring.
type OpenAI struct {
	client      openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// OpenAIOption customizes the OpenAI service.
type OpenAIOption func(*openAIOptions)

type openAIOptions struct {
	requestOpts []option.RequestOption
}

// WithBaseURL points the client at a compatible endpoint, e.g. a proxy
// or a local server.
func WithBaseURL(url string) OpenAIOption {
	return func(o *openAIOptions) {
		o.requestOpts = append(o.requestOpts, option.WithBaseURL(url))
	}
}

// NewOpenAI builds the OpenAI completion service. Construction never
// fails; a missing key only makes the service unavailable.
func NewOpenAI(model string, temperature float32, maxTokens int, opts ...OpenAIOption) *OpenAI {
	var o openAIOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &OpenAI{
		client:      openai.NewClient(o.requestOpts...),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Name implements Service.
func (s *OpenAI) Name() string { return "openai" }

// Available implements Service.
func (s *OpenAI) Available() bool { return os.Getenv("OPENAI_API_KEY") != "" }

// Complete implements Service.
func (s *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(s.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(System(req.Language), responses.EasyInputMessageRoleSystem),
				responses.ResponseInputItemParamOfMessage(User(req), responses.EasyInputMessageRoleUser),
			},
		},
		Temperature:     openai.Float(float64(s.temperature)),
		MaxOutputTokens: openai.Int(int64(s.maxTokens)),
	}

	result, err := s.client.Responses.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai complete: %w", err)
	}
	return result.OutputText(), nil
}
