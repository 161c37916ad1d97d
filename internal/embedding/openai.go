package embedding

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type OpenAIEmbedder struct {
	client     openai.Client
	model      string
	dimensions int
}

// NewOpenAIEmbedder works against OpenAI or any OpenAI-compatible proxy when
// baseURL is set. dimensions of zero keeps the model default.
func NewOpenAIEmbedder(apiKey string, baseURL string, model string, dimensions int) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("embedding model ID is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIEmbedder{
		client:     openai.NewClient(opts...),
		model:      model,
		dimensions: dimensions,
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	input := Normalize(text)
	if input == "" {
		return nil, ErrEmptyInput
	}

	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(input)},
		Model: openai.EmbeddingModel(e.model),
	}
	if e.dimensions > 0 {
		params.Dimensions = openai.Int(int64(e.dimensions))
	}

	response, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("Unable to generate embedding. Error: %w", err)
	}

	if len(response.Data) != 1 {
		return nil, fmt.Errorf("expected 1 embedding in response, got %d", len(response.Data))
	}

	values := response.Data[0].Embedding
	if len(values) == 0 {
		return nil, fmt.Errorf("embedding response contained an empty vector")
	}

	vector := make([]float32, len(values))
	for i, v := range values {
		vector[i] = float32(v)
	}
	return vector, nil
}

func (e *OpenAIEmbedder) ModelID() string {
	return e.model
}
