package embedding

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/awsclient"
)

type titanRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions,omitempty"`
	Normalize  bool   `json:"normalize"`
}

type titanResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// BedrockEmbedder calls a Titan text embedding model.
type BedrockEmbedder struct {
	runtime    awsclient.InvokeModelAPI
	modelID    string
	dimensions int
}

func NewBedrockEmbedder(runtime awsclient.InvokeModelAPI, modelID string, dimensions int) *BedrockEmbedder {
	return &BedrockEmbedder{
		runtime:    runtime,
		modelID:    modelID,
		dimensions: dimensions,
	}
}

func (e *BedrockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	input := Normalize(text)
	if input == "" {
		return nil, ErrEmptyInput
	}

	body, err := json.Marshal(titanRequest{
		InputText:  input,
		Dimensions: e.dimensions,
		Normalize:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("Unable to serialize embedding request. Error: %w", err)
	}

	output, err := e.runtime.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(e.modelID),
		Body:        body,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("Unable to invoke embedding model. Error: %w", err)
	}

	var response titanResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return nil, fmt.Errorf("Failed to unmarshal embedding response. Error: %w", err)
	}

	if len(response.Embedding) == 0 {
		return nil, fmt.Errorf("embedding response contained an empty vector")
	}

	return response.Embedding, nil
}

func (e *BedrockEmbedder) ModelID() string {
	return e.modelID
}
