package gpt

import (
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type Client struct {
	Client  openai.Client
	ModelID string
}

// NewClient targets OpenAI, or an OpenAI-compatible endpoint when baseURL is
// set. SDK retries are off.
func NewClient(apiKey string, baseURL string, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("OpenAI model ID is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &Client{
		Client:  openai.NewClient(opts...),
		ModelID: model,
	}, nil
}
