package bedrock

import (
	"net/http"
	"time"

	"github.com/povarna/generative-ai-agents/rag-agent/internal/awsclient"
)

type Client struct {
	Runtime awsclient.InvokeModelAPI
	ModelID string
	// HTTP fetches hosted images; InvokeModel only takes base64 image sources.
	HTTP *http.Client
}

func NewClient(runtime awsclient.InvokeModelAPI, modelID string) *Client {
	return &Client{
		Runtime: runtime,
		ModelID: modelID,
		HTTP:    &http.Client{Timeout: 20 * time.Second},
	}
}
