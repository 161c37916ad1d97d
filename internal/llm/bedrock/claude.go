package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/llm"
)

type claudeMessageRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	Temperature      float64         `json:"temperature"`
	System           string          `json:"system,omitempty"`
	Messages         []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string          `json:"role"`
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

type claudeMessageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

var anthropicVersion = "bedrock-2023-05-31"

func buildPayload(request llm.Request) claudeMessageRequest {
	payload := claudeMessageRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        request.MaxTokens,
		Temperature:      request.Temperature,
		System:           llm.SystemText(request.Messages),
	}

	for _, m := range request.Messages {
		if m.Role == llm.RoleSystem {
			continue
		}

		message := claudeMessage{Role: string(m.Role)}
		for _, p := range m.Parts {
			switch p.Type {
			case llm.PartText:
				message.Content = append(message.Content, claudeContent{Type: "text", Text: p.Text})
			case llm.PartImage:
				if p.Image == nil {
					continue
				}
				message.Content = append(message.Content, claudeContent{Type: "image", Source: toImageSource(*p.Image)})
			}
		}
		payload.Messages = append(payload.Messages, message)
	}

	return payload
}

func toImageSource(image llm.Image) *imageSource {
	if image.Inline() {
		return &imageSource{Type: "base64", MediaType: image.MediaType, Data: image.Data}
	}
	return &imageSource{Type: "url", URL: image.URL}
}

func (c *Client) Complete(ctx context.Context, request llm.Request) (*llm.Response, error) {
	messages, err := c.inlineImages(ctx, request.Messages)
	if err != nil {
		return nil, err
	}
	request.Messages = messages

	body, err := json.Marshal(buildPayload(request))
	if err != nil {
		return nil, fmt.Errorf("Unable to serialize claude request. Error: %w", err)
	}

	output, err := c.Runtime.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.ModelID),
		Body:        body,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("Unable to invoke claude model. Error: %w", err)
	}

	var response claudeMessageResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return nil, fmt.Errorf("Failed to unmarshal bedrock response. Error: %w", err)
	}

	var content strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	if strings.TrimSpace(content.String()) == "" {
		return nil, llm.ErrEmptyCompletion
	}

	return &llm.Response{
		Content:    content.String(),
		StopReason: response.StopReason,
	}, nil
}
