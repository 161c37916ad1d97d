package gpt

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/llm"
)

func toMessages(messages []llm.Message) []openai.ChatCompletionMessageParamUnion {
	var out []openai.ChatCompletionMessageParamUnion

	if system := llm.SystemText(messages); system != "" {
		out = append(out, openai.SystemMessage(system))
	}

	for _, m := range messages {
		if m.Role != llm.RoleUser {
			continue
		}

		var parts []openai.ChatCompletionContentPartUnionParam
		for _, p := range m.Parts {
			switch p.Type {
			case llm.PartText:
				parts = append(parts, openai.TextContentPart(p.Text))
			case llm.PartImage:
				if p.Image == nil {
					continue
				}
				url := p.Image.URL
				if p.Image.Inline() {
					url = p.Image.DataURI()
				}
				parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: url}))
			}
		}
		out = append(out, openai.UserMessage(parts))
	}

	return out
}

func (c *Client) Complete(ctx context.Context, request llm.Request) (*llm.Response, error) {
	params := openai.ChatCompletionNewParams{
		Messages:            toMessages(request.Messages),
		MaxCompletionTokens: openai.Int(int64(request.MaxTokens)),
		Temperature:         openai.Float(request.Temperature),
		Model:               openai.ChatModel(c.ModelID),
	}

	output, err := c.Client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("unable to invoke gpt model. Error: %w", err)
	}

	if len(output.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response: %w", llm.ErrEmptyCompletion)
	}

	choice := output.Choices[0]
	if strings.TrimSpace(choice.Message.Content) == "" {
		return nil, llm.ErrEmptyCompletion
	}

	return &llm.Response{
		Content:    choice.Message.Content,
		StopReason: fmt.Sprint(choice.FinishReason),
	}, nil
}
