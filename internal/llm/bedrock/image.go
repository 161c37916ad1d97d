package bedrock

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/povarna/generative-ai-agents/rag-agent/internal/llm"
)

// maxImageBytes is the Bedrock per-image limit for Claude.
const maxImageBytes = 5 << 20

// inlineImages returns a copy of messages where every URL image is replaced
// by its downloaded bytes. The request passed in is left untouched.
func (c *Client) inlineImages(ctx context.Context, messages []llm.Message) ([]llm.Message, error) {
	out := make([]llm.Message, len(messages))
	for i, m := range messages {
		out[i] = llm.Message{Role: m.Role, Parts: make([]llm.Part, len(m.Parts))}
		for j, p := range m.Parts {
			if p.Type == llm.PartImage && p.Image != nil && !p.Image.Inline() {
				image, err := c.fetchImage(ctx, p.Image.URL)
				if err != nil {
					return nil, err
				}
				p.Image = image
			}
			out[i].Parts[j] = p
		}
	}
	return out, nil
}

func (c *Client) fetchImage(ctx context.Context, url string) (*llm.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("Unable to build image request. Error: %w", err)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Unable to fetch image %s. Error: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Unable to fetch image %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("Unable to read image %s. Error: %w", url, err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image %s exceeds %d bytes", url, maxImageBytes)
	}

	return &llm.Image{
		MediaType: imageMediaType(resp.Header.Get("Content-Type"), data),
		Data:      base64.StdEncoding.EncodeToString(data),
	}, nil
}

func imageMediaType(contentType string, data []byte) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && strings.HasPrefix(mediaType, "image/") {
		return mediaType
	}
	return http.DetectContentType(data)
}
