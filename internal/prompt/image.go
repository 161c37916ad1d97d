package prompt

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/povarna/generative-ai-agents/rag-agent/internal/llm"
)

var ErrInvalidImage = errors.New("image data URI is malformed")

const OctetStream = "application/octet-stream"

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}
	riffMagic = []byte("RIFF")
)

// ParseImage turns a request image payload into an llm.Image. http(s) URLs
// become external references; data URIs and raw base64 become inline images.
// The media type of raw base64 is sniffed from the decoded bytes, or from the
// encoded prefix when the payload does not decode. Only a malformed data URI
// is rejected.
func ParseImage(payload string) (*llm.Image, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, nil
	}

	lower := strings.ToLower(payload)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return &llm.Image{URL: payload}, nil
	}

	if strings.HasPrefix(lower, "data:") {
		return parseDataURI(payload)
	}

	data := stripWhitespace(payload)
	mediaType := SniffEncodedMediaType(data)
	if decoded, err := decodeBase64(data); err == nil {
		mediaType = SniffMediaType(decoded)
	}

	return &llm.Image{
		MediaType: mediaType,
		Data:      data,
	}, nil
}

func parseDataURI(payload string) (*llm.Image, error) {
	header, data, ok := strings.Cut(payload[len("data:"):], ",")
	if !ok {
		return nil, fmt.Errorf("data URI has no payload: %w", ErrInvalidImage)
	}

	mediaType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return nil, fmt.Errorf("data URI is not base64 encoded: %w", ErrInvalidImage)
	}

	data = stripWhitespace(data)
	decoded, err := decodeBase64(data)
	if err != nil {
		return nil, err
	}

	if mediaType == "" {
		mediaType = SniffMediaType(decoded)
	}

	return &llm.Image{
		MediaType: mediaType,
		Data:      data,
	}, nil
}

func decodeBase64(data string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err == nil {
		return decoded, nil
	}
	decoded, rawErr := base64.RawStdEncoding.DecodeString(data)
	if rawErr == nil {
		return decoded, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
}

// SniffMediaType recognises JPEG, PNG and WEBP; anything else is a generic
// binary type.
func SniffMediaType(b []byte) string {
	switch {
	case bytes.HasPrefix(b, jpegMagic):
		return "image/jpeg"
	case bytes.HasPrefix(b, pngMagic):
		return "image/png"
	case bytes.HasPrefix(b, riffMagic):
		return "image/webp"
	default:
		return OctetStream
	}
}

// SniffEncodedMediaType looks at the base64 text itself: "/9j/", "iVBORw0KGgo"
// and "UklGR" are how JPEG, PNG and WEBP headers encode.
func SniffEncodedMediaType(data string) string {
	switch {
	case strings.HasPrefix(data, "/9j/"):
		return "image/jpeg"
	case strings.HasPrefix(data, "iVBORw0KGgo"):
		return "image/png"
	case strings.HasPrefix(data, "UklGR"):
		return "image/webp"
	default:
		return OctetStream
	}
}

func stripWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
