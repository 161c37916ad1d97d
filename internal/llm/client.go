package llm

import (
	"context"
	"errors"
)

var ErrEmptyCompletion = errors.New("model returned an empty completion")

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks . LLMClient

// LLMClient sends one chat completion request. There is no retry: a failed
// call is returned to the caller as-is.
type LLMClient interface {
	Complete(ctx context.Context, request Request) (*Response, error)
}
