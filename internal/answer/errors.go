package answer

import (
	"errors"
	"fmt"
)

type Stage string

const (
	StageEmbedding  Stage = "embedding"
	StageRetrieving Stage = "retrieving"
	StagePrompting  Stage = "prompting"
	StageCompleting Stage = "completing"
	StageSanitizing Stage = "sanitizing"
	StageDone       Stage = "done"
)

var ErrNotReady = errors.New("index is not loaded yet")

const (
	NotReadyAnswer   = "Server is still initializing. Please try again in a moment."
	NoRelevantAnswer = "Sorry, I couldn't find any relevant information in the knowledge base."
)

// StageError is the terminal failure of one pipeline stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// UserMessage is safe to return to callers; it never includes the cause.
func (e *StageError) UserMessage() string {
	switch e.Stage {
	case StageEmbedding:
		return "Error generating question embedding. Please try again later."
	case StageRetrieving:
		return "Error retrieving relevant information. Please try again later."
	case StagePrompting:
		return "The attached image could not be processed."
	case StageCompleting:
		return "Error communicating with AI model. Please try again later."
	default:
		return "Error processing the question. Please try again later."
	}
}
