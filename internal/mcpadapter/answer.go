package mcpadapter

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/answer"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/index"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/models"
)

// AnswerInput is the MCP tool input schema (matches HTTP API field names).
type AnswerInput struct {
	Question string `json:"question" jsonschema:"question to answer from the knowledge base"`
	Image    string `json:"image,omitempty" jsonschema:"optional image as an http(s) URL or base64 encoded bytes"`
}

// NewAnswerHandler returns a tool handler backed by the answer service.
// Pass the returned function to mcp.AddTool.
func NewAnswerHandler(service *answer.Service, gate *index.Gate) func(context.Context, *mcp.CallToolRequest, AnswerInput) (*mcp.CallToolResult, models.AnswerResult, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AnswerInput) (*mcp.CallToolResult, models.AnswerResult, error) {
		return AnswerQuestion(ctx, service, gate, req, input)
	}
}

// AnswerQuestion runs the answer pipeline. Failures are reported as tool
// errors carrying only the user-safe message.
func AnswerQuestion(
	ctx context.Context,
	service *answer.Service,
	gate *index.Gate,
	req *mcp.CallToolRequest,
	input AnswerInput,
) (*mcp.CallToolResult, models.AnswerResult, error) {
	store, ready := gate.Store()
	if !ready {
		return nil, models.AnswerResult{}, errors.New(answer.NotReadyAnswer)
	}

	result, err := service.Answer(ctx, store, models.Question{
		Question: input.Question,
		Image:    input.Image,
	})
	if err != nil {
		var stageErr *answer.StageError
		if errors.As(err, &stageErr) {
			return nil, models.AnswerResult{}, errors.New(stageErr.UserMessage())
		}
		return nil, models.AnswerResult{}, err
	}

	return nil, result, nil
}
