package api

import (
	"errors"
	"mime"
	"net/http"

	"github.com/emicklei/go-restful/v3"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/answer"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/api/middleware"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/index"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/models"
	"github.com/rs/zerolog"
)

type Handler struct {
	service *answer.Service
	gate    *index.Gate
	logger  *zerolog.Logger
}

func NewHandler(service *answer.Service, gate *index.Gate, logger *zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		gate:    gate,
		logger:  logger,
	}
}

// POST /api/ and POST /api/v1/answer
// Body: models.Question
// Returns: models.AnswerResult
func (h *Handler) Answer(req *restful.Request, resp *restful.Response) {
	if !isJSON(req.HeaderParameter("Content-Type")) {
		middleware.HandleError(resp, middleware.ErrRequestNotJSON, http.StatusBadRequest)
		return
	}

	var question models.Question
	if err := req.ReadEntity(&question); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse request body")
		middleware.HandleError(resp, middleware.ErrRequestNotJSON, http.StatusBadRequest)
		return
	}

	if err := question.Validate(); err != nil {
		middleware.HandleError(resp, middleware.ErrEmptyQuestion, http.StatusBadRequest)
		return
	}

	store, ready := h.gate.Store()
	if !ready {
		resp.WriteHeaderAndEntity(http.StatusServiceUnavailable, models.Message(answer.NotReadyAnswer))
		return
	}

	h.logger.Info().
		Int("question_len", len(question.Question)).
		Bool("image", question.Image != "").
		Msg("Process question")

	result, err := h.service.Answer(req.Request.Context(), store, question)
	if err != nil {
		status, message := errorResponse(err)
		resp.WriteHeaderAndEntity(status, models.Message(message))
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, result)
}

// errorResponse maps pipeline errors to a status and a user-safe answer.
func errorResponse(err error) (int, string) {
	var stageErr *answer.StageError
	switch {
	case errors.As(err, &stageErr):
		if stageErr.Stage == answer.StagePrompting {
			return http.StatusBadRequest, stageErr.UserMessage()
		}
		return http.StatusInternalServerError, stageErr.UserMessage()
	case errors.Is(err, answer.ErrNotReady):
		return http.StatusServiceUnavailable, answer.NotReadyAnswer
	case errors.Is(err, models.ErrEmptyQuestion):
		return http.StatusBadRequest, middleware.ErrEmptyQuestion.Error()
	default:
		return http.StatusInternalServerError, "Error processing the question. Please try again later."
	}
}

// Health handler GET /api/v1/health
func (h *Handler) Health(req *restful.Request, resp *restful.Response) {
	store, ready := h.gate.Store()
	if !ready {
		resp.WriteHeaderAndEntity(http.StatusServiceUnavailable, HealthResponse{
			Status:  StatusInitializing,
			Version: Version,
		})
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, HealthResponse{
		Status:    StatusOK,
		Version:   Version,
		Documents: store.Size(),
	})
}

// Liveness handler GET /healthz, answers before the index is loaded.
func (h *Handler) Liveness(req *restful.Request, resp *restful.Response) {
	resp.Header().Set("Content-Type", mimePlain)
	resp.WriteHeader(http.StatusOK)
	if _, err := resp.Write([]byte("OK")); err != nil {
		h.logger.Error().Err(err).Msg("Failed to write liveness response")
	}
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == restful.MIME_JSON
}
