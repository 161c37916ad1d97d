package answer

import (
	"context"
	"time"

	"github.com/povarna/generative-ai-agents/rag-agent/internal/index"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/llm"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/models"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/prompt"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/retrieval"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/sanitize"
	"github.com/rs/zerolog"
)

//go:generate mockgen -destination=mocks/mock_answer.go -package=mocks . Embedder,Retriever

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Retriever interface {
	Retrieve(store *index.Store, query []float32, topKInitial int, topKFinal int) ([]retrieval.RankedDocument, error)
}

type Config struct {
	TopKInitial       int
	TopKFinal         int
	EmbedTimeout      time.Duration
	CompletionTimeout time.Duration
	MaxTokens         int
	Temperature       float64
}

type Service struct {
	embedder  Embedder
	retriever Retriever
	builder   *prompt.Builder
	client    llm.LLMClient
	cfg       Config
	logger    *zerolog.Logger
}

func NewService(
	embedder Embedder,
	retriever Retriever,
	builder *prompt.Builder,
	client llm.LLMClient,
	cfg Config,
	logger *zerolog.Logger,
) *Service {
	return &Service{
		embedder:  embedder,
		retriever: retriever,
		builder:   builder,
		client:    client,
		cfg:       cfg,
		logger:    logger,
	}
}

// Answer runs embedding, retrieval, prompt building, completion and
// sanitisation once each against store. Failures come back as *StageError;
// a retrieval with no documents is a normal answer with no links.
func (s *Service) Answer(ctx context.Context, store *index.Store, q models.Question) (models.AnswerResult, error) {
	if store == nil {
		return models.AnswerResult{}, ErrNotReady
	}
	if err := q.Validate(); err != nil {
		return models.AnswerResult{}, err
	}

	start := time.Now()
	logger := s.logger.With().Int("question_len", len(q.Question)).Bool("image", q.Image != "").Logger()

	// the image is checked before any outbound call is made
	image, err := prompt.ParseImage(q.Image)
	if err != nil {
		return s.fail(&logger, StagePrompting, err)
	}

	embedding, err := s.embed(ctx, q.Question)
	if err != nil {
		return s.fail(&logger, StageEmbedding, err)
	}

	docs, err := s.retriever.Retrieve(store, embedding, s.cfg.TopKInitial, s.cfg.TopKFinal)
	if err != nil {
		return s.fail(&logger, StageRetrieving, err)
	}
	if len(docs) == 0 {
		logger.Info().Dur("duration", time.Since(start)).Msg("No relevant documents found")
		return models.Message(NoRelevantAnswer), nil
	}

	messages, err := s.builder.Build(q.Question, docs, image)
	if err != nil {
		return s.fail(&logger, StagePrompting, err)
	}

	raw, err := s.complete(ctx, messages)
	if err != nil {
		return s.fail(&logger, StageCompleting, err)
	}

	out := sanitize.Parse(raw)
	if malformed, ok := out.(sanitize.Malformed); ok {
		logger.Warn().
			Str("stage", string(StageSanitizing)).
			Str("reason", malformed.Reason).
			Str("raw", malformed.Raw).
			Msg("Model returned malformed output, using fallback answer")
	}
	result := sanitize.Resolve(out, docs)

	logger.Info().
		Str("stage", string(StageDone)).
		Int("docs", len(docs)).
		Int("links", len(result.Links)).
		Dur("duration", time.Since(start)).
		Msg("Question answered")

	return result, nil
}

func (s *Service) embed(ctx context.Context, text string) ([]float32, error) {
	if s.cfg.EmbedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.EmbedTimeout)
		defer cancel()
	}
	return s.embedder.Embed(ctx, text)
}

func (s *Service) complete(ctx context.Context, messages []llm.Message) (string, error) {
	if s.cfg.CompletionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CompletionTimeout)
		defer cancel()
	}

	resp, err := s.client.Complete(ctx, llm.Request{
		Messages:    messages,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}
	if resp == nil || resp.Content == "" {
		return "", llm.ErrEmptyCompletion
	}
	return resp.Content, nil
}

func (s *Service) fail(logger *zerolog.Logger, stage Stage, err error) (models.AnswerResult, error) {
	logger.Error().Err(err).Str("stage", string(stage)).Msg("Answer pipeline failed")
	return models.AnswerResult{}, &StageError{Stage: stage, Err: err}
}
