package api

import (
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/api/middleware"
	"github.com/povarna/generative-ai-agents/rag-agent/internal/models"
)

func RegisterRoutes(container *restful.Container, handler *Handler) {
	// Liveness
	live := new(restful.WebService)
	live.
		Path("/healthz").
		Produces(mimePlain)

	live.
		Route(live.GET("").
			To(handler.Liveness).
			Doc("Liveness check").
			Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
			Returns(200, "OK", nil))

	container.Add(live)

	// Answer endpoint at its historical path
	legacy := new(restful.WebService)
	legacy.
		Path("/api").
		Produces(restful.MIME_JSON)

	legacy.Route(answerRoute(legacy.POST("/"), handler))

	container.Add(legacy)

	ws := new(restful.WebService)
	ws.
		Path("/api/v1").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	// Health endpoint
	ws.
		Route(ws.GET("health").
			To(handler.Health).
			Doc("Readiness check").
			Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
			Writes(HealthResponse{}).
			Returns(200, "OK", HealthResponse{}).
			Returns(503, "Service Unavailable", HealthResponse{}))

	ws.Route(answerRoute(ws.POST("/answer"), handler))

	container.Add(ws)
}

// answerRoute accepts any content type so that non-JSON bodies get a 400
// from the handler instead of a 415 from the router.
func answerRoute(builder *restful.RouteBuilder, handler *Handler) *restful.RouteBuilder {
	return builder.
		To(handler.Answer).
		Consumes(restful.MIME_JSON, "*/*").
		Doc("Answer a question from the knowledge base").
		Metadata(restfulspec.KeyOpenAPITags, []string{"answer"}).
		Reads(models.Question{}).
		Writes(models.AnswerResult{}).
		Returns(200, "OK", models.AnswerResult{}).
		Returns(400, "Bad Request", middleware.ErrorResponse{}).
		Returns(500, "Internal Server Error", models.AnswerResult{}).
		Returns(503, "Service Unavailable", models.AnswerResult{})
}
