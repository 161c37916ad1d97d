package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const RequestIDHeader = "X-Request-ID"

// Logger tags every request with a request id (kept from the caller when
// present) and logs it once the chain returns.
func Logger(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	start := time.Now()

	requestID := req.HeaderParameter(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.SetAttribute("request_id", requestID)
	resp.AddHeader(RequestIDHeader, requestID)

	chain.ProcessFilter(req, resp)

	log.Info().
		Str("request_id", requestID).
		Str("method", req.Request.Method).
		Str("path", req.Request.URL.Path).
		Int("status", resp.StatusCode()).
		Dur("duration", time.Since(start)).
		Msg("Request handled")
}

func RecoverPanic(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("panic", fmt.Sprint(r)).
				Str("path", req.Request.URL.Path).
				Msg("Recovered from panic")
			HandleError(resp, ErrInternal, http.StatusInternalServerError)
		}
	}()

	chain.ProcessFilter(req, resp)
}
