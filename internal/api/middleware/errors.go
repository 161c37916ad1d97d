package middleware

import (
	"errors"
	"net/http"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog/log"
)

var (
	ErrRequestNotJSON = errors.New("request must be JSON")
	ErrEmptyQuestion  = errors.New("missing 'question' in request body")
	ErrInternal       = errors.New("internal server error")
)

type ErrorResponse struct {
	Error   string `json:"error" description:"Error message"`
	Code    int    `json:"code" description:"HTTP status code"`
	Details string `json:"details,omitempty" description:"Additional error details"`
}

func HandleError(resp *restful.Response, err error, status int) {
	errorResponse := ErrorResponse{
		Error:   err.Error(),
		Code:    status,
		Details: http.StatusText(status),
	}

	if writeErr := resp.WriteHeaderAndEntity(status, errorResponse); writeErr != nil {
		log.Error().Err(writeErr).Int("status", status).Msg("Failed to write error response")
	}
}
