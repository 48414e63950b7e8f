package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/project-tktt/job-dashboard/internal/common/quota"
	"github.com/project-tktt/job-dashboard/internal/domain"
)

// Error codes returned in the JSON envelope
const (
	codeEmptyQuery        = "EMPTY_QUERY"
	codeSuperseded        = "SUPERSEDED"
	codeQuotaExceeded     = "QUOTA_EXCEEDED"
	codeMalformedRecord   = "MALFORMED_RECORD"
	codeSourceUnavailable = "SOURCE_UNAVAILABLE"
	codeTimeout           = "TIMEOUT"
	codeCanceled          = "CANCELED"
	codeInternal          = "INTERNAL_ERROR"
)

// statusClientClosedRequest is nginx's non-standard code for a client that
// went away before the response was written
const statusClientClosedRequest = 499

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// classify maps a pipeline error to an HTTP status and error code
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		return http.StatusBadRequest, codeEmptyQuery
	case errors.Is(err, domain.ErrSuperseded):
		return http.StatusConflict, codeSuperseded
	case errors.Is(err, quota.ErrQuotaExceeded):
		return http.StatusTooManyRequests, codeQuotaExceeded
	case errors.Is(err, domain.ErrMalformedRecord):
		return http.StatusBadGateway, codeMalformedRecord
	case errors.Is(err, domain.ErrSourceUnavailable):
		return http.StatusBadGateway, codeSourceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, codeTimeout
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, codeCanceled
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

// publicMessage hides internal error detail behind a generic text
func publicMessage(status int, err error) string {
	if status == http.StatusInternalServerError {
		return "an unexpected error occurred"
	}
	return err.Error()
}

func writeError(c *gin.Context, err error) {
	status, code := classify(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorResponse{Error: errorBody{
		Code:      code,
		Message:   publicMessage(status, err),
		RequestID: requestID(c),
	}})
}
