package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/yndnr/peerhub-go/internal/core/domain"
)

// errorBody is the JSON shape of error responses.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorResponse renders err as a JSON error with the mapped status.
// Non-domain errors become an opaque 500.
func ErrorResponse(err error) *Response {
	de, ok := asDomainError(err)
	if !ok {
		de = domain.ErrInternalServer
	}
	status := StatusForError(de)
	body := errorBody{Code: de.Code, Message: de.Message}
	if status < http.StatusInternalServerError {
		body.Details = de.Details
	}
	return JSON(status, body).AddHeader("X-Error-Code", de.Code)
}

// StatusForError maps a domain error code to an HTTP status.
func StatusForError(err error) int {
	code := domain.GetErrorCode(err)
	switch {
	case code == "":
		return http.StatusInternalServerError
	case strings.HasSuffix(code, "-4040"), strings.HasSuffix(code, "-4041"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4090"):
		return http.StatusConflict
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4010"):
		return http.StatusUnauthorized
	case strings.HasSuffix(code, "-5020"):
		return http.StatusBadGateway
	case strings.HasPrefix(code, "PH-ARG-"), strings.HasSuffix(code, "-4000"), strings.HasSuffix(code, "-4001"), strings.HasSuffix(code, "-4002"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func asDomainError(err error) (*domain.DomainError, bool) {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
