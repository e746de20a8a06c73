// Package common provides shared utilities used across all features
package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hxuan190/futarchy-engine/internal/domain"
)

// HttpError represents an HTTP error with status code and message
type HttpError struct {
	StatusCode int
	Code       string
	Message    string
	Details    map[string]any
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s %s", e.StatusCode, e.Code, e.Message)
}

func messageOrDefault(msg string, defaultMsg string) string {
	if msg != "" {
		return msg
	}
	return defaultMsg
}

// HTTP Error constructors

func HTTPErrorBadRequest(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    messageOrDefault(msg, "Bad request"),
	}
}

func HTTPErrorNotFound(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    messageOrDefault(msg, "Not found"),
	}
}

func HTTPErrorInternalError(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    messageOrDefault(msg, "Internal server error"),
	}
}

func HTTPErrorTooManyRequests(msg string) *HttpError {
	return &HttpError{
		StatusCode: http.StatusTooManyRequests,
		Code:       "TOO_MANY_REQUESTS",
		Message:    messageOrDefault(msg, "Rate limit exceeded"),
	}
}

var planStatus = map[domain.ErrorKind]int{
	domain.KindValidation:          http.StatusBadRequest,
	domain.KindInsufficientFunds:   http.StatusBadRequest,
	domain.KindNothingToRedeem:     http.StatusBadRequest,
	domain.KindInvalidState:        http.StatusConflict,
	domain.KindAccountNotFound:     http.StatusNotFound,
	domain.KindNotFound:            http.StatusNotFound,
	domain.KindIlliquidPool:        http.StatusUnprocessableEntity,
	domain.KindInvalidMarket:       http.StatusUnprocessableEntity,
	domain.KindUpstreamUnavailable: http.StatusBadGateway,
}

// HTTPErrorFromPlan maps a planning failure to its transport error. The
// error kind becomes the code; anything that is not a PlanError is internal.
func HTTPErrorFromPlan(err error) *HttpError {
	var he *HttpError
	if errors.As(err, &he) {
		return he
	}

	var pe *domain.PlanError
	if !errors.As(err, &pe) {
		return HTTPErrorInternalError("")
	}
	status, ok := planStatus[pe.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	msg := pe.Msg
	if pe.Kind == domain.KindUpstreamUnavailable {
		// upstream causes can leak RPC endpoints
		msg = "chain state unavailable"
	}
	return &HttpError{
		StatusCode: status,
		Code:       string(pe.Kind),
		Message:    messageOrDefault(msg, string(pe.Kind)),
		Details:    pe.Details(),
	}
}
