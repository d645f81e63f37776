// Package response provides the HTTP response helpers for the menumerge API.
//
// Operational endpoints use an envelope with a data field for successful
// responses and an error field for failures. The dataset endpoints keep the
// flat bodies their clients already parse: {"status":"ok"},
// {"detail":"..."} and {"message":"..."}.
package response

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/agentstation/menumerge/pkg/constants"
	"github.com/agentstation/menumerge/pkg/errors"
)

// Response represents the enveloped API response structure.
type Response struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
}

// Error represents an API error with code, message, and optional details.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Detail is the body of dataset endpoint errors.
type Detail struct {
	Detail any `json:"detail"`
}

// Message is the body of unexpected server errors.
type Message struct {
	Message string `json:"message"`
}

// Status is the body of accepted writes.
type Status struct {
	Status string `json:"status"`
}

// Success creates a successful response with data.
func Success(data any) Response {
	return Response{Data: data}
}

// Fail creates an error response.
func Fail(code, message, details string) Response {
	return Response{
		Error: &Error{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// Write encodes body as JSON with the given status code.
func Write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encoding errors are ignored as headers are already sent
	_ = json.NewEncoder(w).Encode(body)
}

// Raw writes pre-encoded JSON with the given status code.
func Raw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// JSON writes an enveloped response with the given status code.
func JSON(w http.ResponseWriter, status int, resp Response) {
	Write(w, status, resp)
}

// OK writes a successful enveloped response with 200 status.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Success(data))
}

// Accepted writes a successful enveloped response with 202 status.
func Accepted(w http.ResponseWriter, data any) {
	JSON(w, http.StatusAccepted, Success(data))
}

// Conflict writes a 409 error response.
func Conflict(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusConflict, Fail("CONFLICT", message, details))
}

// MethodNotAllowed writes a 405 error response.
func MethodNotAllowed(w http.ResponseWriter, method string) {
	JSON(w, http.StatusMethodNotAllowed, Fail(
		"METHOD_NOT_ALLOWED",
		"Method not allowed",
		"Method "+method+" is not supported for this endpoint",
	))
}

// NotFound writes a 404 error response.
func NotFound(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusNotFound, Fail("NOT_FOUND", message, details))
}

// RateLimited writes a 429 error response.
func RateLimited(w http.ResponseWriter, message string) {
	JSON(w, http.StatusTooManyRequests, Fail("RATE_LIMITED", "Rate limit exceeded", message))
}

// ServiceUnavailable writes a 503 error response.
func ServiceUnavailable(w http.ResponseWriter, message string) {
	JSON(w, http.StatusServiceUnavailable, Fail("SERVICE_UNAVAILABLE", "Service unavailable", message))
}

// InternalError writes a 500 enveloped error response. The error itself is
// not exposed to the client.
func InternalError(w http.ResponseWriter, _ error) {
	JSON(w, http.StatusInternalServerError, Fail(
		"INTERNAL_ERROR",
		"Internal server error",
		"An unexpected error occurred",
	))
}

// StatusOK writes {"status":"ok"}.
func StatusOK(w http.ResponseWriter) {
	Write(w, http.StatusOK, Status{Status: "ok"})
}

// BadRequestDetail writes a 400 with a detail body.
func BadRequestDetail(w http.ResponseWriter, detail string) {
	Write(w, http.StatusBadRequest, Detail{Detail: detail})
}

// UnprocessableDetail writes a 422 with a detail body.
func UnprocessableDetail(w http.ResponseWriter, detail any) {
	Write(w, http.StatusUnprocessableEntity, Detail{Detail: detail})
}

// NotFoundDetail writes a 404 with a detail body.
func NotFoundDetail(w http.ResponseWriter, detail string) {
	Write(w, http.StatusNotFound, Detail{Detail: detail})
}

// Unexpected writes the generic 500 message body.
func Unexpected(w http.ResponseWriter) {
	Write(w, http.StatusInternalServerError, Message{Message: constants.ErrMsgUnexpected})
}

// Unavailable writes a 503 with a Retry-After hint in seconds.
func Unavailable(w http.ResponseWriter, retryAfterSeconds int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	Write(w, http.StatusServiceUnavailable, Detail{Detail: constants.ErrMsgStoreUnavailable})
}

// ValidationDetail is one entry of a 422 detail list.
type ValidationDetail struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// ErrorFromType maps typed errors to dataset endpoint responses.
func ErrorFromType(w http.ResponseWriter, err error) {
	var vErr *errors.ValidationError
	switch {
	case errors.As(err, &vErr):
		loc := []string{"body"}
		if vErr.Field != "" {
			loc = append(loc, vErr.Field)
		}
		UnprocessableDetail(w, []ValidationDetail{{Loc: loc, Msg: vErr.Message, Type: "value_error"}})
	case errors.IsNotFound(err):
		NotFoundDetail(w, err.Error())
	default:
		Unexpected(w)
	}
}
