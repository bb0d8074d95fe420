package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/aman1195/helium/internal/ctxkeys"
	"github.com/aman1195/helium/types"
)

// maxRequestBody caps decoded request bodies.
const maxRequestBody = 1 << 20 // 1 MiB

// Response is the envelope every endpoint returns.
type Response struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	RequestID string     `json:"request_id,omitempty"`
}

// ErrorInfo is the structured error body.
type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// WriteJSON writes v as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess wraps data in the success envelope.
func WriteSuccess(w http.ResponseWriter, r *http.Request, data any) {
	reqID, _ := ctxkeys.RequestID(r.Context())
	WriteJSON(w, http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC(),
		RequestID: reqID,
	})
}

// WriteError maps the error to an HTTP status and writes the error
// envelope. Structured errors carry their code through; everything
// else becomes INTERNAL.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	status := types.HTTPStatusFor(err)
	code := types.GetErrorCode(err)
	if code == "" {
		code = types.ErrInternal
	}

	if logger != nil {
		logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("code", string(code)),
			zap.Int("status", status),
			zap.Error(err))
	}

	reqID, _ := ctxkeys.RequestID(r.Context())
	WriteJSON(w, status, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:      string(code),
			Message:   err.Error(),
			Retryable: types.IsRetryable(err),
		},
		Timestamp: time.Now().UTC(),
		RequestID: reqID,
	})
}

// DecodeJSONBody decodes the request body into dst with a size cap.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return types.Errorf(types.ErrInvalidInput, "request body exceeds %d bytes", tooLarge.Limit).
				WithHTTPStatus(http.StatusRequestEntityTooLarge)
		}
		return types.NewError(types.ErrInvalidInput, fmt.Sprintf("malformed JSON body: %v", err))
	}
	return nil
}

// MethodNotAllowed writes a 405 with the allowed method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request, allowed string) {
	w.Header().Set("Allow", allowed)
	WriteJSON(w, http.StatusMethodNotAllowed, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    string(types.ErrInvalidInput),
			Message: fmt.Sprintf("method %s not allowed", r.Method),
		},
		Timestamp: time.Now().UTC(),
	})
}
