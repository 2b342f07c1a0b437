// Package api provides the HTTP surface for alarm management: a chi router
// with JSON envelopes and error mapping consistent with the engine's typed
// error codes. The engine core does not depend on this package; it exists so
// the alarm store has a writer outside the device UI.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"skysentry/internal/types"
)

// maxRequestBodySize caps request bodies at 64 KB; alarm payloads are tiny.
const maxRequestBodySize = 64 << 10

// APIResponse is the envelope for successful responses.
type APIResponse struct {
	Data any `json:"data,omitempty"`
}

// APIErrorResponse is the envelope for error responses.
type APIErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the structured error information returned to clients.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIResponse{Data: data})
}

// Error writes an error response. AppErrors map their code to a status;
// anything else is a 500 with a safe generic message, never the internal
// error text.
func Error(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	var appErr *types.AppError
	if errors.As(err, &appErr) {
		w.WriteHeader(appErr.Code.HTTPStatus())
		_ = json.NewEncoder(w).Encode(APIErrorResponse{
			Error: ErrorDetail{
				Code:    string(appErr.Code),
				Message: appErr.Message,
			},
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(APIErrorResponse{
		Error: ErrorDetail{
			Code:    string(types.ErrCodeInternal),
			Message: "an unexpected error occurred",
		},
	})
}

// DecodeJSON decodes a bounded request body into dst.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return types.NewAppError(types.ErrCodeValidationMissingField, "invalid request body", err)
	}
	return nil
}
