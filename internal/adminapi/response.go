package adminapi

import (
	"encoding/json"
	"net/http"

	"github.com/StarFreedomX/ktv-casting-go/internal/apperrors"
)

// errorBody is the JSON shape of an error response.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// WriteJSON sends a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(payload)
}

// WriteError serializes err into the admin surface's error response shape,
// using the error's own HTTPStatus when set and otherwise mapping its
// ErrorCode to an HTTP status via apperrors.HTTPStatusOf.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	engineErr := apperrors.AsEngineError(err)
	status := engineErr.HTTPStatus
	if status == 0 {
		status = apperrors.HTTPStatusOf(engineErr.Code)
	}
	_ = WriteJSON(w, status, errorResponse{
		Error: errorBody{Code: string(engineErr.Code), Message: engineErr.Message},
	})
}
