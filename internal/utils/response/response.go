package response

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(data)
}

func GeneralError(err error) ErrorResponse {
	return ErrorResponse{Error: err.Error()}
}

func Message(msg string) ErrorResponse {
	return ErrorResponse{Error: msg}
}

func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Field()+": "+err.Tag())
	}

	return ErrorResponse{Error: strings.Join(msgs, "; ")}
}
