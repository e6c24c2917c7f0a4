package remote

import (
	"encoding/json"
	"fmt"
	"net/http"

	"gestion-stock/internal/common"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Details map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Unwrap maps the status to the shared sentinel so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return common.ErrValidation
	case http.StatusUnauthorized:
		return common.ErrUnauthorized
	case http.StatusForbidden:
		return common.ErrForbidden
	case http.StatusNotFound:
		return common.ErrNotFound
	case http.StatusConflict:
		if e.Message == "Stock insuffisant" {
			return common.ErrInsufficientStock
		}
		return common.ErrAlreadyExists
	}
	return nil
}

func decodeError(status int, body []byte) error {
	e := &APIError{Status: status}
	var payload struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		e.Message = payload.Error
		e.Details = payload.Details
	} else {
		e.Message = string(body)
	}
	return e
}
