package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Sentinel errors for the domain layer. Services wrap these with context;
// Error unwraps them back into the right status code.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error maps a domain error onto the API envelope. Conflicts surface as 400
// alongside validation failures; the client distinguishes them by message.
func Error(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal server error"

	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrForbidden):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, ErrUnauthorized):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.As(err, &verrs):
		status, msg = http.StatusBadRequest, verrs.Error()
	}

	JSON(w, status, Envelope{Success: false, Error: msg})
}
