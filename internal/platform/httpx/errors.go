package httpx

import (
	"errors"
	"net/http"

	"github.com/curvacraft/studio-erp/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807. Every
// rejection carries the specific reason the service attached, so callers
// learn which invariant was violated and what range would be valid.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, shared.ErrHasDependents):
		Problem(w, http.StatusConflict, "Dependent Records Exist", err.Error())
	case errors.Is(err, shared.ErrImmutable):
		Problem(w, http.StatusConflict, "Record Is Immutable", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
