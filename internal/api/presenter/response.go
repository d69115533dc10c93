package presenter

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
)

type ErrorResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlation_id"`
}

func JSON(w http.ResponseWriter, r *http.Request, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to write json response")
	}
}

func Error(w http.ResponseWriter, r *http.Request, msg string, status int) {
	resp := ErrorResponse{
		Error:         msg,
		CorrelationID: core.CorrelationID(r.Context()),
	}
	JSON(w, r, resp, status)
}

// Err writes err prefixed with short, using the status code of the error kind.
func Err(w http.ResponseWriter, r *http.Request, err error, short string) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Msg(short)
	}
	Error(w, r, short+": "+err.Error(), status)
}

// StatusFor maps engine errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	// type mismatches are also validation errors, check them first
	case errors.Is(err, core.ErrTypeMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrValidation),
		errors.Is(err, core.ErrCommentRequired):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrSelfApprovalForbidden),
		errors.Is(err, core.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, core.ErrAlreadyFinalized),
		errors.Is(err, core.ErrDuplicateDecision),
		errors.Is(err, core.ErrReferentialIntegrity),
		errors.Is(err, core.ErrWithdrawNotAllowed),
		errors.Is(err, core.ErrNoEligibleCheckers):
		return http.StatusConflict
	case errors.Is(err, core.ErrCommitFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
