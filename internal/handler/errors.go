package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/pkordes/itinerary-core/backend/internal/domain"
	"github.com/pkordes/itinerary-core/backend/internal/job"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code and a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errBadRequest marks input rejected before reaching the service layer
// (malformed body, bad path or query parameter).
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // the status line is already sent; nothing useful to do on failure.
	json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status code and error body. what names the
// resource for 404 messages, e.g. "trip".
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, what string, err error) {
	var maxBytes *http.MaxBytesError
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, notFoundBody(what+" not found"))
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, validationBody(err))
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(fieldMessage(verrs)))
	case errors.Is(err, errBadRequest):
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(unwrapMessage(err, errBadRequest)))
	case errors.Is(err, job.ErrInvalidTransition):
		writeJSON(w, http.StatusUnprocessableEntity,
			ErrorResponse{Error: ErrorDetail{Code: "invalid_transition", Message: transitionMessage(err)}})
	case errors.Is(err, domain.ErrStale):
		writeJSON(w, http.StatusConflict,
			ErrorResponse{Error: ErrorDetail{Code: "stale", Message: "the trip changed while it was being analyzed; retry"}})
	case errors.As(err, &maxBytes):
		writeJSON(w, http.StatusRequestEntityTooLarge,
			ErrorResponse{Error: ErrorDetail{Code: "too_large", Message: fmt.Sprintf("request body exceeds %d bytes", maxBytes.Limit)}})
	default:
		s.logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError,
			ErrorResponse{Error: ErrorDetail{Code: "internal_error", Message: "internal server error"}})
	}
}

// notFoundBody returns an ErrorResponse for a missing resource.
// The caller supplies the message because the handler is the layer that
// knows what was being looked up.
func notFoundBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "not_found", Message: message}}
}

// validationBody returns an ErrorResponse for a domain validation failure.
func validationBody(err error) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: unwrapMessage(err, domain.ErrValidation)}}
}

// requestBody returns an ErrorResponse for a request rejected before it
// reached the service layer.
func requestBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: message}}
}

// unwrapMessage extracts the human-readable part that follows a wrapped sentinel.
// e.g. "service.TripService.Create: validation error: title is required" → "title is required"
func unwrapMessage(err, sentinel error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if _, rest, ok := strings.Cut(msg, sentinel.Error()+": "); ok {
		return rest
	}
	return msg
}

// transitionMessage keeps the "<event> from <state>" part of a rejected job
// transition, dropping the call-site prefixes.
func transitionMessage(err error) string {
	msg := strings.TrimSuffix(err.Error(), ": "+job.ErrInvalidTransition.Error())
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		msg = msg[i+2:]
	}
	return msg
}

// fieldMessage describes the first failed field of a request DTO.
func fieldMessage(verrs validator.ValidationErrors) string {
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
}

// decodeBody decodes a JSON request body into dst and validates it.
func (s *Server) decodeBody(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return badRequest("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return badRequest("malformed JSON body: %v", err)
	}
	return s.validate.Struct(dst)
}

// pathUUID parses a UUID path parameter.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, badRequest("%s must be a UUID", name)
	}
	return id, nil
}
