package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/checkout"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/cms"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/coins"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/fallback"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/repo"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/storage"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// mutation is the body returned by every admin write.
type mutation struct {
	Data   any        `json:"data,omitempty"`
	Notice cms.Notice `json:"notice"`
}

type listResponse struct {
	Items        any    `json:"items"`
	Total        int    `json:"total"`
	Matched      int    `json:"matched"`
	EmptyMessage string `json:"empty_message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusOf maps domain errors to HTTP statuses.
func statusOf(err error) int {
	var verr *cms.ValidationError
	switch {
	case errors.As(err, &verr) && verr.Conflict:
		return http.StatusConflict
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, fallback.ErrNotFound),
		errors.Is(err, repo.ErrUnknownCollection),
		errors.Is(err, coins.ErrPackageNotFound):
		return http.StatusNotFound
	case errors.Is(err, repo.ErrInvalidBody),
		errors.Is(err, coins.ErrInvalidAmount),
		errors.Is(err, coins.ErrNotUnlockable),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrUnsupportedPayment),
		errors.Is(err, storage.ErrForeignURL):
		return http.StatusBadRequest
	case errors.Is(err, cms.ErrConflict),
		errors.Is(err, coins.ErrAlreadyUnlocked),
		errors.Is(err, checkout.ErrUnavailable):
		return http.StatusConflict
	case errors.Is(err, checkout.ErrPaymentDeclined):
		return http.StatusPaymentRequired
	case errors.Is(err, storage.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, repo.ErrNoDatabase):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.log.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeMessage(w, status, "internal server error")
		return
	}

	resp := errorResponse{Error: err.Error()}
	var verr *cms.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	writeJSON(w, status, resp)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", repo.ErrInvalidBody, err)
	}
	return nil
}
