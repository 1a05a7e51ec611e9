package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/parla/internal/entity"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Warnf("write response: %v", err)
	}
}

// writeError maps domain sentinels onto HTTP statuses. Unknown errors become
// an opaque 500 so internals never leak to the client.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrInvalidQuality),
		errors.Is(err, entity.ErrUnknownSessionType),
		errors.Is(err, entity.ErrInvalidPairCount):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, entity.ErrSessionNotFound),
		errors.Is(err, entity.ErrPhraseNotFound),
		errors.Is(err, entity.ErrReviewNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, entity.ErrSessionCompleted),
		errors.Is(err, entity.ErrSessionTypeMismatch):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		logrus.Errorf("request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeBadRequest(w, "invalid request body")
		return false
	}
	return true
}
