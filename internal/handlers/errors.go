package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"linguapath/internal/repository"
	"linguapath/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

func respondWithError(w http.ResponseWriter, logger logrus.FieldLogger, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		entry := logger.WithError(err).WithField("status", status)
		if status >= http.StatusInternalServerError {
			entry.Error(logMsg)
		} else {
			entry.Debug(logMsg)
		}
	}

	respondJSON(w, status, errorResponse{Error: userMsg})
}

// statusForError maps service and storage errors to HTTP status codes
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, ErrStorageUnavailable
	case errors.Is(err, service.ErrLessonNotFound):
		return http.StatusNotFound, service.ErrLessonNotFound.Error()
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, service.ErrSessionNotFound.Error()
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict, service.ErrInvalidTransition.Error()
	case errors.Is(err, service.ErrInvalidMinutes):
		return http.StatusBadRequest, service.ErrInvalidMinutes.Error()
	case errors.Is(err, service.ErrInvalidProfile):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, ErrInternalServerError
	}
}

func respondWithServiceError(w http.ResponseWriter, logger logrus.FieldLogger, logMsg string, err error) {
	status, msg := statusForError(err)
	respondWithError(w, logger, status, msg, logMsg, err)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
