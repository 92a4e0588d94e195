package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"linguapath/internal/content"
	"linguapath/internal/service"
)

// LessonHandler serves the lesson catalog and lesson attempts
type LessonHandler struct {
	catalog *content.Catalog
	lessons *service.LessonService
	logger  logrus.FieldLogger
}

// NewLessonHandler creates a new lesson handler
func NewLessonHandler(catalog *content.Catalog, lessons *service.LessonService, logger logrus.FieldLogger) *LessonHandler {
	return &LessonHandler{
		catalog: catalog,
		lessons: lessons,
		logger:  logger,
	}
}

type answerRequest struct {
	Answer string `json:"answer"`
}

// ListLessons returns the catalog summary
func (h *LessonHandler) ListLessons(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.catalog.List())
}

// StartSession begins a new attempt of the lesson in the path
func (h *LessonHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())
	if identity == nil {
		respondWithError(w, h.logger, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	view, err := h.lessons.Start(r.Context(), identity.Subject, r.PathValue("lessonId"))
	if err != nil {
		respondWithServiceError(w, h.logger, "Error starting lesson", err)
		return
	}

	respondJSON(w, http.StatusCreated, view)
}

// GetSession returns the current view of an attempt
func (h *LessonHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())
	if identity == nil {
		respondWithError(w, h.logger, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	view, err := h.lessons.Get(r.Context(), identity.Subject, r.PathValue("sessionId"))
	if err != nil {
		respondWithServiceError(w, h.logger, "Error loading lesson session", err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// SubmitAnswer grades the answer to the current quiz step
func (h *LessonHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())
	if identity == nil {
		respondWithError(w, h.logger, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	view, err := h.lessons.SubmitAnswer(r.Context(), identity.Subject, r.PathValue("sessionId"), req.Answer)
	if err != nil {
		respondWithServiceError(w, h.logger, "Error submitting answer", err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// Advance moves the attempt to its next step
func (h *LessonHandler) Advance(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())
	if identity == nil {
		respondWithError(w, h.logger, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	view, err := h.lessons.Advance(r.Context(), identity.Subject, r.PathValue("sessionId"))
	if err != nil {
		respondWithServiceError(w, h.logger, "Error advancing lesson", err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// Abort ends the attempt
func (h *LessonHandler) Abort(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())
	if identity == nil {
		respondWithError(w, h.logger, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	view, err := h.lessons.Abort(r.Context(), identity.Subject, r.PathValue("sessionId"))
	if err != nil {
		respondWithServiceError(w, h.logger, "Error aborting lesson", err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}
