package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"linguapath/internal/models"
	"linguapath/internal/service"
)

// UserHandler serves the learner profile and study statistics
type UserHandler struct {
	users  *service.UserService
	stats  *service.StatsService
	logger logrus.FieldLogger
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *service.UserService, stats *service.StatsService, logger logrus.FieldLogger) *UserHandler {
	return &UserHandler{
		users:  users,
		stats:  stats,
		logger: logger,
	}
}

type trackTimeRequest struct {
	Minutes int `json:"minutes"`
}

type trackTimeResponse struct {
	Date         string `json:"date"`
	MinutesSpent int    `json:"minutesSpent"`
}

// GetProfile returns the caller's profile, creating it on the first visit
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())
	if identity == nil {
		respondWithError(w, h.logger, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	user, err := h.users.Profile(r.Context(), identity.Subject, identity.Name, identity.Email)
	if err != nil {
		respondWithServiceError(w, h.logger, "Error loading profile", err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// UpdateProfile stores the editable profile fields
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())
	if identity == nil {
		respondWithError(w, h.logger, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	var update models.ProfileUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), identity.Subject, identity.Name, identity.Email, update)
	if err != nil {
		respondWithServiceError(w, h.logger, "Error updating profile", err)
		return
	}
	if user == nil {
		respondWithError(w, h.logger, http.StatusNotFound, "Profile not found", "", nil)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// TrackTime adds study minutes to today's record
func (h *UserHandler) TrackTime(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())
	if identity == nil {
		respondWithError(w, h.logger, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	var req trackTimeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	record, err := h.stats.TrackTime(r.Context(), identity.Subject, req.Minutes)
	if err != nil {
		respondWithServiceError(w, h.logger, "Error tracking study time", err)
		return
	}

	respondJSON(w, http.StatusOK, trackTimeResponse{
		Date:         record.DateString(),
		MinutesSpent: record.MinutesSpent,
	})
}

// GetStats returns the caller's statistics snapshot
func (h *UserHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())
	if identity == nil {
		respondWithError(w, h.logger, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	snapshot, err := h.stats.ComputeStats(r.Context(), identity.Subject)
	if err != nil {
		respondWithServiceError(w, h.logger, "Error computing stats", err)
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}
