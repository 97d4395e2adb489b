package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-study/internal/api/shared"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/service"
	"github.com/phrazzld/scry-study/internal/session"
)

// SessionHandler handles study-session HTTP requests
type SessionHandler struct {
	studyService service.StudyService
	logger       *slog.Logger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(studyService service.StudyService, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for SessionHandler")
	}

	return &SessionHandler{
		studyService: studyService,
		logger:       logger.With(slog.String("component", "session_handler")),
	}
}

// StartSession handles POST /decks/{id}/sessions requests.
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, deckID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	progress, err := h.studyService.StartSession(r.Context(), userID, deckID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start study session")
		return
	}

	log.Info("study session started",
		slog.String("session_id", progress.SessionID.String()),
		slog.Int("total_cards", progress.TotalCards))
	shared.RespondWithJSON(w, r, http.StatusCreated, progress)
}

// GetProgress handles GET /sessions/{id} requests.
func (h *SessionHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	progress, err := h.studyService.SessionProgress(r.Context(), userID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, progress)
}

// GetCurrentCard handles GET /sessions/{id}/card requests.
// It answers 204 No Content once the session has no card left.
func (h *SessionHandler) GetCurrentCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	card, err := h.studyService.CurrentCard(r.Context(), userID, sessionID)
	if errors.Is(err, session.ErrSessionComplete) {
		log.Debug("no card left in session", slog.String("session_id", sessionID.String()))
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get current card")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// SubmitReview handles POST /sessions/{id}/reviews requests.
func (h *SessionHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req SubmitReviewRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	rating, err := domain.ParseRating(req.Rating)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.studyService.SubmitReview(r.Context(), userID, sessionID, rating)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit review")
		return
	}

	log.Debug("review submitted",
		slog.String("session_id", sessionID.String()),
		slog.String("card_id", result.CardID.String()),
		slog.String("rating", rating.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, reviewToResponse(result))
}

// EndSession handles POST /sessions/{id}/end requests.
func (h *SessionHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	summary, err := h.studyService.EndSession(r.Context(), userID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to end study session")
		return
	}

	log.Info("study session ended",
		slog.String("session_id", sessionID.String()),
		slog.Int("cards_reviewed", summary.CardsReviewed))
	shared.RespondWithJSON(w, r, http.StatusOK, summaryToResponse(summary))
}
