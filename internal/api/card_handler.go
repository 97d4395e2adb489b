package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-study/internal/api/shared"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/service"
)

// CardHandler handles card-related HTTP requests
type CardHandler struct {
	studyService service.StudyService
	logger       *slog.Logger
}

// NewCardHandler creates a new CardHandler
func NewCardHandler(studyService service.StudyService, logger *slog.Logger) *CardHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for CardHandler")
	}

	return &CardHandler{
		studyService: studyService,
		logger:       logger.With(slog.String("component", "card_handler")),
	}
}

// PostponeCard handles POST /cards/{id}/postpone requests.
// It pushes the card's next review back without counting a review.
func (h *CardHandler) PostponeCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, cardID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req PostponeCardRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	card, err := h.studyService.PostponeCard(r.Context(), userID, cardID, req.Days)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to postpone card")
		return
	}

	log.Debug("card postponed",
		slog.String("card_id", cardID.String()),
		slog.Int("days", req.Days))
	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(*card))
}
