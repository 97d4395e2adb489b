package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-study/internal/api/shared"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/service"
)

// DeckHandler handles deck-related HTTP requests
type DeckHandler struct {
	studyService service.StudyService
	logger       *slog.Logger
}

// NewDeckHandler creates a new DeckHandler
func NewDeckHandler(studyService service.StudyService, logger *slog.Logger) *DeckHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for DeckHandler")
	}

	return &DeckHandler{
		studyService: studyService,
		logger:       logger.With(slog.String("component", "deck_handler")),
	}
}

// CreateDeck handles POST /decks requests.
func (h *DeckHandler) CreateDeck(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := shared.UserID(r.Context())
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	var req CreateDeckRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	deck, err := h.studyService.CreateDeck(r.Context(), userID, req.Name)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create deck")
		return
	}

	log.Info("deck created", slog.String("deck_id", deck.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, deckToResponse(*deck))
}

// ListDecks handles GET /decks requests.
func (h *DeckHandler) ListDecks(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserID(r.Context())
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	decks, err := h.studyService.ListDecks(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list decks")
		return
	}

	resp := make([]DeckResponse, 0, len(decks))
	for _, d := range decks {
		resp = append(resp, deckToResponse(d))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// AddCards handles POST /decks/{id}/cards requests.
func (h *DeckHandler) AddCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, deckID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req AddCardsRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	contents := make([]json.RawMessage, 0, len(req.Cards))
	for _, c := range req.Cards {
		raw, err := json.Marshal(domain.CardContent{
			Front:    c.Front,
			Back:     c.Back,
			Hint:     c.Hint,
			Tags:     c.Tags,
			ImageURL: c.ImageURL,
		})
		if err != nil {
			HandleAPIError(w, r, err, "Failed to encode card content")
			return
		}
		contents = append(contents, raw)
	}

	cards, err := h.studyService.AddCards(r.Context(), userID, deckID, contents)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add cards")
		return
	}

	resp := make([]CardResponse, 0, len(cards))
	for _, c := range cards {
		resp = append(resp, cardToResponse(*c))
	}

	log.Info("cards added",
		slog.String("deck_id", deckID.String()),
		slog.Int("count", len(cards)))
	shared.RespondWithJSON(w, r, http.StatusCreated, resp)
}

// GetDeckStats handles GET /decks/{id}/stats requests.
func (h *DeckHandler) GetDeckStats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, deckID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	stats, err := h.studyService.DeckStats(r.Context(), userID, deckID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute deck statistics")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// GetDueCards handles GET /decks/{id}/due requests.
func (h *DeckHandler) GetDueCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, deckID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	cards, err := h.studyService.DueCards(r.Context(), userID, deckID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get due cards")
		return
	}

	resp := make([]CardResponse, 0, len(cards))
	for _, c := range cards {
		resp = append(resp, cardToResponse(c))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
