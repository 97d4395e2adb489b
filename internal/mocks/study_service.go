package mocks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/domain/srs"
	"github.com/phrazzld/scry-study/internal/service"
	"github.com/phrazzld/scry-study/internal/session"
	"github.com/stretchr/testify/mock"
)

// MockStudyService is a testify mock of service.StudyService.
type MockStudyService struct {
	mock.Mock
}

var _ service.StudyService = (*MockStudyService)(nil)

// CreateDeck implements service.StudyService.
func (m *MockStudyService) CreateDeck(ctx context.Context, userID uuid.UUID, name string) (*domain.Deck, error) {
	args := m.Called(ctx, userID, name)
	deck, _ := args.Get(0).(*domain.Deck)
	return deck, args.Error(1)
}

// ListDecks implements service.StudyService.
func (m *MockStudyService) ListDecks(ctx context.Context, userID uuid.UUID) ([]domain.Deck, error) {
	args := m.Called(ctx, userID)
	decks, _ := args.Get(0).([]domain.Deck)
	return decks, args.Error(1)
}

// AddCards implements service.StudyService.
func (m *MockStudyService) AddCards(
	ctx context.Context,
	userID, deckID uuid.UUID,
	contents []json.RawMessage,
) ([]*domain.Card, error) {
	args := m.Called(ctx, userID, deckID, contents)
	cards, _ := args.Get(0).([]*domain.Card)
	return cards, args.Error(1)
}

// DeckStats implements service.StudyService.
func (m *MockStudyService) DeckStats(ctx context.Context, userID, deckID uuid.UUID) (srs.DeckStatistics, error) {
	args := m.Called(ctx, userID, deckID)
	return args.Get(0).(srs.DeckStatistics), args.Error(1)
}

// DueCards implements service.StudyService.
func (m *MockStudyService) DueCards(ctx context.Context, userID, deckID uuid.UUID) ([]domain.Card, error) {
	args := m.Called(ctx, userID, deckID)
	cards, _ := args.Get(0).([]domain.Card)
	return cards, args.Error(1)
}

// PostponeCard implements service.StudyService.
func (m *MockStudyService) PostponeCard(ctx context.Context, userID, cardID uuid.UUID, days int) (*domain.Card, error) {
	args := m.Called(ctx, userID, cardID, days)
	card, _ := args.Get(0).(*domain.Card)
	return card, args.Error(1)
}

// StartSession implements service.StudyService.
func (m *MockStudyService) StartSession(ctx context.Context, userID, deckID uuid.UUID) (session.Progress, error) {
	args := m.Called(ctx, userID, deckID)
	return args.Get(0).(session.Progress), args.Error(1)
}

// SessionProgress implements service.StudyService.
func (m *MockStudyService) SessionProgress(ctx context.Context, userID, sessionID uuid.UUID) (session.Progress, error) {
	args := m.Called(ctx, userID, sessionID)
	return args.Get(0).(session.Progress), args.Error(1)
}

// CurrentCard implements service.StudyService.
func (m *MockStudyService) CurrentCard(ctx context.Context, userID, sessionID uuid.UUID) (domain.Card, error) {
	args := m.Called(ctx, userID, sessionID)
	return args.Get(0).(domain.Card), args.Error(1)
}

// SubmitReview implements service.StudyService.
func (m *MockStudyService) SubmitReview(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	rating domain.Rating,
) (session.ReviewResult, error) {
	args := m.Called(ctx, userID, sessionID, rating)
	return args.Get(0).(session.ReviewResult), args.Error(1)
}

// EndSession implements service.StudyService.
func (m *MockStudyService) EndSession(ctx context.Context, userID, sessionID uuid.UUID) (session.Summary, error) {
	args := m.Called(ctx, userID, sessionID)
	return args.Get(0).(session.Summary), args.Error(1)
}

// ExpireIdleSessions implements service.StudyService.
func (m *MockStudyService) ExpireIdleSessions(ctx context.Context, cutoff time.Time) int {
	args := m.Called(ctx, cutoff)
	return args.Int(0)
}
