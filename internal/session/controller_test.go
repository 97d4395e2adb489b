package session_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/domain/srs"
	"github.com/phrazzld/scry-study/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCardStore is a mock implementation of session.CardStore
type MockCardStore struct {
	mock.Mock
}

func (m *MockCardStore) FetchDueCards(
	ctx context.Context,
	deckID uuid.UUID,
	asOf time.Time,
) ([]domain.Card, error) {
	args := m.Called(ctx, deckID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Card), args.Error(1)
}

func (m *MockCardStore) PersistReviewState(
	ctx context.Context,
	cardID uuid.UUID,
	state domain.ReviewState,
) error {
	args := m.Called(ctx, cardID, state)
	return args.Error(0)
}

var testNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func newTestController(t *testing.T, store session.CardStore, limit int) *session.Controller {
	t.Helper()
	svc, err := srs.NewService(srs.NewDefaultParams(), srs.FixedClock(testNow))
	require.NoError(t, err)
	return session.NewController(store, svc, session.Options{
		Limit:  limit,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func dueCard(deckID uuid.UUID, overdue time.Duration) domain.Card {
	return domain.Card{
		ID:      uuid.New(),
		DeckID:  deckID,
		Content: []byte(`{"front":"q","back":"a"}`),
		Review: domain.ReviewState{
			EaseFactor: 2.5,
			NextReview: testNow.Add(-overdue),
		},
	}
}

func TestStartWithNoDueCardsCompletesImmediately(t *testing.T) {
	t.Parallel()
	deckID := uuid.New()
	store := new(MockCardStore)
	store.On("FetchDueCards", mock.Anything, deckID, testNow).Return([]domain.Card{}, nil)

	ctrl := newTestController(t, store, 0)
	require.NoError(t, ctrl.Start(context.Background(), deckID))

	assert.Equal(t, session.StateCompleted, ctrl.State())
	_, err := ctrl.CurrentCard()
	assert.ErrorIs(t, err, session.ErrSessionComplete)

	summary := ctrl.End()
	assert.Equal(t, 0, summary.CardsReviewed)
	assert.Equal(t, 0, summary.TotalCards)
	assert.Equal(t, 0.0, summary.Accuracy)
	assert.Equal(t, deckID, summary.DeckID)
	store.AssertExpectations(t)
}

func TestStartOrdersQueueAndDropsFutureCards(t *testing.T) {
	t.Parallel()
	deckID := uuid.New()
	recent := dueCard(deckID, time.Hour)
	oldest := dueCard(deckID, 72*time.Hour)
	future := dueCard(deckID, -time.Hour)

	store := new(MockCardStore)
	store.On("FetchDueCards", mock.Anything, deckID, testNow).
		Return([]domain.Card{recent, future, oldest}, nil)

	ctrl := newTestController(t, store, 0)
	require.NoError(t, ctrl.Start(context.Background(), deckID))

	assert.Equal(t, session.StateActive, ctrl.State())
	card, err := ctrl.CurrentCard()
	require.NoError(t, err)
	assert.Equal(t, oldest.ID, card.ID)
	assert.Equal(t, 2, ctrl.Progress().TotalCards)
}

func TestStartRespectsLimit(t *testing.T) {
	t.Parallel()
	deckID := uuid.New()
	cards := []domain.Card{
		dueCard(deckID, time.Hour),
		dueCard(deckID, 2*time.Hour),
		dueCard(deckID, 3*time.Hour),
	}
	store := new(MockCardStore)
	store.On("FetchDueCards", mock.Anything, deckID, testNow).Return(cards, nil)

	ctrl := newTestController(t, store, 2)
	require.NoError(t, ctrl.Start(context.Background(), deckID))

	assert.Equal(t, 2, ctrl.Progress().TotalCards)
	card, err := ctrl.CurrentCard()
	require.NoError(t, err)
	assert.Equal(t, cards[2].ID, card.ID)
}

func TestStartFetchFailureIsRetryable(t *testing.T) {
	t.Parallel()
	deckID := uuid.New()
	card := dueCard(deckID, time.Hour)
	storeErr := errors.New("connection refused")

	store := new(MockCardStore)
	store.On("FetchDueCards", mock.Anything, deckID, testNow).Return(nil, storeErr).Once()
	store.On("FetchDueCards", mock.Anything, deckID, testNow).Return([]domain.Card{card}, nil).Once()

	ctrl := newTestController(t, store, 0)

	err := ctrl.Start(context.Background(), deckID)
	assert.ErrorIs(t, err, session.ErrPersistence)
	assert.ErrorIs(t, err, storeErr)
	assert.Equal(t, session.StateErrored, ctrl.State())
	assert.ErrorIs(t, ctrl.Err(), session.ErrPersistence)

	_, err = ctrl.SubmitReview(context.Background(), domain.RatingEasy)
	assert.ErrorIs(t, err, session.ErrInvalidState)

	require.NoError(t, ctrl.Start(context.Background(), deckID))
	assert.Equal(t, session.StateActive, ctrl.State())
	assert.NoError(t, ctrl.Err())
	store.AssertExpectations(t)
}

func TestStartTwiceIsRejected(t *testing.T) {
	t.Parallel()
	deckID := uuid.New()
	store := new(MockCardStore)
	store.On("FetchDueCards", mock.Anything, deckID, testNow).
		Return([]domain.Card{dueCard(deckID, time.Hour)}, nil).Once()

	ctrl := newTestController(t, store, 0)
	require.NoError(t, ctrl.Start(context.Background(), deckID))

	err := ctrl.Start(context.Background(), deckID)
	assert.ErrorIs(t, err, session.ErrInvalidState)
	store.AssertExpectations(t)
}

func TestSubmitReviewWalksTheQueue(t *testing.T) {
	t.Parallel()
	deckID := uuid.New()
	first := dueCard(deckID, 2*time.Hour)
	second := dueCard(deckID, time.Hour)

	store := new(MockCardStore)
	store.On("FetchDueCards", mock.Anything, deckID, testNow).
		Return([]domain.Card{second, first}, nil)
	store.On("PersistReviewState", mock.Anything, first.ID, mock.MatchedBy(func(s domain.ReviewState) bool {
		return s.ReviewCount == 1 && s.Interval == 3 && s.EaseFactor > 2.5
	})).Return(nil).Once()
	store.On("PersistReviewState", mock.Anything, second.ID, mock.MatchedBy(func(s domain.ReviewState) bool {
		return s.ReviewCount == 1 && s.Interval == 1 && s.EaseFactor == 1.3
	})).Return(nil).Once()

	ctrl := newTestController(t, store, 0)
	require.NoError(t, ctrl.Start(context.Background(), deckID))

	result, err := ctrl.SubmitReview(context.Background(), domain.RatingEasy)
	require.NoError(t, err)
	assert.Equal(t, first.ID, result.CardID)
	assert.False(t, result.Completed)
	assert.Equal(t, session.StateActive, ctrl.State())

	card, err := ctrl.CurrentCard()
	require.NoError(t, err)
	assert.Equal(t, second.ID, card.ID)

	result, err = ctrl.SubmitReview(context.Background(), domain.RatingAgain)
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, session.StateCompleted, ctrl.State())

	_, err = ctrl.SubmitReview(context.Background(), domain.RatingEasy)
	assert.ErrorIs(t, err, session.ErrSessionComplete)

	summary := ctrl.End()
	assert.Equal(t, 2, summary.TotalCards)
	assert.Equal(t, 2, summary.CardsReviewed)
	assert.Equal(t, 1, summary.CorrectCount)
	assert.InDelta(t, 0.5, summary.Accuracy, 1e-9)
	store.AssertExpectations(t)
}

func TestSubmitReviewPersistenceFailureKeepsCard(t *testing.T) {
	t.Parallel()
	deckID := uuid.New()
	card := dueCard(deckID, time.Hour)
	other := dueCard(deckID, time.Minute)
	storeErr := errors.New("write timeout")

	store := new(MockCardStore)
	store.On("FetchDueCards", mock.Anything, deckID, testNow).
		Return([]domain.Card{card, other}, nil)
	store.On("PersistReviewState", mock.Anything, card.ID, mock.Anything).Return(storeErr).Once()
	store.On("PersistReviewState", mock.Anything, card.ID, mock.Anything).Return(nil).Once()

	ctrl := newTestController(t, store, 0)
	require.NoError(t, ctrl.Start(context.Background(), deckID))

	_, err := ctrl.SubmitReview(context.Background(), domain.RatingMedium)
	assert.ErrorIs(t, err, session.ErrPersistence)
	assert.ErrorIs(t, err, storeErr)
	assert.Equal(t, session.StateErrored, ctrl.State())

	current, err := ctrl.CurrentCard()
	require.NoError(t, err)
	assert.Equal(t, card.ID, current.ID, "failed card is presented again")

	progress := ctrl.Progress()
	assert.Equal(t, 0, progress.CardsReviewed)
	assert.Equal(t, 0, progress.CorrectCount)
	assert.Equal(t, 0, progress.Position)

	_, err = ctrl.SubmitReview(context.Background(), domain.RatingMedium)
	require.NoError(t, err)

	progress = ctrl.Progress()
	assert.Equal(t, session.StateActive, progress.State)
	assert.Equal(t, 1, progress.CardsReviewed, "a retried review is counted once")
	assert.Equal(t, 1, progress.CorrectCount)
	assert.Equal(t, 1, progress.Position)
	store.AssertExpectations(t)
}

func TestSubmitReviewRejectsInvalidRating(t *testing.T) {
	t.Parallel()
	deckID := uuid.New()
	store := new(MockCardStore)
	store.On("FetchDueCards", mock.Anything, deckID, testNow).
		Return([]domain.Card{dueCard(deckID, time.Hour)}, nil)

	ctrl := newTestController(t, store, 0)
	require.NoError(t, ctrl.Start(context.Background(), deckID))

	_, err := ctrl.SubmitReview(context.Background(), domain.Rating(0))
	assert.ErrorIs(t, err, domain.ErrInvalidRating)
	assert.Equal(t, session.StateActive, ctrl.State())
	store.AssertNotCalled(t, "PersistReviewState", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitReviewBeforeStart(t *testing.T) {
	t.Parallel()
	ctrl := newTestController(t, new(MockCardStore), 0)

	_, err := ctrl.SubmitReview(context.Background(), domain.RatingEasy)
	assert.ErrorIs(t, err, session.ErrInvalidState)

	_, err = ctrl.CurrentCard()
	assert.ErrorIs(t, err, session.ErrInvalidState)
}

func TestSubmitReviewRejectsConcurrentSubmission(t *testing.T) {
	t.Parallel()
	deckID := uuid.New()
	card := dueCard(deckID, time.Hour)
	entered := make(chan struct{})
	release := make(chan struct{})

	store := new(MockCardStore)
	store.On("FetchDueCards", mock.Anything, deckID, testNow).
		Return([]domain.Card{card, dueCard(deckID, time.Minute)}, nil)
	store.On("PersistReviewState", mock.Anything, card.ID, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(nil).Once()

	ctrl := newTestController(t, store, 0)
	require.NoError(t, ctrl.Start(context.Background(), deckID))

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = ctrl.SubmitReview(context.Background(), domain.RatingHard)
	}()

	<-entered
	assert.Equal(t, session.StateReviewing, ctrl.State())
	_, err := ctrl.SubmitReview(context.Background(), domain.RatingHard)
	assert.ErrorIs(t, err, session.ErrReviewInFlight)

	close(release)
	wg.Wait()
	require.NoError(t, firstErr)
	assert.Equal(t, 1, ctrl.Progress().CardsReviewed)
	store.AssertExpectations(t)
}

func TestEndWaitsForInFlightReview(t *testing.T) {
	t.Parallel()
	deckID := uuid.New()
	card := dueCard(deckID, time.Hour)
	entered := make(chan struct{})
	release := make(chan struct{})

	store := new(MockCardStore)
	store.On("FetchDueCards", mock.Anything, deckID, testNow).
		Return([]domain.Card{card, dueCard(deckID, time.Minute)}, nil)
	store.On("PersistReviewState", mock.Anything, card.ID, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(nil).Once()

	ctrl := newTestController(t, store, 0)
	require.NoError(t, ctrl.Start(context.Background(), deckID))

	var result session.ReviewResult
	var submitErr error
	submitted := make(chan struct{})
	go func() {
		defer close(submitted)
		result, submitErr = ctrl.SubmitReview(context.Background(), domain.RatingEasy)
	}()
	<-entered

	ended := make(chan session.Summary, 1)
	go func() { ended <- ctrl.End() }()

	assert.Never(t, func() bool { return len(ended) > 0 }, 50*time.Millisecond, 5*time.Millisecond,
		"End must not finish while the write is pending")

	close(release)
	<-submitted
	summary := <-ended

	require.NoError(t, submitErr)
	assert.Equal(t, card.ID, result.CardID)
	assert.Equal(t, 1, summary.CardsReviewed)
	assert.Equal(t, 1, summary.CorrectCount)
	assert.Equal(t, 1.0, summary.Accuracy)
	assert.Equal(t, session.StateCompleted, ctrl.State())

	_, err := ctrl.SubmitReview(context.Background(), domain.RatingEasy)
	assert.ErrorIs(t, err, session.ErrSessionComplete)
	store.AssertExpectations(t)
}

func TestEndIsIdempotent(t *testing.T) {
	t.Parallel()
	deckID := uuid.New()
	store := new(MockCardStore)
	store.On("FetchDueCards", mock.Anything, deckID, testNow).
		Return([]domain.Card{dueCard(deckID, time.Hour), dueCard(deckID, time.Minute)}, nil)
	store.On("PersistReviewState", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	ctrl := newTestController(t, store, 0)
	require.NoError(t, ctrl.Start(context.Background(), deckID))
	_, err := ctrl.SubmitReview(context.Background(), domain.RatingEasy)
	require.NoError(t, err)

	first := ctrl.End()
	second := ctrl.End()

	assert.Equal(t, first, second)
	assert.Equal(t, session.StateCompleted, ctrl.State())
	assert.Equal(t, 2, first.TotalCards)
	assert.Equal(t, 1, first.CardsReviewed)
	assert.Equal(t, 1.0, first.Accuracy)

	summary, ok := ctrl.Summary()
	assert.True(t, ok)
	assert.Equal(t, first, summary)
}

func TestEndBeforeStart(t *testing.T) {
	t.Parallel()
	ctrl := newTestController(t, new(MockCardStore), 0)

	summary := ctrl.End()

	assert.Equal(t, session.StateCompleted, ctrl.State())
	assert.Equal(t, 0, summary.CardsReviewed)
	assert.Equal(t, 0.0, summary.Accuracy)
	assert.Equal(t, time.Duration(0), summary.Duration)
}

func TestAccuracy(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0.0, session.Accuracy(0, 0))
	assert.Equal(t, 0.75, session.Accuracy(3, 4))
	assert.Equal(t, 1.0, session.Accuracy(5, 5))
}

func TestStateString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "idle", session.StateIdle.String())
	assert.Equal(t, "reviewing", session.StateReviewing.String())
	assert.Equal(t, "errored", session.StateErrored.String())
	assert.Equal(t, "unknown", session.State(99).String())
}
