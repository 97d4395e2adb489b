//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/domain/srs"
	"github.com/phrazzld/scry-study/internal/platform/postgres"
	"github.com/phrazzld/scry-study/internal/store"
	"github.com/phrazzld/scry-study/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoresAgainstPostgres(t *testing.T) {
	db := testdb.GetTestDBWithT(t)
	ctx := context.Background()

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		decks := postgres.NewPostgresDeckStore(tx, quietLogger())
		cards := postgres.NewPostgresCardStore(tx, quietLogger())
		now := time.Now().UTC().Truncate(time.Microsecond)

		deck, err := domain.NewDeck(uuid.New(), "Integration")
		require.NoError(t, err)
		require.NoError(t, decks.Create(ctx, deck))

		var created []*domain.Card
		for i, offset := range []time.Duration{-48 * time.Hour, -time.Hour, 24 * time.Hour} {
			card, err := domain.NewCard(deck.ID, []byte(`{"front":"q","back":"a"}`), now, 2.5)
			require.NoError(t, err, "card %d", i)
			card.Review.NextReview = now.Add(offset)
			created = append(created, card)
		}
		require.NoError(t, cards.CreateMultiple(ctx, created))

		due, err := cards.FetchDueCards(ctx, deck.ID, now)
		require.NoError(t, err)
		require.Len(t, due, 2)
		assert.Equal(t, created[0].ID, due[0].ID)

		next := srs.ComputeNextReview(due[0].Review, domain.RatingEasy, now, srs.NewDefaultParams())
		require.NoError(t, cards.PersistReviewState(ctx, due[0].ID, next))
		require.NoError(t, cards.PersistReviewState(ctx, due[0].ID, next), "writes are idempotent")

		got, err := cards.GetByID(ctx, due[0].ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Review.ReviewCount)
		assert.InDelta(t, 2.6, got.Review.EaseFactor, 1e-9)

		counts, err := decks.ListDueCounts(ctx, now)
		require.NoError(t, err)
		var mine *store.DeckDueCount
		for i := range counts {
			if counts[i].DeckID == deck.ID {
				mine = &counts[i]
			}
		}
		require.NotNil(t, mine)
		assert.Equal(t, 1, mine.Due)

		require.NoError(t, decks.Delete(ctx, deck.ID))
		_, err = cards.GetByID(ctx, created[1].ID)
		assert.ErrorIs(t, err, store.ErrCardNotFound, "cards cascade with their deck")
	})
}
