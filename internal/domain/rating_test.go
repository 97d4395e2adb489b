package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRating(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected Rating
		wantErr  bool
	}{
		{input: "again", expected: RatingAgain},
		{input: "hard", expected: RatingHard},
		{input: "medium", expected: RatingMedium},
		{input: "good", expected: RatingMedium},
		{input: " EASY ", expected: RatingEasy},
		{input: "", wantErr: true},
		{input: "perfect", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			rating, err := ParseRating(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidRating))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, rating)
		})
	}
}

func TestRatingOrderingAndValidity(t *testing.T) {
	t.Parallel()

	for i := 1; i < len(Ratings); i++ {
		assert.Less(t, Ratings[i-1], Ratings[i], "ratings must be ordered by increasing confidence")
	}

	assert.False(t, Rating(0).IsValid(), "zero value must be invalid")
	assert.False(t, Rating(5).IsValid())
	for _, r := range Ratings {
		assert.True(t, r.IsValid(), r.String())
	}
}

func TestRatingIsCorrect(t *testing.T) {
	t.Parallel()

	assert.False(t, RatingAgain.IsCorrect())
	assert.False(t, RatingHard.IsCorrect())
	assert.True(t, RatingMedium.IsCorrect())
	assert.True(t, RatingEasy.IsCorrect())
}

func TestRatingText(t *testing.T) {
	t.Parallel()

	text, err := RatingHard.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "hard", string(text))

	_, err = Rating(9).MarshalText()
	assert.ErrorIs(t, err, ErrInvalidRating)

	var r Rating
	require.NoError(t, r.UnmarshalText([]byte("good")))
	assert.Equal(t, RatingMedium, r)
	assert.ErrorIs(t, r.UnmarshalText([]byte("meh")), ErrInvalidRating)
}
