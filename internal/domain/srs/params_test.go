package srs

import (
	"testing"

	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultParams(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	assert.Equal(t, 1.3, params.MinEase)
	assert.Equal(t, 2.5, params.MaxEaseNominal)
	assert.Equal(t, 2.5, params.DefaultEase)
	assert.Equal(t, 1.3, params.EasyBonus)
	assert.Equal(t, BaseIntervals{Again: 1, Hard: 1.2, Medium: 2, Easy: 3}, params.BaseIntervals)
	assert.NoError(t, params.Validate())
}

func TestNewParams(t *testing.T) {
	t.Parallel()

	t.Run("zero config keeps defaults", func(t *testing.T) {
		params, err := NewParams(ParamsConfig{})
		require.NoError(t, err)
		assert.Equal(t, NewDefaultParams(), params)
	})

	t.Run("overrides are applied", func(t *testing.T) {
		params, err := NewParams(ParamsConfig{
			MinEase:        1.5,
			MaxEaseNominal: 3.0,
			EasyBonus:      1.5,
			MediumInterval: 3,
		})
		require.NoError(t, err)
		assert.Equal(t, 1.5, params.MinEase)
		assert.Equal(t, 3.0, params.MaxEaseNominal)
		assert.Equal(t, 1.5, params.EasyBonus)
		assert.Equal(t, 3.0, params.BaseIntervals.For(domain.RatingMedium))
		assert.Equal(t, 1.0, params.BaseIntervals.For(domain.RatingAgain))
	})

	t.Run("invalid combination is rejected", func(t *testing.T) {
		_, err := NewParams(ParamsConfig{MinEase: 2.6})
		assert.ErrorIs(t, err, ErrInvalidParams)
	})
}

func TestParamsValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		mutate func(p *Params)
	}{
		{"zero min ease", func(p *Params) { p.MinEase = 0 }},
		{"nominal max below min", func(p *Params) { p.MaxEaseNominal = 1.0 }},
		{"default below min", func(p *Params) { p.DefaultEase = 1.0 }},
		{"zero easy bonus", func(p *Params) { p.EasyBonus = 0 }},
		{"negative penalty", func(p *Params) { p.HardEasePenalty = -0.1 }},
		{"zero base interval", func(p *Params) { p.BaseIntervals.Hard = 0 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			params := NewDefaultParams()
			tc.mutate(&params)
			assert.ErrorIs(t, params.Validate(), ErrInvalidParams)
		})
	}
}
