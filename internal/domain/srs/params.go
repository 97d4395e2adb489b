package srs

import (
	"errors"
	"fmt"

	"github.com/phrazzld/scry-study/internal/domain"
)

// ErrInvalidParams is returned when a Params value cannot drive the algorithm.
var ErrInvalidParams = errors.New("invalid srs params")

// BaseIntervals holds the first-review interval, in days, for each rating.
// The again value is also the relearning interval after a lapse.
type BaseIntervals struct {
	Again  float64
	Hard   float64
	Medium float64
	Easy   float64
}

// For returns the base interval for r.
func (b BaseIntervals) For(r domain.Rating) float64 {
	switch r {
	case domain.RatingAgain:
		return b.Again
	case domain.RatingHard:
		return b.Hard
	case domain.RatingMedium:
		return b.Medium
	case domain.RatingEasy:
		return b.Easy
	default:
		return b.Again
	}
}

// Params defines all configurable parameters for the SRS algorithm and the
// statistics derived from it. It is passed by value into every calculation;
// nothing in this package keeps process-wide configuration.
type Params struct {
	// Core limits
	MinEase        float64 // Floor for every ease factor
	MaxEaseNominal float64 // Upper end of the retention scale, not a clamp
	DefaultEase    float64 // Ease of a never-reviewed card

	// Ease adjustments
	HardEasePenalty float64
	EasyEaseBonus   float64

	// Interval growth
	BaseIntervals        BaseIntervals
	HardMultiplier       float64 // Applied from the second review on, floored at one day
	SecondMediumMultiple float64
	SecondEasyMultiple   float64
	EasyBonus            float64 // Extra multiplier for easy once the card is mature
}

// NewDefaultParams returns the standard parameter set.
func NewDefaultParams() Params {
	return Params{
		MinEase:        1.3,
		MaxEaseNominal: 2.5,
		DefaultEase:    2.5,

		HardEasePenalty: 0.15,
		EasyEaseBonus:   0.1,

		BaseIntervals: BaseIntervals{
			Again:  1,
			Hard:   1.2,
			Medium: 2,
			Easy:   3,
		},
		HardMultiplier:       1.2,
		SecondMediumMultiple: 2,
		SecondEasyMultiple:   2.5,
		EasyBonus:            1.3,
	}
}

// ParamsConfig allows overriding the default parameters when creating a new Params value.
// Zero fields keep the default.
type ParamsConfig struct {
	MinEase        float64
	MaxEaseNominal float64
	DefaultEase    float64
	EasyBonus      float64

	AgainInterval  float64
	HardInterval   float64
	MediumInterval float64
	EasyInterval   float64
}

// NewParams creates a Params value with custom configuration and validates it.
func NewParams(config ParamsConfig) (Params, error) {
	params := NewDefaultParams()

	if config.MinEase > 0 {
		params.MinEase = config.MinEase
	}
	if config.MaxEaseNominal > 0 {
		params.MaxEaseNominal = config.MaxEaseNominal
	}
	if config.DefaultEase > 0 {
		params.DefaultEase = config.DefaultEase
	}
	if config.EasyBonus > 0 {
		params.EasyBonus = config.EasyBonus
	}

	if config.AgainInterval > 0 {
		params.BaseIntervals.Again = config.AgainInterval
	}
	if config.HardInterval > 0 {
		params.BaseIntervals.Hard = config.HardInterval
	}
	if config.MediumInterval > 0 {
		params.BaseIntervals.Medium = config.MediumInterval
	}
	if config.EasyInterval > 0 {
		params.BaseIntervals.Easy = config.EasyInterval
	}

	if err := params.Validate(); err != nil {
		return Params{}, err
	}
	return params, nil
}

// Validate checks that the parameters describe a usable model.
func (p Params) Validate() error {
	switch {
	case p.MinEase <= 0:
		return fmt.Errorf("%w: min ease must be positive", ErrInvalidParams)
	case p.MaxEaseNominal <= p.MinEase:
		return fmt.Errorf("%w: nominal max ease %.2f must exceed min ease %.2f",
			ErrInvalidParams, p.MaxEaseNominal, p.MinEase)
	case p.DefaultEase < p.MinEase:
		return fmt.Errorf("%w: default ease %.2f is below min ease %.2f",
			ErrInvalidParams, p.DefaultEase, p.MinEase)
	case p.EasyBonus <= 0, p.HardMultiplier <= 0,
		p.SecondMediumMultiple <= 0, p.SecondEasyMultiple <= 0:
		return fmt.Errorf("%w: multipliers must be positive", ErrInvalidParams)
	case p.HardEasePenalty < 0, p.EasyEaseBonus < 0:
		return fmt.Errorf("%w: ease adjustments must not be negative", ErrInvalidParams)
	}

	for _, r := range domain.Ratings {
		if p.BaseIntervals.For(r) <= 0 {
			return fmt.Errorf("%w: base interval for %s must be positive", ErrInvalidParams, r)
		}
	}
	return nil
}
