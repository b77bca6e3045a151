package srs

import (
	"github.com/phrazzld/lexis/internal/domain"
)

// Params defines all configurable parameters for the SM-2 algorithm
type Params struct {
	// Floor applied to every computed easiness factor
	MinEasinessFactor float64

	// Easiness assigned to progress that has never been reviewed
	InitialEasinessFactor float64

	// Fixed intervals (days) for the first and second consecutive success
	FirstSuccessInterval  int
	SecondSuccessInterval int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance.
// Zero values keep the default.
type ParamsConfig struct {
	MinEasinessFactor     float64
	InitialEasinessFactor float64
	FirstSuccessInterval  int
	SecondSuccessInterval int
}

// NewDefaultParams creates a new Params instance with the classic SM-2 values
func NewDefaultParams() *Params {
	return &Params{
		MinEasinessFactor:     domain.MinEasinessFactor,
		InitialEasinessFactor: domain.DefaultEasinessFactor,
		FirstSuccessInterval:  1,
		SecondSuccessInterval: 6,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	// The floor can be raised but never lowered below the domain invariant
	if config.MinEasinessFactor > params.MinEasinessFactor {
		params.MinEasinessFactor = config.MinEasinessFactor
	}
	if config.InitialEasinessFactor > 0 {
		params.InitialEasinessFactor = config.InitialEasinessFactor
	}
	if params.InitialEasinessFactor < params.MinEasinessFactor {
		params.InitialEasinessFactor = params.MinEasinessFactor
	}

	if config.FirstSuccessInterval > 0 {
		params.FirstSuccessInterval = config.FirstSuccessInterval
	}
	if config.SecondSuccessInterval > 0 {
		params.SecondSuccessInterval = config.SecondSuccessInterval
	}

	return params
}
