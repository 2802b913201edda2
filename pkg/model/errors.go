package model

import "errors"

var (
	// ErrDataUnavailable means a fetch failed or returned no rows
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrInsufficientHistory means fewer bars than an evaluation needs
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrConfigurationMissing means a required configuration key is absent
	ErrConfigurationMissing = errors.New("configuration missing")
)
