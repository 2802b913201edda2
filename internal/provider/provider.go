package provider

import (
	"context"
	"fmt"

	"spreadscan/pkg/model"
)

// Provider supplies chronologically ordered bars for a ticker
type Provider interface {
	// Name returns the provider name
	Name() string

	// Bars fetches bars at granularity g, oldest first. count > 0 asks for at
	// least that many trailing bars and trims to them; count == 0 uses the
	// granularity's default lookback.
	Bars(ctx context.Context, symbol string, g model.Granularity, count int) ([]model.Bar, error)

	// LastPrice returns the most recent traded price
	LastPrice(ctx context.Context, symbol string) (float64, error)
}

// ProviderError is a failed fetch. It always matches model.ErrDataUnavailable.
type ProviderError struct {
	Provider   string
	Symbol     string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s: status %d: %v", e.Provider, e.Symbol, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Symbol, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, model.ErrDataUnavailable) match any provider failure
func (e *ProviderError) Is(target error) bool {
	return target == model.ErrDataUnavailable
}
