package provider

import (
	"context"
	"fmt"
	"sync"

	"spreadscan/pkg/model"
)

// CachingProvider memoizes Bars and LastPrice for the lifetime of one scan.
// Create a new one per scan; failures are not cached.
type CachingProvider struct {
	inner  Provider
	mu     sync.Mutex
	bars   map[string][]model.Bar
	prices map[string]float64
}

// NewCachingProvider wraps inner
func NewCachingProvider(inner Provider) *CachingProvider {
	return &CachingProvider{
		inner:  inner,
		bars:   make(map[string][]model.Bar),
		prices: make(map[string]float64),
	}
}

func (p *CachingProvider) Name() string { return p.inner.Name() }

func (p *CachingProvider) Bars(ctx context.Context, symbol string, g model.Granularity, count int) ([]model.Bar, error) {
	key := fmt.Sprintf("%s|%s|%d", symbol, g, count)

	p.mu.Lock()
	if cached, ok := p.bars[key]; ok {
		p.mu.Unlock()
		return cached, nil
	}
	p.mu.Unlock()

	bars, err := p.inner.Bars(ctx, symbol, g, count)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.bars[key] = bars
	p.mu.Unlock()
	return bars, nil
}

func (p *CachingProvider) LastPrice(ctx context.Context, symbol string) (float64, error) {
	p.mu.Lock()
	if cached, ok := p.prices[symbol]; ok {
		p.mu.Unlock()
		return cached, nil
	}
	p.mu.Unlock()

	price, err := p.inner.LastPrice(ctx, symbol)
	if err != nil {
		return 0, err
	}

	p.mu.Lock()
	p.prices[symbol] = price
	p.mu.Unlock()
	return price, nil
}
