package finnhub

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/wonny/movers/internal/cache"
	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/pkg/logger"
)

// Provider turns Finnhub quotes and metrics into validated snapshots.
// It implements both UniverseProvider and SnapshotProvider.
type Provider struct {
	client *Client
	cache  *cache.FundamentalsCache
	clock  func() time.Time
	logger *logger.Logger
}

// NewProvider creates a provider; fundamentals may be nil to always fetch
func NewProvider(client *Client, fundamentals *cache.FundamentalsCache, log *logger.Logger) *Provider {
	return &Provider{
		client: client,
		cache:  fundamentals,
		clock:  time.Now,
		logger: log.WithComponent("finnhub_provider"),
	}
}

// ListInstruments delegates to the client
func (p *Provider) ListInstruments(ctx context.Context, market string, limit int) ([]string, error) {
	return p.client.ListInstruments(ctx, market, limit)
}

// GetSnapshot fetches the quote and fundamentals concurrently.
// A quote failure is a ProviderError; a fundamentals failure only makes
// valuation Unavailable.
func (p *Provider) GetSnapshot(ctx context.Context, symbol string) (contracts.Snapshot, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	var (
		wg           sync.WaitGroup
		quote        *Quote
		quoteErr     error
		fundamentals contracts.Fundamentals
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		quote, quoteErr = p.client.Quote(ctx, symbol)
	}()
	go func() {
		defer wg.Done()
		fundamentals = p.loadFundamentals(ctx, symbol)
	}()
	wg.Wait()

	if quoteErr != nil {
		return contracts.Snapshot{}, &contracts.ProviderError{
			Stage:  contracts.StageSnapshot,
			Symbol: symbol,
			Err:    quoteErr,
		}
	}

	return contracts.NewSnapshot(symbol, quote.Current, quote.PriorClose, fundamentals, p.clock())
}

func (p *Provider) loadFundamentals(ctx context.Context, symbol string) contracts.Fundamentals {
	if p.cache != nil {
		if f, ok := p.cache.Get(ctx, symbol); ok {
			return f
		}
	}

	f, err := p.client.Fundamentals(ctx, symbol)
	if err != nil {
		p.logger.WithError(err).WithField("symbol", symbol).Warn("Fundamentals unavailable")
		return contracts.Fundamentals{}
	}

	if p.cache != nil {
		p.cache.Set(ctx, symbol, f)
	}
	return f
}
