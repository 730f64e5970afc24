package finnhub

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/wonny/movers/internal/contracts"
)

// Instrument is one row of /stock/symbol
type Instrument struct {
	Symbol        string `json:"symbol"`
	DisplaySymbol string `json:"displaySymbol"`
	Description   string `json:"description"`
	Type          string `json:"type"`
	Currency      string `json:"currency"`
}

// Instruments lists every symbol Finnhub knows for an exchange
func (c *Client) Instruments(ctx context.Context, exchange string) ([]Instrument, error) {
	var out []Instrument
	if err := c.getJSON(ctx, "/stock/symbol", url.Values{"exchange": {exchange}}, &out); err != nil {
		return nil, fmt.Errorf("list %s instruments: %w", exchange, err)
	}
	return out, nil
}

// ListInstruments returns the first limit distinct symbols of market in provider order
func (c *Client) ListInstruments(ctx context.Context, market string, limit int) ([]string, error) {
	instruments, err := c.Instruments(ctx, market)
	if err != nil {
		return nil, &contracts.ProviderError{Stage: contracts.StageUniverse, Err: err}
	}

	seen := make(map[string]bool, limit)
	symbols := make([]string, 0, limit)
	for _, inst := range instruments {
		if limit > 0 && len(symbols) >= limit {
			break
		}
		symbol := strings.ToUpper(strings.TrimSpace(inst.Symbol))
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		symbols = append(symbols, symbol)
	}

	if len(symbols) == 0 {
		return nil, &contracts.ProviderError{
			Stage: contracts.StageUniverse,
			Err:   fmt.Errorf("exchange %s returned no symbols", market),
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"market":    market,
		"available": len(instruments),
		"selected":  len(symbols),
	}).Debug("Universe listed")
	return symbols, nil
}
