package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/wonny/movers/internal/contracts"
)

// Finnhub reports the same figure under several names depending on the
// issuer's filings; the first present one wins.
var (
	peRatioFields = []string{"peTTM", "peBasicExclExtraTTM", "peExclExtraTTM", "peNormalizedAnnual"}
	epsFields     = []string{"epsTTM", "epsBasicExclExtraItemsTTM", "epsExclExtraItemsTTM", "epsNormalizedAnnual"}
)

type metricResponse struct {
	Symbol string                     `json:"symbol"`
	Metric map[string]json.RawMessage `json:"metric"`
}

// Fundamentals fetches /stock/metric and resolves P/E and EPS once
func (c *Client) Fundamentals(ctx context.Context, symbol string) (contracts.Fundamentals, error) {
	var resp metricResponse
	params := url.Values{"symbol": {symbol}, "metric": {"all"}}
	if err := c.getJSON(ctx, "/stock/metric", params, &resp); err != nil {
		return contracts.Fundamentals{}, fmt.Errorf("metrics %s: %w", symbol, err)
	}

	return contracts.Fundamentals{
		PERatio: firstPresent(resp.Metric, peRatioFields),
		EPS:     firstPresent(resp.Metric, epsFields),
	}, nil
}

// firstPresent returns the first field holding a number; null, missing and
// malformed values are skipped
func firstPresent(metrics map[string]json.RawMessage, fields []string) decimal.NullDecimal {
	for _, f := range fields {
		raw, ok := metrics[f]
		if !ok {
			continue
		}
		var v decimal.NullDecimal
		if err := json.Unmarshal(raw, &v); err != nil || !v.Valid {
			continue
		}
		return v
	}
	return contracts.Unavailable
}
