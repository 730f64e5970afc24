package finnhub

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"
)

// Quote is the /quote payload. Finnhub answers unknown symbols with zeros.
type Quote struct {
	Current       decimal.Decimal `json:"c"`
	Change        decimal.Decimal `json:"d"`
	PercentChange decimal.Decimal `json:"dp"`
	High          decimal.Decimal `json:"h"`
	Low           decimal.Decimal `json:"l"`
	Open          decimal.Decimal `json:"o"`
	PriorClose    decimal.Decimal `json:"pc"`
	Timestamp     int64           `json:"t"`
}

// Quote fetches the latest quote for symbol
func (c *Client) Quote(ctx context.Context, symbol string) (*Quote, error) {
	var q Quote
	if err := c.getJSON(ctx, "/quote", url.Values{"symbol": {symbol}}, &q); err != nil {
		return nil, fmt.Errorf("quote %s: %w", symbol, err)
	}
	return &q, nil
}
