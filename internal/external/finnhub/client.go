package finnhub

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/wonny/movers/pkg/httputil"
	"github.com/wonny/movers/pkg/logger"
)

// DefaultBaseURL is Finnhub's REST root
const DefaultBaseURL = "https://finnhub.io/api/v1"

// TokenHeader carries the API key so it never appears in logged URLs
const TokenHeader = "X-Finnhub-Token"

// Client handles communication with the Finnhub REST API
// ⭐ SSOT: Finnhub API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Finnhub client. httpClient should already carry
// the token header, rate limits and circuit breaker.
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("finnhub"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// getJSON fetches path with params and decodes the JSON body into dest
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, dest interface{}) error {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, params.Encode())
	}
	return c.httpClient.GetJSON(ctx, fullURL, dest)
}
