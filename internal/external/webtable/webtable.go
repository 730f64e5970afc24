// Package webtable lists a universe by scraping symbols out of an HTML table,
// e.g. a most-active or index-constituents page.
package webtable

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/pkg/httputil"
	"github.com/wonny/movers/pkg/logger"
)

// DefaultSelector picks the first cell of each body row
const DefaultSelector = "table tbody tr td:first-child"

// MarketPlaceholder in the URL is replaced with the configured market
const MarketPlaceholder = "{market}"

var symbolPattern = regexp.MustCompile(`^[A-Z][A-Z0-9.\-]{0,9}$`)

// Source implements UniverseProvider over an HTML page
type Source struct {
	httpClient *httputil.Client
	url        string
	selector   string
	logger     *logger.Logger
}

// NewSource creates a scraping universe source
func NewSource(httpClient *httputil.Client, url, selector string, log *logger.Logger) *Source {
	if selector == "" {
		selector = DefaultSelector
	}
	return &Source{
		httpClient: httpClient,
		url:        url,
		selector:   selector,
		logger:     log.WithComponent("webtable"),
	}
}

// ListInstruments returns the first limit distinct symbols on the page
func (s *Source) ListInstruments(ctx context.Context, market string, limit int) ([]string, error) {
	pageURL := strings.ReplaceAll(s.url, MarketPlaceholder, market)

	resp, err := s.httpClient.Get(ctx, pageURL)
	if err != nil {
		return nil, &contracts.ProviderError{Stage: contracts.StageUniverse, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &contracts.ProviderError{
			Stage: contracts.StageUniverse,
			Err:   &httputil.StatusError{StatusCode: resp.StatusCode, URL: pageURL},
		}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &contracts.ProviderError{
			Stage: contracts.StageUniverse,
			Err:   fmt.Errorf("parse html: %w", err),
		}
	}

	symbols := ParseSymbols(doc, s.selector, limit)
	if len(symbols) == 0 {
		return nil, &contracts.ProviderError{
			Stage: contracts.StageUniverse,
			Err:   fmt.Errorf("no symbols matched %q on %s", s.selector, pageURL),
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"url":      pageURL,
		"selected": len(symbols),
	}).Debug("Universe scraped")
	return symbols, nil
}

// ParseSymbols extracts distinct ticker-shaped cell texts in document order.
// limit <= 0 means no limit.
func ParseSymbols(doc *goquery.Document, selector string, limit int) []string {
	seen := make(map[string]bool)
	var symbols []string

	doc.Find(selector).EachWithBreak(func(i int, cell *goquery.Selection) bool {
		// 링크가 있으면 링크 텍스트 우선
		text := cell.Find("a").First().Text()
		if strings.TrimSpace(text) == "" {
			text = cell.Text()
		}
		symbol, ok := normalizeSymbol(text)
		if !ok || seen[symbol] {
			return true
		}
		seen[symbol] = true
		symbols = append(symbols, symbol)
		return limit <= 0 || len(symbols) < limit
	})

	return symbols
}

// normalizeSymbol accepts single-case ticker text only, so labels such as
// "Total" or "Symbol" never pass as tickers
func normalizeSymbol(text string) (string, bool) {
	raw := strings.TrimSpace(text)
	if raw != strings.ToUpper(raw) && raw != strings.ToLower(raw) {
		return "", false
	}
	symbol := strings.ToUpper(raw)
	return symbol, symbolPattern.MatchString(symbol)
}
