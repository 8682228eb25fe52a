package universe

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/verdict/internal/faults"
	"github.com/wonny/verdict/internal/pipeline"
	"github.com/wonny/verdict/pkg/httputil"
	"github.com/wonny/verdict/pkg/logger"
)

// ScrapeResolver builds the universe by scraping an index-components page.
// The page is expected to list one instrument per table row with the ticker
// in the first cell.
type ScrapeResolver struct {
	httpClient *httputil.Client
	urlByMkt   map[string]string
	logger     *logger.Logger
}

// NewScrapeResolver creates a scraping universe resolver. urlByMarket maps a
// market code to its components page.
func NewScrapeResolver(httpClient *httputil.Client, urlByMarket map[string]string, log *logger.Logger) *ScrapeResolver {
	return &ScrapeResolver{
		httpClient: httpClient,
		urlByMkt:   urlByMarket,
		logger:     log.WithField("module", "universe_scrape"),
	}
}

// Resolve fetches and parses the components page for the run's market
func (r *ScrapeResolver) Resolve(ctx context.Context, ec pipeline.Context) ([]string, error) {
	url, ok := r.urlByMkt[ec.Run.Market]
	if !ok {
		return nil, faults.Fatal("no components page configured for market " + ec.Run.Market)
	}

	resp, err := r.httpClient.Get(ctx, url)
	if err != nil {
		return nil, faults.Fatal("components page fetch failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, faults.Fatal(fmt.Sprintf("components page returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, faults.Fatal("components page read failed").WithCause(err)
	}

	symbols, err := parseComponentsHTML(string(body))
	if err != nil {
		return nil, err
	}

	r.logger.WithFields(map[string]interface{}{
		"market": ec.Run.Market,
		"count":  len(symbols),
	}).Debug("Universe scraped from components page")

	return symbols, nil
}

// parseComponentsHTML extracts tickers from the first cell of each data row
func parseComponentsHTML(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, faults.Fatal("components page parse failed").WithCause(err)
	}

	seen := make(map[string]struct{})
	var symbols []string
	doc.Find("table.components tbody tr").Each(func(_ int, row *goquery.Selection) {
		ticker := strings.TrimSpace(row.Find("td").First().Text())
		if ticker == "" {
			return
		}
		if _, dup := seen[ticker]; dup {
			return
		}
		seen[ticker] = struct{}{}
		symbols = append(symbols, ticker)
	})

	return symbols, nil
}
