package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"sentiment-signal-engine/internal/interfaces"
	"sentiment-signal-engine/internal/logger"
	"sentiment-signal-engine/internal/types"
)

// Selectors defines CSS selectors for extracting headlines from a listing page
type Selectors struct {
	Item  string
	Title string
	Text  string
	// Time selects the element whose datetime attribute (or text) is the publish time
	Time string
}

// Scraper turns a news listing page into sentiment events
type Scraper struct {
	urlTemplate string
	sel         Selectors
	timeout     time.Duration
	maxItems    int
}

var _ interfaces.EventSource = (*Scraper)(nil)

// NewScraper creates a scraper for urlTemplate, where {asset} is replaced by the
// lower-cased asset name.
func NewScraper(urlTemplate string, sel Selectors, timeout time.Duration) *Scraper {
	return &Scraper{
		urlTemplate: urlTemplate,
		sel:         sel,
		timeout:     timeout,
		maxItems:    200,
	}
}

// Events scrapes the listing page for asset. Items without a title or a
// parsable time are skipped.
func (s *Scraper) Events(ctx context.Context, asset string) ([]types.SentimentEvent, error) {
	pageURL := expandURL(s.urlTemplate, asset)
	logger.Info(ctx, "Starting news scraping", "asset", asset, "url", pageURL)

	events := []types.SentimentEvent{}
	skipped := 0

	c := colly.NewCollector(
		colly.AllowedDomains(getDomain(pageURL)),
		colly.MaxDepth(1),
		colly.Async(false),
	)
	c.SetRequestTimeout(s.timeout)

	// Set user agent to avoid being blocked
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	})

	c.OnHTML(s.sel.Item, func(e *colly.HTMLElement) {
		if len(events) >= s.maxItems {
			return
		}

		title := strings.TrimSpace(e.ChildText(s.sel.Title))
		if title == "" {
			skipped++
			return
		}

		timeEl := e.DOM.Find(s.sel.Time).First()
		raw := timeEl.AttrOr("datetime", strings.TrimSpace(timeEl.Text()))
		ts, ok := parseTime(raw)
		if !ok {
			skipped++
			return
		}

		text := title
		if s.sel.Text != "" {
			if body := strings.TrimSpace(e.ChildText(s.sel.Text)); body != "" {
				text = title + ". " + body
			}
		}

		events = append(events, types.SentimentEvent{Timestamp: ts, Asset: asset, Text: text})
	})

	var scrapeErr error
	c.OnError(func(r *colly.Response, err error) {
		scrapeErr = err
		logger.ErrorWithErr(ctx, "Scraping error", err, "url", r.Request.URL.String(), "status", r.StatusCode)
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", pageURL, err)
	}
	c.Wait()

	if scrapeErr != nil {
		return nil, fmt.Errorf("scrape %s: %w", pageURL, scrapeErr)
	}

	logger.Info(ctx, "News scraping completed", "asset", asset, "events", len(events), "skipped", skipped)
	return sortEvents(events), nil
}

func expandURL(tmpl, asset string) string {
	return strings.ReplaceAll(tmpl, "{asset}", url.PathEscape(strings.ToLower(asset)))
}

// getDomain extracts domain from URL
func getDomain(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
