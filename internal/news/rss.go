package news

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"sentiment-signal-engine/internal/interfaces"
	"sentiment-signal-engine/internal/logger"
	"sentiment-signal-engine/internal/types"
)

// RSSSource reads headlines for an asset from an RSS or Atom feed.
type RSSSource struct {
	urlTemplate string
	timeout     time.Duration
}

var _ interfaces.EventSource = (*RSSSource)(nil)

// NewRSSSource creates a feed source; {asset} in urlTemplate is replaced by the
// lower-cased asset name.
func NewRSSSource(urlTemplate string, timeout time.Duration) *RSSSource {
	return &RSSSource{urlTemplate: urlTemplate, timeout: timeout}
}

func (s *RSSSource) Events(ctx context.Context, asset string) ([]types.SentimentEvent, error) {
	feedURL := expandURL(s.urlTemplate, asset)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	fp := gofeed.NewParser()
	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to parse RSS feed", err, "url", feedURL)
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	events := make([]types.SentimentEvent, 0, len(feed.Items))
	for _, item := range feed.Items {
		ts := item.PublishedParsed
		if ts == nil {
			ts = item.UpdatedParsed
		}
		if ts == nil {
			continue
		}

		text := strings.TrimSpace(item.Title)
		if desc := stripHTML(item.Description); desc != "" && desc != text {
			text = text + ". " + desc
		}
		if text == "" {
			continue
		}
		events = append(events, types.SentimentEvent{Timestamp: ts.UTC(), Asset: asset, Text: text})
	}

	logger.Info(ctx, "Processed RSS feed", "asset", asset, "items", len(feed.Items), "events", len(events))
	return sortEvents(events), nil
}

// stripHTML returns the text content of an HTML fragment.
func stripHTML(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime reads a publish time; values without an offset are UTC.
func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func sortEvents(events []types.SentimentEvent) []types.SentimentEvent {
	sort.SliceStable(events, func(a, b int) bool { return events[a].Timestamp.Before(events[b].Timestamp) })
	return events
}
