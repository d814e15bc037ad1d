package features

import (
	"sort"
	"time"

	"sentiment-signal-engine/internal/types"
)

// AlignSentiment carries each event's score forward onto the price timeline.
//
// Price timestamps are naive and compared as UTC wall clock; event timestamps are
// converted to UTC. Each price row takes the score of the latest event at or
// before it, the last input row winning among events with the same instant. Rows
// before the first event have HasScore false. The output keeps the price labels.
func AlignSentiment(events []types.SentimentEvent, priceIndex []time.Time) ([]types.AlignedSentiment, error) {
	if len(events) == 0 {
		return nil, dataErr("align", ErrEmptySeries, "no sentiment events")
	}
	if len(priceIndex) == 0 {
		return nil, dataErr("align", ErrEmptySeries, "price index is empty")
	}

	type instant struct {
		at    time.Time
		score float64
	}
	sorted := make([]instant, len(events))
	for i, ev := range events {
		if !ev.Scored {
			return nil, dataErr("align", ErrUnscoredEvent, "event %d at %s", i, ev.Timestamp.Format(time.RFC3339))
		}
		sorted[i] = instant{at: ev.Timestamp.UTC(), score: ev.Score}
	}
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].at.Before(sorted[b].at)
	})

	out := make([]types.AlignedSentiment, len(priceIndex))
	next := 0
	var (
		current float64
		have    bool
	)
	for i, label := range priceIndex {
		at := types.NaiveUTC(label)
		// rescan if the index steps backwards
		if i > 0 && at.Before(types.NaiveUTC(priceIndex[i-1])) {
			next, have = 0, false
		}
		for next < len(sorted) && !sorted[next].at.After(at) {
			current = sorted[next].score
			have = true
			next++
		}
		out[i] = types.AlignedSentiment{Timestamp: label, Score: current, HasScore: have}
		if !have {
			out[i].Score = 0
		}
	}
	return out, nil
}
