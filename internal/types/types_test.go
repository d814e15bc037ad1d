package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalRowJSONKeepsNaiveTimestamp(t *testing.T) {
	row := SignalRow{
		Timestamp:       time.Date(2024, 1, 4, 7, 0, 0, 0, time.UTC),
		Close:           101.5,
		PriceSignal:     Buy,
		SentimentScore:  0.7,
		HasSentiment:    true,
		SentimentSignal: Buy,
		Combined:        Buy,
	}

	b, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"timestamp":"2024-01-04T07:00:00"`)
	assert.NotContains(t, string(b), "Z\"")
	assert.Contains(t, string(b), `"signal_combined":1`)

	var back SignalRow
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, row, back)
}

func TestSignalRowJSONInsideSlice(t *testing.T) {
	rows := []SignalRow{{Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Combined: Sell}}

	b, err := json.Marshal(map[string]any{"latest": rows[0], "rows": rows})
	require.NoError(t, err)

	var out struct {
		Latest map[string]any   `json:"latest"`
		Rows   []map[string]any `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "2024-01-01T00:00:00", out.Latest["timestamp"])
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "2024-01-01T00:00:00", out.Rows[0]["timestamp"])
	assert.EqualValues(t, -1, out.Rows[0]["signal_combined"])
}
