// Package prompt holds the classifier prompt shared by the remote scorers and
// the parsing of their replies.
package prompt

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Neutral is the score returned whenever a remote classifier cannot be used.
const Neutral = 0.5

// ErrUnparsable is returned when a reply is neither a score object nor a number.
var ErrUnparsable = errors.New("unparsable classifier reply")

// Fallback reasons reported to metrics and logs.
const (
	ReasonMissingKey  = "missing_key"
	ReasonHTTP        = "http_error"
	ReasonEmpty       = "empty_content"
	ReasonUnparsable  = "unparsable"
	ReasonClientSetup = "client_setup"
)

// Build returns the user message asking for a JSON score in [0,1].
func Build(text string) string {
	return fmt.Sprintf(`You are a financial sentiment classifier.

Text:
"""%s"""

Respond ONLY with JSON:
{"score": number between 0.0 and 1.0}`, text)
}

// ParseScore reads a classifier reply. A JSON object without a "score" key
// yields Neutral; a bare number is accepted. The result is clamped to [0,1].
func ParseScore(reply string) (float64, error) {
	s := strings.TrimSpace(reply)
	s = strings.TrimPrefix(s, "```json")
	s = strings.Trim(s, "`\n ")

	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err == nil {
		v, ok := obj["score"]
		if !ok {
			return Neutral, nil
		}
		f, err := toFloat(v)
		if err != nil {
			return Neutral, err
		}
		return Clamp(f), nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Neutral, fmt.Errorf("%w: %q", ErrUnparsable, truncate(reply, 80))
	}
	return Clamp(f), nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: score %q", ErrUnparsable, x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: score of type %T", ErrUnparsable, v)
	}
}

// Clamp bounds a score to [0,1].
func Clamp(f float64) float64 {
	if math.IsNaN(f) {
		return Neutral
	}
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
