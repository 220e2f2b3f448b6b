package feed

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/maheshdev/marketbridge/internal/model"
)

// ParseBarTime parses a candle row timestamp. Providers send RFC 3339 with
// an offset; a few omit the zone, in which case market time is assumed.
func ParseBarTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", raw, model.MarketZone)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse bar time %q: %w", raw, err)
	}
	return t, nil
}

// parseBarRow decodes one positional candle row:
// [timestamp, open, high, low, close, volume, open_interest].
func parseBarRow(row []json.RawMessage) (Bar, error) {
	if len(row) < 6 {
		return Bar{}, fmt.Errorf("candle row has %d fields, want at least 6", len(row))
	}

	var ts string
	if err := json.Unmarshal(row[0], &ts); err != nil {
		return Bar{}, fmt.Errorf("candle timestamp: %w", err)
	}
	t, err := ParseBarTime(ts)
	if err != nil {
		return Bar{}, err
	}

	var fields [4]float64
	for i := range fields {
		if err := json.Unmarshal(row[i+1], &fields[i]); err != nil {
			return Bar{}, fmt.Errorf("candle field %d: %w", i+1, err)
		}
	}

	var volume float64
	if err := json.Unmarshal(row[5], &volume); err != nil {
		return Bar{}, fmt.Errorf("candle volume: %w", err)
	}

	var oi float64
	if len(row) >= 7 {
		if err := json.Unmarshal(row[6], &oi); err != nil {
			return Bar{}, fmt.Errorf("candle open interest: %w", err)
		}
	}

	return Bar{
		Timestamp:    t,
		Open:         fields[0],
		High:         fields[1],
		Low:          fields[2],
		Close:        fields[3],
		Volume:       int64(volume),
		OpenInterest: int64(oi),
	}, nil
}

// parseExpiry normalizes provider expiry dates ("05-Jan-2026" or
// "2026-01-05") to YYYY-MM-DD.
func parseExpiry(raw string) (string, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.Format("2006-01-02"), nil
	}
	t, err := time.Parse("02-Jan-2006", raw)
	if err != nil {
		return "", fmt.Errorf("parse expiry %q: %w", raw, err)
	}
	return t.Format("2006-01-02"), nil
}
