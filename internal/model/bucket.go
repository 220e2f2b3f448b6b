package model

import (
	"fmt"
	"time"
)

// Market hours and timezone for the exchange session.
var (
	// MarketZone is the exchange timezone (IST, UTC+5:30).
	MarketZone = time.FixedZone("IST", 5*3600+30*60)
)

const (
	// SessionStart is the first minute bucket of a trading session.
	SessionStart = "09:15"
	// SessionEnd is the last minute bucket of a trading session.
	SessionEnd = "15:30"

	dateLayout   = "2006-01-02"
	bucketLayout = "15:04"
)

// ParseBucket validates an HH:MM time bucket label.
func ParseBucket(s string) (time.Time, error) {
	t, err := time.Parse(bucketLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time bucket %q: %w", s, err)
	}
	return t, nil
}

// BucketOf returns the minute bucket label for a wall-clock instant,
// evaluated in the market timezone.
func BucketOf(t time.Time) string {
	return t.In(MarketZone).Format(bucketLayout)
}

// DateOf returns the trading-date label (YYYY-MM-DD) for an instant,
// evaluated in the market timezone.
func DateOf(t time.Time) string {
	return t.In(MarketZone).Format(dateLayout)
}

// BucketRange returns every minute bucket from start to end inclusive,
// in ascending order. Returns an error if either label is malformed or
// end precedes start.
func BucketRange(start, end string) ([]string, error) {
	from, err := ParseBucket(start)
	if err != nil {
		return nil, err
	}
	to, err := ParseBucket(end)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, fmt.Errorf("time bucket range inverted: %s > %s", start, end)
	}

	var buckets []string
	for cur := from; !cur.After(to); cur = cur.Add(time.Minute) {
		buckets = append(buckets, cur.Format(bucketLayout))
	}
	return buckets, nil
}

// EpochMillis converts a (date, bucket) pair to epoch milliseconds in the
// market timezone.
func EpochMillis(date, bucket string) (int64, error) {
	t, err := time.ParseInLocation(dateLayout+" "+bucketLayout, date+" "+bucket, MarketZone)
	if err != nil {
		return 0, fmt.Errorf("parse %s %s: %w", date, bucket, err)
	}
	return t.UnixMilli(), nil
}

// MinuteAlignedMillis truncates an instant to the minute and returns epoch
// milliseconds. Candle timestamps are always minute-aligned.
func MinuteAlignedMillis(t time.Time) int64 {
	return t.Truncate(time.Minute).UnixMilli()
}
