package feed

import (
	"context"
	"fmt"
	"net/url"
)

// IntradayCandles fetches today's minute bars for an instrument. The
// interval is the provider's frame name ("1minute", "5minute"). Bars come
// back in whatever order the provider sent them; rows that fail to parse
// are skipped with a warning rather than failing the whole fetch.
func (c *Client) IntradayCandles(ctx context.Context, instrumentKey, interval string) ([]Bar, error) {
	path := "/intraday/" + url.PathEscape(instrumentKey) + "/" + url.PathEscape(interval)

	var resp candleResponse
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get intraday candles %s: %w", instrumentKey, err)
	}
	if resp.Status != "" && resp.Status != "success" {
		return nil, fmt.Errorf("get intraday candles %s: provider status %q", instrumentKey, resp.Status)
	}

	bars := make([]Bar, 0, len(resp.Data.Candles))
	for _, row := range resp.Data.Candles {
		bar, err := parseBarRow(row)
		if err != nil {
			c.logger.Warn("skipping malformed candle row",
				"provider", c.name,
				"instrument", instrumentKey,
				"error", err,
			)
			continue
		}
		bars = append(bars, bar)
	}

	return bars, nil
}
