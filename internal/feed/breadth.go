package feed

import (
	"context"
	"fmt"
)

// MarketBreadth fetches the market-wide advance/decline counts.
func (c *Client) MarketBreadth(ctx context.Context) (BreadthCounts, error) {
	var resp breadthResponse
	if err := c.get(ctx, "/market-breadth", nil, &resp); err != nil {
		return BreadthCounts{}, fmt.Errorf("get market breadth: %w", err)
	}
	if resp.Advance == nil {
		return BreadthCounts{}, fmt.Errorf("get market breadth: response has no advance block")
	}

	counts := BreadthCounts{}
	for key, dst := range map[string]*int{
		"advances":  &counts.Advances,
		"declines":  &counts.Declines,
		"unchanged": &counts.Unchanged,
	} {
		num, ok := resp.Advance[key]
		if !ok {
			continue
		}
		n, err := num.Int64()
		if err != nil {
			return BreadthCounts{}, fmt.Errorf("get market breadth: bad %s count %q: %w", key, num, err)
		}
		*dst = int(n)
	}

	return counts, nil
}
