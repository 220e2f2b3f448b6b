package feed

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"github.com/maheshdev/marketbridge/internal/model"
)

// OptionChain fetches the option chain for an index and reduces it to the
// nearest expiry: per-strike open interest plus chain totals. The index
// argument is the provider's symbol for the underlying.
func (c *Client) OptionChain(ctx context.Context, index string) (ChainSnapshot, error) {
	query := url.Values{}
	query.Set("symbol", index)

	var resp chainResponse
	if err := c.get(ctx, "/option-chain", query, &resp); err != nil {
		return ChainSnapshot{}, fmt.Errorf("get option chain %s: %w", index, err)
	}
	if len(resp.Records.ExpiryDates) == 0 {
		return ChainSnapshot{}, fmt.Errorf("get option chain %s: no expiries in response", index)
	}

	nearest := resp.Records.ExpiryDates[0]
	expiry, err := parseExpiry(nearest)
	if err != nil {
		return ChainSnapshot{}, fmt.Errorf("get option chain %s: %w", index, err)
	}

	snap := ChainSnapshot{Expiry: expiry}
	for _, row := range resp.Records.Data {
		if row.ExpiryDate != nearest {
			continue
		}
		strike := model.OptionStrike{Strike: row.StrikePrice}
		if row.CE != nil {
			strike.CallOI = row.CE.OpenInterest
			strike.CallOIChg = row.CE.ChangeInOI
		}
		if row.PE != nil {
			strike.PutOI = row.PE.OpenInterest
			strike.PutOIChg = row.PE.ChangeInOI
		}
		snap.CallOI += strike.CallOI
		snap.PutOI += strike.PutOI
		snap.Strikes = append(snap.Strikes, strike)
	}

	// Chain-wide totals from the provider win over our per-strike sum when
	// present: the filtered block counts strikes outside the band we keep.
	if resp.Filtered.CE.TotOI > 0 {
		snap.CallOI = resp.Filtered.CE.TotOI
	}
	if resp.Filtered.PE.TotOI > 0 {
		snap.PutOI = resp.Filtered.PE.TotOI
	}

	sort.Slice(snap.Strikes, func(i, j int) bool {
		return snap.Strikes[i].Strike < snap.Strikes[j].Strike
	})

	return snap, nil
}
