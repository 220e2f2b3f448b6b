package feed

import (
	"encoding/json"
	"time"

	"github.com/maheshdev/marketbridge/internal/model"
)

// Bar is one intraday OHLCV row as the provider reports it, before any
// date/bucket assignment.
type Bar struct {
	Timestamp    time.Time
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       int64
	OpenInterest int64
}

// BreadthCounts is the advance/decline tally for the whole market.
type BreadthCounts struct {
	Advances  int
	Declines  int
	Unchanged int
}

// Total returns the number of constituents counted.
func (b BreadthCounts) Total() int {
	return b.Advances + b.Declines + b.Unchanged
}

// ChainSnapshot is an option chain at the nearest expiry: per-strike open
// interest plus chain-wide totals.
type ChainSnapshot struct {
	Expiry  string // YYYY-MM-DD
	CallOI  int64
	PutOI   int64
	Strikes []model.OptionStrike
}

// candleResponse is the intraday candle envelope. Rows are positional
// arrays: [timestamp, open, high, low, close, volume, open_interest].
type candleResponse struct {
	Status string `json:"status"`
	Data   struct {
		Candles [][]json.RawMessage `json:"candles"`
	} `json:"data"`
}

// breadthResponse carries advance/decline counts. Providers report the
// counts as quoted numbers, hence json.Number.
type breadthResponse struct {
	Advance map[string]json.Number `json:"advance"`
}

// chainResponse is the option chain envelope.
type chainResponse struct {
	Records struct {
		ExpiryDates []string   `json:"expiryDates"`
		Data        []chainRow `json:"data"`
	} `json:"records"`
	Filtered struct {
		CE struct {
			TotOI int64 `json:"totOI"`
		} `json:"CE"`
		PE struct {
			TotOI int64 `json:"totOI"`
		} `json:"PE"`
	} `json:"filtered"`
}

type chainRow struct {
	StrikePrice float64   `json:"strikePrice"`
	ExpiryDate  string    `json:"expiryDate"`
	CE          *chainLeg `json:"CE"`
	PE          *chainLeg `json:"PE"`
}

type chainLeg struct {
	OpenInterest   int64 `json:"openInterest"`
	ChangeInOI     int64 `json:"changeinOpenInterest"`
	TotalTradedVol int64 `json:"totalTradedVolume"`
}
