package model

// -----------------------------------------------------------------------------
// Candles
// -----------------------------------------------------------------------------

// Candle is one minute-resolution OHLCV snapshot for a symbol.
type Candle struct {
	Symbol string // Canonical symbol (e.g., "RELIANCE", "NIFTY")
	Date   string // Trading date (YYYY-MM-DD)
	Bucket string // Minute time bucket (HH:MM)
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64  // 0 for index spot feeds (providers do not report it)
	Source string // Provider that produced the row (provenance)
}

// Frame is an OHLCV aggregate for one resolution inside a candle_update
// payload. VWAP is only populated for the 1m frame.
type Frame struct {
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
	VWAP   float64 `json:"vwap,omitempty"`
}

// CandleUpdate is the per-symbol element of a candle_update payload.
type CandleUpdate struct {
	Symbol    string  `json:"symbol"`
	Timestamp int64   `json:"timestamp"` // Epoch ms, minute-aligned
	OneMin    Frame   `json:"1m"`
	FiveMin   Frame   `json:"5m"`
	PCR       float64 `json:"pcr"`
}

// -----------------------------------------------------------------------------
// Options
// -----------------------------------------------------------------------------

// OptionAggregate is the per-minute total open interest for one symbol.
type OptionAggregate struct {
	Symbol string
	Date   string
	Bucket string
	Expiry string // Nearest expiry (YYYY-MM-DD)
	CallOI int64
	PutOI  int64
	PCR    float64
}

// OptionStrike is per-strike open interest detail for one minute.
type OptionStrike struct {
	Symbol    string  `json:"-"`
	Date      string  `json:"-"`
	Bucket    string  `json:"-"`
	Strike    float64 `json:"strike"`
	CallOI    int64   `json:"call_oi"`
	PutOI     int64   `json:"put_oi"`
	CallOIChg int64   `json:"call_oi_chg"`
	PutOIChg  int64   `json:"put_oi_chg"`
}

// OptionSnapshot bundles the aggregate and per-strike detail captured in
// one acquisition. Persisted atomically: either every strike lands or none.
type OptionSnapshot struct {
	Aggregate OptionAggregate
	Strikes   []OptionStrike
}

// -----------------------------------------------------------------------------
// Market breadth
// -----------------------------------------------------------------------------

// Breadth holds advance/decline counts for one minute.
type Breadth struct {
	Date      string
	Bucket    string
	Advances  int
	Declines  int
	Unchanged int
	Total     int
	Source    string // Provider that produced the row
}

// -----------------------------------------------------------------------------
// Daily PCR history
// -----------------------------------------------------------------------------

// DailyPCR is an end-of-day put-call ratio record, one row per symbol per day.
type DailyPCR struct {
	Symbol string
	Date   string
	PCR    float64
	CallOI int64
	PutOI  int64
}
