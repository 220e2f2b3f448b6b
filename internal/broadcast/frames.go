package broadcast

import (
	"sort"

	"github.com/maheshdev/marketbridge/internal/model"
)

// BuildCandleUpdate reduces a day's minute candles for one symbol into the
// wire update: the latest 1m frame with a session VWAP, a 5m frame
// aggregated from the trailing five minutes, and the symbol's PCR. Returns
// false when there are no candles to reduce.
func BuildCandleUpdate(symbol string, candles []model.Candle, pcr float64) (model.CandleUpdate, bool) {
	if len(candles) == 0 {
		return model.CandleUpdate{}, false
	}

	sorted := make([]model.Candle, len(candles))
	copy(sorted, candles)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].Bucket < sorted[j].Bucket
	})

	last := sorted[len(sorted)-1]
	ts, err := model.EpochMillis(last.Date, last.Bucket)
	if err != nil {
		return model.CandleUpdate{}, false
	}

	oneMin := model.Frame{
		Open:   last.Open,
		High:   last.High,
		Low:    last.Low,
		Close:  last.Close,
		Volume: last.Volume,
		VWAP:   sessionVWAP(sorted),
	}

	return model.CandleUpdate{
		Symbol:    symbol,
		Timestamp: ts,
		OneMin:    oneMin,
		FiveMin:   aggregateFrame(sorted, 5),
		PCR:       pcr,
	}, true
}

// aggregateFrame folds the trailing n candles into one frame.
func aggregateFrame(sorted []model.Candle, n int) model.Frame {
	start := len(sorted) - n
	if start < 0 {
		start = 0
	}
	window := sorted[start:]

	f := model.Frame{
		Open: window[0].Open,
		High: window[0].High,
		Low:  window[0].Low,
	}
	for _, c := range window {
		if c.High > f.High {
			f.High = c.High
		}
		if c.Low < f.Low {
			f.Low = c.Low
		}
		f.Volume += c.Volume
	}
	f.Close = window[len(window)-1].Close
	return f
}

// sessionVWAP is the volume-weighted typical price over the session. For
// zero-volume series (index spot feeds) it degrades to the last close.
func sessionVWAP(sorted []model.Candle) float64 {
	var pv, vol float64
	for _, c := range sorted {
		typical := (c.High + c.Low + c.Close) / 3
		pv += typical * float64(c.Volume)
		vol += float64(c.Volume)
	}
	if vol == 0 {
		return sorted[len(sorted)-1].Close
	}
	return pv / vol
}
