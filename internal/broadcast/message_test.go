package broadcast

import (
	"encoding/json"
	"testing"

	"github.com/maheshdev/marketbridge/internal/model"
)

func decode(t *testing.T, m Message) map[string]any {
	t.Helper()
	data, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("round-trip: %v", err)
	}
	return out
}

func TestCandleBatchEnvelope(t *testing.T) {
	msg := CandleBatch{
		Timestamp: 1767584700000,
		Updates: []model.CandleUpdate{{
			Symbol:    "NIFTY",
			Timestamp: 1767584700000,
			OneMin:    model.Frame{Open: 1, High: 2, Low: 0.5, Close: 1.5, VWAP: 1.4},
			FiveMin:   model.Frame{Open: 1, High: 2, Low: 0.5, Close: 1.5},
			PCR:       1.25,
		}},
	}

	out := decode(t, msg)
	if out["type"] != "candle_update" {
		t.Errorf("type = %v", out["type"])
	}
	if _, ok := out["symbol"]; ok {
		t.Error("candle_update must not carry a top-level symbol")
	}

	data := out["data"].([]any)
	if len(data) != 1 {
		t.Fatalf("data has %d entries", len(data))
	}
	update := data[0].(map[string]any)
	for _, key := range []string{"symbol", "timestamp", "1m", "5m", "pcr"} {
		if _, ok := update[key]; !ok {
			t.Errorf("update missing %q", key)
		}
	}
	oneMin := update["1m"].(map[string]any)
	if oneMin["vwap"] != 1.4 {
		t.Errorf("1m vwap = %v", oneMin["vwap"])
	}
	fiveMin := update["5m"].(map[string]any)
	if _, ok := fiveMin["vwap"]; ok {
		t.Error("5m frame should omit zero vwap")
	}
}

func TestCandleBatchNilUpdates(t *testing.T) {
	out := decode(t, CandleBatch{Timestamp: 1})
	if _, ok := out["data"].([]any); !ok {
		t.Errorf("data = %v, want empty array not null", out["data"])
	}
}

func TestOptionChainEnvelope(t *testing.T) {
	msg := OptionChainMsg{
		Symbol:    "NIFTY",
		Timestamp: 1767584700000,
		Strikes: []model.OptionStrike{
			{Strike: 22000, CallOI: 1000, PutOI: 1500, CallOIChg: 10, PutOIChg: -5},
		},
	}

	out := decode(t, msg)
	if out["type"] != "option_chain" || out["symbol"] != "NIFTY" {
		t.Errorf("envelope = %v", out)
	}

	strikes := out["data"].([]any)
	strike := strikes[0].(map[string]any)
	want := map[string]float64{
		"strike": 22000, "call_oi": 1000, "put_oi": 1500,
		"call_oi_chg": 10, "put_oi_chg": -5,
	}
	for key, val := range want {
		if strike[key] != val {
			t.Errorf("strike[%q] = %v, want %v", key, strike[key], val)
		}
	}
	// Store key columns never leak onto the wire.
	for _, key := range []string{"Symbol", "Date", "Bucket"} {
		if _, ok := strike[key]; ok {
			t.Errorf("strike leaked %q", key)
		}
	}
}

func TestBreadthEnvelope(t *testing.T) {
	msg := BreadthMsg{
		Timestamp: 1767584700000,
		Breadth:   model.Breadth{Advances: 1200, Declines: 800, Unchanged: 67, Total: 2067, Source: "SCANNER_FALLBACK"},
	}

	out := decode(t, msg)
	data := out["data"].(map[string]any)
	if data["advances"] != float64(1200) || data["total"] != float64(2067) {
		t.Errorf("data = %v", data)
	}
	sectors := data["sectors"].(map[string]any)
	if sectors["source"] != "SCANNER_FALLBACK" {
		t.Errorf("sectors = %v", sectors)
	}
}

func TestPCREnvelope(t *testing.T) {
	out := decode(t, PCRMsg{Symbol: "BANKNIFTY", Timestamp: 5, PCR: 0.92})
	if out["symbol"] != "BANKNIFTY" {
		t.Errorf("symbol = %v", out["symbol"])
	}
	data := out["data"].(map[string]any)
	if data["pcr"] != 0.92 {
		t.Errorf("pcr = %v", data["pcr"])
	}
}

func mustMillis(t *testing.T, date, bucket string) int64 {
	t.Helper()
	ms, err := model.EpochMillis(date, bucket)
	if err != nil {
		t.Fatalf("EpochMillis(%s, %s): %v", date, bucket, err)
	}
	return ms
}

func TestBuildCandleUpdate(t *testing.T) {
	candles := []model.Candle{
		{Symbol: "TCS", Date: "2026-01-05", Bucket: "09:17", Open: 102, High: 103, Low: 101, Close: 102.5, Volume: 300},
		{Symbol: "TCS", Date: "2026-01-05", Bucket: "09:15", Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 100},
		{Symbol: "TCS", Date: "2026-01-05", Bucket: "09:16", Open: 100.5, High: 102, Low: 100, Close: 102, Volume: 200},
	}

	update, ok := BuildCandleUpdate("TCS", candles, 1.0)
	if !ok {
		t.Fatal("expected an update")
	}

	// Latest bucket wins regardless of input order.
	if update.OneMin.Close != 102.5 || update.OneMin.Volume != 300 {
		t.Errorf("1m = %+v", update.OneMin)
	}
	if update.Timestamp != mustMillis(t, "2026-01-05", "09:17") {
		t.Errorf("timestamp = %d", update.Timestamp)
	}

	// 5m frame folds the whole trailing window.
	if update.FiveMin.Open != 100 || update.FiveMin.Close != 102.5 {
		t.Errorf("5m open/close = %v/%v", update.FiveMin.Open, update.FiveMin.Close)
	}
	if update.FiveMin.High != 103 || update.FiveMin.Low != 99 {
		t.Errorf("5m high/low = %v/%v", update.FiveMin.High, update.FiveMin.Low)
	}
	if update.FiveMin.Volume != 600 {
		t.Errorf("5m volume = %d", update.FiveMin.Volume)
	}

	if update.OneMin.VWAP == 0 {
		t.Error("vwap missing")
	}
}

func TestBuildCandleUpdateEmpty(t *testing.T) {
	if _, ok := BuildCandleUpdate("TCS", nil, 1.0); ok {
		t.Error("expected no update for empty input")
	}
}

func TestSessionVWAPZeroVolume(t *testing.T) {
	candles := []model.Candle{
		{Date: "2026-01-05", Bucket: "09:15", High: 100, Low: 98, Close: 99},
		{Date: "2026-01-05", Bucket: "09:16", High: 101, Low: 99, Close: 100},
	}
	update, _ := BuildCandleUpdate("NIFTY", candles, 1.0)
	if update.OneMin.VWAP != 100 {
		t.Errorf("zero-volume vwap = %v, want last close 100", update.OneMin.VWAP)
	}
}
