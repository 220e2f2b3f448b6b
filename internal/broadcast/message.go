package broadcast

import (
	"encoding/json"

	"github.com/maheshdev/marketbridge/internal/model"
)

// MessageType identifies a wire message variant.
type MessageType string

const (
	TypeCandleUpdate  MessageType = "candle_update"
	TypeOptionChain   MessageType = "option_chain"
	TypeMarketBreadth MessageType = "market_breadth"
	TypePCRUpdate     MessageType = "pcr_update"
)

// envelope is the outer wire shape shared by every message type.
type envelope struct {
	Type      MessageType `json:"type"`
	Timestamp int64       `json:"timestamp,omitempty"`
	Symbol    string      `json:"symbol,omitempty"`
	Data      any         `json:"data"`
}

// Message is the closed set of wire messages. Each variant knows how to
// lay itself out in the shared envelope; consumers built against the live
// bridge and against replay see identical shapes.
type Message interface {
	MessageType() MessageType
	envelope() envelope
}

// Encode marshals a message into its wire envelope.
func Encode(m Message) ([]byte, error) {
	return json.Marshal(m.envelope())
}

// CandleBatch carries one update per active symbol for a single minute.
type CandleBatch struct {
	Timestamp int64 // Epoch ms, minute-aligned
	Updates   []model.CandleUpdate
}

func (CandleBatch) MessageType() MessageType { return TypeCandleUpdate }

func (m CandleBatch) envelope() envelope {
	updates := m.Updates
	if updates == nil {
		updates = []model.CandleUpdate{}
	}
	return envelope{Type: TypeCandleUpdate, Timestamp: m.Timestamp, Data: updates}
}

// OptionChainMsg carries the per-strike open interest for one index.
type OptionChainMsg struct {
	Symbol    string
	Timestamp int64
	Strikes   []model.OptionStrike
}

func (OptionChainMsg) MessageType() MessageType { return TypeOptionChain }

func (m OptionChainMsg) envelope() envelope {
	strikes := m.Strikes
	if strikes == nil {
		strikes = []model.OptionStrike{}
	}
	return envelope{Type: TypeOptionChain, Timestamp: m.Timestamp, Symbol: m.Symbol, Data: strikes}
}

// BreadthMsg carries market-wide advance/decline counts.
type BreadthMsg struct {
	Timestamp int64
	Breadth   model.Breadth
}

func (BreadthMsg) MessageType() MessageType { return TypeMarketBreadth }

func (m BreadthMsg) envelope() envelope {
	sectors := map[string]string{}
	if m.Breadth.Source != "" {
		sectors["source"] = m.Breadth.Source
	}
	return envelope{
		Type:      TypeMarketBreadth,
		Timestamp: m.Timestamp,
		Data: map[string]any{
			"advances":  m.Breadth.Advances,
			"declines":  m.Breadth.Declines,
			"unchanged": m.Breadth.Unchanged,
			"total":     m.Breadth.Total,
			"sectors":   sectors,
		},
	}
}

// PCRMsg carries the put-call ratio for one index.
type PCRMsg struct {
	Symbol    string
	Timestamp int64
	PCR       float64
}

func (PCRMsg) MessageType() MessageType { return TypePCRUpdate }

func (m PCRMsg) envelope() envelope {
	return envelope{
		Type:      TypePCRUpdate,
		Timestamp: m.Timestamp,
		Symbol:    m.Symbol,
		Data:      map[string]float64{"pcr": m.PCR},
	}
}
