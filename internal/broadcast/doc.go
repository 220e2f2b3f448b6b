// Package broadcast implements the subscriber-facing side of the bridge:
// the WebSocket hub that fans messages out to every connected subscriber,
// the typed message envelope, and the scheduler that drives the periodic
// candle, breadth, option-chain and PCR broadcasts.
//
// Delivery is best effort. A subscriber whose send fails is removed from
// the set; a slow subscriber never blocks delivery to the rest.
package broadcast
