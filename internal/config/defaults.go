package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultServerHost      = "localhost"
	DefaultServerPort      = 8765
	DefaultCatalogURL      = "https://assets.upstox.com/market-quote/instruments/exchange/NSE.json.gz"
	DefaultCachePath       = "instruments.json.gz"
	DefaultResolverTimeout = 60 * time.Second
	DefaultProviderTimeout = 10 * time.Second
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultMaxConns        = 10
	DefaultMinConns        = 2
	DefaultCandleInterval  = 10 * time.Second
	DefaultBreadthInterval = 30 * time.Second
	DefaultOptionInterval  = 60 * time.Second
	DefaultPCRInterval     = 60 * time.Second
	DefaultReplayGrace     = 2 * time.Second
	DefaultReplayStart     = "09:15"
	DefaultReplayEnd       = "15:30"
	DefaultMetricsPort     = 9090
	DefaultMetricsPath     = "/metrics"
)

// DefaultWatchlist mirrors the instruments the bridge has always scanned.
var DefaultWatchlist = []string{
	"RELIANCE", "SBIN", "ADANIENT", "NIFTY", "BANKNIFTY",
	"HDFCBANK", "ICICIBANK", "INFY", "TCS", "BHARTIARTL",
	"ITC", "KOTAKBANK", "HINDUNILVR", "LT", "AXISBANK",
	"MARUTI", "SUNPHARMA", "TITAN", "ULTRACEMCO", "WIPRO",
	"BAJFINANCE", "ASIANPAINT", "HCLTECH", "NTPC", "POWERGRID",
}

// DefaultIndices are the symbols tracked for option chain and PCR feeds.
var DefaultIndices = []string{"NIFTY", "BANKNIFTY"}

func (c *BridgeConfig) applyDefaults() {
	// Server defaults
	if c.Server.Host == "" {
		c.Server.Host = DefaultServerHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}

	// Symbol defaults
	if len(c.Symbols.Watchlist) == 0 {
		c.Symbols.Watchlist = append([]string(nil), DefaultWatchlist...)
	}
	if len(c.Symbols.Indices) == 0 {
		c.Symbols.Indices = append([]string(nil), DefaultIndices...)
	}

	// Resolver defaults
	if c.Resolver.CatalogURL == "" {
		c.Resolver.CatalogURL = DefaultCatalogURL
	}
	if c.Resolver.CachePath == "" {
		c.Resolver.CachePath = DefaultCachePath
	}
	if c.Resolver.Timeout == 0 {
		c.Resolver.Timeout = DefaultResolverTimeout
	}

	// Provider defaults
	applyProviderDefaults(c.Providers.Candles)
	applyProviderDefaults(c.Providers.Breadth)
	applyProviderDefaults(c.Providers.Options)

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Broadcast defaults
	if c.Broadcast.CandleInterval == 0 {
		c.Broadcast.CandleInterval = DefaultCandleInterval
	}
	if c.Broadcast.BreadthInterval == 0 {
		c.Broadcast.BreadthInterval = DefaultBreadthInterval
	}
	if c.Broadcast.OptionInterval == 0 {
		c.Broadcast.OptionInterval = DefaultOptionInterval
	}
	if c.Broadcast.PCRInterval == 0 {
		c.Broadcast.PCRInterval = DefaultPCRInterval
	}

	// Replay defaults
	if c.Replay.StartupGrace == 0 {
		c.Replay.StartupGrace = DefaultReplayGrace
	}
	if c.Replay.StartTime == "" {
		c.Replay.StartTime = DefaultReplayStart
	}
	if c.Replay.EndTime == "" {
		c.Replay.EndTime = DefaultReplayEnd
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

func applyProviderDefaults(providers []ProviderConfig) {
	for i := range providers {
		if providers[i].Timeout == 0 {
			providers[i].Timeout = DefaultProviderTimeout
		}
	}
}
