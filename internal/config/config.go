package config

import "time"

// BridgeConfig is the root configuration for a bridge or replay instance.
type BridgeConfig struct {
	Instance  InstanceConfig  `yaml:"instance"`
	Server    ServerConfig    `yaml:"server"`
	Symbols   SymbolsConfig   `yaml:"symbols"`
	Resolver  ResolverConfig  `yaml:"resolver"`
	Providers ProvidersConfig `yaml:"providers"`
	Database  DBConfig        `yaml:"database"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	Replay    ReplayConfig    `yaml:"replay"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// InstanceConfig identifies this bridge.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// ServerConfig holds the WebSocket transport settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// SymbolsConfig holds the watchlist and the tracked index symbols.
type SymbolsConfig struct {
	Watchlist []string `yaml:"watchlist"`
	Indices   []string `yaml:"indices"`
}

// ResolverConfig holds instrument catalog settings for the symbol resolver.
type ResolverConfig struct {
	CatalogURL string        `yaml:"catalog_url"`
	CachePath  string        `yaml:"cache_path"`
	Timeout    time.Duration `yaml:"timeout"`
}

// ProvidersConfig holds the ranked provider tiers per data kind.
// Tiers are tried in list order; the first structurally valid result wins.
type ProvidersConfig struct {
	Candles []ProviderConfig `yaml:"candles"`
	Breadth []ProviderConfig `yaml:"breadth"`
	Options []ProviderConfig `yaml:"options"`
}

// ProviderConfig holds a single provider endpoint.
type ProviderConfig struct {
	Name    string        `yaml:"name"`
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// DBConfig holds the snapshot store connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// BroadcastConfig holds the periodic task intervals.
type BroadcastConfig struct {
	CandleInterval  time.Duration `yaml:"candle_interval"`
	BreadthInterval time.Duration `yaml:"breadth_interval"`
	OptionInterval  time.Duration `yaml:"option_interval"`
	PCRInterval     time.Duration `yaml:"pcr_interval"`
}

// ReplayConfig holds backtest replay settings.
type ReplayConfig struct {
	StartupGrace time.Duration `yaml:"startup_grace"`
	StartTime    string        `yaml:"start_time"`
	EndTime      string        `yaml:"end_time"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
