package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate checks that all required fields are set and values are valid.
func (c *BridgeConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if len(c.Symbols.Watchlist) == 0 {
		return errors.New("symbols.watchlist must not be empty")
	}
	watch := make(map[string]struct{}, len(c.Symbols.Watchlist))
	for _, s := range c.Symbols.Watchlist {
		watch[s] = struct{}{}
	}
	for _, idx := range c.Symbols.Indices {
		if _, ok := watch[idx]; !ok {
			return fmt.Errorf("symbols.indices entry %q is not in symbols.watchlist", idx)
		}
	}

	if err := validateProviders("providers.candles", c.Providers.Candles); err != nil {
		return err
	}
	if err := validateProviders("providers.breadth", c.Providers.Breadth); err != nil {
		return err
	}
	if err := validateProviders("providers.options", c.Providers.Options); err != nil {
		return err
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	intervals := []struct {
		name string
		d    time.Duration
	}{
		{"broadcast.candle_interval", c.Broadcast.CandleInterval},
		{"broadcast.breadth_interval", c.Broadcast.BreadthInterval},
		{"broadcast.option_interval", c.Broadcast.OptionInterval},
		{"broadcast.pcr_interval", c.Broadcast.PCRInterval},
	}
	for _, iv := range intervals {
		if iv.d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", iv.name, iv.d)
		}
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}

func validateProviders(prefix string, providers []ProviderConfig) error {
	seen := make(map[string]struct{}, len(providers))
	for i, p := range providers {
		if p.Name == "" {
			return fmt.Errorf("%s[%d].name is required", prefix, i)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("%s has duplicate provider name %q", prefix, p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
