package symbol

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Sentinel errors returned by lookups.
var (
	// ErrNotFound means the canonical symbol has no known provider key.
	ErrNotFound = errors.New("symbol not found")

	// ErrNotInitialized means the catalog could not be loaded from either
	// the network or the disk cache.
	ErrNotInitialized = errors.New("instrument catalog not initialized")
)

// Retained catalog segments. Everything else (futures, options, currency
// derivatives) is dropped from the mapping table.
const (
	segmentEquity = "NSE_EQ"
	segmentIndex  = "NSE_INDEX"
)

// Index aliases: canonical short name -> catalog display/trading name.
var indexAliases = map[string]string{
	"NIFTY":     "Nifty 50",
	"BANKNIFTY": "Nifty Bank",
}

// Config holds resolver settings.
type Config struct {
	CatalogURL string        // Bulk instrument catalog (gzipped JSON)
	CachePath  string        // Disk cache written on successful download
	Timeout    time.Duration // Download timeout
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		CachePath: "instruments.json.gz",
		Timeout:   60 * time.Second,
	}
}

// Resolver maps canonical symbols to provider instrument keys.
// Safe for concurrent use; the bulk load runs at most once in flight.
type Resolver struct {
	cfg        Config
	logger     *slog.Logger
	httpClient *http.Client

	sf singleflight.Group

	mu          sync.RWMutex
	forward     map[string]string // upper-cased canonical symbol -> provider key
	reverse     map[string]string // provider key -> canonical symbol
	initialized bool
}

// New creates a Resolver. The mapping table is empty until Init (or the
// first lazy lookup) succeeds.
func New(cfg Config, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Resolver{
		cfg:        cfg,
		logger:     logger,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		forward:    make(map[string]string),
		reverse:    make(map[string]string),
	}
}

// Init loads the instrument catalog. Idempotent: a second call while
// already initialized is a no-op, and concurrent callers share a single
// in-flight load.
func (r *Resolver) Init(ctx context.Context) error {
	r.mu.RLock()
	done := r.initialized
	r.mu.RUnlock()
	if done {
		return nil
	}

	_, err, _ := r.sf.Do("init", func() (any, error) {
		return nil, r.load(ctx)
	})
	return err
}

// Initialized reports whether the catalog has been loaded.
func (r *Resolver) Initialized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.initialized
}

// Size returns the number of forward mappings.
func (r *Resolver) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.forward)
}

// Resolve returns the provider key for a canonical symbol. Lookup is
// case-insensitive. If the catalog is not loaded yet, Resolve attempts one
// lazy initialization before answering.
func (r *Resolver) Resolve(ctx context.Context, symbol string) (string, error) {
	if err := r.Init(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotInitialized, err)
	}

	r.mu.RLock()
	key, ok := r.forward[strings.ToUpper(symbol)]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, symbol)
	}
	return key, nil
}

// ReverseResolve returns the canonical symbol for a provider key, or the
// key itself when unknown. Unknown keys are not an error: downstream
// consumers treat the key as a display name of last resort.
func (r *Resolver) ReverseResolve(ctx context.Context, key string) string {
	// Best-effort lazy init; a failure here just means "unknown".
	_ = r.Init(ctx)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if sym, ok := r.reverse[key]; ok {
		return sym
	}
	return key
}

// load fetches the catalog (network first, disk cache second) and builds
// the mapping tables.
func (r *Resolver) load(ctx context.Context) error {
	content, fromCache, err := r.fetchCatalog(ctx)
	if err != nil {
		return err
	}

	instruments, err := parseCatalog(content)
	if err != nil {
		return fmt.Errorf("parse instrument catalog: %w", err)
	}

	forward := make(map[string]string, len(instruments))
	reverse := make(map[string]string, len(instruments))

	for _, inst := range instruments {
		if inst.Segment != segmentEquity && inst.Segment != segmentIndex {
			continue
		}

		name := strings.ToUpper(inst.TradingSymbol)

		// Broad-market indices get a short canonical alias in place of
		// their catalog trading name, so the forward and reverse maps
		// stay one-to-one.
		if inst.Segment == segmentIndex {
			if alias, ok := aliasFor(inst); ok {
				name = alias
			}
		}

		forward[name] = inst.InstrumentKey
		reverse[inst.InstrumentKey] = name
	}

	if len(forward) == 0 {
		return errors.New("instrument catalog contained no equity or index instruments")
	}

	r.mu.Lock()
	r.forward = forward
	r.reverse = reverse
	r.initialized = true
	r.mu.Unlock()

	r.logger.Info("instrument catalog loaded",
		"instruments", len(forward),
		"from_cache", fromCache,
	)
	return nil
}

// fetchCatalog downloads the catalog, falling back to the disk cache.
// A successful download is written through to the cache for next time.
func (r *Resolver) fetchCatalog(ctx context.Context) (content []byte, fromCache bool, err error) {
	content, dlErr := r.download(ctx)
	if dlErr == nil {
		if r.cfg.CachePath != "" {
			if werr := os.WriteFile(r.cfg.CachePath, content, 0o644); werr != nil {
				r.logger.Warn("failed to write catalog cache", "path", r.cfg.CachePath, "error", werr)
			}
		}
		return content, false, nil
	}

	r.logger.Warn("catalog download failed, trying disk cache",
		"url", r.cfg.CatalogURL,
		"error", dlErr,
	)

	if r.cfg.CachePath != "" {
		cached, cerr := os.ReadFile(r.cfg.CachePath)
		if cerr == nil {
			return cached, true, nil
		}
		return nil, false, fmt.Errorf("catalog download failed (%w) and cache read failed (%w)", dlErr, cerr)
	}

	return nil, false, fmt.Errorf("catalog download failed: %w", dlErr)
}

func (r *Resolver) download(ctx context.Context) ([]byte, error) {
	if r.cfg.CatalogURL == "" {
		return nil, errors.New("no catalog URL configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.CatalogURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog download status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// aliasFor matches an index instrument against the known alias table by
// catalog display name or trading symbol.
func aliasFor(inst instrument) (string, bool) {
	for alias, catalogName := range indexAliases {
		if inst.Name == catalogName || inst.TradingSymbol == catalogName {
			return alias, true
		}
	}
	return "", false
}

// instrument is the catalog wire format (one entry per tradable instrument).
type instrument struct {
	Segment       string `json:"segment"`
	Name          string `json:"name"`
	TradingSymbol string `json:"trading_symbol"`
	InstrumentKey string `json:"instrument_key"`
}

// parseCatalog decompresses and decodes the gzipped JSON catalog.
func parseCatalog(content []byte) ([]instrument, error) {
	gz, err := gzip.NewReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer gz.Close()

	var instruments []instrument
	if err := json.NewDecoder(gz).Decode(&instruments); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return instruments, nil
}
