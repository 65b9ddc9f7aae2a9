// Package app builds the shared components from configuration for both
// binaries.
package app

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"CCLSentinel/internal/collector"
	"CCLSentinel/internal/config"
	"CCLSentinel/internal/filelock"
	"CCLSentinel/internal/panel"
	"CCLSentinel/internal/recorder"
	"CCLSentinel/internal/session"
)

// NewFetcher builds the provider chain: source, rate limiter, cache.
func NewFetcher(cfg *config.Config) *collector.CachingFetcher {
	ds := cfg.DataSource
	var source collector.Fetcher
	switch ds.Provider {
	case "rest":
		source = collector.NewRESTFetcher(ds.BaseURL, ds.APIKey, cfg.Proxy)
	default:
		source = collector.NewYahooFetcher(ds.BaseURL, cfg.Proxy)
	}
	cached := collector.NewCachingFetcher(collector.NewLimitedFetcher(source, ds.RequestsPerSecond, ds.Burst))
	log.Printf("[INFO] data source: %s", cached.Name())
	return cached
}

// NewPanel builds the return panel over f.
func NewPanel(cfg *config.Config, f collector.Fetcher) *panel.Builder {
	ds := cfg.DataSource
	return panel.NewBuilder(f, panel.Config{
		FetchTimeout:     ds.FetchTimeout,
		RetryTimeout:     ds.RetryTimeout,
		Concurrency:      ds.Concurrency,
		LocalReference:   ds.LocalReference,
		ForeignReference: ds.ForeignReference,
	})
}

// NewStore selects the lock backend and opens the session store. The state
// file's directory is created if needed.
func NewStore(cfg *config.Config) (*session.Store, error) {
	lock, err := filelock.Select(cfg.Storage.LockBackend)
	if err != nil {
		return nil, fmt.Errorf("lock backend: %w", err)
	}
	if dir := filepath.Dir(cfg.Storage.StateFile); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("state dir: %w", err)
		}
	}
	log.Printf("[INFO] session store %s (lock: %s, shared reads: %v)", cfg.Storage.StateFile, lock.Name(), lock.TrueShared())
	return session.NewStore(cfg.Storage.StateFile, lock), nil
}

// NewRecorder opens the SQLite history when configured and falls back to a
// no-op recorder otherwise.
func NewRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	if dir := filepath.Dir(cfg.Database.SQLitePath); dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}
