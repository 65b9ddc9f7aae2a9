package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CCLSentinel/internal/config"
	"CCLSentinel/internal/recorder"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	cfg.Storage.StateFile = filepath.Join(t.TempDir(), "nested", "sessions.json")
	return cfg
}

func TestNewStore_CreatesDirAndWorks(t *testing.T) {
	cfg := testConfig(t)
	s, err := NewStore(cfg)
	require.NoError(t, err)
	_, err = s.ToggleNormalize(1)
	require.NoError(t, err)
}

func TestNewStore_BadBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.LockBackend = "nope"
	_, err := NewStore(cfg)
	assert.Error(t, err)
}

func TestNewRecorder(t *testing.T) {
	cfg := testConfig(t)
	_, isNoop := NewRecorder(cfg).(*recorder.NoopRecorder)
	assert.True(t, isNoop)

	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "db", "history.db")
	rec := NewRecorder(cfg)
	defer rec.Close()
	_, isSQLite := rec.(*recorder.SQLiteRecorder)
	assert.True(t, isSQLite)
}

func TestNewFetcherAndPanel(t *testing.T) {
	cfg := testConfig(t)
	f := NewFetcher(cfg)
	assert.Equal(t, "yahoo+cache", f.Name())

	cfg.DataSource.Provider = "rest"
	cfg.DataSource.BaseURL = "http://localhost:1"
	f = NewFetcher(cfg)
	assert.Equal(t, "rest+cache", f.Name())
	assert.NotNil(t, NewPanel(cfg, f))
}
