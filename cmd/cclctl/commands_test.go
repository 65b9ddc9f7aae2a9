package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CCLSentinel/internal/filelock"
	"CCLSentinel/internal/model"
	"CCLSentinel/internal/session"
)

func TestParseWindow(t *testing.T) {
	start, end, err := parseWindow("2024-01-01", "2024-02-01")
	require.NoError(t, err)
	assert.True(t, start.Before(end))

	for _, tc := range [][2]string{{"", "2024-01-01"}, {"2024-01-01", "x"}, {"2024-02-01", "2024-01-01"}} {
		_, _, err := parseWindow(tc[0], tc[1])
		assert.Error(t, err, "%v", tc)
	}
}

func TestSplitSymbols(t *testing.T) {
	assert.Equal(t, []string{"GGAL.BA", "BMA.BA"}, splitSymbols("ggal, BMA.BA,,"))
}

func TestRunSession(t *testing.T) {
	lock, err := filelock.Select(filelock.KindAuto)
	require.NoError(t, err)
	store := session.NewStore(filepath.Join(t.TempDir(), "s.json"), lock)

	start := "2024-01-01"
	st, err := runSession(store, 5, session.Fields{Start: &start}, true)
	require.NoError(t, err)
	assert.Equal(t, model.SessionState{Start: start, Normalize: true}, st)
	assert.Equal(t, "chat 5: start=2024-01-01 end=- normalize=true\n", formatSession(5, st))

	st, err = runSession(store, 5, session.Fields{}, false)
	require.NoError(t, err)
	assert.True(t, st.Normalize)
}

func TestCommandsHaveUniqueNames(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range commands {
		assert.False(t, seen[c.Name()], c.Name())
		seen[c.Name()] = true
		assert.NotEmpty(t, c.Synopsis())
	}
}
