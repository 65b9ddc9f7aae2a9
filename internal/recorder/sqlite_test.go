package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CCLSentinel/internal/model"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecorder_ReturnsAndHistory(t *testing.T) {
	r := openTestRecorder(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	table := model.NewReturnTable([]model.ReturnEntry{
		{Symbol: "GGAL.BA", Return: 12},
		{Symbol: "BMA.BA", Return: -4},
	})
	require.NoError(t, r.RecordReturns(&ReturnRun{ChatID: 9, Start: start, End: end, Table: table, Omitted: []string{"X.BA"}}))
	require.NoError(t, r.RecordPlot(&PlotRun{ChatID: 9, Symbols: []string{"GGAL.BA"}, Start: start, End: end}))
	require.NoError(t, r.RecordCommand(&CommandEvent{ChatID: 9, Command: "cclvars", Outcome: "ok"}))

	hist, err := r.History(10)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, int64(9), hist[0].ChatID)
	assert.Equal(t, "2024-01-01", hist[0].Start)
	assert.Equal(t, "2024-03-01", hist[0].End)
	assert.Equal(t, 2, hist[0].Ranked)
	assert.Equal(t, "X.BA", hist[0].Omitted)
	assert.Equal(t, "GGAL.BA", hist[0].Best)
	assert.Equal(t, 12.0, hist[0].BestRet)
}

func TestSQLiteRecorder_Prune(t *testing.T) {
	r := openTestRecorder(t)
	old := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return old }
	require.NoError(t, r.RecordReturns(&ReturnRun{Table: model.NewReturnTable([]model.ReturnEntry{{Symbol: "A.BA", Return: 1}})}))
	require.NoError(t, r.RecordPlot(&PlotRun{}))

	r.now = func() time.Time { return old.AddDate(1, 0, 0) }
	require.NoError(t, r.RecordReturns(&ReturnRun{}))

	n, err := r.Prune(old.AddDate(0, 6, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	hist, err := r.History(0)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, old.AddDate(1, 0, 0).Unix(), hist[0].Timestamp.Unix())

	var entries int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM return_entries`).Scan(&entries))
	assert.Zero(t, entries)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordReturns(&ReturnRun{}))
	n, err := r.Prune(time.Now())
	assert.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, r.Close())
}
