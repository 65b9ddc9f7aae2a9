package recorder

import (
	"time"

	"CCLSentinel/internal/model"
)

// ReturnRun is one ranked return table served to a chat.
type ReturnRun struct {
	ChatID    int64
	Start     time.Time
	End       time.Time
	Normalize bool
	Table     model.ReturnTable
	Omitted   []string
}

// PlotRun is one USD line chart served to a chat.
type PlotRun struct {
	ChatID    int64
	Symbols   []string
	Start     time.Time
	End       time.Time
	Normalize bool
	Omitted   []string
}

// CommandEvent is one handled command and how it ended.
type CommandEvent struct {
	ChatID  int64
	Command string
	Outcome string // "ok", "invalid", "no_data", "storage_error", "error"
}

// RunSummary is a stored ReturnRun as listed by History.
type RunSummary struct {
	ID        int64
	Timestamp time.Time
	ChatID    int64
	Start     string
	End       string
	Ranked    int
	Omitted   string
	Best      string
	BestRet   float64
}

// Recorder persists served results for later analysis.
type Recorder interface {
	RecordReturns(run *ReturnRun) error
	RecordPlot(run *PlotRun) error
	RecordCommand(evt *CommandEvent) error
	History(limit int) ([]RunSummary, error)
	// Prune deletes everything recorded before cutoff and returns the number of runs removed.
	Prune(cutoff time.Time) (int64, error)
	Close() error
}
