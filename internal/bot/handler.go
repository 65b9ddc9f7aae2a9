// Package bot implements the chat commands on top of the session store, the
// return panel and the chart renderer.
package bot

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"CCLSentinel/internal/chart"
	"CCLSentinel/internal/metrics"
	"CCLSentinel/internal/model"
	"CCLSentinel/internal/notifier"
	"CCLSentinel/internal/panel"
	"CCLSentinel/internal/recorder"
	"CCLSentinel/internal/session"
)

const dateLayout = "2006-01-02"

// Responder delivers replies to a chat.
type Responder interface {
	Send(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, photo []byte, caption string) error
}

// Sessions is the per-chat settings store.
type Sessions interface {
	Get(chatID int64) (model.SessionState, error)
	Set(chatID int64, fields session.Fields) (model.SessionState, error)
	ToggleNormalize(chatID int64) (model.SessionState, error)
}

// Panel computes USD returns and series.
type Panel interface {
	BuildReturns(ctx context.Context, symbols []string, start, end time.Time) (*panel.Report, error)
	USDSeries(ctx context.Context, symbols []string, start, end time.Time, normalize bool) (*panel.Plot, error)
}

// Handler routes commands. It holds no per-chat state of its own, so Handle
// is safe to call from many goroutines.
type Handler struct {
	Sessions Sessions
	Panel    Panel
	Out      Responder
	Recorder recorder.Recorder
	// Universe is the symbol list ranked by /cclvars.
	Universe []string
}

// NewHandler creates a Handler ranking the default symbol universe.
func NewHandler(s Sessions, p Panel, out Responder, rec recorder.Recorder) *Handler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Handler{Sessions: s, Panel: p, Out: out, Recorder: rec, Universe: model.Universe()}
}

// outcome labels
const (
	outcomeOK       = "ok"
	outcomeInvalid  = "invalid"
	outcomeNoData   = "no_data"
	outcomeStorage  = "storage_error"
	outcomeError    = "error"
	outcomeNotFound = "unknown"
)

// Handle processes one update. Text that is not a command is ignored.
func (h *Handler) Handle(ctx context.Context, u notifier.Update) {
	cmd, args, ok := parseCommand(u.Text)
	if !ok {
		return
	}
	var outcome string
	switch cmd {
	case "start":
		outcome = h.start(ctx, u.ChatID)
	case "ini":
		outcome = h.setDate(ctx, u.ChatID, args, true)
	case "fin":
		outcome = h.setDate(ctx, u.ChatID, args, false)
	case "normalize":
		outcome = h.normalize(ctx, u.ChatID)
	case "cclvars":
		outcome = h.cclvars(ctx, u.ChatID, args)
	case "cclplot":
		outcome = h.cclplot(ctx, u.ChatID, args)
	default:
		h.reply(ctx, u.ChatID, notifier.MsgUnknown)
		outcome = outcomeNotFound
	}

	metrics.Commands.WithLabelValues(cmd, outcome).Inc()
	if err := h.Recorder.RecordCommand(&recorder.CommandEvent{ChatID: u.ChatID, Command: cmd, Outcome: outcome}); err != nil {
		log.Printf("[WARN] record command: %v", err)
	}
}

// parseCommand splits "/cmd@bot a b" into ("cmd", ["a", "b"]).
func parseCommand(text string) (string, []string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil, false
	}
	cmd := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	if cmd == "" {
		return "", nil, false
	}
	return strings.ToLower(cmd), fields[1:], true
}

func (h *Handler) start(ctx context.Context, chatID int64) string {
	st, err := h.Sessions.Get(chatID)
	if err != nil {
		return h.storageFailure(ctx, chatID, err)
	}
	h.reply(ctx, chatID, notifier.FormatHelp(st))
	return outcomeOK
}

func (h *Handler) setDate(ctx context.Context, chatID int64, args []string, isStart bool) string {
	if len(args) != 1 {
		usage := notifier.MsgUsageFin
		if isStart {
			usage = notifier.MsgUsageIni
		}
		h.reply(ctx, chatID, usage)
		return outcomeInvalid
	}
	d, err := time.Parse(dateLayout, args[0])
	if err != nil {
		h.reply(ctx, chatID, notifier.MsgInvalidDate)
		return outcomeInvalid
	}
	date := d.Format(dateLayout)
	fields := session.Fields{End: &date}
	if isStart {
		fields = session.Fields{Start: &date}
	}
	if _, err := h.Sessions.Set(chatID, fields); err != nil {
		return h.storageFailure(ctx, chatID, err)
	}
	h.reply(ctx, chatID, notifier.FormatDateSaved(isStart, date))
	return outcomeOK
}

func (h *Handler) normalize(ctx context.Context, chatID int64) string {
	st, err := h.Sessions.ToggleNormalize(chatID)
	if err != nil {
		return h.storageFailure(ctx, chatID, err)
	}
	h.reply(ctx, chatID, notifier.FormatNormalize(st.Normalize))
	return outcomeOK
}

func (h *Handler) cclvars(ctx context.Context, chatID int64, args []string) string {
	if len(args) != 2 {
		h.reply(ctx, chatID, notifier.MsgUsageVars)
		return outcomeInvalid
	}
	top, err1 := strconv.Atoi(args[0])
	bottom, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil || top <= 0 || bottom <= 0 {
		h.reply(ctx, chatID, notifier.MsgVarsInts)
		return outcomeInvalid
	}
	st, start, end, outcome := h.window(ctx, chatID)
	if outcome != "" {
		return outcome
	}

	h.reply(ctx, chatID, notifier.FormatComputing(top, bottom, st.Start, st.End))
	report, err := h.Panel.BuildReturns(ctx, h.Universe, start, end)
	if err != nil {
		return h.panelFailure(ctx, chatID, "generar gráfico", err)
	}
	if report.Table.Empty() {
		h.reply(ctx, chatID, notifier.MsgNoData)
		if report.Diagnostic != "" {
			h.reply(ctx, chatID, report.Diagnostic)
		}
		return outcomeNoData
	}

	img, err := chart.TopBottom(report.Table, top, bottom, start, end, st.Normalize)
	if err != nil {
		return h.panelFailure(ctx, chatID, "generar gráfico", err)
	}
	h.photo(ctx, chatID, img, notifier.FormatCaption("Top/Bottom", st.Start, st.End))
	if report.Diagnostic != "" {
		h.reply(ctx, chatID, report.Diagnostic)
	}

	if err := h.Recorder.RecordReturns(&recorder.ReturnRun{
		ChatID: chatID, Start: start, End: end, Normalize: st.Normalize,
		Table: report.Table, Omitted: report.Omitted,
	}); err != nil {
		log.Printf("[WARN] record returns: %v", err)
	}
	return outcomeOK
}

func (h *Handler) cclplot(ctx context.Context, chatID int64, args []string) string {
	if len(args) == 0 {
		h.reply(ctx, chatID, notifier.MsgUsagePlot)
		return outcomeInvalid
	}
	symbols := make([]string, len(args))
	for i, a := range args {
		symbols[i] = model.NormalizeSymbol(a)
	}
	st, start, end, outcome := h.window(ctx, chatID)
	if outcome != "" {
		return outcome
	}

	h.reply(ctx, chatID, notifier.FormatPlotting(symbols, st.Start, st.End))
	plot, err := h.Panel.USDSeries(ctx, symbols, start, end, st.Normalize)
	if err != nil {
		return h.panelFailure(ctx, chatID, "graficar "+strings.Join(model.DisplaySymbols(symbols), ", "), err)
	}
	img, err := chart.USDLines(plot.Series, start, end, st.Normalize)
	if err != nil {
		return h.panelFailure(ctx, chatID, "graficar", err)
	}

	names := make([]string, len(plot.Series))
	for i, s := range plot.Series {
		names[i] = s.Symbol
	}
	h.photo(ctx, chatID, img, notifier.FormatCaption(strings.Join(names, ", ")+" –", st.Start, st.End))
	if len(plot.Omitted) > 0 {
		h.reply(ctx, chatID, panel.OmissionDiagnostic(plot.Omitted))
	}

	if err := h.Recorder.RecordPlot(&recorder.PlotRun{
		ChatID: chatID, Symbols: symbols, Start: start, End: end,
		Normalize: st.Normalize, Omitted: plot.Omitted,
	}); err != nil {
		log.Printf("[WARN] record plot: %v", err)
	}
	return outcomeOK
}

// window loads the chat's date range. A non-empty outcome means the user has
// already been answered and the command must stop.
func (h *Handler) window(ctx context.Context, chatID int64) (model.SessionState, time.Time, time.Time, string) {
	st, err := h.Sessions.Get(chatID)
	if err != nil {
		return st, time.Time{}, time.Time{}, h.storageFailure(ctx, chatID, err)
	}
	if !st.HasRange() {
		h.reply(ctx, chatID, notifier.MsgNeedRange)
		return st, time.Time{}, time.Time{}, outcomeInvalid
	}
	start, err1 := time.Parse(dateLayout, st.Start)
	end, err2 := time.Parse(dateLayout, st.End)
	if err1 != nil || err2 != nil {
		h.reply(ctx, chatID, notifier.MsgNeedRange)
		return st, time.Time{}, time.Time{}, outcomeInvalid
	}
	if !start.Before(end) {
		h.reply(ctx, chatID, notifier.MsgRangeOrder)
		return st, time.Time{}, time.Time{}, outcomeInvalid
	}
	return st, start, end, ""
}

func (h *Handler) storageFailure(ctx context.Context, chatID int64, err error) string {
	ref := "?"
	var se *session.StorageError
	if errors.As(err, &se) {
		ref = se.CorrelationID
	}
	h.reply(ctx, chatID, notifier.FormatStorageError(ref))
	return outcomeStorage
}

func (h *Handler) panelFailure(ctx context.Context, chatID int64, what string, err error) string {
	if panel.IsDataUnavailable(err) || errors.Is(err, chart.ErrEmptyInput) {
		log.Printf("[INFO] chat %d: no data: %v", chatID, err)
		h.reply(ctx, chatID, notifier.MsgNoData)
		return outcomeNoData
	}
	log.Printf("[ERROR] chat %d: %s: %v", chatID, what, err)
	h.reply(ctx, chatID, notifier.FormatFailure(what, err))
	return outcomeError
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.Out.Send(ctx, chatID, text); err != nil {
		log.Printf("[ERROR] reply to chat %d: %v", chatID, err)
	}
}

func (h *Handler) photo(ctx context.Context, chatID int64, img []byte, caption string) {
	if err := h.Out.SendPhoto(ctx, chatID, img, caption); err != nil {
		log.Printf("[ERROR] photo to chat %d: %v", chatID, err)
	}
}
