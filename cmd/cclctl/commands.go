package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/subcommands"

	"CCLSentinel/internal/app"
	"CCLSentinel/internal/chart"
	"CCLSentinel/internal/config"
	"CCLSentinel/internal/model"
	"CCLSentinel/internal/session"
)

var commands = []subcommands.Command{
	&returnsCmd{},
	&rateCmd{},
	&plotCmd{},
	&sessionCmd{},
	&historyCmd{},
}

const dateLayout = "2006-01-02"

// common holds the flags every command shares.
type common struct {
	configPath string
	start, end string
}

func (c *common) setFlags(f *flag.FlagSet, withWindow bool) {
	def := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		def = v
	}
	f.StringVar(&c.configPath, "config", def, "path to the YAML config")
	if withWindow {
		f.StringVar(&c.start, "from", "", "start date YYYY-MM-DD (inclusive)")
		f.StringVar(&c.end, "to", "", "end date YYYY-MM-DD (exclusive)")
	}
}

func (c *common) load() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *common) window() (time.Time, time.Time, error) {
	return parseWindow(c.start, c.end)
}

func parseWindow(from, to string) (time.Time, time.Time, error) {
	if from == "" || to == "" {
		return time.Time{}, time.Time{}, errors.New("-from and -to are required")
	}
	start, err := time.Parse(dateLayout, from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid -from: %w", err)
	}
	end, err := time.Parse(dateLayout, to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid -to: %w", err)
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, errors.New("-from must be before -to")
	}
	return start, end, nil
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

func usage(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitUsageError
}

type returnsCmd struct {
	common
	top, bottom int
	symbols     string
}

func (*returnsCmd) Name() string     { return "returns" }
func (*returnsCmd) Synopsis() string { return "rank USD returns over a date window" }
func (*returnsCmd) Usage() string {
	return `cclctl returns -from <date> -to <date> [-top n] [-bottom n] [-symbols A,B]

  Prints the USD total return of each symbol, converted at the implied
  CCL rate, sorted ascending. -top/-bottom restrict the listing.
`
}

func (c *returnsCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f, true)
	f.IntVar(&c.top, "top", 0, "only print the n best")
	f.IntVar(&c.bottom, "bottom", 0, "only print the n worst")
	f.StringVar(&c.symbols, "symbols", "", "comma separated tickers (default: full universe)")
}

func (c *returnsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	start, end, err := c.window()
	if err != nil {
		return usage(err)
	}
	cfg, err := c.load()
	if err != nil {
		return fail(err)
	}
	symbols := model.Universe()
	if c.symbols != "" {
		symbols = splitSymbols(c.symbols)
	}

	report, err := app.NewPanel(cfg, app.NewFetcher(cfg)).BuildReturns(ctx, symbols, start, end)
	if err != nil {
		return fail(err)
	}
	entries := report.Table.Entries()
	switch {
	case c.top > 0 && c.bottom > 0:
		entries = append(report.Table.Top(c.top), report.Table.Bottom(c.bottom)...)
	case c.top > 0:
		entries = report.Table.Top(c.top)
	case c.bottom > 0:
		entries = report.Table.Bottom(c.bottom)
	}
	printEntries(os.Stdout, entries)
	if report.Diagnostic != "" {
		fmt.Fprintln(os.Stderr, report.Diagnostic)
	}
	return subcommands.ExitSuccess
}

func printEntries(w io.Writer, entries []model.ReturnEntry) {
	for _, e := range entries {
		fmt.Fprintf(w, "%-8s %+8.2f%%\n", model.DisplaySymbol(e.Symbol), e.Return)
	}
}

func splitSymbols(list string) []string {
	var out []string
	for _, s := range strings.Split(list, ",") {
		if strings.TrimSpace(s) != "" {
			out = append(out, model.NormalizeSymbol(s))
		}
	}
	return out
}

type rateCmd struct {
	common
}

func (*rateCmd) Name() string     { return "rate" }
func (*rateCmd) Synopsis() string { return "print the implied CCL rate per day" }
func (*rateCmd) Usage() string {
	return `cclctl rate -from <date> -to <date>

  Prints one line per calendar day with the forward-filled implied rate.
`
}

func (c *rateCmd) SetFlags(f *flag.FlagSet) { c.setFlags(f, true) }

func (c *rateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	start, end, err := c.window()
	if err != nil {
		return usage(err)
	}
	cfg, err := c.load()
	if err != nil {
		return fail(err)
	}
	rate, err := app.NewPanel(cfg, app.NewFetcher(cfg)).Rate(ctx, start, end)
	if err != nil {
		return fail(err)
	}
	for _, p := range rate.Points {
		if math.IsNaN(p.Value) {
			fmt.Printf("%s        -\n", p.Time.Format(dateLayout))
			continue
		}
		fmt.Printf("%s %10.4f\n", p.Time.Format(dateLayout), p.Value)
	}
	return subcommands.ExitSuccess
}

type plotCmd struct {
	common
	out       string
	normalize bool
}

func (*plotCmd) Name() string     { return "plot" }
func (*plotCmd) Synopsis() string { return "write a USD line chart PNG" }
func (*plotCmd) Usage() string {
	return `cclctl plot -from <date> -to <date> [-normalize] [-o file.png] TICKER [TICKER ...]
`
}

func (c *plotCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f, true)
	f.StringVar(&c.out, "o", "ccl.png", "output file")
	f.BoolVar(&c.normalize, "normalize", false, "rebase every series to 100 at its first value")
}

func (c *plotCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return usage(errors.New("at least one ticker is required"))
	}
	start, end, err := c.window()
	if err != nil {
		return usage(err)
	}
	cfg, err := c.load()
	if err != nil {
		return fail(err)
	}
	symbols := splitSymbols(strings.Join(f.Args(), ","))
	plot, err := app.NewPanel(cfg, app.NewFetcher(cfg)).USDSeries(ctx, symbols, start, end, c.normalize)
	if err != nil {
		return fail(err)
	}
	img, err := chart.USDLines(plot.Series, start, end, c.normalize)
	if err != nil {
		return fail(err)
	}
	if err := os.WriteFile(c.out, img, 0o644); err != nil {
		return fail(err)
	}
	fmt.Printf("wrote %s\n", c.out)
	return subcommands.ExitSuccess
}

type sessionCmd struct {
	common
	setStart, setEnd string
	toggle           bool
}

func (*sessionCmd) Name() string     { return "session" }
func (*sessionCmd) Synopsis() string { return "show or edit a chat's stored settings" }
func (*sessionCmd) Usage() string {
	return `cclctl session [-start <date>] [-end <date>] [-toggle] <chat id>

  Without flags prints the stored settings. Edits go through the same
  locked store the bot uses, so it is safe to run while the bot is up.
`
}

func (c *sessionCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f, false)
	f.StringVar(&c.setStart, "start", "", "set the start date")
	f.StringVar(&c.setEnd, "end", "", "set the end date")
	f.BoolVar(&c.toggle, "toggle", false, "flip the normalize flag")
}

func (c *sessionCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usage(errors.New("exactly one chat id is required"))
	}
	chatID, err := strconv.ParseInt(f.Arg(0), 10, 64)
	if err != nil {
		return usage(fmt.Errorf("invalid chat id: %w", err))
	}
	var fields session.Fields
	for _, d := range []struct {
		val string
		dst **string
	}{{c.setStart, &fields.Start}, {c.setEnd, &fields.End}} {
		if d.val == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, d.val); err != nil {
			return usage(fmt.Errorf("invalid date %q", d.val))
		}
		v := d.val
		*d.dst = &v
	}

	cfg, err := c.load()
	if err != nil {
		return fail(err)
	}
	store, err := app.NewStore(cfg)
	if err != nil {
		return fail(err)
	}

	st, err := runSession(store, chatID, fields, c.toggle)
	if err != nil {
		return fail(err)
	}
	fmt.Print(formatSession(chatID, st))
	return subcommands.ExitSuccess
}

func runSession(store *session.Store, chatID int64, fields session.Fields, toggle bool) (model.SessionState, error) {
	if fields.Start != nil || fields.End != nil {
		if _, err := store.Set(chatID, fields); err != nil {
			return model.SessionState{}, err
		}
	}
	if toggle {
		return store.ToggleNormalize(chatID)
	}
	return store.Get(chatID)
}

func formatSession(chatID int64, st model.SessionState) string {
	show := func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	}
	return fmt.Sprintf("chat %d: start=%s end=%s normalize=%v\n", chatID, show(st.Start), show(st.End), st.Normalize)
}

type historyCmd struct {
	common
	limit int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "list recently served return rankings" }
func (*historyCmd) Usage() string {
	return `cclctl history [-n 20]
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f, false)
	f.IntVar(&c.limit, "n", 20, "number of runs")
}

func (c *historyCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := c.load()
	if err != nil {
		return fail(err)
	}
	if cfg.Database.SQLitePath == "" {
		return fail(errors.New("database.sqlite_path is not configured"))
	}
	rec := app.NewRecorder(cfg)
	defer rec.Close()

	runs, err := rec.History(c.limit)
	if err != nil {
		return fail(err)
	}
	for _, r := range runs {
		fmt.Printf("%4d %s chat=%d %s→%s ranked=%d best=%s %+.2f%%",
			r.ID, r.Timestamp.Format("2006-01-02 15:04"), r.ChatID, r.Start, r.End, r.Ranked,
			model.DisplaySymbol(r.Best), r.BestRet)
		if r.Omitted != "" {
			fmt.Printf(" omitted=%s", r.Omitted)
		}
		fmt.Println()
	}
	return subcommands.ExitSuccess
}
