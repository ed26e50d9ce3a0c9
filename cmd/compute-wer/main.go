// Package main provides the CLI entrypoint for compute-wer.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/compute-wer/internal/config"
	"github.com/verte-zerg/compute-wer/internal/corpus"
	"github.com/verte-zerg/compute-wer/internal/eval"
	"github.com/verte-zerg/compute-wer/internal/logger"
	"github.com/verte-zerg/compute-wer/internal/model"
	"github.com/verte-zerg/compute-wer/internal/report"
	"github.com/verte-zerg/compute-wer/internal/stats"
	"github.com/verte-zerg/compute-wer/internal/statsui"
	"github.com/verte-zerg/compute-wer/internal/store"
)

const (
	defaultUnicode       = "none"
	defaultPadding       = report.PaddingSpace
	defaultFormat        = report.FormatText
	defaultColor         = "auto"
	defaultHistoryWindow = 20
	defaultHistoryTop    = 10
	defaultCurveWindow   = 5
)

var (
	evalChar          bool
	evalSort          bool
	evalCaseSensitive bool
	evalRemoveTag     bool
	evalIgnoreFile    string
	evalSplitFile     string
	evalClusterFile   string
	evalMaxWER        float64
	evalUnicode       string
	evalJobs          int
	evalVerbose       bool
	evalPadding       string
	evalWordsPerLine  int
	evalFormat        string
	evalTopErrors     int
	evalColor         string
	evalRecord        bool

	configPath string
	logLevel   string
	fileCfg    config.FileConfig

	historyRef         string
	historySince       string
	historyLast        int
	historyWindow      int
	historyTop         int
	historyCurveWindow int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		logError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "compute-wer [flags] REF HYP [OUTPUT]",
		Short:             "Compute word, character and sentence error rates",
		Args:              cobra.RangeArgs(2, 3),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
		RunE:              runEvaluateCmd,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/compute-wer/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	addEvalFlags(rootCmd)
	rootCmd.Flags().StringVar(&evalFormat, "format", defaultFormat, "output format: text, json or yaml")
	rootCmd.Flags().BoolVar(&evalRecord, "record", false, "store the run in the history database")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newBrowseCmd())

	return rootCmd
}

func addEvalFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&evalChar, "char", "c", false, "compute CER instead of WER")
	cmd.Flags().BoolVarP(&evalSort, "sort", "s", false, "sort utterances by error rate")
	cmd.Flags().BoolVar(&evalCaseSensitive, "case-sensitive", false, "keep letter case")
	cmd.Flags().BoolVar(&evalRemoveTag, "remove-tag", true, "drop <tag> tokens")
	cmd.Flags().StringVar(&evalIgnoreFile, "ignore-file", "", "file of tokens to drop")
	cmd.Flags().StringVar(&evalSplitFile, "split-file", "", "file of token expansions")
	cmd.Flags().StringVar(&evalClusterFile, "cluster-file", "", "file of named token clusters")
	cmd.Flags().Float64Var(&evalMaxWER, "max-wer", stats.Unbounded, "only count utterances whose rate is below this value")
	cmd.Flags().StringVar(&evalUnicode, "unicode", defaultUnicode, "unicode normalization: none, nfc or nfkc")
	cmd.Flags().IntVar(&evalJobs, "jobs", 0, "parallel alignment workers (0 = number of CPUs)")
	cmd.Flags().BoolVarP(&evalVerbose, "verbose", "v", true, "print every utterance alignment")
	cmd.Flags().StringVar(&evalPadding, "padding-symbol", defaultPadding, "padding symbol: space or underline")
	cmd.Flags().IntVar(&evalWordsPerLine, "max-words-per-line", 0, "wrap alignments after N tokens (0 = unlimited)")
	cmd.Flags().IntVar(&evalTopErrors, "top-errors", 0, "list the N weakest tokens")
	cmd.Flags().StringVar(&evalColor, "color", defaultColor, "highlight edits: auto, always or never")
}

// setup loads .env and the config file and installs the logger.
func setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadEnv(".env"); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	path := configPath
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	fileCfg = cfg

	level := config.LogLevel(fileCfg)
	if cmd.Flags().Changed("log-level") {
		level = logLevel
	}
	if err := logger.Init(os.Stderr, level); err != nil {
		return err
	}
	slog.Debug("config loaded", "path", path)
	return nil
}

func applyEvalConfig(cmd *cobra.Command) {
	ec := fileCfg.Evaluate
	applyBoolConfig(cmd, "char", &evalChar, ec.Char)
	applyBoolConfig(cmd, "sort", &evalSort, ec.Sort)
	applyBoolConfig(cmd, "case-sensitive", &evalCaseSensitive, ec.CaseSensitive)
	applyBoolConfig(cmd, "remove-tag", &evalRemoveTag, ec.RemoveTag)
	applyStringConfig(cmd, "ignore-file", &evalIgnoreFile, ec.IgnoreFile)
	applyStringConfig(cmd, "split-file", &evalSplitFile, ec.SplitFile)
	applyStringConfig(cmd, "cluster-file", &evalClusterFile, ec.ClusterFile)
	applyFloatConfig(cmd, "max-wer", &evalMaxWER, ec.MaxWER)
	applyStringConfig(cmd, "unicode", &evalUnicode, ec.Unicode)
	applyIntConfig(cmd, "jobs", &evalJobs, ec.Jobs)
	applyBoolConfig(cmd, "verbose", &evalVerbose, ec.Verbose)
	applyStringConfig(cmd, "padding-symbol", &evalPadding, ec.PaddingSymbol)
	applyIntConfig(cmd, "max-words-per-line", &evalWordsPerLine, ec.MaxWordsPerLine)
	applyIntConfig(cmd, "top-errors", &evalTopErrors, ec.TopErrors)
	applyStringConfig(cmd, "color", &evalColor, ec.Color)
	applyStringConfig(cmd, "format", &evalFormat, ec.Format)
	applyBoolConfig(cmd, "record", &evalRecord, ec.Record)
}

func evalConfig() model.Config {
	return model.Config{
		Char:          evalChar,
		Sort:          evalSort,
		CaseSensitive: evalCaseSensitive,
		RemoveTag:     evalRemoveTag,
		IgnoreFile:    evalIgnoreFile,
		SplitFile:     evalSplitFile,
		ClusterFile:   evalClusterFile,
		MaxWER:        evalMaxWER,
		Unicode:       evalUnicode,
		Jobs:          evalJobs,
	}
}

func reportOptions(colored bool) report.Options {
	return report.Options{
		Verbose:         evalVerbose,
		PaddingSymbol:   evalPadding,
		MaxWordsPerLine: evalWordsPerLine,
		Color:           colored,
		TopErrors:       evalTopErrors,
	}
}

func runEvaluateCmd(cmd *cobra.Command, args []string) error {
	applyEvalConfig(cmd)
	switch evalFormat {
	case report.FormatText, report.FormatJSON, report.FormatYAML:
	default:
		return fmt.Errorf("--format must be text, json or yaml, got %q", evalFormat)
	}
	toFile := len(args) == 3
	colored, err := resolveColor(evalColor, !toFile && evalFormat == report.FormatText && stdoutIsTerminal())
	if err != nil {
		return err
	}
	opts := reportOptions(colored)
	if err := opts.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := eval.Evaluate(ctx, evalConfig(), args[0], args[1])
	if err != nil {
		return err
	}

	if err := writeOutput(cmd.OutOrStdout(), args[2:], res, opts); err != nil {
		return err
	}

	if evalRecord {
		if !res.FileMode {
			slog.Warn("literal transcripts are not recorded")
			return nil
		}
		return recordRun(ctx, res)
	}
	return nil
}

func writeOutput(stdout io.Writer, outPath []string, res *eval.Result, opts report.Options) error {
	if len(outPath) == 0 {
		if _, err := fmt.Fprintln(stdout); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return report.Write(stdout, evalFormat, res, opts)
	}
	f, err := os.Create(outPath[0])
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := report.Write(f, evalFormat, res, opts); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	return nil
}

func recordRun(ctx context.Context, res *eval.Result) error {
	st, err := store.Open(config.DBPath(fileCfg))
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			slog.Warn("failed to close db", "err", cerr)
		}
	}()
	run, tokens, clusters := res.History(time.Now())
	id, runUUID, err := st.InsertRun(ctx, run, tokens, clusters)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	slog.Info("run recorded", "id", id, "uuid", runUUID)
	return nil
}

func resolveColor(mode string, auto bool) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		return auto, nil
	case "always":
		return true, nil
	case "never":
		return false, nil
	}
	return false, fmt.Errorf("--color must be auto, always or never, got %q", mode)
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := configPath
	if path == "" {
		path = config.ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		slog.Info("config created", "path", path)
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded runs",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyRef, "ref", "", "reference file filter")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N runs")
	cmd.Flags().IntVar(&historyWindow, "window", defaultHistoryWindow, "number of recent runs for weak tokens")
	cmd.Flags().IntVar(&historyTop, "top", defaultHistoryTop, "number of weak tokens to show")
	cmd.Flags().IntVar(&historyCurveWindow, "curve-window", defaultCurveWindow, "moving average window for trends")
	return cmd
}

func historyConfig(cmd *cobra.Command) (model.HistoryConfig, error) {
	hc := fileCfg.History
	applyIntConfig(cmd, "window", &historyWindow, hc.Window)
	applyIntConfig(cmd, "last", &historyLast, hc.Last)
	applyIntConfig(cmd, "top", &historyTop, hc.Top)

	since, err := parseSince(historySince)
	if err != nil {
		return model.HistoryConfig{}, err
	}
	if historyLast < 0 || historyWindow < 0 || historyTop < 0 {
		return model.HistoryConfig{}, fmt.Errorf("--last, --window and --top must be >= 0")
	}
	return model.HistoryConfig{
		Ref:    historyRef,
		Since:  since,
		Last:   historyLast,
		Window: historyWindow,
		Top:    historyTop,
	}, nil
}

func parseSince(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid --since value: %w", err)
	}
	return &parsed, nil
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := historyConfig(cmd)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DBPath(fileCfg))
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			slog.Warn("failed to close db", "err", cerr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rep, err := stats.BuildReport(ctx, st, cfg)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	return renderHistory(cmd.OutOrStdout(), rep, cfg)
}

func renderHistory(w io.Writer, rep stats.Report, cfg model.HistoryConfig) error {
	if len(rep.Runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded. Use --record to store a run.")
		return err
	}
	if err := stats.RenderSummary(w, rep.Runs); err != nil {
		return err
	}
	if err := stats.RenderRuns(w, rep.Runs, historyCurveWindow); err != nil {
		return err
	}
	title := fmt.Sprintf("Weakest Tokens (last %d runs)", len(rep.WindowRunIDs))
	if err := stats.RenderTokenTable(w, title, stats.WeakTokens(rep.TokensWindow, cfg.Top)); err != nil {
		return err
	}
	return stats.RenderTokenTrends(w, rep.Runs, rep.Trends, rep.TrendTokens, historyCurveWindow)
}

func newBrowseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse REF HYP",
		Short: "Browse an evaluation interactively",
		Args:  cobra.ExactArgs(2),
		RunE:  runBrowseCmd,
	}
	addEvalFlags(cmd)
	return cmd
}

func runBrowseCmd(cmd *cobra.Command, args []string) error {
	applyEvalConfig(cmd)
	opts := reportOptions(false)
	if err := opts.Validate(); err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := eval.Evaluate(ctx, evalConfig(), args[0], args[1])
	if err != nil {
		return err
	}

	program := tea.NewProgram(statsui.NewModel(res, opts), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run browser: %w", err)
	}
	return nil
}

func logError(err error) {
	var conflict *corpus.ConflictError
	var missing *eval.PreconditionError
	switch {
	case errors.As(err, &conflict):
		slog.Error("conflicting utterance", "kind", conflict.Kind, "id", conflict.ID, "first", conflict.First, "second", conflict.Second)
	case errors.As(err, &missing):
		slog.Error("missing input", "what", missing.What, "path", missing.Path)
	default:
		slog.Error(err.Error())
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# compute-wer configuration
# Uncomment a value to enable it. CLI flags override config values.

[evaluate]
# char = false                # Compute CER instead of WER
# sort = false                # Sort utterances by error rate
# case-sensitive = false      # Keep letter case
# remove-tag = true           # Drop <tag> tokens
# ignore-file = ""            # File of tokens to drop
# split-file = ""             # File of token expansions
# cluster-file = ""           # File of named token clusters
# max-wer = 100.0             # Only count utterances below this rate
# unicode = %q              # none, nfc or nfkc
# jobs = 0                    # Alignment workers (0 = number of CPUs)
# verbose = true              # Print every utterance alignment
# padding-symbol = %q      # space or underline
# max-words-per-line = 0      # Wrap alignments (0 = unlimited)
# format = %q              # text, json or yaml
# top-errors = 0              # List the N weakest tokens
# color = %q               # auto, always or never
# record = false              # Store runs in the history database

[history]
# db = ""                     # Database path (default %q)
# window = %d                 # Recent runs for weak tokens
# last = 0                    # Limit to last N runs
# top = %d                    # Weak tokens to show

[log]
# level = "warn"              # debug, info, warn or error
`,
		defaultUnicode,
		defaultPadding,
		defaultFormat,
		defaultColor,
		config.DefaultDBPath(),
		defaultHistoryWindow,
		defaultHistoryTop,
	)
}
