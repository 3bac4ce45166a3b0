// Package main provides the CLI entrypoint for seatplay.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/seatplay/internal/backend"
	"github.com/verte-zerg/seatplay/internal/config"
	"github.com/verte-zerg/seatplay/internal/logger"
	"github.com/verte-zerg/seatplay/internal/record"
	"github.com/verte-zerg/seatplay/internal/seat"
	"github.com/verte-zerg/seatplay/internal/tui"
)

const (
	defaultIntervalMs   = 1000
	defaultFallbackRows = 3
	defaultFallbackCols = 3
	defaultBackendURL   = "http://127.0.0.1:5000"
	defaultTimeoutMs    = 30000
	defaultServerAddr   = "127.0.0.1:5000"
)

var (
	playIntervalMs   int
	playFallbackRows int
	playFallbackCols int
	playSource       string

	backendURL       string
	backendTimeoutMs int
)

func main() {
	loadDotEnv()
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logErrf("failed to load .env: %v\n", err)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "seatplay [record]",
		Short:         "Replay library seat simulations",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.MaximumNArgs(1),
		RunE:          runViewCmd,
	}
	addPlaybackFlags(rootCmd)

	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newPlotCmd())
	rootCmd.AddCommand(newRecordsCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newRangeCmd())
	rootCmd.AddCommand(newFormCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newFiguresCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newConfigCmd())
	return rootCmd
}

func addPlaybackFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&playIntervalMs, "interval-ms", defaultIntervalMs, "playback tick interval in milliseconds")
	cmd.Flags().IntVar(&playFallbackRows, "fallback-rows", defaultFallbackRows, "grid rows for steps without seat state")
	cmd.Flags().IntVar(&playFallbackCols, "fallback-cols", defaultFallbackCols, "grid columns for steps without seat state")
	cmd.Flags().StringVar(&playSource, "source", config.DefaultRecordSource(), "record directory or http(s) URL of a record server")
}

func addBackendFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&backendURL, "backend", envOr("SEATPLAY_BACKEND_URL", defaultBackendURL), "simulation backend URL")
	cmd.Flags().IntVar(&backendTimeoutMs, "timeout-ms", defaultTimeoutMs, "backend request timeout in milliseconds")
}

func applyPlaybackConfig(cmd *cobra.Command, fileCfg config.FileConfig) {
	applyIntConfig(cmd, "interval-ms", &playIntervalMs, fileCfg.Playback.IntervalMs)
	applyIntConfig(cmd, "fallback-rows", &playFallbackRows, fileCfg.Playback.FallbackRows)
	applyIntConfig(cmd, "fallback-cols", &playFallbackCols, fileCfg.Playback.FallbackCols)
	applyStringConfig(cmd, "source", &playSource, fileCfg.Playback.Source)
}

func applyBackendConfig(cmd *cobra.Command, fileCfg config.FileConfig) {
	if _, ok := os.LookupEnv("SEATPLAY_BACKEND_URL"); !ok {
		applyStringConfig(cmd, "backend", &backendURL, fileCfg.Backend.URL)
	}
	applyIntConfig(cmd, "timeout-ms", &backendTimeoutMs, fileCfg.Backend.TimeoutMs)
}

func validatePlayback() error {
	if playIntervalMs <= 0 {
		return fmt.Errorf("--interval-ms must be > 0")
	}
	if playFallbackRows <= 0 || playFallbackCols <= 0 {
		return fmt.Errorf("--fallback-rows and --fallback-cols must be > 0")
	}
	if strings.TrimSpace(playSource) == "" {
		return fmt.Errorf("--source must not be empty")
	}
	return nil
}

func loadFileConfig() (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	return fileCfg, nil
}

func playbackInterval() time.Duration {
	return time.Duration(playIntervalMs) * time.Millisecond
}

func fallbackExtent() seat.Extent {
	return seat.Extent{Rows: playFallbackRows, Cols: playFallbackCols}
}

func runViewCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyPlaybackConfig(cmd, fileCfg)
	if err := validatePlayback(); err != nil {
		return err
	}

	log, closeLog, err := fileLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	catalog, err := openCatalog(playSource, log)
	if err != nil {
		return err
	}
	initial := ""
	if len(args) == 1 {
		initial = args[0]
	}
	model := tui.NewModel(tui.Options{
		Source:   record.Open(playSource, time.Duration(defaultTimeoutMs)*time.Millisecond),
		Catalog:  catalog,
		Interval: playbackInterval(),
		Fallback: fallbackExtent(),
		Log:      log,
		Initial:  initial,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// openCatalog returns the record listing for a source location.
func openCatalog(location string, log logrus.FieldLogger) (tui.Catalog, error) {
	switch src := record.Open(location, time.Duration(defaultTimeoutMs)*time.Millisecond).(type) {
	case record.DirSource:
		return src, nil
	case *record.HTTPSource:
		client, err := backend.New(src.BaseURL, src.Client.Timeout, log)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported record source %q", location)
	}
}

func newBackendClient(log logrus.FieldLogger) (*backend.Client, error) {
	if backendTimeoutMs <= 0 {
		return nil, fmt.Errorf("--timeout-ms must be > 0")
	}
	return backend.New(backendURL, time.Duration(backendTimeoutMs)*time.Millisecond, log)
}

// fileLogger logs to the data directory while a TUI owns the terminal.
func fileLogger() (*logrus.Logger, func(), error) {
	path := config.DefaultLogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := logger.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	closeFn := func() {
		if cerr := f.Close(); cerr != nil {
			logErrf("failed to close log file: %v\n", cerr)
		}
	}
	return logger.New(f), closeFn, nil
}

func stderrLogger() *logrus.Logger {
	return logger.New(os.Stderr)
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
	path := config.DefaultConfigPath()
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
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# seatplay configuration
# Uncomment a value to enable it. CLI flags override config values.

[playback]
# interval-ms = %d        # Playback tick interval
# fallback-rows = %d        # Grid rows for steps without seat state
# fallback-cols = %d        # Grid columns for steps without seat state
# source = %q   # Record directory or http(s) URL of a record server

[backend]
# url = %q   # Simulation backend
# timeout-ms = %d      # Request timeout

[single]
# humanities = %d          # Default single-run ratios (percent)
# science = %d
# engineering = %d

[range]
# humanities = %d          # Default range-run ratios (percent)
# science = %d
# engineering = %d

[server]
# addr = %q     # Local record server listen address
# data-dir = %q
`,
		defaultIntervalMs,
		defaultFallbackRows,
		defaultFallbackCols,
		config.DefaultRecordSource(),
		defaultBackendURL,
		defaultTimeoutMs,
		defaultRatios.Humanities, defaultRatios.Science, defaultRatios.Engineering,
		defaultRatios.Humanities, defaultRatios.Science, defaultRatios.Engineering,
		defaultServerAddr,
		config.DefaultDataDir(),
	)
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

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func writeOut(w io.Writer, format string, args ...any) error {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
