package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/seatplay/internal/config"
	"github.com/verte-zerg/seatplay/internal/formui"
	"github.com/verte-zerg/seatplay/internal/model"
	"github.com/verte-zerg/seatplay/internal/ratio"
	"github.com/verte-zerg/seatplay/internal/report"
	"github.com/verte-zerg/seatplay/internal/store"
)

const (
	defaultRows        = 3
	defaultCols        = 3
	defaultStudents    = 9
	defaultMinStudents = 1
	defaultMaxStudents = 9
	defaultHistorySize = 20
	defaultRunTimeout  = 10 * time.Minute
)

var defaultRatios = ratio.Triple{Humanities: 34, Science: 33, Engineering: 33}

var (
	runRows            int
	runCols            int
	runStudents        int
	runMinStudents     int
	runMaxStudents     int
	runStudentStep     int
	runRepeatCount     int
	runCleaning        int
	runHumanities      int
	runScience         int
	runEngineering     int
	runMultiprocessing bool

	formRange    bool
	historyLimit int
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Submit a single simulation run",
		Args:  cobra.NoArgs,
		RunE:  runSingleCmd,
	}
	addBackendFlags(cmd)
	addGridFlags(cmd)
	addRatioFlags(cmd)
	cmd.Flags().IntVar(&runStudents, "students", defaultStudents, "total students")
	return cmd
}

func newRangeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "range",
		Short: "Submit a sweep of runs over a student-count range",
		Args:  cobra.NoArgs,
		RunE:  runRangeCmd,
	}
	addBackendFlags(cmd)
	addGridFlags(cmd)
	addRatioFlags(cmd)
	cmd.Flags().IntVar(&runMinStudents, "min", defaultMinStudents, "minimum students")
	cmd.Flags().IntVar(&runMaxStudents, "max", defaultMaxStudents, "maximum students")
	cmd.Flags().IntVar(&runStudentStep, "step", 1, "student count step")
	cmd.Flags().IntVar(&runRepeatCount, "repeat", 1, "runs per student count")
	return cmd
}

func newFormCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "form",
		Short: "Open the interactive run forms",
		Args:  cobra.NoArgs,
		RunE:  runFormCmd,
	}
	addBackendFlags(cmd)
	cmd.Flags().BoolVar(&formRange, "range", false, "open the range form first")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show submitted runs",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyLimit, "limit", defaultHistorySize, "number of runs to show (0 shows all)")
	return cmd
}

func addGridFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&runRows, "rows", defaultRows, "seat rows")
	cmd.Flags().IntVar(&runCols, "cols", defaultCols, "seat columns")
	cmd.Flags().IntVar(&runCleaning, "cleaning", 0, "cleaning time")
	cmd.Flags().BoolVar(&runMultiprocessing, "multiprocessing", false, "let the backend use multiprocessing")
}

func addRatioFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&runHumanities, "humanities", defaultRatios.Humanities, "humanities student percentage")
	cmd.Flags().IntVar(&runScience, "science", defaultRatios.Science, "science student percentage")
	cmd.Flags().IntVar(&runEngineering, "engineering", defaultRatios.Engineering, "engineering student percentage")
}

// configRatios returns the form defaults from a ratio config section.
func configRatios(rc config.RatioConfig) ratio.Triple {
	values := map[ratio.Field]int{}
	for field, v := range map[ratio.Field]*int{
		ratio.Humanities:  rc.Humanities,
		ratio.Science:     rc.Science,
		ratio.Engineering: rc.Engineering,
	} {
		if v != nil {
			values[field] = *v
		}
	}
	return mergeRatios(defaultRatios, values)
}

// flagRatios applies explicitly passed ratio flags on top of base.
func flagRatios(cmd *cobra.Command, base ratio.Triple) ratio.Triple {
	values := map[ratio.Field]int{}
	flags := map[ratio.Field]*int{
		ratio.Humanities:  &runHumanities,
		ratio.Science:     &runScience,
		ratio.Engineering: &runEngineering,
	}
	for _, field := range ratio.Fields {
		if cmd.Flags().Changed(field.String()) {
			values[field] = *flags[field]
		}
	}
	return mergeRatios(base, values)
}

// mergeRatios takes a complete triple as given when it fits the budget and
// otherwise moves the sliders one at a time in display order.
func mergeRatios(base ratio.Triple, values map[ratio.Field]int) ratio.Triple {
	if len(values) == len(ratio.Fields) {
		full := ratio.Triple{
			Humanities:  values[ratio.Humanities],
			Science:     values[ratio.Science],
			Engineering: values[ratio.Engineering],
		}
		if full.Sum() == ratio.Total && validRatios(full) {
			return full
		}
	}
	group := ratio.NewGroup(base)
	for _, field := range ratio.Fields {
		if v, ok := values[field]; ok {
			group.Set(field, v)
		}
	}
	return group.Triple()
}

func validRatios(t ratio.Triple) bool {
	for _, field := range ratio.Fields {
		if ratio.DefaultBounds.Clamp(t.Get(field)) != t.Get(field) {
			return false
		}
	}
	return true
}

func prepareBackend(cmd *cobra.Command) (config.FileConfig, error) {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return config.FileConfig{}, err
	}
	applyBackendConfig(cmd, fileCfg)
	if strings.TrimSpace(backendURL) == "" {
		return config.FileConfig{}, fmt.Errorf("--backend must not be empty")
	}
	return fileCfg, nil
}

func runSingleCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := prepareBackend(cmd)
	if err != nil {
		return err
	}
	ratios := flagRatios(cmd, configRatios(fileCfg.Single))
	req := model.RunRequest{
		Rows:               runRows,
		Cols:               runCols,
		TotalStudents:      runStudents,
		HumanitiesRatio:    ratios.Humanities,
		ScienceRatio:       ratios.Science,
		EngineeringRatio:   ratios.Engineering,
		CleaningTime:       runCleaning,
		UseMultiprocessing: runMultiprocessing,
	}
	if err := model.ValidateRun(req); err != nil {
		return err
	}
	log := stderrLogger()
	client, err := newBackendClient(log)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), defaultRunTimeout)
	defer cancel()

	resp, submitErr := client.SubmitRun(ctx, req)
	saveHistory(ctx, store.HistoryFromRun(req, resp, submitErr))
	return reportRun(cmd, resp, submitErr)
}

func runRangeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := prepareBackend(cmd)
	if err != nil {
		return err
	}
	ratios := flagRatios(cmd, configRatios(fileCfg.Range))
	req := model.RangeRunRequest{
		Rows:               runRows,
		Cols:               runCols,
		MinStudents:        runMinStudents,
		MaxStudents:        runMaxStudents,
		StudentStep:        runStudentStep,
		RepeatCount:        runRepeatCount,
		HumanitiesRatio:    ratios.Humanities,
		ScienceRatio:       ratios.Science,
		EngineeringRatio:   ratios.Engineering,
		CleaningTime:       runCleaning,
		UseMultiprocessing: runMultiprocessing,
	}
	if err := model.ValidateRange(req); err != nil {
		return err
	}
	log := stderrLogger()
	client, err := newBackendClient(log)
	if err != nil {
		return err
	}
	if err := writeOut(cmd.OutOrStdout(), "Running %d simulations...\n", model.PlannedRuns(req)); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), defaultRunTimeout)
	defer cancel()

	resp, submitErr := client.SubmitRange(ctx, req)
	saveHistory(ctx, store.HistoryFromRange(req, resp, submitErr))
	if err := reportRun(cmd, resp, submitErr); err != nil {
		return err
	}
	if len(resp.Results) == 0 {
		return nil
	}
	counts := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		counts = append(counts, strconv.Itoa(r.Students))
	}
	return writeOut(cmd.OutOrStdout(), "Completed runs for students: %s\n", strings.Join(counts, ", "))
}

func reportRun(cmd *cobra.Command, resp model.RunResponse, submitErr error) error {
	if submitErr != nil {
		return fmt.Errorf("simulation failed: %w", submitErr)
	}
	if !resp.OK() {
		return fmt.Errorf("simulation failed: %s", resp.Message)
	}
	msg := resp.Message
	if msg == "" {
		msg = "Simulation completed successfully!"
	}
	return writeOut(cmd.OutOrStdout(), "%s\n", msg)
}

// saveHistory records a submission. History is best-effort and never fails
// the run itself.
func saveHistory(ctx context.Context, h model.RunHistory) {
	st, err := openStore()
	if err != nil {
		logErrf("failed to open history: %v\n", err)
		return
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close history: %v\n", cerr)
		}
	}()
	if _, err := st.InsertRun(ctx, h); err != nil {
		logErrf("failed to save history: %v\n", err)
	}
}

func openStore() (*store.Store, error) {
	path := config.DefaultDBPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return store.Open(path)
}

func runFormCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := prepareBackend(cmd)
	if err != nil {
		return err
	}
	log, closeLog, err := fileLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	client, err := newBackendClient(log)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close history: %v\n", cerr)
		}
	}()

	forms := formui.NewModel(formui.Options{
		Backend:        client,
		History:        st,
		Single:         configRatios(fileCfg.Single),
		Range:          configRatios(fileCfg.Range),
		StartWithRange: formRange,
		Timeout:        defaultRunTimeout,
		Log:            log,
	})
	program := tea.NewProgram(forms, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historyLimit < 0 {
		return fmt.Errorf("--limit must be >= 0")
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close history: %v\n", cerr)
		}
	}()
	runs, err := st.ListRuns(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	return report.RenderHistory(cmd.OutOrStdout(), runs)
}
