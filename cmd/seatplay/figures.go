package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/seatplay/internal/config"
	"github.com/verte-zerg/seatplay/internal/model"
	"github.com/verte-zerg/seatplay/internal/report"
	"github.com/verte-zerg/seatplay/internal/server"
)

var (
	figSeats      int
	figStudents   int
	figMin        int
	figMax        int
	figCheck      bool
	figList       bool
	figNoAnalysis bool
	figNoStudents bool

	serveAddr    string
	serveDataDir string
)

func newFiguresCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "figures",
		Short: "Generate, check or list simulation figures",
		Args:  cobra.NoArgs,
		RunE:  runFiguresCmd,
	}
	addBackendFlags(cmd)
	cmd.Flags().IntVar(&figSeats, "seats", 0, "seat count of the records")
	cmd.Flags().IntVar(&figStudents, "students", 0, "generate the figure for one student count")
	cmd.Flags().IntVar(&figMin, "min", 0, "minimum student count")
	cmd.Flags().IntVar(&figMax, "max", 0, "maximum student count")
	cmd.Flags().BoolVar(&figCheck, "check", false, "only report figures that already exist")
	cmd.Flags().BoolVar(&figList, "list", false, "list every known figure")
	cmd.Flags().BoolVar(&figNoAnalysis, "no-analysis", false, "skip analysis figures")
	cmd.Flags().BoolVar(&figNoStudents, "no-students", false, "skip per-student figures")
	return cmd
}

func runFiguresCmd(cmd *cobra.Command, _ []string) error {
	if _, err := prepareBackend(cmd); err != nil {
		return err
	}
	client, err := newBackendClient(stderrLogger())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	if figList {
		plots, err := client.Plots(ctx)
		if err != nil {
			return err
		}
		return renderPlotEntries(cmd, "Figures", plots)
	}
	if figSeats <= 0 {
		return fmt.Errorf("--seats must be > 0")
	}
	ranged := cmd.Flags().Changed("min") || cmd.Flags().Changed("max")
	if ranged && (figMin <= 0 || figMax < figMin) {
		return fmt.Errorf("--min and --max must be > 0 with min <= max")
	}

	switch {
	case figCheck:
		return checkFigures(ctx, cmd, client, ranged)
	case cmd.Flags().Changed("students"):
		if figStudents <= 0 {
			return fmt.Errorf("--students must be > 0")
		}
		resp, err := client.GeneratePlots(ctx, model.PlotRequest{
			SeatCount:    figSeats,
			PlotType:     "student",
			StudentCount: figStudents,
		})
		if err != nil {
			return err
		}
		return reportPlot(cmd, resp)
	case ranged:
		if figNoAnalysis && figNoStudents {
			return fmt.Errorf("--no-analysis and --no-students leave nothing to generate")
		}
		resp, err := client.GenerateBatchPlots(ctx, model.BatchPlotRequest{
			SeatCount:            figSeats,
			MinStudents:          figMin,
			MaxStudents:          figMax,
			GenerateAnalysis:     !figNoAnalysis,
			GenerateStudentPlots: !figNoStudents,
		})
		if err != nil {
			return err
		}
		if err := reportPlot(cmd, resp); err != nil {
			return err
		}
		return renderPlotResults(cmd, resp.Results)
	default:
		return writeOut(out, "Pass --students, --min/--max, --check or --list.\n")
	}
}

func checkFigures(ctx context.Context, cmd *cobra.Command, client plotChecker, ranged bool) error {
	req := model.CheckPlotsRequest{
		SeatCount:         figSeats,
		CheckAnalysis:     !figNoAnalysis,
		CheckStudentPlots: !figNoStudents,
	}
	if ranged {
		lo, hi := figMin, figMax
		req.MinStudents = &lo
		req.MaxStudents = &hi
	}
	resp, err := client.CheckExistingPlots(ctx, req)
	if err != nil {
		return err
	}
	if resp.Status != "success" {
		return fmt.Errorf("plot check failed: %s", resp.Message)
	}
	if err := writeOut(cmd.OutOrStdout(), "%s\n", resp.Message); err != nil {
		return err
	}
	if err := renderPlotEntries(cmd, "Analysis", resp.Results.AnalysisPlots); err != nil {
		return err
	}
	return renderPlotEntries(cmd, "Student", resp.Results.StudentPlots)
}

type plotChecker interface {
	CheckExistingPlots(ctx context.Context, req model.CheckPlotsRequest) (model.CheckPlotsResponse, error)
}

func reportPlot(cmd *cobra.Command, resp model.PlotResponse) error {
	if resp.Status != "success" {
		return fmt.Errorf("plot generation failed: %s", resp.Message)
	}
	if resp.ExpectedPath != "" {
		return writeOut(cmd.OutOrStdout(), "%s: %s\n", resp.Message, resp.ExpectedPath)
	}
	return writeOut(cmd.OutOrStdout(), "%s\n", resp.Message)
}

func renderPlotEntries(cmd *cobra.Command, title string, plots []model.PlotEntry) error {
	if len(plots) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(plots))
	for _, p := range plots {
		rows = append(rows, []string{p.Name, p.Path})
	}
	return report.WriteTable(cmd.OutOrStdout(), title, []string{"Name", "Path"}, rows, nil)
}

func renderPlotResults(cmd *cobra.Command, results []model.PlotResult) error {
	if len(results) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		students := ""
		if r.StudentCount > 0 {
			students = strconv.Itoa(r.StudentCount)
		}
		detail := r.Path
		if r.Status != "success" {
			detail = r.Message
		}
		rows = append(rows, []string{r.Type, students, r.Status, detail})
	}
	return report.WriteTable(cmd.OutOrStdout(), "Generated", []string{"Type", "Students", "Status", "Path"}, rows, map[int]bool{1: true})
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve records and figures over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultServerAddr, "listen address")
	cmd.Flags().StringVar(&serveDataDir, "data-dir", "", "simulation data directory (default: XDG data dir)")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Server.Addr)
	applyStringConfig(cmd, "data-dir", &serveDataDir, fileCfg.Server.DataDir)
	if serveDataDir == "" {
		serveDataDir = config.DefaultDataDir()
	}
	if serveAddr == "" {
		return fmt.Errorf("--addr must not be empty")
	}
	if info, err := os.Stat(serveDataDir); err != nil || !info.IsDir() {
		return fmt.Errorf("data directory %q is not readable", serveDataDir)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.New(serveDataDir, stderrLogger()).Run(ctx, serveAddr)
}
