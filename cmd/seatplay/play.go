package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/seatplay/internal/model"
	"github.com/verte-zerg/seatplay/internal/playback"
	"github.com/verte-zerg/seatplay/internal/record"
	"github.com/verte-zerg/seatplay/internal/report"
)

var (
	plotWidth  int
	plotHeight int
)

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play <record>",
		Short: "Play a record to stdout without the TUI",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlayCmd,
	}
	addPlaybackFlags(cmd)
	return cmd
}

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot <record>",
		Short: "Summarize a record and plot its occupancy",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlotCmd,
	}
	addPlaybackFlags(cmd)
	cmd.Flags().IntVar(&plotWidth, "width", 0, "plot width in columns (0 fits the terminal)")
	cmd.Flags().IntVar(&plotHeight, "height", 0, "plot height in rows (0 uses the default)")
	return cmd
}

func newRecordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "List available records",
		Args:  cobra.NoArgs,
		RunE:  runRecordsCmd,
	}
	addPlaybackFlags(cmd)
	return cmd
}

func preparePlayback(cmd *cobra.Command) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyPlaybackConfig(cmd, fileCfg)
	return validatePlayback()
}

func loadRecord(ctx context.Context, name string) (model.Record, error) {
	src := record.Open(playSource, time.Duration(defaultTimeoutMs)*time.Millisecond)
	return record.Load(ctx, src, name)
}

func runPlayCmd(cmd *cobra.Command, args []string) error {
	if err := preparePlayback(cmd); err != nil {
		return err
	}
	log := stderrLogger()
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec, err := loadRecord(ctx, args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	var writeErr error
	sink := playback.SinkFunc(func(e playback.Event) {
		if writeErr != nil {
			return
		}
		switch ev := e.(type) {
		case playback.Snapshot:
			writeErr = report.WriteFrame(out, ev)
		case playback.Finished:
			writeErr = writeOut(out, "Completed %d steps, last time %s\n", ev.TotalSteps, ev.LastTime)
		case playback.Reset:
			writeErr = writeOut(out, "Playback %s\n", ev.Status)
		}
	})
	ctrl := playback.New(sink, playback.WithLogger(log), playback.WithFallback(fallbackExtent()))
	if err := ctrl.Load(rec); err != nil {
		return err
	}
	timer, err := ctrl.Start(playbackInterval())
	if err != nil {
		return err
	}
	return drive(ctx, ctrl, timer, &writeErr)
}

// drive delivers ticks to ctrl until playback completes or ctx is cancelled.
func drive(ctx context.Context, ctrl *playback.Controller, timer playback.Timer, writeErr *error) error {
	ticker := time.NewTicker(timer.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			ctrl.Stop()
			return *writeErr
		case <-ticker.C:
			armed := ctrl.Tick(timer.ID)
			if *writeErr != nil {
				ctrl.Stop()
				return *writeErr
			}
			if !armed {
				return nil
			}
		}
	}
}

func runPlotCmd(cmd *cobra.Command, args []string) error {
	if err := preparePlayback(cmd); err != nil {
		return err
	}
	if plotWidth < 0 || plotHeight < 0 {
		return fmt.Errorf("--width and --height must be >= 0")
	}
	rec, err := loadRecord(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	opts := report.PlotOptions{
		Width:  plotWidth,
		Height: plotHeight,
		Color:  report.UseColor(out),
	}
	if width := outputWidth(out); opts.Width == 0 && width > 0 {
		opts.Width = report.PlotWidthFor(width)
	}
	return report.RenderRecordPlot(out, rec, opts)
}

func runRecordsCmd(cmd *cobra.Command, _ []string) error {
	if err := preparePlayback(cmd); err != nil {
		return err
	}
	catalog, err := openCatalog(playSource, stderrLogger())
	if err != nil {
		return err
	}
	entries, err := catalog.Records(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}
	return report.RenderRecords(cmd.OutOrStdout(), entries)
}

// outputWidth returns the terminal width of w, or zero when w is not a terminal.
func outputWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}
