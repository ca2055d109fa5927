package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/redpen/internal/config"
	"github.com/jackzampolin/redpen/internal/jobs"
	"github.com/jackzampolin/redpen/internal/metrics"
	"github.com/jackzampolin/redpen/internal/svcctx"
	"github.com/jackzampolin/redpen/internal/tokens"
)

var (
	runWorkers      int
	runStyle        string
	runAll          bool
	runMetricsAddr  string
	runContextLines int
)

var runCmd = &cobra.Command{
	Use:   "run <chapters-dir>",
	Short: "Copy-edit every pending chapter",
	Long: `Send the pending chapters of a directory to the backend and apply the
returned edits.

Pending chapters are those never edited, reset with 'redpen retry', failed,
or left unfinished by an interrupted run. Completed chapters are skipped
unless --all is given.

Ctrl+C stops the run gracefully: calls already in flight finish and are
applied, chapters that never started return to not_started. Press Ctrl+C
again to exit immediately.

Examples:
  redpen run ./book
  redpen run ./book --workers 8 --style light
  redpen run ./book --metrics-addr :9090`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svcs, err := setup(cmd)
		if err != nil {
			return err
		}
		return runProject(cmd.Context(), svcs, args[0])
	},
}

func init() {
	runCmd.Flags().IntVarP(&runWorkers, "workers", "w", 0, "concurrent workers, 1-10 (default from config)")
	runCmd.Flags().StringVar(&runStyle, "style", "", "editing style: light, moderate or heavy (default from config)")
	runCmd.Flags().BoolVar(&runAll, "all", false, "re-edit chapters that already completed")
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address during the run")
	runCmd.Flags().IntVar(&runContextLines, "context-lines", -1, "lines of neighbouring chapters shown for context (default from config)")
	runCmd.Flags().StringVar(&projectFlag, "project", "", "project id (default: directory name)")
}

func runProject(ctx context.Context, svcs *svcctx.Services, dir string) error {
	cfg := svcs.Config.Get()
	logger := svcs.Logger

	proj, err := loadProject(svcs, dir)
	if err != nil {
		return err
	}

	pending := proj.Chapters
	if !runAll {
		pending, err = svcs.JobManager.Pending(ctx, proj.ID, proj.Chapters)
		if err != nil {
			return fmt.Errorf("load chapter statuses: %w", err)
		}
	}
	if len(pending) == 0 {
		color.Green("All %d chapters of %s are already edited. Use --all to edit them again.", len(proj.Chapters), proj.ID)
		return nil
	}

	style := cfg.Processing.Style
	if runStyle != "" {
		style = runStyle
	}
	s, prompt, err := systemPrompt(svcs, proj.ID, style)
	if err != nil {
		return err
	}
	if prompt.IsOverride {
		logger.Info("using prompt override", "path", prompt.Source)
	}

	plan, err := planBatches(svcs, pending, prompt.Text)
	if err != nil {
		return err
	}
	for _, w := range plan.Warnings {
		color.Yellow("warning: %s", w)
	}

	workers := cfg.Processing.Workers
	if runWorkers > 0 {
		workers = runWorkers
	}
	contextLines := cfg.Processing.ContextLines
	if runContextLines >= 0 {
		contextLines = runContextLines
	}

	metricsAddr := cfg.Metrics.Addr
	if runMetricsAddr != "" {
		metricsAddr = runMetricsAddr
	}
	metricsCtx, stopMetrics := context.WithCancel(ctx)
	defer stopMetrics()
	if metricsAddr != "" {
		go func() {
			if err := metrics.Serve(metricsCtx, metricsAddr, logger); err != nil {
				logger.Error("metrics listener failed", "addr", metricsAddr, "error", err)
			}
		}()
	}

	if svcs.Config.ConfigFile() != "" {
		svcs.Config.OnChange(func(c *config.Config) {
			svcs.Limiter.SetRPS(c.LLM.RPS)
		})
		svcs.Config.WatchConfig()
	}

	progress := newProgressPrinter(len(pending))
	var sink jobs.Sink = progress
	if IsStructuredOutput() {
		sink = jobs.LogSink{Logger: logger}
	}

	fmt.Printf("Editing %d chapters of %s in %d batches (%d workers, %s style)\n",
		len(pending), proj.ID, len(plan.Batches), workers, s)

	// The run gets a context that survives Ctrl+C so in-flight calls can
	// finish; the signal is turned into a graceful Stop instead.
	runCtx := context.WithoutCancel(ctx)
	sched, err := svcs.JobManager.Start(runCtx, proj.ID, plan.Batches, workers, func(sc *jobs.SchedulerConfig) {
		sc.Sink = sink
		sc.SystemPrompt = prompt.Text
		sc.PromptHash = prompt.Hash
		sc.Style = string(s)
		sc.ContextLines = contextLines
		sc.Chapters = proj.Chapters
	})
	if err != nil {
		return err
	}

	go func() {
		select {
		case <-ctx.Done():
			signal.Reset(os.Interrupt)
			color.Yellow("\nStopping: waiting for in-flight batches (Ctrl+C again to abort)")
			if err := sched.Stop(); err != nil && !errors.Is(err, jobs.ErrInvalidTransition) {
				logger.Warn("stop failed", "error", err)
			}
		case <-waitDone(sched):
		}
	}()

	if err := sched.Wait(runCtx); err != nil {
		return err
	}

	snap := sched.Snapshot()
	summary := svcs.Recorder.Summarize(metrics.Filter{RunID: snap.RunID})
	cost := summary.TotalCostUSD
	if cost == 0 {
		cost = tokens.EstimateCost(cfg.LLM.Model, summary.TotalPromptTokens, summary.TotalCompletionTokens)
	}

	if IsStructuredOutput() {
		return Output(map[string]any{"run": snap, "calls": summary, "cost_usd": cost})
	}
	printRunSummary(snap, summary.Count, summary.TotalTokens, cost, snap.Elapsed())
	if snap.Failed > 0 {
		return fmt.Errorf("%d chapters failed; see 'redpen status %s' and retry with 'redpen retry'", snap.Failed, dir)
	}
	return nil
}

// waitDone adapts Scheduler.Wait to a channel.
func waitDone(s *jobs.Scheduler) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		s.Wait(context.Background())
		close(done)
	}()
	return done
}

func printRunSummary(snap jobs.Snapshot, calls, totalTokens int, cost float64, elapsed time.Duration) {
	fmt.Println()
	state := color.New(color.Bold, color.FgGreen)
	if snap.State == jobs.StateStopped {
		state = color.New(color.Bold, color.FgYellow)
	}
	state.Printf("Run %s\n", snap.State)
	fmt.Printf("  Completed:   %d/%d\n", snap.Completed, snap.Total)
	if snap.Failed > 0 {
		color.Red("  Failed:      %d", snap.Failed)
	}
	if n := snap.Total - snap.Completed - snap.Failed; n > 0 {
		fmt.Printf("  Not started: %d\n", n)
	}
	fmt.Printf("  Calls:       %d (%d tokens, ~$%.4f)\n", calls, totalTokens, cost)
	fmt.Printf("  Elapsed:     %s\n", elapsed.Round(time.Millisecond))
}

// progressPrinter renders chapter events as colored progress lines.
type progressPrinter struct {
	total int
	done  int
}

func newProgressPrinter(total int) *progressPrinter {
	return &progressPrinter{total: total}
}

// Emit implements jobs.Sink. Calls are serialized by the scheduler.
func (p *progressPrinter) Emit(e jobs.Event) {
	switch e.Kind {
	case jobs.EventChapterCompleted:
		p.done++
		edits := 0
		if e.Counts != nil {
			edits = e.Counts.Total()
		}
		fmt.Printf("[%d/%d] %s chapter %d (%s): %d edits",
			p.done, p.total, color.GreenString("✓"), e.ChapterNumber, e.ChapterID, edits)
		if e.Issues > 0 {
			fmt.Print(color.YellowString(", %d skipped", e.Issues))
		}
		fmt.Println()
	case jobs.EventChapterFailed:
		p.done++
		fmt.Printf("[%d/%d] %s chapter %d (%s): %s\n",
			p.done, p.total, color.RedString("✗"), e.ChapterNumber, e.ChapterID, e.Error)
	case jobs.EventChapterCancelled:
		fmt.Printf("        %s chapter %d (%s) not started\n", color.YellowString("-"), e.ChapterNumber, e.ChapterID)
	case jobs.EventStateChanged:
		if e.State == jobs.StatePaused {
			color.Yellow("Paused")
		}
	}
}

var _ jobs.Sink = (*progressPrinter)(nil)
