package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/AnniekStok/track-curator/pkg/config"
	"github.com/AnniekStok/track-curator/pkg/edits"
	"github.com/AnniekStok/track-curator/pkg/graph"
	"github.com/AnniekStok/track-curator/pkg/logging"
	"github.com/AnniekStok/track-curator/pkg/output"
	"github.com/AnniekStok/track-curator/pkg/pubsub"
	"github.com/AnniekStok/track-curator/pkg/runs"
	"github.com/AnniekStok/track-curator/pkg/selection"
	"github.com/AnniekStok/track-curator/pkg/session"
	"github.com/AnniekStok/track-curator/pkg/solver"
	"github.com/AnniekStok/track-curator/pkg/tracks"
	"github.com/AnniekStok/track-curator/pkg/web"
)

func main() {
	flags := pflag.NewFlagSet("track-curator", pflag.ExitOnError)
	flags.String("runs-dir", "runs", "Directory where runs are stored")
	flags.Int("port", 8080, "Port for the web server")
	flags.Bool("watch", false, "Watch the run directory for external changes")
	flags.Float64("max-edge-distance", 50.0, "Maximum candidate edge distance")
	flags.String("verbosity", "", "Log level: debug, info, warn, error")
	flags.CountP("verbose", "v", "Increase log verbosity")
	detectionsPath := flags.String("detections", "", "JSON file with detections to solve at startup")
	runID := flags.String("run", "", "Stored run to open at startup")
	report := flags.Bool("report", false, "Solve once, print a run report and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	applyLogLevel(cfg)

	store, err := runs.NewStore(cfg.RunsDir)
	if err != nil {
		logging.Fatal("failed to open run store", "error", err)
	}

	publisher := pubsub.NewSSEPublisher()
	table := tracks.NewTable(publisher)
	sel := selection.NewList(publisher)
	editLog := edits.NewLog(publisher)
	runner := session.NewRunner(solver.NewGreedy(), table, sel, editLog, publisher)
	server := web.NewServer(runner, table, sel, editLog, store, publisher)

	params := solver.DefaultParams()
	params.MaxEdgeDistance = cfg.MaxEdgeDistance
	server.SetParams(params)

	detections, runCtx, err := loadInput(store, *detectionsPath, *runID, &params)
	if err != nil {
		logging.Fatal("failed to load input", "error", err)
	}
	if *report {
		if detections == nil {
			fmt.Fprintln(os.Stderr, "Error: --report needs --detections or --run")
			os.Exit(1)
		}
		if err := runner.Solve(runCtx, detections, params); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		output.PrintRunReport(*runID, output.Summarize(table.Rows(), editLog.Len()))
		return
	}

	if detections != nil {
		server.SetDetections(detections)
		server.SetParams(params)

		// Solve in the background so the server is reachable immediately;
		// subscribers see progress on the solver_status topic.
		go func() {
			if err := runner.Solve(runCtx, detections, params); err != nil {
				logging.ErrorContext(runCtx, "initial solve failed", "error", err)
			}
		}()
	}

	if cfg.Watch {
		startRunWatcher(store)
	}

	if err := server.Start(cfg.Port); err != nil {
		logging.Fatal("web server stopped", "error", err)
	}
}

// loadInput resolves the startup detections: an explicit detections
// file, a stored run, or nothing.
func loadInput(store *runs.Store, detectionsPath, runID string, params *solver.Params) ([]graph.Detection, context.Context, error) {
	ctx := context.Background()

	switch {
	case detectionsPath != "":
		data, err := os.ReadFile(detectionsPath)
		if err != nil {
			return nil, ctx, fmt.Errorf("failed to read detections file: %w", err)
		}
		var detections []graph.Detection
		if err := json.Unmarshal(data, &detections); err != nil {
			return nil, ctx, fmt.Errorf("failed to parse detections file: %w", err)
		}
		logging.Info("loaded detections", "path", detectionsPath, "count", len(detections))
		return detections, ctx, nil

	case runID != "":
		run, err := store.Load(runID)
		if err != nil {
			return nil, ctx, err
		}
		*params = run.Params
		ctx = logging.WithRunID(ctx, run.ID)
		logging.InfoContext(ctx, "opened stored run", "name", run.Name, "detections", len(run.Detections))
		return run.Detections, ctx, nil
	}

	return nil, ctx, nil
}

func startRunWatcher(store *runs.Store) {
	watcher, err := runs.NewWatcher(store.Dir())
	if err != nil {
		logging.Warn("failed to create run watcher", "error", err)
		return
	}

	ctx := context.Background()
	if err := watcher.Start(ctx); err != nil {
		logging.Warn("failed to start run watcher", "error", err)
		return
	}

	debouncer := runs.NewDebouncer(watcher.Events(), 500*time.Millisecond, 5*time.Second)
	debouncer.Start(ctx)

	go func() {
		for event := range debouncer.Output() {
			logging.Info("run directory changed", "files", len(event.Paths))
			if infos, err := store.List(); err == nil {
				logging.Info("run store updated", "runs", len(infos))
			}
		}
	}()
}

func applyLogLevel(cfg *config.Config) {
	level := slog.LevelInfo
	switch cfg.Verbosity {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		if cfg.VerboseCnt > 0 {
			level = slog.LevelDebug
		}
	}
	logging.SetLevel(level)
}
