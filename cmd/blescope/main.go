package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"blescope/internal/artifact"
	"blescope/internal/config"
	"blescope/internal/logger"
	"blescope/internal/progress"
	"blescope/internal/session"
	"blescope/internal/taskq"
	"blescope/internal/telemetry"
	"blescope/internal/ui"
)

// flags override selected config fields.
type flags struct {
	configPath  string
	backend     string
	hci         int
	scanTimeout time.Duration
	logLevel    string
}

func parseFlags() flags {
	var f flags

	flag.StringVar(&f.configPath, "config", "blescope.yaml", "path to the YAML config file (optional)")
	flag.StringVar(&f.backend, "backend", "", "BLE backend: goble, tinygo or mock")
	flag.IntVar(&f.hci, "hci", -1, "HCI device index for the goble backend")
	flag.DurationVar(&f.scanTimeout, "scan-timeout", 0, "how long a scan listens for advertisements")
	flag.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: blescope [flags]\n\n")
		fmt.Fprintf(os.Stderr, "blescope scans for Bluetooth Low Energy devices, connects to one\n")
		fmt.Fprintf(os.Stderr, "and lets you browse, read and write its GATT characteristics.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()
	return f
}

// apply copies set flags onto cfg.
func (f flags) apply(cfg *config.Config) {
	if f.backend != "" {
		cfg.Backend.Kind = f.backend
	}
	if f.hci >= 0 {
		cfg.Backend.HCI = f.hci
	}
	if f.scanTimeout > 0 {
		cfg.Scan.Timeout = f.scanTimeout
	}
	if f.logLevel != "" {
		cfg.Logger.Level = f.logLevel
	}
}

func main() {
	if err := run(parseFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(f flags) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	f.apply(cfg)
	if err := config.Validate(cfg); err != nil {
		return err
	}

	log, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(log)

	ctx := context.Background()
	shutdown, err := telemetry.Setup(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			log.Warn("tracing shutdown", "error", err)
		}
	}()

	client, err := openBackend(cfg.Backend)
	if err != nil {
		return err
	}
	defer client.Close()
	log.Info("backend ready", "kind", cfg.Backend.Kind)

	captures, err := artifact.NewStore(cfg.Capture.Dir)
	if err != nil {
		return fmt.Errorf("capture store: %w", err)
	}

	feed := progress.NewFeed(32)
	sess := session.New(client, feed, session.Options{
		ScanTimeout:    cfg.Scan.Timeout,
		ConnectTimeout: cfg.Connect.Timeout,
		Logger:         log,
		Tracer:         telemetry.Tracer(),
	})
	queue := taskq.New(cfg.Tasks.QueueDepth, feed, log)

	model := ui.NewAppModel(ui.Deps{
		Session:  sess,
		Queue:    queue,
		Feed:     feed,
		Captures: captures,
		Logger:   log,
		Backend:  cfg.Backend.Kind,
	}).AsTeaModel()
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, runErr := p.Run()

	// The UI no longer drains the feed; closing it first unblocks the worker.
	feed.Close()
	queue.Close()
	if err := sess.Disconnect(ctx); err != nil {
		log.Warn("disconnect on exit", "error", err)
	}
	return runErr
}
