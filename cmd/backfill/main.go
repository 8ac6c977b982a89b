package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/gridlake/internal/backfill"
	"github.com/okian/gridlake/internal/domain/model"
	"github.com/okian/gridlake/pkg/logger"
)

// Default configuration constants.
const (
	defaultWorkers = 2
	defaultTimeout = 5 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:8000", "Base URL of the service")
		start      = flag.String("start", "", "First day, YYYY-MM-DD")
		end        = flag.String("end", time.Now().UTC().Format(model.DateLayout), "Last day, YYYY-MM-DD")
		workers    = flag.Int("workers", defaultWorkers, "Concurrent year windows")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Write every record as JSON lines to this file")
		verbose    = flag.Bool("verbose", false, "Log every window request")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help || *start == "" {
		backfill.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	rng, err := backfill.ParseRange(*start, *end)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, stats, err := backfill.Run(ctx, &backfill.Config{
		BaseURL:    *baseURL,
		Range:      rng,
		Workers:    *workers,
		Timeout:    *timeout,
		OutputFile: *outputFile,
		Verbose:    *verbose,
	})
	if err != nil {
		os.Stderr.WriteString("backfill failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	if stats.Failed > 0 {
		os.Exit(1)
	}
}
