package main

import (
	"errors"
	"flag"
	"os"
	"time"

	"cr2jpeg/batch"
	"cr2jpeg/logger"
)

func main() {
	console := logger.NewConsole(logger.DefaultOptions())

	cfg, err := ParseConfig(console, os.Args[1:])
	switch {
	case errors.Is(err, flag.ErrHelp), errors.Is(err, errVersion):
		os.Exit(0)
	case err != nil:
		os.Stderr.WriteString("Configuration error: " + err.Error() + "\n")
		os.Exit(1)
	}

	os.Exit(run(cfg, logger.NewConsole(cfg.LoggerOptions())))
}

// run executes one batch and returns the process exit status.
func run(cfg *Config, console *logger.Console) int {
	timer := console.StartTimer("Batch")

	orchestrator := batch.New(cfg.BatchConfig(), cfg.Strategy(console), console)
	summary, err := orchestrator.Run()
	elapsed := timer.Elapsed()

	var fatal *batch.FatalError
	switch {
	case errors.As(err, &fatal):
		console.Error("%v", err)
		console.Error("The program will now exit...")
		return 1
	case errors.Is(err, batch.ErrNoFiles):
		console.Warn("No .CR2 files could be found in %s", cfg.StartDir)
	case err != nil:
		console.Error("Processing error: %v", err)
		return 1
	}

	console.Success("Completed... %d files handled in %v.", summary.Total, elapsed.Round(time.Millisecond))
	if summary.Total > 0 {
		console.Info("Average time per image: %v", summary.Average().Round(time.Microsecond))
	}

	return 0
}
