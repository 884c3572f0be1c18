package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"reflect"
	"runtime"
	"strings"

	"cr2jpeg/batch"
	"cr2jpeg/convert"
	"cr2jpeg/logger"
	"cr2jpeg/raw"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	StartDir    string `flag:"start_dir" validate:"required"`
	Destination string `flag:"destination" validate:"required"`
	Recursive   bool   `flag:"recursive"`
	Workers     int    `flag:"workers" validate:"gte=1"`
	Quality     int    `flag:"quality" validate:"gte=1,lte=100"`
	QueueSize   int    `flag:"queue-size" validate:"gte=1"`
	NoColor     bool   `flag:"no-color"`
	JSON        bool   `flag:"json"`
	Version     string `flag:"-"`
}

var (
	Version    = "dev"
	BuildDate  = "unknown"
	GitCommit  = "unknown"
	QueueRatio = 3
)

// errVersion means --version was handled and the program should stop.
var errVersion = errors.New("version requested")

func ParseConfig(console *logger.Console, args []string) (*Config, error) {
	cpu := runtime.NumCPU()

	cfg := &Config{
		Version:   Version,
		QueueSize: cpu * QueueRatio,
	}

	fs := flag.NewFlagSet("cr2jpeg", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.StartDir, "start_dir", "", "Sets the starting path")
	fs.StringVar(&cfg.StartDir, "s", "", "Shorthand for -start_dir")
	fs.StringVar(&cfg.Destination, "destination", "", "Sets the path to save converted images")
	fs.StringVar(&cfg.Destination, "d", "", "Shorthand for -destination")
	fs.BoolVar(&cfg.Recursive, "recursive", false, "Search for images at and below start_dir")
	fs.BoolVar(&cfg.Recursive, "r", false, "Shorthand for -recursive")
	fs.IntVar(&cfg.Workers, "workers", cpu, "Number of concurrent workers")
	fs.IntVar(&cfg.QueueSize, "queue-size", cfg.QueueSize, "Number of files buffered ahead of the workers")
	fs.IntVar(&cfg.Quality, "quality", raw.MaxQuality, "JPEG quality (1-100, higher is better)")
	fs.BoolVar(&cfg.NoColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&cfg.JSON, "json", false, "Log as JSON lines")

	showVersion := fs.Bool("version", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(console, fs)
		}
		return nil, err
	}

	if *showVersion {
		versionInfo := fmt.Sprintf(
			"Version: %s\nBuild date: %s\nGit commit: %s",
			cfg.Version, BuildDate, GitCommit,
		)
		console.Box("cr2jpeg version information", versionInfo)
		return nil, errVersion
	}

	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	if err := cfg.validate(); err != nil {
		if cfg.StartDir == "" || cfg.Destination == "" {
			printUsage(console, fs)
		}
		return nil, err
	}

	return cfg, nil
}

func printUsage(console *logger.Console, fs *flag.FlagSet) {
	console.Info("Usage: cr2jpeg -s <DIR> -d <TO_DIR> [options]")
	console.Info("Options:")

	var buf bytes.Buffer
	fs.SetOutput(&buf)
	fs.PrintDefaults()
	fs.SetOutput(io.Discard)

	for _, line := range strings.Split(buf.String(), "\n") {
		if line != "" {
			console.Log("  %s", line)
		}
	}
}

func (cfg *Config) validate() error {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("flag")
	})

	err := v.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("-%s is required", fe.Field()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("-%s must be at least %s", fe.Field(), fe.Param()))
		case "lte":
			msgs = append(msgs, fmt.Sprintf("-%s must be at most %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("-%s is invalid (%s)", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("error: %s", strings.Join(msgs, "; "))
}

func (cfg *Config) LoggerOptions() *logger.Options {
	opts := logger.DefaultOptions()
	opts.EnableColors = !cfg.NoColor
	opts.EnableJSON = cfg.JSON
	return opts
}

func (cfg *Config) BatchConfig() batch.Config {
	return batch.Config{
		SourceDir:   cfg.StartDir,
		Destination: cfg.Destination,
		Recursive:   cfg.Recursive,
		Workers:     cfg.Workers,
		QueueSize:   cfg.QueueSize,
	}
}

// Strategy is the imaging library first, the RAW pipeline as fallback.
func (cfg *Config) Strategy(console *logger.Console) *convert.Chain {
	return convert.NewChain(console,
		convert.NewImagingBackend(cfg.Quality, console),
		convert.NewPipelineBackend(cfg.Quality),
	)
}
