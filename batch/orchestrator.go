// Package batch validates the input and output locations, discovers CR2
// files and fans their conversion out over a fixed pool of workers.
package batch

import (
	"fmt"
	"maps"
	"path/filepath"
	"runtime"
	"slices"
	"sync/atomic"
	"time"

	"cr2jpeg/convert"
	"cr2jpeg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Strategy converts one source file into destDir. A failure is reported
// in the returned outcome, never as a panic or an aborted batch.
type Strategy interface {
	Convert(source, destDir string) convert.Outcome
}

type Config struct {
	SourceDir   string
	Destination string
	Recursive   bool
	Workers     int
	QueueSize   int
}

type Orchestrator struct {
	cfg      Config
	strategy Strategy
	console  *logger.Console
}

func New(cfg Config, strategy Strategy, console *logger.Console) *Orchestrator {
	if cfg.Workers < 1 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = cfg.Workers
	}
	if console == nil {
		console = logger.Discard()
	}
	return &Orchestrator{cfg: cfg, strategy: strategy, console: console}
}

// Run validates paths, discovers files and converts all of them, returning
// once every job has finished. A *FatalError means nothing was attempted.
// ErrNoFiles comes back together with an empty summary.
func (o *Orchestrator) Run() (*RunSummary, error) {
	start := time.Now()
	runID := uuid.NewString()

	o.console.Info("Checking the existence of %s...", o.cfg.SourceDir)
	if err := ValidateSource(o.cfg.SourceDir); err != nil {
		return nil, err
	}

	created, err := EnsureDestination(o.cfg.Destination)
	if err != nil {
		return nil, err
	}
	if created {
		o.console.Info("Created destination path %s", o.cfg.Destination)
	}

	spinner := o.console.StartSpinner("Searching for CR2 images...")
	files, err := Discover(o.cfg.SourceDir, o.cfg.Recursive, o.console)
	if err != nil {
		spinner.Stop(false, "File discovery failed")
		return nil, &FatalError{Op: "discover", Path: o.cfg.SourceDir, Err: err}
	}

	if len(files) == 0 {
		spinner.Stop(false, "No .CR2 files could be found")
		return newSummary(runID, nil, time.Since(start)), ErrNoFiles
	}
	spinner.Stop(true, fmt.Sprintf("%d images found", len(files)))

	jobs := make([]Job, len(files))
	for i, f := range files {
		jobs[i] = Job{Index: i, Source: f}
	}

	o.console.Info("Starting conversions of %d files (run %s, workers: %d)",
		len(jobs), runID, min(o.cfg.Workers, len(jobs)))

	outcomes := o.dispatch(jobs)
	summary := newSummary(runID, outcomes, time.Since(start))

	o.displayResults(summary)

	return summary, nil
}

// dispatch runs every job on the worker pool and blocks until all of them
// have produced an outcome. outcomes[i] belongs to jobs[i].
func (o *Orchestrator) dispatch(jobs []Job) []convert.Outcome {
	outcomes := make([]convert.Outcome, len(jobs))

	workers := min(o.cfg.Workers, len(jobs))
	queue := make(chan Job, min(o.cfg.QueueSize, len(jobs)))

	timer := o.console.StartTimer("Conversion")
	bar := o.console.NewProgressBar(int64(len(jobs)), "Converting images")
	var done atomic.Int64

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		id := w
		g.Go(func() error {
			o.worker(id, queue, outcomes, &done, bar)
			return nil
		})
	}

	for _, job := range jobs {
		queue <- job
	}
	close(queue)

	// Workers never return an error; failures travel in outcomes, so Wait
	// is only the join barrier.
	_ = g.Wait()
	bar.Complete()
	timer.End()

	return outcomes
}

func (o *Orchestrator) worker(id int, queue <-chan Job, outcomes []convert.Outcome,
	done *atomic.Int64, bar *logger.ProgressBar) {
	for job := range queue {
		out := o.convert(job)
		outcomes[job.Index] = out

		n := done.Add(1)
		if out.Failed() {
			progress := float64(n) / float64(len(outcomes)) * 100
			o.console.Error("Worker %d: Error processing %s: %v (%.1f%% complete)",
				id+1, filepath.Base(job.Source), out.Err, progress)
		}

		bar.Increment(1)
	}
}

// convert runs the strategy on one job. A panic becomes that job's failure
// and the worker moves on to the next file.
func (o *Orchestrator) convert(job Job) (out convert.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = convert.Outcome{
				Source: job.Source,
				Target: convert.OutputPath(job.Source, o.cfg.Destination),
				Err:    fmt.Errorf("conversion panicked: %v", r),
			}
		}
	}()
	return o.strategy.Convert(job.Source, o.cfg.Destination)
}

func (o *Orchestrator) displayResults(s *RunSummary) {
	table := o.console.NewTable([]string{"Metric", "Value"})
	table.AddRow("Processed files", fmt.Sprintf("%d/%d", s.Succeeded, s.Total))
	table.AddRow("Failed files", fmt.Sprintf("%d", s.Failed()))
	for _, backend := range slices.Sorted(maps.Keys(s.ByBackend)) {
		table.AddRow("Converted by "+backend, fmt.Sprintf("%d", s.ByBackend[backend]))
	}
	table.AddRow("Elapsed", logger.FormatDuration(s.Elapsed))

	o.console.Info("Processing Summary:")
	table.Print()

	if s.Failed() == 0 {
		return
	}
	o.console.Warn("%d failed conversions occurred:", s.Failed())
	for _, f := range s.Failures {
		o.console.Log("  %s", f.Message)
	}
}
