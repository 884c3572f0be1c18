package convert

import (
	"errors"
	"fmt"
	"time"

	"cr2jpeg/logger"
)

var ErrNoBackends = errors.New("no conversion backend configured")

// Outcome is the result of converting one file: a success naming the
// backend that produced Target, or a failure carrying Err.
type Outcome struct {
	Source  string
	Target  string
	Backend string
	Err     error
	Elapsed time.Duration
}

func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Message is the human-readable failure line, "<source>: <reason>".
func (o Outcome) Message() string {
	if o.Err == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", o.Source, o.Err)
}

// Chain tries its backends in order and stops at the first success.
// Failures of earlier backends are logged and dropped; only the last
// backend's error reaches the outcome.
type Chain struct {
	backends []Backend
	console  *logger.Console
}

func NewChain(console *logger.Console, backends ...Backend) *Chain {
	if console == nil {
		console = logger.Discard()
	}
	return &Chain{backends: backends, console: console}
}

func (c *Chain) Convert(source, destDir string) Outcome {
	start := time.Now()
	out := Outcome{Source: source, Target: OutputPath(source, destDir)}

	if len(c.backends) == 0 {
		out.Err = ErrNoBackends
		out.Elapsed = time.Since(start)
		return out
	}

	for i, b := range c.backends {
		err := attempt(b, source, out.Target)
		if err == nil {
			out.Backend = b.Name()
			out.Err = nil
			break
		}

		out.Err = err
		if next := i + 1; next < len(c.backends) {
			c.console.Warn("Could not convert %s with %s (%v), trying %s",
				source, b.Name(), err, c.backends[next].Name())
		}
	}

	out.Elapsed = time.Since(start)
	return out
}

// attempt runs one backend, turning a panic into an ordinary error so a
// misbehaving decoder cannot take the whole batch down.
func attempt(b Backend, source, target string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", b.Name(), r)
		}
	}()
	return b.Convert(source, target)
}
