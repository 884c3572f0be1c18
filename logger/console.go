package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

type Console struct {
	Logger    *slog.Logger
	Colorized bool
	out       io.Writer
	json      bool
}

func NewConsole(opts *Options) *Console {
	if opts == nil {
		opts = DefaultOptions()
	}
	output := opts.Output
	if output == nil {
		output = os.Stdout
	}
	out := &syncWriter{w: output}

	return &Console{
		Logger:    slog.New(NewRichHandler(opts, out)),
		Colorized: opts.EnableColors && !opts.EnableJSON,
		out:       out,
		json:      opts.EnableJSON,
	}
}

// Discard returns a console that swallows everything.
func Discard() *Console {
	opts := DefaultOptions()
	opts.Output = io.Discard
	opts.EnableColors = false
	return NewConsole(opts)
}

func (c *Console) StartTimer(name string) *Timer {
	return &Timer{
		Name:      name,
		StartTime: time.Now(),
		Console:   c,
	}
}

func (c *Console) paint(color, icon, format string, args ...any) string {
	msg := icon + fmt.Sprintf(format, args...)
	if c.Colorized && color != "" {
		msg = color + msg + Reset
	}
	return msg
}

func (c *Console) Success(format string, args ...any) {
	c.Logger.Info(c.paint(Green+Bold, "✓ ", format, args...))
}

func (c *Console) Info(format string, args ...any) {
	c.Logger.Info(c.paint(Blue+Bold, "ℹ ", format, args...))
}

func (c *Console) Log(format string, args ...any) {
	c.Logger.Info(c.paint(White, "", format, args...))
}

func (c *Console) Warn(format string, args ...any) {
	c.Logger.Warn(c.paint(Yellow+Bold, "⚠ ", format, args...))
}

func (c *Console) Error(format string, args ...any) {
	c.Logger.Error(c.paint(Red+Bold, "✖ ", format, args...))
}

func (c *Console) StartSpinner(message string) *Spinner {
	s := &Spinner{
		Message: message,
		Frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		Console: c,
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
		quiet:   c.json,
	}

	s.Start()
	return s
}

// NewProgressBar draws on the console writer. In JSON mode the bar is
// drawn nowhere.
func (c *Console) NewProgressBar(total int64, label string) *ProgressBar {
	if c.json {
		return NewProgressBar(total, label, io.Discard)
	}
	return NewProgressBar(total, label, c.out)
}

// NewTable returns a table that prints box-drawn, or one record per row
// in JSON mode.
func (c *Console) NewTable(headers []string) *Table {
	t := NewTable(headers, c.out)
	if c.json {
		t.logger = c.Logger
	}
	return t
}

func (c *Console) Box(title string, content string) {
	if c.json {
		c.Logger.Info(title, "lines", strings.Split(content, "\n"))
		return
	}

	lines := strings.Split(content, "\n")
	maxWidth := len(title)

	for _, line := range lines {
		if len(line) > maxWidth {
			maxWidth = len(line)
		}
	}

	maxWidth += 4

	var b strings.Builder
	b.WriteString("┌─" + title + "─" + strings.Repeat("─", maxWidth-len(title)-2) + "┐\n")
	for _, line := range lines {
		b.WriteString("│ " + line + strings.Repeat(" ", maxWidth-len(line)) + " │\n")
	}
	b.WriteString("└" + strings.Repeat("─", maxWidth+2) + "┘\n")

	io.WriteString(c.out, b.String())
}
