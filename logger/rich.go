package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
)

const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
)

type Options struct {
	Output       io.Writer
	TimeFormat   string
	Level        slog.Level
	AddSource    bool
	EnableJSON   bool
	EnableColors bool
	CompactJSON  bool
}

func DefaultOptions() *Options {
	return &Options{
		Level:        slog.LevelInfo,
		AddSource:    false,
		EnableColors: true,
		TimeFormat:   "2006-01-02 15:04:05.000",
		Output:       os.Stdout,
		CompactJSON:  true,
	}
}

// syncWriter serializes writes from the handler, the progress bar and the
// spinner, which all share one terminal.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

type RichHandler struct {
	opts  *Options
	out   io.Writer
	attrs []slog.Attr
	group string
}

func NewRichHandler(opts *Options, out io.Writer) *RichHandler {
	if opts == nil {
		opts = DefaultOptions()
	}
	if out == nil {
		out = opts.Output
	}
	if out == nil {
		out = os.Stdout
	}

	return &RichHandler{opts: opts, out: out}
}

func (h *RichHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level
}

func (h *RichHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	h2.attrs = append(h2.attrs, h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		h2.attrs = append(h2.attrs, a)
	}
	return &h2
}

func (h *RichHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	if h.group != "" {
		h2.group = h.group + "." + name
	} else {
		h2.group = name
	}
	return &h2
}

func (h *RichHandler) Handle(_ context.Context, record slog.Record) error {
	if h.opts.EnableJSON {
		return h.handleJSON(record)
	}
	return h.handleText(record)
}

func (h *RichHandler) collect(record slog.Record, fn func(key string, val slog.Value)) {
	for _, a := range h.attrs {
		fn(a.Key, a.Value)
	}
	record.Attrs(func(a slog.Attr) bool {
		key := a.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		fn(key, a.Value)
		return true
	})
}

func (h *RichHandler) handleJSON(record slog.Record) error {
	jsonMap := map[string]any{
		"time":  record.Time.Format(h.opts.TimeFormat),
		"level": record.Level.String(),
		"msg":   stripANSI(record.Message),
	}

	if h.opts.AddSource && record.PC != 0 {
		fs := runtime.CallersFrames([]uintptr{record.PC})
		f, _ := fs.Next()
		jsonMap["source"] = fmt.Sprintf("%s:%d", f.File, f.Line)
	}

	h.collect(record, func(key string, val slog.Value) {
		jsonMap[key] = val.Any()
	})

	var (
		data []byte
		err  error
	)
	if h.opts.CompactJSON {
		data, err = json.Marshal(jsonMap)
	} else {
		data, err = json.MarshalIndent(jsonMap, "", "  ")
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(h.out, string(data))
	return err
}

func (h *RichHandler) handleText(record slog.Record) error {
	var b strings.Builder

	paint := func(color, s string) {
		if h.opts.EnableColors && color != "" {
			b.WriteString(color)
			b.WriteString(s)
			b.WriteString(Reset)
			return
		}
		b.WriteString(s)
	}

	levelColors := map[slog.Level]string{
		slog.LevelDebug: Cyan,
		slog.LevelInfo:  Green,
		slog.LevelWarn:  Yellow,
		slog.LevelError: Red,
	}

	paint(Blue, record.Time.Format(h.opts.TimeFormat))
	b.WriteString(" ")
	paint(levelColors[record.Level]+Bold, fmt.Sprintf("%-5s", strings.ToUpper(record.Level.String())))
	b.WriteString(" ")

	if h.opts.AddSource && record.PC != 0 {
		fs := runtime.CallersFrames([]uintptr{record.PC})
		f, _ := fs.Next()
		file := f.File
		if i := strings.LastIndex(file, "/"); i >= 0 {
			file = file[i+1:]
		}
		paint(Magenta, fmt.Sprintf("%s:%d", file, f.Line))
		b.WriteString(" ")
	}

	b.WriteString(record.Message)

	h.collect(record, func(key string, val slog.Value) {
		b.WriteString(" ")
		paint(Cyan, key+"=")
		b.WriteString(val.String())
	})

	_, err := fmt.Fprintln(h.out, b.String())
	return err
}

func stripANSI(s string) string {
	if !strings.Contains(s, "\033[") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\033' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && s[j] != 'm' {
				j++
			}
			i = j
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
