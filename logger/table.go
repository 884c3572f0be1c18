package logger

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"
)

type Table struct {
	headers     []string
	rows        [][]string
	columnWidth []int
	out         io.Writer
	logger      *slog.Logger
}

func NewTable(headers []string, out io.Writer) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}

	return &Table{
		headers:     headers,
		columnWidth: widths,
		out:         out,
	}
}

func (t *Table) AddRow(cells ...string) {
	if len(cells) > len(t.headers) {
		cells = cells[:len(t.headers)]
	} else if len(cells) < len(t.headers) {
		padded := make([]string, len(t.headers))
		copy(padded, cells)
		cells = padded
	}

	for i, cell := range cells {
		if n := utf8.RuneCountInString(cell); n > t.columnWidth[i] {
			t.columnWidth[i] = n
		}
	}

	t.rows = append(t.rows, cells)
}

func (t *Table) rule(left, mid, right string) string {
	parts := make([]string, len(t.columnWidth))
	for i, w := range t.columnWidth {
		parts[i] = strings.Repeat("─", w+2)
	}
	return left + strings.Join(parts, mid) + right
}

func (t *Table) line(cells []string) string {
	var sb strings.Builder
	sb.WriteString("│")
	for i, cell := range cells {
		pad := t.columnWidth[i] - utf8.RuneCountInString(cell)
		sb.WriteString(" " + cell + strings.Repeat(" ", pad) + " │")
	}
	return sb.String()
}

func (t *Table) String() string {
	var sb strings.Builder

	sb.WriteString(t.rule("┌", "┬", "┐") + "\n")
	sb.WriteString(t.line(t.headers) + "\n")
	sb.WriteString(t.rule("├", "┼", "┤") + "\n")
	for _, row := range t.rows {
		sb.WriteString(t.line(row) + "\n")
	}
	sb.WriteString(t.rule("└", "┴", "┘"))

	return sb.String()
}

func (t *Table) Print() {
	if t.logger != nil {
		t.emit()
		return
	}
	fmt.Fprintln(t.out, t.String())
}

// emit logs every row as one record keyed by the lowercased headers.
func (t *Table) emit() {
	for _, row := range t.rows {
		args := make([]any, 0, 2*len(row))
		for i, cell := range row {
			args = append(args, strings.ToLower(t.headers[i]), cell)
		}
		t.logger.Info("table row", args...)
	}
}
