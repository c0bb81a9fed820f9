// Package table renders rows of text as a bordered ASCII table. Cell widths
// are measured in terminal columns with ANSI escape sequences ignored, so
// colored cells stay aligned.
package table

import (
	"io"
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripAnsi(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

func displayWidth(s string) int {
	return runewidth.StringWidth(stripAnsi(s))
}

type Table struct {
	writer          io.Writer
	header          []string
	rows            [][]string
	columnAlignment []Alignment
	headerAlignment []Alignment
}

func NewTable(w io.Writer) *Table {
	return &Table{writer: w}
}

func (t *Table) WithHeader(header []string) *Table {
	t.header = header
	return t
}

func (t *Table) WithColumnAlignment(alignment []Alignment) *Table {
	t.columnAlignment = alignment
	return t
}

func (t *Table) WithHeaderAlignment(alignment []Alignment) *Table {
	t.headerAlignment = alignment
	return t
}

func (t *Table) WithRows(rows [][]string) *Table {
	t.rows = append(t.rows, rows...)
	return t
}

func (t *Table) Append(row []string) *Table {
	t.rows = append(t.rows, row)
	return t
}

// Render writes the table. Nothing is written for a table with no header
// and no rows.
func (t *Table) Render() error {
	widths := t.columnWidths()
	if len(widths) == 0 {
		return nil
	}
	var sb strings.Builder
	border := t.border(widths)
	sb.WriteString(border)
	if len(t.header) > 0 {
		t.writeRow(&sb, t.header, widths, t.headerAlignment)
		sb.WriteString(border)
	}
	for _, row := range t.rows {
		t.writeRow(&sb, row, widths, t.columnAlignment)
	}
	if len(t.rows) > 0 {
		sb.WriteString(border)
	}
	_, err := io.WriteString(t.writer, sb.String())
	return err
}

func (t *Table) columnWidths() []int {
	var widths []int
	measure := func(row []string) {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(t.header)
	for _, row := range t.rows {
		measure(row)
	}
	return widths
}

func (t *Table) border(widths []int) string {
	var sb strings.Builder
	sb.WriteByte('+')
	for _, w := range widths {
		sb.WriteString(strings.Repeat("-", w+2))
		sb.WriteByte('+')
	}
	sb.WriteByte('\n')
	return sb.String()
}

func (t *Table) writeRow(sb *strings.Builder, row []string, widths []int, alignment []Alignment) {
	sb.WriteByte('|')
	for i, w := range widths {
		var cell string
		if i < len(row) {
			cell = row[i]
		}
		align := AlignLeft
		if i < len(alignment) {
			align = alignment[i]
		}
		sb.WriteByte(' ')
		sb.WriteString(pad(cell, w, align))
		sb.WriteString(" |")
	}
	sb.WriteByte('\n')
}

func pad(s string, width int, align Alignment) string {
	gap := width - displayWidth(s)
	if gap <= 0 {
		return s
	}
	switch align {
	case AlignRight:
		return strings.Repeat(" ", gap) + s
	case AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	default:
		return s + strings.Repeat(" ", gap)
	}
}
