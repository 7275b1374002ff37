package output

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const columnGap = "  "

type column struct {
	header string
	width  int
	right  bool
}

// Table lays out rows in columns sized to their widest cell. Cells may
// carry ANSI styling; widths are measured on what the terminal prints.
type Table struct {
	cols []column
	rows [][]string
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	cols := make([]column, len(headers))
	for i, h := range headers {
		cols[i] = column{header: h, width: visualLen(h)}
	}
	return &Table{cols: cols}
}

// AlignRight right-aligns the given columns, for numbers.
func (t *Table) AlignRight(cols ...int) *Table {
	for _, c := range cols {
		if c >= 0 && c < len(t.cols) {
			t.cols[c].right = true
		}
	}
	return t
}

// AddRow appends a row. Missing values render empty; extra values are
// dropped.
func (t *Table) AddRow(values ...string) {
	row := make([]string, len(t.cols))
	copy(row, values)
	for i, cell := range row {
		t.cols[i].width = max(t.cols[i].width, visualLen(cell))
	}
	t.rows = append(t.rows, row)
}

// Len reports the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render returns the header, a rule and every row, one per line.
func (t *Table) Render() string {
	if len(t.cols) == 0 {
		return ""
	}

	var sb strings.Builder
	t.line(&sb, func(i int, c column) string {
		return StyleHeader.Render(c.align(c.header))
	})
	t.line(&sb, func(i int, c column) string {
		return StyleMuted.Render(strings.Repeat("─", c.width))
	})
	for _, row := range t.rows {
		t.line(&sb, func(i int, c column) string {
			return c.align(row[i])
		})
	}
	return sb.String()
}

// String implements fmt.Stringer.
func (t *Table) String() string {
	return t.Render()
}

func (t *Table) line(sb *strings.Builder, cell func(int, column) string) {
	for i, c := range t.cols {
		if i > 0 {
			sb.WriteString(columnGap)
		}
		sb.WriteString(cell(i, c))
	}
	sb.WriteString("\n")
}

func (c column) align(s string) string {
	n := visualLen(s)
	if n >= c.width {
		return s
	}
	fill := strings.Repeat(" ", c.width-n)
	if c.right {
		return fill + s
	}
	return s + fill
}

// visualLen is the printed width of s, ignoring ANSI escape sequences.
func visualLen(s string) int {
	return lipgloss.Width(s)
}
