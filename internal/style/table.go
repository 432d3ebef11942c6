package style

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column defines a table column. A zero Width sizes the column to its
// widest cell; MaxWidth, when set, truncates longer cells.
type Column struct {
	Name     string
	Width    int
	MaxWidth int
	Align    Alignment
	Style    lipgloss.Style
}

// Alignment specifies column text alignment.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

// CellStyler picks a style for one cell. Returning ok=false keeps the
// column style.
type CellStyler func(row, col int, value string) (lipgloss.Style, bool)

// Table provides styled table rendering.
type Table struct {
	columns     []Column
	rows        [][]string
	headerSep   bool
	indent      string
	headerStyle lipgloss.Style
	styler      CellStyler
}

// NewTable creates a new table with the given columns.
func NewTable(columns ...Column) *Table {
	return &Table{
		columns:     columns,
		headerSep:   true,
		indent:      "  ",
		headerStyle: Bold,
	}
}

// SetIndent sets the left indent for the table.
func (t *Table) SetIndent(indent string) *Table {
	t.indent = indent
	return t
}

// SetHeaderSeparator enables/disables the header separator line.
func (t *Table) SetHeaderSeparator(enabled bool) *Table {
	t.headerSep = enabled
	return t
}

// SetCellStyler installs a per-cell style hook, used for status coloring.
func (t *Table) SetCellStyler(fn CellStyler) *Table {
	t.styler = fn
	return t
}

// AddRow adds a row of values to the table. Missing trailing values are
// rendered empty and extra values are dropped.
func (t *Table) AddRow(values ...string) *Table {
	row := make([]string, len(t.columns))
	copy(row, values)
	t.rows = append(t.rows, row)
	return t
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// widths resolves the effective width of every column.
func (t *Table) widths() []int {
	widths := make([]int, len(t.columns))
	for i, col := range t.columns {
		if col.Width > 0 {
			widths[i] = col.Width
			continue
		}
		w := lipgloss.Width(col.Name)
		for _, row := range t.rows {
			if cw := lipgloss.Width(row[i]); cw > w {
				w = cw
			}
		}
		if col.MaxWidth > 0 && w > col.MaxWidth {
			w = col.MaxWidth
		}
		widths[i] = w
	}
	return widths
}

// Render returns the formatted table string.
func (t *Table) Render() string {
	if len(t.columns) == 0 {
		return ""
	}

	widths := t.widths()
	var sb strings.Builder

	sb.WriteString(t.indent)
	for i, col := range t.columns {
		sb.WriteString(pad(t.headerStyle.Render(col.Name), col.Name, widths[i], col.Align))
		if i < len(t.columns)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("\n")

	if t.headerSep {
		total := len(widths) - 1
		for _, w := range widths {
			total += w
		}
		sb.WriteString(t.indent)
		sb.WriteString(Dim.Render(strings.Repeat("─", total)))
		sb.WriteString("\n")
	}

	for r, row := range t.rows {
		sb.WriteString(t.indent)
		for i, col := range t.columns {
			plain := truncate(row[i], widths[i])
			styled := plain
			st := col.Style
			if t.styler != nil {
				if s, ok := t.styler(r, i, row[i]); ok {
					st = s
				}
			}
			if st.Value() != "" || t.styler != nil {
				styled = st.Render(plain)
			}
			sb.WriteString(pad(styled, plain, widths[i], col.Align))
			if i < len(t.columns)-1 {
				sb.WriteString(" ")
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// truncate shortens s to width cells, ending with "..." when cut.
func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	if width <= 3 {
		return string([]rune(s)[:width])
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+3 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

// pad pads styled to width using the visible width of plain.
func pad(styled, plain string, width int, align Alignment) string {
	n := lipgloss.Width(plain)
	if n >= width {
		return styled
	}
	padding := width - n

	switch align {
	case AlignRight:
		return strings.Repeat(" ", padding) + styled
	case AlignCenter:
		left := padding / 2
		return strings.Repeat(" ", left) + styled + strings.Repeat(" ", padding-left)
	default:
		return styled + strings.Repeat(" ", padding)
	}
}
