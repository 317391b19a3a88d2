package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mwhitten/shelfmark/internal/tui/styles"
)

// Scroll indicators ("↑ more" and "↓ more") each take 1 line
const scrollIndicatorLines = 2

// Row is one rendered list entry.
type Row struct {
	Text  string
	Badge string // optional leading glyph, already styled
	Dim   bool
}

// List is a scrollable cursor-driven list. It holds rendered rows, not
// domain values; the owning view rebuilds rows when its data changes.
type List struct {
	rows   []Row
	cursor int
	offset int

	width  int
	height int
}

// NewList creates an empty list.
func NewList() *List {
	return &List{}
}

// SetRows replaces the content, clamping the cursor into range.
func (l *List) SetRows(rows []Row) {
	l.rows = rows
	if l.cursor >= len(rows) {
		l.cursor = len(rows) - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
	l.clampOffset()
}

// SetSize updates the viewport dimensions.
func (l *List) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.clampOffset()
}

// Cursor returns the selected index, -1 when empty.
func (l *List) Cursor() int {
	if len(l.rows) == 0 {
		return -1
	}
	return l.cursor
}

// Len returns the number of rows.
func (l *List) Len() int { return len(l.rows) }

// MoveUp moves the cursor one row up.
func (l *List) MoveUp() {
	if l.cursor > 0 {
		l.cursor--
	}
	l.clampOffset()
}

// MoveDown moves the cursor one row down.
func (l *List) MoveDown() {
	if l.cursor < len(l.rows)-1 {
		l.cursor++
	}
	l.clampOffset()
}

// MoveTop jumps to the first row.
func (l *List) MoveTop() {
	l.cursor = 0
	l.offset = 0
}

// MoveBottom jumps to the last row.
func (l *List) MoveBottom() {
	if len(l.rows) > 0 {
		l.cursor = len(l.rows) - 1
	}
	l.clampOffset()
}

func (l *List) visibleRows() int {
	v := l.height - scrollIndicatorLines
	if v < 1 {
		v = 1
	}
	return v
}

func (l *List) clampOffset() {
	visible := l.visibleRows()
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+visible {
		l.offset = l.cursor - visible + 1
	}
	if l.offset < 0 {
		l.offset = 0
	}
}

// View renders the visible window with scroll indicators.
func (l *List) View() string {
	if len(l.rows) == 0 {
		return styles.DimStyle.Render("  nothing here yet")
	}

	visible := l.visibleRows()
	end := l.offset + visible
	if end > len(l.rows) {
		end = len(l.rows)
	}

	var b strings.Builder

	if l.offset > 0 {
		b.WriteString(styles.DimStyle.Render("  ↑ more"))
	}
	b.WriteString("\n")

	for i := l.offset; i < end; i++ {
		row := l.rows[i]
		line := row.Text
		if row.Badge != "" {
			line = row.Badge + " " + line
		}
		line = styles.Truncate(line, l.width-4)

		switch {
		case i == l.cursor:
			line = styles.SelectedStyle.Render("▸ " + styles.Pad(line, l.width-4))
		case row.Dim:
			line = styles.DimStyle.Render("  " + line)
		default:
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if end < len(l.rows) {
		b.WriteString(styles.DimStyle.Render("  ↓ more"))
	}

	return lipgloss.NewStyle().Width(l.width).Render(b.String())
}
