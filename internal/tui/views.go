package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mwhitten/shelfmark/internal/domain"
	"github.com/mwhitten/shelfmark/internal/stats"
	"github.com/mwhitten/shelfmark/internal/tui/components"
	"github.com/mwhitten/shelfmark/internal/tui/styles"
)

// Vertical chrome: title line, tab line, footer line
const chromeHeight = 3

func (m Model) View() string {
	if !m.Ready {
		return "loading..."
	}

	var body string
	switch m.ActiveView {
	case ViewShelf:
		body = m.renderShelf()
	case ViewSearch:
		body = m.renderSearch()
	case ViewDetail:
		body = m.renderDetail()
	case ViewLibraries:
		body = m.renderLibraries()
	case ViewStats:
		body = m.renderStats()
	case ViewHelp:
		body = m.renderHelp()
	case ViewConfirmLogout:
		body = m.renderLogoutConfirmation()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	title := styles.TitleStyle.Render("Shelfmark")

	tabs := []struct {
		view  View
		label string
	}{
		{ViewShelf, "1:Shelf"},
		{ViewSearch, "2:Search"},
		{ViewLibraries, "3:Libraries"},
		{ViewStats, "4:Stats"},
	}
	var rendered []string
	for _, t := range tabs {
		if t.view == m.ActiveView {
			rendered = append(rendered, styles.ActiveTabStyle.Render(t.label))
		} else {
			rendered = append(rendered, styles.TabStyle.Render(t.label))
		}
	}

	var spin string
	if m.Loading || m.Searching {
		spin = " " + m.Spinner.View()
	}
	return title + "  " + strings.Join(rendered, " ") + spin
}

func (m Model) renderFooter() string {
	if m.Status != "" {
		if m.StatusErr {
			return styles.ErrorStyle.Render(" " + m.Status)
		}
		return styles.SuccessStyle.Render(" " + m.Status)
	}

	var hints []string
	switch m.ActiveView {
	case ViewShelf:
		hints = []string{"tab switch list", "/ filter", "w/r/d move", "x remove", "enter open"}
	case ViewSearch:
		hints = []string{"/ new search", "w/r track", "n next page", "enter open"}
	case ViewDetail:
		hints = []string{"w/r/d track", "1-5 rate", "x remove", "esc back"}
	case ViewLibraries:
		hints = []string{"/ discover", "a add", "x remove", "esc back"}
	default:
		hints = []string{"1-4 views"}
	}
	hints = append(hints, "? help", "q quit")

	var b strings.Builder
	for i, h := range hints {
		if i > 0 {
			b.WriteString(styles.HelpDescStyle.Render(" · "))
		}
		b.WriteString(styles.HelpDescStyle.Render(h))
	}
	return " " + b.String()
}

// === Shelf ===

func (m *Model) rebuildShelfRows() {
	records := m.visibleRecords()
	rows := make([]components.Row, len(records))
	for i, rec := range records {
		rows[i] = components.Row{
			Badge: stateBadge(rec.State),
			Text:  m.shelfRowText(rec),
		}
	}
	m.ShelfList.SetRows(rows)
}

func (m Model) shelfRowText(rec domain.ReadingRecord) string {
	var parts []string
	parts = append(parts, m.titleFor(rec.BookID))
	if rec.Rating > 0 {
		parts = append(parts, FormatStars(rec.Rating))
	}
	switch rec.State {
	case domain.StateReading:
		if rec.StartDate != "" {
			parts = append(parts, "since "+FormatDate(rec.StartDate))
		}
	case domain.StateRead:
		if rec.EndDate != "" {
			parts = append(parts, "finished "+FormatDate(rec.EndDate))
		}
	}
	if !rec.Synced() {
		parts = append(parts, "(syncing)")
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderShelf() string {
	counts := stats.StatusCounts(m.Records)
	var header string
	for t := tabAll; t <= tabRead; t++ {
		label := t.label()
		switch t {
		case tabAll:
			label = fmt.Sprintf("%s %d", label, counts.Total())
		case tabWishlist:
			label = fmt.Sprintf("%s %d", label, counts.Wishlist)
		case tabReading:
			label = fmt.Sprintf("%s %d", label, counts.Reading)
		case tabRead:
			label = fmt.Sprintf("%s %d", label, counts.Read)
		}
		if t == m.ShelfTab {
			header += styles.ActiveTabStyle.Render(label)
		} else {
			header += styles.TabStyle.Render(label)
		}
	}

	if m.Filtering || m.FilterInput.Value() != "" {
		header += "  " + m.FilterInput.View()
	}

	return header + "\n" + m.ShelfList.View()
}

// === Search ===

func (m *Model) rebuildSearchRows() {
	books := m.Results
	if m.LastQuery == "" {
		books = m.Popular
	}
	rows := make([]components.Row, len(books))
	for i, b := range books {
		rows[i] = components.Row{Text: m.searchRowText(b)}
	}
	m.SearchList.SetRows(rows)
}

func (m Model) searchRowText(b domain.Book) string {
	text := b.Title
	if b.Author != "" {
		text += styles.DimStyle.Render("  " + b.Author)
	}
	if b.PubYear > 0 {
		text += styles.DimStyle.Render(fmt.Sprintf(" (%d)", b.PubYear))
	}
	if rec, ok := m.ShelfSvc.Cache().Get(b.ID); ok {
		text += "  " + stateBadge(rec.State)
	}
	return text
}

func (m Model) renderSearch() string {
	header := m.SearchInput.View()
	var caption string
	switch {
	case m.Searching:
		caption = styles.DimStyle.Render("searching...")
	case m.LastQuery == "" && len(m.Popular) > 0:
		caption = styles.SubtitleStyle.Render("Popular this month")
	case m.LastQuery != "":
		caption = styles.DimStyle.Render(fmt.Sprintf("%d results for %q", len(m.Results), m.LastQuery))
		if m.HasMore {
			caption += styles.DimStyle.Render("  (n for more)")
		}
	}
	return header + "\n" + caption + "\n" + m.SearchList.View()
}

// === Detail ===

func (m Model) renderDetail() string {
	b := m.Detail
	var lines []string

	lines = append(lines, styles.TitleStyle.Render(m.titleFor(b.ID)))
	if b.Author != "" {
		byline := b.Author
		if b.Publisher != "" {
			byline += " · " + b.Publisher
		}
		if b.PubYear > 0 {
			byline += fmt.Sprintf(" · %d", b.PubYear)
		}
		lines = append(lines, styles.SubtitleStyle.Render(byline))
	}
	if b.Category != "" || b.Pages > 0 {
		meta := b.Category
		if b.Pages > 0 {
			if meta != "" {
				meta += " · "
			}
			meta += fmt.Sprintf("%d pages", b.Pages)
		}
		lines = append(lines, styles.DimStyle.Render(meta))
	}
	lines = append(lines, "")

	if rec, ok := m.ShelfSvc.Cache().Get(b.ID); ok {
		status := stateBadge(rec.State) + " " + StateLabel(rec.State)
		if rec.Rating > 0 {
			status += "  " + styles.AccentStyle.Render(FormatStars(rec.Rating))
		}
		lines = append(lines, status)
		if rec.StartDate != "" {
			lines = append(lines, styles.DimStyle.Render("Started "+FormatDate(rec.StartDate)))
		}
		if rec.EndDate != "" {
			lines = append(lines, styles.DimStyle.Render("Finished "+FormatDate(rec.EndDate)))
		}
		if rec.Comment != "" {
			lines = append(lines, "", styles.SubtitleStyle.Render("“"+rec.Comment+"”"))
		}
	} else {
		lines = append(lines, styles.DimStyle.Render("Not on your shelf"))
	}
	lines = append(lines, "")

	if b.Description != "" {
		desc := lipgloss.NewStyle().Width(min(m.Width-4, 80)).Render(b.Description)
		lines = append(lines, desc, "")
	}

	if len(m.DetailAvail) > 0 {
		lines = append(lines, styles.SubtitleStyle.Render("At your libraries"))
		for _, a := range m.DetailAvail {
			lines = append(lines, "  "+m.availabilityLine(a))
		}
	} else if m.LibrarySvc.Cache().Len() > 0 {
		lines = append(lines, styles.DimStyle.Render("checking availability..."))
	}

	return lipgloss.NewStyle().Padding(0, 2).Render(strings.Join(lines, "\n"))
}

func (m Model) availabilityLine(a domain.Availability) string {
	name := a.LibraryID
	for _, lib := range m.MyLibs {
		if lib.ID == a.LibraryID {
			name = lib.Name
			break
		}
	}
	switch {
	case !a.HasBook:
		return name + "  " + styles.DimStyle.Render("not held")
	case a.Available:
		detail := "available"
		if a.TotalCount > 0 {
			detail = fmt.Sprintf("available (%d of %d in)", a.AvailableCount, a.TotalCount)
		}
		return name + "  " + styles.SuccessStyle.Render(detail)
	default:
		detail := "all copies out"
		if a.ReservationCount > 0 {
			detail = fmt.Sprintf("all copies out, %d waiting", a.ReservationCount)
		}
		return name + "  " + styles.ErrorStyle.Render(detail)
	}
}

// === Libraries ===

func (m *Model) rebuildLibRows() {
	var rows []components.Row
	if m.LibMode == libModeDiscover {
		rows = make([]components.Row, len(m.Discovered))
		for i, lib := range m.Discovered {
			text := lib.Name
			if lib.Address != "" {
				text += styles.DimStyle.Render("  " + lib.Address)
			}
			if d := FormatDistance(lib.DistanceKm); d != "" {
				text += styles.DimStyle.Render("  " + d)
			}
			if m.LibrarySvc.Cache().Has(lib.ID) {
				text += "  " + styles.SuccessStyle.Render("✓ added")
			}
			rows[i] = components.Row{Text: text}
		}
	} else {
		rows = make([]components.Row, len(m.MyLibs))
		for i, lib := range m.MyLibs {
			text := fmt.Sprintf("%d. %s", i+1, lib.Name)
			if lib.Address != "" {
				text += styles.DimStyle.Render("  " + lib.Address)
			}
			rows[i] = components.Row{Text: text}
		}
	}
	m.LibList.SetRows(rows)
}

func (m Model) renderLibraries() string {
	var header string
	if m.LibMode == libModeDiscover {
		header = m.DiscoverInput.View()
	} else {
		header = styles.SubtitleStyle.Render(
			fmt.Sprintf("Home libraries (%d of %d)", m.LibrarySvc.Cache().Len(), domain.MaxMyLibraries))
	}
	return header + "\n\n" + m.LibList.View()
}

// === Stats ===

func (m Model) renderStats() string {
	records := m.Records
	counts := stats.StatusCounts(records)

	var lines []string
	lines = append(lines, styles.TitleStyle.Render("Reading stats"), "")
	lines = append(lines, fmt.Sprintf("%s  %d tracked · %d wishlist · %d reading · %d finished",
		styles.AccentStyle.Render("Shelf"),
		counts.Total(), counts.Wishlist, counts.Reading, counts.Read))

	now := time.Now()
	lines = append(lines, fmt.Sprintf("%s  %d books",
		styles.AccentStyle.Render(fmt.Sprintf("Finished in %d", now.Year())),
		stats.CompletedInYear(records, now.Year())))

	if avg, ok := stats.AverageRating(records); ok {
		lines = append(lines, fmt.Sprintf("%s  %.1f", styles.AccentStyle.Render("Average rating"), avg))
	}
	lines = append(lines, "")

	lines = append(lines, styles.SubtitleStyle.Render("Last 6 months"))
	buckets := stats.MonthlyCompletions(records, now, 6)
	maxCount := 1
	for _, b := range buckets {
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}
	for _, b := range buckets {
		bar := strings.Repeat("▇", b.Count*20/maxCount)
		lines = append(lines, fmt.Sprintf("  %s %s %d",
			styles.DimStyle.Render(b.Month.String()[:3]),
			styles.AccentStyle.Render(bar), b.Count))
	}
	lines = append(lines, "")

	byCategory := stats.CategoryBreakdown(records, func(bookID string) (string, bool) {
		book, ok := m.Titles[bookID]
		return book.Category, ok
	})
	if len(byCategory) > 0 {
		lines = append(lines, styles.SubtitleStyle.Render("By category"))
		for category, n := range byCategory {
			lines = append(lines, fmt.Sprintf("  %s %d", styles.Pad(category, 16), n))
		}
		lines = append(lines, "")
	}

	if notes := stats.RecentNotes(records, 3); len(notes) > 0 {
		lines = append(lines, styles.SubtitleStyle.Render("Recent notes"))
		for _, rec := range notes {
			lines = append(lines, fmt.Sprintf("  %s  %s",
				styles.AccentStyle.Render(m.titleFor(rec.BookID)),
				styles.DimStyle.Render(rec.Comment)))
		}
	}

	return lipgloss.NewStyle().Padding(0, 2).Render(strings.Join(lines, "\n"))
}

// === Overlays ===

func (m Model) renderHelp() string {
	rows := [][2]string{
		{"1-4", "switch view"},
		{"j/k, ↓/↑", "move"},
		{"g/G", "top/bottom"},
		{"enter", "open book"},
		{"tab", "cycle shelf list"},
		{"/", "filter or search"},
		{"w", "want to read"},
		{"r", "mark reading"},
		{"d", "mark finished"},
		{"1-5", "rate (detail view)"},
		{"x", "remove"},
		{"n", "next result page"},
		{"R", "refresh from server"},
		{"L", "sign out"},
		{"q", "quit"},
	}
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Keys"))
	b.WriteString("\n\n")
	for _, r := range rows {
		b.WriteString("  ")
		b.WriteString(styles.HelpKeyStyle.Render(styles.Pad(r[0], 10)))
		b.WriteString(styles.HelpDescStyle.Render(r[1]))
		b.WriteString("\n")
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m Model) renderLogoutConfirmation() string {
	content := styles.TitleStyle.Render("Sign out?") + "\n\n" +
		"Local shelf and library caches are cleared.\n\n" +
		styles.HelpKeyStyle.Render("y") + styles.HelpDescStyle.Render(" confirm  ") +
		styles.HelpKeyStyle.Render("n") + styles.HelpDescStyle.Render(" cancel")
	return styles.ActiveBorder.Padding(1, 3).Render(content)
}

func stateBadge(state domain.ReadingState) string {
	glyph := stateGlyph(state)
	switch state {
	case domain.StateWishlist:
		return styles.WishlistBadge.Render(glyph)
	case domain.StateReading:
		return styles.ReadingBadge.Render(glyph)
	case domain.StateRead:
		return styles.ReadBadge.Render(glyph)
	}
	return glyph
}
