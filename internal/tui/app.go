package tui

import (
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mwhitten/shelfmark/internal/domain"
	"github.com/mwhitten/shelfmark/internal/mylibrary"
	"github.com/mwhitten/shelfmark/internal/search"
	"github.com/mwhitten/shelfmark/internal/session"
	"github.com/mwhitten/shelfmark/internal/shelf"
	"github.com/mwhitten/shelfmark/internal/tui/components"
	"github.com/mwhitten/shelfmark/internal/tui/styles"
)

// View identifies the active screen
type View int

const (
	ViewShelf View = iota
	ViewSearch
	ViewDetail
	ViewLibraries
	ViewStats
	ViewHelp
	ViewConfirmLogout
)

// shelfTab is the state filter over the shelf list. tabAll shows
// everything.
type shelfTab int

const (
	tabAll shelfTab = iota
	tabWishlist
	tabReading
	tabRead
)

func (t shelfTab) state() domain.ReadingState {
	switch t {
	case tabWishlist:
		return domain.StateWishlist
	case tabReading:
		return domain.StateReading
	case tabRead:
		return domain.StateRead
	}
	return ""
}

func (t shelfTab) label() string {
	switch t {
	case tabWishlist:
		return "Wishlist"
	case tabReading:
		return "Reading"
	case tabRead:
		return "Finished"
	}
	return "All"
}

// libraryMode switches the libraries screen between the registered list
// and keyword discovery.
type libraryMode int

const (
	libModeList libraryMode = iota
	libModeDiscover
)

const searchPageSize = 20

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	ActiveView View
	PrevView   View
	Ready      bool
	Width      int
	Height     int

	// Services
	ShelfSvc   *shelf.Service
	LibrarySvc *mylibrary.Service
	SessionSvc *session.Service
	Catalog    domain.CatalogAPI
	Bridge     *CacheBridge
	Logger     *slog.Logger

	// Shelf view
	ShelfList   *components.List
	ShelfTab    shelfTab
	Records     []domain.ReadingRecord
	FilterInput textinput.Model
	Filtering   bool

	// Book titles known so far, keyed by book ID. Filled lazily from
	// search results and detail loads; shelf rows fall back to the ID
	// until a title arrives.
	Titles map[string]domain.Book

	// Search view
	SearchInput textinput.Model
	SearchList  *components.List
	Results     []domain.Book
	Popular     []domain.Book
	LastQuery   string
	SearchPage  int
	HasMore     bool
	Searching   bool

	// Detail view
	Detail       domain.Book
	DetailAvail  []domain.Availability
	DetailLoaded bool

	// Libraries view
	LibList       *components.List
	LibMode       libraryMode
	MyLibs        []domain.Library
	Discovered    []domain.Library
	DiscoverInput textinput.Model

	// Chrome
	Spinner   spinner.Model
	Loading   bool
	Status    string
	StatusErr bool
}

// NewModel wires the services into a fresh model. Caches are assumed to
// be seeded from the mirror already; fresh data loads in Init.
func NewModel(shelfSvc *shelf.Service, libSvc *mylibrary.Service, sessionSvc *session.Service, catalog domain.CatalogAPI, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}

	filter := textinput.New()
	filter.Placeholder = "type to filter..."
	filter.Prompt = "/ "

	searchInput := textinput.New()
	searchInput.Placeholder = "search the catalog..."
	searchInput.Prompt = "❯ "

	discover := textinput.New()
	discover.Placeholder = "search libraries by name or area..."
	discover.Prompt = "❯ "

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.AccentStyle

	m := Model{
		ShelfSvc:      shelfSvc,
		LibrarySvc:    libSvc,
		SessionSvc:    sessionSvc,
		Catalog:       catalog,
		Logger:        logger,
		Bridge:        NewCacheBridge(shelfSvc.Cache(), libSvc.Cache()),
		ShelfList:     components.NewList(),
		SearchList:    components.NewList(),
		LibList:       components.NewList(),
		FilterInput:   filter,
		SearchInput:   searchInput,
		DiscoverInput: discover,
		Spinner:       sp,
		Titles:        make(map[string]domain.Book),
		Records:       shelfSvc.Cache().All(),
		MyLibs:        libSvc.Cache().List(),
	}
	m.rebuildShelfRows()
	m.rebuildLibRows()
	return m
}

// Init starts the cache bridge and kicks off the initial refresh.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.Spinner.Tick,
		m.Bridge.WaitForShelfChange(),
		m.Bridge.WaitForLibraryChange(),
		RefreshShelfCmd(m.ShelfSvc),
		RefreshLibrariesCmd(m.LibrarySvc),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case ShelfChangedMsg:
		m.Records = msg.Records
		m.rebuildShelfRows()
		return m, m.Bridge.WaitForShelfChange()

	case MyLibrariesChangedMsg:
		m.MyLibs = msg.Libraries
		m.rebuildLibRows()
		return m, m.Bridge.WaitForLibraryChange()

	case ShelfRefreshedMsg:
		m.Loading = false
		return m, m.loadMissingTitles()

	case SearchResultsMsg:
		m.Searching = false
		if msg.Append {
			m.Results = append(m.Results, msg.Result.Books...)
		} else {
			m.Results = msg.Result.Books
		}
		m.LastQuery = msg.Query
		m.SearchPage = msg.Result.Page
		m.HasMore = msg.Result.HasNextPage()
		for _, b := range msg.Result.Books {
			m.Titles[b.ID] = b
		}
		m.rebuildSearchRows()
		m.rebuildShelfRows()
		return m, nil

	case PopularBooksMsg:
		m.Popular = msg.Books
		for _, b := range msg.Books {
			m.Titles[b.ID] = b
		}
		if m.LastQuery == "" {
			m.rebuildSearchRows()
		}
		return m, nil

	case BookLoadedMsg:
		m.Titles[msg.Book.ID] = msg.Book
		if m.ActiveView == ViewDetail && m.Detail.ID == msg.Book.ID {
			m.Detail = msg.Book
			m.DetailLoaded = true
		}
		m.rebuildShelfRows()
		return m, nil

	case AvailabilityLoadedMsg:
		if m.ActiveView == ViewDetail && m.Detail.ID == msg.BookID {
			m.DetailAvail = msg.Availability
		}
		return m, nil

	case RecordSavedMsg:
		m.setStatus("Moved to "+StateLabel(msg.Record.State), false)
		return m, ClearStatusCmd(3 * time.Second)

	case RecordRemovedMsg:
		m.setStatus("Removed from shelf", false)
		return m, ClearStatusCmd(3 * time.Second)

	case LibraryAddedMsg:
		m.setStatus("Added "+msg.Library.Name, false)
		return m, ClearStatusCmd(3 * time.Second)

	case LibraryRemovedMsg:
		m.setStatus("Library removed", false)
		return m, ClearStatusCmd(3 * time.Second)

	case LibraryDiscoveryMsg:
		m.Searching = false
		m.Discovered = msg.Libraries
		m.rebuildLibRows()
		return m, nil

	case LoggedOutMsg:
		return m, tea.Quit

	case StatusMsg:
		m.setStatus(msg.Message, msg.IsError)
		return m, ClearStatusCmd(4 * time.Second)

	case ClearStatusMsg:
		m.Status = ""
		m.StatusErr = false
		return m, nil

	case ErrMsg:
		m.Loading = false
		m.Searching = false
		if errors.Is(msg.Err, domain.ErrAuthRequired) {
			m.SessionSvc.HandleAuthFailure()
			m.setStatus("Session expired, sign in again with `shelfmark login`", true)
			return m, tea.Sequence(ClearStatusCmd(5*time.Second), tea.Quit)
		}
		m.Logger.Error("tui error", "context", msg.Context, "error", msg.Err)
		m.setStatus(msg.Error(), true)
		return m, ClearStatusCmd(5 * time.Second)
	}

	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Text inputs swallow everything except escape and enter.
	if m.Filtering || (m.ActiveView == ViewSearch && m.SearchInput.Focused()) ||
		(m.ActiveView == ViewLibraries && m.DiscoverInput.Focused()) {
		return m.handleTypingKey(msg)
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		if m.ActiveView == ViewHelp {
			m.ActiveView = m.PrevView
		} else {
			m.PrevView = m.ActiveView
			m.ActiveView = ViewHelp
		}
		return m, nil

	case key.Matches(msg, Keys.Logout):
		m.PrevView = m.ActiveView
		m.ActiveView = ViewConfirmLogout
		return m, nil
	}

	if m.ActiveView == ViewConfirmLogout {
		switch {
		case key.Matches(msg, Keys.Confirm):
			return m, LogoutCmd(m.SessionSvc)
		case key.Matches(msg, Keys.Deny):
			m.ActiveView = m.PrevView
		}
		return m, nil
	}

	if m.ActiveView == ViewHelp {
		if key.Matches(msg, Keys.Escape) {
			m.ActiveView = m.PrevView
		}
		return m, nil
	}

	// View switching. The detail view keeps the number keys for rating,
	// so leaving it goes through esc/back instead.
	if m.ActiveView != ViewDetail {
		switch {
		case key.Matches(msg, Keys.Shelf):
			m.ActiveView = ViewShelf
			return m, nil
		case key.Matches(msg, Keys.Search):
			m.ActiveView = ViewSearch
			m.SearchInput.Focus()
			var cmd tea.Cmd
			if len(m.Popular) == 0 {
				cmd = PopularBooksCmd(m.Catalog, 20)
			}
			return m, tea.Batch(textinput.Blink, cmd)
		case key.Matches(msg, Keys.Libraries):
			m.ActiveView = ViewLibraries
			m.LibMode = libModeList
			m.rebuildLibRows()
			return m, nil
		case key.Matches(msg, Keys.Stats):
			m.ActiveView = ViewStats
			return m, nil
		}
	}

	switch m.ActiveView {
	case ViewShelf:
		return m.handleShelfKey(msg)
	case ViewSearch:
		return m.handleSearchKey(msg)
	case ViewDetail:
		return m.handleDetailKey(msg)
	case ViewLibraries:
		return m.handleLibrariesKey(msg)
	}
	return m, nil
}

func (m Model) handleTypingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Escape):
		m.Filtering = false
		m.FilterInput.Blur()
		m.FilterInput.SetValue("")
		m.SearchInput.Blur()
		m.DiscoverInput.Blur()
		m.rebuildShelfRows()
		return m, nil

	case msg.Type == tea.KeyEnter:
		switch {
		case m.Filtering:
			m.Filtering = false
			m.FilterInput.Blur()
		case m.ActiveView == ViewSearch:
			m.SearchInput.Blur()
			query := m.SearchInput.Value()
			if query == "" {
				return m, nil
			}
			m.Searching = true
			return m, SearchBooksCmd(m.Catalog, query, 1, searchPageSize)
		case m.ActiveView == ViewLibraries:
			m.DiscoverInput.Blur()
			keyword := m.DiscoverInput.Value()
			if keyword == "" {
				return m, nil
			}
			m.Searching = true
			return m, DiscoverLibrariesCmd(m.Catalog, keyword)
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch {
	case m.Filtering:
		m.FilterInput, cmd = m.FilterInput.Update(msg)
		m.rebuildShelfRows()
	case m.ActiveView == ViewSearch:
		m.SearchInput, cmd = m.SearchInput.Update(msg)
	case m.ActiveView == ViewLibraries:
		m.DiscoverInput, cmd = m.DiscoverInput.Update(msg)
	}
	return m, cmd
}

func (m Model) handleShelfKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Up):
		m.ShelfList.MoveUp()
	case key.Matches(msg, Keys.Down):
		m.ShelfList.MoveDown()
	case key.Matches(msg, Keys.Home):
		m.ShelfList.MoveTop()
	case key.Matches(msg, Keys.End):
		m.ShelfList.MoveBottom()

	case key.Matches(msg, Keys.NextTab):
		m.ShelfTab = (m.ShelfTab + 1) % 4
		m.rebuildShelfRows()

	case key.Matches(msg, Keys.Filter):
		m.Filtering = true
		m.FilterInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, Keys.Refresh):
		m.Loading = true
		return m, RefreshShelfCmd(m.ShelfSvc)

	case key.Matches(msg, Keys.Enter):
		if rec, ok := m.selectedRecord(); ok {
			return m.openDetail(rec.BookID)
		}

	case key.Matches(msg, Keys.Wishlist):
		return m, m.moveSelected(domain.StateWishlist)
	case key.Matches(msg, Keys.Reading):
		return m, m.moveSelected(domain.StateReading)
	case key.Matches(msg, Keys.Read):
		return m, m.moveSelected(domain.StateRead)

	case key.Matches(msg, Keys.Delete):
		if rec, ok := m.selectedRecord(); ok {
			return m, RemoveRecordCmd(m.ShelfSvc, rec.BookID)
		}
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Up):
		m.SearchList.MoveUp()
	case key.Matches(msg, Keys.Down):
		m.SearchList.MoveDown()
	case key.Matches(msg, Keys.Home):
		m.SearchList.MoveTop()
	case key.Matches(msg, Keys.End):
		m.SearchList.MoveBottom()

	case key.Matches(msg, Keys.Filter):
		m.SearchInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, Keys.NextPage):
		if m.HasMore && !m.Searching {
			m.Searching = true
			return m, SearchBooksCmd(m.Catalog, m.LastQuery, m.SearchPage+1, searchPageSize)
		}

	case key.Matches(msg, Keys.Enter):
		if book, ok := m.selectedResult(); ok {
			return m.openDetail(book.ID)
		}

	case key.Matches(msg, Keys.Wishlist):
		if book, ok := m.selectedResult(); ok {
			return m, SetStateCmd(m.ShelfSvc, book.ID, domain.ReadingUpdate{State: domain.StateWishlist})
		}
	case key.Matches(msg, Keys.Reading):
		if book, ok := m.selectedResult(); ok {
			return m, SetStateCmd(m.ShelfSvc, book.ID, domain.ReadingUpdate{
				State:     domain.StateReading,
				StartDate: time.Now().Format("2006-01-02"),
			})
		}
	}
	return m, nil
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Back), key.Matches(msg, Keys.Escape):
		m.ActiveView = m.PrevView
		return m, nil

	case key.Matches(msg, Keys.Wishlist):
		return m, SetStateCmd(m.ShelfSvc, m.Detail.ID, domain.ReadingUpdate{State: domain.StateWishlist})
	case key.Matches(msg, Keys.Reading):
		return m, SetStateCmd(m.ShelfSvc, m.Detail.ID, domain.ReadingUpdate{
			State:     domain.StateReading,
			StartDate: time.Now().Format("2006-01-02"),
		})
	case key.Matches(msg, Keys.Read):
		upd := domain.ReadingUpdate{
			State:   domain.StateRead,
			EndDate: time.Now().Format("2006-01-02"),
		}
		if rec, ok := m.ShelfSvc.Cache().Get(m.Detail.ID); ok {
			upd.Rating = rec.Rating
			upd.Comment = rec.Comment
			upd.StartDate = rec.StartDate
		}
		return m, SetStateCmd(m.ShelfSvc, m.Detail.ID, upd)

	case key.Matches(msg, Keys.Delete):
		return m, RemoveRecordCmd(m.ShelfSvc, m.Detail.ID)
	}

	// Number keys set the rating on a finished book.
	if len(msg.Runes) == 1 && msg.Runes[0] >= '1' && msg.Runes[0] <= '5' {
		if rec, ok := m.ShelfSvc.Cache().Get(m.Detail.ID); ok && rec.State == domain.StateRead {
			return m, SetStateCmd(m.ShelfSvc, m.Detail.ID, domain.ReadingUpdate{
				State:     rec.State,
				Rating:    int(msg.Runes[0] - '0'),
				Comment:   rec.Comment,
				StartDate: rec.StartDate,
				EndDate:   rec.EndDate,
			})
		}
	}
	return m, nil
}

func (m Model) handleLibrariesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Up):
		m.LibList.MoveUp()
	case key.Matches(msg, Keys.Down):
		m.LibList.MoveDown()

	case key.Matches(msg, Keys.Filter):
		m.LibMode = libModeDiscover
		m.DiscoverInput.Focus()
		m.rebuildLibRows()
		return m, textinput.Blink

	case key.Matches(msg, Keys.Escape), key.Matches(msg, Keys.Back):
		if m.LibMode == libModeDiscover {
			m.LibMode = libModeList
			m.Discovered = nil
			m.DiscoverInput.SetValue("")
			m.rebuildLibRows()
		}

	case key.Matches(msg, Keys.Refresh):
		return m, RefreshLibrariesCmd(m.LibrarySvc)

	case key.Matches(msg, Keys.MoveUp), key.Matches(msg, Keys.MoveDown):
		if m.LibMode != libModeList {
			break
		}
		idx := m.LibList.Cursor()
		swap := idx - 1
		if key.Matches(msg, Keys.MoveDown) {
			swap = idx + 1
		}
		if idx < 0 || swap < 0 || swap >= len(m.MyLibs) {
			break
		}
		reordered := append([]domain.Library(nil), m.MyLibs...)
		reordered[idx], reordered[swap] = reordered[swap], reordered[idx]
		if key.Matches(msg, Keys.MoveDown) {
			m.LibList.MoveDown()
		} else {
			m.LibList.MoveUp()
		}
		return m, ReorderLibrariesCmd(m.LibrarySvc, reordered)

	case key.Matches(msg, Keys.Add), key.Matches(msg, Keys.Enter):
		if m.LibMode != libModeDiscover {
			break
		}
		idx := m.LibList.Cursor()
		if idx < 0 || idx >= len(m.Discovered) {
			break
		}
		lib := m.Discovered[idx]
		if !m.LibrarySvc.Cache().CanAdd() {
			m.setStatus(domain.ErrCapacityExceeded.Error(), true)
			return m, ClearStatusCmd(4 * time.Second)
		}
		return m, AddLibraryCmd(m.LibrarySvc, lib)

	case key.Matches(msg, Keys.Delete):
		if m.LibMode != libModeList {
			break
		}
		idx := m.LibList.Cursor()
		if idx >= 0 && idx < len(m.MyLibs) {
			return m, RemoveLibraryCmd(m.LibrarySvc, m.MyLibs[idx].ID)
		}
	}
	return m, nil
}

// openDetail switches to the detail view, loading anything not cached.
func (m Model) openDetail(bookID string) (tea.Model, tea.Cmd) {
	m.PrevView = m.ActiveView
	m.ActiveView = ViewDetail
	m.DetailAvail = nil
	m.DetailLoaded = false

	var cmds []tea.Cmd
	if book, ok := m.Titles[bookID]; ok {
		m.Detail = book
		// A catalog row may lack the description; refetch unless full.
		if book.Description != "" {
			m.DetailLoaded = true
		}
	} else {
		m.Detail = domain.Book{ID: bookID}
	}
	if !m.DetailLoaded {
		cmds = append(cmds, LoadBookCmd(m.Catalog, bookID))
	}
	// Pick up server-side record changes made from another device.
	cmds = append(cmds, LookupRecordCmd(m.ShelfSvc, bookID))
	if ids := m.LibrarySvc.Cache().IDs(); len(ids) > 0 {
		cmds = append(cmds, LoadAvailabilityCmd(m.Catalog, bookID, ids))
	}
	return m, tea.Batch(cmds...)
}

// moveSelected shifts the selected shelf record into a new state,
// stamping start and end dates on the relevant transitions.
func (m Model) moveSelected(state domain.ReadingState) tea.Cmd {
	rec, ok := m.selectedRecord()
	if !ok || rec.State == state {
		return nil
	}
	upd := domain.ReadingUpdate{
		State:     state,
		Rating:    rec.Rating,
		Comment:   rec.Comment,
		StartDate: rec.StartDate,
		EndDate:   rec.EndDate,
	}
	today := time.Now().Format("2006-01-02")
	switch state {
	case domain.StateReading:
		if upd.StartDate == "" {
			upd.StartDate = today
		}
		upd.EndDate = ""
	case domain.StateRead:
		if upd.EndDate == "" {
			upd.EndDate = today
		}
	case domain.StateWishlist:
		upd.StartDate = ""
		upd.EndDate = ""
	}
	return SetStateCmd(m.ShelfSvc, rec.BookID, upd)
}

// visibleRecords applies the tab filter and the fuzzy title filter.
func (m Model) visibleRecords() []domain.ReadingRecord {
	records := m.Records
	if state := m.ShelfTab.state(); state != "" {
		var filtered []domain.ReadingRecord
		for _, rec := range records {
			if rec.State == state {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	query := m.FilterInput.Value()
	if query == "" {
		return records
	}
	entries := make([]search.ShelfEntry, len(records))
	for i, rec := range records {
		entries[i] = search.ShelfEntry{Record: rec, Title: m.titleFor(rec.BookID)}
	}
	matched := search.FilterShelf(query, entries)
	out := make([]domain.ReadingRecord, len(matched))
	for i, e := range matched {
		out[i] = e.Record
	}
	return out
}

func (m Model) selectedRecord() (domain.ReadingRecord, bool) {
	records := m.visibleRecords()
	idx := m.ShelfList.Cursor()
	if idx < 0 || idx >= len(records) {
		return domain.ReadingRecord{}, false
	}
	return records[idx], true
}

func (m Model) selectedResult() (domain.Book, bool) {
	books := m.Results
	if m.LastQuery == "" {
		books = m.Popular
	}
	idx := m.SearchList.Cursor()
	if idx < 0 || idx >= len(books) {
		return domain.Book{}, false
	}
	return books[idx], true
}

func (m Model) titleFor(bookID string) string {
	if book, ok := m.Titles[bookID]; ok && book.Title != "" {
		return book.Title
	}
	return bookID
}

// loadMissingTitles fetches book details for shelf records whose titles
// are still unknown, so rows can show more than an ID.
func (m Model) loadMissingTitles() tea.Cmd {
	var cmds []tea.Cmd
	for _, rec := range m.Records {
		if _, ok := m.Titles[rec.BookID]; !ok {
			cmds = append(cmds, LoadBookCmd(m.Catalog, rec.BookID))
		}
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

func (m *Model) setStatus(message string, isErr bool) {
	m.Status = message
	m.StatusErr = isErr
}

func (m *Model) updateLayout() {
	contentHeight := m.Height - chromeHeight
	if contentHeight < 3 {
		contentHeight = 3
	}
	m.ShelfList.SetSize(m.Width, contentHeight-2)
	m.SearchList.SetSize(m.Width, contentHeight-3)
	m.LibList.SetSize(m.Width, contentHeight-3)
}
