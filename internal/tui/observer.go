package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mwhitten/shelfmark/internal/domain"
	"github.com/mwhitten/shelfmark/internal/mylibrary"
	"github.com/mwhitten/shelfmark/internal/shelf"
)

// CacheBridge forwards cache change notifications into the Bubble Tea
// event loop. The OnChange hooks run on whatever goroutine performed the
// mutation, so they only push snapshots onto buffered channels; the model
// re-arms a wait command after consuming each message.
type CacheBridge struct {
	shelfCh chan []domain.ReadingRecord
	libCh   chan []domain.Library
}

// NewCacheBridge registers hooks on both caches and returns the bridge.
func NewCacheBridge(shelfCache *shelf.Cache, libCache *mylibrary.Cache) *CacheBridge {
	b := &CacheBridge{
		shelfCh: make(chan []domain.ReadingRecord, 8),
		libCh:   make(chan []domain.Library, 8),
	}
	shelfCache.OnChange(func(records []domain.ReadingRecord) {
		select {
		case b.shelfCh <- records:
		default: // Non-blocking if channel full
		}
	})
	libCache.OnChange(func(libs []domain.Library) {
		select {
		case b.libCh <- libs:
		default:
		}
	})
	return b
}

// WaitForShelfChange blocks on the next record-cache snapshot.
func (b *CacheBridge) WaitForShelfChange() tea.Cmd {
	return func() tea.Msg {
		return ShelfChangedMsg{Records: <-b.shelfCh}
	}
}

// WaitForLibraryChange blocks on the next membership-cache snapshot.
func (b *CacheBridge) WaitForLibraryChange() tea.Cmd {
	return func() tea.Msg {
		return MyLibrariesChangedMsg{Libraries: <-b.libCh}
	}
}
