package main

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mwhitten/shelfmark/internal/api"
	"github.com/mwhitten/shelfmark/internal/config"
	"github.com/mwhitten/shelfmark/internal/domain"
	"github.com/mwhitten/shelfmark/internal/log"
	"github.com/mwhitten/shelfmark/internal/mylibrary"
	"github.com/mwhitten/shelfmark/internal/session"
	"github.com/mwhitten/shelfmark/internal/shelf"
	"github.com/mwhitten/shelfmark/internal/store"
	"github.com/mwhitten/shelfmark/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

// app bundles everything a command needs after wiring.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	client     *api.Client
	mirror     *store.MirrorStore
	shelfSvc   *shelf.Service
	librarySvc *mylibrary.Service
	sessionSvc *session.Service
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "shelfmark",
		Short: "Track your reading and find books at your libraries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI()
		},
		SilenceUsage: true,
	}

	root.AddCommand(
		newLoginCmd(),
		newSignupCmd(),
		newLogoutCmd(),
		newSearchCmd(),
		newBrowseCmd(),
		newWhoamiCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("shelfmark %s\n", Version)
		},
	}
}

// newApp loads config and wires the client, mirror, caches and services.
// The mirror seeds both caches so the TUI paints before the first fetch.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	client := api.NewClient(cfg.API.BaseURL, logger)
	if cfg.SignedIn() {
		client.SetToken(cfg.Session.AccessToken)
	}

	mirror, err := store.NewMirrorStore(config.CachePath())
	if err != nil {
		logger.Error("failed to open cache, continuing without persistence", "error", err)
		mirror, _ = store.NewMirrorStore("")
	}

	shelfCache := shelf.NewCache()
	libCache := mylibrary.NewCache()
	if records, ok := mirror.ReadingRecords(); ok {
		shelfCache.ReplaceAll(records)
	}
	if libs, ok := mirror.MyLibraries(); ok {
		libCache.ReplaceAll(libs)
	}

	// Every cache change is written back to the mirror best-effort.
	shelfCache.OnChange(func(records []domain.ReadingRecord) {
		if err := mirror.SaveReadingRecords(records); err != nil {
			logger.Warn("failed to mirror reading records", "error", err)
		}
	})
	libCache.OnChange(func(libs []domain.Library) {
		if err := mirror.SaveMyLibraries(libs); err != nil {
			logger.Warn("failed to mirror libraries", "error", err)
		}
	})

	return &app{
		cfg:        cfg,
		logger:     logger,
		client:     client,
		mirror:     mirror,
		shelfSvc:   shelf.NewService(client, shelfCache, logger),
		librarySvc: mylibrary.NewService(client, libCache, logger),
		sessionSvc: session.NewService(client, config.SessionStore{}, shelfCache, libCache, mirror, logger),
	}, nil
}

func runTUI() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.mirror.Close()

	if !a.cfg.SignedIn() {
		fmt.Println("Not signed in. Run `shelfmark login` first.")
		return nil
	}

	a.logger.Info("starting shelfmark", "version", Version)

	model := tui.NewModel(a.shelfSvc, a.librarySvc, a.sessionSvc, a.client, a.logger)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		a.logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	a.logger.Info("shutting down")
	return nil
}
