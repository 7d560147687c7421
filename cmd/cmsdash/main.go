package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/cmsdash/internal/config"
	"github.com/naveenspark/cmsdash/internal/logger"
	"github.com/naveenspark/cmsdash/internal/session"
	"github.com/naveenspark/cmsdash/internal/tokenstore"
	"github.com/naveenspark/cmsdash/internal/tui"
	"github.com/naveenspark/cmsdash/pkg/client"
	"github.com/naveenspark/cmsdash/pkg/cms"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	start := ""
	if len(args) > 0 {
		switch args[0] {
		case "--version", "version", "-v":
			fmt.Fprintln(out, "cmsdash "+version)
			return nil
		case "help", "--help", "-h":
			printHelp(out)
			return nil
		case "login":
			start = session.RouteLogin
		case "logout":
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runLogout(cfg, out)
		default:
			return fmt.Errorf("unknown command %q (see cmsdash help)", args[0])
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, closer, err := logger.Open(cfg.StateDir, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer closer.Close() //nolint:errcheck
	logger.SetDefault(log)

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	mgr, opts := wire(cfg, store, log)
	opts.Start = start

	log.Info("starting", "version", version, "api", cfg.APIURL, "state_dir", cfg.StateDir)
	p := tea.NewProgram(tui.NewApp(opts), tea.WithAltScreen())
	mgr.SetNavigator(session.NavigatorFunc(func(route string) {
		p.Send(tui.NavigateMsg{Route: route})
	}))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

// openStore returns the token store. CMSDASH_TOKEN replaces the cookie file
// with an in-memory session so a pinned token never touches disk.
func openStore(cfg *config.Config) (tokenstore.Store, error) {
	if cfg.Token == "" {
		return tokenstore.NewFile(cfg.StateDir), nil
	}
	mem := tokenstore.NewMemory()
	if err := mem.Set(cfg.Token, tokenstore.DefaultTTL); err != nil {
		return nil, fmt.Errorf("use CMSDASH_TOKEN: %w", err)
	}
	return mem, nil
}

// wire builds the session manager and the services the dashboard drives.
// The manager authenticates through the bare client; every other call goes
// through the authorized copy, which consults the manager for its token.
func wire(cfg *config.Config, store tokenstore.Store, log *slog.Logger) (*session.Manager, tui.Options) {
	base := client.New(cfg.APIURL,
		client.WithTimeout(cfg.Timeout),
		client.WithLogger(log.With("component", "client")),
	)
	mgrOpts := []session.Option{
		session.WithLogger(log.With("component", "session")),
		session.WithLocale(cfg.Locale),
	}
	if cfg.RefreshPath != "" {
		mgrOpts = append(mgrOpts, session.WithRefreshPath(cfg.RefreshPath))
	}
	mgr := session.NewManager(store, base, nil, mgrOpts...)
	authed := base.WithAuth(mgr)

	return mgr, tui.Options{
		Session:  mgr,
		Records:  cms.New(authed, cms.WithLogger(log.With("component", "cms"))),
		Files:    authed,
		PageSize: cfg.PageSize,
		Logger:   log.With("component", "tui"),
	}
}

func runLogout(cfg *config.Config, out io.Writer) error {
	store := tokenstore.NewFile(cfg.StateDir)
	_, signedIn := store.Get()
	// An expired cookie file is removed too.
	if err := store.Clear(); err != nil {
		return err
	}
	if !signedIn {
		fmt.Fprintln(out, "Already logged out.")
		return nil
	}
	fmt.Fprintln(out, "Logged out.")
	return nil
}
