package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/cmsdash/internal/browser"
	"github.com/naveenspark/cmsdash/internal/session"
	"github.com/naveenspark/cmsdash/pkg/cms"
	"github.com/naveenspark/cmsdash/pkg/domain"
	"github.com/naveenspark/cmsdash/pkg/paging"
)

// SessionService is the login lifecycle the dashboard drives.
// *session.Manager implements it.
type SessionService interface {
	Login(ctx context.Context, identifier, secret string) error
	Logout()
	Token() (string, bool)
	Account() *domain.Account
}

// RecordService reads and writes CMS records. *cms.Service implements it.
type RecordService interface {
	List(ctx context.Context, k domain.Kind, page paging.Page, search string) (*cms.ListResult, error)
	Get(ctx context.Context, k domain.Kind, id string) (*domain.Record, error)
	Create(ctx context.Context, k domain.Kind, values map[string]string) (*domain.Record, error)
	Update(ctx context.Context, k domain.Kind, id string, values map[string]string) (*domain.Record, error)
	BulkDelete(ctx context.Context, k domain.Kind, ids []string) cms.BatchResult
}

// FileService manages uploaded files. *client.Client implements it.
type FileService interface {
	ListFiles(ctx context.Context) ([]domain.FileRecord, error)
	Upload(ctx context.Context, filename string, r io.Reader) ([]domain.FileRecord, error)
	BaseURL() string
}

// Options wires the dashboard to its services.
type Options struct {
	Session  SessionService
	Records  RecordService
	Files    FileService
	PageSize int
	Start    string // initial route; defaults to the landing route
	Logger   *slog.Logger
}

// App is the root Bubbletea model.
type App struct {
	opts       Options
	route      route
	login      loginModel
	list       listModel
	form       formModel
	files      filesModel
	helpOpen   bool
	helpCursor int
	width      int
	height     int
}

// chrome is the number of lines outside the screen body:
// header(1) + sections(1) + separator(1) + help(1).
const chrome = 4

// NewApp creates a new TUI application.
func NewApp(opts Options) App {
	if opts.PageSize <= 0 {
		opts.PageSize = paging.DefaultSize
	}
	if opts.Start == "" {
		opts.Start = session.RouteLanding
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return App{
		opts:  opts,
		login: newLoginModel(opts.Session, ""),
	}
}

func (a App) Init() tea.Cmd {
	return navigate(a.opts.Start)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		return a, nil

	case NavigateMsg:
		next, cmd := a.open(msg.Route)
		if msg.notice != "" && next.route.screen == screenList {
			next.list.statusMsg = msg.notice
		}
		return next, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		// Help overlay captures all keys when open
		if a.helpOpen {
			items := helpItems(a.baseURL())
			switch msg.String() {
			case "?", "esc":
				a.helpOpen = false
			case "q":
				return a, tea.Quit
			case "j", "down":
				if a.helpCursor < len(items)-1 {
					a.helpCursor++
				}
			case "k", "up":
				if a.helpCursor > 0 {
					a.helpCursor--
				}
			case "enter":
				if url := items[a.helpCursor].url; url != "" {
					browser.Open(url) //nolint:errcheck // best-effort browser open
				}
			}
			return a, nil
		}

		// Global keys (only when not editing)
		if !a.isEditing() {
			switch msg.String() {
			case "q":
				return a, tea.Quit
			case "?":
				a.helpOpen = true
				a.helpCursor = 0
				return a, nil
			case "L":
				if a.route.screen != screenLogin {
					return a, a.logout()
				}
			case "[", "]":
				if a.route.screen != screenLogin {
					return a, a.cycle(msg.String() == "]")
				}
			}
		}
	}

	var cmd tea.Cmd
	switch a.route.screen {
	case screenLogin:
		a.login, cmd = a.login.Update(msg)
	case screenList:
		a.list, cmd = a.list.Update(msg)
	case screenForm:
		a.form, cmd = a.form.Update(msg)
	case screenFiles:
		a.files, cmd = a.files.Update(msg)
	}
	return a, cmd
}

// open switches to path. Dashboard routes require a token; without one the
// login screen is shown instead.
func (a App) open(path string) (App, tea.Cmd) {
	r, ok := parseRoute(path)
	if !ok {
		a.opts.Logger.Warn("unknown route", "route", path)
		r, _ = parseRoute(session.RouteLanding)
	}
	if r.screen != screenLogin && a.opts.Session != nil {
		if _, ok := a.opts.Session.Token(); !ok {
			a.opts.Logger.Info("route requires a session", "route", r.path)
			r, _ = parseRoute(session.RouteLogin)
		}
	}
	a.opts.Logger.Debug("navigate", "route", r.path)
	a.route = r
	a.helpOpen = false

	var cmd tea.Cmd
	switch r.screen {
	case screenLogin:
		a.login = newLoginModel(a.opts.Session, a.login.identifier)
	case screenList:
		// Returning to the same kind keeps its page and search.
		if a.list.kind.Slug != r.kind.Slug {
			a.list = newListModel(a.opts.Records, r.kind, a.opts.PageSize)
		}
		cmd = a.list.reload()
	case screenForm:
		a.form = newFormModel(a.opts.Records, r.kind, r.id)
		cmd = a.form.Init()
	case screenFiles:
		a.files = newFilesModel(a.opts.Files)
		cmd = a.files.Init()
	}
	a.resize()
	return a, cmd
}

func (a App) logout() tea.Cmd {
	s := a.opts.Session
	if s == nil {
		return nil
	}
	// The session manager navigates to the public route itself.
	return func() tea.Msg {
		s.Logout()
		return nil
	}
}

func (a App) cycle(forward bool) tea.Cmd {
	all := sections()
	i := sectionIndex(a.route)
	switch {
	case i < 0:
		i = 0
	case forward:
		i = (i + 1) % len(all)
	default:
		i = (i - 1 + len(all)) % len(all)
	}
	return navigate(all[i].path)
}

func (a *App) resize() {
	body := tea.WindowSizeMsg{Width: a.width, Height: max(a.height-chrome, 1)}
	a.login, _ = a.login.Update(body)
	a.list, _ = a.list.Update(body)
	a.form, _ = a.form.Update(body)
	a.files, _ = a.files.Update(body)
}

func (a App) isEditing() bool {
	switch a.route.screen {
	case screenLogin, screenForm:
		return true
	case screenList:
		return a.list.editing()
	case screenFiles:
		return a.files.entering
	}
	return false
}

func (a App) baseURL() string {
	if a.opts.Files == nil {
		return ""
	}
	return a.opts.Files.BaseURL()
}

func (a App) View() string {
	// Header: product name, then who is signed in where
	header := " " + titleStyle.Render("cmsdash")
	var who []string
	if a.opts.Session != nil {
		if acct := a.opts.Session.Account(); acct != nil {
			who = append(who, acct.Username)
		}
	}
	if u := a.baseURL(); u != "" {
		who = append(who, u)
	}
	if len(who) > 0 {
		header += "  " + metaStyle.Render(strings.Join(who, " . "))
	}

	nav := ""
	if a.route.screen != screenLogin {
		nav = a.sectionBar()
	}

	var body, help string
	switch a.route.screen {
	case screenLogin:
		body = a.login.View()
		help = helpBar("tab", "next", "enter", "sign in", "ctrl+c", "quit")
	case screenList:
		body = a.list.View()
		help = a.list.helpKeys()
	case screenForm:
		body = a.form.View()
		help = a.form.helpKeys()
	case screenFiles:
		body = a.files.View()
		help = a.files.helpKeys()
	}

	if a.helpOpen {
		body = helpView(a.baseURL(), a.helpCursor)
		help = helpBar("j/k", "nav", "enter", "open", "esc", "close")
	}

	sepW := max(a.width-2, 4)
	sep := " " + metaStyle.Render(strings.Repeat("─", sepW))

	if a.height > 0 {
		body = truncateToHeight(body, a.height-chrome)
	}
	body = strings.TrimRight(body, "\n")

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s", header, nav, sep, body, help)
}

// sectionBar renders the section names that fit the width, keeping the
// active one visible.
func (a App) sectionBar() string {
	all := sections()
	active := sectionIndex(a.route)
	width := a.width
	if width <= 0 {
		width = 1 << 16
	}

	// Grow a window around the active section until it no longer fits.
	lo, hi := max(active, 0), max(active, 0)
	used := lipgloss.Width(all[lo].name) + 1
	for {
		grew := false
		if hi+1 < len(all) && used+len(all[hi+1].name)+2 <= width {
			hi++
			used += len(all[hi].name) + 2
			grew = true
		}
		if lo > 0 && used+len(all[lo-1].name)+2 <= width {
			lo--
			used += len(all[lo].name) + 2
			grew = true
		}
		if !grew {
			break
		}
	}

	parts := make([]string, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		if i == active {
			parts = append(parts, accentStyle.Underline(true).Render(all[i].name))
			continue
		}
		parts = append(parts, dimStyle.Render(all[i].name))
	}
	return " " + strings.Join(parts, "  ")
}
