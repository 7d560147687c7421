package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/cmsdash/pkg/domain"
)

const (
	dashboardPrefix = "/dashboard/"
	filesSlug       = "files"
)

type screen int

const (
	screenLogin screen = iota
	screenList
	screenForm
	screenFiles
)

// route is a parsed dashboard path.
type route struct {
	path   string
	screen screen
	kind   domain.Kind
	id     string // record id for edit forms; empty for new and singleton forms
}

// NavigateMsg moves the dashboard to Route.
type NavigateMsg struct {
	Route  string
	notice string // status line for the screen being opened
}

func navigate(path string) tea.Cmd {
	return func() tea.Msg { return NavigateMsg{Route: path} }
}

func navigateWithNotice(path, notice string) tea.Cmd {
	return func() tea.Msg { return NavigateMsg{Route: path, notice: notice} }
}

// parseRoute maps a path to a screen. Unknown paths report false.
func parseRoute(path string) (route, bool) {
	if path != "/" {
		path = strings.TrimRight(path, "/")
	}
	switch path {
	case "", "/", "/login":
		return route{path: path, screen: screenLogin}, true
	}
	rest, ok := strings.CutPrefix(path, dashboardPrefix)
	if !ok || rest == "" {
		return route{}, false
	}
	slug, id, hasID := strings.Cut(rest, "/")
	if slug == filesSlug && !hasID {
		return route{path: path, screen: screenFiles}, true
	}
	k, ok := domain.KindBySlug(slug)
	if !ok || strings.Contains(id, "/") {
		return route{}, false
	}
	switch {
	case k.Single:
		if hasID {
			return route{}, false
		}
		return route{path: path, screen: screenForm, kind: k}, true
	case !hasID:
		return route{path: path, screen: screenList, kind: k}, true
	case id == "new":
		return route{path: path, screen: screenForm, kind: k}, true
	case id == "":
		return route{}, false
	default:
		return route{path: path, screen: screenForm, kind: k, id: id}, true
	}
}

func listRoute(k domain.Kind) string { return dashboardPrefix + k.Slug }

func newRoute(k domain.Kind) string { return dashboardPrefix + k.Slug + "/new" }

func editRoute(k domain.Kind, id string) string { return dashboardPrefix + k.Slug + "/" + id }

// section is one entry of the navigation bar.
type section struct {
	name string
	path string
	slug string
}

func sections() []section {
	out := make([]section, 0, len(domain.Kinds)+1)
	for _, k := range domain.Kinds {
		out = append(out, section{name: k.Name, path: listRoute(k), slug: k.Slug})
	}
	return append(out, section{name: "Files", path: dashboardPrefix + filesSlug, slug: filesSlug})
}

// sectionIndex returns the navigation bar entry r belongs to, or -1.
func sectionIndex(r route) int {
	slug := r.kind.Slug
	if r.screen == screenFiles {
		slug = filesSlug
	}
	for i, s := range sections() {
		if s.slug == slug {
			return i
		}
	}
	return -1
}
