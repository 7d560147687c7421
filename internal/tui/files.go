package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/cmsdash/internal/browser"
	"github.com/naveenspark/cmsdash/pkg/domain"
)

type filesModel struct {
	files     FileService
	items     []domain.FileRecord
	cursor    int
	entering  bool // typing a path to upload
	path      string
	loading   bool
	uploading bool
	err       error
	statusMsg string
	width     int
	height    int
}

type filesLoadedMsg struct {
	items []domain.FileRecord
	err   error
}

type fileUploadedMsg struct {
	items []domain.FileRecord
	err   error
}

type fileCopiedMsg struct {
	url string
	err error
}

type fileOpenedMsg struct{ err error }

// copyToClipboard is replaced in tests.
var copyToClipboard = clipboard.WriteAll

func newFilesModel(f FileService) filesModel {
	return filesModel{files: f, loading: true}
}

func (m filesModel) Init() tea.Cmd {
	return m.load()
}

func (m filesModel) load() tea.Cmd {
	files := m.files
	if files == nil {
		return nil
	}
	return func() tea.Msg {
		items, err := files.ListFiles(context.Background())
		return filesLoadedMsg{items: items, err: err}
	}
}

func (m filesModel) Update(msg tea.Msg) (filesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case filesLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.items = msg.items
		if m.cursor >= len(m.items) {
			m.cursor = max(len(m.items)-1, 0)
		}
		return m, nil

	case fileUploadedMsg:
		m.uploading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		names := make([]string, 0, len(msg.items))
		for _, f := range msg.items {
			names = append(names, f.Name)
		}
		m.statusMsg = "uploaded " + strings.Join(names, ", ")
		m.loading = true
		return m, m.load()

	case fileCopiedMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("copy failed: %w", msg.err)
			return m, nil
		}
		m.statusMsg = "copied " + msg.url
		return m, nil

	case fileOpenedMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("open failed: %w", msg.err)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.entering {
			return m.updatePath(msg)
		}
		m.statusMsg = ""
		return m.updateList(msg)
	}
	return m, nil
}

func (m filesModel) updatePath(msg tea.KeyMsg) (filesModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		path := strings.TrimSpace(m.path)
		if path == "" {
			return m, nil
		}
		m.entering = false
		m.path = ""
		m.uploading = true
		m.err = nil
		return m, m.upload(path)
	case "esc":
		m.entering = false
		m.path = ""
	default:
		m.path = editKey(m.path, msg)
	}
	return m, nil
}

func (m filesModel) upload(path string) tea.Cmd {
	files := m.files
	return func() tea.Msg {
		if strings.HasPrefix(path, "~/") {
			if home, err := os.UserHomeDir(); err == nil {
				path = filepath.Join(home, path[2:])
			}
		}
		f, err := os.Open(path)
		if err != nil {
			return fileUploadedMsg{err: err}
		}
		defer f.Close() //nolint:errcheck // read-only file
		items, err := files.Upload(context.Background(), filepath.Base(path), f)
		return fileUploadedMsg{items: items, err: err}
	}
}

func (m filesModel) updateList(msg tea.KeyMsg) (filesModel, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "u":
		if !m.uploading && m.files != nil {
			m.entering = true
		}
	case "c":
		if m.cursor < len(m.items) {
			url := m.fileURL(m.items[m.cursor])
			return m, func() tea.Msg {
				return fileCopiedMsg{url: url, err: copyToClipboard(url)}
			}
		}
	case "o":
		if m.cursor < len(m.items) {
			url := m.fileURL(m.items[m.cursor])
			return m, func() tea.Msg {
				return fileOpenedMsg{err: browser.Open(url)}
			}
		}
	case "r":
		m.loading = true
		return m, m.load()
	case "x":
		m.err = nil
	}
	return m, nil
}

// fileURL resolves a stored file's URL against the backend. Local uploads
// report a path; remote providers report an absolute URL.
func (m filesModel) fileURL(f domain.FileRecord) string {
	if strings.Contains(f.URL, "://") || m.files == nil {
		return f.URL
	}
	return strings.TrimRight(m.files.BaseURL(), "/") + "/" + strings.TrimLeft(f.URL, "/")
}

func (m filesModel) helpKeys() string {
	if m.entering {
		return helpBar("enter", "upload", "esc", "cancel")
	}
	if m.err != nil {
		return helpBar("x", "dismiss", "r", "retry", "[ ]", "sections", "q", "quit")
	}
	return helpBar("j/k", "nav", "u", "upload", "c", "copy url", "o", "open", "r", "refresh", "?", "help")
}

func (m filesModel) View() string {
	var b strings.Builder
	b.WriteString(" " + titleStyle.Render("Files"))
	if len(m.items) > 0 {
		b.WriteString("   " + metaStyle.Render(fmt.Sprintf("%d files", len(m.items))))
	}
	b.WriteString("\n\n")

	width := m.width
	if width <= 0 {
		width = 80
	}
	nameW := max(width-40, 12)

	switch {
	case len(m.items) == 0 && m.loading:
		b.WriteString(" " + dimStyle.Render("loading...") + "\n")
	case len(m.items) == 0 && m.err == nil:
		b.WriteString(" " + dimStyle.Render("no files uploaded") + "\n")
	}

	for i, f := range m.items {
		cursor := "  "
		style := dimStyle
		if i == m.cursor {
			cursor = accentStyle.Render("▸") + " "
			style = normalStyle.Bold(true)
		}
		line := padStr(string(f.ID), 6) + "  " + padStr(f.Name, nameW) + "  " +
			padStr(formatSize(f.Size), 9) + "  " + formatTime(f.CreatedAt)
		row := " " + cursor + style.Render(line)
		if i == m.cursor {
			row = selectedRowBg.Render(row)
		}
		b.WriteString(row + "\n")
	}

	if m.cursor < len(m.items) {
		b.WriteString("\n " + metaStyle.Render(m.fileURL(m.items[m.cursor])) + "\n")
	}

	b.WriteString("\n")
	switch {
	case m.entering:
		b.WriteString(" " + inputPromptStyle.Render("path ") + renderInput(m.path, "file to upload", true) + "\n")
	case m.uploading:
		b.WriteString(" " + dimStyle.Render("uploading...") + "\n")
	}
	if m.statusMsg != "" {
		b.WriteString(" " + okStyle.Render(m.statusMsg) + "\n")
	}
	if m.err != nil {
		b.WriteString(" " + errorStyle.Render("error: "+errorText(m.err)) + "  " + helpEntry("x", "dismiss") + "\n")
	}
	return b.String()
}
