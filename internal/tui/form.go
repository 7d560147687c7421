package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/cmsdash/internal/session"
	"github.com/naveenspark/cmsdash/pkg/domain"
)

type formModel struct {
	records    RecordService
	kind       domain.Kind
	id         string
	values     map[string]string
	focus      int
	loading    bool
	saving     bool
	problems   *domain.ValidationError
	err        error
	statusMsg  string
	slugEdited bool // stop deriving the slug once it was typed by hand
	width      int
	height     int
}

type recordLoadedMsg struct {
	kind string
	id   string
	rec  *domain.Record
	err  error
}

type recordSavedMsg struct {
	kind string
	rec  *domain.Record
	err  error
}

func newFormModel(r RecordService, k domain.Kind, id string) formModel {
	m := formModel{
		records: r,
		kind:    k,
		id:      id,
		values:  map[string]string{},
	}
	m.loading = !m.isNew()
	return m
}

func (m formModel) isNew() bool {
	return !m.kind.Single && m.id == ""
}

func (m formModel) Init() tea.Cmd {
	if m.isNew() {
		return nil
	}
	records, k, id := m.records, m.kind, m.id
	return func() tea.Msg {
		rec, err := records.Get(context.Background(), k, id)
		return recordLoadedMsg{kind: k.Slug, id: id, rec: rec, err: err}
	}
}

func (m formModel) Update(msg tea.Msg) (formModel, tea.Cmd) {
	switch msg := msg.(type) {
	case recordLoadedMsg:
		if msg.kind != m.kind.Slug || msg.id != m.id {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		for _, f := range m.kind.Fields {
			m.values[f.Name] = msg.rec.String(f.Name)
		}
		m.slugEdited = true
		return m, nil

	case recordSavedMsg:
		if msg.kind != m.kind.Slug {
			return m, nil
		}
		m.saving = false
		if msg.err != nil {
			var verr *domain.ValidationError
			if errors.As(msg.err, &verr) {
				m.problems = verr
				return m, nil
			}
			m.err = msg.err
			return m, nil
		}
		if m.kind.Single {
			m.statusMsg = "saved"
			return m, nil
		}
		return m, navigateWithNotice(listRoute(m.kind), fmt.Sprintf("saved %s %s", m.kind.Singular, msg.rec.ID))

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.saving {
			return m, nil
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m formModel) updateKeys(msg tea.KeyMsg) (formModel, tea.Cmd) {
	m.statusMsg = ""
	key := msg.String()

	switch key {
	case "esc":
		if m.kind.Single {
			return m, navigate(session.RouteLanding)
		}
		return m, navigate(listRoute(m.kind))
	case "ctrl+s":
		return m.submit()
	}

	if m.loading {
		return m, nil
	}
	if m.err != nil && key == "ctrl+x" {
		m.err = nil
		return m, nil
	}

	n := len(m.kind.Fields)
	if n == 0 {
		return m, nil
	}
	f := m.kind.Fields[m.focus]

	switch key {
	case "tab", "down":
		m.focus = (m.focus + 1) % n
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + n) % n
	case "enter":
		if f.Type == domain.FieldMultiline {
			m.set(f, m.values[f.Name]+"\n")
		} else {
			m.focus = (m.focus + 1) % n
		}
	case " ", "space":
		if f.Type == domain.FieldBool {
			if b, _ := domain.ParseBool(m.values[f.Name]); b { //nolint:errcheck // unparsable reads as no
				m.set(f, "no")
			} else {
				m.set(f, "yes")
			}
			return m, nil
		}
		m.set(f, editRune(m.values[f.Name], " "))
	default:
		m.set(f, editKey(m.values[f.Name], msg))
	}
	return m, nil
}

// set stores a field value. On new records the slug follows the title field
// until it is edited directly.
func (m *formModel) set(f domain.Field, v string) {
	if m.values[f.Name] == v {
		return
	}
	m.values[f.Name] = v
	if m.problems != nil {
		m.problems = nil
	}
	if f.Type == domain.FieldSlug {
		m.slugEdited = true
		return
	}
	if m.isNew() && !m.slugEdited {
		if src, slug, ok := slugSource(m.kind); ok && src == f.Name {
			m.values[slug] = domain.Slugify(v)
		}
	}
}

// slugSource returns the text field a kind's slug is derived from.
func slugSource(k domain.Kind) (source, slug string, ok bool) {
	for _, f := range k.Fields {
		switch {
		case f.Type == domain.FieldText && source == "":
			source = f.Name
		case f.Type == domain.FieldSlug:
			slug = f.Name
		}
	}
	return source, slug, source != "" && slug != ""
}

func (m formModel) submit() (formModel, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	m.err = nil
	if err := domain.Validate(m.kind, m.values); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			m.problems = verr
			for i, f := range m.kind.Fields {
				if verr.Problem(f.Name) != "" {
					m.focus = i
					break
				}
			}
		}
		return m, nil
	}
	m.problems = nil
	m.saving = true

	values := make(map[string]string, len(m.values))
	for k, v := range m.values {
		values[k] = v
	}
	records, k, id, isNew := m.records, m.kind, m.id, m.isNew()
	return m, func() tea.Msg {
		var rec *domain.Record
		var err error
		if isNew {
			rec, err = records.Create(context.Background(), k, values)
		} else {
			rec, err = records.Update(context.Background(), k, id, values)
		}
		return recordSavedMsg{kind: k.Slug, rec: rec, err: err}
	}
}

func (m formModel) title() string {
	switch {
	case m.kind.Single:
		return m.kind.Name
	case m.isNew():
		return "New " + m.kind.Singular
	default:
		return fmt.Sprintf("Edit %s %s", m.kind.Singular, m.id)
	}
}

func (m formModel) helpKeys() string {
	return helpBar("tab", "next", "ctrl+s", "save", "esc", "back", "ctrl+c", "quit")
}

func (m formModel) View() string {
	var b strings.Builder
	b.WriteString(" " + titleStyle.Render(m.title()) + "\n\n")

	if m.loading {
		b.WriteString(" " + dimStyle.Render("loading..."))
		return b.String()
	}

	labelWidth := 0
	for _, f := range m.kind.Fields {
		labelWidth = max(labelWidth, len(f.Label)+1)
	}

	for i, f := range m.kind.Fields {
		focused := i == m.focus
		cursor := "  "
		style := metaStyle
		if focused {
			cursor = accentStyle.Render("▸") + " "
			style = selectedStyle
		}
		label := f.Label
		if f.Required {
			label += "*"
		}

		value := m.values[f.Name]
		hint := ""
		switch f.Type {
		case domain.FieldBool:
			hint = "space to toggle"
		case domain.FieldRelation, domain.FieldMedia:
			hint = "id"
		}
		var rendered string
		switch {
		case f.Type == domain.FieldMultiline && focused:
			lines := strings.Split(value, "\n")
			indent := "\n" + strings.Repeat(" ", labelWidth+5)
			rendered = normalStyle.Render(strings.Join(lines, indent)) + accentStyle.Render("█")
		case f.Type == domain.FieldMultiline:
			rendered = renderInput(truncStr(oneLine(value), max(m.width-labelWidth-8, 10)), hint, false)
		default:
			rendered = renderInput(value, hint, focused)
		}
		b.WriteString(" " + cursor + style.Render(padStr(label, labelWidth)) + "  " + rendered + "\n")

		if m.problems != nil {
			if p := m.problems.Problem(f.Name); p != "" {
				b.WriteString(strings.Repeat(" ", labelWidth+5) + errorStyle.Render("! "+p) + "\n")
			}
		}
	}

	b.WriteString("\n")
	switch {
	case m.saving:
		b.WriteString(" " + dimStyle.Render("saving..."))
	case m.err != nil:
		b.WriteString(" " + errorStyle.Render("error: "+errorText(m.err)) + "  " + helpEntry("ctrl+x", "dismiss"))
	case m.problems != nil:
		b.WriteString(" " + errorStyle.Render(errorText(m.problems)))
	case m.statusMsg != "":
		b.WriteString(" " + okStyle.Render(m.statusMsg))
	}
	return b.String()
}
