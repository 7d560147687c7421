package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/cmsdash/pkg/cms"
	"github.com/naveenspark/cmsdash/pkg/domain"
	"github.com/naveenspark/cmsdash/pkg/paging"
)

type listModel struct {
	records   RecordService
	kind      domain.Kind
	page      paging.Page
	rows      []domain.Record
	cursor    int
	selected  map[string]bool
	search    string
	searching bool     // true when typing in search
	confirm   []string // ids awaiting delete confirmation
	loading   bool
	deleting  bool
	err       error
	keepErr   bool // the next successful load keeps err (a delete just failed)
	failures  []cms.ItemError
	statusMsg string
	jump      string // digits typed so far for a page jump
	seq       int    // guards against results of superseded loads
	width     int
	height    int
}

type recordsLoadedMsg struct {
	kind string
	seq  int
	res  *cms.ListResult
	err  error
}

type recordsDeletedMsg struct {
	kind   string
	ids    []string
	result cms.BatchResult
}

func newListModel(r RecordService, k domain.Kind, size int) listModel {
	return listModel{
		records:  r,
		kind:     k,
		page:     paging.At(size, 1),
		selected: map[string]bool{},
		loading:  true,
	}
}

// reload fetches the current page. Results of earlier loads are dropped.
func (m *listModel) reload() tea.Cmd {
	m.seq++
	m.loading = true
	seq, k, page, search, records := m.seq, m.kind, m.page, m.search, m.records
	return func() tea.Msg {
		res, err := records.List(context.Background(), k, page, search)
		return recordsLoadedMsg{kind: k.Slug, seq: seq, res: res, err: err}
	}
}

func (m listModel) editing() bool {
	return m.searching || m.confirm != nil
}

func (m listModel) Update(msg tea.Msg) (listModel, tea.Cmd) {
	switch msg := msg.(type) {
	case recordsLoadedMsg:
		if msg.kind != m.kind.Slug || msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			// Keep showing the last good page.
			m.err = msg.err
			return m, nil
		}
		if m.keepErr {
			m.keepErr = false
		} else {
			m.err = nil
			m.failures = nil
		}
		m.rows = msg.res.Records
		m.page = msg.res.Page
		if m.cursor >= len(m.rows) {
			m.cursor = max(len(m.rows)-1, 0)
		}
		visible := make(map[string]bool, len(m.rows))
		for _, r := range m.rows {
			if m.selected[r.ID] {
				visible[r.ID] = true
			}
		}
		m.selected = visible
		return m, nil

	case recordsDeletedMsg:
		if msg.kind != m.kind.Slug {
			return m, nil
		}
		m.deleting = false
		for _, id := range msg.result.Deleted {
			delete(m.selected, id)
		}
		m.failures = msg.result.Failed
		noun := m.kind.Name
		if len(msg.ids) == 1 {
			noun = m.kind.Singular
		}
		switch {
		case len(msg.result.Failed) == 0:
			m.statusMsg = fmt.Sprintf("deleted %d %s", len(msg.result.Deleted), strings.ToLower(noun))
			m.err = nil
		case len(msg.result.Deleted) == 0:
			m.statusMsg = ""
			m.err = fmt.Errorf("delete failed: %s", errorText(msg.result.Failed[0].Err))
		default:
			m.statusMsg = fmt.Sprintf("deleted %d of %d", len(msg.result.Deleted), len(msg.ids))
			m.err = fmt.Errorf("%d deletes failed", len(msg.result.Failed))
		}
		m.keepErr = m.err != nil
		cmd := m.reload()
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		if m.confirm != nil {
			return m.updateConfirm(msg)
		}
		m.statusMsg = ""
		return m.updateList(msg)
	}
	return m, nil
}

func (m listModel) updateSearch(msg tea.KeyMsg) (listModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.page = paging.At(m.page.Size, 1)
		m.cursor = 0
		cmd := m.reload()
		return m, cmd
	case "esc":
		m.searching = false
		m.search = ""
		m.page = paging.At(m.page.Size, 1)
		cmd := m.reload()
		return m, cmd
	default:
		m.search = editKey(m.search, msg)
	}
	return m, nil
}

func (m listModel) updateConfirm(msg tea.KeyMsg) (listModel, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		ids := m.confirm
		m.confirm = nil
		m.deleting = true
		records, k := m.records, m.kind
		return m, func() tea.Msg {
			res := records.BulkDelete(context.Background(), k, ids)
			return recordsDeletedMsg{kind: k.Slug, ids: ids, result: res}
		}
	case "n", "N", "esc":
		m.confirm = nil
	}
	return m, nil
}

func (m listModel) updateList(msg tea.KeyMsg) (listModel, tea.Cmd) {
	key := msg.String()
	if _, err := strconv.Atoi(key); err == nil && len(key) == 1 {
		return m.updateJump(key)
	}
	m.jump = ""
	switch key {
	case "j", "down":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "h", "left":
		if m.page.HasPrev() && !m.loading {
			m.page = paging.At(m.page.Size, m.page.Current-1)
			m.cursor = 0
			cmd := m.reload()
			return m, cmd
		}
	case "l", "right":
		if m.page.HasNext() && !m.loading {
			m.page = paging.At(m.page.Size, m.page.Current+1)
			m.cursor = 0
			cmd := m.reload()
			return m, cmd
		}
	case "/":
		if m.kind.Search != "" {
			m.searching = true
		}
	case " ", "space":
		if m.cursor < len(m.rows) {
			id := m.rows[m.cursor].ID
			if m.selected[id] {
				delete(m.selected, id)
			} else {
				m.selected[id] = true
			}
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		}
	case "a":
		all := len(m.rows) > 0
		for _, r := range m.rows {
			all = all && m.selected[r.ID]
		}
		for _, r := range m.rows {
			if all {
				delete(m.selected, r.ID)
			} else {
				m.selected[r.ID] = true
			}
		}
	case "d":
		if m.deleting {
			return m, nil
		}
		if ids := m.selectedIDs(); len(ids) > 0 {
			m.confirm = ids
		} else if m.cursor < len(m.rows) {
			m.confirm = []string{m.rows[m.cursor].ID}
		}
	case "n":
		return m, navigate(newRoute(m.kind))
	case "enter":
		if m.cursor < len(m.rows) {
			return m, navigate(editRoute(m.kind, m.rows[m.cursor].ID))
		}
	case "r":
		cmd := m.reload()
		return m, cmd
	case "x":
		m.err = nil
		m.failures = nil
	}
	return m, nil
}

// updateJump collects digits until they name a page in the pager window. A
// prefix of a longer page number waits for the next digit.
func (m listModel) updateJump(digit string) (listModel, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	m.jump += digit
	target, longer := 0, false
	for _, p := range m.page.Window {
		s := strconv.Itoa(p)
		switch {
		case s == m.jump:
			target = p
		case strings.HasPrefix(s, m.jump):
			longer = true
		}
	}
	if longer {
		return m, nil
	}
	m.jump = ""
	if target == 0 || target == m.page.Current {
		return m, nil
	}
	m.page = paging.At(m.page.Size, target)
	m.cursor = 0
	cmd := m.reload()
	return m, cmd
}

// selectedIDs lists the selected records in display order.
func (m listModel) selectedIDs() []string {
	var ids []string
	for _, r := range m.rows {
		if m.selected[r.ID] {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

func (m listModel) helpKeys() string {
	switch {
	case m.searching:
		return helpBar("enter", "search", "esc", "clear")
	case m.confirm != nil:
		return helpBar("y", "delete", "n", "cancel")
	case m.err != nil:
		return helpBar("x", "dismiss", "r", "retry", "[ ]", "sections", "q", "quit")
	}
	return helpBar("j/k", "nav", "h/l", "page", "/", "search", "space", "select",
		"d", "delete", "n", "new", "enter", "edit", "?", "help")
}

func (m listModel) View() string {
	var b strings.Builder

	// Title + search
	b.WriteString(" " + titleStyle.Render(m.kind.Name) + "   ")
	switch {
	case m.searching:
		b.WriteString(searchStyle.Render("/ " + m.search + "█"))
	case m.search != "":
		b.WriteString(searchStyle.Render("/ " + m.search))
	case m.kind.Search != "":
		b.WriteString(dimStyle.Render("/ search " + m.kind.Search + "..."))
	}
	if n := len(m.selected); n > 0 {
		b.WriteString("   " + accentStyle.Render(fmt.Sprintf("%d selected", n)))
	}
	b.WriteString("\n\n")

	switch {
	case len(m.rows) == 0 && m.loading:
		b.WriteString(" " + dimStyle.Render("loading...") + "\n")
	case len(m.rows) == 0 && m.err == nil:
		b.WriteString(" " + dimStyle.Render("no "+strings.ToLower(m.kind.Name)+" found") + "\n")
	case len(m.rows) > 0:
		b.WriteString(m.viewRows())
		b.WriteString("\n " + renderPager(m.page))
		if m.jump != "" {
			b.WriteString("  " + searchStyle.Render("go to "+m.jump+"_"))
		}
		b.WriteString("\n")
	}

	if m.loading && len(m.rows) > 0 {
		b.WriteString(" " + dimStyle.Render("loading...") + "\n")
	}
	if m.deleting {
		b.WriteString(" " + dimStyle.Render("deleting...") + "\n")
	}
	if m.statusMsg != "" {
		b.WriteString(" " + okStyle.Render(m.statusMsg) + "\n")
	}
	if m.err != nil {
		b.WriteString(" " + errorStyle.Render("error: "+errorText(m.err)) + "  " + helpEntry("x", "dismiss") + "\n")
		for _, f := range m.failures {
			b.WriteString("   " + errorStyle.Render(fmt.Sprintf("%s: %s", f.ID, errorText(f.Err))) + "\n")
		}
	}
	if m.confirm != nil {
		what := fmt.Sprintf("%d %s", len(m.confirm), strings.ToLower(m.kind.Name))
		if len(m.confirm) == 1 {
			what = m.kind.Singular + " " + m.confirm[0]
		}
		b.WriteString(" " + warnStyle.Render("delete "+what+"? (y/n)") + "\n")
	}
	return b.String()
}

func (m listModel) viewRows() string {
	var b strings.Builder
	cols := m.kind.Columns
	width := m.width
	if width <= 0 {
		width = 80
	}
	// Row prefix: " ▸ [x] " is 7 cells; the id column is 6.
	colWidth := max((width-14)/max(len(cols), 1)-2, 8)

	header := "       " + padStr("id", 6)
	for _, c := range cols {
		header += "  " + padStr(c, colWidth)
	}
	b.WriteString(metaStyle.Render(header) + "\n")

	for i, r := range m.rows {
		cursor := "  "
		style := dimStyle
		if i == m.cursor {
			cursor = accentStyle.Render("▸") + " "
			style = normalStyle.Bold(true)
		}
		check := "[ ]"
		if m.selected[r.ID] {
			check = accentStyle.Render("[x]")
		}
		line := padStr(r.ID, 6)
		for _, c := range cols {
			line += "  " + padStr(oneLine(r.String(c)), colWidth)
		}
		row := " " + cursor + check + " " + style.Render(line)
		if i == m.cursor {
			row = selectedRowBg.Render(row)
		}
		b.WriteString(row + "\n")
	}
	return b.String()
}

// renderPager renders the page-number window, e.g. "‹ 1 [2] 3 4 5 ›  page 2 of 10 . 95 total".
func renderPager(p paging.Page) string {
	var parts []string
	if p.HasPrev() {
		parts = append(parts, helpKeyStyle.Render("‹"))
	}
	for _, n := range p.Window {
		if n == p.Current {
			parts = append(parts, accentStyle.Render(fmt.Sprintf("[%d]", n)))
			continue
		}
		parts = append(parts, dimStyle.Render(strconv.Itoa(n)))
	}
	if p.HasNext() {
		parts = append(parts, helpKeyStyle.Render("›"))
	}
	summary := metaStyle.Render(fmt.Sprintf("page %d of %d . %d total", p.Current, max(p.TotalPages, 1), p.Total))
	return strings.Join(parts, " ") + "  " + summary
}
