package tui

import (
	"context"
	"errors"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/cmsdash/pkg/cms"
	"github.com/naveenspark/cmsdash/pkg/domain"
	"github.com/naveenspark/cmsdash/pkg/paging"
)

func key(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+x":
		return tea.KeyMsg{Type: tea.KeyCtrlX}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

type fakeSession struct {
	token     string
	account   *domain.Account
	loginErr  error
	logins    []string
	loggedOut bool
}

func (s *fakeSession) Login(_ context.Context, identifier, secret string) error {
	s.logins = append(s.logins, identifier+":"+secret)
	if s.loginErr != nil {
		return s.loginErr
	}
	s.token = "jwt"
	return nil
}

func (s *fakeSession) Logout() {
	s.loggedOut = true
	s.token = ""
}

func (s *fakeSession) Token() (string, bool) { return s.token, s.token != "" }

func (s *fakeSession) Account() *domain.Account { return s.account }

// fakeRecords serves an in-memory table per kind.
type fakeRecords struct {
	mu        sync.Mutex
	rows      map[string][]domain.Record
	listErr   error
	deleteErr map[string]error
	saved     []map[string]string
	listCalls int
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{rows: map[string][]domain.Record{}, deleteErr: map[string]error{}}
}

func (f *fakeRecords) add(k domain.Kind, recs ...domain.Record) {
	f.rows[k.Slug] = append(f.rows[k.Slug], recs...)
}

func (f *fakeRecords) List(_ context.Context, k domain.Kind, page paging.Page, _ string) (*cms.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	all := f.rows[k.Slug]
	p := paging.Compute(len(all), page.Size, page.Current)
	end := min(p.Offset+p.Size, len(all))
	var recs []domain.Record
	if p.Offset < end {
		recs = append(recs, all[p.Offset:end]...)
	}
	return &cms.ListResult{Records: recs, Page: p}, nil
}

func (f *fakeRecords) Get(_ context.Context, k domain.Kind, id string) (*domain.Record, error) {
	for _, r := range f.rows[k.Slug] {
		if r.ID == id || k.Single {
			return &r, nil
		}
	}
	if k.Single {
		return &domain.Record{Fields: map[string]any{}}, nil
	}
	return nil, cms.ErrNotFound
}

func (f *fakeRecords) Create(_ context.Context, k domain.Kind, values map[string]string) (*domain.Record, error) {
	if err := domain.Validate(k, values); err != nil {
		return nil, err
	}
	f.saved = append(f.saved, values)
	return &domain.Record{ID: "99", Fields: map[string]any{}}, nil
}

func (f *fakeRecords) Update(_ context.Context, k domain.Kind, id string, values map[string]string) (*domain.Record, error) {
	if err := domain.Validate(k, values); err != nil {
		return nil, err
	}
	f.saved = append(f.saved, values)
	return &domain.Record{ID: id, Fields: map[string]any{}}, nil
}

func (f *fakeRecords) BulkDelete(_ context.Context, k domain.Kind, ids []string) cms.BatchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res cms.BatchResult
	gone := map[string]bool{}
	for _, id := range ids {
		if err := f.deleteErr[id]; err != nil {
			res.Failed = append(res.Failed, cms.ItemError{ID: id, Err: err})
			continue
		}
		gone[id] = true
		res.Deleted = append(res.Deleted, id)
	}
	var keep []domain.Record
	for _, r := range f.rows[k.Slug] {
		if !gone[r.ID] {
			keep = append(keep, r)
		}
	}
	f.rows[k.Slug] = keep
	return res
}

type fakeFiles struct {
	items    []domain.FileRecord
	uploaded []string
	err      error
}

func (f *fakeFiles) ListFiles(context.Context) ([]domain.FileRecord, error) {
	return f.items, f.err
}

func (f *fakeFiles) Upload(_ context.Context, filename string, r io.Reader) ([]domain.FileRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.uploaded = append(f.uploaded, filename+":"+string(data))
	rec := domain.FileRecord{ID: "7", Name: filename, URL: "/uploads/" + filename}
	f.items = append(f.items, rec)
	return []domain.FileRecord{rec}, nil
}

func (f *fakeFiles) BaseURL() string { return "http://cms.test" }

var errBoom = errors.New("boom")

func record(id string, fields map[string]any) domain.Record {
	return domain.Record{ID: id, Fields: fields}
}

func mustKind(slug string) domain.Kind {
	k, ok := domain.KindBySlug(slug)
	if !ok {
		panic("unknown kind " + slug)
	}
	return k
}
