package tui

import (
	"strings"
	"testing"
)

func typeForm(m formModel, s string) formModel {
	for _, r := range s {
		m, _ = m.Update(key(string(r)))
	}
	return m
}

func TestFormNewSkipsLoad(t *testing.T) {
	m := newFormModel(newFakeRecords(), mustKind("tags"), "")
	if m.Init() != nil || m.loading {
		t.Error("a new record form should not load")
	}
	if !strings.Contains(m.View(), "New tag") {
		t.Errorf("expected title, got:\n%s", m.View())
	}
}

func TestFormSlugFollowsName(t *testing.T) {
	m := newFormModel(newFakeRecords(), mustKind("categories"), "")
	m = typeForm(m, "Rock & Roll")
	if got := m.values["slug"]; got != "rock-roll" {
		t.Errorf("slug = %q, want rock-roll", got)
	}

	m, _ = m.Update(key("tab"))
	m, _ = m.Update(key("backspace"))
	m, _ = m.Update(key("shift+tab"))
	m = typeForm(m, "!")
	if got := m.values["slug"]; got != "rock-rol" {
		t.Errorf("slug = %q, want hand-edited value kept", got)
	}
}

func TestFormValidationBlocksSave(t *testing.T) {
	recs := newFakeRecords()
	m := newFormModel(recs, mustKind("users"), "")
	m = typeForm(m, "ann")
	m, _ = m.Update(key("tab"))
	m = typeForm(m, "not-an-email")

	m, cmd := m.Update(key("ctrl+s"))
	if cmd != nil {
		t.Fatal("invalid form should not be sent")
	}
	if m.problems == nil || m.problems.Problem("email") == "" {
		t.Fatalf("expected an email problem, got %+v", m.problems)
	}
	if m.focus != 1 {
		t.Errorf("focus = %d, want the failing field", m.focus)
	}
	view := m.View()
	if !strings.Contains(view, "not a valid email address") || !strings.Contains(view, "fix the highlighted fields") {
		t.Errorf("expected field problem in view, got:\n%s", view)
	}
	if len(recs.saved) != 0 {
		t.Error("backend called for an invalid form")
	}

	m = typeForm(m, "x")
	if m.problems != nil {
		t.Error("editing should clear the problem list")
	}
}

func TestFormCreateNavigatesToList(t *testing.T) {
	recs := newFakeRecords()
	m := newFormModel(recs, mustKind("tags"), "")
	m = typeForm(m, "Go")

	m, cmd := m.Update(key("ctrl+s"))
	if !m.saving || cmd == nil {
		t.Fatal("expected save in flight")
	}
	_, cmd = m.Update(cmd())
	nav, ok := cmd().(NavigateMsg)
	if !ok || nav.Route != "/dashboard/tags" || nav.notice != "saved tag 99" {
		t.Errorf("after save got %#v, want list route with notice", nav)
	}
	if len(recs.saved) != 1 || recs.saved[0]["slug"] != "go" {
		t.Errorf("saved = %v", recs.saved)
	}
}

func TestFormEditLoadsRecord(t *testing.T) {
	recs := newFakeRecords()
	posts := mustKind("posts")
	recs.add(posts, record("4", map[string]any{
		"title": "Hi", "slug": "hi", "content": "body",
		"category": map[string]any{"id": "2"}, "published": false,
	}))

	m := newFormModel(recs, posts, "4")
	if !m.loading {
		t.Fatal("edit form should load")
	}
	m, _ = m.Update(m.Init()())
	if m.values["title"] != "Hi" || m.values["category"] != "2" || m.values["published"] != "no" {
		t.Errorf("values = %v", m.values)
	}

	// Editing the title of an existing record leaves its slug alone.
	m = typeForm(m, "!")
	if m.values["slug"] != "hi" {
		t.Errorf("slug = %q, want unchanged", m.values["slug"])
	}
}

func TestFormEditMissingRecord(t *testing.T) {
	m := newFormModel(newFakeRecords(), mustKind("tags"), "404")
	m, _ = m.Update(m.Init()())
	if !strings.Contains(m.View(), "record not found") {
		t.Errorf("expected not-found error, got:\n%s", m.View())
	}
}

func TestFormBoolToggle(t *testing.T) {
	k := mustKind("ads")
	m := newFormModel(newFakeRecords(), k, "")
	for m.kind.Fields[m.focus].Name != "active" {
		m, _ = m.Update(key("tab"))
	}
	m, _ = m.Update(key(" "))
	if m.values["active"] != "yes" {
		t.Errorf("active = %q, want yes", m.values["active"])
	}
	m, _ = m.Update(key(" "))
	if m.values["active"] != "no" {
		t.Errorf("active = %q, want no", m.values["active"])
	}
}

func TestFormMultilineEnter(t *testing.T) {
	k := mustKind("policy")
	m := newFormModel(newFakeRecords(), k, "")
	m, _ = m.Update(m.Init()())
	m, _ = m.Update(key("tab"))
	m = typeForm(m, "a")
	m, _ = m.Update(key("enter"))
	m = typeForm(m, "b")
	if m.values["content"] != "a\nb" {
		t.Errorf("content = %q, want two lines", m.values["content"])
	}
}

func TestFormSingletonSaveStays(t *testing.T) {
	recs := newFakeRecords()
	m := newFormModel(recs, mustKind("policy"), "")
	m, _ = m.Update(m.Init()())
	m, _ = m.Update(key("tab"))
	m = typeForm(m, "terms")

	m, cmd := m.Update(key("ctrl+s"))
	m, cmd = m.Update(cmd())
	if cmd != nil {
		t.Error("singleton save should stay on the form")
	}
	if !strings.Contains(m.View(), "saved") {
		t.Errorf("expected saved status, got:\n%s", m.View())
	}

	_, cmd = m.Update(key("esc"))
	if nav := cmd().(NavigateMsg); nav.Route != "/dashboard/posts" {
		t.Errorf("esc on a singleton goes to %q, want landing", nav.Route)
	}
}

func TestFormEscReturnsToList(t *testing.T) {
	m := newFormModel(newFakeRecords(), mustKind("comments"), "")
	_, cmd := m.Update(key("esc"))
	if nav := cmd().(NavigateMsg); nav.Route != "/dashboard/comments" {
		t.Errorf("esc goes to %q, want /dashboard/comments", nav.Route)
	}
}
