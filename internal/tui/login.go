package tui

import (
	"context"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	loginFieldIdentifier = iota
	loginFieldSecret
	numLoginFields
)

type loginModel struct {
	session    SessionService
	identifier string
	secret     string
	focus      int
	submitting bool
	errMsg     string
	width      int
	height     int
}

type loginResultMsg struct{ err error }

// newLoginModel starts an empty form, keeping the last identifier typed.
func newLoginModel(s SessionService, identifier string) loginModel {
	m := loginModel{session: s, identifier: identifier}
	if identifier != "" {
		m.focus = loginFieldSecret
	}
	return m
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		m.submitting = false
		m.secret = ""
		if msg.err != nil {
			m.errMsg = errorText(msg.err)
			m.focus = loginFieldSecret
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m loginModel) updateKeys(msg tea.KeyMsg) (loginModel, tea.Cmd) {
	switch msg.String() {
	case "tab", "down", "shift+tab", "up":
		m.focus = (m.focus + 1) % numLoginFields
	case "enter":
		if m.focus == loginFieldIdentifier {
			m.focus = loginFieldSecret
			return m, nil
		}
		return m.submit()
	case "ctrl+s":
		return m.submit()
	case "esc":
		m.errMsg = ""
	default:
		if m.focus == loginFieldIdentifier {
			m.identifier = editKey(m.identifier, msg)
		} else {
			m.secret = editKey(m.secret, msg)
		}
	}
	return m, nil
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	m.errMsg = ""
	m.submitting = true
	s := m.session
	identifier, secret := strings.TrimSpace(m.identifier), m.secret
	return m, func() tea.Msg {
		return loginResultMsg{err: s.Login(context.Background(), identifier, secret)}
	}
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString("\n " + selectedStyle.Render("Sign in") + "\n\n")

	labels := [numLoginFields]string{"email or username", "password"}
	values := [numLoginFields]string{m.identifier, strings.Repeat("•", utf8.RuneCountInString(m.secret))}
	for i := 0; i < numLoginFields; i++ {
		cursor := "  "
		style := metaStyle
		if i == m.focus {
			cursor = accentStyle.Render("▸") + " "
			style = selectedStyle
		}
		b.WriteString(" " + cursor + style.Render(padStr(labels[i], 18)) + " " +
			renderInput(values[i], labels[i], i == m.focus && !m.submitting) + "\n")
	}

	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString(" " + dimStyle.Render("signing in..."))
	case m.errMsg != "":
		b.WriteString(" " + errorStyle.Render(m.errMsg))
	}
	return b.String()
}
