package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

func printHelp(w io.Writer) {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#d4a844")).
		Bold(true).
		Render("C M S D A S H")

	tagline := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render("Terminal admin dashboard for a headless CMS.")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	commands := []struct{ cmd, desc string }{
		{"cmsdash", "Open the dashboard (sign in if needed)"},
		{"cmsdash login", "Open the dashboard on the sign-in screen"},
		{"cmsdash logout", "Clear the stored session"},
		{"cmsdash --version", "Show version"},
		{"cmsdash help", "You are here"},
	}

	fmt.Fprintf(w, "\n  %s\n\n  %s\n\n  Commands:\n", title, tagline)
	for _, c := range commands {
		fmt.Fprintf(w, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-20s", c.cmd)), descStyle.Render(c.desc))
	}

	envs := []struct{ name, desc string }{
		{"CMSDASH_API_URL", "backend base URL (default http://localhost:1337)"},
		{"CMSDASH_STATE_DIR", "session, key and log directory (default ~/.cmsdash)"},
		{"CMSDASH_TOKEN", "use this token instead of the stored session"},
		{"CMSDASH_PAGE_SIZE", "records per list page (default 10)"},
		{"CMSDASH_LOCALE", "language of sign-in messages (en, es)"},
		{"CMSDASH_REFRESH_PATH", "token refresh endpoint, e.g. /auth/refresh"},
		{"CMSDASH_TIMEOUT", "per-request timeout (default 30s)"},
		{"LOG_LEVEL, LOG_FORMAT", "debug|info|warn|error, text|json"},
	}
	fmt.Fprintf(w, "\n  Environment (also read from .env and <state dir>/config.env):\n")
	for _, e := range envs {
		fmt.Fprintf(w, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-22s", e.name)), descStyle.Render(e.desc))
	}
	fmt.Fprintln(w)
}
