package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/naveenspark/cmsdash/internal/session"
	"github.com/naveenspark/cmsdash/pkg/client"
	"github.com/naveenspark/cmsdash/pkg/cms"
	"github.com/naveenspark/cmsdash/pkg/domain"
)

// formatTime renders a relative timestamp for file listings.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// formatSize renders a byte count; the upload API reports sizes in KB.
func formatSize(kb float64) string {
	switch {
	case kb >= 1024:
		return fmt.Sprintf("%.1f MB", kb/1024)
	default:
		return fmt.Sprintf("%.0f KB", kb)
	}
}

// truncStr truncates a string to maxLen runes, appending an ellipsis if needed.
func truncStr(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}

// padStr truncates s and pads it with spaces to exactly width runes.
func padStr(s string, width int) string {
	s = truncStr(s, width)
	if n := utf8.RuneCountInString(s); n < width {
		s += strings.Repeat(" ", width-n)
	}
	return s
}

// oneLine collapses newlines and runs of whitespace for single-row display.
func oneLine(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// errorText turns an operation error into the message shown on screen.
func errorText(err error) string {
	var authErr *session.AuthenticationError
	var verr *domain.ValidationError
	var netErr *client.NetworkError
	switch {
	case errors.As(err, &authErr):
		return authErr.Message
	case errors.As(err, &verr):
		return "fix the highlighted fields"
	case client.IsUnauthorized(err):
		return "not authorized: your session expired or was rejected, sign in again"
	case client.IsForbidden(err):
		return "permission denied: your role may not do this"
	case errors.Is(err, context.DeadlineExceeded):
		return "the server took too long to answer"
	case errors.As(err, &netErr):
		return "could not reach the server"
	case errors.Is(err, cms.ErrNotFound):
		return "record not found"
	default:
		return err.Error()
	}
}
