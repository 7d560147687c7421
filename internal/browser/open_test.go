package browser

import (
	"runtime"
	"testing"
)

func stubStart(t *testing.T) *[]string {
	t.Helper()
	var got []string
	orig := start
	start = func(name string, args ...string) error {
		got = append([]string{name}, args...)
		return nil
	}
	t.Cleanup(func() { start = orig })
	return &got
}

func TestOpenRejectsNonHTTP(t *testing.T) {
	got := stubStart(t)
	for _, u := range []string{"", "file:///etc/passwd", "javascript:alert(1)", "/uploads/a.png", "http://"} {
		if err := Open(u); err == nil {
			t.Errorf("Open(%q) = nil, want error", u)
		}
	}
	if len(*got) != 0 {
		t.Errorf("opener ran for rejected URL: %v", *got)
	}
}

func TestOpenHTTP(t *testing.T) {
	switch runtime.GOOS {
	case "darwin", "linux", "windows":
	default:
		t.Skip("no opener on " + runtime.GOOS)
	}
	got := stubStart(t)
	if err := Open("http://localhost:1337/admin"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if n := len(*got); n == 0 || (*got)[n-1] != "http://localhost:1337/admin" {
		t.Errorf("opener args = %v", *got)
	}
}
