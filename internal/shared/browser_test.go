package shared

import (
	"errors"
	"slices"
	"testing"
)

func TestBrowserCommand(t *testing.T) {
	const url = "https://accounts.spotify.com/authorize?state=abc"
	noEnv := func(string) string { return "" }

	tests := []struct {
		goos     string
		wantName string
		wantArgs []string
	}{
		{"darwin", "open", []string{url}},
		{"linux", "xdg-open", []string{url}},
		{"windows", "rundll32", []string{"url.dll,FileProtocolHandler", url}},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			name, args, err := browserCommand(tt.goos, url, noEnv)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if name != tt.wantName || !slices.Equal(args, tt.wantArgs) {
				t.Errorf("got %s %v, want %s %v", name, args, tt.wantName, tt.wantArgs)
			}
		})
	}

	t.Run("BROWSER overrides the platform default", func(t *testing.T) {
		env := func(k string) string {
			if k == "BROWSER" {
				return "w3m"
			}
			return ""
		}
		name, args, err := browserCommand("linux", url, env)
		if err != nil || name != "w3m" || !slices.Equal(args, []string{url}) {
			t.Errorf("got %s %v %v", name, args, err)
		}
	})

	t.Run("unsupported platform", func(t *testing.T) {
		if _, _, err := browserCommand("plan9", url, noEnv); !errors.Is(err, ErrNotImplemented) {
			t.Errorf("expected ErrNotImplemented, got %v", err)
		}
	})
}
