package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestOutput(t *testing.T) {
	data := map[string]any{"name": "create_note", "required": []string{"title", "content"}}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Output(&buf, data, FormatJSON); err != nil {
			t.Fatal(err)
		}
		var got map[string]any
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON output: %v", err)
		}
		if got["name"] != "create_note" {
			t.Errorf("name = %v", got["name"])
		}
	})

	t.Run("yaml default", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Output(&buf, data, ""); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "name: create_note") {
			t.Errorf("output = %s", buf.String())
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		if err := Output(&bytes.Buffer{}, data, "xml"); err == nil {
			t.Error("expected error")
		}
	})
}

func TestPaths(t *testing.T) {
	p := &Paths{AppName: "execlive", HomeDir: "/home/ada"}
	if got, want := p.ConfigFile(), filepath.Join("/home/ada", ".execlive", "execlive", "config.yaml"); got != want {
		t.Errorf("ConfigFile() = %q, want %q", got, want)
	}
	if got, want := p.AppDir(), filepath.Join("/home/ada", ".execlive", "execlive"); got != want {
		t.Errorf("AppDir() = %q, want %q", got, want)
	}
}

func TestMeter(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{0, "[..........]"},
		{0.5, "[#####.....]"},
		{1, "[##########]"},
		{3.2, "[##########]"},
		{-1, "[..........]"},
	}
	for _, tt := range tests {
		if got := Meter(tt.v); got != tt.want {
			t.Errorf("Meter(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestStatusRender(t *testing.T) {
	line := Status{
		Styles:  NewStyles(DefaultTheme),
		Persona: "Maya",
		Session: "open",
		Agent:   "LISTENING",
		Camera:  true,
		Volume:  0.3,
	}.Render()
	for _, want := range []string{"persona", "Maya", "open", "LISTENING", "camera", "on", "[###.......]"} {
		if !strings.Contains(line, want) {
			t.Errorf("status %q missing %q", line, want)
		}
	}
	if b := NewStyles(DefaultTheme).Banner(errors.New("mic denied")); !strings.Contains(b, "mic denied") {
		t.Errorf("banner = %q", b)
	}
}
