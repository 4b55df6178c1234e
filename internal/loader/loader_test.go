package loader

import (
	"can-dbc-catalog/internal/config"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	explicit := writeFile(t, t.TempDir(), "body.dbc", "BO_ 1 A: 8 N\n")
	writeFile(t, dir, "powertrain.dbc", "BO_ 2 B: 8 N\n")
	writeFile(t, dir, "chassis.DBC", "BO_ 3 C: 8 N\n")
	writeFile(t, dir, "Body.dbc", "BO_ 4 D: 8 N\n")
	writeFile(t, dir, "notes.txt", "ignored")

	l, err := New("utf-8", nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	sources := []config.Source{
		{Name: "Body", Path: explicit},
		{Name: "missing", Path: filepath.Join(dir, "missing.dbc")},
	}
	docs, errs := l.Load(sources, dir)

	if len(errs) != 1 {
		t.Errorf("len(errs) = %d, want 1: %v", len(errs), errs)
	}

	var names []string
	for _, d := range docs {
		names = append(names, d.Name)
	}
	want := []string{"Body", "chassis", "powertrain"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
	if docs[0].Source != explicit {
		t.Errorf("Body source = %q, want explicit path %q", docs[0].Source, explicit)
	}
}

func TestNew_UnknownCharset(t *testing.T) {
	if _, err := New("not-a-charset", nil); err == nil {
		t.Fatal("New() error = nil, want error")
	}
}

func TestNew_Windows1252(t *testing.T) {
	l, err := New("windows-1252", nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if l.Encoding() == nil {
		t.Error("Encoding() = nil, want windows-1252")
	}
}
