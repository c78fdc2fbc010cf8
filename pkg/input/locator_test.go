package input

import (
	"os"
	"path/filepath"
	"testing"
)

func writeNode(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLocateMatchesSubstring(t *testing.T) {
	dir := t.TempDir()
	writeNode(t, dir, "platform-button-event")
	want := writeNode(t, dir, "platform-rotary-event")

	got, err := Locator{Dir: dir}.Locate("platform-rotary")
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("Locate = %q, want %q", got, want)
	}
}

func TestLocateResolvesSymlinks(t *testing.T) {
	nodes := t.TempDir()
	byPath := t.TempDir()
	real := writeNode(t, nodes, "event0")
	if err := os.Symlink(real, filepath.Join(byPath, "platform-rotary-event")); err != nil {
		t.Fatal(err)
	}

	got, err := Locator{Dir: byPath}.Locate("platform-rotary")
	if err != nil {
		t.Fatal(err)
	}
	resolved, err := filepath.EvalSymlinks(real)
	if err != nil {
		t.Fatal(err)
	}
	if got != resolved {
		t.Fatalf("Locate = %q, want %q", got, resolved)
	}
}

func TestLocateFirstMatchInLexicalOrder(t *testing.T) {
	dir := t.TempDir()
	want := writeNode(t, dir, "platform-rotary-event-a")
	writeNode(t, dir, "platform-rotary-event-b")

	got, err := Locator{Dir: dir}.Locate("platform-rotary")
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("Locate = %q, want lexical first %q", got, want)
	}
}

func TestLocateNoMatchIsError(t *testing.T) {
	dir := t.TempDir()
	writeNode(t, dir, "platform-button-event")

	if _, err := (Locator{Dir: dir}).Locate("platform-rotary"); err == nil {
		t.Fatal("expected error for absent device")
	}
}

func TestLocateMissingDirIsError(t *testing.T) {
	if _, err := (Locator{Dir: "/nonexistent-panel-test"}).Locate("x"); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestLocateEmptyPatternNeverMatches(t *testing.T) {
	dir := t.TempDir()
	writeNode(t, dir, "event0")

	if _, err := (Locator{Dir: dir}).Locate(""); err == nil {
		t.Fatal("empty pattern must not match")
	}
}
