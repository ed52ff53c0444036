package target

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromHostsKeepsOrderAndDuplicates(t *testing.T) {
	targets := FromHosts("deployer", []string{"web1", "web2", "web1"})
	if len(targets) != 3 {
		t.Fatalf("expected 3 targets, got %d", len(targets))
	}
	if targets[0].Host != "web1" || targets[1].Host != "web2" || targets[2].Host != "web1" {
		t.Fatalf("unexpected order: %+v", targets)
	}
	if targets[0].Addr() != "deployer@web1" {
		t.Fatalf("unexpected addr: %q", targets[0].Addr())
	}
}

func TestFromHostsFileOneEntryPerLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.txt")
	if err := os.WriteFile(path, []byte("a\nb\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	targets, err := FromHostsFile("root", path)
	if err != nil {
		t.Fatalf("read hosts file: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(targets))
	}
	if targets[0].Host != "a" || targets[1].Host != "b" {
		t.Fatalf("unexpected targets: %+v", targets)
	}
}

func TestFromHostsFileBlankLinesBecomeEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hosts.txt")
	// 4 lines: a, blank, b, blank
	if err := os.WriteFile(path, []byte("a\n\nb\n\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	targets, err := FromHostsFile("root", path)
	if err != nil {
		t.Fatalf("read hosts file: %v", err)
	}
	if len(targets) != 4 {
		t.Fatalf("expected 4 targets (blank lines included), got %d", len(targets))
	}
	if targets[1].Host != "" || targets[3].Host != "" {
		t.Fatalf("expected blank entries preserved: %+v", targets)
	}
}

func TestFromHostsFileMissing(t *testing.T) {
	if _, err := FromHostsFile("root", filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
