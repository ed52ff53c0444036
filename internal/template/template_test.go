package template

import (
	"testing"

	"sshfan/internal/target"
)

func TestExpandPassthrough(t *testing.T) {
	got, err := Expand("uptime", target.Target{User: "root", Host: "h1"})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if got != "uptime" {
		t.Fatalf("plain commands must pass through unchanged, got %q", got)
	}
}

func TestExpandContext(t *testing.T) {
	tgt := target.Target{User: "deployer", Host: "web1.example.com"}

	cases := []struct {
		command string
		want    string
	}{
		{"echo {{.Host}}", "echo web1.example.com"},
		{"echo {{.User}}@{{.Host}}", "echo deployer@web1.example.com"},
		{"echo {{.Addr}}", "echo deployer@web1.example.com"},
		{"echo {{shortHost .Host}}", "echo web1"},
		{"echo {{upper .User}}", "echo DEPLOYER"},
	}

	for _, tc := range cases {
		got, err := Expand(tc.command, tgt)
		if err != nil {
			t.Fatalf("expand %q: %v", tc.command, err)
		}
		if got != tc.want {
			t.Fatalf("expand %q: got %q, want %q", tc.command, got, tc.want)
		}
	}
}

func TestExpandBadTemplate(t *testing.T) {
	if _, err := Expand("echo {{.Host", target.Target{Host: "h1"}); err == nil {
		t.Fatal("expected parse error for unterminated template")
	}
}

func TestIsTemplate(t *testing.T) {
	if IsTemplate("uptime") {
		t.Fatal("plain command misdetected as template")
	}
	if !IsTemplate("echo {{.Host}}") {
		t.Fatal("template syntax not detected")
	}
}
