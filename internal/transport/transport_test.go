package transport

import (
	"reflect"
	"testing"

	"sshfan/internal/target"
)

func TestRemoteCommandLiteralInterpolation(t *testing.T) {
	// Empty shell flags leave a double space; that spacing is part of the
	// legacy invocation and must be preserved.
	got := RemoteCommand("bash", "", "uptime", false)
	if got != `bash  -c "uptime"` {
		t.Fatalf("unexpected remote command: %q", got)
	}

	got = RemoteCommand("sh", "-e", "df -h", false)
	if got != `sh -e -c "df -h"` {
		t.Fatalf("unexpected remote command: %q", got)
	}
}

func TestRemoteCommandSafeInterp(t *testing.T) {
	got := RemoteCommand("bash", "", "echo it's here", true)
	if got != `bash  -c 'echo it'\''s here'` {
		t.Fatalf("unexpected quoted command: %q", got)
	}
}

func TestRemoteScript(t *testing.T) {
	if got := RemoteScript("bash", "", ""); got != "bash  -s" {
		t.Fatalf("unexpected remote script invocation: %q", got)
	}
	if got := RemoteScript("bash", "", "--force"); got != "bash  -s --force" {
		t.Fatalf("script args must trail the -s invocation: %q", got)
	}
	if got := RemoteScript("sh", "-x", "a b"); got != "sh -x -s a b" {
		t.Fatalf("unexpected remote script invocation: %q", got)
	}
}

func TestExecRunnerArgv(t *testing.T) {
	job := Job{
		Target: target.Target{User: "root", Host: "host1"},
		Remote: `bash  -c "uptime"`,
	}

	r := NewExecRunner("-o StrictHostKeyChecking=accept-new -o ConnectTimeout=30", "", false)
	want := []string{
		"ssh",
		"-o", "StrictHostKeyChecking=accept-new",
		"-o", "ConnectTimeout=30",
		"root@host1",
		`bash  -c "uptime"`,
	}
	if got := r.argv(job); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected argv:\n got %v\nwant %v", got, want)
	}
}

func TestExecRunnerArgvWithHelper(t *testing.T) {
	job := Job{
		Target: target.Target{User: "deployer", Host: "web1"},
		Remote: `bash  -s --force`,
	}

	r := NewExecRunner("", "secret", true)
	got := r.argv(job)
	want := []string{"sshpass", "-e", "ssh", "deployer@web1", "bash  -s --force"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected argv:\n got %v\nwant %v", got, want)
	}

	// The secret itself must never appear in the argv.
	for _, a := range got {
		if a == "secret" {
			t.Fatal("password leaked into argv")
		}
	}
}
