package credential

import (
	"fmt"
	"strings"
	"testing"
)

func TestSecretRedaction(t *testing.T) {
	s := Secret("hunter2")

	for _, out := range []string{
		fmt.Sprint(s),
		fmt.Sprintf("%v", s),
		fmt.Sprintf("%+v", s),
		fmt.Sprintf("%s", s),
		fmt.Sprintf("%#v", s),
	} {
		if strings.Contains(out, "hunter2") {
			t.Fatalf("secret leaked through formatting: %q", out)
		}
		if !strings.Contains(out, "redacted") {
			t.Fatalf("expected redaction marker, got %q", out)
		}
	}

	if s.Reveal() != "hunter2" {
		t.Fatalf("Reveal must return the real value, got %q", s.Reveal())
	}
	if s.Empty() {
		t.Fatal("non-empty secret reported empty")
	}
	if !Secret("").Empty() {
		t.Fatal("empty secret not reported empty")
	}
}
