package sanitize

import (
	"strings"
	"testing"
)

func TestClean(t *testing.T) {
	t.Run("ascii passes through", func(t *testing.T) {
		in := "fix: handle EOF in line reader\n\nCloses #42"
		if got := Clean(in); got != in {
			t.Fatalf("expected unchanged output, got %q", got)
		}
	})

	t.Run("known emoji become tags", func(t *testing.T) {
		got := Clean("✅ tests pass \U0001F680 ship it")
		if got != "[OK] tests pass [ROCKET] ship it" {
			t.Fatalf("unexpected output %q", got)
		}
	})

	t.Run("variation selector consumed with base", func(t *testing.T) {
		got := Clean("⚠️ breaking change")
		if got != "[WARNING] breaking change" {
			t.Fatalf("unexpected output %q", got)
		}
	})

	t.Run("unknown codepoint escaped", func(t *testing.T) {
		got := Clean("café")
		if got != "caf[U+00E9]" {
			t.Fatalf("unexpected output %q", got)
		}
	})

	t.Run("astral codepoint keeps full width", func(t *testing.T) {
		// U+1F9EA is not in the table; the escape grows past four digits.
		got := Clean("\U0001F9EA experiment")
		if got != "[U+1F9EA] experiment" {
			t.Fatalf("unexpected output %q", got)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		in := "\U0001F41B fix crash in café parser ♻️"
		once := Clean(in)
		twice := Clean(once)
		if once != twice {
			t.Fatalf("not idempotent: %q vs %q", once, twice)
		}
		if strings.ContainsFunc(once, func(r rune) bool { return r > 127 }) {
			t.Fatalf("non-ascii survived: %q", once)
		}
	})
}

func TestCleanTableCoverage(t *testing.T) {
	if len(replacements) < 23 {
		t.Fatalf("expected at least 23 table entries, got %d", len(replacements))
	}
	for _, r := range replacements {
		got := Clean(r.seq)
		if got != r.tag {
			t.Fatalf("entry %q: expected %q, got %q", r.seq, r.tag, got)
		}
	}
}
