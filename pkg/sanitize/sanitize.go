// Package sanitize converts commit messages to plain ASCII so they survive
// tooling that chokes on multi-byte characters.
package sanitize

import (
	"fmt"
	"strings"
)

// replacement maps one known emoji sequence to its bracketed ASCII tag.
type replacement struct {
	seq string
	tag string
}

// The known emoji table. Entries do not overlap; sequences that carry a
// variation selector are listed with it included so the selector is consumed
// along with the base character.
var replacements = []replacement{
	{"\U0001F680", "[ROCKET]"},
	{"✅", "[OK]"},
	{"❌", "[FAIL]"},
	{"\U0001F6AB", "[CANCELLED]"},
	{"❓", "[UNKNOWN]"},
	{"\U0001F50D", "[SEARCH]"},
	{"\U0001F389", "[SUCCESS]"},
	{"\U0001F44D", "[GOOD]"},
	{"\u26A0\uFE0F", "[WARNING]"},
	{"\U0001F4CA", "[STATS]"},
	{"\U0001F3D7\uFE0F", "[BUILD]"},
	{"\U0001F4DA", "[DOCS]"},
	{"\U0001F3AF", "[TARGET]"},
	{"\U0001F4A5", "[BREAKING]"},
	{"\U0001F4D6", "[DOCUMENTATION]"},
	{"\U0001F527", "[MAINTENANCE]"},
	{"\u267B\uFE0F", "[REFACTOR]"},
	{"✨", "[FEATURE]"},
	{"\U0001F41B", "[BUG]"},
	{"\U0001F512", "[SECURE]"},
	{"\U0001F504", "[REFRESH]"},
	{"\U0001F3A8", "[STYLE]"},
	{"\U0001F6A8", "[ALERT]"},
	{"\U0001F4E6", "[PACKAGE]"},
}

// Clean replaces known emoji with bracketed ASCII tags, then escapes every
// remaining rune above U+007F as [U+XXXX] (uppercase hex, at least four
// digits). The result contains only ASCII and is stable under re-application.
func Clean(text string) string {
	for _, r := range replacements {
		text = strings.ReplaceAll(text, r.seq, r.tag)
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r <= 127 {
			b.WriteRune(r)
			continue
		}
		fmt.Fprintf(&b, "[U+%04X]", r)
	}
	return b.String()
}
