// Package classifier decides whether an edit request can be served by a
// small batch of DOM operations or needs a full page regeneration.
package classifier

import (
	"regexp"
	"unicode/utf8"
)

// Kind labels an edit request.
type Kind int

const (
	Simple Kind = iota
	Complex
)

func (k Kind) String() string {
	if k == Simple {
		return "simple"
	}
	return "complex"
}

// ShortMessageLimit is the length, in characters, under which every message
// counts as simple.
const ShortMessageLimit = 100

// Intent patterns of the target locale (Polish). Each is matched
// case-insensitively anywhere in the message; `.` does not cross lines.
var simplePatterns = compile(
	`zmień.*tekst`,
	`zmień.*kolor`,
	`zmień.*tytuł`,
	`zmień.*napis`,
	`dodaj.*przycisk`,
	`dodaj.*tekst`,
	`dodaj.*link`,
	`usuń.*przycisk`,
	`usuń.*tekst`,
	`usuń.*sekcj`,
	`popraw`,
	`zamień`,
	`edytuj`,
	`ukryj`,
	`pokaż`,
	`przenieś`,
	`większ`,
	`mniejsz`,
	`pogrub`,
	`kursyw`,
)

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// Classify labels message as Simple when it matches a known small-edit
// intent or is short, and Complex otherwise.
func Classify(message string) Kind {
	for _, re := range simplePatterns {
		if re.MatchString(message) {
			return Simple
		}
	}
	if utf8.RuneCountInString(message) < ShortMessageLimit {
		return Simple
	}
	return Complex
}
