// Package profiletime implements the nanosecond timestamp and interval
// arithmetic that the rest of the viewer is built on.
package profiletime

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Timestamp is a signed count of nanoseconds since an arbitrary profile
// epoch. It is the native unit of every interval in the viewer.
type Timestamp int64

// unitScale maps a recognized suffix to the number of nanoseconds it
// represents. Longest suffixes are matched first by ParseTimestamp.
var unitScale = []struct {
	suffix string
	scale  int64
}{
	{"ns", 1},
	{"us", 1_000},
	{"ms", 1_000_000},
	{"s", 1_000_000_000},
	{"m", 60 * 1_000_000_000},
	{"h", 3600 * 1_000_000_000},
}

// ParseErrorKind enumerates the ways ParseTimestamp can fail.
type ParseErrorKind int

const (
	InvalidValue ParseErrorKind = iota
	NoUnit
	InvalidUnit
)

// ParseError reports a failure to parse a timestamp string. It is returned
// verbatim to the widget that requested the parse; callers must not mutate
// any state in response to it (see spec §7).
type ParseError struct {
	Kind  ParseErrorKind
	Input string
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case NoUnit:
		return fmt.Sprintf("timestamp %q has no unit suffix", e.Input)
	case InvalidUnit:
		return fmt.Sprintf("timestamp %q has an unrecognized unit suffix", e.Input)
	default:
		return fmt.Sprintf("timestamp %q is not a valid number", e.Input)
	}
}

// ParseTimestamp parses strings like "1.5ms", "-200ns", "3s" into a
// Timestamp. The numeric part may be a signed float; the unit suffix is
// required (spec: ParseError{NoUnit} when absent).
func ParseTimestamp(s string) (Timestamp, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, &ParseError{Kind: InvalidValue, Input: s}
	}

	for _, u := range unitScale {
		if strings.HasSuffix(trimmed, u.suffix) {
			numPart := strings.TrimSuffix(trimmed, u.suffix)
			// ns, us and ms precede s in unitScale, so a two-letter suffix
			// is never read as a bare "s". A number followed by extra
			// letters ("42fortnights" ending in "s") has an unknown unit,
			// not an invalid value.
			v, err := strconv.ParseFloat(numPart, 64)
			if err != nil {
				if _, numErr := strconv.ParseFloat(strings.TrimRightFunc(numPart, unicode.IsLetter), 64); numErr == nil {
					return 0, &ParseError{Kind: InvalidUnit, Input: s}
				}
				return 0, &ParseError{Kind: InvalidValue, Input: s}
			}
			return Timestamp(v * float64(u.scale)), nil
		}
	}

	// No recognized unit suffix at all: distinguish "has trailing letters
	// we don't know" from "has no suffix".
	if hasTrailingLetters(trimmed) {
		return 0, &ParseError{Kind: InvalidUnit, Input: s}
	}
	return 0, &ParseError{Kind: NoUnit, Input: s}
}

// hasTrailingLetters reports whether s ends in alphabetic characters that
// ParseTimestamp's unit table doesn't recognize (as opposed to s being a
// bare number with no suffix at all).
func hasTrailingLetters(s string) bool {
	if s == "" {
		return false
	}
	last := s[len(s)-1]
	return last < '0' || last > '9'
}

// String formats the timestamp using the coarsest unit that represents it
// without fractional loss, falling back to nanoseconds.
func (t Timestamp) String() string {
	abs := t
	if abs < 0 {
		abs = -abs
	}
	for i := len(unitScale) - 1; i >= 0; i-- {
		u := unitScale[i]
		if abs != 0 && int64(abs)%u.scale == 0 {
			return fmt.Sprintf("%d%s", int64(t)/u.scale, u.suffix)
		}
	}
	return fmt.Sprintf("%dns", int64(t))
}
