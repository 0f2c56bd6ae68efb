package suid

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/morozRed/serialid/internal/parser"
)

// FieldState classifies an existing id field against a computed id.
type FieldState int

const (
	// Absent: no field (Kotlin: no companion object to hold it).
	Absent FieldState = iota
	// PresentNoID: a place for the field exists but carries no value
	// (Java: field without initializer; Kotlin: companion without the
	// property).
	PresentNoID
	PresentConsistent
	PresentInconsistent
)

func (s FieldState) String() string {
	switch s {
	case Absent:
		return "absent"
	case PresentNoID:
		return "present-no-id"
	case PresentConsistent:
		return "consistent"
	case PresentInconsistent:
		return "inconsistent"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON output.
func (s FieldState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a name produced by MarshalText.
func (s *FieldState) UnmarshalText(text []byte) error {
	for _, candidate := range []FieldState{Absent, PresentNoID, PresentConsistent, PresentInconsistent} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown field state %q", text)
}

// CurrentFieldState inspects the id field of decl and compares its value
// with expected.
func CurrentFieldState(decl *parser.ClassDecl, expected int64) FieldState {
	if decl == nil {
		return Absent
	}
	if decl.IDField == nil {
		if decl.Language == "kotlin" && decl.Companion != nil {
			return PresentNoID
		}
		return Absent
	}
	if strings.TrimSpace(decl.IDField.Literal) == "" {
		return PresentNoID
	}
	value, err := ParseLiteral(decl.IDField.Literal)
	if err != nil || value != expected {
		return PresentInconsistent
	}
	return PresentConsistent
}

// CurrentFieldState is a convenience wrapper for callers holding a Hasher.
func (h *Hasher) CurrentFieldState(decl *parser.ClassDecl, expected int64) FieldState {
	return CurrentFieldState(decl, expected)
}

// ParseLiteral parses a long literal as written in Java or Kotlin source:
// optional unary minus, underscores, L suffix, hex/octal/binary prefixes.
func ParseLiteral(text string) (int64, error) {
	s := strings.TrimSpace(text)
	for strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = strings.TrimSpace(s[1:])
	} else if strings.HasPrefix(s, "+") {
		s = strings.TrimSpace(s[1:])
	}
	s = strings.TrimSuffix(strings.TrimSuffix(s, "L"), "l")
	s = strings.ReplaceAll(s, "_", "")
	if s == "" {
		return 0, fmt.Errorf("empty literal %q", text)
	}

	u, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid long literal %q: %w", text, err)
	}

	decimal := !strings.HasPrefix(s, "0") || s == "0"
	switch {
	case negative && u > 1<<63:
		return 0, fmt.Errorf("long literal %q out of range", text)
	case negative:
		return -int64(u), nil
	case decimal && u > math.MaxInt64:
		return 0, fmt.Errorf("long literal %q out of range", text)
	default:
		return int64(u), nil
	}
}

// PadSmallID widens ids with fewer than nine decimal digits by prefixing
// "9" and enough zeros to reach eight digits, keeping the sign. An
// eight-digit id only gains the leading 9. It is a display policy applied on
// top of the digest, never inside it.
func PadSmallID(id int64) int64 {
	const (
		limit = 9
		width = 8
	)
	digits := strconv.FormatInt(id, 10)
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	if len(digits) >= limit {
		return id
	}
	zeros := max(width-1-len(digits), 0)
	padded := sign + "9" + strings.Repeat("0", zeros) + digits
	value, err := strconv.ParseInt(padded, 10, 64)
	if err != nil {
		return id
	}
	return value
}
