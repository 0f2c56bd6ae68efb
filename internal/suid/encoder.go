package suid

import (
	"strings"

	"github.com/morozRed/serialid/internal/parser"
)

// PlaceholderPrefix marks descriptors built from declaration text instead of
// resolved types.
const PlaceholderPrefix = "abcdefghijklmnopqrstuvwxyz0123456789"

const objectDescriptor = "Ljava/lang/Object;"

// knownSerializable lists the markers plus JDK classes that are
// serializable and commonly extended.
var knownSerializable = []string{
	"java.io.Serializable",
	"java.io.Externalizable",
	"java.lang.Throwable",
	"java.lang.Exception",
	"java.lang.RuntimeException",
	"java.lang.Error",
	"java.lang.Number",
	"java.lang.Enum",
	"java.lang.IllegalArgumentException",
	"java.lang.IllegalStateException",
	"java.io.IOException",
	"java.util.ArrayList",
	"java.util.LinkedList",
	"java.util.HashMap",
	"java.util.LinkedHashMap",
	"java.util.TreeMap",
	"java.util.HashSet",
	"java.util.LinkedHashSet",
	"java.util.TreeSet",
	"java.util.Date",
	"java.util.EventObject",
}

// Table holds the fixed lookup data the hasher consults. Build it once with
// NewTable and share it; it is never mutated after construction.
type Table struct {
	primitives   map[string]string
	serializable map[string]bool
}

// NewTable builds the lookup table. markers lists extra fully-qualified
// interface names that make a class eligible, on top of
// java.io.Serializable and java.io.Externalizable.
func NewTable(markers ...string) *Table {
	t := &Table{
		primitives: map[string]string{
			"byte":    "B",
			"char":    "C",
			"double":  "D",
			"float":   "F",
			"int":     "I",
			"long":    "J",
			"short":   "S",
			"void":    "V",
			"boolean": "Z",
		},
		serializable: make(map[string]bool, len(knownSerializable)+len(markers)),
	}
	for _, name := range knownSerializable {
		t.serializable[name] = true
	}
	for _, marker := range markers {
		marker = strings.TrimSpace(marker)
		if marker != "" {
			t.serializable[marker] = true
		}
	}
	return t
}

// PrimitiveLetter returns the descriptor letter for a primitive keyword.
func (t *Table) PrimitiveLetter(name string) (string, bool) {
	letter, ok := t.primitives[name]
	return letter, ok
}

// IsSerializableName reports whether a dotted name is a known serializable
// type or marker.
func (t *Table) IsSerializableName(name string) bool {
	return t.serializable[name]
}

// Encoder turns types and members into descriptor strings.
type Encoder struct {
	table *Table
}

// NewEncoder returns an encoder backed by table.
func NewEncoder(table *Table) Encoder {
	return Encoder{table: table}
}

// TypeDescriptor encodes a single type, e.g. "[Ljava/lang/String;".
func (e Encoder) TypeDescriptor(t parser.TypeRef) string {
	var b strings.Builder
	for i := 0; i < t.Dims; i++ {
		b.WriteByte('[')
	}
	switch {
	case t.Primitive != "":
		letter, ok := e.table.PrimitiveLetter(t.Primitive)
		if !ok {
			b.WriteString(objectDescriptor)
			break
		}
		b.WriteString(letter)
	case t.Binary != "":
		b.WriteByte('L')
		b.WriteString(strings.ReplaceAll(t.Binary, ".", "/"))
		b.WriteByte(';')
	default:
		b.WriteString(objectDescriptor)
	}
	return b.String()
}

// MethodDescriptor encodes "(params)return".
func (e Encoder) MethodDescriptor(params []parser.TypeRef, ret parser.TypeRef) string {
	var b strings.Builder
	b.WriteByte('(')
	for _, param := range params {
		b.WriteString(e.TypeDescriptor(param))
	}
	b.WriteByte(')')
	if !ret.Resolved() && ret.Raw == "" {
		ret = parser.TypeRef{Primitive: "void"}
	}
	b.WriteString(e.TypeDescriptor(ret))
	return b.String()
}

// Dotted rewrites package separators the way the reference stream writes
// method and constructor descriptors.
func Dotted(descriptor string) string {
	return strings.ReplaceAll(descriptor, "/", ".")
}

// Placeholder builds a stable stand-in descriptor from declaration text.
// Runs of whitespace collapse to one space, spaces next to brackets and
// before separators are dropped, and a comma is always followed by one
// space, so reformatting a header keeps the id.
func Placeholder(text string) string {
	return PlaceholderPrefix + normalizeHeader(text)
}

func normalizeHeader(text string) string {
	words := strings.Fields(text)
	var b strings.Builder
	for i, word := range words {
		if i > 0 && !joinsTight(words[i-1], word) {
			b.WriteByte(' ')
		}
		b.WriteString(word)
	}

	// Separate commas from what follows: "a,b" and "a, b" hash alike.
	out := b.String()
	if !strings.Contains(out, ",") {
		return out
	}
	b.Reset()
	for i := 0; i < len(out); i++ {
		b.WriteByte(out[i])
		if out[i] == ',' && i+1 < len(out) && out[i+1] != ' ' {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// joinsTight reports whether the space between prev and next is dropped.
func joinsTight(prev, next string) bool {
	switch prev[len(prev)-1] {
	case '(', '<', '[':
		return true
	}
	switch next[0] {
	case ')', '>', ']', ',':
		return true
	case ':':
		return !strings.HasPrefix(next, "::")
	}
	return false
}
