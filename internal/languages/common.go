package languages

import (
	"strings"
	"unicode"

	"github.com/morozRed/serialid/internal/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// idFieldName is the field both front ends record as parser.IDField.
const idFieldName = "serialVersionUID"

func namedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	count := int(node.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		if child := node.NamedChild(i); child != nil {
			out = append(out, child)
		}
	}
	return out
}

// childOfType returns the first child (named or anonymous) of the given type.
func childOfType(node *sitter.Node, typ string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child != nil && child.Type() == typ {
			return child
		}
	}
	return nil
}

func childrenOfType(node *sitter.Node, typ string) []*sitter.Node {
	var out []*sitter.Node
	for _, child := range namedChildren(node) {
		if child.Type() == typ {
			out = append(out, child)
		}
	}
	return out
}

func firstNamed(node *sitter.Node) *sitter.Node {
	if node == nil || node.NamedChildCount() == 0 {
		return nil
	}
	return node.NamedChild(0)
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func spanOf(node *sitter.Node) parser.Span {
	if node == nil {
		return parser.Span{}
	}
	return parser.Span{Start: int(node.StartByte()), End: int(node.EndByte())}
}

func lineOf(node *sitter.Node) int {
	if node == nil {
		return 0
	}
	return int(node.StartPoint().Row) + 1
}

// indentAt returns the whitespace between the start of the line holding
// offset and the first non-blank character of that line.
func indentAt(content []byte, offset uint32) string {
	start := int(offset)
	if start > len(content) {
		start = len(content)
	}
	lineStart := start
	for lineStart > 0 && content[lineStart-1] != '\n' {
		lineStart--
	}
	end := lineStart
	for end < len(content) && (content[end] == ' ' || content[end] == '\t') {
		end++
	}
	return string(content[lineStart:end])
}

// compactTypeName drops whitespace, annotations and type arguments from a
// type name: "Map . Entry<K, V>" becomes "Map.Entry".
func compactTypeName(raw string) string {
	var b strings.Builder
	depth := 0
	skipAnnotation := false
	for _, r := range raw {
		switch {
		case r == '<':
			depth++
		case r == '>':
			if depth > 0 {
				depth--
			}
		case depth > 0:
		case r == '@':
			skipAnnotation = true
		case unicode.IsSpace(r):
			skipAnnotation = false
		case skipAnnotation:
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), ".")
}

// collapseSpace joins the whitespace-separated words of s with one space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// isConstantName reports whether name is written like a constant (FOO_BAR).
func isConstantName(name string) bool {
	letters := false
	for _, r := range name {
		switch {
		case unicode.IsUpper(r):
			letters = true
		case unicode.IsDigit(r), r == '_':
		default:
			return false
		}
	}
	return letters
}

func dottedBinary(binary string) string {
	return strings.ReplaceAll(binary, "/", ".")
}
