// Package rewrite inserts or updates serialVersionUID declarations in source
// text, using the byte spans the front ends record.
package rewrite

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/morozRed/serialid/internal/parser"
	"github.com/morozRed/serialid/internal/suid"
)

const defaultIndentUnit = "    "

var (
	ErrNoBody          = errors.New("class has no body to insert into")
	ErrOverlappingEdit = errors.New("overlapping edits")
)

// Declaration returns the text of an id field declaration for lang.
func Declaration(lang string, id int64) string {
	if lang == "kotlin" {
		return fmt.Sprintf("private const val %s = %dL", suid.FieldName, id)
	}
	return fmt.Sprintf("private static final long %s = %dL;", suid.FieldName, id)
}

// Edit replaces content[Start:End] with Text.
type Edit struct {
	Start int
	End   int
	Text  string
}

// Plan returns the edit that makes decl declare id, replacing an existing
// declaration or inserting a new one. Kotlin classes get a companion object
// when they have none.
func Plan(content []byte, decl *parser.ClassDecl, id int64) (Edit, error) {
	if decl == nil {
		return Edit{}, fmt.Errorf("no declaration")
	}
	text := Declaration(decl.Language, id)
	if decl.IDField != nil {
		return Edit{Start: decl.IDField.Decl.Start, End: decl.IDField.Decl.End, Text: text}, nil
	}

	if decl.Language != "kotlin" {
		if decl.Body.Empty() {
			return Edit{}, fmt.Errorf("%s: %w", decl.QualifiedName, ErrNoBody)
		}
		return insertFirst(content, decl.Body, decl.Indent, text), nil
	}

	if companion := decl.Companion; companion != nil {
		if companion.Body.Empty() {
			inner := companion.Indent + indentUnit(content, decl)
			return Edit{
				Start: companion.Decl.End,
				End:   companion.Decl.End,
				Text:  " {\n" + inner + text + "\n" + companion.Indent + "}",
			}, nil
		}
		return insertFirst(content, companion.Body, companion.Indent, text), nil
	}

	unit := indentUnit(content, decl)
	if decl.Body.Empty() {
		member := decl.Indent + unit
		return Edit{
			Start: decl.Decl.End,
			End:   decl.Decl.End,
			Text:  " {\n" + companionBlock(member, unit, text) + "\n" + decl.Indent + "}",
		}, nil
	}
	return insertLast(content, decl.Body, decl.Indent, unit, text), nil
}

func companionBlock(indent, unit, text string) string {
	return indent + "companion object {\n" + indent + unit + text + "\n" + indent + "}"
}

// insertFirst places text as the first member of body.
func insertFirst(content []byte, body parser.Span, outerIndent, text string) Edit {
	member := memberIndent(content, body, outerIndent)
	pos := body.Start + 1
	rest := pos
	for rest < body.End && (content[rest] == ' ' || content[rest] == '\t') {
		rest++
	}

	switch {
	case rest < len(content) && content[rest] == '\n':
		return Edit{Start: pos, End: pos, Text: "\n" + member + text}
	case rest == body.End-1:
		// "{}" or "{ }" on one line
		return Edit{Start: pos, End: rest, Text: "\n" + member + text + "\n" + outerIndent}
	default:
		return Edit{Start: pos, End: rest, Text: "\n" + member + text + "\n" + member}
	}
}

// insertLast appends a companion object holding text at the end of body.
func insertLast(content []byte, body parser.Span, outerIndent, unit, text string) Edit {
	member := outerIndent + unit
	closing := body.End - 1
	pos := closing
	for pos > body.Start+1 && (content[pos-1] == ' ' || content[pos-1] == '\t') {
		pos--
	}
	block := companionBlock(member, unit, text)
	if pos > body.Start+1 && content[pos-1] == '\n' {
		prefix := "\n"
		if strings.TrimSpace(string(content[body.Start+1:pos])) == "" || content[pos-2] == '\n' {
			prefix = ""
		}
		return Edit{Start: pos, End: pos, Text: prefix + block + "\n"}
	}
	return Edit{Start: pos, End: closing, Text: "\n" + block + "\n" + outerIndent}
}

// memberIndent returns the indentation of the first member line of body,
// or outerIndent plus one unit when the body is empty.
func memberIndent(content []byte, body parser.Span, outerIndent string) string {
	lines := strings.Split(string(content[body.Start+1:body.End-1]), "\n")
	for i, line := range lines {
		if i == 0 {
			continue
		}
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" || strings.HasPrefix(trimmed, "}") {
			continue
		}
		indent := line[:len(line)-len(trimmed)]
		if len(indent) > len(outerIndent) {
			return indent
		}
	}
	return outerIndent + defaultIndentUnit
}

func indentUnit(content []byte, decl *parser.ClassDecl) string {
	if decl.Body.Empty() {
		return defaultIndentUnit
	}
	member := memberIndent(content, decl.Body, decl.Indent)
	if strings.HasPrefix(member, decl.Indent) && len(member) > len(decl.Indent) {
		return member[len(decl.Indent):]
	}
	return defaultIndentUnit
}

// Apply performs edits on content. Edits may come in any order but must not
// overlap; they are applied from the end of the file backwards so earlier
// offsets stay valid.
func Apply(content []byte, edits []Edit) ([]byte, error) {
	sorted := append([]Edit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start > sorted[j].Start
	})

	out := append([]byte(nil), content...)
	limit := len(content)
	for _, e := range sorted {
		if e.Start < 0 || e.End < e.Start || e.End > len(content) {
			return nil, fmt.Errorf("edit [%d,%d) out of range", e.Start, e.End)
		}
		if e.End > limit {
			return nil, fmt.Errorf("edit [%d,%d): %w", e.Start, e.End, ErrOverlappingEdit)
		}
		out = append(out[:e.Start], append([]byte(e.Text), out[e.End:]...)...)
		limit = e.Start
	}
	return out, nil
}
