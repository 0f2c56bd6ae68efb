// Package suid computes deterministic serialVersionUID values from class
// declarations, following the algorithm java.io.ObjectStreamClass uses for
// the default stream unique identifier.
package suid

import (
	"crypto"
	"strings"

	"github.com/morozRed/serialid/internal/parser"
)

// Sentinel ids returned by ComputeStructuralID without an error.
const (
	NotApplicable   int64 = -1
	NotSerializable int64 = 0
)

// FieldName is the name of the generated field.
const FieldName = "serialVersionUID"

// Option configures a Hasher.
type Option func(*Hasher)

// WithMarkers adds fully-qualified marker interface names.
func WithMarkers(markers ...string) Option {
	return func(h *Hasher) {
		h.markers = append(h.markers, markers...)
	}
}

// WithHash overrides the digest algorithm.
func WithHash(algorithm crypto.Hash) Option {
	return func(h *Hasher) {
		h.hash = algorithm
	}
}

// WithIndex lets the hasher follow superclasses declared elsewhere in the
// scanned tree when deciding serializability.
func WithIndex(index *Index) Option {
	return func(h *Hasher) {
		h.index = index
	}
}

// Hasher is immutable after construction and safe for concurrent use; every
// call builds its own facts and inference state.
type Hasher struct {
	markers []string
	table   *Table
	enc     Encoder
	hash    crypto.Hash
	index   *Index
}

// NewHasher builds a hasher and its lookup table.
func NewHasher(opts ...Option) *Hasher {
	h := &Hasher{hash: DefaultHash}
	for _, opt := range opts {
		opt(h)
	}
	h.table = NewTable(h.markers...)
	h.enc = NewEncoder(h.table)
	return h
}

// Encoder exposes the hasher's signature encoder.
func (h *Hasher) Encoder() Encoder {
	return h.enc
}

// Facts extracts the ordered structural facts of decl.
func (h *Hasher) Facts(decl *parser.ClassDecl) ClassFacts {
	return FactsFor(decl, h.enc).Facts()
}

// ComputeStructuralID returns the id of decl. It returns NotApplicable for
// nil or structurally ineligible declarations and NotSerializable when the
// class does not implement a marker interface. Errors are reserved for a
// missing digest algorithm and strings too long to serialize.
func (h *Hasher) ComputeStructuralID(decl *parser.ClassDecl) (int64, error) {
	if decl == nil || !hashable(decl) {
		return NotApplicable, nil
	}
	if !h.IsSerializable(decl) {
		return NotSerializable, nil
	}
	return Digest(h.Facts(decl), h.hash)
}

// hashable rejects declarations that have no stable binary shape.
func hashable(decl *parser.ClassDecl) bool {
	switch decl.Kind {
	case parser.KindAnnotation, parser.KindEnum:
		return false
	}
	return !decl.Anonymous && !decl.Local
}

// NeedsGeneratedField reports whether decl should carry a generated id
// field: a serializable, non-private, named class. Records are skipped since
// serialization ignores their serialVersionUID.
func (h *Hasher) NeedsGeneratedField(decl *parser.ClassDecl) bool {
	if decl == nil || !hashable(decl) {
		return false
	}
	switch decl.Kind {
	case parser.KindInterface, parser.KindObject, parser.KindRecord:
		return false
	}
	if decl.IsNested() && decl.Modifiers.Has("private") {
		return false
	}
	return h.IsSerializable(decl)
}

// IsSerializable reports whether decl implements a marker interface,
// directly or through supertypes known to the index.
func (h *Hasher) IsSerializable(decl *parser.ClassDecl) bool {
	return h.isSerializable(decl, make(map[string]bool))
}

func (h *Hasher) isSerializable(decl *parser.ClassDecl, visited map[string]bool) bool {
	if decl == nil || visited[decl.QualifiedName] {
		return false
	}
	visited[decl.QualifiedName] = true

	for _, ref := range decl.Supertypes() {
		name := supertypeName(ref)
		if h.table.IsSerializableName(name) {
			return true
		}
		if decl.Language == "kotlin" && name == "Serializable" {
			return true
		}
		if h.index == nil {
			continue
		}
		if super, ok := h.index.Lookup(name); ok && h.isSerializable(super, visited) {
			return true
		}
	}
	return false
}

// supertypeName strips type arguments and constructor calls from a
// supertype reference.
func supertypeName(ref parser.TypeRef) string {
	name := ref.DottedName()
	if idx := strings.IndexAny(name, "<("); idx != -1 {
		name = name[:idx]
	}
	return strings.TrimSpace(name)
}

// Index maps qualified class names to declarations across a scanned tree.
type Index struct {
	byName map[string]*parser.ClassDecl
}

// NewIndex indexes every class in files.
func NewIndex(files []parser.FileDecls) *Index {
	idx := &Index{byName: make(map[string]*parser.ClassDecl)}
	for i := range files {
		for _, class := range files[i].AllClasses() {
			idx.byName[class.QualifiedName] = class
		}
	}
	return idx
}

// Lookup finds a class by qualified name.
func (i *Index) Lookup(name string) (*parser.ClassDecl, bool) {
	if i == nil {
		return nil, false
	}
	decl, ok := i.byName[name]
	return decl, ok
}
