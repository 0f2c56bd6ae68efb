package parser

import (
	"sort"
	"strings"
)

// DeclKind represents the flavor of a class-like declaration
type DeclKind int

const (
	KindClass DeclKind = iota
	KindInterface
	KindEnum
	KindAnnotation
	KindRecord
	KindObject
)

func (k DeclKind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindEnum:
		return "enum"
	case KindAnnotation:
		return "annotation"
	case KindRecord:
		return "record"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Modifiers is a sorted, de-duplicated set of modifier keywords. Front ends
// record explicit keywords plus the ones their language implies (interface
// members are public, companion members are static, ...).
type Modifiers []string

// NewModifiers builds a modifier set from keywords.
func NewModifiers(keywords ...string) Modifiers {
	return Modifiers(nil).With(keywords...)
}

// With returns a copy of the set extended by keywords.
func (m Modifiers) With(keywords ...string) Modifiers {
	seen := make(map[string]bool, len(m)+len(keywords))
	out := make(Modifiers, 0, len(m)+len(keywords))
	for _, kw := range append(append([]string{}, m...), keywords...) {
		kw = strings.TrimSpace(kw)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	sort.Strings(out)
	return out
}

// Has reports whether keyword is in the set.
func (m Modifiers) Has(keyword string) bool {
	idx := sort.SearchStrings(m, keyword)
	return idx < len(m) && m[idx] == keyword
}

// TypeRef is a type reference as resolved by a front end.
type TypeRef struct {
	Primitive string `json:"primitive,omitempty"` // int, long, void, ...
	Binary    string `json:"binary,omitempty"`    // java/util/Map$Entry
	Dims      int    `json:"dims,omitempty"`
	Raw       string `json:"raw,omitempty"`
}

// IsPrimitive reports whether the element type is primitive (arrays of
// primitives included).
func (t TypeRef) IsPrimitive() bool {
	return t.Primitive != ""
}

// Resolved reports whether the front end knew what the type is.
func (t TypeRef) Resolved() bool {
	return t.Primitive != "" || t.Binary != ""
}

// DottedName returns the binary name with '.' as package separator.
func (t TypeRef) DottedName() string {
	if t.Binary == "" {
		return strings.TrimSpace(t.Raw)
	}
	return strings.ReplaceAll(t.Binary, "/", ".")
}

// Span is a half-open byte range within the parsed file.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Empty reports whether the span covers nothing.
func (s Span) Empty() bool {
	return s.End <= s.Start
}

// FieldDecl is a field (Java) or property (Kotlin).
type FieldDecl struct {
	Name      string
	Modifiers Modifiers
	Type      TypeRef
	// HasInitializer is set when the declaration carries "= expr".
	HasInitializer bool
	// ConstantInit is set when the initializer is a compile-time constant.
	ConstantInit bool
	// Header is the declaration text without its initializer.
	Header string
	Line   int
}

// MethodDecl is a method, constructor or function.
type MethodDecl struct {
	Name      string
	Modifiers Modifiers
	Params    []TypeRef
	Return    TypeRef
	HasBody   bool
	// Header is the declaration text without its body.
	Header string
	Line   int
}

// InitializerDecl is an initializer block in a class body.
type InitializerDecl struct {
	Static bool
	Line   int
}

// IDField describes an existing serialVersionUID declaration.
type IDField struct {
	Name string
	// Literal is the initializer text, empty when there is none.
	Literal string
	// Decl covers the whole declaration.
	Decl Span
	Line int
}

// UsageKind classifies a body observation.
type UsageKind int

const (
	UsageAssert UsageKind = iota
	UsageClassLiteral
	UsageFieldAccess
	UsageMethodCall
	UsageClassInstantiation
)

func (k UsageKind) String() string {
	switch k {
	case UsageAssert:
		return "assert"
	case UsageClassLiteral:
		return "class-literal"
	case UsageFieldAccess:
		return "field"
	case UsageMethodCall:
		return "method"
	case UsageClassInstantiation:
		return "new"
	default:
		return "unknown"
	}
}

// Usage is something a front end observed inside a class body that the
// reference algorithm turns into compiler-generated members.
type Usage struct {
	Kind UsageKind
	// Context lists the qualified names of the classes lexically enclosing
	// the expression, innermost first.
	Context []string
	// ContextAnonymous is set when the innermost context is an anonymous class.
	ContextAnonymous bool
	// Owner is the qualified name of the class declaring the target member.
	Owner  string
	Target string
	// Operator is "=", "++pre", "--pre", "++post" or "--post" for writes.
	Operator string
	// Private, Static and Constant describe the target member.
	Private  bool
	Static   bool
	Constant bool
	// Type is the class literal operand or the field type.
	Type   TypeRef
	Params []TypeRef
	Return TypeRef
	Line   int
}

// Innermost returns the innermost enclosing class, or "".
func (u Usage) Innermost() string {
	if len(u.Context) == 0 {
		return ""
	}
	return u.Context[0]
}

// ClassDecl is a resolved class-like declaration.
type ClassDecl struct {
	Language      string
	Name          string
	QualifiedName string // binary name, e.g. com.acme.Outer$Inner
	Kind          DeclKind
	Modifiers     Modifiers
	Anonymous     bool
	Local         bool
	// Outer is the qualified name of the enclosing class, empty for top level.
	Outer string

	Extends    []TypeRef
	Implements []TypeRef

	Fields       []FieldDecl
	Constructors []MethodDecl
	Methods      []MethodDecl
	Initializers []InitializerDecl
	// PrimaryConstructor is set for Kotlin classes declaring one.
	PrimaryConstructor *MethodDecl
	// Companion is the Kotlin companion object, if any.
	Companion *ClassDecl

	Classes []*ClassDecl
	Usages  []Usage

	IDField *IDField

	// Decl covers the whole declaration, Body the braces of its body (empty
	// when the declaration has no body).
	Decl   Span
	Body   Span
	Indent string
	Line   int
}

// IsNested reports whether the class is declared inside another class.
func (c *ClassDecl) IsNested() bool {
	return c != nil && c.Outer != ""
}

// Walk visits c and every class nested in it, depth first.
func (c *ClassDecl) Walk(fn func(*ClassDecl)) {
	if c == nil {
		return
	}
	fn(c)
	if c.Companion != nil {
		c.Companion.Walk(fn)
	}
	for _, nested := range c.Classes {
		nested.Walk(fn)
	}
}

// Supertypes returns Extends followed by Implements.
func (c *ClassDecl) Supertypes() []TypeRef {
	out := make([]TypeRef, 0, len(c.Extends)+len(c.Implements))
	out = append(out, c.Extends...)
	return append(out, c.Implements...)
}

// FileDecls holds all declarations extracted from a single file
type FileDecls struct {
	Path     string
	Language string
	Package  string
	Classes  []*ClassDecl
	Hash     string // file content hash for snapshots
}

// AllClasses returns every class in the file, nested ones included, in
// source order.
func (f *FileDecls) AllClasses() []*ClassDecl {
	out := make([]*ClassDecl, 0, len(f.Classes))
	for _, class := range f.Classes {
		class.Walk(func(c *ClassDecl) {
			out = append(out, c)
		})
	}
	return out
}

// ParseIssue captures non-fatal parser warnings/errors encountered while scanning files.
type ParseIssue struct {
	File     string `json:"file"`
	Language string `json:"language,omitempty"`
	Severity string `json:"severity"` // warning | error
	Message  string `json:"message"`
}

// ParseResult holds the complete parse result for a source tree
type ParseResult struct {
	Files    []FileDecls
	RootPath string
	Issues   []ParseIssue
}
