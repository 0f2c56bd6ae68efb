package suid

import (
	"sort"
	"strings"

	"github.com/morozRed/serialid/internal/parser"
)

const (
	constructorName       = "<init>"
	staticInitializerName = "<clinit>"
	initializerDescriptor = "()V"
)

// MemberFacts is one field, constructor or method as it enters the digest.
type MemberFacts struct {
	Name       string   `json:"name"`
	Modifiers  Modifier `json:"modifiers"`
	Descriptor string   `json:"descriptor"`
}

// ClassFacts is the ordered structural summary of one class.
type ClassFacts struct {
	QualifiedName  string        `json:"qualified_name"`
	Modifiers      Modifier      `json:"modifiers"`
	SupertypeNames []string      `json:"supertypes,omitempty"`
	Fields         []MemberFacts `json:"fields,omitempty"`
	Constructors   []MemberFacts `json:"constructors,omitempty"`
	Methods        []MemberFacts `json:"methods,omitempty"`
	// StaticInitializers is the number of <clinit> entries to write.
	StaticInitializers int `json:"static_initializers,omitempty"`
}

// HasStaticInitializer reports whether any <clinit> entry is written.
func (f ClassFacts) HasStaticInitializer() bool {
	return f.StaticInitializers > 0
}

// DeclarationFacts produces ClassFacts from one language's declarations.
type DeclarationFacts interface {
	Facts() ClassFacts
}

// FactsFor picks the DeclarationFacts variant for the declaration's language.
func FactsFor(decl *parser.ClassDecl, enc Encoder) DeclarationFacts {
	if decl.Language == "kotlin" {
		return KotlinFacts{Decl: decl, Encoder: enc}
	}
	return JavaFacts{Decl: decl, Encoder: enc}
}

// memberSet de-duplicates members by name and descriptor.
type memberSet struct {
	items map[string]MemberFacts
}

func newMemberSet() memberSet {
	return memberSet{items: make(map[string]MemberFacts)}
}

func (s memberSet) add(m MemberFacts) {
	key := m.Name + "\x00" + m.Descriptor
	if _, exists := s.items[key]; exists {
		return
	}
	s.items[key] = m
}

func (s memberSet) addAll(members []MemberFacts) {
	for _, m := range members {
		s.add(m)
	}
}

func (s memberSet) sorted() []MemberFacts {
	out := make([]MemberFacts, 0, len(s.items))
	for _, m := range s.items {
		out = append(out, m)
	}
	SortMembers(out)
	return out
}

// SortMembers orders members by name, then descriptor, comparing bytes.
func SortMembers(members []MemberFacts) {
	sort.Slice(members, func(i, j int) bool {
		if members[i].Name != members[j].Name {
			return members[i].Name < members[j].Name
		}
		return members[i].Descriptor < members[j].Descriptor
	})
}

// defaultConstructor returns the constructor assumed when a class declares
// none: public for public classes, package access otherwise.
func defaultConstructor(classModifiers Modifier) MemberFacts {
	ctor := MemberFacts{Name: constructorName, Descriptor: initializerDescriptor}
	if classModifiers.Has(Public) {
		ctor.Modifiers = Public
	}
	return ctor
}

// kotlinDefaultConstructor is public unless the class is protected, in which
// case it has package access. Internal classes still get a public one.
func kotlinDefaultConstructor(classModifiers parser.Modifiers) MemberFacts {
	ctor := MemberFacts{Name: constructorName, Descriptor: initializerDescriptor}
	if !classModifiers.Has("protected") {
		ctor.Modifiers = Public
	}
	return ctor
}

// applyInterfaceCorrection sets INTERFACE for interfaces and clears
// ABSTRACT when the interface has no non-private methods.
func applyInterfaceCorrection(m Modifier, kind parser.DeclKind, methods int) Modifier {
	if kind != parser.KindInterface {
		return m
	}
	m |= Interface
	if methods == 0 {
		m &^= Abstract
	}
	return m
}

// JavaFacts extracts facts from Java declarations, including members the
// compiler synthesizes.
type JavaFacts struct {
	Decl    *parser.ClassDecl
	Encoder Encoder
}

func (j JavaFacts) Facts() ClassFacts {
	decl := j.Decl
	classMods := Bitmask(decl.Modifiers, JavaPolicy)

	fields := newMemberSet()
	staticInit := false
	for _, field := range decl.Fields {
		if hasStaticInitializer(field) {
			staticInit = true
		}
		if IsPrivate(field.Modifiers) {
			continue
		}
		fields.add(MemberFacts{
			Name:       field.Name,
			Modifiers:  Bitmask(field.Modifiers, JavaPolicy),
			Descriptor: j.Encoder.TypeDescriptor(field.Type),
		})
	}
	for _, init := range decl.Initializers {
		if init.Static {
			staticInit = true
		}
	}

	constructors := newMemberSet()
	if len(decl.Constructors) == 0 && decl.Kind != parser.KindInterface {
		constructors.add(defaultConstructor(classMods))
	}
	for _, ctor := range decl.Constructors {
		if IsPrivate(ctor.Modifiers) {
			continue
		}
		constructors.add(MemberFacts{
			Name:       constructorName,
			Modifiers:  Bitmask(ctor.Modifiers, JavaPolicy),
			Descriptor: Dotted(j.Encoder.MethodDescriptor(ctor.Params, parser.TypeRef{Primitive: "void"})),
		})
	}

	methods := newMemberSet()
	for _, method := range decl.Methods {
		if IsPrivate(method.Modifiers) {
			continue
		}
		methods.add(MemberFacts{
			Name:       method.Name,
			Modifiers:  Bitmask(method.Modifiers, JavaPolicy),
			Descriptor: Dotted(j.Encoder.MethodDescriptor(method.Params, method.Return)),
		})
	}

	synthetics := InferSynthetics(decl, j.Encoder)
	fields.addAll(synthetics.Fields)
	methods.addAll(synthetics.Methods)
	if synthetics.StaticInitializer {
		staticInit = true
	}

	facts := ClassFacts{
		QualifiedName:  decl.QualifiedName,
		SupertypeNames: supertypeNames(decl.Implements, false),
		Fields:         fields.sorted(),
		Constructors:   constructors.sorted(),
		Methods:        methods.sorted(),
	}
	facts.Modifiers = applyInterfaceCorrection(classMods, decl.Kind, len(facts.Methods))
	if staticInit {
		facts.StaticInitializers = 1
	}
	return facts
}

// hasStaticInitializer reports whether a field forces a <clinit>: a static
// field with an initializer that is not a constant of primitive or String
// type.
func hasStaticInitializer(field parser.FieldDecl) bool {
	if !field.Modifiers.Has("static") || !field.HasInitializer {
		return false
	}
	constantType := field.Type.Dims == 0 &&
		(field.Type.IsPrimitive() || field.Type.Binary == "java/lang/String")
	return !(field.Modifiers.Has("final") && constantType && field.ConstantInit)
}

// KotlinFacts extracts facts from Kotlin declarations. Member types are not
// resolved; descriptors are placeholders over the declaration headers.
type KotlinFacts struct {
	Decl    *parser.ClassDecl
	Encoder Encoder
}

func (k KotlinFacts) Facts() ClassFacts {
	decl := k.Decl
	classMods := Bitmask(decl.Modifiers, KotlinPolicy)

	fields := newMemberSet()
	methods := newMemberSet()
	staticInits := len(decl.Initializers)

	collect := func(owner *parser.ClassDecl) {
		for _, field := range owner.Fields {
			if IsPrivate(field.Modifiers) {
				continue
			}
			fields.add(MemberFacts{
				Name:       field.Name,
				Modifiers:  Bitmask(field.Modifiers, KotlinPolicy),
				Descriptor: Placeholder(field.Header),
			})
		}
		for _, method := range owner.Methods {
			if IsPrivate(method.Modifiers) {
				continue
			}
			if owner != decl && !method.Modifiers.Has("static") {
				continue
			}
			methods.add(MemberFacts{
				Name:       method.Name,
				Modifiers:  Bitmask(method.Modifiers, KotlinPolicy),
				Descriptor: Placeholder(method.Header),
			})
		}
	}
	collect(decl)
	if decl.Companion != nil {
		collect(decl.Companion)
		staticInits += len(decl.Companion.Initializers)
	}

	constructors := newMemberSet()
	declared := decl.Constructors
	if decl.PrimaryConstructor != nil {
		declared = append([]parser.MethodDecl{*decl.PrimaryConstructor}, declared...)
	}
	if len(declared) == 0 && decl.Kind != parser.KindInterface {
		constructors.add(kotlinDefaultConstructor(decl.Modifiers))
	}
	for _, ctor := range declared {
		if IsPrivate(ctor.Modifiers) {
			continue
		}
		constructors.add(MemberFacts{
			Name:       constructorName,
			Modifiers:  Bitmask(ctor.Modifiers.With("open"), KotlinPolicy),
			Descriptor: Placeholder(ctor.Header),
		})
	}

	facts := ClassFacts{
		QualifiedName:      decl.QualifiedName,
		SupertypeNames:     supertypeNames(decl.Supertypes(), true),
		Fields:             fields.sorted(),
		Constructors:       constructors.sorted(),
		Methods:            methods.sorted(),
		StaticInitializers: staticInits,
	}
	facts.Modifiers = applyInterfaceCorrection(classMods, decl.Kind, len(facts.Methods))
	return facts
}

// supertypeNames returns the sorted, de-duplicated supertype names. With
// source set, the written text of each entry is used instead of its
// resolved name.
func supertypeNames(refs []parser.TypeRef, source bool) []string {
	names := make([]string, 0, len(refs))
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		name := ref.DottedName()
		if source || ref.Binary == "" {
			name = strings.Join(strings.Fields(ref.Raw), " ")
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
