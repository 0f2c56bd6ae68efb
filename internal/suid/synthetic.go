package suid

import (
	"fmt"
	"strings"

	"github.com/morozRed/serialid/internal/parser"
)

const (
	assertionsDisabledField = "$assertionsDisabled"
	classAccessMethod       = "class$"
	accessMethodPrefix      = "access$"
	classDescriptor         = "Ljava/lang/Class;"
	classAccessDescriptor   = "(Ljava.lang.String;)Ljava.lang.Class;"
)

// Synthetics are the compiler-generated members inferred for one class.
type Synthetics struct {
	Fields            []MemberFacts
	Methods           []MemberFacts
	StaticInitializer bool
	// Reserved counts accessor indices handed out, including reservations
	// that did not produce a member of this class.
	Reserved int
}

// accessorSuffix maps a write operator to the accessor name suffix.
var accessorSuffix = map[string]string{
	"=":      "02",
	"++pre":  "04",
	"--pre":  "06",
	"++post": "08",
	"--post": "10",
}

// inference is the accumulator threaded through one InferSynthetics call.
type inference struct {
	class     *parser.ClassDecl
	enc       Encoder
	nested    map[string]*parser.ClassDecl
	indices   map[string]int
	next      int
	asserted  bool
	classRefs bool
	fields    memberSet
	methods   memberSet
	clinit    bool
}

// InferSynthetics folds the usages recorded for class into the members the
// reference compiler would add. Assert and class-literal usages count only
// when they occur directly in the class body; accessor usages may come from
// any nested class.
func InferSynthetics(class *parser.ClassDecl, enc Encoder) Synthetics {
	if class == nil {
		return Synthetics{}
	}

	acc := &inference{
		class:   class,
		enc:     enc,
		nested:  make(map[string]*parser.ClassDecl),
		indices: make(map[string]int),
		fields:  newMemberSet(),
		methods: newMemberSet(),
	}
	for _, nested := range class.Classes {
		acc.nested[nested.QualifiedName] = nested
	}

	for _, usage := range class.Usages {
		acc.observe(usage)
	}

	return Synthetics{
		Fields:            acc.fields.sorted(),
		Methods:           acc.methods.sorted(),
		StaticInitializer: acc.clinit,
		Reserved:          acc.next,
	}
}

func (acc *inference) observe(u parser.Usage) {
	switch u.Kind {
	case parser.UsageAssert:
		if u.Innermost() == acc.class.QualifiedName {
			acc.assertion()
		}
	case parser.UsageClassLiteral:
		if u.Innermost() == acc.class.QualifiedName && !(u.Type.IsPrimitive() && u.Type.Dims == 0) {
			acc.classLiteral(u.Type)
		}
	case parser.UsageFieldAccess:
		acc.crossClass(u)
		acc.fieldAccess(u)
	case parser.UsageMethodCall:
		acc.crossClass(u)
		acc.methodCall(u)
	case parser.UsageClassInstantiation:
		acc.instantiation(u)
	}
}

func (acc *inference) assertion() {
	if acc.asserted {
		return
	}
	acc.asserted = true
	acc.fields.add(MemberFacts{Name: assertionsDisabledField, Modifiers: Static | Final, Descriptor: "Z"})
	binary := strings.ReplaceAll(acc.class.QualifiedName, ".", "/")
	acc.classLiteral(parser.TypeRef{Binary: binary})
	acc.clinit = true
}

func (acc *inference) classLiteral(t parser.TypeRef) {
	if !acc.classRefs {
		acc.methods.add(MemberFacts{Name: classAccessMethod, Modifiers: Static, Descriptor: classAccessDescriptor})
		acc.classRefs = true
	}

	var name strings.Builder
	if t.Dims > 0 {
		name.WriteString("array")
		name.WriteString(strings.Repeat("$", t.Dims))
	} else {
		name.WriteString(classAccessMethod)
	}
	if t.IsPrimitive() {
		letter, _ := acc.enc.table.PrimitiveLetter(t.Primitive)
		name.WriteString(letter)
	} else {
		name.WriteString(strings.NewReplacer(".", "$", "/", "$").Replace(t.DottedName()))
	}
	acc.fields.add(MemberFacts{Name: name.String(), Modifiers: Static, Descriptor: classDescriptor})
}

// crossClass reserves indices for the classes between the accessing context
// and the hashed class when the access crosses class boundaries.
func (acc *inference) crossClass(u parser.Usage) {
	if len(u.Context) == 0 || u.Innermost() == u.Owner {
		return
	}
	for i := 1; i < len(u.Context) && u.Context[i] != acc.class.QualifiedName; i++ {
		if !u.ContextAnonymous {
			acc.reserve("class:" + u.Innermost())
		}
		acc.reserve("class:" + u.Context[i])
	}
}

func (acc *inference) fieldAccess(u parser.Usage) {
	if !u.Private || u.Innermost() == u.Owner || len(u.Context) == 0 {
		return
	}
	if u.Static && u.Constant && u.Type.IsPrimitive() && u.Type.Dims == 0 {
		return
	}

	index := acc.reserve("field:" + u.Owner + "#" + u.Target)
	if u.Owner != acc.class.QualifiedName {
		return
	}

	fieldType := Dotted(acc.enc.TypeDescriptor(u.Type))
	var params strings.Builder
	if !u.Static {
		params.WriteString("L" + acc.class.QualifiedName + ";")
	}
	suffix, write := accessorSuffix[u.Operator]
	if !write {
		suffix = "00"
	}
	if u.Operator == "=" {
		params.WriteString(fieldType)
	}

	acc.methods.add(MemberFacts{
		Name:       fmt.Sprintf("%s%d%s", accessMethodPrefix, index, suffix),
		Modifiers:  Static,
		Descriptor: "(" + params.String() + ")" + fieldType,
	})
}

func (acc *inference) methodCall(u parser.Usage) {
	if !u.Private || u.Owner != acc.class.QualifiedName || u.Innermost() == u.Owner {
		return
	}

	var descriptor string
	if u.Static {
		descriptor = Dotted(acc.enc.MethodDescriptor(u.Params, u.Return))
	} else {
		params := append([]parser.TypeRef{{Binary: acc.class.QualifiedName}}, u.Params...)
		descriptor = Dotted(acc.enc.MethodDescriptor(params, u.Return))
	}

	index := acc.reserve("method:" + u.Owner + "#" + u.Target + descriptor)
	acc.methods.add(MemberFacts{
		Name:       fmt.Sprintf("%s%d00", accessMethodPrefix, index),
		Modifiers:  Static,
		Descriptor: descriptor,
	})
}

// instantiation reserves an index for a private nested class without
// constructors; the class will need a synthetic constructor of its own.
func (acc *inference) instantiation(u parser.Usage) {
	nested, ok := acc.nested[u.Target]
	if !ok || u.Innermost() == u.Target {
		return
	}
	if !nested.Modifiers.Has("private") || len(nested.Constructors) > 0 {
		return
	}
	acc.reserve("class:" + u.Target)
}

func (acc *inference) reserve(key string) int {
	if index, ok := acc.indices[key]; ok {
		return index
	}
	index := acc.next
	acc.indices[key] = index
	acc.next++
	return index
}
