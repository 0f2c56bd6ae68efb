package languages

import (
	"context"
	"fmt"
	"strings"

	"github.com/morozRed/serialid/internal/parser"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// JavaParser implements parsing for Java source files
type JavaParser struct {
	types *typeTable
}

// NewJavaParser creates a new Java parser
func NewJavaParser() *JavaParser {
	return &JavaParser{types: newJavaTypeTable()}
}

func (j *JavaParser) Language() string {
	return "java"
}

func (j *JavaParser) Extensions() []string {
	return []string{".java"}
}

// Parse builds a declaration for every class of a compilation unit. Each call
// uses its own tree-sitter parser, so one JavaParser can serve a concurrent
// directory scan.
func (j *JavaParser) Parse(filename string, content []byte) (*parser.FileDecls, error) {
	p := sitter.NewParser()
	p.SetLanguage(java.GetLanguage())
	tree, err := p.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	w := &javaWalker{
		content: content,
		res:     newResolver(j.types),
		classes: make(map[string]*javaClass),
	}
	root := tree.RootNode()
	w.readHeader(root)

	result := &parser.FileDecls{
		Path:     filename,
		Language: "java",
		Package:  w.res.pkg,
		Classes:  make([]*parser.ClassDecl, 0),
	}

	fileScope := newScope(nil)
	var tops []*sitter.Node
	for _, child := range namedChildren(root) {
		if name := javaTypeName(child, content); name != "" {
			fileScope.types[name] = w.qualify(name)
			tops = append(tops, child)
		}
	}

	classes := make([]*javaClass, 0, len(tops))
	for _, node := range tops {
		name := javaTypeName(node, content)
		cls := w.declare(node, nil, fileScope, fileScope.types[name], name, declNamed)
		classes = append(classes, cls)
		result.Classes = append(result.Classes, cls.decl)
	}
	for _, cls := range classes {
		w.walkClass(cls, nil, nil)
	}

	return result, nil
}

type declOrigin int

const (
	declNamed declOrigin = iota
	declLocal
	declAnonymous
)

// javaClass is the walker's working state for one declaration.
type javaClass struct {
	decl    *parser.ClassDecl
	outer   *javaClass
	node    *sitter.Node
	body    *sitter.Node
	scope   *scope
	binary  string
	fields  map[string]parser.FieldDecl
	methods map[string][]parser.MethodDecl
	nested  map[uint32]*javaClass // member classes by start byte
	anon    int
	locals  map[string]int // local class name -> last index
}

type javaWalker struct {
	content []byte
	res     *resolver
	classes map[string]*javaClass // binary name -> class
}

func isJavaTypeDecl(nodeType string) bool {
	switch nodeType {
	case "class_declaration", "interface_declaration", "enum_declaration",
		"annotation_type_declaration", "record_declaration":
		return true
	}
	return false
}

func javaTypeName(node *sitter.Node, content []byte) string {
	if node == nil || !isJavaTypeDecl(node.Type()) {
		return ""
	}
	name := node.ChildByFieldName("name")
	if name == nil {
		return ""
	}
	return name.Content(content)
}

func javaKind(nodeType string) parser.DeclKind {
	switch nodeType {
	case "interface_declaration":
		return parser.KindInterface
	case "enum_declaration":
		return parser.KindEnum
	case "annotation_type_declaration":
		return parser.KindAnnotation
	case "record_declaration":
		return parser.KindRecord
	default:
		return parser.KindClass
	}
}

func (w *javaWalker) qualify(name string) string {
	if w.res.pkg == "" {
		return name
	}
	return strings.ReplaceAll(w.res.pkg, ".", "/") + "/" + name
}

func (w *javaWalker) readHeader(root *sitter.Node) {
	for _, child := range namedChildren(root) {
		switch child.Type() {
		case "package_declaration":
			for _, c := range namedChildren(child) {
				if c.Type() == "scoped_identifier" || c.Type() == "identifier" {
					w.res.pkg = c.Content(w.content)
				}
			}
		case "import_declaration":
			static, wildcard, path := false, false, ""
			for i := 0; i < int(child.ChildCount()); i++ {
				c := child.Child(i)
				if c == nil {
					continue
				}
				switch c.Type() {
				case "static":
					static = true
				case "asterisk":
					wildcard = true
				case "scoped_identifier", "identifier":
					path = c.Content(w.content)
				}
			}
			if !static {
				w.res.addImport(path, wildcard)
			}
		}
	}
}

// declare builds the declaration of one class and, recursively, of its
// member classes. Bodies are walked for usages later, once every member
// of the file is known.
func (w *javaWalker) declare(node *sitter.Node, outer *javaClass, parent *scope, binary, name string, origin declOrigin) *javaClass {
	decl := &parser.ClassDecl{
		Language:      "java",
		Name:          name,
		QualifiedName: dottedBinary(binary),
		Kind:          javaKind(node.Type()),
		Anonymous:     origin == declAnonymous,
		Local:         origin == declLocal,
		Decl:          spanOf(node),
		Indent:        indentAt(w.content, node.StartByte()),
		Line:          lineOf(node),
	}
	if outer != nil {
		decl.Outer = outer.decl.QualifiedName
	}

	cls := &javaClass{
		decl:    decl,
		outer:   outer,
		node:    node,
		scope:   newScope(parent),
		binary:  binary,
		fields:  make(map[string]parser.FieldDecl),
		methods: make(map[string][]parser.MethodDecl),
		nested:  make(map[uint32]*javaClass),
		locals:  make(map[string]int),
	}
	w.classes[binary] = cls

	if origin == declAnonymous {
		cls.body = node
	} else {
		cls.body = node.ChildByFieldName("body")
		cls.scope.types[name] = binary
		decl.Modifiers = w.classModifiers(node, outer, decl.Kind, origin == declNamed)
		w.readTypeParams(node, cls.scope)
		w.readSupertypes(node, cls)
	}

	if cls.body != nil {
		decl.Body = spanOf(cls.body)
		for _, member := range javaMembers(cls.body) {
			if memberName := javaTypeName(member, w.content); memberName != "" {
				cls.scope.types[memberName] = binary + "$" + memberName
			}
		}
		w.readMembers(cls)
	}
	if decl.Kind == parser.KindRecord {
		w.readRecordComponents(cls)
	}
	return cls
}

func (w *javaWalker) modifiers(node *sitter.Node) parser.Modifiers {
	mods := childOfType(node, "modifiers")
	if mods == nil {
		return nil
	}
	var keywords []string
	for i := 0; i < int(mods.ChildCount()); i++ {
		child := mods.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "marker_annotation", "annotation", "line_comment", "block_comment":
			continue
		}
		keywords = append(keywords, child.Content(w.content))
	}
	return parser.NewModifiers(keywords...)
}

// classModifiers adds the modifiers Java implies for a class declaration.
func (w *javaWalker) classModifiers(node *sitter.Node, outer *javaClass, kind parser.DeclKind, member bool) parser.Modifiers {
	mods := w.modifiers(node)
	nested := outer != nil && member
	var implied []string
	if nested && (outer.decl.Kind == parser.KindInterface || outer.decl.Kind == parser.KindAnnotation) {
		implied = append(implied, "public", "static")
	}
	switch kind {
	case parser.KindInterface, parser.KindAnnotation:
		implied = append(implied, "abstract")
		if nested {
			implied = append(implied, "static")
		}
	case parser.KindEnum, parser.KindRecord:
		implied = append(implied, "final")
		if nested {
			implied = append(implied, "static")
		}
	}
	return mods.With(implied...)
}

func (w *javaWalker) readTypeParams(node *sitter.Node, sc *scope) {
	params := childOfType(node, "type_parameters")
	for _, param := range childrenOfType(params, "type_parameter") {
		for _, c := range namedChildren(param) {
			if c.Type() == "type_identifier" || c.Type() == "identifier" {
				sc.typeParams[c.Content(w.content)] = true
				break
			}
		}
	}
}

func (w *javaWalker) readSupertypes(node *sitter.Node, cls *javaClass) {
	if super := childOfType(node, "superclass"); super != nil {
		if t := firstNamed(super); t != nil {
			cls.decl.Extends = append(cls.decl.Extends, w.typeRef(t, cls.scope))
		}
	}
	for _, clause := range []string{"super_interfaces", "extends_interfaces"} {
		list := childOfType(childOfType(node, clause), "type_list")
		for _, t := range namedChildren(list) {
			cls.decl.Implements = append(cls.decl.Implements, w.typeRef(t, cls.scope))
		}
	}
}

// javaMembers flattens class, interface, enum and annotation bodies into
// their member declarations.
func javaMembers(body *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, child := range namedChildren(body) {
		if child.Type() == "enum_body_declarations" {
			out = append(out, namedChildren(child)...)
			continue
		}
		out = append(out, child)
	}
	return out
}

func (w *javaWalker) readMembers(cls *javaClass) {
	decl := cls.decl
	inInterface := decl.Kind == parser.KindInterface || decl.Kind == parser.KindAnnotation
	for _, member := range javaMembers(cls.body) {
		switch member.Type() {
		case "field_declaration", "constant_declaration":
			w.readField(cls, member, inInterface || member.Type() == "constant_declaration")
		case "enum_constant":
			name := member.ChildByFieldName("name")
			if name == nil {
				continue
			}
			w.addField(cls, parser.FieldDecl{
				Name:           name.Content(w.content),
				Modifiers:      parser.NewModifiers("public", "static", "final"),
				Type:           parser.TypeRef{Binary: cls.binary, Raw: decl.Name},
				HasInitializer: true,
				Line:           lineOf(member),
			})
		case "method_declaration":
			w.readMethod(cls, member, inInterface)
		case "constructor_declaration", "compact_constructor_declaration":
			w.readConstructor(cls, member)
		case "static_initializer":
			decl.Initializers = append(decl.Initializers, parser.InitializerDecl{Static: true, Line: lineOf(member)})
		case "block":
			decl.Initializers = append(decl.Initializers, parser.InitializerDecl{Line: lineOf(member)})
		default:
			name := javaTypeName(member, w.content)
			if name == "" {
				continue
			}
			nested := w.declare(member, cls, cls.scope, cls.binary+"$"+name, name, declNamed)
			cls.nested[member.StartByte()] = nested
			decl.Classes = append(decl.Classes, nested.decl)
		}
	}
}

func (w *javaWalker) addField(cls *javaClass, field parser.FieldDecl) {
	cls.decl.Fields = append(cls.decl.Fields, field)
	cls.fields[field.Name] = field
}

func (w *javaWalker) addMethod(cls *javaClass, method parser.MethodDecl) {
	cls.decl.Methods = append(cls.decl.Methods, method)
	cls.methods[method.Name] = append(cls.methods[method.Name], method)
}

func (w *javaWalker) readField(cls *javaClass, node *sitter.Node, interfaceConstant bool) {
	mods := w.modifiers(node)
	if interfaceConstant {
		mods = mods.With("public", "static", "final")
	}
	base := w.typeRef(node.ChildByFieldName("type"), cls.scope)

	for _, declarator := range childrenOfType(node, "variable_declarator") {
		nameNode := declarator.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		fieldType := base
		fieldType.Dims += countDims(declarator.ChildByFieldName("dimensions"), w.content)
		value := declarator.ChildByFieldName("value")

		field := parser.FieldDecl{
			Name:           nameNode.Content(w.content),
			Modifiers:      mods,
			Type:           fieldType,
			HasInitializer: value != nil,
			Line:           lineOf(declarator),
		}
		if value != nil {
			field.ConstantInit = w.isConstant(value, cls)
		}
		w.addField(cls, field)

		if field.Name == idFieldName && cls.decl.IDField == nil {
			id := &parser.IDField{Name: field.Name, Decl: spanOf(node), Line: lineOf(node)}
			if value != nil {
				id.Literal = value.Content(w.content)
			}
			cls.decl.IDField = id
		}
	}
}

func (w *javaWalker) readMethod(cls *javaClass, node *sitter.Node, inInterface bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	sc := w.methodScope(node, cls.scope)
	mods := w.modifiers(node)
	body := node.ChildByFieldName("body")
	if inInterface {
		if !mods.Has("private") {
			mods = mods.With("public")
		}
		if body == nil && !mods.Has("static") && !mods.Has("default") {
			mods = mods.With("abstract")
		}
	}

	params, _ := w.params(node.ChildByFieldName("parameters"), sc)
	ret := w.typeRef(node.ChildByFieldName("type"), sc)
	ret.Dims += countDims(node.ChildByFieldName("dimensions"), w.content)

	w.addMethod(cls, parser.MethodDecl{
		Name:      nameNode.Content(w.content),
		Modifiers: mods,
		Params:    params,
		Return:    ret,
		HasBody:   body != nil,
		Line:      lineOf(node),
	})
}

func (w *javaWalker) readConstructor(cls *javaClass, node *sitter.Node) {
	var params []parser.TypeRef
	if node.Type() == "compact_constructor_declaration" {
		params, _ = w.params(cls.node.ChildByFieldName("parameters"), cls.scope)
	} else {
		params, _ = w.params(node.ChildByFieldName("parameters"), w.methodScope(node, cls.scope))
	}
	mods := w.modifiers(node)
	if cls.decl.Kind == parser.KindEnum {
		mods = mods.With("private")
	}
	cls.decl.Constructors = append(cls.decl.Constructors, parser.MethodDecl{
		Name:      "<init>",
		Modifiers: mods,
		Params:    params,
		Return:    primitiveType("void", 0),
		HasBody:   true,
		Line:      lineOf(node),
	})
}

// readRecordComponents adds what the compiler derives from a record header:
// private final fields, public accessors, the canonical constructor and the
// Object methods records override.
func (w *javaWalker) readRecordComponents(cls *javaClass) {
	decl := cls.decl
	types, names := w.params(cls.node.ChildByFieldName("parameters"), cls.scope)
	for i, name := range names {
		if i >= len(types) {
			break
		}
		w.addField(cls, parser.FieldDecl{
			Name:      name,
			Modifiers: parser.NewModifiers("private", "final"),
			Type:      types[i],
			Line:      decl.Line,
		})
		if _, declared := cls.methods[name]; !declared {
			w.addMethod(cls, parser.MethodDecl{
				Name:      name,
				Modifiers: parser.NewModifiers("public"),
				Return:    types[i],
				HasBody:   true,
				Line:      decl.Line,
			})
		}
	}

	canonical := false
	for _, ctor := range decl.Constructors {
		if len(ctor.Params) == len(types) {
			canonical = true
			break
		}
	}
	if !canonical {
		var visibility []string
		for _, kw := range []string{"public", "protected", "private"} {
			if decl.Modifiers.Has(kw) {
				visibility = append(visibility, kw)
			}
		}
		decl.Constructors = append(decl.Constructors, parser.MethodDecl{
			Name:      "<init>",
			Modifiers: parser.NewModifiers(visibility...),
			Params:    types,
			Return:    primitiveType("void", 0),
			Line:      decl.Line,
		})
	}

	objectMethods := []parser.MethodDecl{
		{Name: "equals", Params: []parser.TypeRef{{Binary: "java/lang/Object"}}, Return: primitiveType("boolean", 0)},
		{Name: "hashCode", Return: primitiveType("int", 0)},
		{Name: "toString", Return: parser.TypeRef{Binary: "java/lang/String"}},
	}
	for _, method := range objectMethods {
		if _, declared := cls.methods[method.Name]; declared {
			continue
		}
		method.Modifiers = parser.NewModifiers("public", "final")
		method.HasBody = true
		method.Line = decl.Line
		w.addMethod(cls, method)
	}
}

func (w *javaWalker) methodScope(node *sitter.Node, parent *scope) *scope {
	if childOfType(node, "type_parameters") == nil {
		return parent
	}
	sc := newScope(parent)
	w.readTypeParams(node, sc)
	return sc
}

// params resolves a formal parameter list into types and names.
func (w *javaWalker) params(node *sitter.Node, sc *scope) ([]parser.TypeRef, []string) {
	var types []parser.TypeRef
	var names []string
	for _, p := range namedChildren(node) {
		switch p.Type() {
		case "formal_parameter":
			t := w.typeRef(p.ChildByFieldName("type"), sc)
			t.Dims += countDims(p.ChildByFieldName("dimensions"), w.content)
			types = append(types, t)
			if name := p.ChildByFieldName("name"); name != nil {
				names = append(names, name.Content(w.content))
			}
		case "spread_parameter":
			var t parser.TypeRef
			for _, c := range namedChildren(p) {
				switch c.Type() {
				case "modifiers", "marker_annotation", "annotation":
				case "variable_declarator":
					if name := c.ChildByFieldName("name"); name != nil {
						names = append(names, name.Content(w.content))
					}
				default:
					if t.Raw == "" {
						t = w.typeRef(c, sc)
					}
				}
			}
			t.Dims++
			types = append(types, t)
		}
	}
	return types, names
}

// typeRef resolves a type node. Generic types are erased to their raw type
// and type variables are left unresolved.
func (w *javaWalker) typeRef(node *sitter.Node, sc *scope) parser.TypeRef {
	if node == nil {
		return parser.TypeRef{}
	}
	raw := node.Content(w.content)
	switch node.Type() {
	case "integral_type", "floating_point_type", "boolean_type", "void_type":
		return primitiveType(strings.TrimSpace(raw), 0)
	case "type_identifier", "scoped_type_identifier", "identifier", "scoped_identifier":
		binary, erased := w.res.resolveName(compactTypeName(raw), sc)
		if erased {
			return parser.TypeRef{Raw: raw}
		}
		return parser.TypeRef{Binary: binary, Raw: raw}
	case "generic_type":
		ref := w.typeRef(firstNamed(node), sc)
		ref.Raw = raw
		return ref
	case "array_type":
		ref := w.typeRef(node.ChildByFieldName("element"), sc)
		ref.Dims += countDims(node.ChildByFieldName("dimensions"), w.content)
		ref.Raw = raw
		return ref
	case "annotated_type":
		named := namedChildren(node)
		if len(named) > 0 {
			return w.typeRef(named[len(named)-1], sc)
		}
	}
	return parser.TypeRef{Raw: raw}
}

func countDims(node *sitter.Node, content []byte) int {
	if node == nil {
		return 0
	}
	return strings.Count(node.Content(content), "[")
}

// isConstant reports whether an initializer is a constant expression in the
// sense of JLS 15.29, as far as one file can tell.
func (w *javaWalker) isConstant(node *sitter.Node, cls *javaClass) bool {
	if node == nil {
		return false
	}
	switch node.Type() {
	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal",
		"binary_integer_literal", "decimal_floating_point_literal",
		"hex_floating_point_literal", "true", "false", "character_literal",
		"string_literal", "text_block":
		return true
	case "parenthesized_expression", "unary_expression", "binary_expression", "ternary_expression":
		operands := namedChildren(node)
		if len(operands) == 0 {
			return false
		}
		for _, operand := range operands {
			if !w.isConstant(operand, cls) {
				return false
			}
		}
		return true
	case "cast_expression":
		t := w.typeRef(node.ChildByFieldName("type"), cls.scope)
		constantType := t.Dims == 0 && (t.IsPrimitive() || t.Binary == "java/lang/String")
		return constantType && w.isConstant(node.ChildByFieldName("value"), cls)
	case "identifier":
		name := node.Content(w.content)
		for c := cls; c != nil; c = c.outer {
			if field, ok := c.fields[name]; ok {
				return field.Modifiers.Has("final") && field.ConstantInit
			}
		}
	case "field_access":
		field := node.ChildByFieldName("field")
		return field != nil && isConstantName(field.Content(w.content))
	}
	return false
}

// localVars maps the locals and parameters visible in a body to their
// declared types. The type is empty when it is not written.
type localVars map[string]parser.TypeRef

func (l localVars) has(name string) bool {
	_, ok := l[name]
	return ok
}

func (l localVars) clone() localVars {
	out := make(localVars, len(l))
	for name, t := range l {
		out[name] = t
	}
	return out
}

// walkClass records body usages of cls and of everything nested in it.
// captured holds the locals of enclosing methods visible to local and
// anonymous classes.
func (w *javaWalker) walkClass(cls *javaClass, outer []*javaClass, captured localVars) {
	ctx := append([]*javaClass{cls}, outer...)
	for _, member := range javaMembers(cls.body) {
		switch member.Type() {
		case "field_declaration", "constant_declaration":
			for _, declarator := range childrenOfType(member, "variable_declarator") {
				w.walk(declarator.ChildByFieldName("value"), ctx, captured)
			}
		case "method_declaration", "constructor_declaration", "compact_constructor_declaration":
			locals := captured.clone()
			sc := w.methodScope(member, cls.scope)
			params := member.ChildByFieldName("parameters")
			if member.Type() == "compact_constructor_declaration" {
				params = cls.node.ChildByFieldName("parameters")
			}
			types, names := w.params(params, sc)
			for i, name := range names {
				if i < len(types) {
					locals[name] = types[i]
				} else {
					locals[name] = parser.TypeRef{}
				}
			}
			body := member.ChildByFieldName("body")
			w.collectLocals(body, sc, locals)
			w.walk(body, ctx, locals)
		case "static_initializer", "block":
			locals := captured.clone()
			w.collectLocals(member, cls.scope, locals)
			w.walk(member, ctx, locals)
		case "enum_constant":
			w.walk(member.ChildByFieldName("arguments"), ctx, captured)
		default:
			if nested, ok := cls.nested[member.StartByte()]; ok {
				w.walkClass(nested, ctx, captured)
			}
		}
	}
}

// collectLocals gathers every local variable, parameter and pattern name of
// a body with its declared type, without block scoping and without entering
// nested classes.
func (w *javaWalker) collectLocals(node *sitter.Node, sc *scope, into localVars) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "class_body", "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
		return
	case "variable_declarator", "catch_formal_parameter", "enhanced_for_statement",
		"resource", "formal_parameter", "instanceof_expression":
		if name := node.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
			into[name.Content(w.content)] = w.declaredType(node, sc)
		}
	case "type_pattern":
		t := w.declaredType(node, sc)
		for _, c := range childrenOfType(node, "identifier") {
			into[c.Content(w.content)] = t
		}
	case "inferred_parameters":
		for _, c := range childrenOfType(node, "identifier") {
			into[c.Content(w.content)] = parser.TypeRef{}
		}
	case "lambda_expression":
		if params := node.ChildByFieldName("parameters"); params != nil && params.Type() == "identifier" {
			into[params.Content(w.content)] = parser.TypeRef{}
		}
	}
	for _, child := range namedChildren(node) {
		w.collectLocals(child, sc, into)
	}
}

// declaredType resolves the written type of a local declaration node.
func (w *javaWalker) declaredType(node *sitter.Node, sc *scope) parser.TypeRef {
	var typeNode *sitter.Node
	switch node.Type() {
	case "variable_declarator":
		if parent := node.Parent(); parent != nil {
			typeNode = parent.ChildByFieldName("type")
		}
	case "catch_formal_parameter":
		// The first alternative of a multi-catch stands for the union.
		typeNode = firstNamed(childOfType(node, "catch_type"))
	case "instanceof_expression":
		typeNode = node.ChildByFieldName("right")
	case "type_pattern":
		for _, c := range namedChildren(node) {
			if c.Type() != "identifier" && c.Type() != "modifiers" {
				typeNode = c
				break
			}
		}
	default:
		typeNode = node.ChildByFieldName("type")
	}
	if typeNode == nil {
		return parser.TypeRef{}
	}
	t := w.typeRef(typeNode, sc)
	t.Dims += countDims(node.ChildByFieldName("dimensions"), w.content)
	return t
}

func (w *javaWalker) walk(node *sitter.Node, ctx []*javaClass, locals localVars) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "assert_statement":
		w.record(ctx, parser.Usage{Kind: parser.UsageAssert, Line: lineOf(node)})
	case "class_literal":
		if t := firstNamed(node); t != nil {
			w.record(ctx, parser.Usage{
				Kind: parser.UsageClassLiteral,
				Type: w.typeRef(t, ctx[0].scope),
				Line: lineOf(node),
			})
		}
		return
	case "object_creation_expression":
		w.creation(node, ctx, locals)
		return
	case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
		w.localClass(node, ctx, locals)
		return
	case "method_invocation":
		w.invocation(node, ctx, locals)
		return
	case "field_access":
		w.fieldAccess(node, ctx, locals)
		return
	case "method_reference":
		w.walk(firstNamed(node), ctx, locals)
		return
	case "identifier":
		name := node.Content(w.content)
		if locals.has(name) || !isValueIdentifier(node) {
			return
		}
		if owner := fieldOwner(ctx, name); owner != nil {
			w.fieldUsage(ctx, owner, name, node)
		}
		return
	}
	for _, child := range namedChildren(node) {
		w.walk(child, ctx, locals)
	}
}

// isValueIdentifier reports whether an identifier is read or written as a
// variable rather than naming a declaration, label or annotation.
func isValueIdentifier(node *sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	if sameNode(parent.ChildByFieldName("name"), node) {
		return false
	}
	switch parent.Type() {
	case "scoped_identifier", "marker_annotation", "annotation", "labeled_statement",
		"break_statement", "continue_statement", "inferred_parameters",
		"element_value_pair", "package_declaration", "import_declaration":
		return false
	case "lambda_expression":
		return sameNode(parent.ChildByFieldName("body"), node)
	}
	return true
}

func fieldOwner(ctx []*javaClass, name string) *javaClass {
	for _, c := range ctx {
		if _, ok := c.fields[name]; ok {
			return c
		}
	}
	return nil
}

func methodOwner(ctx []*javaClass, name string) *javaClass {
	for _, c := range ctx {
		if _, ok := c.methods[name]; ok {
			return c
		}
	}
	return nil
}

// record attaches a usage to every class enclosing it; each class decides
// during inference which usages concern it.
func (w *javaWalker) record(ctx []*javaClass, u parser.Usage) {
	u.Context = make([]string, len(ctx))
	for i, c := range ctx {
		u.Context[i] = c.decl.QualifiedName
	}
	u.ContextAnonymous = ctx[0].decl.Anonymous
	for _, c := range ctx {
		c.decl.Usages = append(c.decl.Usages, u)
	}
}

func (w *javaWalker) fieldUsage(ctx []*javaClass, owner *javaClass, name string, ref *sitter.Node) {
	field, ok := owner.fields[name]
	if !ok {
		return
	}
	w.record(ctx, parser.Usage{
		Kind:     parser.UsageFieldAccess,
		Owner:    owner.decl.QualifiedName,
		Target:   name,
		Operator: writeOperator(ref),
		Private:  field.Modifiers.Has("private"),
		Static:   field.Modifiers.Has("static"),
		Constant: field.Modifiers.Has("final") && field.ConstantInit,
		Type:     field.Type,
		Line:     lineOf(ref),
	})
}

// writeOperator classifies how the expression ref is written to, if at all.
func writeOperator(ref *sitter.Node) string {
	parent := ref.Parent()
	if parent == nil {
		return ""
	}
	switch parent.Type() {
	case "assignment_expression":
		if sameNode(parent.ChildByFieldName("left"), ref) {
			return "="
		}
	case "update_expression":
		first := parent.Child(0)
		last := parent.Child(int(parent.ChildCount()) - 1)
		switch {
		case first != nil && first.Type() == "++":
			return "++pre"
		case first != nil && first.Type() == "--":
			return "--pre"
		case last != nil && last.Type() == "++":
			return "++post"
		case last != nil && last.Type() == "--":
			return "--post"
		}
	}
	return ""
}

func (w *javaWalker) fieldAccess(node *sitter.Node, ctx []*javaClass, locals localVars) {
	object := node.ChildByFieldName("object")
	field := node.ChildByFieldName("field")
	if field == nil || field.Type() != "identifier" {
		return
	}
	w.walk(object, ctx, locals)
	if owner := w.qualifier(object, ctx, locals); owner != nil {
		w.fieldUsage(ctx, owner, field.Content(w.content), node)
	}
}

func (w *javaWalker) invocation(node *sitter.Node, ctx []*javaClass, locals localVars) {
	object := node.ChildByFieldName("object")
	name := node.ChildByFieldName("name")
	args := node.ChildByFieldName("arguments")

	var owner *javaClass
	if object == nil {
		if name != nil {
			owner = methodOwner(ctx, name.Content(w.content))
		}
	} else {
		w.walk(object, ctx, locals)
		owner = w.qualifier(object, ctx, locals)
	}

	if owner != nil && name != nil {
		argc := 0
		if args != nil {
			argc = int(args.NamedChildCount())
		}
		w.methodUsage(ctx, owner, name.Content(w.content), argc, node)
	}
	w.walk(args, ctx, locals)
}

func (w *javaWalker) methodUsage(ctx []*javaClass, owner *javaClass, name string, argc int, node *sitter.Node) {
	overloads := owner.methods[name]
	if len(overloads) == 0 {
		return
	}
	method := overloads[0]
	for _, candidate := range overloads {
		if len(candidate.Params) == argc {
			method = candidate
			break
		}
	}
	w.record(ctx, parser.Usage{
		Kind:    parser.UsageMethodCall,
		Owner:   owner.decl.QualifiedName,
		Target:  name,
		Private: method.Modifiers.Has("private"),
		Static:  method.Modifiers.Has("static"),
		Params:  method.Params,
		Return:  method.Return,
		Line:    lineOf(node),
	})
}

// qualifier resolves the object of a member access to a class of this file
// when it is this, Outer.this, a class name, or a local, parameter or field
// whose declared type is such a class.
func (w *javaWalker) qualifier(object *sitter.Node, ctx []*javaClass, locals localVars) *javaClass {
	if object == nil {
		return nil
	}
	switch object.Type() {
	case "this":
		return ctx[0]
	case "parenthesized_expression":
		return w.qualifier(firstNamed(object), ctx, locals)
	case "cast_expression":
		return w.classOf(w.typeRef(object.ChildByFieldName("type"), ctx[0].scope))
	case "field_access":
		field := object.ChildByFieldName("field")
		if field == nil {
			return nil
		}
		if field.Type() == "this" {
			return w.classNamed(object.ChildByFieldName("object"), ctx)
		}
		owner := w.qualifier(object.ChildByFieldName("object"), ctx, locals)
		if owner == nil {
			return nil
		}
		if f, ok := owner.fields[field.Content(w.content)]; ok {
			return w.classOf(f.Type)
		}
	case "identifier":
		name := object.Content(w.content)
		if t, ok := locals[name]; ok {
			return w.classOf(t)
		}
		if owner := fieldOwner(ctx, name); owner != nil {
			return w.classOf(owner.fields[name].Type)
		}
		return w.classNamed(object, ctx)
	case "scoped_identifier":
		return w.classNamed(object, ctx)
	}
	return nil
}

// classOf returns the class of this file a declared type names, if any.
func (w *javaWalker) classOf(t parser.TypeRef) *javaClass {
	if t.Binary == "" || t.Dims > 0 || t.IsPrimitive() {
		return nil
	}
	return w.classes[t.Binary]
}

func (w *javaWalker) classNamed(node *sitter.Node, ctx []*javaClass) *javaClass {
	if node == nil {
		return nil
	}
	binary, erased := w.res.resolveName(compactTypeName(node.Content(w.content)), ctx[0].scope)
	if erased {
		return nil
	}
	return w.classes[binary]
}

func (w *javaWalker) creation(node *sitter.Node, ctx []*javaClass, locals localVars) {
	typeNode := node.ChildByFieldName("type")
	ref := w.typeRef(typeNode, ctx[0].scope)
	if _, ok := w.classes[ref.Binary]; ok && ref.Binary != "" {
		w.record(ctx, parser.Usage{
			Kind:   parser.UsageClassInstantiation,
			Target: dottedBinary(ref.Binary),
			Line:   lineOf(node),
		})
	}
	for _, child := range namedChildren(node) {
		switch {
		case child.Type() == "class_body":
			w.anonymous(child, ref, ctx, locals)
		case !sameNode(child, typeNode):
			w.walk(child, ctx, locals)
		}
	}
}

// anonymous declares an anonymous class body. Like javac, anonymous classes
// are numbered per enclosing class from 1.
func (w *javaWalker) anonymous(body *sitter.Node, super parser.TypeRef, ctx []*javaClass, locals localVars) {
	enclosing := ctx[0]
	enclosing.anon++
	name := fmt.Sprintf("%d", enclosing.anon)
	cls := w.declare(body, enclosing, enclosing.scope, enclosing.binary+"$"+name, name, declAnonymous)
	if super.Raw != "" {
		cls.decl.Extends = []parser.TypeRef{super}
	}
	enclosing.decl.Classes = append(enclosing.decl.Classes, cls.decl)
	w.walkClass(cls, ctx, locals)
}

// localClass declares a class inside a method body, named Outer$<n><Name>.
func (w *javaWalker) localClass(node *sitter.Node, ctx []*javaClass, locals localVars) {
	name := javaTypeName(node, w.content)
	if name == "" {
		return
	}
	enclosing := ctx[0]
	enclosing.locals[name]++
	binary := fmt.Sprintf("%s$%d%s", enclosing.binary, enclosing.locals[name], name)
	enclosing.scope.types[name] = binary
	cls := w.declare(node, enclosing, enclosing.scope, binary, name, declLocal)
	enclosing.decl.Classes = append(enclosing.decl.Classes, cls.decl)
	w.walkClass(cls, ctx, locals)
}
