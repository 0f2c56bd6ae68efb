package languages

import (
	"context"
	"strings"

	"github.com/morozRed/serialid/internal/parser"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/kotlin"
)

// KotlinParser implements parsing for Kotlin source files. Member types are
// not resolved: members are recorded with their header text, which the
// hasher turns into placeholder descriptors.
type KotlinParser struct {
	types *typeTable
}

// NewKotlinParser creates a new Kotlin parser
func NewKotlinParser() *KotlinParser {
	return &KotlinParser{types: newKotlinTypeTable()}
}

func (k *KotlinParser) Language() string {
	return "kotlin"
}

func (k *KotlinParser) Extensions() []string {
	return []string{".kt"}
}

func (k *KotlinParser) Parse(filename string, content []byte) (*parser.FileDecls, error) {
	p := sitter.NewParser()
	p.SetLanguage(kotlin.GetLanguage())
	tree, err := p.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	w := &kotlinWalker{content: content, res: newResolver(k.types)}
	root := tree.RootNode()
	w.readHeader(root)

	result := &parser.FileDecls{
		Path:     filename,
		Language: "kotlin",
		Package:  w.res.pkg,
		Classes:  make([]*parser.ClassDecl, 0),
	}

	fileScope := newScope(nil)
	for _, child := range namedChildren(root) {
		if name := kotlinTypeName(child, content); name != "" {
			fileScope.types[name] = w.qualify(name)
		}
	}
	for _, child := range namedChildren(root) {
		name := kotlinTypeName(child, content)
		if name == "" {
			continue
		}
		result.Classes = append(result.Classes, w.declare(child, nil, fileScope, fileScope.types[name], name))
	}
	return result, nil
}

type kotlinWalker struct {
	content []byte
	res     *resolver
}

// memberContext carries what a body implies for its members.
type memberContext struct {
	inInterface bool
	inCompanion bool
}

func kotlinTypeName(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	switch node.Type() {
	case "class_declaration", "object_declaration":
	default:
		return ""
	}
	if name := childOfType(node, "type_identifier"); name != nil {
		return name.Content(content)
	}
	return ""
}

func (w *kotlinWalker) qualify(name string) string {
	if w.res.pkg == "" {
		return name
	}
	return strings.ReplaceAll(w.res.pkg, ".", "/") + "/" + name
}

func (w *kotlinWalker) readHeader(root *sitter.Node) {
	for _, child := range namedChildren(root) {
		switch child.Type() {
		case "package_header":
			if id := childOfType(child, "identifier"); id != nil {
				w.res.pkg = compactTypeName(id.Content(w.content))
			}
		case "import_list":
			for _, header := range childrenOfType(child, "import_header") {
				w.readImport(header)
			}
		case "import_header":
			w.readImport(child)
		}
	}
}

func (w *kotlinWalker) readImport(header *sitter.Node) {
	text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(header.Content(w.content)), "import"))
	text = strings.TrimSuffix(text, ";")
	path, alias := text, ""
	if idx := strings.Index(text, " as "); idx != -1 {
		path, alias = strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx+4:])
	}
	path = strings.Join(strings.Fields(path), "")
	if strings.HasSuffix(path, ".*") {
		w.res.addImport(strings.TrimSuffix(path, ".*"), true)
		return
	}
	w.res.addImport(path, false)
	if alias != "" {
		w.res.imports[alias] = binaryFromQualified(path)
	}
}

func kotlinKind(node *sitter.Node, mods parser.Modifiers) parser.DeclKind {
	switch node.Type() {
	case "object_declaration", "companion_object":
		return parser.KindObject
	}
	switch {
	case childOfType(node, "interface") != nil:
		return parser.KindInterface
	case childOfType(node, "enum") != nil, childOfType(node, "enum_class_body") != nil, mods.Has("enum"):
		return parser.KindEnum
	case mods.Has("annotation"):
		return parser.KindAnnotation
	}
	return parser.KindClass
}

func (w *kotlinWalker) declare(node *sitter.Node, outer *parser.ClassDecl, parent *scope, binary, name string) *parser.ClassDecl {
	mods := w.modifiers(node)
	kind := kotlinKind(node, mods)
	if kind == parser.KindInterface {
		mods = mods.With("abstract")
	}
	decl := &parser.ClassDecl{
		Language:      "kotlin",
		Name:          name,
		QualifiedName: dottedBinary(binary),
		Kind:          kind,
		Modifiers:     mods,
		Decl:          spanOf(node),
		Indent:        indentAt(w.content, node.StartByte()),
		Line:          lineOf(node),
	}
	if outer != nil {
		decl.Outer = outer.QualifiedName
	}

	sc := newScope(parent)
	sc.types[name] = binary
	for _, param := range childrenOfType(childOfType(node, "type_parameters"), "type_parameter") {
		if id := childOfType(param, "type_identifier"); id != nil {
			sc.typeParams[id.Content(w.content)] = true
		}
	}

	body := childOfType(node, "class_body")
	if body == nil {
		body = childOfType(node, "enum_class_body")
	}
	for _, member := range namedChildren(body) {
		if memberName := kotlinTypeName(member, w.content); memberName != "" {
			sc.types[memberName] = binary + "$" + memberName
		}
	}

	w.readSupertypes(node, decl, sc)
	if ctor := childOfType(node, "primary_constructor"); ctor != nil {
		decl.PrimaryConstructor = &parser.MethodDecl{
			Name:      "<init>",
			Modifiers: w.modifiers(ctor),
			Params:    w.classParameters(ctor),
			HasBody:   true,
			Header:    collapseSpace(ctor.Content(w.content)),
			Line:      lineOf(ctor),
		}
	}

	if body != nil {
		decl.Body = spanOf(body)
		w.readMembers(decl, body, sc, memberContext{inInterface: decl.Kind == parser.KindInterface})
	}
	return decl
}

func (w *kotlinWalker) readSupertypes(node *sitter.Node, decl *parser.ClassDecl, sc *scope) {
	specifiers := childrenOfType(node, "delegation_specifier")
	if list := childOfType(node, "delegation_specifiers"); list != nil {
		specifiers = append(specifiers, childrenOfType(list, "delegation_specifier")...)
	}
	for _, entry := range specifiers {
		raw := collapseSpace(entry.Content(w.content))
		ref := parser.TypeRef{Raw: raw}
		typeName := raw
		if idx := strings.IndexAny(typeName, "(<"); idx != -1 {
			typeName = typeName[:idx]
		}
		if binary, erased := w.res.resolveName(compactTypeName(typeName), sc); !erased {
			ref.Binary = binary
		}
		if childOfType(entry, "constructor_invocation") != nil {
			decl.Extends = append(decl.Extends, ref)
		} else {
			decl.Implements = append(decl.Implements, ref)
		}
	}
}

func (w *kotlinWalker) classParameters(ctor *sitter.Node) []parser.TypeRef {
	var params []parser.TypeRef
	list := childrenOfType(ctor, "class_parameter")
	list = append(list, childrenOfType(childOfType(ctor, "class_parameters"), "class_parameter")...)
	for _, param := range list {
		params = append(params, parser.TypeRef{Raw: w.declaredType(param)})
	}
	return params
}

// declaredType returns the text of the first type node among the children.
func (w *kotlinWalker) declaredType(node *sitter.Node) string {
	for _, c := range namedChildren(node) {
		switch c.Type() {
		case "user_type", "nullable_type", "function_type", "parenthesized_type":
			return collapseSpace(c.Content(w.content))
		}
	}
	return ""
}

func (w *kotlinWalker) readMembers(decl *parser.ClassDecl, body *sitter.Node, sc *scope, mc memberContext) {
	for _, member := range namedChildren(body) {
		switch member.Type() {
		case "property_declaration":
			w.readProperty(decl, member, mc)
		case "function_declaration":
			w.readFunction(decl, member, mc)
		case "secondary_constructor":
			block := childOfType(member, "block")
			decl.Constructors = append(decl.Constructors, parser.MethodDecl{
				Name:      "<init>",
				Modifiers: w.modifiers(member),
				HasBody:   block != nil,
				Header:    w.textBefore(member, block),
				Line:      lineOf(member),
			})
		case "anonymous_initializer":
			decl.Initializers = append(decl.Initializers, parser.InitializerDecl{
				Static: mc.inCompanion,
				Line:   lineOf(member),
			})
		case "companion_object":
			if decl.Companion != nil {
				continue
			}
			name := "Companion"
			if id := childOfType(member, "type_identifier"); id != nil {
				name = id.Content(w.content)
			}
			decl.Companion = w.companion(member, decl, sc, name)
			if decl.IDField == nil {
				decl.IDField = decl.Companion.IDField
			}
		case "class_declaration", "object_declaration":
			name := kotlinTypeName(member, w.content)
			if name == "" {
				continue
			}
			binary := strings.ReplaceAll(decl.QualifiedName, ".", "/") + "$" + name
			decl.Classes = append(decl.Classes, w.declare(member, decl, sc, binary, name))
		}
	}
}

func (w *kotlinWalker) companion(node *sitter.Node, outer *parser.ClassDecl, parent *scope, name string) *parser.ClassDecl {
	binary := strings.ReplaceAll(outer.QualifiedName, ".", "/") + "$" + name
	decl := &parser.ClassDecl{
		Language:      "kotlin",
		Name:          name,
		QualifiedName: dottedBinary(binary),
		Kind:          parser.KindObject,
		Modifiers:     w.modifiers(node).With("static"),
		Outer:         outer.QualifiedName,
		Decl:          spanOf(node),
		Indent:        indentAt(w.content, node.StartByte()),
		Line:          lineOf(node),
	}
	sc := newScope(parent)
	w.readSupertypes(node, decl, sc)
	if body := childOfType(node, "class_body"); body != nil {
		decl.Body = spanOf(body)
		w.readMembers(decl, body, sc, memberContext{inCompanion: true})
	}
	return decl
}

func (w *kotlinWalker) readProperty(decl *parser.ClassDecl, node *sitter.Node, mc memberContext) {
	variable := childOfType(node, "variable_declaration")
	if variable == nil {
		return
	}
	nameNode := childOfType(variable, "simple_identifier")
	if nameNode == nil {
		return
	}

	var initializer, cut *sitter.Node
	seenAssign := false
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch {
		case child.Type() == "=":
			seenAssign = true
			if cut == nil {
				cut = child
			}
		case seenAssign && initializer == nil && child.IsNamed():
			initializer = child
		case child.Type() == "property_delegate", child.Type() == "getter", child.Type() == "setter":
			if cut == nil {
				cut = child
			}
		}
	}

	mods := w.memberModifiers(node, mc, initializer != nil || childOfType(node, "getter") != nil)
	field := parser.FieldDecl{
		Name:           nameNode.Content(w.content),
		Modifiers:      mods,
		Type:           parser.TypeRef{Raw: w.declaredType(variable)},
		HasInitializer: initializer != nil,
		ConstantInit:   mods.Has("const"),
		Header:         w.textBefore(node, cut),
		Line:           lineOf(node),
	}
	decl.Fields = append(decl.Fields, field)

	if field.Name == idFieldName && decl.IDField == nil {
		id := &parser.IDField{Name: field.Name, Decl: spanOf(node), Line: lineOf(node)}
		if initializer != nil {
			id.Literal = initializer.Content(w.content)
		}
		decl.IDField = id
	}
}

func (w *kotlinWalker) readFunction(decl *parser.ClassDecl, node *sitter.Node, mc memberContext) {
	nameNode := childOfType(node, "simple_identifier")
	if nameNode == nil {
		return
	}
	body := childOfType(node, "function_body")
	decl.Methods = append(decl.Methods, parser.MethodDecl{
		Name:      nameNode.Content(w.content),
		Modifiers: w.memberModifiers(node, mc, body != nil),
		HasBody:   body != nil,
		Header:    w.textBefore(node, body),
		Line:      lineOf(node),
	})
}

// memberModifiers adds what the enclosing body implies: interface members
// are open (abstract without a body) and companion members are static.
func (w *kotlinWalker) memberModifiers(node *sitter.Node, mc memberContext, hasBody bool) parser.Modifiers {
	mods := w.modifiers(node)
	if mc.inInterface && !mods.Has("private") {
		mods = mods.With("open")
		if !hasBody {
			mods = mods.With("abstract")
		}
	}
	if mc.inCompanion && node.Type() == "property_declaration" {
		mods = mods.With("static")
	}
	return mods
}

// textBefore returns the collapsed text of node up to the start of cut, or
// all of it when cut is nil.
func (w *kotlinWalker) textBefore(node, cut *sitter.Node) string {
	end := node.EndByte()
	if cut != nil {
		end = cut.StartByte()
	}
	return collapseSpace(string(w.content[node.StartByte():end]))
}

// kotlinAnnotations maps JVM annotations to the modifiers they stand for.
var kotlinAnnotations = map[string]string{
	"Volatile":     "volatile",
	"Transient":    "transient",
	"JvmStatic":    "static",
	"Synchronized": "synchronized",
	"Strictfp":     "strictfp",
}

// modifiers normalizes a Kotlin modifier list into the keywords the
// bitmask understands.
func (w *kotlinWalker) modifiers(node *sitter.Node) parser.Modifiers {
	list := childOfType(node, "modifiers")
	if list == nil {
		return nil
	}
	var keywords []string
	for _, child := range namedChildren(list) {
		text := strings.TrimSpace(child.Content(w.content))
		if child.Type() == "annotation" {
			name := strings.TrimPrefix(text, "@")
			if idx := strings.IndexAny(name, "(<"); idx != -1 {
				name = name[:idx]
			}
			if idx := strings.LastIndex(name, "."); idx != -1 {
				name = name[idx+1:]
			}
			if kw, ok := kotlinAnnotations[strings.TrimSpace(name)]; ok {
				keywords = append(keywords, kw)
			}
			continue
		}
		for _, kw := range strings.Fields(text) {
			switch kw {
			case "sealed":
				keywords = append(keywords, "sealed", "abstract")
			case "override":
				keywords = append(keywords, "override", "open")
			case "const":
				keywords = append(keywords, "const", "static", "final")
			case "external":
				keywords = append(keywords, "native")
			default:
				keywords = append(keywords, kw)
			}
		}
	}
	return parser.NewModifiers(keywords...)
}
