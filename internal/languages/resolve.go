package languages

import (
	"strings"
	"unicode"

	"github.com/morozRed/serialid/internal/parser"
)

// typeTable maps well-known simple names to binary names, per package. It is
// built once per parser and only read afterwards.
type typeTable struct {
	implicit  map[string]string            // simple name -> binary, always visible
	byPackage map[string]map[string]string // dotted package -> simple -> binary
}

func newJavaTypeTable() *typeTable {
	packages := map[string][]string{
		"java.lang": {
			"AutoCloseable", "Boolean", "Byte", "CharSequence", "Character", "Class",
			"Cloneable", "Comparable", "Deprecated", "Double", "Enum", "Error",
			"Exception", "Float", "FunctionalInterface", "IllegalArgumentException",
			"IllegalStateException", "Integer", "Iterable", "Long", "Math", "Number",
			"Object", "Override", "Record", "Runnable", "RuntimeException", "Short",
			"String", "StringBuffer", "StringBuilder", "SuppressWarnings", "System",
			"Thread", "Throwable", "UnsupportedOperationException", "Void",
		},
		"java.io": {
			"Closeable", "Externalizable", "File", "IOException", "InputStream",
			"ObjectInput", "ObjectInputStream", "ObjectOutput", "ObjectOutputStream",
			"ObjectStreamException", "OutputStream", "Reader", "Serial", "Serializable",
			"Writer",
		},
		"java.util": {
			"ArrayDeque", "ArrayList", "Arrays", "BitSet", "Calendar", "Collection",
			"Collections", "Date", "Deque", "EnumMap", "EnumSet", "EventObject",
			"HashMap", "HashSet", "Iterator", "LinkedHashMap", "LinkedHashSet",
			"LinkedList", "List", "Locale", "Map", "NavigableMap", "Objects",
			"Optional", "Properties", "Queue", "Set", "SortedMap", "SortedSet",
			"TreeMap", "TreeSet", "UUID", "Vector",
		},
		"java.util.concurrent": {
			"Callable", "ConcurrentHashMap", "ConcurrentMap", "CopyOnWriteArrayList",
			"ExecutorService", "Future", "TimeUnit",
		},
		"java.util.concurrent.atomic": {
			"AtomicBoolean", "AtomicInteger", "AtomicLong", "AtomicReference",
		},
		"java.util.function": {
			"BiFunction", "Consumer", "Function", "Predicate", "Supplier",
		},
		"java.math": {"BigDecimal", "BigInteger"},
		"java.net":  {"URI", "URL"},
		"java.time": {
			"Duration", "Instant", "LocalDate", "LocalDateTime", "LocalTime",
			"OffsetDateTime", "Period", "ZoneId", "ZonedDateTime",
		},
	}

	t := &typeTable{
		implicit:  make(map[string]string),
		byPackage: make(map[string]map[string]string, len(packages)),
	}
	for pkg, names := range packages {
		entries := make(map[string]string, len(names))
		for _, name := range names {
			entries[name] = strings.ReplaceAll(pkg, ".", "/") + "/" + name
		}
		t.byPackage[pkg] = entries
	}
	for name, binary := range t.byPackage["java.lang"] {
		t.implicit[name] = binary
	}
	return t
}

func newKotlinTypeTable() *typeTable {
	t := newJavaTypeTable()
	aliases := map[string]string{
		"Any":                      "java/lang/Object",
		"Serializable":             "java/io/Serializable",
		"Exception":                "java/lang/Exception",
		"RuntimeException":         "java/lang/RuntimeException",
		"Error":                    "java/lang/Error",
		"Throwable":                "java/lang/Throwable",
		"IllegalArgumentException": "java/lang/IllegalArgumentException",
		"IllegalStateException":    "java/lang/IllegalStateException",
		"Number":                   "java/lang/Number",
		"ArrayList":                "java/util/ArrayList",
		"HashMap":                  "java/util/HashMap",
		"HashSet":                  "java/util/HashSet",
		"LinkedHashMap":            "java/util/LinkedHashMap",
		"LinkedHashSet":            "java/util/LinkedHashSet",
	}
	t.implicit = aliases
	t.byPackage["kotlin.io"] = map[string]string{"Serializable": "java/io/Serializable"}
	return t
}

// scope is one level of lexical type visibility: the member classes and
// type parameters of a class, or the top-level classes of a file.
type scope struct {
	parent     *scope
	types      map[string]string // simple name -> binary
	typeParams map[string]bool
}

func newScope(parent *scope) *scope {
	return &scope{
		parent:     parent,
		types:      make(map[string]string),
		typeParams: make(map[string]bool),
	}
}

func (s *scope) lookup(name string) (binary string, typeParam bool, ok bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.typeParams[name] {
			return "", true, true
		}
		if binary, ok := cur.types[name]; ok {
			return binary, false, true
		}
	}
	return "", false, false
}

// resolver turns source type names into binary names using what one file
// can see: its package, imports, lexical scopes and the type table.
type resolver struct {
	pkg      string            // dotted
	imports  map[string]string // simple -> binary
	onDemand []string          // dotted packages
	table    *typeTable
}

func newResolver(table *typeTable) *resolver {
	return &resolver{
		imports: make(map[string]string),
		table:   table,
	}
}

func (r *resolver) addImport(path string, wildcard bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return
	}
	if wildcard {
		r.onDemand = append(r.onDemand, path)
		return
	}
	binary := binaryFromQualified(path)
	simple := path
	if idx := strings.LastIndex(path, "."); idx != -1 {
		simple = path[idx+1:]
	}
	r.imports[simple] = binary
}

// resolveName resolves a possibly dotted type name such as "Map.Entry" or
// "java.util.List". Unknown simple names are assumed to live in the file's
// package.
func (r *resolver) resolveName(name string, sc *scope) (binary string, erased bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", true
	}
	segments := strings.Split(name, ".")
	head := segments[0]

	if binary, ok := r.resolveSimple(head, sc); ok {
		if binary == "" {
			return "", true
		}
		for _, seg := range segments[1:] {
			binary += "$" + seg
		}
		return binary, false
	}

	if len(segments) > 1 {
		return binaryFromQualified(name), false
	}
	if r.pkg == "" {
		return head, false
	}
	return strings.ReplaceAll(r.pkg, ".", "/") + "/" + head, false
}

// resolveSimple looks a simple name up; an empty binary with ok means a
// type parameter.
func (r *resolver) resolveSimple(name string, sc *scope) (string, bool) {
	if sc != nil {
		if binary, typeParam, ok := sc.lookup(name); ok {
			if typeParam {
				return "", true
			}
			return binary, true
		}
	}
	if binary, ok := r.imports[name]; ok {
		return binary, true
	}
	if binary, ok := r.table.implicit[name]; ok {
		return binary, true
	}
	for _, pkg := range r.onDemand {
		if entries, ok := r.table.byPackage[pkg]; ok {
			if binary, ok := entries[name]; ok {
				return binary, true
			}
		}
	}
	return "", false
}

// binaryFromQualified converts "a.b.Outer.Inner" into "a/b/Outer$Inner",
// treating the first capitalized segment as the top-level class.
func binaryFromQualified(name string) string {
	segments := strings.Split(name, ".")
	classStart := len(segments) - 1
	for i, seg := range segments {
		if seg != "" && unicode.IsUpper([]rune(seg)[0]) {
			classStart = i
			break
		}
	}
	pkg := strings.Join(segments[:classStart], "/")
	class := strings.Join(segments[classStart:], "$")
	if pkg == "" {
		return class
	}
	return pkg + "/" + class
}

// primitiveType returns a primitive TypeRef.
func primitiveType(name string, dims int) parser.TypeRef {
	return parser.TypeRef{Primitive: name, Dims: dims, Raw: name}
}
