package languages

import "github.com/morozRed/serialid/internal/parser"

// NewDefaultRegistry creates a registry with all supported language parsers
func NewDefaultRegistry() *parser.Registry {
	r := parser.NewRegistry()

	r.Register(NewJavaParser())
	r.Register(NewKotlinParser())

	return r
}
