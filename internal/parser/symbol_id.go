package parser

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// StableClassID returns a deterministic ID for a class declaration.
// Format: file|qualified-name, or file|qualified-name|line-hash for
// anonymous and local classes whose binary names shift with edits.
func StableClassID(file string, class *ClassDecl) string {
	base := fmt.Sprintf("%s|%s", file, class.QualifiedName)
	if !class.Anonymous && !class.Local {
		return base
	}

	lineHash := sha1.Sum([]byte(fmt.Sprintf("%s:%d", class.Name, class.Line)))
	return fmt.Sprintf("%s|%s", base, hex.EncodeToString(lineHash[:4]))
}
