package suid

import (
	"strings"

	"github.com/morozRed/serialid/internal/parser"
)

// Modifier is the access-flag bitmask written into the digest stream.
type Modifier uint32

const (
	Public       Modifier = 0x0001
	Private      Modifier = 0x0002
	Protected    Modifier = 0x0004
	Static       Modifier = 0x0008
	Final        Modifier = 0x0010
	Synchronized Modifier = 0x0020
	Volatile     Modifier = 0x0040
	Transient    Modifier = 0x0080
	Native       Modifier = 0x0100
	Interface    Modifier = 0x0200
	Abstract     Modifier = 0x0400
	Strict       Modifier = 0x0800
)

var modifierNames = []struct {
	bit  Modifier
	name string
}{
	{Public, "public"},
	{Private, "private"},
	{Protected, "protected"},
	{Static, "static"},
	{Final, "final"},
	{Synchronized, "synchronized"},
	{Volatile, "volatile"},
	{Transient, "transient"},
	{Native, "native"},
	{Interface, "interface"},
	{Abstract, "abstract"},
	{Strict, "strictfp"},
}

// Has reports whether every bit of other is set.
func (m Modifier) Has(other Modifier) bool {
	return m&other == other
}

func (m Modifier) String() string {
	if m == 0 {
		return "package"
	}
	parts := make([]string, 0, 4)
	for _, entry := range modifierNames {
		if m.Has(entry.bit) {
			parts = append(parts, entry.name)
		}
	}
	return strings.Join(parts, " ")
}

// Policy captures how a language fills in modifiers that are absent from
// the source.
type Policy struct {
	// DefaultPublic sets PUBLIC when no visibility keyword is present.
	DefaultPublic bool
	// DefaultFinal sets FINAL unless the declaration is open, abstract or
	// sealed.
	DefaultFinal bool
}

var (
	// JavaPolicy leaves missing visibility as package access.
	JavaPolicy = Policy{}
	// KotlinPolicy treats declarations as public and final unless told otherwise.
	KotlinPolicy = Policy{DefaultPublic: true, DefaultFinal: true}
)

// Bitmask encodes a modifier set. At most one visibility bit is set; the
// first of public, private, protected wins and "internal" maps to package
// access.
func Bitmask(mods parser.Modifiers, policy Policy) Modifier {
	var m Modifier

	switch {
	case mods.Has("public"):
		m |= Public
	case mods.Has("private"):
		m |= Private
	case mods.Has("protected"):
		m |= Protected
	case mods.Has("internal"):
	default:
		if policy.DefaultPublic {
			m |= Public
		}
	}

	if mods.Has("static") {
		m |= Static
	}
	if mods.Has("final") {
		m |= Final
	}
	if mods.Has("synchronized") {
		m |= Synchronized
	}
	if mods.Has("volatile") {
		m |= Volatile
	}
	if mods.Has("transient") {
		m |= Transient
	}
	if mods.Has("native") {
		m |= Native
	}
	if mods.Has("abstract") {
		m |= Abstract
	}
	if mods.Has("strictfp") {
		m |= Strict
	}

	if policy.DefaultFinal && !mods.Has("open") && !mods.Has("abstract") && !mods.Has("sealed") {
		m |= Final
	}

	return m
}

// IsPrivate reports whether the set declares private visibility.
func IsPrivate(mods parser.Modifiers) bool {
	return mods.Has("private")
}
