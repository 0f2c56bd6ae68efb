package suid

import (
	"bytes"
	"crypto"
	_ "crypto/sha1" // registers crypto.SHA1
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf16"

	"fortio.org/safecast"
)

var (
	// ErrUnsupportedAlgorithm is returned when the digest algorithm is not
	// linked into the binary.
	ErrUnsupportedAlgorithm = errors.New("digest algorithm unavailable")
	// ErrUTFTooLong is returned when a string does not fit a 16-bit length
	// prefix once encoded.
	ErrUTFTooLong = errors.New("encoded string exceeds 65535 bytes")
)

// DefaultHash is the digest the reference algorithm specifies.
const DefaultHash = crypto.SHA1

// streamWriter mirrors java.io.DataOutputStream for the two primitives the
// algorithm needs. The first error sticks.
type streamWriter struct {
	buf bytes.Buffer
	err error
}

func (w *streamWriter) writeUTF(s string) {
	if w.err != nil {
		return
	}
	encoded := modifiedUTF8(s)
	length, err := safecast.Conv[uint16](len(encoded))
	if err != nil {
		w.err = fmt.Errorf("%w: %d bytes in %.32q", ErrUTFTooLong, len(encoded), s)
		return
	}
	w.buf.Write(binary.BigEndian.AppendUint16(nil, length))
	w.buf.Write(encoded)
}

func (w *streamWriter) writeInt(v Modifier) {
	if w.err != nil {
		return
	}
	w.buf.Write(binary.BigEndian.AppendUint32(nil, uint32(v)))
}

func (w *streamWriter) writeMember(m MemberFacts) {
	w.writeUTF(m.Name)
	w.writeInt(m.Modifiers)
	w.writeUTF(m.Descriptor)
}

// modifiedUTF8 encodes s the way DataOutput.writeUTF does: UTF-16 code
// units, NUL as two bytes, supplementary characters as surrogate pairs.
func modifiedUTF8(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 0, len(units))
	for _, c := range units {
		switch {
		case c >= 0x0001 && c <= 0x007F:
			out = append(out, byte(c))
		case c > 0x07FF:
			out = append(out,
				byte(0xE0|((c>>12)&0x0F)),
				byte(0x80|((c>>6)&0x3F)),
				byte(0x80|(c&0x3F)))
		default:
			out = append(out,
				byte(0xC0|((c>>6)&0x1F)),
				byte(0x80|(c&0x3F)))
		}
	}
	return out
}

// Serialize writes facts in the fixed order: class name, modifiers,
// supertypes, fields, static initializers, constructors, methods. Members
// must already be sorted.
func Serialize(facts ClassFacts) ([]byte, error) {
	w := &streamWriter{}

	w.writeUTF(facts.QualifiedName)
	w.writeInt(facts.Modifiers)
	for _, name := range facts.SupertypeNames {
		w.writeUTF(name)
	}
	for _, field := range facts.Fields {
		w.writeMember(field)
	}
	for i := 0; i < facts.StaticInitializers; i++ {
		w.writeMember(MemberFacts{Name: staticInitializerName, Modifiers: Static, Descriptor: initializerDescriptor})
	}
	for _, ctor := range facts.Constructors {
		w.writeMember(ctor)
	}
	for _, method := range facts.Methods {
		w.writeMember(method)
	}

	if w.err != nil {
		return nil, w.err
	}
	return w.buf.Bytes(), nil
}

// Reduce folds the first eight digest bytes into an int64, byte 7 most
// significant.
func Reduce(digest []byte) int64 {
	var id uint64
	for i := min(len(digest), 8) - 1; i >= 0; i-- {
		id = id<<8 | uint64(digest[i])
	}
	return int64(id)
}

// Digest serializes facts and reduces the hash of the stream.
func Digest(facts ClassFacts, algorithm crypto.Hash) (int64, error) {
	if !algorithm.Available() {
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedAlgorithm, algorithm)
	}
	stream, err := Serialize(facts)
	if err != nil {
		return 0, err
	}
	h := algorithm.New()
	h.Write(stream)
	return Reduce(h.Sum(nil)), nil
}
