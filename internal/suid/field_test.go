package suid

import (
	"testing"

	"github.com/morozRed/serialid/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "1L", want: 1},
		{in: "42l", want: 42},
		{in: "-9130217029653031524L", want: -9130217029653031524},
		{in: " ( -7L ) ", want: -7},
		{in: "1_000_000L", want: 1000000},
		{in: "0x7fffffffffffffffL", want: 9223372036854775807},
		{in: "0xFFFFFFFFFFFFFFFFL", want: -1},
		{in: "-9223372036854775808L", want: -9223372036854775808},
		{in: "9223372036854775808L", wantErr: true},
		{in: "", wantErr: true},
		{in: "compute()", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseLiteral(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestCurrentFieldState(t *testing.T) {
	const id = int64(-3209917606085093536)

	java := &parser.ClassDecl{Language: "java"}
	assert.Equal(t, Absent, CurrentFieldState(java, id))
	assert.Equal(t, Absent, CurrentFieldState(nil, id))

	java.IDField = &parser.IDField{Name: FieldName}
	assert.Equal(t, PresentNoID, CurrentFieldState(java, id))

	java.IDField.Literal = "-3209917606085093536L"
	assert.Equal(t, PresentConsistent, CurrentFieldState(java, id))

	java.IDField.Literal = "1L"
	assert.Equal(t, PresentInconsistent, CurrentFieldState(java, id))

	java.IDField.Literal = "someConstant"
	assert.Equal(t, PresentInconsistent, CurrentFieldState(java, id))

	kotlin := &parser.ClassDecl{Language: "kotlin"}
	assert.Equal(t, Absent, CurrentFieldState(kotlin, id))
	kotlin.Companion = &parser.ClassDecl{Language: "kotlin", Kind: parser.KindObject}
	assert.Equal(t, PresentNoID, CurrentFieldState(kotlin, id))
}

func TestFieldStateText(t *testing.T) {
	text, err := PresentInconsistent.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "inconsistent", string(text))
	assert.Equal(t, "present-no-id", PresentNoID.String())

	var back FieldState
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, PresentInconsistent, back)
	assert.Error(t, back.UnmarshalText([]byte("stale")))
}

func TestPadSmallID(t *testing.T) {
	tests := []struct {
		in, want int64
	}{
		{in: 0, want: 90000000},
		{in: 42, want: 90000042},
		{in: -42, want: -90000042},
		{in: 1234567, want: 91234567},
		{in: 12345678, want: 912345678},
		{in: -12345678, want: -912345678},
		{in: 123456789, want: 123456789},
		{in: -3209917606085093536, want: -3209917606085093536},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PadSmallID(tt.in), "input %d", tt.in)
	}
}
