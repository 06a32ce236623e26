package classfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveMajorVersionKnown(t *testing.T) {
	known := KnownMajorVersions()
	require.Len(t, known, 19)

	for i, raw := 0, uint16(0x2D); raw <= 0x3F; i, raw = i+1, raw+1 {
		v := ResolveMajorVersion(raw)
		assert.True(t, v.Known(), "raw %#x", raw)
		assert.Equal(t, raw, v.Raw())
		assert.Equal(t, known[i], v)
	}
}

func TestResolveMajorVersionUnknown(t *testing.T) {
	for raw := 0; raw <= 0xFFFF; raw++ {
		if raw >= 0x2D && raw <= 0x3F {
			continue
		}
		v := ResolveMajorVersion(uint16(raw))
		if v != Unknown {
			t.Fatalf("ResolveMajorVersion(%#x) = %v, want Unknown", raw, v)
		}
	}
}

func TestMajorVersionString(t *testing.T) {
	tests := []struct {
		raw  uint16
		want string
	}{
		{0x2D, "Java 1.1"},
		{0x2E, "Java 1.2"},
		{0x2F, "Java 1.3"},
		{0x30, "Java 1.4"},
		{0x31, "Java SE 5.0"},
		{0x32, "Java SE 6.0"},
		{0x33, "Java SE 7"},
		{0x34, "Java SE 8"},
		{0x37, "Java SE 11"},
		{0x3C, "Java SE 16"},
		{0x3F, "Java SE 19"},
		{0x40, "Unknown Version"},
		{0x00, "Unknown Version"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveMajorVersion(tt.raw).String())
		})
	}
}

func TestMajorVersionTags(t *testing.T) {
	assert.Equal(t, "Java 1.4", Java1_4.String())
	assert.Equal(t, "Java SE 8", Java8.String())
	assert.Equal(t, Java16, ResolveMajorVersion(uint16(Java1_1)+15))
	assert.False(t, Unknown.Known())
	assert.Equal(t, uint16(0), Unknown.Raw())
}

func TestMajorVersionOutOfTableValue(t *testing.T) {
	// A MajorVersion converted directly from an untabled number still
	// behaves as Unknown.
	v := MajorVersion(0x41)
	assert.False(t, v.Known())
	assert.Equal(t, "Unknown Version", v.String())
	assert.Equal(t, uint16(0), v.Raw())
}

func TestKnownMajorVersionsIsACopy(t *testing.T) {
	first := KnownMajorVersions()
	first[0] = Unknown

	second := KnownMajorVersions()
	assert.Equal(t, Java1_1, second[0])
	assert.Equal(t, Java19, second[len(second)-1])
}

func TestLookupMajorVersion(t *testing.T) {
	v, ok := LookupMajorVersion("Java SE 11")
	require.True(t, ok)
	assert.Equal(t, Java11, v)

	_, ok = LookupMajorVersion("Unknown Version")
	assert.False(t, ok)

	_, ok = LookupMajorVersion("Java SE 99")
	assert.False(t, ok)
}

func TestMajorVersionMarshalText(t *testing.T) {
	text, err := Java8.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Java SE 8", string(text))
}
