package inspect

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raven-betanet/classinspect/internal/classfile"
	"github.com/raven-betanet/classinspect/internal/utils"
)

func classBytes(minor, major uint16) []byte {
	return []byte{
		0xCA, 0xFE, 0xBA, 0xBE,
		byte(minor >> 8), byte(minor),
		byte(major >> 8), byte(major),
		// start of a constant pool, never read
		0x00, 0x10, 0x0A, 0x00,
	}
}

func quietLogger() *utils.Logger {
	return utils.NewLogger(utils.LoggerConfig{
		Level:  utils.LogLevelError,
		Format: utils.LogFormatText,
		Output: io.Discard,
	})
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func writeJar(t *testing.T, path string, entries map[string][]byte) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	writeFile(t, path, buf.Bytes())
}

func TestReadHeader(t *testing.T) {
	h, err := ReadHeader(bytes.NewReader(classBytes(0, 0x34)))
	require.NoError(t, err)
	assert.Equal(t, classfile.Java8, h.Major())
	assert.Equal(t, uint16(0), h.Minor())
}

func TestReadHeaderShort(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{"empty", nil},
		{"four bytes", []byte{0xCA, 0xFE, 0xBA, 0xBE}},
		{"seven bytes", []byte{0xCA, 0xFE, 0xBA, 0xBE, 0x00, 0x00, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadHeader(bytes.NewReader(tt.input))
			assert.ErrorIs(t, err, ErrShortHeader)
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestReadHeaderReadError(t *testing.T) {
	_, err := ReadHeader(failingReader{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrShortHeader)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestReadHeaderBadMagic(t *testing.T) {
	_, err := ReadHeader(bytes.NewReader([]byte{0xCA, 0xFE, 0x0B, 0x0B, 0x00, 0x79, 0xFF, 0xFF}))
	assert.ErrorIs(t, err, classfile.ErrInvalidMagicNumber)
}

func TestInspectSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Main.class")
	writeFile(t, path, classBytes(121, 0x3C))

	results, err := NewInspector(Options{}, quietLogger()).InspectPath(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, path, results[0].Source)
	require.True(t, results[0].OK())
	assert.Equal(t, classfile.Java16, results[0].Header.Major())
	assert.Equal(t, uint16(121), results[0].Header.Minor())
}

func TestInspectSingleFileFailures(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.class")
	short := filepath.Join(dir, "short.class")
	writeFile(t, bad, []byte("not a class file"))
	writeFile(t, short, []byte{0xCA, 0xFE})

	inspector := NewInspector(Options{}, quietLogger())

	results, err := inspector.InspectPath(context.Background(), bad)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, classfile.ErrInvalidMagicNumber)

	results, err = inspector.InspectPath(context.Background(), short)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, ErrShortHeader)
}

func TestInspectMissingPath(t *testing.T) {
	_, err := NewInspector(Options{}, quietLogger()).InspectPath(context.Background(), filepath.Join(t.TempDir(), "missing.class"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestInspectArchive(t *testing.T) {
	dir := t.TempDir()
	jar := filepath.Join(dir, "app.jar")
	writeJar(t, jar, map[string][]byte{
		"META-INF/MANIFEST.MF":   []byte("Manifest-Version: 1.0\n"),
		"com/example/B.class":    classBytes(0, 0x37),
		"com/example/A.class":    classBytes(0, 0x34),
		"com/example/Bad.class":  []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07},
		"com/example/readme.txt": []byte("hello"),
	})

	results, err := NewInspector(Options{}, quietLogger()).InspectPath(context.Background(), jar)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, jar+"!com/example/A.class", results[0].Source)
	assert.Equal(t, classfile.Java8, results[0].Header.Major())
	assert.Equal(t, jar+"!com/example/B.class", results[1].Source)
	assert.Equal(t, classfile.Java11, results[1].Header.Major())
	assert.Equal(t, jar+"!com/example/Bad.class", results[2].Source)
	assert.ErrorIs(t, results[2].Err, classfile.ErrInvalidMagicNumber)
}

func TestInspectArchiveDetectedBySignature(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "library.bin")
	writeJar(t, path, map[string][]byte{"X.class": classBytes(0, 0x3D)})

	results, err := NewInspector(Options{}, quietLogger()).InspectPath(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, classfile.Java17, results[0].Header.Major())
}

func TestInspectEmptyArchive(t *testing.T) {
	dir := t.TempDir()
	jar := filepath.Join(dir, "empty.jar")
	writeJar(t, jar, nil)

	data, err := os.ReadFile(jar)
	require.NoError(t, err)
	require.Equal(t, []byte{'P', 'K', 0x05, 0x06}, data[:4])

	results, err := NewInspector(Options{}, quietLogger()).InspectPath(context.Background(), jar)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestInspectLogsPerSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Bad.class")
	writeFile(t, path, []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07})

	var buf bytes.Buffer
	logger := utils.NewLogger(utils.LoggerConfig{Level: utils.LogLevelDebug, Format: utils.LogFormatText, Output: &buf})

	_, err := NewInspector(Options{}, logger).InspectPath(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "source="+path)
	assert.Contains(t, buf.String(), "Failed to decode header")
}

func TestInspectDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "A.class"), classBytes(0, 0x34))
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("ignored"))
	writeFile(t, filepath.Join(dir, "nested", "B.class"), classBytes(0, 0x37))
	writeJar(t, filepath.Join(dir, "nested", "lib.jar"), map[string][]byte{"C.class": classBytes(0, 0x3C)})

	t.Run("non recursive", func(t *testing.T) {
		results, err := NewInspector(Options{}, quietLogger()).InspectPath(context.Background(), dir)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, filepath.Join(dir, "A.class"), results[0].Source)
	})

	t.Run("recursive", func(t *testing.T) {
		results, err := NewInspector(Options{Recursive: true}, quietLogger()).InspectPath(context.Background(), dir)
		require.NoError(t, err)
		require.Len(t, results, 3)

		summary := Summarize(results)
		assert.Equal(t, 3, summary.Decoded)
		assert.Equal(t, 1, summary.Releases["Java SE 8"])
		assert.Equal(t, 1, summary.Releases["Java SE 11"])
		assert.Equal(t, 1, summary.Releases["Java SE 16"])
	})
}

func TestInspectMaxEntries(t *testing.T) {
	dir := t.TempDir()
	jar := filepath.Join(dir, "big.jar")
	entries := map[string][]byte{}
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		entries[name+".class"] = classBytes(0, 0x34)
	}
	writeJar(t, jar, entries)

	results, err := NewInspector(Options{MaxEntries: 2}, quietLogger()).InspectPath(context.Background(), jar)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestInspectCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "A.class"), classBytes(0, 0x34))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewInspector(Options{}, quietLogger()).InspectPath(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummarize(t *testing.T) {
	h8, err := classfile.Parse([classfile.HeaderSize]byte{0xCA, 0xFE, 0xBA, 0xBE, 0, 0, 0, 0x34})
	require.NoError(t, err)
	hUnknown, err := classfile.Parse([classfile.HeaderSize]byte{0xCA, 0xFE, 0xBA, 0xBE, 0, 0, 0xFF, 0xFF})
	require.NoError(t, err)

	summary := Summarize([]Result{
		{Source: "a", Header: h8},
		{Source: "b", Header: h8},
		{Source: "c", Header: hUnknown},
		{Source: "d", Err: &classfile.InvalidMagicNumberError{Found: 0}},
		{Source: "e", Err: ErrShortHeader},
	})

	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 3, summary.Decoded)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 1, summary.InvalidMagic)
	assert.Equal(t, 2, summary.Releases["Java SE 8"])
	assert.Equal(t, 1, summary.Releases["Unknown Version"])
}
