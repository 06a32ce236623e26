// Package inspect locates class files on disk, inside directories and inside
// jar archives, and decodes their headers.
package inspect

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/raven-betanet/classinspect/internal/classfile"
	"github.com/raven-betanet/classinspect/internal/utils"
)

// ErrShortHeader is returned when a file ends before the 8 header bytes.
var ErrShortHeader = errors.New("file too short to contain a class header")

// Zip archives start with a local file header, or with the end of central
// directory record when they hold no entries.
var zipSignatures = [][]byte{
	{'P', 'K', 0x03, 0x04},
	{'P', 'K', 0x05, 0x06},
}

var archiveExtensions = map[string]bool{
	".jar": true,
	".war": true,
	".ear": true,
	".zip": true,
}

// ReadHeader reads exactly classfile.HeaderSize bytes from r and decodes them.
func ReadHeader(r io.Reader) (classfile.Header, error) {
	var buf [classfile.HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return classfile.Header{}, ErrShortHeader
		}
		return classfile.Header{}, fmt.Errorf("failed to read header: %w", err)
	}
	return classfile.Parse(buf)
}

// Options controls how paths are scanned.
type Options struct {
	// Recursive descends into subdirectories when the root is a directory.
	Recursive bool
	// MaxEntries caps the number of results per InspectPath call; 0 is unlimited.
	MaxEntries int
}

// Result is the outcome of decoding one class file.
type Result struct {
	// Source is the file path, or "archive!entry" for archive members.
	Source string
	Header classfile.Header
	Err    error
}

// OK reports whether the header was decoded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Inspector decodes class file headers found under a path.
type Inspector struct {
	opts   Options
	logger *utils.Logger
}

// NewInspector creates an inspector. A nil logger falls back to the default logger.
func NewInspector(opts Options, logger *utils.Logger) *Inspector {
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}
	return &Inspector{opts: opts, logger: logger}
}

// InspectPath decodes every class file reachable from path. Decode failures
// of individual files are reported in Result.Err; the returned error is
// reserved for an unreadable root or a cancelled context.
func (i *Inspector) InspectPath(ctx context.Context, path string) ([]Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	c := &collector{max: i.opts.MaxEntries}

	if info.IsDir() {
		err = i.inspectDir(ctx, path, c)
	} else {
		err = i.inspectFile(ctx, path, c)
	}
	if err != nil && !errors.Is(err, errLimitReached) {
		return c.results, err
	}
	if errors.Is(err, errLimitReached) {
		i.logger.WithComponent("inspect").Warnf("Stopped after %d entries (max_entries)", c.max)
	}

	i.logger.WithComponent("inspect").Debugf("Inspected %d class files under %s", len(c.results), path)
	return c.results, nil
}

var errLimitReached = errors.New("entry limit reached")

type collector struct {
	results []Result
	max     int
}

func (c *collector) add(r Result) error {
	c.results = append(c.results, r)
	if c.max > 0 && len(c.results) >= c.max {
		return errLimitReached
	}
	return nil
}

func (i *Inspector) inspectDir(ctx context.Context, root string, c *collector) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			i.logger.WithComponent("inspect").Warnf("Skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			if path != root && !i.opts.Recursive {
				return fs.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".class" && !archiveExtensions[ext] {
			return nil
		}
		return i.inspectFile(ctx, path, c)
	})
}

func (i *Inspector) inspectFile(ctx context.Context, path string, c *collector) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return c.add(Result{Source: path, Err: fmt.Errorf("failed to open file: %w", err)})
	}
	defer file.Close()

	archive, err := isArchive(file)
	if err != nil {
		return c.add(Result{Source: path, Err: fmt.Errorf("failed to read file: %w", err)})
	}
	if archive {
		return i.inspectArchive(ctx, path, file, c)
	}

	h, err := ReadHeader(file)
	return c.add(i.decoded(path, h, err))
}

func isArchive(file *os.File) (bool, error) {
	sig := make([]byte, 4)
	n, err := file.ReadAt(sig, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	if n < len(sig) {
		return false, nil
	}
	for _, want := range zipSignatures {
		if bytes.Equal(sig, want) {
			return true, nil
		}
	}
	return false, nil
}

func (i *Inspector) inspectArchive(ctx context.Context, path string, file *os.File, c *collector) error {
	info, err := file.Stat()
	if err != nil {
		return c.add(Result{Source: path, Err: fmt.Errorf("failed to stat archive: %w", err)})
	}

	zr, err := zip.NewReader(file, info.Size())
	if err != nil {
		return c.add(Result{Source: path, Err: fmt.Errorf("failed to open archive: %w", err)})
	}

	entries := make([]*zip.File, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(strings.ToLower(f.Name), ".class") {
			continue
		}
		entries = append(entries, f)
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].Name < entries[b].Name })

	i.logger.WithComponent("inspect").Debugf("Archive %s contains %d class entries", path, len(entries))

	for _, f := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.add(i.readArchiveEntry(path, f)); err != nil {
			return err
		}
	}
	return nil
}

func (i *Inspector) readArchiveEntry(archivePath string, f *zip.File) Result {
	source := archivePath + "!" + f.Name

	rc, err := f.Open()
	if err != nil {
		return Result{Source: source, Err: fmt.Errorf("failed to open entry: %w", err)}
	}
	defer rc.Close()

	h, err := ReadHeader(rc)
	return i.decoded(source, h, err)
}

func (i *Inspector) decoded(source string, h classfile.Header, err error) Result {
	if err != nil {
		i.logger.WithSource("inspect", source).Debugf("Failed to decode header: %v", err)
	} else {
		i.logger.WithSource("inspect", source).Debugf("Decoded %s, minor %d", h.Major(), h.Minor())
	}
	return Result{Source: source, Header: h, Err: err}
}
