package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/raven-betanet/classinspect/internal/checks"
	"github.com/raven-betanet/classinspect/internal/classfile"
	"github.com/raven-betanet/classinspect/internal/inspect"
)

// HeaderEntry is the serializable view of one inspection result.
type HeaderEntry struct {
	Source       string  `json:"source" yaml:"source"`
	Magic        string  `json:"magic,omitempty" yaml:"magic,omitempty"`
	MajorVersion string  `json:"major_version,omitempty" yaml:"major_version,omitempty"`
	MinorVersion *uint16 `json:"minor_version,omitempty" yaml:"minor_version,omitempty"`
	Error        string  `json:"error,omitempty" yaml:"error,omitempty"`

	header classfile.Header
	ok     bool
}

// HeaderReport lists the decoded headers found under one path.
type HeaderReport struct {
	Path    string          `json:"path" yaml:"path"`
	Entries []HeaderEntry   `json:"entries" yaml:"entries"`
	Summary inspect.Summary `json:"summary" yaml:"summary"`
}

// NewHeaderReport builds a report from inspection results.
func NewHeaderReport(path string, results []inspect.Result) *HeaderReport {
	entries := make([]HeaderEntry, 0, len(results))
	for _, r := range results {
		entry := HeaderEntry{Source: r.Source, header: r.Header, ok: r.OK()}
		if r.OK() {
			entry.Magic = fmt.Sprintf("0x%X", r.Header.Magic())
			entry.MajorVersion = r.Header.Major().String()
			minor := r.Header.Minor()
			entry.MinorVersion = &minor
		} else {
			entry.Error = r.Err.Error()
		}
		entries = append(entries, entry)
	}

	return &HeaderReport{
		Path:    path,
		Entries: entries,
		Summary: inspect.Summarize(results),
	}
}

// RenderText prints each header one field per line. Sources are shown only
// when more than one entry is present.
func (r *HeaderReport) RenderText(w io.Writer) error {
	multi := len(r.Entries) > 1
	for i, e := range r.Entries {
		if multi {
			if i > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "%s:\n", e.Source); err != nil {
				return err
			}
		}

		var err error
		if e.ok {
			_, err = fmt.Fprintln(w, e.header.String())
		} else {
			_, err = fmt.Fprintf(w, "Could not parse file: %s\n", e.Error)
		}
		if err != nil {
			return err
		}
	}

	if multi {
		_, err := fmt.Fprintf(w, "\n%d files, %d decoded, %d failed\n",
			r.Summary.Total, r.Summary.Decoded, r.Summary.Failed)
		return err
	}
	return nil
}

// Headers implements TableRenderer.
func (r *HeaderReport) Headers() []string {
	return []string{"Source", "Magic", "Major Version", "Minor", "Error"}
}

// Rows implements TableRenderer.
func (r *HeaderReport) Rows() [][]string {
	rows := make([][]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		if !e.ok {
			rows = append(rows, []string{e.Source, "-", "-", "-", e.Error})
			continue
		}
		rows = append(rows, []string{e.Source, e.Magic, e.MajorVersion, strconv.Itoa(int(*e.MinorVersion)), ""})
	}
	return rows
}

// CheckReport wraps a check report for rendering.
type CheckReport struct {
	checks.CheckReport `yaml:",inline"`
}

// RenderText prints a human readable check report.
func (r CheckReport) RenderText(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Class Header Check Report\n")
	fmt.Fprintf(&b, "=========================\n\n")
	fmt.Fprintf(&b, "Source: %s\n\n", r.Source)
	fmt.Fprintf(&b, "Summary:\n")
	fmt.Fprintf(&b, "  Total checks: %d\n", r.Summary.Total)
	fmt.Fprintf(&b, "  Passed: %d\n", r.Summary.Passed)
	fmt.Fprintf(&b, "  Failed: %d\n", r.Summary.Failed)
	fmt.Fprintf(&b, "  Skipped: %d\n", r.Summary.Skipped)
	if r.Passed() {
		fmt.Fprintf(&b, "  Overall status: PASS\n\n")
	} else {
		fmt.Fprintf(&b, "  Overall status: FAIL\n\n")
	}

	fmt.Fprintf(&b, "Check Details:\n")
	fmt.Fprintf(&b, "--------------\n")
	for _, result := range r.Results {
		fmt.Fprintf(&b, "[%s] %s: %s\n", strings.ToUpper(string(result.Status)), result.ID, result.Description)
		if result.Details != "" {
			fmt.Fprintf(&b, "    Details: %s\n", result.Details)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Headers implements TableRenderer.
func (r CheckReport) Headers() []string {
	return []string{"Check", "Status", "Details"}
}

// Rows implements TableRenderer.
func (r CheckReport) Rows() [][]string {
	rows := make([][]string, 0, len(r.Results))
	for _, result := range r.Results {
		rows = append(rows, []string{result.ID, string(result.Status), result.Details})
	}
	return rows
}

// ReleaseEntry is one row of the known release table.
type ReleaseEntry struct {
	Raw   uint16 `json:"raw" yaml:"raw"`
	Hex   string `json:"hex" yaml:"hex"`
	Label string `json:"label" yaml:"label"`
}

// ReleaseTable lists the known major versions, oldest first.
type ReleaseTable []ReleaseEntry

// NewReleaseTable builds the release listing.
func NewReleaseTable() ReleaseTable {
	known := classfile.KnownMajorVersions()
	table := make(ReleaseTable, 0, len(known))
	for _, v := range known {
		table = append(table, ReleaseEntry{
			Raw:   v.Raw(),
			Hex:   fmt.Sprintf("0x%02X", v.Raw()),
			Label: v.String(),
		})
	}
	return table
}

// RenderText prints one release per line.
func (t ReleaseTable) RenderText(w io.Writer) error {
	for _, e := range t {
		if _, err := fmt.Fprintf(w, "%d (%s)  %s\n", e.Raw, e.Hex, e.Label); err != nil {
			return err
		}
	}
	return nil
}

// Headers implements TableRenderer.
func (t ReleaseTable) Headers() []string {
	return []string{"Major", "Hex", "Release"}
}

// Rows implements TableRenderer.
func (t ReleaseTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, e := range t {
		rows = append(rows, []string{strconv.Itoa(int(e.Raw)), e.Hex, e.Label})
	}
	return rows
}
