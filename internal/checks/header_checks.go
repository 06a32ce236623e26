package checks

import (
	"fmt"
	"sort"

	"github.com/raven-betanet/classinspect/internal/classfile"
	"github.com/raven-betanet/classinspect/internal/inspect"
)

// maxListed bounds the per-check lists of offending sources in metadata
const maxListed = 20

// DefaultChecks returns every header check configured from the given options.
func DefaultChecks(minimum classfile.MajorVersion, allowUnknown bool) []HeaderCheck {
	return []HeaderCheck{
		&MagicNumberCheck{},
		&KnownMajorVersionCheck{AllowUnknown: allowUnknown},
		&MinimumVersionCheck{Minimum: minimum},
		&ConsistentVersionCheck{},
	}
}

func newResult(c HeaderCheck) CheckResult {
	return CheckResult{
		ID:          c.ID(),
		Description: c.Description(),
		Metadata:    make(map[string]interface{}),
	}
}

func limit(sources []string) []string {
	if len(sources) > maxListed {
		return sources[:maxListed]
	}
	return sources
}

func decoded(results []inspect.Result) []inspect.Result {
	out := make([]inspect.Result, 0, len(results))
	for _, r := range results {
		if r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// MagicNumberCheck implements check 1: every file carries the class file signature
type MagicNumberCheck struct{}

func (c *MagicNumberCheck) ID() string {
	return "check-1-magic-number"
}

func (c *MagicNumberCheck) Description() string {
	return "Validates that every file starts with the 0xCAFEBABE signature"
}

func (c *MagicNumberCheck) Execute(results []inspect.Result) CheckResult {
	result := newResult(c)

	if len(results) == 0 {
		result.Status = StatusFail
		result.Details = "No class files found"
		return result
	}

	var failed []string
	for _, r := range results {
		if !r.OK() {
			failed = append(failed, fmt.Sprintf("%s: %v", r.Source, r.Err))
		}
	}

	result.Metadata["files"] = len(results)
	result.Metadata["failed_count"] = len(failed)

	if len(failed) > 0 {
		result.Status = StatusFail
		result.Details = fmt.Sprintf("%d of %d files are not valid class files", len(failed), len(results))
		result.Metadata["failures"] = limit(failed)
		return result
	}

	result.Status = StatusPass
	result.Details = fmt.Sprintf("All %d files carry a valid class file header", len(results))
	return result
}

// KnownMajorVersionCheck implements check 2: every major version is a known release
type KnownMajorVersionCheck struct {
	AllowUnknown bool
}

func (c *KnownMajorVersionCheck) ID() string {
	return "check-2-known-major-version"
}

func (c *KnownMajorVersionCheck) Description() string {
	return "Validates that every major version maps to a known runtime release"
}

func (c *KnownMajorVersionCheck) Execute(results []inspect.Result) CheckResult {
	result := newResult(c)

	if c.AllowUnknown {
		result.Status = StatusSkip
		result.Details = "Unknown major versions are allowed"
		return result
	}

	ok := decoded(results)
	if len(ok) == 0 {
		result.Status = StatusSkip
		result.Details = "No decoded headers to check"
		return result
	}

	var unknown []string
	for _, r := range ok {
		if !r.Header.Major().Known() {
			unknown = append(unknown, r.Source)
		}
	}

	if len(unknown) > 0 {
		result.Status = StatusFail
		result.Details = fmt.Sprintf("%d of %d headers have an unknown major version", len(unknown), len(ok))
		result.Metadata["unknown"] = limit(unknown)
		return result
	}

	result.Status = StatusPass
	result.Details = fmt.Sprintf("All %d headers map to known releases", len(ok))
	return result
}

// MinimumVersionCheck implements check 3: no class targets a release older than Minimum.
// A Minimum of Unknown disables the check. Headers with an unknown major
// version are not compared.
type MinimumVersionCheck struct {
	Minimum classfile.MajorVersion
}

func (c *MinimumVersionCheck) ID() string {
	return "check-3-minimum-version"
}

func (c *MinimumVersionCheck) Description() string {
	return "Validates that no class targets a release older than the configured minimum"
}

func (c *MinimumVersionCheck) Execute(results []inspect.Result) CheckResult {
	result := newResult(c)

	if !c.Minimum.Known() {
		result.Status = StatusSkip
		result.Details = "No minimum major version configured"
		return result
	}

	ok := decoded(results)
	if len(ok) == 0 {
		result.Status = StatusSkip
		result.Details = "No decoded headers to check"
		return result
	}

	result.Metadata["minimum"] = c.Minimum.String()

	var older []string
	for _, r := range ok {
		major := r.Header.Major()
		if major.Known() && major.Raw() < c.Minimum.Raw() {
			older = append(older, fmt.Sprintf("%s (%s)", r.Source, major))
		}
	}

	if len(older) > 0 {
		result.Status = StatusFail
		result.Details = fmt.Sprintf("%d headers target a release older than %s", len(older), c.Minimum)
		result.Metadata["older"] = limit(older)
		return result
	}

	result.Status = StatusPass
	result.Details = fmt.Sprintf("All headers target %s or newer", c.Minimum)
	return result
}

// ConsistentVersionCheck implements check 4: all decoded headers share one major version
type ConsistentVersionCheck struct{}

func (c *ConsistentVersionCheck) ID() string {
	return "check-4-consistent-version"
}

func (c *ConsistentVersionCheck) Description() string {
	return "Validates that all classes were compiled for the same release"
}

func (c *ConsistentVersionCheck) Execute(results []inspect.Result) CheckResult {
	result := newResult(c)

	ok := decoded(results)
	if len(ok) == 0 {
		result.Status = StatusSkip
		result.Details = "No decoded headers to check"
		return result
	}

	seen := make(map[string]int)
	for _, r := range ok {
		seen[releaseLabel(r.Header)]++
	}

	releases := make([]string, 0, len(seen))
	for label := range seen {
		releases = append(releases, label)
	}
	sort.Strings(releases)
	result.Metadata["releases"] = seen

	if len(releases) > 1 {
		result.Status = StatusFail
		result.Details = fmt.Sprintf("Classes target %d different releases: %v", len(releases), releases)
		return result
	}

	result.Status = StatusPass
	result.Details = fmt.Sprintf("All %d classes target %s", len(ok), releases[0])
	return result
}

// releaseLabel names the release of h, qualifying unknown versions with
// their raw value so that distinct unknown majors are not merged.
func releaseLabel(h classfile.Header) string {
	if h.Major().Known() {
		return h.Major().String()
	}
	return fmt.Sprintf("%s (0x%02X)", h.Major(), h.RawMajor())
}
