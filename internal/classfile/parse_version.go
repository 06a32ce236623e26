package classfile

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseMajorVersion accepts either a release label ("Java SE 11") or a raw
// major_version number in decimal or 0x-prefixed hex ("55", "0x37"). Only
// known releases are accepted.
func ParseMajorVersion(s string) (MajorVersion, error) {
	s = strings.TrimSpace(s)
	if v, ok := LookupMajorVersion(s); ok {
		return v, nil
	}

	raw, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return Unknown, fmt.Errorf("unrecognized major version %q", s)
	}

	v := ResolveMajorVersion(uint16(raw))
	if !v.Known() {
		return Unknown, fmt.Errorf("major version %s is not a known release", s)
	}
	return v, nil
}
