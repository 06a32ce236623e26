package inspect

import (
	"errors"

	"github.com/raven-betanet/classinspect/internal/classfile"
)

// Summary aggregates a set of results.
type Summary struct {
	Total        int            `json:"total" yaml:"total"`
	Decoded      int            `json:"decoded" yaml:"decoded"`
	Failed       int            `json:"failed" yaml:"failed"`
	InvalidMagic int            `json:"invalid_magic" yaml:"invalid_magic"`
	Releases     map[string]int `json:"releases" yaml:"releases"`
}

// Summarize counts decoded and failed results and tallies releases.
func Summarize(results []Result) Summary {
	s := Summary{
		Total:    len(results),
		Releases: make(map[string]int),
	}

	for _, r := range results {
		if !r.OK() {
			s.Failed++
			if errors.Is(r.Err, classfile.ErrInvalidMagicNumber) {
				s.InvalidMagic++
			}
			continue
		}
		s.Decoded++
		s.Releases[r.Header.Major().String()]++
	}

	return s
}
