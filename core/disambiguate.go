package core

import (
	"fmt"
	"path/filepath"
	"strings"
)

// disambiguateName finds the smallest nonneg integer suffix (spec.md
// §4.3.g) that yields a final path component for which exists returns
// false, starting at DisambiguationCounterStart (see SPEC_FULL.md's
// resolution of the corresponding open question). exists is consulted
// for the bare candidate first, matching Windows Explorer's
// convention of leaving the first occurrence of a name unsuffixed.
func disambiguateName(candidate string, exists func(name string) bool) string {
	if !exists(candidate) {
		return candidate
	}

	ext := filepath.Ext(candidate)
	stem := strings.TrimSuffix(candidate, ext)

	for n := DisambiguationCounterStart; n < DisambiguationCounterStart+MaxDisambiguationAttempts; n++ {
		next := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if !exists(next) {
			return next
		}
	}

	// Every attempt collided; deterministic fallback is to leave the
	// original candidate rather than loop forever.
	return candidate
}
