// Package version compares dotted numeric version strings ("2.1.0").
//
// The comparison is deliberately forgiving: versions ship from build
// pipelines and occasionally arrive malformed, and a gating predicate that
// errors on "2.1.0-rc1" would turn a bad release string into a support
// incident. Missing or non-numeric components read as zero instead.
package version

import (
	"strconv"
	"strings"
)

// IsAtLeast reports whether current satisfies the minimum version. An empty
// string on either side never satisfies; a gate that asks for a minimum
// version should not open for a client that did not report one.
func IsAtLeast(current, minimum string) bool {
	if current == "" || minimum == "" {
		return false
	}
	return Compare(current, minimum) >= 0
}

// Compare returns -1, 0 or 1 ordering two dotted version strings. Components
// are compared numerically left to right over the longer of the two
// component lists, so "2.1" and "2.1.0" compare equal.
func Compare(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")

	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		av := componentAt(as, i)
		bv := componentAt(bs, i)
		if av < bv {
			return -1
		}
		if av > bv {
			return 1
		}
	}
	return 0
}

// componentAt reads one numeric component. Out-of-range indexes, parse
// failures and negative values all read as zero.
func componentAt(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
