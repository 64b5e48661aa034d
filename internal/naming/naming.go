// Package naming allocates human-readable node names.
package naming

import (
	"fmt"
	"strings"
)

// DefaultPrefix is used when no prefix is configured.
const DefaultPrefix = "node"

// Node returns the name for the 1-based ordinal k, e.g. "node3".
func Node(prefix string, k int) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return fmt.Sprintf("%s%d", prefix, k)
}

// Allocate returns count names prefix1, prefix2, ... skipping any that
// already exist. Comparison is case-insensitive. The result is deterministic
// for the same inputs.
func Allocate(prefix string, count int, existing []string) []string {
	taken := make(map[string]bool, len(existing))
	for _, name := range existing {
		taken[strings.ToLower(name)] = true
	}

	names := make([]string, 0, count)
	for k := 1; len(names) < count; k++ {
		name := Node(prefix, k)
		if taken[strings.ToLower(name)] {
			continue
		}
		taken[strings.ToLower(name)] = true
		names = append(names, name)
	}
	return names
}
