// Package expand turns compact per-node option strings into one value per node.
//
// An option is either a single value, used for every node, or a
// comma-separated list whose last element repeats for the remaining nodes:
//
//	Values("cpus", "4,2", 3)  ->  ["4", "2", "2"]
//
// Supplying more elements than nodes is a usage error. Typed helpers validate
// every supplied element in order and report the first failure by position.
package expand

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/docker/go-units"

	"github.com/h3ow3d/vbm/internal/util"
)

// Delimiter separates per-node values.
const Delimiter = ","

// split parses raw into its supplied elements without expanding them.
func split(param, raw string, n int) ([]string, error) {
	if n < 1 {
		return nil, util.Internalf("expand %s: node count %d", param, n)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, util.NewValidationError(param, raw, "a value is required")
	}
	parts := strings.Split(raw, Delimiter)
	if len(parts) > n {
		return nil, util.NewValidationError(param, raw,
			fmt.Sprintf("%d values given for %d nodes", len(parts), n))
	}
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, &util.ValidationError{Param: param, Value: raw, Position: i + 1, Reason: "empty element"}
		}
		parts[i] = p
	}
	return parts, nil
}

// fill repeats the last supplied element until there are n values.
func fill[T any](supplied []T, n int) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = supplied[min(i, len(supplied)-1)]
	}
	return out
}

// Values expands raw into exactly n strings.
func Values(param, raw string, n int) ([]string, error) {
	parts, err := split(param, raw, n)
	if err != nil {
		return nil, err
	}
	return fill(parts, n), nil
}

// Ints expands raw into n integers, each within [lo, hi].
func Ints(param, raw string, n, lo, hi int) ([]int, error) {
	parts, err := split(param, raw, n)
	if err != nil {
		return nil, err
	}
	vals := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, &util.ValidationError{Param: param, Value: p, Position: i + 1, Reason: "not an integer"}
		}
		if v < lo || v > hi {
			return nil, &util.ValidationError{Param: param, Value: p, Position: i + 1,
				Reason: fmt.Sprintf("must be between %d and %d", lo, hi)}
		}
		vals[i] = v
	}
	return fill(vals, n), nil
}

// Sizes expands raw into n byte counts. Elements without a unit suffix are
// read in defaultUnit (e.g. "G"); suffixes are binary, so "4G" is 4 GiB.
// Every value must be at least minBytes.
func Sizes(param, raw string, n int, defaultUnit string, minBytes int64) ([]int64, error) {
	parts, err := split(param, raw, n)
	if err != nil {
		return nil, err
	}
	vals := make([]int64, len(parts))
	for i, p := range parts {
		v, err := ParseSize(p, defaultUnit)
		if err != nil {
			return nil, &util.ValidationError{Param: param, Value: p, Position: i + 1, Reason: err.Error()}
		}
		if v < minBytes {
			return nil, &util.ValidationError{Param: param, Value: p, Position: i + 1,
				Reason: fmt.Sprintf("must be at least %s", units.BytesSize(float64(minBytes)))}
		}
		vals[i] = v
	}
	return fill(vals, n), nil
}

// ParseSize parses a human size such as "512M", "4G" or "100GiB". A bare
// number is interpreted in defaultUnit.
func ParseSize(s, defaultUnit string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}
	if last := s[len(s)-1]; last >= '0' && last <= '9' {
		s += defaultUnit
	}
	v, err := units.RAMInBytes(s)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("size must be positive")
	}
	return v, nil
}

// Choices expands raw into n values, each one of allowed (case-insensitive).
// Returned values are normalized to the spelling in allowed.
func Choices(param, raw string, n int, allowed ...string) ([]string, error) {
	parts, err := split(param, raw, n)
	if err != nil {
		return nil, err
	}
	for i, p := range parts {
		match := ""
		for _, a := range allowed {
			if strings.EqualFold(p, a) {
				match = a
				break
			}
		}
		if match == "" {
			return nil, &util.ValidationError{Param: param, Value: p, Position: i + 1,
				Reason: fmt.Sprintf("must be one of %s", strings.Join(allowed, ", "))}
		}
		parts[i] = match
	}
	return fill(parts, n), nil
}
