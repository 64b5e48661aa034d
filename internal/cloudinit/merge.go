package cloudinit

import (
	"github.com/h3ow3d/vbm/internal/util"
)

// Merge folds source into target in place, key by key:
//
//   - keys only in source are copied;
//   - two lists are concatenated, source after target;
//   - two maps are merged recursively;
//   - two scalars: source wins.
//
// A list or map meeting a value of another kind is a merge conflict.
// Merge is not commutative. On error target may be partially updated.
func Merge(target, source Map) error {
	return mergeAt("", target, source)
}

func mergeAt(prefix string, target, source Map) error {
	for _, key := range source.Keys() {
		src := source[key]
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		dst, ok := target[key]
		if !ok {
			target[key] = Clone(src)
			continue
		}

		switch d := dst.(type) {
		case List:
			s, ok := src.(List)
			if !ok {
				return conflict(path, dst, src)
			}
			merged := make(List, 0, len(d)+len(s))
			merged = append(merged, d...)
			target[key] = append(merged, Clone(s).(List)...)
		case Map:
			s, ok := src.(Map)
			if !ok {
				return conflict(path, dst, src)
			}
			if err := mergeAt(path, d, s); err != nil {
				return err
			}
		case Scalar:
			if _, ok := src.(Scalar); !ok {
				return conflict(path, dst, src)
			}
			target[key] = src
		default:
			return util.Internalf("unknown tree node %T at %q", dst, path)
		}
	}
	return nil
}

// Clone returns a deep copy of v, so a merged target never aliases a source.
func Clone(v Value) Value {
	switch t := v.(type) {
	case List:
		out := make(List, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	case Map:
		out := make(Map, len(t))
		for k, e := range t {
			out[k] = Clone(e)
		}
		return out
	}
	return v
}

func conflict(path string, target, source Value) error {
	return &util.MergeConflictError{Path: path, Target: target.kind(), Source: source.kind()}
}
