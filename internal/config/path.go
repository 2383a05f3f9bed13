package config

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
)

// KeySeparator joins nested section names in a dotted key.
const KeySeparator = "."

// DeepMerge overlays update onto base in place. Where both sides hold a Map
// the merge recurses; otherwise the update value replaces the base value.
// Values taken from update are copied so base never aliases it. A nil Map in
// base counts as an empty section.
func DeepMerge(base, update Map) {
	for key, value := range update {
		if next, ok := value.(Map); ok {
			if existing, ok := base[key].(Map); ok && existing != nil {
				DeepMerge(existing, next)
				continue
			}
		}
		base[key] = cloneValue(value)
	}
}

// Lookup walks m along a dotted key.
func (m Map) Lookup(key string) (Value, bool) {
	var current Value = m
	for _, segment := range strings.Split(key, KeySeparator) {
		section, ok := current.(Map)
		if !ok {
			return nil, false
		}
		current, ok = section[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Assign stores value at a dotted key, creating missing sections. The whole
// path is checked before anything is written, so a failed Assign leaves m
// unchanged.
func (m Map) Assign(key string, value Value) error {
	segments, err := splitKey(key)
	if err != nil {
		return err
	}
	if m == nil {
		return oops.Errorf("set %s: nil configuration tree", key)
	}

	// find where the existing tree ends
	section := m
	depth := 0
	for ; depth < len(segments)-1; depth++ {
		next, ok := section[segments[depth]]
		if !ok {
			break
		}
		nested, ok := next.(Map)
		if ok && nested == nil {
			// replaced below like a missing section
			break
		}
		if !ok {
			return oops.Wrapf(
				fmt.Errorf("%w: %q is a %s, not a section", ErrPathTraversal,
					strings.Join(segments[:depth+1], KeySeparator), kindName(next)),
				"set %s", key)
		}
		section = nested
	}

	for ; depth < len(segments)-1; depth++ {
		nested := Map{}
		section[segments[depth]] = nested
		section = nested
	}
	section[segments[len(segments)-1]] = cloneValue(value)
	return nil
}

func splitKey(key string) ([]string, error) {
	segments := strings.Split(key, KeySeparator)
	for _, s := range segments {
		if s == "" {
			return nil, oops.Wrapf(fmt.Errorf("%w: empty segment in %q", ErrPathTraversal, key), "split key")
		}
	}
	return segments, nil
}

func kindName(v Value) string {
	switch v.(type) {
	case String:
		return "string"
	case Int:
		return "integer"
	case Float:
		return "float"
	case Bool:
		return "boolean"
	case Null:
		return "null"
	case Pair:
		return "pair"
	case List:
		return "list"
	case Map:
		return "section"
	default:
		return fmt.Sprintf("%T", v)
	}
}
