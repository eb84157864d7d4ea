package findings

import "sort"

// Entries maps finding keys to findings. It is the content of the finding store.
type Entries map[Key]Finding

// Clone returns a shallow copy of e. Finding is a value type, so the copy is independent.
func (e Entries) Clone() Entries {
	out := make(Entries, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Keys returns the keys of e in ascending order.
func (e Entries) Keys() []Key {
	keys := make([]Key, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// ForPath returns the findings of path ordered by key.
func (e Entries) ForPath(path string) []Finding {
	var out []Finding
	for _, k := range e.Keys() {
		if f := e[k]; f.Path == path {
			out = append(out, f)
		}
	}
	return out
}
