package pipeline

import "sort"

// SecretMap is an insertion-ordered set of secret values keyed by name.
type SecretMap struct {
	keys   []string
	values map[string]string
}

func NewSecretMap() *SecretMap {
	return &SecretMap{values: map[string]string{}}
}

// SecretMapFromMap builds a SecretMap from a plain map. Keys are sorted so that
// iteration stays deterministic.
func SecretMapFromMap(m map[string]string) *SecretMap {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s := NewSecretMap()
	for _, k := range keys {
		s.Set(k, m[k])
	}
	return s
}

// Set stores value under key. A key that is already present keeps its position.
func (s *SecretMap) Set(key, value string) {
	if s.values == nil {
		s.values = map[string]string{}
	}
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

func (s *SecretMap) Get(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (s *SecretMap) Keys() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

func (s *SecretMap) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Merge sets every entry of other on s, in other's order.
func (s *SecretMap) Merge(other *SecretMap) {
	for _, k := range other.Keys() {
		v, _ := other.Get(k)
		s.Set(k, v)
	}
}
