package fieldbind

import "sort"

// FieldSet хранит неизменяемое множество путей, всегда отсортированное по строке.
// With возвращает новое множество; исходное остаётся прежним.
type FieldSet struct {
	items []string
}

// NewFieldSet строит множество из произвольного списка (дубликаты отбрасываются).
func NewFieldSet(paths ...string) FieldSet {
	var s FieldSet
	for _, p := range paths {
		s = s.With(p)
	}
	return s
}

func (s FieldSet) With(path string) FieldSet {
	i := sort.SearchStrings(s.items, path)
	if i < len(s.items) && s.items[i] == path {
		return s
	}
	next := make([]string, 0, len(s.items)+1)
	next = append(next, s.items[:i]...)
	next = append(next, path)
	next = append(next, s.items[i:]...)
	return FieldSet{items: next}
}

func (s FieldSet) Has(path string) bool {
	i := sort.SearchStrings(s.items, path)
	return i < len(s.items) && s.items[i] == path
}

func (s FieldSet) Len() int { return len(s.items) }

// Slice возвращает копию путей в порядке возрастания.
func (s FieldSet) Slice() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}
