package journey

import "slices"

// SelectionSet is the insertion-ordered set of chosen recipe ids.
type SelectionSet struct {
	ids []string
}

// NewSelectionSet returns a set holding ids, ignoring duplicates.
func NewSelectionSet(ids ...string) SelectionSet {
	var s SelectionSet
	for _, id := range ids {
		if !s.Contains(id) {
			s.ids = append(s.ids, id)
		}
	}
	return s
}

// Toggle inserts id when absent and removes it when present. It reports
// whether id is selected afterwards.
func (s *SelectionSet) Toggle(id string) bool {
	if idx := slices.Index(s.ids, id); idx >= 0 {
		s.ids = slices.Delete(s.ids, idx, idx+1)
		return false
	}
	s.ids = append(s.ids, id)
	return true
}

// Contains reports whether id is selected.
func (s SelectionSet) Contains(id string) bool {
	return slices.Contains(s.ids, id)
}

// Len is the number of selected ids.
func (s SelectionSet) Len() int { return len(s.ids) }

// IDs returns a copy of the selected ids in selection order.
func (s SelectionSet) IDs() []string { return slices.Clone(s.ids) }

// Clear empties the set.
func (s *SelectionSet) Clear() { s.ids = nil }

// Retain drops every id for which keep returns false.
func (s *SelectionSet) Retain(keep func(id string) bool) {
	s.ids = slices.DeleteFunc(s.ids, func(id string) bool { return !keep(id) })
}

// Equal reports whether both sets hold the same ids, ignoring order.
func (s SelectionSet) Equal(other SelectionSet) bool {
	if len(s.ids) != len(other.ids) {
		return false
	}
	for _, id := range s.ids {
		if !other.Contains(id) {
			return false
		}
	}
	return true
}

func (s SelectionSet) clone() SelectionSet {
	return SelectionSet{ids: slices.Clone(s.ids)}
}
