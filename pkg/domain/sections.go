package domain

import (
	"encoding/json"
	"slices"
)

// SectionSet is the set of wizard sections an applicant has completed.
// It only grows; members are non-negative section indexes.
type SectionSet map[int]struct{}

// NewSectionSet builds a set from a possibly duplicated list.
func NewSectionSet(sections ...int) SectionSet {
	s := make(SectionSet, len(sections))
	for _, sec := range sections {
		if sec >= 0 {
			s[sec] = struct{}{}
		}
	}
	return s
}

func (s SectionSet) Has(section int) bool {
	_, ok := s[section]
	return ok
}

// Add inserts section and reports whether it was new.
func (s SectionSet) Add(section int) bool {
	if section < 0 || s.Has(section) {
		return false
	}
	s[section] = struct{}{}
	return true
}

// Sorted returns the members in ascending order.
func (s SectionSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for sec := range s {
		out = append(out, sec)
	}
	slices.Sort(out)
	return out
}

// Clone returns an independent copy.
func (s SectionSet) Clone() SectionSet {
	out := make(SectionSet, len(s))
	for sec := range s {
		out[sec] = struct{}{}
	}
	return out
}

func (s SectionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *SectionSet) UnmarshalJSON(b []byte) error {
	var list []int
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*s = NewSectionSet(list...)
	return nil
}
