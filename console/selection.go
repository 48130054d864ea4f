package console

import "slices"

// Selection is an immutable set of column names drawn from a declared column
// list. Members are always declared columns.
type Selection struct {
	declared []string
	chosen   map[string]struct{}
}

// NewSelection returns a selection over declared with the given members.
// Names that are not declared are dropped.
func NewSelection(declared []string, members ...string) Selection {
	s := Selection{
		declared: slices.Clone(declared),
		chosen:   make(map[string]struct{}, len(members)),
	}
	for _, m := range members {
		if s.isDeclared(m) {
			s.chosen[m] = struct{}{}
		}
	}
	return s
}

// SelectAll returns a selection with every declared column chosen.
func SelectAll(declared []string) Selection {
	return NewSelection(declared, declared...)
}

// Toggle returns a copy with name added or removed. Unknown names are ignored.
func (s Selection) Toggle(name string) Selection {
	if !s.isDeclared(name) {
		return s
	}
	next := Selection{declared: s.declared, chosen: make(map[string]struct{}, len(s.chosen)+1)}
	for k := range s.chosen {
		next.chosen[k] = struct{}{}
	}
	if _, ok := next.chosen[name]; ok {
		delete(next.chosen, name)
	} else {
		next.chosen[name] = struct{}{}
	}
	return next
}

// Has reports whether name is selected.
func (s Selection) Has(name string) bool {
	_, ok := s.chosen[name]
	return ok
}

// Projected returns the selected names in declared order.
func (s Selection) Projected() []string {
	out := make([]string, 0, len(s.chosen))
	for _, d := range s.declared {
		if _, ok := s.chosen[d]; ok {
			out = append(out, d)
		}
	}
	return out
}

// Declared returns the columns the selection draws from.
func (s Selection) Declared() []string {
	return slices.Clone(s.declared)
}

// Len is the number of selected columns.
func (s Selection) Len() int {
	return len(s.chosen)
}

// Empty reports whether nothing is selected. Transfers need a non-empty selection.
func (s Selection) Empty() bool {
	return len(s.chosen) == 0
}

func (s Selection) isDeclared(name string) bool {
	return slices.Contains(s.declared, name)
}
