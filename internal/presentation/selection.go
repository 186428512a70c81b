package presentation

// Selection is the set of selected product ids of one view. It is local UI
// state and never persisted. IDs come back in selection order.
type Selection struct {
	order []string
	set   map[string]struct{}
}

func NewSelection() *Selection {
	return &Selection{set: make(map[string]struct{})}
}

// Toggle flips the selection of id and reports whether it is now selected.
func (s *Selection) Toggle(id string) bool {
	if s.Has(id) {
		s.remove(id)
		return false
	}
	s.set[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

func (s *Selection) Has(id string) bool {
	_, ok := s.set[id]
	return ok
}

func (s *Selection) Len() int {
	return len(s.order)
}

func (s *Selection) IDs() []string {
	return append([]string(nil), s.order...)
}

func (s *Selection) Clear() {
	s.order = nil
	s.set = make(map[string]struct{})
}

func (s *Selection) remove(id string) {
	delete(s.set, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
