package catalog

import "fmt"

// ActionKind names a bulk action that can be triggered on selected products.
type ActionKind string

const (
	ActionEditProducts   ActionKind = "EDIT_PRODUCTS"
	ActionAddTags        ActionKind = "ADD_TAGS"
	ActionRemoveTags     ActionKind = "REMOVE_TAGS"
	ActionDeleteProducts ActionKind = "DELETE_PRODUCTS"
)

var actionKinds = []ActionKind{ActionEditProducts, ActionAddTags, ActionRemoveTags, ActionDeleteProducts}

func (k ActionKind) Valid() bool {
	for _, known := range actionKinds {
		if k == known {
			return true
		}
	}
	return false
}

func ParseActionKind(s string) (ActionKind, error) {
	kind := ActionKind(s)
	if !kind.Valid() {
		return "", fmt.Errorf("unknown bulk action %q", s)
	}
	return kind, nil
}
