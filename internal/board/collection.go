package board

import (
	"slices"

	"boardcore/pkg/domain"
)

// member is the constraint for collection elements: comparable board items,
// in practice pointers.
type member interface {
	comparable
	Item
}

// collection is an ordered, identity-tracked store of one item kind. Lookup
// by key is map based; iteration follows insertion order.
type collection[K comparable, T member] struct {
	entity domain.EntityType
	key    func(T) K
	items  []T
	byKey  map[K]T
}

func newCollection[K comparable, T member](entity domain.EntityType, key func(T) K) *collection[K, T] {
	return &collection[K, T]{entity: entity, key: key, byKey: make(map[K]T)}
}

func (c *collection[K, T]) contains(item T) bool {
	got, ok := c.byKey[c.key(item)]
	return ok && got == item
}

func (c *collection[K, T]) get(k K) (T, bool) {
	item, ok := c.byKey[k]
	return item, ok
}

func (c *collection[K, T]) len() int { return len(c.items) }

func (c *collection[K, T]) values() []T { return slices.Clone(c.items) }

// check validates an insertion without performing it.
func (c *collection[K, T]) check(b *Board, item T) error {
	var zero T
	op := string(c.entity) + ".add"
	switch {
	case item == zero:
		return domain.Invariant(op, "nil item")
	case item.Board() != b:
		return domain.Invariant(op, "item belongs to another board")
	case c.contains(item):
		return domain.Invariant(op, "item already added")
	}
	if _, dup := c.byKey[c.key(item)]; dup {
		return &domain.DuplicateEntityError{Entity: c.entity, Key: keyString(c.key(item))}
	}
	return nil
}

func (c *collection[K, T]) insert(item T) {
	c.items = append(c.items, item)
	c.byKey[c.key(item)] = item
}

func (c *collection[K, T]) delete(item T) {
	delete(c.byKey, c.key(item))
	if i := slices.Index(c.items, item); i >= 0 {
		c.items = slices.Delete(c.items, i, i+1)
	}
}

func keyString(k any) string {
	if s, ok := k.(interface{ String() string }); ok {
		return s.String()
	}
	if s, ok := k.(string); ok {
		return s
	}
	return ""
}

// addItem runs the shared add protocol: invariant and uniqueness checks,
// attach side effects while attached, then insertion.
func addItem[K comparable, T member](b *Board, c *collection[K, T], item T) error {
	if err := c.check(b, item); err != nil {
		return err
	}
	if b.addedToProject {
		if err := item.AddToBoard(); err != nil {
			return err
		}
	}
	c.insert(item)
	return nil
}

// removeItem runs the shared remove protocol. Ownership returns to the caller.
func removeItem[K comparable, T member](b *Board, c *collection[K, T], item T) error {
	var zero T
	if item == zero || !c.contains(item) {
		return domain.Invariant(string(c.entity)+".remove", "item is not part of the board")
	}
	if b.addedToProject {
		if err := item.RemoveFromBoard(); err != nil {
			return err
		}
	}
	c.delete(item)
	return nil
}
