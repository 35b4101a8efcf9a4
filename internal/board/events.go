package board

import "sort"

// EventKind enumerates board notifications.
type EventKind int

const (
	EventDeviceAdded EventKind = iota + 1
	EventDeviceRemoved
	EventAttributesChanged
	EventItemAdded
	EventItemRemoved
	EventAirWiresRebuilt
	EventPlanesRebuilt
)

func (k EventKind) String() string {
	switch k {
	case EventDeviceAdded:
		return "device_added"
	case EventDeviceRemoved:
		return "device_removed"
	case EventAttributesChanged:
		return "attributes_changed"
	case EventItemAdded:
		return "item_added"
	case EventItemRemoved:
		return "item_removed"
	case EventAirWiresRebuilt:
		return "airwires_rebuilt"
	case EventPlanesRebuilt:
		return "planes_rebuilt"
	default:
		return "unknown"
	}
}

// Event is delivered to board observers after a successful change. Item is
// nil for board wide events.
type Event struct {
	Kind EventKind
	Item Item
}

// Subscribe registers fn for board events and returns a function removing it.
func (b *Board) Subscribe(fn func(Event)) (unsubscribe func()) {
	id := b.nextObserver
	b.nextObserver++
	b.observers[id] = fn
	return func() { delete(b.observers, id) }
}

func (b *Board) notify(ev Event) {
	ids := make([]int, 0, len(b.observers))
	for id := range b.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := b.observers[id]; ok {
			fn(ev)
		}
	}
}
