package project

import (
	"sort"

	"github.com/google/uuid"

	"boardcore/pkg/domain"
)

// ComponentInstance is a logical component of the circuit. Boards realize it
// with at most one device each.
type ComponentInstance struct {
	uuid          uuid.UUID
	name          string
	value         string
	schematicOnly bool
}

// NewComponentInstance returns a component that is expected to be placed on
// boards unless schematicOnly is set.
func NewComponentInstance(id uuid.UUID, name, value string, schematicOnly bool) *ComponentInstance {
	return &ComponentInstance{uuid: id, name: name, value: value, schematicOnly: schematicOnly}
}

func (c *ComponentInstance) UUID() uuid.UUID       { return c.uuid }
func (c *ComponentInstance) Name() string          { return c.name }
func (c *ComponentInstance) Value() string         { return c.value }
func (c *ComponentInstance) IsSchematicOnly() bool { return c.schematicOnly }

// NetSignal is a logical electrical signal. Board items that carry the
// signal register with it while their board is attached to the project.
type NetSignal struct {
	uuid           uuid.UUID
	name           string
	addedToCircuit bool
	members        map[any]struct{}
}

// NewNetSignal returns a signal that is not yet part of a circuit.
func NewNetSignal(id uuid.UUID, name string) *NetSignal {
	return &NetSignal{uuid: id, name: name, members: make(map[any]struct{})}
}

func (s *NetSignal) UUID() uuid.UUID { return s.uuid }
func (s *NetSignal) Name() string    { return s.name }

// IsAddedToCircuit reports whether the signal is active in its circuit.
func (s *NetSignal) IsAddedToCircuit() bool { return s.addedToCircuit }

// Register records a board item using the signal. Only active signals accept
// registrations.
func (s *NetSignal) Register(item any) error {
	if !s.addedToCircuit {
		return domain.Invariant("netsignal.register", "net signal %q is not part of the circuit", s.name)
	}
	if _, ok := s.members[item]; ok {
		return domain.Invariant("netsignal.register", "item already registered with %q", s.name)
	}
	s.members[item] = struct{}{}
	return nil
}

// Unregister removes a registration made by Register.
func (s *NetSignal) Unregister(item any) error {
	if _, ok := s.members[item]; !ok {
		return domain.Invariant("netsignal.unregister", "item not registered with %q", s.name)
	}
	delete(s.members, item)
	return nil
}

// RegisteredCount returns the number of registered board items.
func (s *NetSignal) RegisteredCount() int { return len(s.members) }

// IsUsed reports whether any board item is registered.
func (s *NetSignal) IsUsed() bool { return len(s.members) > 0 }

// EventKind enumerates circuit notifications.
type EventKind int

const (
	ComponentAdded EventKind = iota + 1
	ComponentRemoved
	NetSignalAdded
	NetSignalRemoved
)

func (k EventKind) String() string {
	switch k {
	case ComponentAdded:
		return "component_added"
	case ComponentRemoved:
		return "component_removed"
	case NetSignalAdded:
		return "netsignal_added"
	case NetSignalRemoved:
		return "netsignal_removed"
	default:
		return "unknown"
	}
}

// Event is delivered to circuit observers after a successful change.
type Event struct {
	Kind      EventKind
	Component *ComponentInstance
	NetSignal *NetSignal
}

// Circuit is the authoritative set of component instances and net signals.
type Circuit struct {
	components   []*ComponentInstance
	componentIdx map[uuid.UUID]*ComponentInstance
	signals      []*NetSignal
	signalIdx    map[uuid.UUID]*NetSignal
	observers    map[int]func(Event)
	nextObserver int
}

// NewCircuit returns an empty circuit.
func NewCircuit() *Circuit {
	return &Circuit{
		componentIdx: make(map[uuid.UUID]*ComponentInstance),
		signalIdx:    make(map[uuid.UUID]*NetSignal),
		observers:    make(map[int]func(Event)),
	}
}

// Subscribe registers fn for circuit events and returns a function removing it.
func (c *Circuit) Subscribe(fn func(Event)) (unsubscribe func()) {
	id := c.nextObserver
	c.nextObserver++
	c.observers[id] = fn
	return func() { delete(c.observers, id) }
}

func (c *Circuit) notify(ev Event) {
	ids := make([]int, 0, len(c.observers))
	for id := range c.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := c.observers[id]; ok {
			fn(ev)
		}
	}
}

// AddComponent inserts a component instance.
func (c *Circuit) AddComponent(ci *ComponentInstance) error {
	if ci == nil {
		return domain.Invariant("circuit.add_component", "nil component")
	}
	if _, ok := c.componentIdx[ci.uuid]; ok {
		return &domain.DuplicateEntityError{Entity: domain.EntityComponent, Key: ci.uuid.String()}
	}
	c.components = append(c.components, ci)
	c.componentIdx[ci.uuid] = ci
	c.notify(Event{Kind: ComponentAdded, Component: ci})
	return nil
}

// RemoveComponent removes a component instance.
func (c *Circuit) RemoveComponent(ci *ComponentInstance) error {
	if ci == nil || c.componentIdx[ci.uuid] != ci {
		return domain.Invariant("circuit.remove_component", "component is not part of the circuit")
	}
	delete(c.componentIdx, ci.uuid)
	for i, it := range c.components {
		if it == ci {
			c.components = append(c.components[:i], c.components[i+1:]...)
			break
		}
	}
	c.notify(Event{Kind: ComponentRemoved, Component: ci})
	return nil
}

// ComponentByUUID looks up a component instance.
func (c *Circuit) ComponentByUUID(id uuid.UUID) (*ComponentInstance, bool) {
	ci, ok := c.componentIdx[id]
	return ci, ok
}

// Components returns the component instances in insertion order.
func (c *Circuit) Components() []*ComponentInstance {
	out := make([]*ComponentInstance, len(c.components))
	copy(out, c.components)
	return out
}

// AddNetSignal activates a net signal.
func (c *Circuit) AddNetSignal(s *NetSignal) error {
	if s == nil {
		return domain.Invariant("circuit.add_netsignal", "nil net signal")
	}
	if s.addedToCircuit {
		return domain.Invariant("circuit.add_netsignal", "net signal %q already added", s.name)
	}
	if _, ok := c.signalIdx[s.uuid]; ok {
		return &domain.DuplicateEntityError{Entity: domain.EntityNetSignal, Key: s.uuid.String()}
	}
	for _, other := range c.signals {
		if other.name == s.name {
			return &domain.DuplicateEntityError{Entity: domain.EntityNetSignal, Key: s.name}
		}
	}
	s.addedToCircuit = true
	c.signals = append(c.signals, s)
	c.signalIdx[s.uuid] = s
	c.notify(Event{Kind: NetSignalAdded, NetSignal: s})
	return nil
}

// RemoveNetSignal deactivates a net signal. Signals still used by board items
// cannot be removed.
func (c *Circuit) RemoveNetSignal(s *NetSignal) error {
	if s == nil || c.signalIdx[s.uuid] != s {
		return domain.Invariant("circuit.remove_netsignal", "net signal is not part of the circuit")
	}
	if s.IsUsed() {
		return domain.Invariant("circuit.remove_netsignal", "net signal %q is still used by %d items", s.name, s.RegisteredCount())
	}
	s.addedToCircuit = false
	delete(c.signalIdx, s.uuid)
	for i, it := range c.signals {
		if it == s {
			c.signals = append(c.signals[:i], c.signals[i+1:]...)
			break
		}
	}
	c.notify(Event{Kind: NetSignalRemoved, NetSignal: s})
	return nil
}

// NetSignalByUUID looks up an active net signal.
func (c *Circuit) NetSignalByUUID(id uuid.UUID) (*NetSignal, bool) {
	s, ok := c.signalIdx[id]
	return s, ok
}

// NetSignalByName looks up an active net signal by name.
func (c *Circuit) NetSignalByName(name string) (*NetSignal, bool) {
	for _, s := range c.signals {
		if s.name == name {
			return s, true
		}
	}
	return nil, false
}

// NetSignals returns the active net signals in insertion order.
func (c *Circuit) NetSignals() []*NetSignal {
	out := make([]*NetSignal, len(c.signals))
	copy(out, c.signals)
	return out
}
