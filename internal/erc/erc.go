// Package erc holds the project-wide list of electrical rule check messages.
// A message is registered in its list while it is visible.
package erc

import (
	"sort"

	"boardcore/pkg/domain"
)

// Message is an advisory diagnostic keyed by an owner-specific key such as
// "<board uuid>/<component uuid>".
type Message struct {
	list     *List
	key      string
	typ      string
	severity domain.Severity
	text     string
	visible  bool
}

// NewMessage returns an invisible message bound to list.
func NewMessage(list *List, key, typ string, severity domain.Severity, text string) *Message {
	return &Message{list: list, key: key, typ: typ, severity: severity, text: text}
}

func (m *Message) Key() string               { return m.key }
func (m *Message) Type() string              { return m.typ }
func (m *Message) Severity() domain.Severity { return m.severity }
func (m *Message) Text() string              { return m.text }
func (m *Message) IsVisible() bool           { return m.visible }

// IsIgnored reports whether the user chose to ignore messages with this key.
func (m *Message) IsIgnored() bool { return m.list != nil && m.list.IsIgnored(m.key) }

// SetText updates the text and notifies list observers when visible.
func (m *Message) SetText(text string) {
	if text == m.text {
		return
	}
	m.text = text
	if m.visible && m.list != nil {
		m.list.notify(Event{Kind: MessageChanged, Message: m})
	}
}

// SetVisible registers the message in its list, or removes it.
func (m *Message) SetVisible(visible bool) error {
	if visible == m.visible {
		return nil
	}
	if m.list == nil {
		return domain.Invariant("erc.visible", "message %q has no list", m.key)
	}
	var err error
	if visible {
		err = m.list.add(m)
	} else {
		err = m.list.remove(m)
	}
	if err != nil {
		return err
	}
	m.visible = visible
	return nil
}

// EventKind enumerates list notifications.
type EventKind int

const (
	MessageAdded EventKind = iota + 1
	MessageRemoved
	MessageChanged
)

// Event describes a list change.
type Event struct {
	Kind    EventKind
	Message *Message
}

// List is the registry of visible messages of one project.
type List struct {
	messages  []*Message
	byKey     map[string]*Message
	ignored   map[string]struct{}
	observers map[int]func(Event)
	nextObs   int
}

// NewList returns an empty list.
func NewList() *List {
	return &List{byKey: make(map[string]*Message), ignored: make(map[string]struct{}), observers: make(map[int]func(Event))}
}

func (l *List) add(m *Message) error {
	if _, ok := l.byKey[m.key]; ok {
		return &domain.DuplicateEntityError{Entity: domain.EntityERCMessage, Key: m.key}
	}
	l.messages = append(l.messages, m)
	l.byKey[m.key] = m
	l.notify(Event{Kind: MessageAdded, Message: m})
	return nil
}

func (l *List) remove(m *Message) error {
	if l.byKey[m.key] != m {
		return domain.Invariant("erc.remove", "message %q is not registered", m.key)
	}
	delete(l.byKey, m.key)
	for i, it := range l.messages {
		if it == m {
			l.messages = append(l.messages[:i], l.messages[i+1:]...)
			break
		}
	}
	l.notify(Event{Kind: MessageRemoved, Message: m})
	return nil
}

// Get returns the registered message with key.
func (l *List) Get(key string) (*Message, bool) {
	m, ok := l.byKey[key]
	return m, ok
}

// Messages returns the registered messages in registration order.
func (l *List) Messages() []*Message {
	out := make([]*Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of registered messages.
func (l *List) Len() int { return len(l.messages) }

// Count returns the number of registered, non-ignored messages per severity.
func (l *List) Count() map[domain.Severity]int {
	out := make(map[domain.Severity]int)
	for _, m := range l.messages {
		if !l.IsIgnored(m.key) {
			out[m.severity]++
		}
	}
	return out
}

// SetIgnored marks a key as ignored. Ignored keys survive message removal so
// a regenerated message stays ignored.
func (l *List) SetIgnored(key string, ignored bool) {
	if ignored {
		l.ignored[key] = struct{}{}
	} else {
		delete(l.ignored, key)
	}
	if m, ok := l.byKey[key]; ok {
		l.notify(Event{Kind: MessageChanged, Message: m})
	}
}

// IsIgnored reports whether key is ignored.
func (l *List) IsIgnored(key string) bool {
	_, ok := l.ignored[key]
	return ok
}

// IgnoredKeys returns the ignored keys sorted.
func (l *List) IgnoredKeys() []string {
	out := make([]string, 0, len(l.ignored))
	for k := range l.ignored {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Subscribe registers fn for list events and returns a function removing it.
func (l *List) Subscribe(fn func(Event)) (unsubscribe func()) {
	id := l.nextObs
	l.nextObs++
	l.observers[id] = fn
	return func() { delete(l.observers, id) }
}

func (l *List) notify(ev Event) {
	ids := make([]int, 0, len(l.observers))
	for id := range l.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := l.observers[id]; ok {
			fn(ev)
		}
	}
}
