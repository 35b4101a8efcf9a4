package undo

import (
	"errors"
	"fmt"

	"boardcore/pkg/domain"
)

// Group executes several commands as one undoable step. Children run in
// order on Execute and Redo and in reverse order on Undo.
type Group struct {
	text     string
	children []Command
	state    State
}

var _ Command = (*Group)(nil)

// NewGroup returns an empty group.
func NewGroup(text string) *Group {
	return &Group{text: text}
}

// Append adds a child. Children can only be added before the group executes.
func (g *Group) Append(cmd Command) error {
	if g.state != StateInitial {
		return domain.Invariant("append", "group %q is %s", g.text, g.state)
	}
	if cmd == nil {
		return domain.Invariant("append", "nil command")
	}
	g.children = append(g.children, cmd)
	return nil
}

// Len returns the number of children.
func (g *Group) Len() int { return len(g.children) }

// Text implements Command.
func (g *Group) Text() string { return g.text }

// State implements Command.
func (g *Group) State() State { return g.state }

// Execute runs every child. If one fails, the children executed so far are
// undone in reverse order and the original error is returned.
func (g *Group) Execute() error {
	if g.state != StateInitial {
		return domain.Invariant("execute", "group %q is %s", g.text, g.state)
	}
	for i, child := range g.children {
		if err := child.Execute(); err != nil {
			return g.rollback(i, err, func(c Command) error { return c.Undo() })
		}
	}
	g.state = StateExecuted
	return nil
}

// Undo reverts all children in reverse order.
func (g *Group) Undo() error {
	if g.state != StateExecuted {
		return domain.Invariant("undo", "group %q is %s", g.text, g.state)
	}
	for i := len(g.children) - 1; i >= 0; i-- {
		if err := g.children[i].Undo(); err != nil {
			return fmt.Errorf("undo %q: %w", g.children[i].Text(), err)
		}
	}
	g.state = StateUndone
	return nil
}

// Redo re-applies all children in order.
func (g *Group) Redo() error {
	if g.state != StateUndone {
		return domain.Invariant("redo", "group %q is %s", g.text, g.state)
	}
	for _, child := range g.children {
		if err := child.Redo(); err != nil {
			return fmt.Errorf("redo %q: %w", child.Text(), err)
		}
	}
	g.state = StateExecuted
	return nil
}

func (g *Group) rollback(failed int, cause error, revert func(Command) error) error {
	for i := failed - 1; i >= 0; i-- {
		if err := revert(g.children[i]); err != nil {
			return errors.Join(cause, fmt.Errorf("%w: undo %q: %v", domain.ErrCompensationFailed, g.children[i].Text(), err))
		}
	}
	return cause
}
