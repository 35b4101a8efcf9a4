// Package undo implements reversible edit commands, command groups and an
// undo stack. A command toggles the same object in and out of its owner; it
// never reconstructs identity on undo or redo.
package undo

import (
	"boardcore/pkg/domain"
)

// State is the lifecycle position of a command.
type State int

// Command states. A command starts in StateInitial, moves to StateExecuted on a
// successful Execute and then alternates between StateExecuted and StateUndone.
const (
	StateInitial State = iota
	StateExecuted
	StateUndone
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateExecuted:
		return "executed"
	case StateUndone:
		return "undone"
	default:
		return "unknown"
	}
}

// Command is a reversible edit.
type Command interface {
	Text() string
	State() State
	// Execute performs the forward effect for the first time. On failure the
	// edit did not happen and the command stays in StateInitial.
	Execute() error
	// Undo performs the exact inverse of the forward effect.
	Undo() error
	// Redo re-applies the forward effect after an Undo.
	Redo() error
}

// Ops holds the effects of a command. Execute defaults to Redo when nil.
type Ops struct {
	Execute func() error
	Undo    func() error
	Redo    func() error
}

// Cmd is a Command driven by an Ops table.
type Cmd struct {
	text  string
	ops   Ops
	state State
}

var _ Command = (*Cmd)(nil)

// New returns a command in StateInitial.
func New(text string, ops Ops) *Cmd {
	return &Cmd{text: text, ops: ops}
}

// Text returns the human readable description.
func (c *Cmd) Text() string { return c.text }

// State returns the current lifecycle state.
func (c *Cmd) State() State { return c.state }

// Execute implements Command.
func (c *Cmd) Execute() error {
	if c.state != StateInitial {
		return domain.Invariant("execute", "command %q is %s", c.text, c.state)
	}
	fn := c.ops.Execute
	if fn == nil {
		fn = c.ops.Redo
	}
	if err := call(fn); err != nil {
		return err
	}
	c.state = StateExecuted
	return nil
}

// Undo implements Command.
func (c *Cmd) Undo() error {
	if c.state != StateExecuted {
		return domain.Invariant("undo", "command %q is %s", c.text, c.state)
	}
	if err := call(c.ops.Undo); err != nil {
		return err
	}
	c.state = StateUndone
	return nil
}

// Redo implements Command.
func (c *Cmd) Redo() error {
	if c.state != StateUndone {
		return domain.Invariant("redo", "command %q is %s", c.text, c.state)
	}
	if err := call(c.ops.Redo); err != nil {
		return err
	}
	c.state = StateExecuted
	return nil
}

func call(fn func() error) error {
	if fn == nil {
		return nil
	}
	return fn()
}
