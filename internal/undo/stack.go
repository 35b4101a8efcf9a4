package undo

import (
	"errors"
	"fmt"

	"boardcore/pkg/domain"
)

// ErrStackBroken is returned once an undo or redo failed half way. The
// document behind the stack is in an uncommitted state and the chain aborts.
var ErrStackBroken = errors.New("undo stack broken")

// Stack records executed commands for undo and redo.
type Stack struct {
	commands []Command
	current  int // number of commands currently applied
	clean    int // value of current at the last SetClean, -1 if unreachable
	broken   bool
}

// NewStack returns an empty, clean stack.
func NewStack() *Stack {
	return &Stack{}
}

// Exec executes cmd and pushes it. Commands that were undone are discarded.
func (s *Stack) Exec(cmd Command) error {
	if s.broken {
		return ErrStackBroken
	}
	if cmd == nil {
		return domain.Invariant("exec", "nil command")
	}
	if err := cmd.Execute(); err != nil {
		return err
	}
	if s.clean > s.current {
		s.clean = -1
	}
	s.commands = append(s.commands[:s.current], cmd)
	s.current++
	return nil
}

// Undo reverts the most recently applied command.
func (s *Stack) Undo() error {
	if s.broken {
		return ErrStackBroken
	}
	if !s.CanUndo() {
		return domain.Invariant("undo", "nothing to undo")
	}
	cmd := s.commands[s.current-1]
	if err := cmd.Undo(); err != nil {
		s.broken = true
		return fmt.Errorf("undo %q: %w", cmd.Text(), err)
	}
	s.current--
	return nil
}

// Redo re-applies the most recently undone command.
func (s *Stack) Redo() error {
	if s.broken {
		return ErrStackBroken
	}
	if !s.CanRedo() {
		return domain.Invariant("redo", "nothing to redo")
	}
	cmd := s.commands[s.current]
	if err := cmd.Redo(); err != nil {
		s.broken = true
		return fmt.Errorf("redo %q: %w", cmd.Text(), err)
	}
	s.current++
	return nil
}

// CanUndo reports whether a command can be undone.
func (s *Stack) CanUndo() bool { return !s.broken && s.current > 0 }

// CanRedo reports whether a command can be redone.
func (s *Stack) CanRedo() bool { return !s.broken && s.current < len(s.commands) }

// UndoText returns the description of the next undo, or "".
func (s *Stack) UndoText() string {
	if !s.CanUndo() {
		return ""
	}
	return s.commands[s.current-1].Text()
}

// RedoText returns the description of the next redo, or "".
func (s *Stack) RedoText() string {
	if !s.CanRedo() {
		return ""
	}
	return s.commands[s.current].Text()
}

// Len returns the number of recorded commands, including undone ones.
func (s *Stack) Len() int { return len(s.commands) }

// Broken reports whether a failed undo/redo aborted the chain.
func (s *Stack) Broken() bool { return s.broken }

// SetClean marks the current position as saved.
func (s *Stack) SetClean() { s.clean = s.current }

// IsClean reports whether the stack is at the last saved position.
func (s *Stack) IsClean() bool { return s.clean == s.current }

// Clear drops all commands and resets the broken flag.
func (s *Stack) Clear() {
	s.commands = nil
	s.current = 0
	s.clean = 0
	s.broken = false
}
