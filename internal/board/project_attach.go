package board

import (
	"context"
	"errors"
	"fmt"

	"boardcore/internal/blob"
	"boardcore/pkg/domain"
)

// scopeGuard collects compensating actions. Unless dismissed, Rollback runs
// them in reverse registration order.
type scopeGuard struct {
	undo      []func() error
	dismissed bool
}

func (g *scopeGuard) add(fn func() error) { g.undo = append(g.undo, fn) }

func (g *scopeGuard) dismiss() { g.dismissed = true }

// rollback returns the joined compensation errors, if any.
func (g *scopeGuard) rollback() error {
	if g.dismissed {
		return nil
	}
	var errs []error
	for i := len(g.undo) - 1; i >= 0; i-- {
		if err := g.undo[i](); err != nil {
			errs = append(errs, err)
		}
	}
	g.undo = nil
	return errors.Join(errs...)
}

// AddToProject runs the attach side effect of every item and moves the board
// directory into the project. On failure every completed step is reverted in
// reverse order and the board stays detached.
func (b *Board) AddToProject(ctx context.Context) (err error) {
	if b.addedToProject {
		return domain.Invariant("board.add_to_project", "board %q is already added", b.name)
	}
	guard := &scopeGuard{}
	defer func() {
		if err != nil {
			err = b.compensate("add_to_project", guard, err)
		}
	}()
	for _, item := range b.AllItems() {
		if err := item.AddToBoard(); err != nil {
			return fmt.Errorf("attach %s: %w", item.Kind(), err)
		}
		guard.add(item.RemoveFromBoard)
	}
	target := b.project.BoardDirectory(b.dirName)
	if b.dir.Store() != target.Store() || b.dir.Path() != target.Path() {
		src := b.dir
		if err := src.MoveTo(ctx, target); err != nil {
			return fmt.Errorf("move board directory: %w", err)
		}
		b.dir = target
		guard.add(func() error {
			if err := target.MoveTo(ctx, src); err != nil {
				return err
			}
			b.dir = src
			return nil
		})
	}
	guard.dismiss()
	b.addedToProject = true
	b.ForceAirWiresRebuild()
	b.updateErcMessages()
	b.logger.Info("board added to project", "board", b.name, "project", b.project.Name())
	return nil
}

// RemoveFromProject reverts AddToProject. Items are detached in reverse
// order and the board directory moves to a fresh in-memory staging
// directory.
func (b *Board) RemoveFromProject(ctx context.Context) (err error) {
	if !b.addedToProject {
		return domain.Invariant("board.remove_from_project", "board %q is not added", b.name)
	}
	guard := &scopeGuard{}
	defer func() {
		if err != nil {
			err = b.compensate("remove_from_project", guard, err)
		}
	}()
	items := b.AllItems()
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		if err := item.RemoveFromBoard(); err != nil {
			return fmt.Errorf("detach %s: %w", item.Kind(), err)
		}
		guard.add(item.AddToBoard)
	}
	src := b.dir
	staging := blob.NewDirectory(blob.NewMemory(), b.dirName)
	if err := src.MoveTo(ctx, staging); err != nil {
		return fmt.Errorf("move board directory: %w", err)
	}
	b.dir = staging
	guard.dismiss()
	b.addedToProject = false
	b.updateErcMessages()
	b.logger.Info("board removed from project", "board", b.name, "project", b.project.Name())
	return nil
}

func (b *Board) compensate(op string, guard *scopeGuard, cause error) error {
	rbErr := guard.rollback()
	if rbErr == nil {
		b.logger.Warn("board "+op+" rolled back", "board", b.name, "error", cause)
		return cause
	}
	b.logger.Error("board "+op+" rollback failed", "board", b.name, "error", cause, "rollback_error", rbErr)
	return errors.Join(cause, fmt.Errorf("%w: %w", domain.ErrCompensationFailed, rbErr))
}
