// Package project is the container boards are attached to: the circuit with
// its component instances and net signals, the project-wide ERC message list
// and the project's backing directory.
package project

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"boardcore/internal/blob"
	"boardcore/internal/erc"
	"boardcore/internal/logging"
	"boardcore/pkg/domain"
)

// BoardsDir is the directory boards live in, relative to the project root.
const BoardsDir = "boards"

// Board is what the project needs from an attachable board document.
type Board interface {
	UUID() uuid.UUID
	Name() string
	DirName() string
	AddToProject(ctx context.Context) error
	RemoveFromProject(ctx context.Context) error
}

// Project owns the circuit and the list of attached boards.
type Project struct {
	uuid    uuid.UUID
	name    string
	circuit *Circuit
	erc     *erc.List
	dir     *blob.Directory
	boards  []Board
	logger  logging.Logger
}

// Option configures a Project.
type Option func(*Project)

// WithLogger sets the project logger.
func WithLogger(l logging.Logger) Option { return func(p *Project) { p.logger = logging.OrNoop(l) } }

// WithUUID overrides the generated project UUID.
func WithUUID(id uuid.UUID) Option { return func(p *Project) { p.uuid = id } }

// New returns an empty project rooted at dir.
func New(name string, dir *blob.Directory, opts ...Option) *Project {
	p := &Project{
		uuid:    uuid.New(),
		name:    name,
		circuit: NewCircuit(),
		erc:     erc.NewList(),
		dir:     dir,
		logger:  logging.Noop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Project) UUID() uuid.UUID            { return p.uuid }
func (p *Project) Name() string               { return p.name }
func (p *Project) Circuit() *Circuit          { return p.circuit }
func (p *Project) ERCMessages() *erc.List     { return p.erc }
func (p *Project) Directory() *blob.Directory { return p.dir }
func (p *Project) Logger() logging.Logger     { return p.logger }

// BoardDirectory returns the directory a board named dirName occupies while
// it is part of the project.
func (p *Project) BoardDirectory(dirName string) *blob.Directory {
	return p.dir.Sub(BoardsDir + "/" + dirName)
}

// Boards returns the attached boards in index order.
func (p *Project) Boards() []Board { return slices.Clone(p.boards) }

// BoardIndex returns the index of b, or -1.
func (p *Project) BoardIndex(b Board) int {
	for i, it := range p.boards {
		if it.UUID() == b.UUID() {
			return i
		}
	}
	return -1
}

// BoardByUUID looks up an attached board.
func (p *Project) BoardByUUID(id uuid.UUID) (Board, bool) {
	for _, b := range p.boards {
		if b.UUID() == id {
			return b, true
		}
	}
	return nil, false
}

// AddBoard attaches b and inserts it at index (-1 appends).
func (p *Project) AddBoard(ctx context.Context, b Board, index int) error {
	for _, other := range p.boards {
		switch {
		case other == b:
			return domain.Invariant("project.add_board", "board %q already added", b.Name())
		case other.UUID() == b.UUID():
			return &domain.DuplicateEntityError{Entity: domain.EntityBoard, Key: b.UUID().String()}
		case other.Name() == b.Name():
			return &domain.DuplicateEntityError{Entity: domain.EntityBoard, Key: b.Name()}
		case other.DirName() == b.DirName():
			return &domain.DuplicateEntityError{Entity: domain.EntityBoard, Key: b.DirName()}
		}
	}
	if index < 0 || index > len(p.boards) {
		index = len(p.boards)
	}
	if err := b.AddToProject(ctx); err != nil {
		return fmt.Errorf("add board %q: %w", b.Name(), err)
	}
	p.boards = slices.Insert(p.boards, index, b)
	p.logger.Info("board added to project", "project", p.name, "board", b.Name(), "index", index)
	return nil
}

// RemoveBoard detaches b and drops it from the board list.
func (p *Project) RemoveBoard(ctx context.Context, b Board) error {
	i := slices.Index(p.boards, b)
	if i < 0 {
		return domain.Invariant("project.remove_board", "board %q is not part of the project", b.Name())
	}
	if err := b.RemoveFromProject(ctx); err != nil {
		return fmt.Errorf("remove board %q: %w", b.Name(), err)
	}
	p.boards = slices.Delete(p.boards, i, i+1)
	p.logger.Info("board removed from project", "project", p.name, "board", b.Name())
	return nil
}
