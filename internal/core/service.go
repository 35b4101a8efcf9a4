// Package core is the board service façade. It keeps an undo stack per open
// board, checkpoints boards into a domain.SnapshotStore and reports every
// operation to the configured audit, metrics and tracing collaborators.
package core

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"boardcore/internal/blob"
	"boardcore/internal/board"
	"boardcore/internal/infra/persistence/memory"
	"boardcore/internal/logging"
	"boardcore/internal/project"
	"boardcore/internal/undo"
	"boardcore/pkg/domain"
)

// Operation names used for audit entries, metrics and spans.
const (
	OpCreateBoard      = "create_board"
	OpAttachBoard      = "attach_board"
	OpDetachBoard      = "detach_board"
	OpExecCommand      = "exec_command"
	OpUndo             = "undo"
	OpRedo             = "redo"
	OpCheckpoint       = "checkpoint"
	OpRestore          = "restore"
	OpDeleteCheckpoint = "delete_checkpoint"
)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l logging.Logger) Option { return func(s *Service) { s.logger = logging.OrNoop(l) } }

// WithClock overrides the time source.
func WithClock(c Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithAuditRecorder sets the audit sink.
func WithAuditRecorder(r AuditRecorder) Option {
	return func(s *Service) {
		if r != nil {
			s.audit = r
		}
	}
}

// WithMetricsRecorder sets the metrics sink.
func WithMetricsRecorder(r MetricsRecorder) Option {
	return func(s *Service) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(t Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

type session struct {
	board *board.Board
	stack *undo.Stack
}

// Service serializes all operations on the boards it manages.
type Service struct {
	mu       sync.Mutex
	store    domain.SnapshotStore
	sessions map[uuid.UUID]*session

	logger  logging.Logger
	clock   Clock
	audit   AuditRecorder
	metrics MetricsRecorder
	tracer  Tracer
}

// NewService constructs a service backed by the supplied snapshot store.
func NewService(store domain.SnapshotStore, opts ...Option) *Service {
	s := &Service{
		store:    store,
		sessions: make(map[uuid.UUID]*session),
		logger:   logging.Noop(),
		clock:    systemClock{},
		audit:    noopAudit{},
		metrics:  noopMetrics{},
		tracer:   noopTracer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service with an in-memory snapshot store.
func NewInMemoryService(opts ...Option) *Service {
	return NewService(memory.NewStore(), opts...)
}

// Store returns the underlying snapshot store.
func (s *Service) Store() domain.SnapshotStore { return s.store }

func (s *Service) run(ctx context.Context, op, entityID string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, op)
	start := s.clock.Now()
	err := s.locked(ctx, fn)
	elapsed := s.clock.Now().Sub(start)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, elapsed)
	if err != nil {
		s.logger.Error("board operation failed", "operation", op, "board", entityID, "error", err)
		s.recordAuditFailure(ctx, op, entityID, elapsed, err)
		return err
	}
	s.logger.Debug("board operation completed", "operation", op, "board", entityID, "duration", elapsed)
	s.recordAuditSuccess(ctx, op, entityID, elapsed)
	return nil
}

func (s *Service) locked(ctx context.Context, fn func(context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx)
}

func (s *Service) session(id uuid.UUID) (*session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.NotFoundError{Entity: domain.EntityBoard, ID: id.String()}
	}
	return sess, nil
}

// Board returns an open board.
func (s *Service) Board(id uuid.UUID) (*board.Board, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	return sess.board, true
}

// UndoStack returns the undo stack of an open board.
func (s *Service) UndoStack(id uuid.UUID) (*undo.Stack, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	return sess.stack, true
}

// CreateBoard creates a board with the default outline and adds it to p.
func (s *Service) CreateBoard(ctx context.Context, p *project.Project, dirName, name string, opts ...board.Option) (*board.Board, error) {
	var created *board.Board
	err := s.run(ctx, OpCreateBoard, name, func(ctx context.Context) error {
		b := board.New(p, blob.NewDirectory(blob.NewMemory(), dirName), dirName, name, opts...)
		if err := b.AddDefaultContent(); err != nil {
			b.Close()
			return err
		}
		if err := p.AddBoard(ctx, b, -1); err != nil {
			b.Close()
			return err
		}
		s.sessions[b.UUID()] = &session{board: b, stack: undo.NewStack()}
		created = b
		return nil
	})
	return created, err
}

// AttachBoard adds b to its project and opens a session for it.
func (s *Service) AttachBoard(ctx context.Context, b *board.Board) error {
	return s.run(ctx, OpAttachBoard, b.UUID().String(), func(ctx context.Context) error {
		if _, ok := s.sessions[b.UUID()]; ok {
			return &domain.DuplicateEntityError{Entity: domain.EntityBoard, Key: b.UUID().String()}
		}
		if err := b.Project().AddBoard(ctx, b, -1); err != nil {
			return err
		}
		s.sessions[b.UUID()] = &session{board: b, stack: undo.NewStack()}
		return nil
	})
}

// DetachBoard removes the board from its project and closes its session.
// The undo history is discarded.
func (s *Service) DetachBoard(ctx context.Context, id uuid.UUID) error {
	return s.run(ctx, OpDetachBoard, id.String(), func(ctx context.Context) error {
		sess, err := s.session(id)
		if err != nil {
			return err
		}
		if err := sess.board.Project().RemoveBoard(ctx, sess.board); err != nil {
			return err
		}
		delete(s.sessions, id)
		return nil
	})
}

// Exec executes cmd on the undo stack of board id and rebuilds the airwires
// it scheduled. Rebuild failures are logged, not returned.
func (s *Service) Exec(ctx context.Context, id uuid.UUID, cmd undo.Command) error {
	return s.run(ctx, OpExecCommand, id.String(), func(context.Context) error {
		if cmd == nil {
			return domain.Invariant("service.exec", "nil command")
		}
		sess, err := s.session(id)
		if err != nil {
			return err
		}
		if err := sess.stack.Exec(cmd); err != nil {
			return fmt.Errorf("%s: %w", cmd.Text(), err)
		}
		s.rebuild(sess.board)
		return nil
	})
}

// Undo reverts the last command of board id.
func (s *Service) Undo(ctx context.Context, id uuid.UUID) error {
	return s.run(ctx, OpUndo, id.String(), func(context.Context) error {
		sess, err := s.session(id)
		if err != nil {
			return err
		}
		if err := sess.stack.Undo(); err != nil {
			return err
		}
		s.rebuild(sess.board)
		return nil
	})
}

// Redo re-applies the last undone command of board id.
func (s *Service) Redo(ctx context.Context, id uuid.UUID) error {
	return s.run(ctx, OpRedo, id.String(), func(context.Context) error {
		sess, err := s.session(id)
		if err != nil {
			return err
		}
		if err := sess.stack.Redo(); err != nil {
			return err
		}
		s.rebuild(sess.board)
		return nil
	})
}

func (s *Service) rebuild(b *board.Board) {
	if err := b.TriggerAirWiresRebuild().Err(); err != nil {
		s.logger.Warn("airwire rebuild incomplete", "board", b.Name(), "error", err)
	}
}

// Checkpoint stores the current record of board id and marks its undo
// stack clean.
func (s *Service) Checkpoint(ctx context.Context, id uuid.UUID) (domain.SnapshotInfo, error) {
	var info domain.SnapshotInfo
	err := s.run(ctx, OpCheckpoint, id.String(), func(ctx context.Context) error {
		sess, err := s.session(id)
		if err != nil {
			return err
		}
		snap, err := sess.board.Snapshot(s.clock.Now())
		if err != nil {
			return err
		}
		if err := s.store.Save(ctx, snap); err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
		sess.stack.SetClean()
		info = snap.Info()
		return nil
	})
	return info, err
}

// Restore builds a detached board of p from the stored checkpoint of
// boardID. The board lives in dir; callers attach it with AttachBoard.
func (s *Service) Restore(ctx context.Context, p *project.Project, boardID string, dir *blob.Directory, opts ...board.Option) (*board.Board, error) {
	var restored *board.Board
	err := s.run(ctx, OpRestore, boardID, func(ctx context.Context) error {
		snap, ok, err := s.store.Load(ctx, boardID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityBoard, ID: boardID}
		}
		rec, err := board.DecodeRecord(bytes.NewReader(snap.Payload))
		if err != nil {
			return err
		}
		restored, err = board.FromRecord(p, dir, rec, opts...)
		if err != nil {
			return err
		}
		restored.RebuildAllPlanes()
		return nil
	})
	return restored, err
}

// Checkpoints lists the stored checkpoints.
func (s *Service) Checkpoints(ctx context.Context) ([]domain.SnapshotInfo, error) {
	return s.store.List(ctx)
}

// DeleteCheckpoint removes the checkpoint of boardID.
func (s *Service) DeleteCheckpoint(ctx context.Context, boardID string) (bool, error) {
	var deleted bool
	err := s.run(ctx, OpDeleteCheckpoint, boardID, func(ctx context.Context) error {
		var err error
		deleted, err = s.store.Delete(ctx, boardID)
		return err
	})
	return deleted, err
}
