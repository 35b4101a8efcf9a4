package board

import "boardcore/internal/undo"

// The add/remove commands hold the board and the exact item instance. Undo
// reinserts that instance; nothing is copied.

// NewCmdDeviceAdd returns a command adding d to its board.
func NewCmdDeviceAdd(d *Device) *undo.Cmd {
	return undo.New("Add device", undo.Ops{
		Redo: func() error { return d.board.AddDevice(d) },
		Undo: func() error { return d.board.RemoveDevice(d) },
	})
}

// NewCmdDeviceRemove returns a command removing d from its board.
func NewCmdDeviceRemove(d *Device) *undo.Cmd {
	return undo.New("Remove device", undo.Ops{
		Redo: func() error { return d.board.RemoveDevice(d) },
		Undo: func() error { return d.board.AddDevice(d) },
	})
}

// NewCmdNetSegmentAdd returns a command adding s to its board.
func NewCmdNetSegmentAdd(s *NetSegment) *undo.Cmd {
	return undo.New("Add net segment", undo.Ops{
		Redo: func() error { return s.board.AddNetSegment(s) },
		Undo: func() error { return s.board.RemoveNetSegment(s) },
	})
}

// NewCmdNetSegmentRemove returns a command removing s from its board.
func NewCmdNetSegmentRemove(s *NetSegment) *undo.Cmd {
	return undo.New("Remove net segment", undo.Ops{
		Redo: func() error { return s.board.RemoveNetSegment(s) },
		Undo: func() error { return s.board.AddNetSegment(s) },
	})
}

// NewCmdPlaneAdd returns a command adding p to its board.
func NewCmdPlaneAdd(p *Plane) *undo.Cmd {
	return undo.New("Add plane", undo.Ops{
		Redo: func() error { return p.board.AddPlane(p) },
		Undo: func() error { return p.board.RemovePlane(p) },
	})
}

// NewCmdPlaneRemove returns a command removing p from its board.
func NewCmdPlaneRemove(p *Plane) *undo.Cmd {
	return undo.New("Remove plane", undo.Ops{
		Redo: func() error { return p.board.RemovePlane(p) },
		Undo: func() error { return p.board.AddPlane(p) },
	})
}

// NewCmdPolygonAdd returns a command adding p to its board.
func NewCmdPolygonAdd(p *Polygon) *undo.Cmd {
	return undo.New("Add polygon", undo.Ops{
		Redo: func() error { return p.board.AddPolygon(p) },
		Undo: func() error { return p.board.RemovePolygon(p) },
	})
}

// NewCmdPolygonRemove returns a command removing p from its board.
func NewCmdPolygonRemove(p *Polygon) *undo.Cmd {
	return undo.New("Remove polygon", undo.Ops{
		Redo: func() error { return p.board.RemovePolygon(p) },
		Undo: func() error { return p.board.AddPolygon(p) },
	})
}

// NewCmdStrokeTextAdd returns a command adding t to its board.
func NewCmdStrokeTextAdd(t *StrokeText) *undo.Cmd {
	return undo.New("Add text", undo.Ops{
		Redo: func() error { return t.board.AddStrokeText(t) },
		Undo: func() error { return t.board.RemoveStrokeText(t) },
	})
}

// NewCmdStrokeTextRemove returns a command removing t from its board.
func NewCmdStrokeTextRemove(t *StrokeText) *undo.Cmd {
	return undo.New("Remove text", undo.Ops{
		Redo: func() error { return t.board.RemoveStrokeText(t) },
		Undo: func() error { return t.board.AddStrokeText(t) },
	})
}

// NewCmdHoleAdd returns a command adding h to its board.
func NewCmdHoleAdd(h *Hole) *undo.Cmd {
	return undo.New("Add hole", undo.Ops{
		Redo: func() error { return h.board.AddHole(h) },
		Undo: func() error { return h.board.RemoveHole(h) },
	})
}

// NewCmdHoleRemove returns a command removing h from its board.
func NewCmdHoleRemove(h *Hole) *undo.Cmd {
	return undo.New("Remove hole", undo.Ops{
		Redo: func() error { return h.board.RemoveHole(h) },
		Undo: func() error { return h.board.AddHole(h) },
	})
}
