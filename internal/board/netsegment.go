package board

import (
	"slices"

	"github.com/google/uuid"

	"boardcore/internal/project"
	"boardcore/pkg/domain"
	"boardcore/pkg/geometry"
)

// Via is a plated hole connecting copper layers inside a net segment.
type Via struct {
	segment  *NetSegment
	uuid     uuid.UUID
	position geometry.Point
	size     geometry.Length
	drill    geometry.Length
	selected bool
}

// NewVia returns a via for segment.
func NewVia(segment *NetSegment, id uuid.UUID, pos geometry.Point, size, drill geometry.Length) *Via {
	return &Via{segment: segment, uuid: id, position: pos, size: size, drill: drill}
}

func (v *Via) Segment() *NetSegment           { return v.segment }
func (v *Via) UUID() uuid.UUID                { return v.uuid }
func (v *Via) AnchorID() uuid.UUID            { return v.uuid }
func (v *Via) Position() geometry.Point       { return v.position }
func (v *Via) Size() geometry.Length          { return v.size }
func (v *Via) DrillDiameter() geometry.Length { return v.drill }
func (v *Via) IsSelected() bool               { return v.selected }
func (v *Via) SetSelected(sel bool)           { v.selected = sel }
func (v *Via) GrabArea() geometry.Rect        { return geometry.RectAround(v.position, v.size/2) }

// NetPoint is a junction of net lines.
type NetPoint struct {
	segment  *NetSegment
	uuid     uuid.UUID
	position geometry.Point
	selected bool
}

// NewNetPoint returns a net point for segment.
func NewNetPoint(segment *NetSegment, id uuid.UUID, pos geometry.Point) *NetPoint {
	return &NetPoint{segment: segment, uuid: id, position: pos}
}

func (p *NetPoint) Segment() *NetSegment     { return p.segment }
func (p *NetPoint) UUID() uuid.UUID          { return p.uuid }
func (p *NetPoint) AnchorID() uuid.UUID      { return p.uuid }
func (p *NetPoint) Position() geometry.Point { return p.position }
func (p *NetPoint) IsSelected() bool         { return p.selected }
func (p *NetPoint) SetSelected(sel bool)     { p.selected = sel }
func (p *NetPoint) GrabArea() geometry.Rect  { return geometry.RectAround(p.position, padGrabHalfSize/2) }

// NetLine is a trace between two anchors on one copper layer.
type NetLine struct {
	segment  *NetSegment
	uuid     uuid.UUID
	start    Anchor
	end      Anchor
	layer    string
	width    geometry.Length
	selected bool
}

// NewNetLine returns a trace for segment.
func NewNetLine(segment *NetSegment, id uuid.UUID, start, end Anchor, layer string, width geometry.Length) *NetLine {
	return &NetLine{segment: segment, uuid: id, start: start, end: end, layer: layer, width: width}
}

func (l *NetLine) Segment() *NetSegment   { return l.segment }
func (l *NetLine) UUID() uuid.UUID        { return l.uuid }
func (l *NetLine) Start() Anchor          { return l.start }
func (l *NetLine) End() Anchor            { return l.end }
func (l *NetLine) Layer() string          { return l.layer }
func (l *NetLine) Width() geometry.Length { return l.width }
func (l *NetLine) IsSelected() bool       { return l.selected }
func (l *NetLine) SetSelected(sel bool)   { l.selected = sel }

func (l *NetLine) GrabArea() geometry.Rect {
	r := geometry.RectFromPoints(l.start.Position(), l.end.Position())
	half := l.width / 2
	r.Min = r.Min.Sub(geometry.Pt(half, half))
	r.Max = r.Max.Add(geometry.Pt(half, half))
	return r
}

// NetSegment groups the routing of one net signal.
type NetSegment struct {
	itemBase
	uuid      uuid.UUID
	netSignal *project.NetSignal
	vias      []*Via
	points    []*NetPoint
	lines     []*NetLine
}

// NewNetSegment returns an empty segment of sig.
func NewNetSegment(b *Board, id uuid.UUID, sig *project.NetSignal) *NetSegment {
	return &NetSegment{itemBase: itemBase{board: b}, uuid: id, netSignal: sig}
}

func (s *NetSegment) Kind() ItemKind                { return KindNetSegment }
func (s *NetSegment) UUID() uuid.UUID               { return s.uuid }
func (s *NetSegment) NetSignal() *project.NetSignal { return s.netSignal }
func (s *NetSegment) Vias() []*Via                  { return slices.Clone(s.vias) }
func (s *NetSegment) NetPoints() []*NetPoint        { return slices.Clone(s.points) }
func (s *NetSegment) NetLines() []*NetLine          { return slices.Clone(s.lines) }
func (s *NetSegment) IsUsed() bool                  { return len(s.vias)+len(s.points)+len(s.lines) > 0 }

func (s *NetSegment) GrabArea() geometry.Rect {
	var r geometry.Rect
	first := true
	grow := func(a geometry.Rect) {
		if first {
			r, first = a, false
			return
		}
		r = r.Union(a)
	}
	for _, v := range s.vias {
		grow(v.GrabArea())
	}
	for _, p := range s.points {
		grow(p.GrabArea())
	}
	for _, l := range s.lines {
		grow(l.GrabArea())
	}
	return r
}

// AddElements inserts vias, net points and lines in one step. Line anchors
// must be pads of the same board or vias and points of this segment,
// including those added in the same call.
func (s *NetSegment) AddElements(vias []*Via, points []*NetPoint, lines []*NetLine) error {
	const op = "netsegment.add_elements"
	seen := make(map[uuid.UUID]bool)
	for _, v := range vias {
		if v == nil || v.segment != s || s.hasVia(v) {
			return domain.Invariant(op, "invalid via")
		}
		if seen[v.uuid] || s.hasElement(v.uuid) {
			return &domain.DuplicateEntityError{Entity: domain.EntityNetSegment, Key: "via " + v.uuid.String()}
		}
		seen[v.uuid] = true
	}
	for _, p := range points {
		if p == nil || p.segment != s || s.hasPoint(p) {
			return domain.Invariant(op, "invalid net point")
		}
		if seen[p.uuid] || s.hasElement(p.uuid) {
			return &domain.DuplicateEntityError{Entity: domain.EntityNetSegment, Key: "netpoint " + p.uuid.String()}
		}
		seen[p.uuid] = true
	}
	for _, l := range lines {
		if l == nil || l.segment != s || slices.Contains(s.lines, l) {
			return domain.Invariant(op, "invalid net line")
		}
		if seen[l.uuid] || s.hasElement(l.uuid) {
			return &domain.DuplicateEntityError{Entity: domain.EntityNetSegment, Key: "netline " + l.uuid.String()}
		}
		seen[l.uuid] = true
		for _, a := range []Anchor{l.start, l.end} {
			if !s.acceptsAnchor(a, vias, points) {
				return domain.Invariant(op, "net line %s has a foreign anchor", l.uuid)
			}
		}
	}
	s.vias = append(s.vias, vias...)
	s.points = append(s.points, points...)
	s.lines = append(s.lines, lines...)
	s.changed()
	return nil
}

// RemoveElements removes the given elements. A via or net point can only be
// removed together with every line attached to it.
func (s *NetSegment) RemoveElements(vias []*Via, points []*NetPoint, lines []*NetLine) error {
	const op = "netsegment.remove_elements"
	for _, v := range vias {
		if !s.hasVia(v) {
			return domain.Invariant(op, "via is not part of the segment")
		}
	}
	for _, p := range points {
		if !s.hasPoint(p) {
			return domain.Invariant(op, "net point is not part of the segment")
		}
	}
	for _, l := range lines {
		if !slices.Contains(s.lines, l) {
			return domain.Invariant(op, "net line is not part of the segment")
		}
	}
	for _, l := range s.lines {
		if slices.Contains(lines, l) {
			continue
		}
		for _, a := range []Anchor{l.start, l.end} {
			if v, ok := a.(*Via); ok && slices.Contains(vias, v) {
				return domain.Invariant(op, "via %s is still connected", v.uuid)
			}
			if p, ok := a.(*NetPoint); ok && slices.Contains(points, p) {
				return domain.Invariant(op, "net point %s is still connected", p.uuid)
			}
		}
	}
	s.lines = slices.DeleteFunc(s.lines, func(l *NetLine) bool { return slices.Contains(lines, l) })
	s.points = slices.DeleteFunc(s.points, func(p *NetPoint) bool { return slices.Contains(points, p) })
	s.vias = slices.DeleteFunc(s.vias, func(v *Via) bool { return slices.Contains(vias, v) })
	s.changed()
	return nil
}

// ViaByUUID, NetPointByUUID and NetLineByUUID look up owned elements.
func (s *NetSegment) ViaByUUID(id uuid.UUID) (*Via, bool) {
	for _, v := range s.vias {
		if v.uuid == id {
			return v, true
		}
	}
	return nil, false
}

func (s *NetSegment) NetPointByUUID(id uuid.UUID) (*NetPoint, bool) {
	for _, p := range s.points {
		if p.uuid == id {
			return p, true
		}
	}
	return nil, false
}

func (s *NetSegment) NetLineByUUID(id uuid.UUID) (*NetLine, bool) {
	for _, l := range s.lines {
		if l.uuid == id {
			return l, true
		}
	}
	return nil, false
}

func (s *NetSegment) hasVia(v *Via) bool        { return slices.Contains(s.vias, v) }
func (s *NetSegment) hasPoint(p *NetPoint) bool { return slices.Contains(s.points, p) }

func (s *NetSegment) hasElement(id uuid.UUID) bool {
	_, v := s.ViaByUUID(id)
	_, p := s.NetPointByUUID(id)
	_, l := s.NetLineByUUID(id)
	return v || p || l
}

func (s *NetSegment) acceptsAnchor(a Anchor, vias []*Via, points []*NetPoint) bool {
	switch a := a.(type) {
	case *Via:
		return a.segment == s && (s.hasVia(a) || slices.Contains(vias, a))
	case *NetPoint:
		return a.segment == s && (s.hasPoint(a) || slices.Contains(points, a))
	case *Pad:
		return a.device != nil && a.device.board == s.board
	default:
		return false
	}
}

func (s *NetSegment) changed() {
	if s.board != nil && s.board.netSegments.contains(s) {
		s.board.ScheduleAirWiresRebuild(s.netSignal)
	}
}

// setSelectionRect selects the owned elements inside r.
func (s *NetSegment) setSelectionRect(r geometry.Rect) {
	for _, v := range s.vias {
		v.selected = r.Intersects(v.GrabArea())
	}
	for _, p := range s.points {
		p.selected = r.Intersects(p.GrabArea())
	}
	for _, l := range s.lines {
		l.selected = r.Intersects(l.GrabArea())
	}
}

func (s *NetSegment) setSelectedAll(sel bool) {
	s.selected = sel
	for _, v := range s.vias {
		v.selected = sel
	}
	for _, p := range s.points {
		p.selected = sel
	}
	for _, l := range s.lines {
		l.selected = sel
	}
}

func (s *NetSegment) AddToBoard() error {
	if err := s.markAdded(KindNetSegment); err != nil {
		return err
	}
	if s.netSignal != nil {
		if err := s.netSignal.Register(s); err != nil {
			s.added = false
			return err
		}
	}
	return nil
}

func (s *NetSegment) RemoveFromBoard() error {
	if !s.added {
		return domain.Invariant("netsegment.remove_from_board", "not added")
	}
	if s.netSignal != nil {
		if err := s.netSignal.Unregister(s); err != nil {
			return err
		}
	}
	s.added = false
	return nil
}
