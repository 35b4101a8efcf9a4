package board

import (
	"fmt"

	"github.com/google/uuid"

	"boardcore/pkg/domain"
	"boardcore/pkg/geometry"
)

// CopyFrom deep copies every persistent item and the board settings of other
// into this empty board. All items get fresh UUIDs except devices, which stay
// keyed by their component instance. Net lines are reconnected to the copied
// pads, vias and net points. If inserting any item fails the board is left
// empty again with its previous settings.
func (b *Board) CopyFrom(other *Board) (err error) {
	if other == nil || other == b {
		return domain.Invariant("board.copy_from", "invalid source board")
	}
	if !b.IsEmpty() {
		return domain.Invariant("board.copy_from", "board %q is not empty", b.name)
	}
	font, grid, layers, rules, fab := b.defaultFont, b.grid, b.layers, b.designRules, b.fabrication
	b.defaultFont = other.defaultFont
	b.grid = other.grid
	b.layers = other.layers.clone()
	b.designRules = other.designRules
	b.fabrication = other.fabrication

	anchors := make(map[Anchor]Anchor)
	guard := &scopeGuard{}
	defer func() {
		if err != nil {
			if rbErr := guard.rollback(); rbErr != nil {
				err = fmt.Errorf("%w: %w: %w", err, domain.ErrCompensationFailed, rbErr)
			}
			b.defaultFont, b.grid, b.layers, b.designRules, b.fabrication = font, grid, layers, rules, fab
		}
	}()

	for _, src := range other.devices.items {
		d := NewDevice(b, src.component, src.libDevice, src.libFootprint)
		d.position, d.rotation, d.mirrored = src.position, src.rotation, src.mirrored
		d.attributes = src.Attributes()
		for _, p := range src.pads {
			np, err := d.AddPad(p.libPad, p.offset, p.netSignal)
			if err != nil {
				return err
			}
			anchors[p] = np
		}
		for _, t := range src.texts {
			if err := d.AddText(NewStrokeText(b, d, uuid.New(), t.layer, t.text, t.position, t.rotation, t.height)); err != nil {
				return err
			}
		}
		if err := b.AddDevice(d); err != nil {
			return fmt.Errorf("copy device %s: %w", src.ComponentUUID(), err)
		}
		guard.add(func() error { return b.RemoveDevice(d) })
	}

	for _, src := range other.netSegments.items {
		s := NewNetSegment(b, uuid.New(), src.netSignal)
		vias := make([]*Via, 0, len(src.vias))
		for _, v := range src.vias {
			nv := NewVia(s, uuid.New(), v.position, v.size, v.drill)
			anchors[v] = nv
			vias = append(vias, nv)
		}
		points := make([]*NetPoint, 0, len(src.points))
		for _, p := range src.points {
			np := NewNetPoint(s, uuid.New(), p.position)
			anchors[p] = np
			points = append(points, np)
		}
		lines := make([]*NetLine, 0, len(src.lines))
		for _, l := range src.lines {
			start, ok1 := anchors[l.start]
			end, ok2 := anchors[l.end]
			if !ok1 || !ok2 {
				return domain.Invariant("board.copy_from", "net line %s has an unknown anchor", l.uuid)
			}
			lines = append(lines, NewNetLine(s, uuid.New(), start, end, l.layer, l.width))
		}
		if err := s.AddElements(vias, points, lines); err != nil {
			return err
		}
		if err := b.AddNetSegment(s); err != nil {
			return fmt.Errorf("copy net segment %s: %w", src.uuid, err)
		}
		guard.add(func() error { return b.RemoveNetSegment(s) })
	}

	for _, src := range other.planes.items {
		p := NewPlane(b, uuid.New(), src.layer, src.netSignal, src.outline)
		p.minWidth = src.minWidth
		p.minClearance = src.minClearance
		p.keepOrphans = src.keepOrphans
		p.priority = src.priority
		p.connectStyle = src.connectStyle
		p.visible = src.visible
		p.setFragments(src.fragments)
		if err := b.AddPlane(p); err != nil {
			return fmt.Errorf("copy plane %s: %w", src.uuid, err)
		}
		guard.add(func() error { return b.RemovePlane(p) })
	}

	for _, src := range other.polygons.items {
		p := NewPolygon(b, uuid.New(), src.layer, src.lineWidth, src.filled, src.grabArea, src.path)
		if err := b.AddPolygon(p); err != nil {
			return err
		}
		guard.add(func() error { return b.RemovePolygon(p) })
	}
	for _, src := range other.strokeTexts.items {
		t := NewStrokeText(b, nil, uuid.New(), src.layer, src.text, src.position, src.rotation, src.height)
		if err := b.AddStrokeText(t); err != nil {
			return err
		}
		guard.add(func() error { return b.RemoveStrokeText(t) })
	}
	for _, src := range other.holes.items {
		h := NewHole(b, uuid.New(), src.position, src.diameter)
		if err := b.AddHole(h); err != nil {
			return err
		}
		guard.add(func() error { return b.RemoveHole(h) })
	}
	guard.dismiss()
	return nil
}

// Default board outline size.
const (
	DefaultOutlineWidth  = 100 * geometry.Millimeter
	DefaultOutlineHeight = 80 * geometry.Millimeter
)

// AddDefaultContent adds the default board outline.
func (b *Board) AddDefaultContent() error {
	outline := geometry.RectPath(geometry.Pt(0, 0), geometry.Pt(DefaultOutlineWidth, DefaultOutlineHeight))
	return b.AddPolygon(NewPolygon(b, uuid.New(), LayerBoardOutlines, 0, false, true, outline))
}
