package board

import (
	"github.com/google/uuid"

	"boardcore/pkg/geometry"
)

// Polygon is a standalone outline on a graphics layer, e.g. the board outline.
type Polygon struct {
	itemBase
	uuid      uuid.UUID
	layer     string
	lineWidth geometry.Length
	filled    bool
	grabArea  bool
	path      geometry.Path
}

// NewPolygon returns a polygon on layer.
func NewPolygon(b *Board, id uuid.UUID, layer string, lineWidth geometry.Length, filled, grabArea bool, path geometry.Path) *Polygon {
	return &Polygon{
		itemBase:  itemBase{board: b},
		uuid:      id,
		layer:     layer,
		lineWidth: lineWidth,
		filled:    filled,
		grabArea:  grabArea,
		path:      path.Clone(),
	}
}

func (p *Polygon) Kind() ItemKind             { return KindPolygon }
func (p *Polygon) UUID() uuid.UUID            { return p.uuid }
func (p *Polygon) Layer() string              { return p.layer }
func (p *Polygon) LineWidth() geometry.Length { return p.lineWidth }
func (p *Polygon) IsFilled() bool             { return p.filled }
func (p *Polygon) IsGrabArea() bool           { return p.grabArea }
func (p *Polygon) Path() geometry.Path        { return p.path.Clone() }
func (p *Polygon) SetPath(path geometry.Path) { p.path = path.Clone() }
func (p *Polygon) GrabArea() geometry.Rect    { return p.path.Bounds() }
func (p *Polygon) AddToBoard() error          { return p.markAdded(KindPolygon) }
func (p *Polygon) RemoveFromBoard() error     { return p.markRemoved(KindPolygon) }

// StrokeText is text rendered with the stroke font. A text created for a
// device belongs to that device and is not a board collection member.
type StrokeText struct {
	itemBase
	uuid     uuid.UUID
	device   *Device
	layer    string
	text     string
	position geometry.Point
	rotation float64
	height   geometry.Length
}

// NewStrokeText returns a text. device may be nil for standalone texts.
func NewStrokeText(b *Board, device *Device, id uuid.UUID, layer, text string, pos geometry.Point, rotation float64, height geometry.Length) *StrokeText {
	return &StrokeText{
		itemBase: itemBase{board: b},
		uuid:     id,
		device:   device,
		layer:    layer,
		text:     text,
		position: pos,
		rotation: rotation,
		height:   height,
	}
}

func (t *StrokeText) Kind() ItemKind           { return KindStrokeText }
func (t *StrokeText) UUID() uuid.UUID          { return t.uuid }
func (t *StrokeText) Device() *Device          { return t.device }
func (t *StrokeText) Layer() string            { return t.layer }
func (t *StrokeText) Text() string             { return t.text }
func (t *StrokeText) Position() geometry.Point { return t.position }
func (t *StrokeText) Rotation() float64        { return t.rotation }
func (t *StrokeText) Height() geometry.Length  { return t.height }
func (t *StrokeText) SetText(text string)      { t.text = text }

func (t *StrokeText) GrabArea() geometry.Rect {
	w := geometry.Length(len(t.text)) * t.height * 4 / 5
	return geometry.RectFromPoints(t.position, t.position.Add(geometry.Pt(w, t.height)))
}

func (t *StrokeText) AddToBoard() error      { return t.markAdded(KindStrokeText) }
func (t *StrokeText) RemoveFromBoard() error { return t.markRemoved(KindStrokeText) }

// Hole is a non plated drill.
type Hole struct {
	itemBase
	uuid     uuid.UUID
	position geometry.Point
	diameter geometry.Length
}

// NewHole returns a hole.
func NewHole(b *Board, id uuid.UUID, pos geometry.Point, diameter geometry.Length) *Hole {
	return &Hole{itemBase: itemBase{board: b}, uuid: id, position: pos, diameter: diameter}
}

func (h *Hole) Kind() ItemKind            { return KindHole }
func (h *Hole) UUID() uuid.UUID           { return h.uuid }
func (h *Hole) Position() geometry.Point  { return h.position }
func (h *Hole) Diameter() geometry.Length { return h.diameter }
func (h *Hole) GrabArea() geometry.Rect   { return geometry.RectAround(h.position, h.diameter/2) }
func (h *Hole) AddToBoard() error         { return h.markAdded(KindHole) }
func (h *Hole) RemoveFromBoard() error    { return h.markRemoved(KindHole) }
