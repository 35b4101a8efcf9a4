package board

import (
	"maps"
	"math"
	"slices"

	"github.com/google/uuid"

	"boardcore/internal/project"
	"boardcore/pkg/domain"
	"boardcore/pkg/geometry"
)

// Anchor is something a net line can end at: a pad, a via or a net point.
type Anchor interface {
	Position() geometry.Point
	AnchorID() uuid.UUID
}

const padGrabHalfSize = 500 * geometry.Micrometer

// Pad is a copper pad of a placed device. Its position is relative to the
// device origin and follows the device transform.
type Pad struct {
	device    *Device
	libPad    uuid.UUID
	offset    geometry.Point
	netSignal *project.NetSignal
	selected  bool
	added     bool
}

func (p *Pad) Device() *Device               { return p.device }
func (p *Pad) LibPadUUID() uuid.UUID         { return p.libPad }
func (p *Pad) AnchorID() uuid.UUID           { return p.libPad }
func (p *Pad) Offset() geometry.Point        { return p.offset }
func (p *Pad) NetSignal() *project.NetSignal { return p.netSignal }
func (p *Pad) IsSelected() bool              { return p.selected }
func (p *Pad) SetSelected(sel bool)          { p.selected = sel }
func (p *Pad) IsAddedToBoard() bool          { return p.added }
func (p *Pad) GrabArea() geometry.Rect       { return geometry.RectAround(p.Position(), padGrabHalfSize) }

// Position returns the absolute pad position.
func (p *Pad) Position() geometry.Point { return p.device.transform(p.offset) }

func (p *Pad) addToBoard() error {
	if p.added {
		return domain.Invariant("pad.add_to_board", "already added")
	}
	if p.netSignal != nil {
		if err := p.netSignal.Register(p); err != nil {
			return err
		}
	}
	p.added = true
	return nil
}

func (p *Pad) removeFromBoard() error {
	if !p.added {
		return domain.Invariant("pad.remove_from_board", "not added")
	}
	if p.netSignal != nil {
		if err := p.netSignal.Unregister(p); err != nil {
			return err
		}
	}
	p.added = false
	return nil
}

// Device is the placed occurrence of a component instance. It is keyed by
// the component instance UUID.
type Device struct {
	itemBase
	component    *project.ComponentInstance
	libDevice    uuid.UUID
	libFootprint uuid.UUID
	position     geometry.Point
	rotation     float64
	mirrored     bool
	attributes   map[string]string
	pads         []*Pad
	texts        []*StrokeText
}

// NewDevice returns a device for component, placed at the origin.
func NewDevice(b *Board, component *project.ComponentInstance, libDevice, libFootprint uuid.UUID) *Device {
	return &Device{
		itemBase:     itemBase{board: b},
		component:    component,
		libDevice:    libDevice,
		libFootprint: libFootprint,
		attributes:   make(map[string]string),
	}
}

func (d *Device) Kind() ItemKind                                { return KindDevice }
func (d *Device) ComponentInstance() *project.ComponentInstance { return d.component }
func (d *Device) ComponentUUID() uuid.UUID                      { return d.component.UUID() }
func (d *Device) LibDeviceUUID() uuid.UUID                      { return d.libDevice }
func (d *Device) LibFootprintUUID() uuid.UUID                   { return d.libFootprint }
func (d *Device) Position() geometry.Point                      { return d.position }
func (d *Device) Rotation() float64                             { return d.rotation }
func (d *Device) IsMirrored() bool                              { return d.mirrored }
func (d *Device) Pads() []*Pad                                  { return slices.Clone(d.pads) }
func (d *Device) Texts() []*StrokeText                          { return slices.Clone(d.texts) }
func (d *Device) Attributes() map[string]string                 { return maps.Clone(d.attributes) }

// Pad returns the pad created from the given library pad.
func (d *Device) Pad(libPad uuid.UUID) (*Pad, bool) {
	for _, p := range d.pads {
		if p.libPad == libPad {
			return p, true
		}
	}
	return nil, false
}

// AddPad adds a pad. Pads can only be added while the device is not part of
// a board.
func (d *Device) AddPad(libPad uuid.UUID, offset geometry.Point, sig *project.NetSignal) (*Pad, error) {
	if d.isMember() {
		return nil, domain.Invariant("device.add_pad", "device %s is on the board", d.ComponentUUID())
	}
	if _, ok := d.Pad(libPad); ok {
		return nil, &domain.DuplicateEntityError{Entity: domain.EntityDevice, Key: "pad " + libPad.String()}
	}
	p := &Pad{device: d, libPad: libPad, offset: offset, netSignal: sig}
	d.pads = append(d.pads, p)
	return p, nil
}

// AddText attaches a stroke text to the device. The text must have been
// created for the device with NewStrokeText.
func (d *Device) AddText(t *StrokeText) error {
	switch {
	case t == nil || t.device != d:
		return domain.Invariant("device.add_text", "text does not belong to the device")
	case slices.Contains(d.texts, t):
		return domain.Invariant("device.add_text", "text already added")
	case d.isMember():
		return domain.Invariant("device.add_text", "device %s is on the board", d.ComponentUUID())
	}
	d.texts = append(d.texts, t)
	return nil
}

// SetPlacement moves the device. Net signals of its pads are scheduled for an
// airwire rebuild when the device is on the board.
func (d *Device) SetPlacement(pos geometry.Point, rotation float64, mirrored bool) {
	d.position, d.rotation, d.mirrored = pos, rotation, mirrored
	if d.isMember() {
		d.board.scheduleDevice(d)
	}
}

// SetAttributes replaces the user attributes.
func (d *Device) SetAttributes(attrs map[string]string) {
	if maps.Equal(attrs, d.attributes) {
		return
	}
	d.attributes = maps.Clone(attrs)
	if d.attributes == nil {
		d.attributes = make(map[string]string)
	}
	if d.isMember() {
		d.board.notify(Event{Kind: EventAttributesChanged, Item: d})
	}
}

func (d *Device) isMember() bool { return d.board != nil && d.board.devices.contains(d) }

// transform maps a footprint relative point to board coordinates.
func (d *Device) transform(p geometry.Point) geometry.Point {
	x, y := float64(p.X), float64(p.Y)
	if d.mirrored {
		x = -x
	}
	rad := d.rotation * math.Pi / 180
	sin, cos := math.Sincos(rad)
	rx := x*cos - y*sin
	ry := x*sin + y*cos
	return d.position.Add(geometry.Pt(geometry.Length(math.Round(rx)), geometry.Length(math.Round(ry))))
}

func (d *Device) GrabArea() geometry.Rect {
	r := geometry.RectAround(d.position, padGrabHalfSize)
	for _, p := range d.pads {
		r = r.Union(p.GrabArea())
	}
	return r
}

// AddToBoard registers all pads with their net signals. A failing pad rolls
// back the pads registered before it.
func (d *Device) AddToBoard() error {
	if d.added {
		return domain.Invariant("device.add_to_board", "already added")
	}
	for i, p := range d.pads {
		if err := p.addToBoard(); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = d.pads[j].removeFromBoard()
			}
			return err
		}
	}
	for _, t := range d.texts {
		t.added = true
	}
	d.added = true
	return nil
}

func (d *Device) RemoveFromBoard() error {
	if !d.added {
		return domain.Invariant("device.remove_from_board", "not added")
	}
	for i := len(d.pads) - 1; i >= 0; i-- {
		if err := d.pads[i].removeFromBoard(); err != nil {
			for j := i + 1; j < len(d.pads); j++ {
				_ = d.pads[j].addToBoard()
			}
			return err
		}
	}
	for _, t := range d.texts {
		t.added = false
	}
	d.added = false
	return nil
}

// netSignals returns the distinct net signals of the pads.
func (d *Device) netSignals() []*project.NetSignal {
	var out []*project.NetSignal
	for _, p := range d.pads {
		if p.netSignal != nil && !slices.Contains(out, p.netSignal) {
			out = append(out, p.netSignal)
		}
	}
	return out
}
