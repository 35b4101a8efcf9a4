// Package board implements the board document: the collections of placed
// devices, routing, planes and graphics of one PCB, their undoable edit
// commands, the attach/detach transaction against the owning project and the
// derived plane and airwire rebuild pipelines.
package board

import (
	"slices"
	"sort"

	"github.com/google/uuid"

	"boardcore/internal/blob"
	"boardcore/internal/erc"
	"boardcore/internal/logging"
	"boardcore/internal/project"
	"boardcore/pkg/domain"
	"boardcore/pkg/geometry"
)

// Board is a single PCB document. It is not safe for concurrent use.
type Board struct {
	project *project.Project
	dir     *blob.Directory
	dirName string
	uuid    uuid.UUID
	name    string
	cfg     Config
	logger  logging.Logger

	defaultFont    string
	grid           GridSettings
	layers         LayerStack
	designRules    DesignRules
	fabrication    FabricationOutputSettings
	addedToProject bool

	devices     *collection[uuid.UUID, *Device]
	netSegments *collection[uuid.UUID, *NetSegment]
	planes      *collection[uuid.UUID, *Plane]
	polygons    *collection[uuid.UUID, *Polygon]
	strokeTexts *collection[uuid.UUID, *StrokeText]
	holes       *collection[uuid.UUID, *Hole]
	airWires    []*AirWire
	pending     map[*project.NetSignal]struct{}
	ercMessages map[uuid.UUID]*erc.Message

	fragmentsBuilder FragmentsBuilder
	airWiresBuilder  AirWiresBuilder

	observers          map[int]func(Event)
	nextObserver       int
	unsubscribeCircuit func()
}

// New returns an empty board of p backed by dir. The board is not attached;
// use Project.AddBoard or AddToProject.
func New(p *project.Project, dir *blob.Directory, dirName, name string, opts ...Option) *Board {
	b := &Board{
		project:     p,
		dir:         dir,
		dirName:     dirName,
		uuid:        uuid.New(),
		name:        name,
		cfg:         DefaultConfig(),
		logger:      logging.Noop(),
		devices:     newCollection(domain.EntityDevice, (*Device).ComponentUUID),
		netSegments: newCollection(domain.EntityNetSegment, (*NetSegment).UUID),
		planes:      newCollection(domain.EntityPlane, (*Plane).UUID),
		polygons:    newCollection(domain.EntityPolygon, (*Polygon).UUID),
		strokeTexts: newCollection(domain.EntityStrokeText, (*StrokeText).UUID),
		holes:       newCollection(domain.EntityHole, (*Hole).UUID),
		pending:     make(map[*project.NetSignal]struct{}),
		ercMessages: make(map[uuid.UUID]*erc.Message),
		observers:   make(map[int]func(Event)),
	}
	b.fragmentsBuilder = OutlineFragmentsBuilder{Board: b}
	b.airWiresBuilder = MSTAirWiresBuilder{}
	for _, opt := range opts {
		opt(b)
	}
	b.defaultFont = b.cfg.DefaultFont
	b.grid = GridSettings{Type: "lines", Interval: b.cfg.GridInterval, Unit: b.cfg.GridUnit}
	b.layers = DefaultLayerStack()
	b.designRules = DefaultDesignRules()
	b.fabrication = DefaultFabricationOutputSettings()
	b.unsubscribeCircuit = p.Circuit().Subscribe(b.onCircuitEvent)
	return b
}

// Close detaches the board from circuit notifications. The board must not be
// attached.
func (b *Board) Close() {
	if b.unsubscribeCircuit != nil {
		b.unsubscribeCircuit()
		b.unsubscribeCircuit = nil
	}
}

func (b *Board) UUID() uuid.UUID            { return b.uuid }
func (b *Board) Name() string               { return b.name }
func (b *Board) DirName() string            { return b.dirName }
func (b *Board) Project() *project.Project  { return b.project }
func (b *Board) Directory() *blob.Directory { return b.dir }
func (b *Board) Config() Config             { return b.cfg }
func (b *Board) IsAddedToProject() bool     { return b.addedToProject }

func (b *Board) DefaultFont() string                                  { return b.defaultFont }
func (b *Board) Grid() GridSettings                                   { return b.grid }
func (b *Board) LayerStack() LayerStack                               { return b.layers.clone() }
func (b *Board) DesignRules() DesignRules                             { return b.designRules }
func (b *Board) FabricationOutputSettings() FabricationOutputSettings { return b.fabrication }

func (b *Board) SetName(name string)                                      { b.name = name }
func (b *Board) SetDefaultFont(font string)                               { b.defaultFont = font }
func (b *Board) SetGrid(g GridSettings)                                   { b.grid = g }
func (b *Board) SetLayerStack(s LayerStack)                               { b.layers = s.clone() }
func (b *Board) SetDesignRules(r DesignRules)                             { b.designRules = r }
func (b *Board) SetFabricationOutputSettings(s FabricationOutputSettings) { b.fabrication = s }

// Devices

// Devices returns the devices in insertion order.
func (b *Board) Devices() []*Device { return b.devices.values() }

// DeviceByComponent returns the device realizing the component instance.
func (b *Board) DeviceByComponent(component uuid.UUID) (*Device, bool) {
	return b.devices.get(component)
}

// AddDevice adds d and resyncs the ERC messages of the board.
func (b *Board) AddDevice(d *Device) error {
	if err := addItem(b, b.devices, d); err != nil {
		return err
	}
	b.scheduleDevice(d)
	b.updateErcMessages()
	b.notify(Event{Kind: EventDeviceAdded, Item: d})
	return nil
}

// RemoveDevice removes d from the board. It fails while a net line on the
// board still ends at one of its pads.
func (b *Board) RemoveDevice(d *Device) error {
	if d != nil && b.devices.contains(d) {
		if p := b.connectedPad(d); p != nil {
			return domain.Invariant("device.remove", "pad %s is still connected", p.libPad)
		}
	}
	if err := removeItem(b, b.devices, d); err != nil {
		return err
	}
	b.scheduleDevice(d)
	b.updateErcMessages()
	b.notify(Event{Kind: EventDeviceRemoved, Item: d})
	return nil
}

func (b *Board) connectedPad(d *Device) *Pad {
	for _, s := range b.netSegments.items {
		for _, l := range s.lines {
			for _, a := range []Anchor{l.start, l.end} {
				if p, ok := a.(*Pad); ok && p.device == d {
					return p
				}
			}
		}
	}
	return nil
}

func (b *Board) scheduleDevice(d *Device) {
	for _, sig := range d.netSignals() {
		b.ScheduleAirWiresRebuild(sig)
	}
}

// Net segments

// NetSegments returns the net segments in insertion order.
func (b *Board) NetSegments() []*NetSegment { return b.netSegments.values() }

// NetSegmentByUUID looks up a net segment.
func (b *Board) NetSegmentByUUID(id uuid.UUID) (*NetSegment, bool) { return b.netSegments.get(id) }

// AddNetSegment adds s and schedules its net signal for an airwire rebuild.
func (b *Board) AddNetSegment(s *NetSegment) error {
	if err := addItem(b, b.netSegments, s); err != nil {
		return err
	}
	b.ScheduleAirWiresRebuild(s.netSignal)
	b.notify(Event{Kind: EventItemAdded, Item: s})
	return nil
}

// RemoveNetSegment removes s and schedules its net signal for an airwire rebuild.
func (b *Board) RemoveNetSegment(s *NetSegment) error {
	if err := removeItem(b, b.netSegments, s); err != nil {
		return err
	}
	b.ScheduleAirWiresRebuild(s.netSignal)
	b.notify(Event{Kind: EventItemRemoved, Item: s})
	return nil
}

// Planes

// Planes returns the planes in insertion order.
func (b *Board) Planes() []*Plane { return b.planes.values() }

// PlaneByUUID looks up a plane.
func (b *Board) PlaneByUUID(id uuid.UUID) (*Plane, bool) { return b.planes.get(id) }

// AddPlane adds p. Its fragments stay empty until the next plane rebuild.
func (b *Board) AddPlane(p *Plane) error {
	if err := addItem(b, b.planes, p); err != nil {
		return err
	}
	b.ScheduleAirWiresRebuild(p.netSignal)
	b.notify(Event{Kind: EventItemAdded, Item: p})
	return nil
}

// RemovePlane removes p.
func (b *Board) RemovePlane(p *Plane) error {
	if err := removeItem(b, b.planes, p); err != nil {
		return err
	}
	b.ScheduleAirWiresRebuild(p.netSignal)
	b.notify(Event{Kind: EventItemRemoved, Item: p})
	return nil
}

// Polygons

// Polygons returns the polygons in insertion order.
func (b *Board) Polygons() []*Polygon { return b.polygons.values() }

// PolygonByUUID looks up a polygon.
func (b *Board) PolygonByUUID(id uuid.UUID) (*Polygon, bool) { return b.polygons.get(id) }

// AddPolygon adds p.
func (b *Board) AddPolygon(p *Polygon) error {
	if err := addItem(b, b.polygons, p); err != nil {
		return err
	}
	b.notify(Event{Kind: EventItemAdded, Item: p})
	return nil
}

// RemovePolygon removes p.
func (b *Board) RemovePolygon(p *Polygon) error {
	if err := removeItem(b, b.polygons, p); err != nil {
		return err
	}
	b.notify(Event{Kind: EventItemRemoved, Item: p})
	return nil
}

// Stroke texts

// StrokeTexts returns the board texts in insertion order. Device texts are
// not included.
func (b *Board) StrokeTexts() []*StrokeText { return b.strokeTexts.values() }

// StrokeTextByUUID looks up a board text.
func (b *Board) StrokeTextByUUID(id uuid.UUID) (*StrokeText, bool) { return b.strokeTexts.get(id) }

// AddStrokeText adds a board text. Texts owned by a device are rejected.
func (b *Board) AddStrokeText(t *StrokeText) error {
	if t != nil && t.device != nil {
		return domain.Invariant("stroke_text.add", "text belongs to device %s", t.device.ComponentUUID())
	}
	if err := addItem(b, b.strokeTexts, t); err != nil {
		return err
	}
	b.notify(Event{Kind: EventItemAdded, Item: t})
	return nil
}

// RemoveStrokeText removes t.
func (b *Board) RemoveStrokeText(t *StrokeText) error {
	if err := removeItem(b, b.strokeTexts, t); err != nil {
		return err
	}
	b.notify(Event{Kind: EventItemRemoved, Item: t})
	return nil
}

// Holes

// Holes returns the holes in insertion order.
func (b *Board) Holes() []*Hole { return b.holes.values() }

// HoleByUUID looks up a hole.
func (b *Board) HoleByUUID(id uuid.UUID) (*Hole, bool) { return b.holes.get(id) }

// AddHole adds h.
func (b *Board) AddHole(h *Hole) error {
	if err := addItem(b, b.holes, h); err != nil {
		return err
	}
	b.notify(Event{Kind: EventItemAdded, Item: h})
	return nil
}

// RemoveHole removes h.
func (b *Board) RemoveHole(h *Hole) error {
	if err := removeItem(b, b.holes, h); err != nil {
		return err
	}
	b.notify(Event{Kind: EventItemRemoved, Item: h})
	return nil
}

// AirWires returns the current airwires.
func (b *Board) AirWires() []*AirWire { return slices.Clone(b.airWires) }

// AirWiresOf returns the airwires of sig.
func (b *Board) AirWiresOf(sig *project.NetSignal) []*AirWire {
	var out []*AirWire
	for _, a := range b.airWires {
		if a.netSignal == sig {
			out = append(out, a)
		}
	}
	return out
}

// AllItems returns every item: devices, net segments, planes, polygons,
// stroke texts, holes, then airwires.
func (b *Board) AllItems() []Item {
	items := make([]Item, 0, b.itemCount()+len(b.airWires))
	for _, d := range b.devices.items {
		items = append(items, d)
	}
	for _, s := range b.netSegments.items {
		items = append(items, s)
	}
	for _, p := range b.planes.items {
		items = append(items, p)
	}
	for _, p := range b.polygons.items {
		items = append(items, p)
	}
	for _, t := range b.strokeTexts.items {
		items = append(items, t)
	}
	for _, h := range b.holes.items {
		items = append(items, h)
	}
	for _, a := range b.airWires {
		items = append(items, a)
	}
	return items
}

func (b *Board) itemCount() int {
	return b.devices.len() + b.netSegments.len() + b.planes.len() +
		b.polygons.len() + b.strokeTexts.len() + b.holes.len()
}

// IsEmpty reports whether the board has no persistent items. Airwires are
// derived and do not count.
func (b *Board) IsEmpty() bool { return b.itemCount() == 0 }

// Selection

// SelectAll selects every selectable item, including pads, texts and net
// segment elements.
func (b *Board) SelectAll() {
	for _, item := range b.AllItems() {
		switch it := item.(type) {
		case *Device:
			it.selected = true
			for _, p := range it.pads {
				p.selected = true
			}
			for _, t := range it.texts {
				t.selected = true
			}
		case *NetSegment:
			it.setSelectedAll(true)
		default:
			item.SetSelected(true)
		}
	}
}

// SetSelectionRect selects every item whose grab area intersects the
// rectangle spanned by p1 and p2. Pads and texts of a device are selected
// when the device or the child itself is hit. With updateItems false only
// the hit test runs and the selected items are returned without changing
// any selection state.
func (b *Board) SetSelectionRect(p1, p2 geometry.Point, updateItems bool) []Item {
	r := geometry.RectFromPoints(p1, p2)
	var hit []Item
	for _, item := range b.AllItems() {
		if !item.IsSelectable() {
			continue
		}
		sel := r.Intersects(item.GrabArea())
		if sel {
			hit = append(hit, item)
		}
		if !updateItems {
			continue
		}
		switch it := item.(type) {
		case *Device:
			it.selected = sel
			for _, p := range it.pads {
				p.selected = sel || r.Intersects(p.GrabArea())
			}
			for _, t := range it.texts {
				t.selected = sel || r.Intersects(t.GrabArea())
			}
		case *NetSegment:
			it.setSelectionRect(r)
			it.selected = sel
		default:
			item.SetSelected(sel)
		}
	}
	return hit
}

// ClearSelection deselects everything SelectAll can select.
func (b *Board) ClearSelection() {
	for _, item := range b.AllItems() {
		switch it := item.(type) {
		case *Device:
			it.selected = false
			for _, p := range it.pads {
				p.selected = false
			}
			for _, t := range it.texts {
				t.selected = false
			}
		case *NetSegment:
			it.setSelectedAll(false)
		default:
			item.SetSelected(false)
		}
	}
}

// SelectedItems returns the selected top level items in AllItems order.
func (b *Board) SelectedItems() []Item {
	var out []Item
	for _, item := range b.AllItems() {
		if item.IsSelected() {
			out = append(out, item)
		}
	}
	return out
}

func (b *Board) onCircuitEvent(ev project.Event) {
	switch ev.Kind {
	case project.ComponentAdded, project.ComponentRemoved:
		b.updateErcMessages()
	case project.NetSignalRemoved:
		if len(b.AirWiresOf(ev.NetSignal)) > 0 {
			b.ScheduleAirWiresRebuild(ev.NetSignal)
		}
	}
}

// pendingSignals returns the scheduled signals ordered by name then UUID.
func (b *Board) pendingSignals() []*project.NetSignal {
	out := make([]*project.NetSignal, 0, len(b.pending))
	for sig := range b.pending {
		out = append(out, sig)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name() != out[j].Name() {
			return out[i].Name() < out[j].Name()
		}
		return out[i].UUID().String() < out[j].UUID().String()
	})
	return out
}
