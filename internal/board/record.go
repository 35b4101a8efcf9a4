package board

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"boardcore/internal/blob"
	"boardcore/internal/project"
	"boardcore/pkg/domain"
	"boardcore/pkg/geometry"
)

// File names inside the board directory.
const (
	BoardFile        = "board.json"
	UserSettingsFile = "settings.user.yaml"
)

// Record is the persisted form of a board. Field order is fixed and starts
// with the board UUID; the file format version comes last. Devices keep
// insertion order and every other list is sorted by UUID.
type Record struct {
	UUID        string                    `json:"uuid"`
	Name        string                    `json:"name"`
	DefaultFont string                    `json:"default_font"`
	Grid        GridSettings              `json:"grid"`
	Layers      LayerStack                `json:"layers"`
	DesignRules DesignRules               `json:"design_rules"`
	Fabrication FabricationOutputSettings `json:"fabrication_output_settings"`
	Devices     []DeviceRecord            `json:"devices"`
	NetSegments []NetSegmentRecord        `json:"netsegments"`
	Planes      []PlaneRecord             `json:"planes"`
	Polygons    []PolygonRecord           `json:"polygons"`
	StrokeTexts []StrokeTextRecord        `json:"stroke_texts"`
	Holes       []HoleRecord              `json:"holes"`
	Version     string                    `json:"version"`
}

type DeviceRecord struct {
	Component    string             `json:"component"`
	LibDevice    string             `json:"lib_device"`
	LibFootprint string             `json:"lib_footprint"`
	Position     geometry.Point     `json:"position"`
	Rotation     float64            `json:"rotation"`
	Mirrored     bool               `json:"mirror"`
	Attributes   map[string]string  `json:"attributes,omitempty"`
	Pads         []PadRecord        `json:"pads"`
	Texts        []StrokeTextRecord `json:"texts,omitempty"`
}

type PadRecord struct {
	LibPad    string         `json:"lib_pad"`
	Offset    geometry.Point `json:"offset"`
	NetSignal string         `json:"netsignal,omitempty"`
}

type NetSegmentRecord struct {
	UUID      string           `json:"uuid"`
	NetSignal string           `json:"netsignal"`
	Vias      []ViaRecord      `json:"vias"`
	NetPoints []NetPointRecord `json:"netpoints"`
	NetLines  []NetLineRecord  `json:"netlines"`
}

type ViaRecord struct {
	UUID     string          `json:"uuid"`
	Position geometry.Point  `json:"position"`
	Size     geometry.Length `json:"size"`
	Drill    geometry.Length `json:"drill"`
}

type NetPointRecord struct {
	UUID     string         `json:"uuid"`
	Position geometry.Point `json:"position"`
}

// AnchorRef points at a pad (device + library pad), a via or a net point.
type AnchorRef struct {
	Device   string `json:"device,omitempty"`
	Pad      string `json:"pad,omitempty"`
	Via      string `json:"via,omitempty"`
	NetPoint string `json:"netpoint,omitempty"`
}

type NetLineRecord struct {
	UUID  string          `json:"uuid"`
	Start AnchorRef       `json:"from"`
	End   AnchorRef       `json:"to"`
	Layer string          `json:"layer"`
	Width geometry.Length `json:"width"`
}

type PlaneRecord struct {
	UUID         string          `json:"uuid"`
	Layer        string          `json:"layer"`
	NetSignal    string          `json:"netsignal,omitempty"`
	Outline      geometry.Path   `json:"outline"`
	MinWidth     geometry.Length `json:"min_width"`
	MinClearance geometry.Length `json:"min_clearance"`
	KeepOrphans  bool            `json:"keep_orphans"`
	Priority     int             `json:"priority"`
	ConnectStyle string          `json:"connect_style"`
}

type PolygonRecord struct {
	UUID     string          `json:"uuid"`
	Layer    string          `json:"layer"`
	Width    geometry.Length `json:"width"`
	Fill     bool            `json:"fill"`
	GrabArea bool            `json:"grab_area"`
	Path     geometry.Path   `json:"path"`
}

type StrokeTextRecord struct {
	UUID     string          `json:"uuid"`
	Layer    string          `json:"layer"`
	Text     string          `json:"text"`
	Position geometry.Point  `json:"position"`
	Rotation float64         `json:"rotation"`
	Height   geometry.Length `json:"height"`
}

type HoleRecord struct {
	UUID     string          `json:"uuid"`
	Position geometry.Point  `json:"position"`
	Diameter geometry.Length `json:"diameter"`
}

func sortByUUID[T any](items []T, key func(T) string) {
	slices.SortStableFunc(items, func(a, b T) int { return strings.Compare(key(a), key(b)) })
}

func signalID(sig *project.NetSignal) string {
	if sig == nil {
		return ""
	}
	return sig.UUID().String()
}

func textRecord(t *StrokeText) StrokeTextRecord {
	return StrokeTextRecord{
		UUID:     t.uuid.String(), Layer: t.layer, Text: t.text,
		Position: t.position, Rotation: t.rotation, Height: t.height,
	}
}

func anchorRef(a Anchor) AnchorRef {
	switch a := a.(type) {
	case *Pad:
		return AnchorRef{Device: a.device.ComponentUUID().String(), Pad: a.libPad.String()}
	case *Via:
		return AnchorRef{Via: a.uuid.String()}
	case *NetPoint:
		return AnchorRef{NetPoint: a.uuid.String()}
	}
	return AnchorRef{}
}

// Record returns the persisted form of the board.
func (b *Board) Record() Record {
	rec := Record{
		UUID:        b.uuid.String(),
		Name:        b.name,
		DefaultFont: b.defaultFont,
		Grid:        b.grid,
		Layers:      LayerStack{InnerLayers: b.layers.InnerLayers},
		DesignRules: b.designRules,
		Fabrication: b.fabrication,
		Devices:     []DeviceRecord{},
		NetSegments: []NetSegmentRecord{},
		Planes:      []PlaneRecord{},
		Polygons:    []PolygonRecord{},
		StrokeTexts: []StrokeTextRecord{},
		Holes:       []HoleRecord{},
		Version:     b.cfg.FileFormatVersion,
	}
	for _, d := range b.devices.items {
		dr := DeviceRecord{
			Component:    d.ComponentUUID().String(),
			LibDevice:    d.libDevice.String(),
			LibFootprint: d.libFootprint.String(),
			Position:     d.position,
			Rotation:     d.rotation,
			Mirrored:     d.mirrored,
			Pads:         make([]PadRecord, 0, len(d.pads)),
		}
		if len(d.attributes) > 0 {
			dr.Attributes = d.Attributes()
		}
		for _, p := range d.pads {
			dr.Pads = append(dr.Pads, PadRecord{LibPad: p.libPad.String(), Offset: p.offset, NetSignal: signalID(p.netSignal)})
		}
		for _, t := range d.texts {
			dr.Texts = append(dr.Texts, textRecord(t))
		}
		sortByUUID(dr.Texts, func(t StrokeTextRecord) string { return t.UUID })
		rec.Devices = append(rec.Devices, dr)
	}
	for _, s := range b.netSegments.items {
		sr := NetSegmentRecord{
			UUID:      s.uuid.String(),
			NetSignal: signalID(s.netSignal),
			Vias:      make([]ViaRecord, 0, len(s.vias)),
			NetPoints: make([]NetPointRecord, 0, len(s.points)),
			NetLines:  make([]NetLineRecord, 0, len(s.lines)),
		}
		for _, v := range s.vias {
			sr.Vias = append(sr.Vias, ViaRecord{UUID: v.uuid.String(), Position: v.position, Size: v.size, Drill: v.drill})
		}
		for _, p := range s.points {
			sr.NetPoints = append(sr.NetPoints, NetPointRecord{UUID: p.uuid.String(), Position: p.position})
		}
		for _, l := range s.lines {
			sr.NetLines = append(sr.NetLines, NetLineRecord{
				UUID: l.uuid.String(), Start: anchorRef(l.start), End: anchorRef(l.end), Layer: l.layer, Width: l.width,
			})
		}
		sortByUUID(sr.Vias, func(v ViaRecord) string { return v.UUID })
		sortByUUID(sr.NetPoints, func(p NetPointRecord) string { return p.UUID })
		sortByUUID(sr.NetLines, func(l NetLineRecord) string { return l.UUID })
		rec.NetSegments = append(rec.NetSegments, sr)
	}
	for _, p := range b.planes.items {
		rec.Planes = append(rec.Planes, PlaneRecord{
			UUID:     p.uuid.String(), Layer: p.layer, NetSignal: signalID(p.netSignal), Outline: p.outline.Clone(),
			MinWidth: p.minWidth, MinClearance: p.minClearance, KeepOrphans: p.keepOrphans,
			Priority: p.priority, ConnectStyle: p.connectStyle.String(),
		})
	}
	for _, p := range b.polygons.items {
		rec.Polygons = append(rec.Polygons, PolygonRecord{
			UUID: p.uuid.String(), Layer: p.layer, Width: p.lineWidth, Fill: p.filled, GrabArea: p.grabArea, Path: p.path.Clone(),
		})
	}
	for _, t := range b.strokeTexts.items {
		rec.StrokeTexts = append(rec.StrokeTexts, textRecord(t))
	}
	for _, h := range b.holes.items {
		rec.Holes = append(rec.Holes, HoleRecord{UUID: h.uuid.String(), Position: h.position, Diameter: h.diameter})
	}
	sortByUUID(rec.NetSegments, func(s NetSegmentRecord) string { return s.UUID })
	sortByUUID(rec.Planes, func(p PlaneRecord) string { return p.UUID })
	sortByUUID(rec.Polygons, func(p PolygonRecord) string { return p.UUID })
	sortByUUID(rec.StrokeTexts, func(t StrokeTextRecord) string { return t.UUID })
	sortByUUID(rec.Holes, func(h HoleRecord) string { return h.UUID })
	return rec
}

// EncodeRecord writes rec as indented JSON.
func EncodeRecord(w io.Writer, rec Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

// DecodeRecord reads a record written by EncodeRecord.
func DecodeRecord(r io.Reader) (Record, error) {
	var rec Record
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("decode board record: %w", err)
	}
	return rec, nil
}

// resolver maps record references to project objects.
type resolver struct {
	circuit *project.Circuit
}

func (r resolver) signal(id string) (*project.NetSignal, error) {
	if id == "" {
		return nil, nil
	}
	u, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("netsignal %q: %w", id, err)
	}
	sig, ok := r.circuit.NetSignalByUUID(u)
	if !ok {
		return nil, domain.NotFoundError{Entity: domain.EntityNetSignal, ID: id}
	}
	return sig, nil
}

func parseUUIDs(ids ...string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, len(ids))
	for i, id := range ids {
		u, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("uuid %q: %w", id, err)
		}
		out[i] = u
	}
	return out, nil
}

// FromRecord builds a detached board of p from rec. The board is only
// returned when every item could be restored.
func FromRecord(p *project.Project, dir *blob.Directory, rec Record, opts ...Option) (*Board, error) {
	id, err := uuid.Parse(rec.UUID)
	if err != nil {
		return nil, fmt.Errorf("board uuid: %w", err)
	}
	b := New(p, dir, dir.Name(), rec.Name, append(slices.Clone(opts), WithUUID(id))...)
	if err := b.restore(rec); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func (b *Board) restore(rec Record) error {
	res := resolver{circuit: b.project.Circuit()}
	b.defaultFont = rec.DefaultFont
	b.grid = rec.Grid
	b.layers.InnerLayers = rec.Layers.InnerLayers
	b.designRules = rec.DesignRules
	b.fabrication = rec.Fabrication

	for _, dr := range rec.Devices {
		ids, err := parseUUIDs(dr.Component, dr.LibDevice, dr.LibFootprint)
		if err != nil {
			return err
		}
		ci, ok := res.circuit.ComponentByUUID(ids[0])
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityComponent, ID: dr.Component}
		}
		d := NewDevice(b, ci, ids[1], ids[2])
		d.position, d.rotation, d.mirrored = dr.Position, dr.Rotation, dr.Mirrored
		if dr.Attributes != nil {
			d.attributes = dr.Attributes
		}
		for _, pr := range dr.Pads {
			lib, err := uuid.Parse(pr.LibPad)
			if err != nil {
				return fmt.Errorf("pad uuid: %w", err)
			}
			sig, err := res.signal(pr.NetSignal)
			if err != nil {
				return err
			}
			if _, err := d.AddPad(lib, pr.Offset, sig); err != nil {
				return err
			}
		}
		for _, tr := range dr.Texts {
			tid, err := uuid.Parse(tr.UUID)
			if err != nil {
				return fmt.Errorf("text uuid: %w", err)
			}
			if err := d.AddText(NewStrokeText(b, d, tid, tr.Layer, tr.Text, tr.Position, tr.Rotation, tr.Height)); err != nil {
				return err
			}
		}
		if err := b.AddDevice(d); err != nil {
			return fmt.Errorf("restore device %s: %w", dr.Component, err)
		}
	}

	for _, sr := range rec.NetSegments {
		sid, err := uuid.Parse(sr.UUID)
		if err != nil {
			return fmt.Errorf("netsegment uuid: %w", err)
		}
		sig, err := res.signal(sr.NetSignal)
		if err != nil {
			return err
		}
		s := NewNetSegment(b, sid, sig)
		if err := b.restoreSegmentElements(s, sr); err != nil {
			return fmt.Errorf("restore netsegment %s: %w", sr.UUID, err)
		}
		if err := b.AddNetSegment(s); err != nil {
			return fmt.Errorf("restore netsegment %s: %w", sr.UUID, err)
		}
	}

	for _, pr := range rec.Planes {
		pid, err := uuid.Parse(pr.UUID)
		if err != nil {
			return fmt.Errorf("plane uuid: %w", err)
		}
		sig, err := res.signal(pr.NetSignal)
		if err != nil {
			return err
		}
		style, err := ParseConnectStyle(pr.ConnectStyle)
		if err != nil {
			return err
		}
		p := NewPlane(b, pid, pr.Layer, sig, pr.Outline)
		p.minWidth, p.minClearance, p.keepOrphans = pr.MinWidth, pr.MinClearance, pr.KeepOrphans
		p.priority, p.connectStyle = pr.Priority, style
		if err := b.AddPlane(p); err != nil {
			return fmt.Errorf("restore plane %s: %w", pr.UUID, err)
		}
	}
	for _, pr := range rec.Polygons {
		pid, err := uuid.Parse(pr.UUID)
		if err != nil {
			return fmt.Errorf("polygon uuid: %w", err)
		}
		if err := b.AddPolygon(NewPolygon(b, pid, pr.Layer, pr.Width, pr.Fill, pr.GrabArea, pr.Path)); err != nil {
			return fmt.Errorf("restore polygon %s: %w", pr.UUID, err)
		}
	}
	for _, tr := range rec.StrokeTexts {
		tid, err := uuid.Parse(tr.UUID)
		if err != nil {
			return fmt.Errorf("text uuid: %w", err)
		}
		if err := b.AddStrokeText(NewStrokeText(b, nil, tid, tr.Layer, tr.Text, tr.Position, tr.Rotation, tr.Height)); err != nil {
			return fmt.Errorf("restore text %s: %w", tr.UUID, err)
		}
	}
	for _, hr := range rec.Holes {
		hid, err := uuid.Parse(hr.UUID)
		if err != nil {
			return fmt.Errorf("hole uuid: %w", err)
		}
		if err := b.AddHole(NewHole(b, hid, hr.Position, hr.Diameter)); err != nil {
			return fmt.Errorf("restore hole %s: %w", hr.UUID, err)
		}
	}
	return nil
}

func (b *Board) restoreSegmentElements(s *NetSegment, sr NetSegmentRecord) error {
	vias := make([]*Via, 0, len(sr.Vias))
	byID := make(map[string]Anchor)
	for _, vr := range sr.Vias {
		id, err := uuid.Parse(vr.UUID)
		if err != nil {
			return fmt.Errorf("via uuid: %w", err)
		}
		v := NewVia(s, id, vr.Position, vr.Size, vr.Drill)
		vias = append(vias, v)
		byID["via:"+vr.UUID] = v
	}
	points := make([]*NetPoint, 0, len(sr.NetPoints))
	for _, pr := range sr.NetPoints {
		id, err := uuid.Parse(pr.UUID)
		if err != nil {
			return fmt.Errorf("netpoint uuid: %w", err)
		}
		p := NewNetPoint(s, id, pr.Position)
		points = append(points, p)
		byID["netpoint:"+pr.UUID] = p
	}
	resolve := func(ref AnchorRef) (Anchor, error) {
		switch {
		case ref.Via != "":
			if a, ok := byID["via:"+ref.Via]; ok {
				return a, nil
			}
		case ref.NetPoint != "":
			if a, ok := byID["netpoint:"+ref.NetPoint]; ok {
				return a, nil
			}
		case ref.Device != "" && ref.Pad != "":
			ids, err := parseUUIDs(ref.Device, ref.Pad)
			if err != nil {
				return nil, err
			}
			if d, ok := b.devices.get(ids[0]); ok {
				if p, ok := d.Pad(ids[1]); ok {
					return p, nil
				}
			}
		}
		return nil, domain.Invariant("netline.anchor", "unresolved anchor %+v", ref)
	}
	lines := make([]*NetLine, 0, len(sr.NetLines))
	for _, lr := range sr.NetLines {
		id, err := uuid.Parse(lr.UUID)
		if err != nil {
			return fmt.Errorf("netline uuid: %w", err)
		}
		start, err := resolve(lr.Start)
		if err != nil {
			return err
		}
		end, err := resolve(lr.End)
		if err != nil {
			return err
		}
		lines = append(lines, NewNetLine(s, id, start, end, lr.Layer, lr.Width))
	}
	return s.AddElements(vias, points, lines)
}

// UserSettings are the per user display overrides stored next to the board.
type UserSettings struct {
	Layers []Layer           `yaml:"layers"`
	Planes []PlaneVisibility `yaml:"planes"`
}

// PlaneVisibility is the display state of one plane.
type PlaneVisibility struct {
	UUID    string `yaml:"uuid"`
	Visible bool   `yaml:"visible"`
}

// UserSettings returns the current display overrides.
func (b *Board) UserSettings() UserSettings {
	s := UserSettings{Layers: slices.Clone(b.layers.Layers)}
	for _, p := range b.planes.items {
		s.Planes = append(s.Planes, PlaneVisibility{UUID: p.uuid.String(), Visible: p.visible})
	}
	sortByUUID(s.Planes, func(p PlaneVisibility) string { return p.UUID })
	return s
}

// ApplyUserSettings applies overrides for known layers and planes and ignores
// the rest.
func (b *Board) ApplyUserSettings(s UserSettings) {
	for _, l := range s.Layers {
		if layer, ok := b.layers.Layer(l.Name); ok {
			*layer = l
		}
	}
	for _, pv := range s.Planes {
		id, err := uuid.Parse(pv.UUID)
		if err != nil {
			continue
		}
		if p, ok := b.planes.get(id); ok {
			p.visible = pv.Visible
		}
	}
}

// Save writes the board record and the user settings into the board
// directory.
func (b *Board) Save(ctx context.Context) error {
	var buf bytes.Buffer
	if err := EncodeRecord(&buf, b.Record()); err != nil {
		return fmt.Errorf("save board %q: %w", b.name, err)
	}
	if err := b.dir.Write(ctx, BoardFile, buf.Bytes(), blob.PutOptions{ContentType: "application/json"}); err != nil {
		return fmt.Errorf("save board %q: %w", b.name, err)
	}
	settings, err := yaml.Marshal(b.UserSettings())
	if err != nil {
		return fmt.Errorf("save board %q settings: %w", b.name, err)
	}
	if err := b.dir.Write(ctx, UserSettingsFile, settings, blob.PutOptions{ContentType: "application/yaml"}); err != nil {
		return fmt.Errorf("save board %q settings: %w", b.name, err)
	}
	b.logger.Debug("board saved", "board", b.name, "dir", b.dir.Path())
	return nil
}

// Open loads the board stored in dir. A broken or missing user settings file
// is logged and ignored. Planes are rebuilt after loading.
func Open(ctx context.Context, p *project.Project, dir *blob.Directory, opts ...Option) (*Board, error) {
	data, err := dir.Read(ctx, BoardFile)
	if err != nil {
		return nil, fmt.Errorf("open board %s: %w", dir.Path(), err)
	}
	rec, err := DecodeRecord(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open board %s: %w", dir.Path(), err)
	}
	b, err := FromRecord(p, dir, rec, opts...)
	if err != nil {
		return nil, fmt.Errorf("open board %s: %w", dir.Path(), err)
	}
	b.loadUserSettings(ctx)
	b.RebuildAllPlanes()
	b.updateErcMessages()
	return b, nil
}

func (b *Board) loadUserSettings(ctx context.Context) {
	data, err := b.dir.Read(ctx, UserSettingsFile)
	if errors.Is(err, blob.ErrNotExist) {
		return
	}
	if err != nil {
		b.logger.Warn("could not read board user settings", "board", b.name, "error", err)
		return
	}
	var s UserSettings
	if err := yaml.Unmarshal(data, &s); err != nil {
		b.logger.Warn("could not parse board user settings, using defaults", "board", b.name, "error", err)
		return
	}
	b.ApplyUserSettings(s)
}

// Snapshot serializes the board for a domain.SnapshotStore.
func (b *Board) Snapshot(now time.Time) (domain.BoardSnapshot, error) {
	var buf bytes.Buffer
	if err := EncodeRecord(&buf, b.Record()); err != nil {
		return domain.BoardSnapshot{}, err
	}
	return domain.BoardSnapshot{BoardID: b.uuid.String(), Name: b.name, Payload: buf.Bytes(), SavedAt: now}, nil
}
