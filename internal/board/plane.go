package board

import (
	"cmp"
	"strings"

	"github.com/google/uuid"

	"boardcore/internal/project"
	"boardcore/pkg/domain"
	"boardcore/pkg/geometry"
)

// ConnectStyle controls how pads of the plane's net connect to the fill.
type ConnectStyle int

const (
	ConnectStyleNone ConnectStyle = iota
	ConnectStyleThermal
	ConnectStyleSolid
)

func (c ConnectStyle) String() string {
	switch c {
	case ConnectStyleNone:
		return "none"
	case ConnectStyleThermal:
		return "thermal"
	default:
		return "solid"
	}
}

// ParseConnectStyle is the inverse of ConnectStyle.String.
func ParseConnectStyle(s string) (ConnectStyle, error) {
	switch s {
	case "none":
		return ConnectStyleNone, nil
	case "thermal":
		return ConnectStyleThermal, nil
	case "solid":
		return ConnectStyleSolid, nil
	}
	return 0, domain.Invariant("plane.connect_style", "unknown connect style %q", s)
}

// Plane is a copper fill region. Fragments are derived and only written by
// RebuildAllPlanes.
type Plane struct {
	itemBase
	uuid         uuid.UUID
	layer        string
	netSignal    *project.NetSignal
	outline      geometry.Path
	minWidth     geometry.Length
	minClearance geometry.Length
	keepOrphans  bool
	priority     int
	connectStyle ConnectStyle
	visible      bool
	fragments    []geometry.Path
}

// NewPlane returns a visible plane with solid pad connections.
func NewPlane(b *Board, id uuid.UUID, layer string, sig *project.NetSignal, outline geometry.Path) *Plane {
	return &Plane{
		itemBase:     itemBase{board: b},
		uuid:         id,
		layer:        layer,
		netSignal:    sig,
		outline:      outline.Clone(),
		minWidth:     200 * geometry.Micrometer,
		minClearance: 300 * geometry.Micrometer,
		connectStyle: ConnectStyleSolid,
		visible:      true,
	}
}

func (p *Plane) Kind() ItemKind                { return KindPlane }
func (p *Plane) UUID() uuid.UUID               { return p.uuid }
func (p *Plane) Layer() string                 { return p.layer }
func (p *Plane) NetSignal() *project.NetSignal { return p.netSignal }
func (p *Plane) Outline() geometry.Path        { return p.outline.Clone() }
func (p *Plane) MinWidth() geometry.Length     { return p.minWidth }
func (p *Plane) MinClearance() geometry.Length { return p.minClearance }
func (p *Plane) KeepOrphans() bool             { return p.keepOrphans }
func (p *Plane) Priority() int                 { return p.priority }
func (p *Plane) ConnectStyle() ConnectStyle    { return p.connectStyle }
func (p *Plane) IsVisible() bool               { return p.visible }
func (p *Plane) GrabArea() geometry.Rect       { return p.outline.Bounds() }

func (p *Plane) SetOutline(outline geometry.Path)  { p.outline = outline.Clone() }
func (p *Plane) SetMinWidth(w geometry.Length)     { p.minWidth = w }
func (p *Plane) SetMinClearance(c geometry.Length) { p.minClearance = c }
func (p *Plane) SetKeepOrphans(keep bool)          { p.keepOrphans = keep }
func (p *Plane) SetPriority(priority int)          { p.priority = priority }
func (p *Plane) SetConnectStyle(s ConnectStyle)    { p.connectStyle = s }
func (p *Plane) SetVisible(visible bool)           { p.visible = visible }

// Fragments returns a copy of the last computed fill.
func (p *Plane) Fragments() []geometry.Path {
	out := make([]geometry.Path, len(p.fragments))
	for i, f := range p.fragments {
		out[i] = f.Clone()
	}
	return out
}

func (p *Plane) setFragments(fragments []geometry.Path) {
	p.fragments = make([]geometry.Path, len(fragments))
	for i, f := range fragments {
		p.fragments[i] = f.Clone()
	}
}

// compare orders planes by priority, then by UUID string.
func (p *Plane) compare(other *Plane) int {
	if c := cmp.Compare(p.priority, other.priority); c != 0 {
		return c
	}
	return strings.Compare(p.uuid.String(), other.uuid.String())
}

func (p *Plane) AddToBoard() error {
	if err := p.markAdded(KindPlane); err != nil {
		return err
	}
	if p.netSignal != nil {
		if err := p.netSignal.Register(p); err != nil {
			p.added = false
			return err
		}
	}
	return nil
}

func (p *Plane) RemoveFromBoard() error {
	if !p.added {
		return domain.Invariant("plane.remove_from_board", "not added")
	}
	if p.netSignal != nil {
		if err := p.netSignal.Unregister(p); err != nil {
			return err
		}
	}
	p.added = false
	return nil
}
