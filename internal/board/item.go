package board

import (
	"boardcore/pkg/domain"
	"boardcore/pkg/geometry"
)

// ItemKind identifies the concrete type of a board item.
type ItemKind int

const (
	KindDevice ItemKind = iota + 1
	KindPad
	KindNetSegment
	KindVia
	KindNetPoint
	KindNetLine
	KindPlane
	KindPolygon
	KindStrokeText
	KindHole
	KindAirWire
)

var kindNames = map[ItemKind]string{
	KindDevice:     "device",
	KindPad:        "pad",
	KindNetSegment: "netsegment",
	KindVia:        "via",
	KindNetPoint:   "netpoint",
	KindNetLine:    "netline",
	KindPlane:      "plane",
	KindPolygon:    "polygon",
	KindStrokeText: "stroke_text",
	KindHole:       "hole",
	KindAirWire:    "airwire",
}

func (k ItemKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Item is implemented by every top level board entity.
type Item interface {
	Board() *Board
	Kind() ItemKind
	IsSelectable() bool
	IsSelected() bool
	SetSelected(selected bool)
	GrabArea() geometry.Rect
	// IsAddedToBoard reports whether the attach side effects are active.
	IsAddedToBoard() bool
	// AddToBoard runs the attach side effects, e.g. registering with net
	// signals. It is only called while the board is attached to its project.
	AddToBoard() error
	// RemoveFromBoard reverts AddToBoard.
	RemoveFromBoard() error
}

// itemBase carries the state every item shares. The board is fixed at
// construction.
type itemBase struct {
	board    *Board
	selected bool
	added    bool
}

func (b *itemBase) Board() *Board        { return b.board }
func (b *itemBase) IsSelectable() bool   { return true }
func (b *itemBase) IsSelected() bool     { return b.selected }
func (b *itemBase) SetSelected(sel bool) { b.selected = sel }
func (b *itemBase) IsAddedToBoard() bool { return b.added }

func (b *itemBase) markAdded(kind ItemKind) error {
	if b.added {
		return domain.Invariant(kind.String()+".add_to_board", "already added")
	}
	b.added = true
	return nil
}

func (b *itemBase) markRemoved(kind ItemKind) error {
	if !b.added {
		return domain.Invariant(kind.String()+".remove_from_board", "not added")
	}
	b.added = false
	return nil
}
