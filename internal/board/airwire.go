package board

import (
	"boardcore/internal/project"
	"boardcore/pkg/geometry"
)

// AirWireEndpoints is one unrouted connection produced by an AirWiresBuilder.
type AirWireEndpoints struct {
	P1 geometry.Point
	P2 geometry.Point
}

// AirWire is a derived, non persistent hint for an unrouted connection of
// one net signal.
type AirWire struct {
	itemBase
	netSignal *project.NetSignal
	p1, p2    geometry.Point
}

func newAirWire(b *Board, sig *project.NetSignal, ends AirWireEndpoints) *AirWire {
	return &AirWire{itemBase: itemBase{board: b}, netSignal: sig, p1: ends.P1, p2: ends.P2}
}

func (a *AirWire) Kind() ItemKind                { return KindAirWire }
func (a *AirWire) IsSelectable() bool            { return false }
func (a *AirWire) SetSelected(bool)              {}
func (a *AirWire) NetSignal() *project.NetSignal { return a.netSignal }
func (a *AirWire) P1() geometry.Point            { return a.p1 }
func (a *AirWire) P2() geometry.Point            { return a.p2 }
func (a *AirWire) GrabArea() geometry.Rect       { return geometry.RectFromPoints(a.p1, a.p2) }
func (a *AirWire) AddToBoard() error             { return a.markAdded(KindAirWire) }
func (a *AirWire) RemoveFromBoard() error        { return a.markRemoved(KindAirWire) }

// Endpoints returns both ends.
func (a *AirWire) Endpoints() AirWireEndpoints { return AirWireEndpoints{P1: a.p1, P2: a.p2} }
