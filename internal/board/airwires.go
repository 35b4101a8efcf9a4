package board

import (
	"cmp"
	"errors"
	"math"
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"boardcore/internal/project"
)

// AirWiresBuilder computes the unrouted connections of one active signal.
type AirWiresBuilder interface {
	BuildAirWires(b *Board, sig *project.NetSignal) ([]AirWireEndpoints, error)
}

// AirWiresBuilderFunc adapts a function to AirWiresBuilder.
type AirWiresBuilderFunc func(b *Board, sig *project.NetSignal) ([]AirWireEndpoints, error)

func (f AirWiresBuilderFunc) BuildAirWires(b *Board, sig *project.NetSignal) ([]AirWireEndpoints, error) {
	return f(b, sig)
}

// ScheduleAirWiresRebuild marks sig for the next TriggerAirWiresRebuild.
func (b *Board) ScheduleAirWiresRebuild(sig *project.NetSignal) {
	if sig != nil {
		b.pending[sig] = struct{}{}
	}
}

// PendingAirWires returns the signals scheduled for a rebuild.
func (b *Board) PendingAirWires() []*project.NetSignal { return b.pendingSignals() }

// TriggerAirWiresRebuild rebuilds the airwires of every scheduled signal and
// clears the schedule. Signals that are no longer part of the circuit only
// lose their airwires. When the builder fails for a signal its previous
// airwires stay in place, the failure is logged and reported, and the
// remaining signals are still processed. Nothing happens while the board is
// not added to its project.
func (b *Board) TriggerAirWiresRebuild() RebuildReport {
	var report RebuildReport
	if !b.addedToProject {
		return report
	}
	for _, sig := range b.pendingSignals() {
		var ends []AirWireEndpoints
		if sig.IsAddedToCircuit() {
			var err error
			ends, err = b.airWiresBuilder.BuildAirWires(b, sig)
			if err != nil {
				b.logger.Warn("airwire rebuild failed", "board", b.name, "netsignal", sig.Name(), "error", err)
				report.Failures = append(report.Failures, RebuildFailure{Key: sig.Name(), Err: err})
				continue
			}
			report.Rebuilt++
		}
		report.Removed += b.dropAirWires(sig)
		for _, e := range ends {
			aw := newAirWire(b, sig, e)
			if err := aw.AddToBoard(); err != nil {
				report.Failures = append(report.Failures, RebuildFailure{Key: sig.Name(), Err: err})
				continue
			}
			b.airWires = append(b.airWires, aw)
		}
	}
	clear(b.pending)
	b.notify(Event{Kind: EventAirWiresRebuilt})
	return report
}

// ForceAirWiresRebuild schedules every circuit signal and every signal that
// currently has airwires, then triggers the rebuild. Nothing happens while
// the board is not added to its project.
func (b *Board) ForceAirWiresRebuild() RebuildReport {
	if !b.addedToProject {
		return RebuildReport{}
	}
	for _, sig := range b.project.Circuit().NetSignals() {
		b.ScheduleAirWiresRebuild(sig)
	}
	for _, aw := range b.airWires {
		b.ScheduleAirWiresRebuild(aw.netSignal)
	}
	return b.TriggerAirWiresRebuild()
}

func (b *Board) dropAirWires(sig *project.NetSignal) int {
	n := 0
	b.airWires = slices.DeleteFunc(b.airWires, func(aw *AirWire) bool {
		if aw.netSignal != sig {
			return false
		}
		if aw.added {
			_ = aw.RemoveFromBoard()
		}
		n++
		return true
	})
	return n
}

var errNoNetSignal = errors.New("airwires: nil net signal")

// MSTAirWiresBuilder connects the islands of a signal with a minimum spanning
// tree. Anchors are the pads carrying the signal and the vias and net points
// of its net segments; net lines join anchors into islands. Every tree edge
// becomes one airwire between the closest anchors of two islands.
type MSTAirWiresBuilder struct{}

func (MSTAirWiresBuilder) BuildAirWires(b *Board, sig *project.NetSignal) ([]AirWireEndpoints, error) {
	if sig == nil {
		return nil, errNoNetSignal
	}
	var anchors []Anchor
	index := make(map[Anchor]int64)
	addAnchor := func(a Anchor) {
		if _, ok := index[a]; !ok {
			index[a] = int64(len(anchors))
			anchors = append(anchors, a)
		}
	}
	for _, d := range b.devices.items {
		for _, p := range d.pads {
			if p.netSignal == sig {
				addAnchor(p)
			}
		}
	}
	var lines []*NetLine
	for _, s := range b.netSegments.items {
		if s.netSignal != sig {
			continue
		}
		for _, v := range s.vias {
			addAnchor(v)
		}
		for _, p := range s.points {
			addAnchor(p)
		}
		lines = append(lines, s.lines...)
	}
	if len(anchors) < 2 {
		return nil, nil
	}

	connectivity := simple.NewUndirectedGraph()
	for id := range anchors {
		connectivity.AddNode(simple.Node(int64(id)))
	}
	for _, l := range lines {
		from, ok1 := index[l.start]
		to, ok2 := index[l.end]
		if !ok1 || !ok2 || from == to {
			continue
		}
		connectivity.SetEdge(connectivity.NewEdge(simple.Node(from), simple.Node(to)))
	}
	islands := topo.ConnectedComponents(connectivity)
	if len(islands) < 2 {
		return nil, nil
	}
	for _, island := range islands {
		slices.SortFunc(island, func(x, y graph.Node) int { return cmp.Compare(x.ID(), y.ID()) })
	}
	slices.SortFunc(islands, func(x, y []graph.Node) int { return cmp.Compare(x[0].ID(), y[0].ID()) })

	type link struct{ a, b int64 }
	closest := make(map[[2]int64]link)
	complete := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i := range islands {
		complete.AddNode(simple.Node(int64(i)))
	}
	for i := 0; i < len(islands); i++ {
		for j := i + 1; j < len(islands); j++ {
			best, dist := link{}, math.Inf(1)
			for _, n1 := range islands[i] {
				for _, n2 := range islands[j] {
					d := anchors[n1.ID()].Position().Distance(anchors[n2.ID()].Position())
					if d < dist {
						best, dist = link{a: n1.ID(), b: n2.ID()}, d
					}
				}
			}
			closest[[2]int64{int64(i), int64(j)}] = best
			complete.SetWeightedEdge(complete.NewWeightedEdge(simple.Node(int64(i)), simple.Node(int64(j)), dist))
		}
	}
	tree := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	path.Kruskal(tree, complete)

	var keys [][2]int64
	edges := tree.WeightedEdges()
	for edges.Next() {
		e := edges.WeightedEdge()
		u, v := e.From().ID(), e.To().ID()
		if u > v {
			u, v = v, u
		}
		key := [2]int64{u, v}
		if !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}
	slices.SortFunc(keys, func(x, y [2]int64) int {
		if c := cmp.Compare(x[0], y[0]); c != 0 {
			return c
		}
		return cmp.Compare(x[1], y[1])
	})
	out := make([]AirWireEndpoints, 0, len(keys))
	for _, k := range keys {
		l := closest[k]
		out = append(out, AirWireEndpoints{P1: anchors[l.a].Position(), P2: anchors[l.b].Position()})
	}
	return out, nil
}
