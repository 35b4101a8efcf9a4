package board

import (
	"boardcore/internal/project"
	"boardcore/pkg/geometry"
)

// NetPointsAt returns the net points at pos. With a non empty signals set
// only net points of those signals are returned.
func (b *Board) NetPointsAt(pos geometry.Point, signals map[*project.NetSignal]bool) []*NetPoint {
	var out []*NetPoint
	for _, s := range b.netSegments.items {
		if len(signals) > 0 && !signals[s.netSignal] {
			continue
		}
		for _, p := range s.points {
			if p.position == pos {
				out = append(out, p)
			}
		}
	}
	return out
}

// NetLinesAt returns the net lines whose grab area contains pos, filtered
// like NetPointsAt.
func (b *Board) NetLinesAt(pos geometry.Point, signals map[*project.NetSignal]bool) []*NetLine {
	var out []*NetLine
	for _, s := range b.netSegments.items {
		if len(signals) > 0 && !signals[s.netSignal] {
			continue
		}
		for _, l := range s.lines {
			if l.GrabArea().Contains(pos) {
				out = append(out, l)
			}
		}
	}
	return out
}

// PadsAt returns the pads whose grab area contains pos.
func (b *Board) PadsAt(pos geometry.Point) []*Pad {
	var out []*Pad
	for _, d := range b.devices.items {
		for _, p := range d.pads {
			if p.GrabArea().Contains(pos) {
				out = append(out, p)
			}
		}
	}
	return out
}
