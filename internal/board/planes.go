package board

import (
	"errors"
	"fmt"
	"slices"

	"boardcore/pkg/geometry"
)

// FragmentsBuilder computes the fill of one plane.
type FragmentsBuilder interface {
	BuildFragments(p *Plane) ([]geometry.Path, error)
}

// FragmentsBuilderFunc adapts a function to FragmentsBuilder.
type FragmentsBuilderFunc func(p *Plane) ([]geometry.Path, error)

func (f FragmentsBuilderFunc) BuildFragments(p *Plane) ([]geometry.Path, error) { return f(p) }

var errDegenerateOutline = errors.New("plane outline needs at least three vertices")

// OutlineFragmentsBuilder fills a plane with its own outline clipped to the
// bounding box of the board outline polygons. Without board outline the
// outline is used unclipped.
type OutlineFragmentsBuilder struct {
	Board *Board
}

func (o OutlineFragmentsBuilder) BuildFragments(p *Plane) ([]geometry.Path, error) {
	outline := p.Outline()
	if outline.Len() < 3 || outline.Area() == 0 {
		return nil, errDegenerateOutline
	}
	if o.Board == nil {
		return []geometry.Path{outline}, nil
	}
	var bounds geometry.Rect
	found := false
	for _, poly := range o.Board.polygons.items {
		if poly.layer != LayerBoardOutlines {
			continue
		}
		if !found {
			bounds, found = poly.path.Bounds(), true
		} else {
			bounds = bounds.Union(poly.path.Bounds())
		}
	}
	if !found {
		return []geometry.Path{outline}, nil
	}
	clipped := make([]geometry.Point, len(outline.Vertices))
	for i, v := range outline.Vertices {
		clipped[i] = geometry.Pt(
			min(max(v.X, bounds.Min.X), bounds.Max.X),
			min(max(v.Y, bounds.Min.Y), bounds.Max.Y),
		)
	}
	path := geometry.NewPath(clipped...)
	if path.Area() == 0 {
		// plane lies outside the board
		return nil, nil
	}
	return []geometry.Path{path}, nil
}

// RebuildFailure records one failed plane or signal during a rebuild.
type RebuildFailure struct {
	Key string
	Err error
}

// RebuildReport summarizes a rebuild pass. Failures leave the derived data of
// the affected entity in its previous state.
type RebuildReport struct {
	Rebuilt  int
	Removed  int
	Failures []RebuildFailure
}

// Err joins all failures, or returns nil.
func (r RebuildReport) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, fmt.Errorf("%s: %w", f.Key, f.Err))
	}
	return errors.Join(errs...)
}

// planesByFillOrder returns the planes with the highest priority first.
// Equal priorities keep the reverse UUID order.
func (b *Board) planesByFillOrder() []*Plane {
	planes := b.planes.values()
	slices.SortStableFunc(planes, func(p1, p2 *Plane) int { return p2.compare(p1) })
	return planes
}

// RebuildAllPlanes recomputes the fragments of every plane in fill order.
// A failing plane keeps its last fragments and is reported.
func (b *Board) RebuildAllPlanes() RebuildReport {
	var report RebuildReport
	for _, p := range b.planesByFillOrder() {
		fragments, err := b.fragmentsBuilder.BuildFragments(p)
		if err != nil {
			b.logger.Warn("plane rebuild failed", "board", b.name, "plane", p.uuid.String(), "error", err)
			report.Failures = append(report.Failures, RebuildFailure{Key: p.uuid.String(), Err: err})
			continue
		}
		p.setFragments(fragments)
		report.Rebuilt++
	}
	b.notify(Event{Kind: EventPlanesRebuilt})
	return report
}
