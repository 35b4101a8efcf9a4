// Package geometry provides the integer board geometry used by board items.
// All coordinates and lengths are expressed in nanometers.
package geometry

import (
	"fmt"
	"math"
)

// Length is a signed distance in nanometers.
type Length int64

// Common length units.
const (
	Nanometer  Length = 1
	Micrometer Length = 1000
	Millimeter Length = 1000000
)

// Millimeters returns the length as floating point millimeters.
func (l Length) Millimeters() float64 {
	return float64(l) / float64(Millimeter)
}

// Point is a position on the board.
type Point struct {
	X Length `json:"x" yaml:"x"`
	Y Length `json:"y" yaml:"y"`
}

// Pt is shorthand for constructing a Point.
func Pt(x, y Length) Point {
	return Point{X: x, Y: y}
}

// Add returns the sum of two points.
func (p Point) Add(other Point) Point {
	return Point{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the difference of two points.
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// Distance returns the Euclidean distance to another point in nanometers.
func (p Point) Distance(other Point) float64 {
	dx := float64(p.X - other.X)
	dy := float64(p.Y - other.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

func (p Point) String() string {
	return fmt.Sprintf("(%.3fmm, %.3fmm)", p.X.Millimeters(), p.Y.Millimeters())
}

// Rect is an axis aligned rectangle given by two corners. A normalized rect
// has Min <= Max on both axes.
type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// RectFromPoints returns the normalized rectangle spanned by p1 and p2.
func RectFromPoints(p1, p2 Point) Rect {
	return Rect{
		Min: Point{X: min(p1.X, p2.X), Y: min(p1.Y, p2.Y)},
		Max: Point{X: max(p1.X, p2.X), Y: max(p1.Y, p2.Y)},
	}
}

// RectAround returns a square of the given half size centered on p.
func RectAround(p Point, half Length) Rect {
	if half < 0 {
		half = -half
	}
	return Rect{
		Min: Point{X: p.X - half, Y: p.Y - half},
		Max: Point{X: p.X + half, Y: p.Y + half},
	}
}

// Width returns the horizontal extent.
func (r Rect) Width() Length { return r.Max.X - r.Min.X }

// Height returns the vertical extent.
func (r Rect) Height() Length { return r.Max.Y - r.Min.Y }

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Center returns the center point of the rectangle.
func (r Rect) Center() Point {
	return Point{X: (r.Min.X + r.Max.X) / 2, Y: (r.Min.Y + r.Max.Y) / 2}
}

// Contains reports whether p lies inside or on the border of r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Intersects reports whether the two rectangles overlap or touch.
func (r Rect) Intersects(other Rect) bool {
	return r.Min.X <= other.Max.X && r.Max.X >= other.Min.X &&
		r.Min.Y <= other.Max.Y && r.Max.Y >= other.Min.Y
}

// Union returns the smallest rectangle containing both rectangles.
func (r Rect) Union(other Rect) Rect {
	return Rect{
		Min: Point{X: min(r.Min.X, other.Min.X), Y: min(r.Min.Y, other.Min.Y)},
		Max: Point{X: max(r.Max.X, other.Max.X), Y: max(r.Max.Y, other.Max.Y)},
	}
}

// Intersection returns the overlapping area of both rectangles and false
// when they do not overlap.
func (r Rect) Intersection(other Rect) (Rect, bool) {
	if !r.Intersects(other) {
		return Rect{}, false
	}
	return Rect{
		Min: Point{X: max(r.Min.X, other.Min.X), Y: max(r.Min.Y, other.Min.Y)},
		Max: Point{X: min(r.Max.X, other.Max.X), Y: min(r.Max.Y, other.Max.Y)},
	}, true
}
