package geometry

// Path is an ordered list of vertices. Closed paths repeat their first vertex
// implicitly; callers never store the closing vertex twice.
type Path struct {
	Vertices []Point `json:"vertices"`
}

// NewPath returns a path through the given points.
func NewPath(points ...Point) Path {
	return Path{Vertices: append([]Point(nil), points...)}
}

// RectPath returns the closed outline of the rectangle spanned by p1 and p2.
func RectPath(p1, p2 Point) Path {
	r := RectFromPoints(p1, p2)
	return NewPath(
		r.Min,
		Point{X: r.Max.X, Y: r.Min.Y},
		r.Max,
		Point{X: r.Min.X, Y: r.Max.Y},
	)
}

// Clone returns a deep copy of the path.
func (p Path) Clone() Path {
	return Path{Vertices: append([]Point(nil), p.Vertices...)}
}

// Len returns the number of vertices.
func (p Path) Len() int { return len(p.Vertices) }

// Bounds returns the bounding rectangle of all vertices. An empty path yields
// the zero rectangle.
func (p Path) Bounds() Rect {
	if len(p.Vertices) == 0 {
		return Rect{}
	}
	r := Rect{Min: p.Vertices[0], Max: p.Vertices[0]}
	for _, v := range p.Vertices[1:] {
		r = r.Union(Rect{Min: v, Max: v})
	}
	return r
}

// Area returns the absolute area enclosed by the closed path in square
// nanometers (shoelace formula).
func (p Path) Area() float64 {
	n := len(p.Vertices)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		a := p.Vertices[i]
		b := p.Vertices[(i+1)%n]
		sum += float64(a.X)*float64(b.Y) - float64(b.X)*float64(a.Y)
	}
	if sum < 0 {
		sum = -sum
	}
	return sum / 2
}

// ContainsPoint reports whether pt lies inside the closed path using the
// even-odd rule.
func (p Path) ContainsPoint(pt Point) bool {
	n := len(p.Vertices)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := p.Vertices[i], p.Vertices[j]
		if (vi.Y > pt.Y) != (vj.Y > pt.Y) {
			x := float64(vj.X-vi.X)*float64(pt.Y-vi.Y)/float64(vj.Y-vi.Y) + float64(vi.X)
			if float64(pt.X) < x {
				inside = !inside
			}
		}
	}
	return inside
}

// Translate returns the path moved by offset.
func (p Path) Translate(offset Point) Path {
	out := make([]Point, len(p.Vertices))
	for i, v := range p.Vertices {
		out[i] = v.Add(offset)
	}
	return Path{Vertices: out}
}
