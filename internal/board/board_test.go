package board

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"boardcore/internal/blob"
	"boardcore/internal/project"
	"boardcore/internal/undo"
	"boardcore/pkg/domain"
	"boardcore/pkg/geometry"
)

func id(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", n))
}

func mm(v int) geometry.Length { return geometry.Length(v) * geometry.Millimeter }

type fixture struct {
	ctx     context.Context
	store   blob.Store
	project *project.Project
	gnd     *project.NetSignal
	vcc     *project.NetSignal
	r1      *project.ComponentInstance
	r2      *project.ComponentInstance
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := blob.NewMemory()
	f := &fixture{
		ctx:     context.Background(),
		store:   store,
		project: project.New("demo", blob.NewDirectory(store, "demo")),
		gnd:     project.NewNetSignal(id(901), "GND"),
		vcc:     project.NewNetSignal(id(902), "VCC"),
		r1:      project.NewComponentInstance(id(801), "R1", "10k", false),
		r2:      project.NewComponentInstance(id(802), "R2", "1k", false),
	}
	c := f.project.Circuit()
	for _, sig := range []*project.NetSignal{f.gnd, f.vcc} {
		if err := c.AddNetSignal(sig); err != nil {
			t.Fatalf("add signal: %v", err)
		}
	}
	for _, ci := range []*project.ComponentInstance{f.r1, f.r2} {
		if err := c.AddComponent(ci); err != nil {
			t.Fatalf("add component: %v", err)
		}
	}
	return f
}

func (f *fixture) newBoard(t *testing.T, opts ...Option) *Board {
	t.Helper()
	b := New(f.project, blob.NewDirectory(blob.NewMemory(), "main"), "main", "Main", opts...)
	t.Cleanup(b.Close)
	return b
}

type padSpec struct {
	lib    int
	offset geometry.Point
	sig    *project.NetSignal
}

func newTestDevice(t *testing.T, b *Board, ci *project.ComponentInstance, pos geometry.Point, pads ...padSpec) *Device {
	t.Helper()
	d := NewDevice(b, ci, id(700), id(701))
	for _, p := range pads {
		if _, err := d.AddPad(id(p.lib), p.offset, p.sig); err != nil {
			t.Fatalf("add pad: %v", err)
		}
	}
	d.SetPlacement(pos, 0, false)
	return d
}

func newTestPolygon(b *Board, n int) *Polygon {
	return NewPolygon(b, id(n), LayerTopPlacement, 200*geometry.Micrometer, false, false,
		geometry.RectPath(geometry.Pt(0, 0), geometry.Pt(mm(5), mm(5))))
}

func TestDuplicateDeviceIsRejected(t *testing.T) {
	f := newFixture(t)
	b := f.newBoard(t)
	d1 := NewDevice(b, f.r1, id(700), id(701))
	d2 := NewDevice(b, f.r1, id(700), id(701))
	if err := b.AddDevice(d1); err != nil {
		t.Fatalf("add first device: %v", err)
	}
	err := b.AddDevice(d2)
	if !errors.Is(err, domain.ErrDuplicateEntity) {
		t.Fatalf("expected duplicate entity, got %v", err)
	}
	var dup *domain.DuplicateEntityError
	if !errors.As(err, &dup) || dup.Entity != domain.EntityDevice || dup.Key != f.r1.UUID().String() {
		t.Fatalf("unexpected error details: %#v", dup)
	}
	if got := b.Devices(); len(got) != 1 || got[0] != d1 {
		t.Fatalf("expected exactly the first device, got %d", len(got))
	}
}

func TestCollectionsRejectDuplicateKeys(t *testing.T) {
	f := newFixture(t)
	b := f.newBoard(t)
	cases := []struct {
		name  string
		first func() error
		dup   func() error
		count func() int
	}{
		{
			name:  "polygon",
			first: func() error { return b.AddPolygon(newTestPolygon(b, 1)) },
			dup:   func() error { return b.AddPolygon(newTestPolygon(b, 1)) },
			count: func() int { return len(b.Polygons()) },
		},
		{
			name:  "hole",
			first: func() error { return b.AddHole(NewHole(b, id(2), geometry.Pt(0, 0), mm(3))) },
			dup:   func() error { return b.AddHole(NewHole(b, id(2), geometry.Pt(mm(1), 0), mm(3))) },
			count: func() int { return len(b.Holes()) },
		},
		{
			name:  "plane",
			first: func() error { return b.AddPlane(NewPlane(b, id(3), LayerTopCopper, f.gnd, geometry.Path{})) },
			dup:   func() error { return b.AddPlane(NewPlane(b, id(3), LayerTopCopper, f.vcc, geometry.Path{})) },
			count: func() int { return len(b.Planes()) },
		},
		{
			name:  "netsegment",
			first: func() error { return b.AddNetSegment(NewNetSegment(b, id(4), f.gnd)) },
			dup:   func() error { return b.AddNetSegment(NewNetSegment(b, id(4), f.gnd)) },
			count: func() int { return len(b.NetSegments()) },
		},
		{
			name: "stroke text",
			first: func() error {
				return b.AddStrokeText(NewStrokeText(b, nil, id(5), LayerTopNames, "x", geometry.Point{}, 0, mm(1)))
			},
			dup: func() error {
				return b.AddStrokeText(NewStrokeText(b, nil, id(5), LayerTopNames, "y", geometry.Point{}, 0, mm(1)))
			},
			count: func() int { return len(b.StrokeTexts()) },
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.first(); err != nil {
				t.Fatalf("first add: %v", err)
			}
			if err := tc.dup(); !errors.Is(err, domain.ErrDuplicateEntity) {
				t.Fatalf("expected duplicate entity, got %v", err)
			}
			if tc.count() != 1 {
				t.Fatalf("collection changed by rejected add: %d", tc.count())
			}
		})
	}
}

func TestAddRemoveInvariants(t *testing.T) {
	f := newFixture(t)
	b := f.newBoard(t)
	other := f.newBoard(t)
	p := newTestPolygon(b, 1)

	if err := b.AddPolygon(newTestPolygon(other, 2)); !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("foreign item: expected invariant violation, got %v", err)
	}
	if err := b.RemovePolygon(p); !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("remove non member: expected invariant violation, got %v", err)
	}
	if err := b.AddPolygon(p); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := b.AddPolygon(p); !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("double add: expected invariant violation, got %v", err)
	}
	if err := b.RemovePolygon(p); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := b.RemovePolygon(p); !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("double remove: expected invariant violation, got %v", err)
	}
	if err := b.AddPolygon(nil); !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("nil: expected invariant violation, got %v", err)
	}
	if err := b.AddDevice(nil); !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("nil device: expected invariant violation, got %v", err)
	}
}

func TestRemoveDeviceRejectsConnectedPads(t *testing.T) {
	f := newFixture(t)
	b := f.newBoard(t)
	d := newTestDevice(t, b, f.r1, geometry.Point{}, padSpec{1, geometry.Point{}, f.gnd})
	if err := b.AddDevice(d); err != nil {
		t.Fatalf("add device: %v", err)
	}
	seg := NewNetSegment(b, id(10), f.gnd)
	np := NewNetPoint(seg, id(11), geometry.Pt(mm(5), 0))
	line := NewNetLine(seg, id(12), d.Pads()[0], np, LayerTopCopper, mm(1))
	if err := seg.AddElements(nil, []*NetPoint{np}, []*NetLine{line}); err != nil {
		t.Fatalf("add elements: %v", err)
	}
	if err := b.AddNetSegment(seg); err != nil {
		t.Fatalf("add segment: %v", err)
	}

	if err := b.RemoveDevice(d); !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("connected pad: expected invariant violation, got %v", err)
	}
	cmd := NewCmdDeviceRemove(d)
	if err := cmd.Execute(); !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("command: expected invariant violation, got %v", err)
	}
	if cmd.State() != undo.StateInitial {
		t.Fatalf("failed command must stay initial, got %s", cmd.State())
	}
	if got, ok := b.DeviceByComponent(f.r1.UUID()); !ok || got != d {
		t.Fatalf("device must stay on the board")
	}

	if err := b.Save(f.ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	reopened, err := Open(f.ctx, f.project, b.Directory())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	reopened.Close()

	if err := b.RemoveNetSegment(seg); err != nil {
		t.Fatalf("remove segment: %v", err)
	}
	if err := NewCmdDeviceRemove(d).Execute(); err != nil {
		t.Fatalf("remove unconnected device: %v", err)
	}
}

func TestRemovePolygonCommandScenario(t *testing.T) {
	f := newFixture(t)
	b := f.newBoard(t)
	p1 := newTestPolygon(b, 1)
	if err := b.AddPolygon(p1); err != nil {
		t.Fatalf("add polygon: %v", err)
	}
	if b.IsEmpty() {
		t.Fatalf("board with polygon must not be empty")
	}

	cmd := NewCmdPolygonRemove(p1)
	if err := cmd.Undo(); !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("undo before execute: expected invariant violation, got %v", err)
	}
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !b.IsEmpty() || len(b.Polygons()) != 0 {
		t.Fatalf("expected empty board after remove")
	}
	if err := cmd.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	got, ok := b.PolygonByUUID(id(1))
	if !ok || got != p1 || b.IsEmpty() {
		t.Fatalf("undo must reinsert the same polygon instance")
	}
	if err := cmd.Redo(); err != nil {
		t.Fatalf("redo: %v", err)
	}
	if _, ok := b.PolygonByUUID(id(1)); ok || cmd.State() != undo.StateExecuted {
		t.Fatalf("redo must remove the polygon again")
	}
}

func TestCommandsRoundTrip(t *testing.T) {
	f := newFixture(t)
	b := f.newBoard(t)
	dev := NewDevice(b, f.r1, id(700), id(701))
	seg := NewNetSegment(b, id(10), f.gnd)
	plane := NewPlane(b, id(11), LayerTopCopper, f.gnd, geometry.RectPath(geometry.Pt(0, 0), geometry.Pt(mm(1), mm(1))))
	poly := newTestPolygon(b, 12)
	text := NewStrokeText(b, nil, id(13), LayerTopNames, "hello", geometry.Point{}, 0, mm(1))
	hole := NewHole(b, id(14), geometry.Point{}, mm(2))

	cases := []struct {
		name   string
		add    *undo.Cmd
		remove func() *undo.Cmd
		member func() bool
	}{
		{"device", NewCmdDeviceAdd(dev), func() *undo.Cmd { return NewCmdDeviceRemove(dev) },
			func() bool { d, ok := b.DeviceByComponent(f.r1.UUID()); return ok && d == dev }},
		{"netsegment", NewCmdNetSegmentAdd(seg), func() *undo.Cmd { return NewCmdNetSegmentRemove(seg) },
			func() bool { s, ok := b.NetSegmentByUUID(id(10)); return ok && s == seg }},
		{"plane", NewCmdPlaneAdd(plane), func() *undo.Cmd { return NewCmdPlaneRemove(plane) },
			func() bool { p, ok := b.PlaneByUUID(id(11)); return ok && p == plane }},
		{"polygon", NewCmdPolygonAdd(poly), func() *undo.Cmd { return NewCmdPolygonRemove(poly) },
			func() bool { p, ok := b.PolygonByUUID(id(12)); return ok && p == poly }},
		{"stroke text", NewCmdStrokeTextAdd(text), func() *undo.Cmd { return NewCmdStrokeTextRemove(text) },
			func() bool { s, ok := b.StrokeTextByUUID(id(13)); return ok && s == text }},
		{"hole", NewCmdHoleAdd(hole), func() *undo.Cmd { return NewCmdHoleRemove(hole) },
			func() bool { h, ok := b.HoleByUUID(id(14)); return ok && h == hole }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			steps := []struct {
				do   func() error
				want bool
			}{
				{tc.add.Execute, true},
				{tc.add.Undo, false},
				{tc.add.Redo, true},
			}
			rm := tc.remove()
			steps = append(steps,
				struct {
					do   func() error
					want bool
				}{rm.Execute, false},
				struct {
					do   func() error
					want bool
				}{rm.Undo, true},
				struct {
					do   func() error
					want bool
				}{rm.Redo, false},
			)
			for i, s := range steps {
				if err := s.do(); err != nil {
					t.Fatalf("step %d: %v", i, err)
				}
				if got := tc.member(); got != s.want {
					t.Fatalf("step %d: member=%v want %v", i, got, s.want)
				}
			}
		})
	}
}

func TestFailingExecuteKeepsInitialState(t *testing.T) {
	f := newFixture(t)
	b := f.newBoard(t)
	if err := b.AddDevice(NewDevice(b, f.r1, id(700), id(701))); err != nil {
		t.Fatalf("add: %v", err)
	}
	cmd := NewCmdDeviceAdd(NewDevice(b, f.r1, id(700), id(701)))
	if err := cmd.Execute(); !errors.Is(err, domain.ErrDuplicateEntity) {
		t.Fatalf("expected duplicate entity, got %v", err)
	}
	if cmd.State() != undo.StateInitial {
		t.Fatalf("failed execute must keep the initial state, got %s", cmd.State())
	}
}

func TestUndoStackWithBoardCommands(t *testing.T) {
	f := newFixture(t)
	b := f.newBoard(t)
	stack := undo.NewStack()
	paste := undo.NewGroup("Paste")
	for n := 1; n <= 3; n++ {
		if err := paste.Append(NewCmdPolygonAdd(newTestPolygon(b, n))); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := stack.Exec(paste); err != nil {
		t.Fatalf("exec: %v", err)
	}
	if len(b.Polygons()) != 3 {
		t.Fatalf("expected 3 polygons, got %d", len(b.Polygons()))
	}
	if err := stack.Undo(); err != nil || !b.IsEmpty() {
		t.Fatalf("undo: %v empty=%v", err, b.IsEmpty())
	}
	if err := stack.Redo(); err != nil || len(b.Polygons()) != 3 {
		t.Fatalf("redo: %v", err)
	}

	bad := undo.NewGroup("Paste twice")
	_ = bad.Append(NewCmdHoleAdd(NewHole(b, id(20), geometry.Point{}, mm(1))))
	_ = bad.Append(NewCmdPolygonAdd(newTestPolygon(b, 1)))
	if err := stack.Exec(bad); !errors.Is(err, domain.ErrDuplicateEntity) {
		t.Fatalf("expected duplicate entity, got %v", err)
	}
	if len(b.Holes()) != 0 {
		t.Fatalf("failed group must roll back the hole")
	}
}

func TestAllItemsOrderAndIsEmpty(t *testing.T) {
	f := newFixture(t)
	b := f.newBoard(t)
	if !b.IsEmpty() || len(b.AllItems()) != 0 {
		t.Fatalf("new board must be empty")
	}
	_ = b.AddHole(NewHole(b, id(1), geometry.Point{}, mm(1)))
	_ = b.AddStrokeText(NewStrokeText(b, nil, id(2), LayerTopNames, "t", geometry.Point{}, 0, mm(1)))
	_ = b.AddPolygon(newTestPolygon(b, 3))
	_ = b.AddPlane(NewPlane(b, id(4), LayerTopCopper, f.gnd, geometry.Path{}))
	_ = b.AddNetSegment(NewNetSegment(b, id(5), f.gnd))
	_ = b.AddDevice(NewDevice(b, f.r1, id(700), id(701)))

	var got []string
	for _, item := range b.AllItems() {
		got = append(got, item.Kind().String())
	}
	want := []string{"device", "netsegment", "plane", "polygon", "stroke_text", "hole"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("item order mismatch (-want +got):\n%s", diff)
	}
}

func TestSelection(t *testing.T) {
	f := newFixture(t)
	b := f.newBoard(t)
	d := newTestDevice(t, b, f.r1, geometry.Pt(0, 0),
		padSpec{1, geometry.Pt(0, 0), f.gnd}, padSpec{2, geometry.Pt(mm(2), 0), f.vcc})
	label := NewStrokeText(b, d, id(30), LayerTopNames, "R1", geometry.Pt(mm(50), mm(50)), 0, mm(1))
	if err := d.AddText(label); err != nil {
		t.Fatalf("add text: %v", err)
	}
	if err := b.AddDevice(d); err != nil {
		t.Fatalf("add device: %v", err)
	}
	seg := NewNetSegment(b, id(40), f.gnd)
	near := NewVia(seg, id(41), geometry.Pt(mm(30), mm(30)), mm(1), 300*geometry.Micrometer)
	far := NewVia(seg, id(42), geometry.Pt(mm(90), mm(90)), mm(1), 300*geometry.Micrometer)
	if err := seg.AddElements([]*Via{near, far}, nil, nil); err != nil {
		t.Fatalf("add vias: %v", err)
	}
	_ = b.AddNetSegment(seg)

	// hits only the device text
	b.SetSelectionRect(geometry.Pt(mm(49), mm(49)), geometry.Pt(mm(52), mm(52)), true)
	if d.IsSelected() || !label.IsSelected() {
		t.Fatalf("expected only the text selected, device=%v text=%v", d.IsSelected(), label.IsSelected())
	}

	// hits the device: pads and texts follow even outside the rectangle
	b.SetSelectionRect(geometry.Pt(-mm(1), -mm(1)), geometry.Pt(mm(1), mm(1)), true)
	for _, p := range d.Pads() {
		if !p.IsSelected() {
			t.Fatalf("pad %s must be selected with its device", p.LibPadUUID())
		}
	}
	if !label.IsSelected() || !d.IsSelected() {
		t.Fatalf("unexpected selection device=%v text=%v", d.IsSelected(), label.IsSelected())
	}

	hit := b.SetSelectionRect(geometry.Pt(mm(29), mm(29)), geometry.Pt(mm(31), mm(31)), true)
	if len(hit) != 1 || hit[0] != seg || !near.IsSelected() || far.IsSelected() {
		t.Fatalf("expected only the near via of the segment to be selected")
	}

	b.SelectAll()
	if len(b.SelectedItems()) != 2 || !far.IsSelected() || !label.IsSelected() {
		t.Fatalf("select all must reach every item")
	}
	dry := b.SetSelectionRect(geometry.Pt(mm(29), mm(29)), geometry.Pt(mm(31), mm(31)), false)
	if len(dry) != 1 || !d.IsSelected() {
		t.Fatalf("hit test without update must not touch selection")
	}
	b.ClearSelection()
	if len(b.SelectedItems()) != 0 || near.IsSelected() || label.IsSelected() || d.Pads()[0].IsSelected() {
		t.Fatalf("clear selection left selected items")
	}
}

func TestCopyFromRemapsReferences(t *testing.T) {
	f := newFixture(t)
	src := f.newBoard(t)
	src.SetDefaultFont("custom.font")
	d := newTestDevice(t, src, f.r1, geometry.Pt(mm(10), mm(10)),
		padSpec{1, geometry.Pt(0, 0), f.gnd}, padSpec{2, geometry.Pt(mm(5), 0), f.gnd})
	_ = d.AddText(NewStrokeText(src, d, id(30), LayerTopNames, "{{NAME}}", geometry.Point{}, 0, mm(1)))
	d.SetAttributes(map[string]string{"TOLERANCE": "1%"})
	if err := src.AddDevice(d); err != nil {
		t.Fatalf("add device: %v", err)
	}
	seg := NewNetSegment(src, id(40), f.gnd)
	np := NewNetPoint(seg, id(41), geometry.Pt(mm(12), mm(15)))
	pads := d.Pads()
	lines := []*NetLine{
		NewNetLine(seg, id(42), pads[0], np, LayerTopCopper, mm(1)),
		NewNetLine(seg, id(43), np, pads[1], LayerTopCopper, mm(1)),
	}
	if err := seg.AddElements(nil, []*NetPoint{np}, lines); err != nil {
		t.Fatalf("add elements: %v", err)
	}
	_ = src.AddNetSegment(seg)
	plane := NewPlane(src, id(50), LayerTopCopper, f.gnd, geometry.RectPath(geometry.Pt(0, 0), geometry.Pt(mm(20), mm(20))))
	plane.SetPriority(4)
	_ = src.AddPlane(plane)
	src.RebuildAllPlanes()
	_ = src.AddPolygon(newTestPolygon(src, 60))
	_ = src.AddStrokeText(NewStrokeText(src, nil, id(61), LayerTopNames, "rev A", geometry.Point{}, 0, mm(1)))
	_ = src.AddHole(NewHole(src, id(62), geometry.Pt(mm(2), mm(2)), mm(3)))

	dst := New(f.project, blob.NewDirectory(blob.NewMemory(), "copy"), "copy", "Copy")
	t.Cleanup(dst.Close)
	if err := dst.CopyFrom(src); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if dst.DefaultFont() != "custom.font" {
		t.Fatalf("settings not copied")
	}
	cd, ok := dst.DeviceByComponent(f.r1.UUID())
	if !ok || cd == d || cd.Position() != d.Position() || cd.Attributes()["TOLERANCE"] != "1%" || len(cd.Texts()) != 1 {
		t.Fatalf("device not deep copied")
	}
	if cd.Texts()[0].UUID() == id(30) {
		t.Fatalf("device text must get a fresh uuid")
	}
	segs := dst.NetSegments()
	if len(segs) != 1 || segs[0].UUID() == seg.UUID() {
		t.Fatalf("segment must be copied with a fresh uuid")
	}
	copied := segs[0]
	for _, l := range copied.NetLines() {
		for _, a := range []Anchor{l.Start(), l.End()} {
			switch a := a.(type) {
			case *Pad:
				if a.Device() != cd {
					t.Fatalf("line anchored at a pad of the source board")
				}
			case *NetPoint:
				if a.Segment() != copied || a == np {
					t.Fatalf("line anchored at the source net point")
				}
			}
		}
	}
	cp := dst.Planes()[0]
	if cp.UUID() == plane.UUID() || cp.Priority() != 4 || len(cp.Fragments()) != 1 {
		t.Fatalf("plane not copied with settings and fragments")
	}
	if diff := cmp.Diff(plane.Fragments(), cp.Fragments()); diff != "" {
		t.Fatalf("fragments mismatch (-src +dst):\n%s", diff)
	}
	if len(dst.Polygons()) != 1 || len(dst.StrokeTexts()) != 1 || len(dst.Holes()) != 1 {
		t.Fatalf("graphics not copied")
	}
	if err := dst.CopyFrom(src); !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("copy into non empty board: expected invariant violation, got %v", err)
	}
}

func TestCopyFromRollsBackOnItemFailure(t *testing.T) {
	f := newFixture(t)
	src := f.newBoard(t)
	src.SetDefaultFont("custom.font")
	ghost := project.NewNetSignal(id(999), "GHOST")
	if err := src.AddDevice(newTestDevice(t, src, f.r1, geometry.Point{}, padSpec{1, geometry.Point{}, f.gnd})); err != nil {
		t.Fatalf("add device: %v", err)
	}
	if err := src.AddNetSegment(NewNetSegment(src, id(20), ghost)); err != nil {
		t.Fatalf("add segment: %v", err)
	}

	dst := New(f.project, blob.NewDirectory(blob.NewMemory(), "copy"), "copy", "Copy")
	t.Cleanup(dst.Close)
	dst.SetDefaultFont("before.font")
	if err := f.project.AddBoard(f.ctx, dst, -1); err != nil {
		t.Fatalf("attach: %v", err)
	}
	ercBefore := ercTexts(f.project)

	err := dst.CopyFrom(src)
	if !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("expected the segment registration failure, got %v", err)
	}
	if errors.Is(err, domain.ErrCompensationFailed) {
		t.Fatalf("rollback must succeed: %v", err)
	}
	if !dst.IsEmpty() {
		t.Fatalf("failed copy must leave the board empty")
	}
	if dst.DefaultFont() != "before.font" {
		t.Fatalf("failed copy must restore the settings, got font %q", dst.DefaultFont())
	}
	if f.gnd.RegisteredCount() != 0 {
		t.Fatalf("copied pads still registered: %d", f.gnd.RegisteredCount())
	}
	if diff := cmp.Diff(ercBefore, ercTexts(f.project)); diff != "" {
		t.Fatalf("erc messages changed by a failed copy (-before +after):\n%s", diff)
	}
}

func TestAddDefaultContent(t *testing.T) {
	f := newFixture(t)
	b := f.newBoard(t)
	if err := b.AddDefaultContent(); err != nil {
		t.Fatalf("default content: %v", err)
	}
	polys := b.Polygons()
	if len(polys) != 1 || polys[0].Layer() != LayerBoardOutlines {
		t.Fatalf("expected one board outline")
	}
	bounds := polys[0].Path().Bounds()
	if bounds.Width() != mm(100) || bounds.Height() != mm(80) {
		t.Fatalf("unexpected outline size %v x %v", bounds.Width(), bounds.Height())
	}
}

func TestBoardEvents(t *testing.T) {
	f := newFixture(t)
	b := f.newBoard(t)
	var got []string
	unsubscribe := b.Subscribe(func(ev Event) { got = append(got, ev.Kind.String()) })
	d := NewDevice(b, f.r1, id(700), id(701))
	_ = b.AddDevice(d)
	d.SetAttributes(map[string]string{"A": "1"})
	d.SetAttributes(map[string]string{"A": "1"})
	_ = b.RemoveDevice(d)
	_ = b.AddHole(NewHole(b, id(1), geometry.Point{}, mm(1)))
	unsubscribe()
	_ = b.AddDevice(d)
	want := []string{"device_added", "attributes_changed", "device_removed", "item_added"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestNetSegmentElements(t *testing.T) {
	f := newFixture(t)
	b := f.newBoard(t)
	other := f.newBoard(t)
	seg := NewNetSegment(b, id(1), f.gnd)
	p1 := NewNetPoint(seg, id(2), geometry.Pt(0, 0))
	p2 := NewNetPoint(seg, id(3), geometry.Pt(mm(1), 0))
	line := NewNetLine(seg, id(4), p1, p2, LayerTopCopper, mm(1))

	foreign := newTestDevice(t, other, f.r1, geometry.Point{}, padSpec{1, geometry.Point{}, f.gnd})
	bad := NewNetLine(seg, id(5), p1, foreign.Pads()[0], LayerTopCopper, mm(1))
	if err := seg.AddElements(nil, []*NetPoint{p1, p2}, []*NetLine{line, bad}); !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("foreign anchor: expected invariant violation, got %v", err)
	}
	if seg.IsUsed() {
		t.Fatalf("rejected batch must not be partially applied")
	}
	if err := seg.AddElements(nil, []*NetPoint{p1, p2}, []*NetLine{line}); err != nil {
		t.Fatalf("add elements: %v", err)
	}
	if err := seg.RemoveElements(nil, []*NetPoint{p1}, nil); !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("connected net point: expected invariant violation, got %v", err)
	}
	if err := seg.RemoveElements(nil, []*NetPoint{p1, p2}, []*NetLine{line}); err != nil {
		t.Fatalf("remove elements: %v", err)
	}
	if seg.IsUsed() {
		t.Fatalf("expected empty segment")
	}
}

func TestQueriesAtPosition(t *testing.T) {
	f := newFixture(t)
	b := f.newBoard(t)
	gnd := NewNetSegment(b, id(1), f.gnd)
	vcc := NewNetSegment(b, id(2), f.vcc)
	at := geometry.Pt(mm(3), mm(3))
	g1 := NewNetPoint(gnd, id(3), at)
	g2 := NewNetPoint(gnd, id(4), geometry.Pt(mm(9), mm(3)))
	v1 := NewNetPoint(vcc, id(5), at)
	_ = gnd.AddElements(nil, []*NetPoint{g1, g2}, []*NetLine{NewNetLine(gnd, id(6), g1, g2, LayerTopCopper, mm(1))})
	_ = vcc.AddElements(nil, []*NetPoint{v1}, nil)
	_ = b.AddNetSegment(gnd)
	_ = b.AddNetSegment(vcc)

	if got := b.NetPointsAt(at, nil); len(got) != 2 {
		t.Fatalf("expected two net points, got %d", len(got))
	}
	only := map[*project.NetSignal]bool{f.vcc: true}
	if got := b.NetPointsAt(at, only); len(got) != 1 || got[0] != v1 {
		t.Fatalf("signal filter not applied")
	}
	if got := b.NetLinesAt(geometry.Pt(mm(6), mm(3)), nil); len(got) != 1 {
		t.Fatalf("expected the gnd line, got %d", len(got))
	}
	if got := b.NetLinesAt(geometry.Pt(mm(6), mm(3)), only); len(got) != 0 {
		t.Fatalf("filtered line query must be empty")
	}
}

func TestBuiltInAttributes(t *testing.T) {
	f := newFixture(t)
	b := f.newBoard(t)
	if v, _ := b.BuiltInAttribute(AttrBoardIndex); v != "-1" {
		t.Fatalf("detached board index = %s", v)
	}
	if err := f.project.AddBoard(f.ctx, b, -1); err != nil {
		t.Fatalf("add board: %v", err)
	}
	want := map[string]string{AttrBoard: "Main", AttrBoardDirName: "main", AttrBoardIndex: "0", AttrProject: "demo"}
	if diff := cmp.Diff(want, b.Attributes()); diff != "" {
		t.Fatalf("attributes mismatch (-want +got):\n%s", diff)
	}
	if got := b.SubstituteAttributes("{{BOARD}}-{{BOARD_INDEX}}-{{UNKNOWN}}"); got != "Main-0-{{UNKNOWN}}" {
		t.Fatalf("unexpected substitution %q", got)
	}
}
