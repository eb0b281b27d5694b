package vnode

import "testing"

func TestRoots(t *testing.T) {
	roots := Roots()
	for i, r := range roots {
		if r.Level() != 0 {
			t.Errorf("root %d: Level() = %d, want 0", i, r.Level())
		}
		if int(r.Face()) != i {
			t.Errorf("root %d: Face() = %d, want %d", i, r.Face(), i)
		}
		if r.X() != 0 || r.Y() != 0 {
			t.Errorf("root %d: (x,y) = (%d,%d), want (0,0)", i, r.X(), r.Y())
		}
	}
}

func TestParentChildRoundTrip(t *testing.T) {
	n := New(3, 2, 5, 3)
	parent, childIndex, ok := n.Parent()
	if !ok {
		t.Fatal("Parent() returned ok=false for a non-root node")
	}
	children := parent.Children()
	if children[childIndex] != n {
		t.Errorf("children[%d] = %v, want original node %v", childIndex, children[childIndex], n)
	}
}

func TestParentOfRoot(t *testing.T) {
	root := Roots()[0]
	if _, _, ok := root.Parent(); ok {
		t.Error("Parent() of a root node returned ok=true, want false")
	}
}

func TestChildIndexOrder(t *testing.T) {
	n := New(2, 0, 1, 1)
	children := n.Children()
	wantXY := [4][2]uint32{{2, 2}, {3, 2}, {2, 3}, {3, 3}}
	for i, c := range children {
		if c.X() != wantXY[i][0] || c.Y() != wantXY[i][1] {
			t.Errorf("children[%d] = (%d,%d), want (%d,%d)", i, c.X(), c.Y(), wantXY[i][0], wantXY[i][1])
		}
		if c.Level() != n.Level()+1 || c.Face() != n.Face() {
			t.Errorf("children[%d]: level/face = %d/%d, want %d/%d", i, c.Level(), c.Face(), n.Level()+1, n.Face())
		}
	}
}

// TestFindAncestorOffset exercises the offset-accumulation order: at each
// step up the tree, the current node's own (x&1, y&1) is added *before*
// climbing, scaled by the number of generations already climbed -- not
// computed relative to the final ancestor's grid.
func TestFindAncestorOffset(t *testing.T) {
	// Level-3 node at (5, 3) = binary (101, 011). Climbing to level 0:
	//   level 3 (5,3): bit0 = (1,1), generations so far = 0 -> offset += (1,1)<<0
	//   level 2 (2,1): bit0 = (0,1), generations so far = 1 -> offset += (0,1)<<1 = (0,2)
	//   level 1 (1,0): bit0 = (1,0), generations so far = 2 -> offset += (1,0)<<2 = (4,0)
	// total offset = (1+0+4, 1+2+0) = (5, 3), generations = 3.
	n := New(3, 0, 5, 3)
	ancestor, generations, offX, offY, ok := n.FindAncestor(func(v VNode) bool { return v.Level() == 0 })
	if !ok {
		t.Fatal("FindAncestor returned ok=false")
	}
	if ancestor.Level() != 0 || ancestor.Face() != n.Face() {
		t.Fatalf("ancestor = %v, want the level-0 root of face %d", ancestor, n.Face())
	}
	if generations != 3 {
		t.Errorf("generations = %d, want 3", generations)
	}
	if offX != 5 || offY != 3 {
		t.Errorf("offset = (%d,%d), want (5,3)", offX, offY)
	}
}

func TestFindAncestorSelf(t *testing.T) {
	n := New(4, 1, 2, 2)
	ancestor, generations, offX, offY, ok := n.FindAncestor(func(v VNode) bool { return true })
	if !ok || ancestor != n || generations != 0 || offX != 0 || offY != 0 {
		t.Errorf("FindAncestor(always-true) = (%v, %d, %d, %d, %v), want (%v, 0, 0, 0, true)",
			ancestor, generations, offX, offY, ok, n)
	}
}

func TestFindAncestorNoneFound(t *testing.T) {
	n := New(2, 0, 1, 1)
	_, _, _, _, ok := n.FindAncestor(func(v VNode) bool { return false })
	if ok {
		t.Error("FindAncestor with an always-false predicate returned ok=true")
	}
}

func TestBreadthFirstVisitsRootsFirst(t *testing.T) {
	var visited []VNode
	BreadthFirst(func(n VNode) bool {
		visited = append(visited, n)
		return n.Level() < 1
	})
	if len(visited) < 6 {
		t.Fatalf("expected at least the 6 roots to be visited, got %d nodes", len(visited))
	}
	for i := 0; i < 6; i++ {
		if visited[i].Level() != 0 || visited[i].Face() != uint8(i) {
			t.Errorf("visited[%d] = %v, want root of face %d", i, visited[i], i)
		}
	}
	// Every root should have queued its four children, so exactly 6 + 24 nodes visited.
	if len(visited) != 6+6*4 {
		t.Errorf("visited %d nodes, want %d", len(visited), 6+6*4)
	}
}

func TestPriorityAboveCutoffWhenClose(t *testing.T) {
	n := New(1, 1, 0, 0)
	camera := Vec3{1, 0, 1}
	p := n.Priority(camera)
	if p <= Cutoff {
		t.Errorf("Priority() = %v, want > Cutoff (%v)", p, Cutoff)
	}
}

func TestPriorityDecreasesWithDistance(t *testing.T) {
	n := New(5, 0, 16, 16)
	near := n.CenterWspace(EarthRadius)
	far := Vec3{EarthRadius * 100, 0, 0}

	pNear := n.Priority(near.Scale(1.001))
	pFar := n.Priority(far)
	if pNear <= pFar {
		t.Errorf("Priority(near) = %v, Priority(far) = %v; want near > far", pNear, pFar)
	}
}

func TestFromCspaceRoundTrip(t *testing.T) {
	n := New(6, 2, 10, 20)
	c := n.CellPositionCspace(0, 0, 0, 1)
	got, fracX, fracY := FromCspace(c, n.Level())
	if got != n {
		t.Errorf("FromCspace round trip = %v, want %v", got, n)
	}
	// Cell center is at fractional offset 0.5 within the cell.
	if fracX < 0.49 || fracX > 0.51 || fracY < 0.49 || fracY > 0.51 {
		t.Errorf("FromCspace fractional offset = (%v,%v), want (~0.5,~0.5)", fracX, fracY)
	}
}

func TestApproxSideLengthHalvesPerLevel(t *testing.T) {
	root := New(0, 0, 0, 0)
	child := New(1, 0, 0, 0)
	if absFloat64(root.ApproxSideLength()/2-child.ApproxSideLength()) > 1e-6 {
		t.Errorf("ApproxSideLength did not halve: root=%v child=%v", root.ApproxSideLength(), child.ApproxSideLength())
	}
}

func absFloat64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
