package grid

import (
	"testing"

	"github.com/giserh/taxisim/pkg/mapmodel"
)

func TestRegionForBasicCells(t *testing.T) {
	p := NewPartitioner(1.0, 0.0, 1.0, 0.0, 2) // 2x2 grid over [0,1+eps]x[0,1+eps]
	if r := p.RegionFor(0.1, 0.1); r != 0 {
		t.Errorf("RegionFor(0.1,0.1) = %d, want 0", r)
	}
	if r := p.RegionFor(0.9, 0.1); r != 2 {
		t.Errorf("RegionFor(0.9,0.1) = %d, want 2 (col=1,row=0 -> col*D+row=2)", r)
	}
	if r := p.RegionFor(0.1, 0.9); r != 1 {
		t.Errorf("RegionFor(0.1,0.9) = %d, want 1", r)
	}
}

func TestRegionForMaxEdgeFallsInLastCell(t *testing.T) {
	p := NewPartitioner(1.0, 0.0, 1.0, 0.0, 4)
	r := p.RegionFor(1.0, 1.0)
	wantCol := p.D - 1
	wantRow := p.D - 1
	want := int32(wantCol*p.D + wantRow)
	if r != want {
		t.Errorf("RegionFor at max edge = %d, want %d", r, want)
	}
}

func TestRegionForClampsOutOfBounds(t *testing.T) {
	p := NewPartitioner(1.0, 0.0, 1.0, 0.0, 2)
	if r := p.RegionFor(-5, -5); r != 0 {
		t.Errorf("RegionFor(out of bounds low) = %d, want 0", r)
	}
	if r := p.RegionFor(50, 50); r != int32(p.D*p.D-1) {
		t.Errorf("RegionFor(out of bounds high) = %d, want %d", r, p.D*p.D-1)
	}
}

func TestAssignRegionsSetsNumRegions(t *testing.T) {
	g := mapmodel.NewGraph()
	a := g.AddNode(0.1, 0.1)
	b := g.AddNode(0.9, 0.9)
	p := NewPartitioner(1.0, 0.0, 1.0, 0.0, 2)
	p.AssignRegions(g)
	if g.NumRegions != 4 {
		t.Errorf("NumRegions = %d, want 4", g.NumRegions)
	}
	if g.Nodes[a].Region != 0 {
		t.Errorf("node a region = %d, want 0", g.Nodes[a].Region)
	}
	if g.Nodes[b].Region != 3 {
		t.Errorf("node b region = %d, want 3", g.Nodes[b].Region)
	}
}

func TestRegionIndexQueryBBoxFindsContainingCell(t *testing.T) {
	p := NewPartitioner(1.0, 0.0, 1.0, 0.0, 4)
	idx := NewRegionIndex(p)
	regions := idx.QueryBBox(0.1, 0.1, 0.1, 0.1)
	want := p.RegionFor(0.1, 0.1)
	found := false
	for _, r := range regions {
		if r == want {
			found = true
		}
	}
	if !found {
		t.Errorf("QueryBBox(point) = %v, want to contain region %d", regions, want)
	}
}

func TestSpatialOrderCoversEveryRegionExactlyOnce(t *testing.T) {
	p := NewPartitioner(1.0, 0.0, 1.0, 0.0, 4)
	idx := NewRegionIndex(p)

	order := SpatialOrder(p, idx, 3)
	if len(order) != p.NumRegions() {
		t.Fatalf("len(order) = %d, want %d", len(order), p.NumRegions())
	}
	seen := make(map[int32]bool, p.NumRegions())
	for _, r := range order {
		if seen[r] {
			t.Fatalf("region %d appears more than once in %v", r, order)
		}
		seen[r] = true
	}
	for r := int32(0); r < int32(p.NumRegions()); r++ {
		if !seen[r] {
			t.Errorf("region %d missing from order %v", r, order)
		}
	}
}

func TestSpatialOrderGroupsRegionsByBand(t *testing.T) {
	// A 4x4 grid's col*D+row ids are NOT monotonic in latitude, so a
	// correctly band-swept order should visit col 0's four regions (ids
	// 0,1,2,3) before col 1's (ids 4,5,6,7), since a single band spans the
	// whole lonMin..lonMax width and regions are discovered column-first
	// only if QueryBBox itself returns them that way; what SpatialOrder
	// actually guarantees is coarser: one latitude band's regions all
	// appear before the next band's, once columns stop straddling bands.
	p := NewPartitioner(1.0, 0.0, 1.0, 0.0, 4)
	idx := NewRegionIndex(p)

	order := SpatialOrder(p, idx, 4)
	firstBandCols := map[int]bool{}
	for _, r := range order[:4] {
		firstBandCols[int(r)/p.D] = true
	}
	if len(firstBandCols) != 1 {
		t.Errorf("expected the first 4 regions to come from a single grid column (one latitude band), got columns %v from order %v", firstBandCols, order)
	}
}

func TestSpatialOrderClampsNumBandsBelowOne(t *testing.T) {
	p := NewPartitioner(1.0, 0.0, 1.0, 0.0, 2)
	idx := NewRegionIndex(p)
	order := SpatialOrder(p, idx, 0)
	if len(order) != p.NumRegions() {
		t.Fatalf("len(order) = %d, want %d", len(order), p.NumRegions())
	}
}
