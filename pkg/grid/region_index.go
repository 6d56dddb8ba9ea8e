package grid

import "github.com/tidwall/rtree"

// RegionIndex answers "which regions intersect this bounding box" queries
// in O(log n) instead of a linear scan over all D*D cells. It backs the
// hierarchical dispatcher's spatially-contiguous batch slicing and the
// operator-facing --region-bbox debug lookup; it is the large-leaf-size
// "region lookup" tree of spec §4.E (the small-leaf-size point-lookup tree
// is pkg/kdtree.Tree, built from scratch because its exact median-split,
// bbox-pruned search order is a testable property — see DESIGN.md).
type RegionIndex struct {
	tr rtree.RTree
}

// NewRegionIndex inserts the bounding box of every region in p.
func NewRegionIndex(p *Partitioner) *RegionIndex {
	idx := &RegionIndex{}
	for r := 0; r < p.NumRegions(); r++ {
		latLo, latHi, lonLo, lonHi := p.CellBounds(int32(r))
		idx.tr.Insert([2]float64{latLo, lonLo}, [2]float64{latHi, lonHi}, int32(r))
	}
	return idx
}

// QueryBBox returns every region whose cell bounding box intersects the
// given box.
func (idx *RegionIndex) QueryBBox(latLo, latHi, lonLo, lonHi float64) []int32 {
	var out []int32
	idx.tr.Search([2]float64{latLo, lonLo}, [2]float64{latHi, lonHi},
		func(min, max [2]float64, data interface{}) bool {
			out = append(out, data.(int32))
			return true
		})
	return out
}

// SpatialOrder returns every region in p ordered into numBands horizontal
// latitude strips, each strip populated by a QueryBBox sweep rather than by
// sorting on region id. Consecutive regions in the result are therefore
// geographically close, which is what lets the hierarchical dispatcher
// hand each worker a spatially-contiguous run of regions (better cache
// locality for the region-local Dijkstra sweeps, since a worker's regions
// tend to share boundary neighborhoods).
func SpatialOrder(p *Partitioner, idx *RegionIndex, numBands int) []int32 {
	if numBands < 1 {
		numBands = 1
	}
	latMin, latMax, lonMin, lonMax := p.Bounds()
	bandHeight := (latMax - latMin) / float64(numBands)

	seen := make(map[int32]bool, p.NumRegions())
	out := make([]int32, 0, p.NumRegions())
	for b := 0; b < numBands; b++ {
		lo := latMin + float64(b)*bandHeight
		hi := lo + bandHeight
		for _, r := range idx.QueryBBox(lo, hi, lonMin, lonMax) {
			if seen[r] {
				continue
			}
			seen[r] = true
			out = append(out, r)
		}
	}
	// A region whose cell straddles a band edge in a way QueryBBox missed
	// is appended rather than dropped, so the result always covers every
	// region exactly once.
	for r := int32(0); r < int32(p.NumRegions()); r++ {
		if !seen[r] {
			out = append(out, r)
		}
	}
	return out
}
