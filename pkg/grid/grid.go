// Package grid partitions a lat/lon bounding box into a uniform D×D grid of
// rectangular regions and assigns each node in a graph to the cell it falls
// in.
package grid

import (
	"math"

	"github.com/giserh/taxisim/pkg/mapmodel"
)

// epsilonDegrees expands the bounding box's max side before partitioning so
// a node exactly on the max edge still falls inside the last cell instead
// of landing one cell past it. Matches original_source/Node.py's
// get_node_info, which pads both max bounds by this amount.
const epsilonDegrees = 0.01

// Partitioner computes a node's (col, row) region from its coordinates.
type Partitioner struct {
	D int

	latMin, latMax float64
	lonMin, lonMax float64

	cellWidth  float64 // (latMax-latMin)/D
	cellHeight float64 // (lonMax-lonMin)/D
}

// NewPartitioner builds a partitioner over the given bounding box (before
// epsilon expansion) divided into d×d cells.
func NewPartitioner(latMax, latMin, lonMax, lonMin float64, d int) *Partitioner {
	latMax += epsilonDegrees
	lonMax += epsilonDegrees
	return &Partitioner{
		D:          d,
		latMin:      latMin,
		latMax:      latMax,
		lonMin:      lonMin,
		lonMax:      lonMax,
		cellWidth:  (latMax - latMin) / float64(d),
		cellHeight: (lonMax - lonMin) / float64(d),
	}
}

// RegionFor returns the region id (col*D+row) for a coordinate, clamped to
// the valid grid range.
func (p *Partitioner) RegionFor(lat, lon float64) int32 {
	col := p.clamp(int(math.Floor((lat - p.latMin) / p.cellWidth)))
	row := p.clamp(int(math.Floor((lon - p.lonMin) / p.cellHeight)))
	return int32(col*p.D + row)
}

func (p *Partitioner) clamp(i int) int {
	if i < 0 {
		return 0
	}
	if i >= p.D {
		return p.D - 1
	}
	return i
}

// CellBounds returns the lat/lon bounding box of region r.
func (p *Partitioner) CellBounds(r int32) (latLo, latHi, lonLo, lonHi float64) {
	col := int(r) / p.D
	row := int(r) % p.D
	latLo = p.latMin + float64(col)*p.cellWidth
	latHi = latLo + p.cellWidth
	lonLo = p.lonMin + float64(row)*p.cellHeight
	lonHi = lonLo + p.cellHeight
	return
}

// NumRegions returns D*D.
func (p *Partitioner) NumRegions() int { return p.D * p.D }

// Bounds returns the (epsilon-expanded) lat/lon bounding box the
// partitioner was built over.
func (p *Partitioner) Bounds() (latMin, latMax, lonMin, lonMax float64) {
	return p.latMin, p.latMax, p.lonMin, p.lonMax
}

// AssignRegions sets Region on every node in g and records g.NumRegions.
func (p *Partitioner) AssignRegions(g *mapmodel.Graph) {
	g.NumRegions = p.NumRegions()
	for i := range g.Nodes {
		g.Nodes[i].Region = p.RegionFor(g.Nodes[i].Lat, g.Nodes[i].Lon)
	}
}
