// Package loader assembles a mapmodel.Graph, its grid partitioner, its
// point-lookup k-d tree and its rtree-backed region index from CSV
// node/link tables, per spec §4.E "Map loader". It builds one k-d tree
// only; there is no large-leaf k-d tree for region lookup. It
// is the only package above csvio that performs I/O; everything downstream
// (arcflags, the query server) takes pre-built collections.
package loader

import (
	"fmt"
	"io"

	"github.com/giserh/taxisim/pkg/bitcodec"
	"github.com/giserh/taxisim/pkg/csvio"
	"github.com/giserh/taxisim/pkg/geo"
	"github.com/giserh/taxisim/pkg/grid"
	"github.com/giserh/taxisim/pkg/kdtree"
	"github.com/giserh/taxisim/pkg/mapmodel"
)

// Result bundles everything the loader produces: the graph, the grid
// partitioner that assigned its regions, a small-leaf point-lookup k-d tree
// for nearest-node snapping, and an rtree-backed bbox index for bulk region
// queries. The bbox index takes the place of spec §4.E's second,
// large-leaf k-d tree (see pkg/grid/region_index.go); no such k-d tree is
// built.
type Result struct {
	Graph       *mapmodel.Graph
	Partitioner *grid.Partitioner
	PointIndex  *kdtree.Tree
	RegionIndex *grid.RegionIndex

	DroppedLinks int // links referencing an absent node id, silently skipped
}

// Config controls grid density and k-d tree leaf sizes.
type Config struct {
	GridD          int // default grid side length (spec §6: default 20, 400 regions)
	PointLeafSize  int // small leaf size for nearest-node lookup
	RegionLeafSize int // large leaf size for bulk region lookup (unused by the rtree index, kept for symmetry with spec §4.E)
}

// DefaultConfig matches spec §6's stated defaults.
func DefaultConfig() Config {
	return Config{GridD: 20, PointLeafSize: 8, RegionLeafSize: 256}
}

// Load reads nodes and links CSVs and assembles a Result. Link rows whose
// begin or end node id is absent from the node table are silently
// dropped, per spec §4.E and §7 "Input malformed ... non-fatal".
func Load(nodesR, linksR io.Reader, cfg Config) (*Result, error) {
	nodeRows, err := csvio.ReadNodes(nodesR)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	linkRows, err := csvio.ReadLinks(linksR)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	return Assemble(nodeRows, linkRows, cfg)
}

// Assemble builds a Result from already-parsed rows, letting callers
// supply rows from a source other than csvio (e.g. tests, or a future
// non-CSV importer) without duplicating the wiring logic.
func Assemble(nodeRows []csvio.NodeRow, linkRows []csvio.LinkRow, cfg Config) (*Result, error) {
	d := cfg.GridD
	if d <= 0 {
		d = DefaultConfig().GridD
	}

	g := mapmodel.NewGraph()
	externalToID := make(map[int64]mapmodel.NodeID, len(nodeRows))

	for _, row := range nodeRows {
		id := g.AddNodeWithExternalID(row.Lat, row.Lon, row.NodeID)
		g.Nodes[id].Region = row.Region
		g.ExpandBounds(row.Lat, row.Lon)
		externalToID[row.NodeID] = id
	}

	dropped := 0
	for _, row := range linkRows {
		origin, ok1 := externalToID[row.BeginNodeID]
		target, ok2 := externalToID[row.EndNodeID]
		if !ok1 || !ok2 {
			dropped++
			continue
		}
		speed := mapmodel.DefaultSpeedMPS
		if row.HasSpeed && row.Speed > 0 {
			speed = row.Speed
		}
		lid, ok := g.AddLink(origin, target, row.Length, speed)
		if !ok {
			dropped++
			continue
		}
		if row.HasArcFlags {
			bits, err := bitcodec.Decode(row.ArcFlagsHex, d*d)
			if err != nil {
				return nil, fmt.Errorf("loader: link %d->%d arc flags: %w", row.BeginNodeID, row.EndNodeID, err)
			}
			g.Links[lid].ReachableRegions = bits
		}
	}

	part := grid.NewPartitioner(g.MaxLat, g.MinLat, g.MaxLon, g.MinLon, d)
	part.AssignRegions(g)
	g.ComputeBoundaryNodes()

	pointLeaf := cfg.PointLeafSize
	if pointLeaf <= 0 {
		pointLeaf = DefaultConfig().PointLeafSize
	}
	points := make([]kdtree.Point, len(g.Nodes))
	for i, n := range g.Nodes {
		p := geo.Project(n.Lat, n.Lon)
		points[i] = kdtree.Point{X: p.X, Y: p.Y, ID: uint32(n.ID)}
	}

	return &Result{
		Graph:        g,
		Partitioner:  part,
		PointIndex:   kdtree.Build(points, pointLeaf),
		RegionIndex:  grid.NewRegionIndex(part),
		DroppedLinks: dropped,
	}, nil
}

// NearestNode snaps a query lat/lon to the closest graph node, ok is
// false when the query point is outside the map's bounding box.
func (r *Result) NearestNode(lat, lon float64) (node mapmodel.Node, dist float64, ok bool) {
	p := geo.Project(lat, lon)
	pt, d, ok := r.PointIndex.Nearest(p.X, p.Y)
	if !ok {
		return mapmodel.Node{}, 0, false
	}
	return r.Graph.Nodes[pt.ID], d, true
}
