// Package mapmodel implements the road-network data model: nodes, directed
// links, and the region tagging that partitions nodes into grid cells.
// Nodes and links live in an index-based arena owned by a Graph so the
// graph is a plain collection of two slices rather than a web of pointers.
package mapmodel

import "github.com/giserh/taxisim/pkg/bitcodec"

// NodeID indexes into Graph.Nodes.
type NodeID uint32

// LinkID indexes into Graph.Links.
type LinkID uint32

// NoLink is the null predecessor-link sentinel.
const NoLink LinkID = ^LinkID(0)

// DefaultSpeedMPS is the fallback link speed when no speed table is
// supplied, per spec §4.F "Edge weight semantics".
const DefaultSpeedMPS = 5.0

// Node is a vertex in the road network.
type Node struct {
	ID         NodeID
	ExternalID int64 // the node_id column from the source CSV
	Lat        float64
	Lon        float64
	Region     int32

	ForwardLinks  []LinkID // links where this node is the origin
	BackwardLinks []LinkID // links where this node is the target

	IsBoundary    bool
	BoundaryIndex int32 // valid only when IsBoundary; -1 otherwise
}

// Link is a directed edge between two nodes.
type Link struct {
	ID     LinkID
	Origin NodeID
	Target NodeID

	Length     float64 // meters
	Speed      float64 // meters/sec
	TravelTime float64 // seconds, Length/Speed

	// ReachableRegions is nil until the arc-flag precomputation first
	// touches this link; callers must check for nil before reading bits.
	ReachableRegions *bitcodec.Bitset
}

// Graph owns every node and link in the road network. Mutation of the
// adjacency lists happens only during loading (AddNode/AddLink); once
// built, a Graph is read-mostly: arc-flag bits are set monotonically by
// the precomputation, everything else is immutable.
type Graph struct {
	Nodes []Node
	Links []Link

	NumRegions int // D*D, set once the grid partition is known

	MinLat, MaxLat float64
	MinLon, MaxLon float64
	boundsSet      bool
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// AddNode appends a node and returns its ID. Region defaults to -1
// (unassigned) until the grid partitioner runs.
func (g *Graph) AddNode(lat, lon float64) NodeID {
	return g.AddNodeWithExternalID(lat, lon, int64(len(g.Nodes)))
}

// AddNodeWithExternalID is AddNode but preserves the caller-supplied
// source-file node_id for round-tripping through CSV output.
func (g *Graph) AddNodeWithExternalID(lat, lon float64, externalID int64) NodeID {
	id := NodeID(len(g.Nodes))
	g.Nodes = append(g.Nodes, Node{
		ID:            id,
		ExternalID:    externalID,
		Lat:           lat,
		Lon:           lon,
		Region:        -1,
		BoundaryIndex: -1,
	})
	return id
}

// AddLink creates a directed link from origin to target and wires it into
// both nodes' adjacency lists. length is in meters; speed is in meters/sec
// (pass DefaultSpeedMPS when no speed table is available). Returns
// NoLink, false if origin or target does not exist.
func (g *Graph) AddLink(origin, target NodeID, length, speed float64) (LinkID, bool) {
	if int(origin) >= len(g.Nodes) || int(target) >= len(g.Nodes) {
		return NoLink, false
	}
	if speed <= 0 {
		speed = DefaultSpeedMPS
	}
	id := LinkID(len(g.Links))
	g.Links = append(g.Links, Link{
		ID:         id,
		Origin:     origin,
		Target:     target,
		Length:     length,
		Speed:      speed,
		TravelTime: length / speed,
	})
	g.Nodes[origin].ForwardLinks = append(g.Nodes[origin].ForwardLinks, id)
	g.Nodes[target].BackwardLinks = append(g.Nodes[target].BackwardLinks, id)
	return id, true
}

// ExpandBounds grows the graph's bounding box to include (lat, lon).
func (g *Graph) ExpandBounds(lat, lon float64) {
	if !g.boundsSet {
		g.MinLat, g.MaxLat = lat, lat
		g.MinLon, g.MaxLon = lon, lon
		g.boundsSet = true
		return
	}
	if lat < g.MinLat {
		g.MinLat = lat
	}
	if lat > g.MaxLat {
		g.MaxLat = lat
	}
	if lon < g.MinLon {
		g.MinLon = lon
	}
	if lon > g.MaxLon {
		g.MaxLon = lon
	}
}

// ComputeBoundaryNodes marks every node boundary iff it has at least one
// incoming link whose origin lies in a different region, then assigns each
// boundary node a dense per-region BoundaryIndex in [0, B).
//
// This is the "incoming cross-region link" reading of the source's
// boundary rule (see original_source/Node.py: fix_nodes marks the link's
// target boundary when the link's origin has a different region), resolving
// the Open Question in spec §9 "Boundary definition ambiguity".
func (g *Graph) ComputeBoundaryNodes() {
	for i := range g.Nodes {
		g.Nodes[i].IsBoundary = false
		g.Nodes[i].BoundaryIndex = -1
	}
	for _, l := range g.Links {
		if g.Nodes[l.Origin].Region != g.Nodes[l.Target].Region {
			g.Nodes[l.Target].IsBoundary = true
		}
	}

	nextIndex := make(map[int32]int32)
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if !n.IsBoundary {
			continue
		}
		idx := nextIndex[n.Region]
		n.BoundaryIndex = idx
		nextIndex[n.Region] = idx + 1
	}
}

// BoundaryNodesInRegion returns the IDs of every boundary node belonging
// to region r, ordered by BoundaryIndex.
func (g *Graph) BoundaryNodesInRegion(region int32) []NodeID {
	var out []NodeID
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.IsBoundary && n.Region == region {
			out = append(out, n.ID)
		}
	}
	// Index order matches assignment order from ComputeBoundaryNodes, which
	// walks Nodes in ID order, so out is already sorted by BoundaryIndex.
	return out
}

// MaxSpeed returns the fastest link speed in the graph, or 0 if the graph
// has no links.
func (g *Graph) MaxSpeed() float64 {
	var max float64
	for _, l := range g.Links {
		if l.Speed > max {
			max = l.Speed
		}
	}
	return max
}
