package mapmodel

// unionFind is a disjoint-set structure over NodeIDs, used to report
// weakly-connected components so a loader can warn when the map is
// fragmented enough that some nodes can never reach any boundary node.
type unionFind struct {
	parent []NodeID
	rank   []byte
	size   []uint32
}

func newUnionFind(n int) *unionFind {
	parent := make([]NodeID, n)
	for i := range parent {
		parent[i] = NodeID(i)
	}
	return &unionFind{parent: parent, rank: make([]byte, n), size: make([]uint32, n)}
}

func (uf *unionFind) find(x NodeID) NodeID {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(x, y NodeID) {
	rx, ry := uf.find(x), uf.find(y)
	if rx == ry {
		return
	}
	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry] + 1
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
}

// ComponentStats summarizes the weakly-connected-component structure of a
// graph, treating every link as undirected for reachability purposes.
type ComponentStats struct {
	NumComponents     int
	LargestComponent  int // node count of the largest component
	SmallestComponent int
}

// AnalyzeComponents computes weakly-connected-component sizes over g. A
// graph fragmented into many small components is a loader-time warning
// sign: nodes stranded outside the component containing any boundary
// node can never be reached by the precomputation's backward search.
func (g *Graph) AnalyzeComponents() ComponentStats {
	n := len(g.Nodes)
	if n == 0 {
		return ComponentStats{}
	}
	uf := newUnionFind(n)
	for _, l := range g.Links {
		uf.union(l.Origin, l.Target)
	}

	sizes := make(map[NodeID]int)
	for i := range g.Nodes {
		root := uf.find(NodeID(i))
		sizes[root]++
	}

	stats := ComponentStats{NumComponents: len(sizes)}
	first := true
	for _, size := range sizes {
		if first {
			stats.LargestComponent, stats.SmallestComponent = size, size
			first = false
			continue
		}
		if size > stats.LargestComponent {
			stats.LargestComponent = size
		}
		if size < stats.SmallestComponent {
			stats.SmallestComponent = size
		}
	}
	return stats
}
