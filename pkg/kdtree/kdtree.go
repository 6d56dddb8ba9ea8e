// Package kdtree implements a static 2D k-d tree used for nearest-neighbor
// lookup (pickup/dropoff snapping to the nearest road node), per spec §4.D.
// The tree is built once over a fixed point set with a configurable leaf
// size. It offers no range or bounding-box query; bulk region lookups go
// through pkg/grid.RegionIndex instead.
package kdtree

import (
	"math"
	"sort"
)

// Point is a 2D point carrying an opaque caller ID (typically a node
// index). Coordinates are whatever planar units the caller projected into
// — for road-network use that's geo.Project's meters, so Euclidean
// distance here matches geo.ApproxDistance.
type Point struct {
	X, Y float64
	ID   uint32
}

type bbox struct {
	minX, maxX, minY, maxY float64
}

func boundingBox(pts []Point) bbox {
	b := bbox{minX: pts[0].X, maxX: pts[0].X, minY: pts[0].Y, maxY: pts[0].Y}
	for _, p := range pts[1:] {
		if p.X < b.minX {
			b.minX = p.X
		}
		if p.X > b.maxX {
			b.maxX = p.X
		}
		if p.Y < b.minY {
			b.minY = p.Y
		}
		if p.Y > b.maxY {
			b.maxY = p.Y
		}
	}
	return b
}

// sqDistToBBox returns the squared distance from (x,y) to the nearest
// point of b (0 if (x,y) is inside b).
func sqDistToBBox(x, y float64, b bbox) float64 {
	dx := 0.0
	if x < b.minX {
		dx = b.minX - x
	} else if x > b.maxX {
		dx = x - b.maxX
	}
	dy := 0.0
	if y < b.minY {
		dy = b.minY - y
	} else if y > b.maxY {
		dy = y - b.maxY
	}
	return dx*dx + dy*dy
}

type node struct {
	bbox bbox

	// Internal node fields (left/right are nil for leaves).
	axis        int // 0 = split on X, 1 = split on Y
	splitValue  float64
	left, right *node

	// Leaf node fields (points is nil for internal nodes).
	points []Point
}

func (n *node) isLeaf() bool { return n.points != nil }

// Tree is a static k-d tree over a fixed point set.
type Tree struct {
	root     *node
	leafSize int
	bbox     bbox
	empty    bool
}

// Build constructs a tree over points with the given leaf size (minimum 1).
// Recursion at each internal node splits the longest dimension of the
// current point set at its median.
func Build(points []Point, leafSize int) *Tree {
	if leafSize < 1 {
		leafSize = 1
	}
	if len(points) == 0 {
		return &Tree{leafSize: leafSize, empty: true}
	}
	pts := make([]Point, len(points))
	copy(pts, points)
	root := buildNode(pts, leafSize)
	return &Tree{root: root, leafSize: leafSize, bbox: root.bbox}
}

func buildNode(pts []Point, leafSize int) *node {
	b := boundingBox(pts)
	if len(pts) <= leafSize {
		return &node{bbox: b, points: pts}
	}

	axis := 0
	if (b.maxY - b.minY) > (b.maxX - b.minX) {
		axis = 1
	}

	if axis == 0 {
		sort.Slice(pts, func(i, j int) bool { return pts[i].X < pts[j].X })
	} else {
		sort.Slice(pts, func(i, j int) bool { return pts[i].Y < pts[j].Y })
	}

	mid := len(pts) / 2
	splitValue := pts[mid].X
	if axis == 1 {
		splitValue = pts[mid].Y
	}

	left := buildNode(pts[:mid], leafSize)
	right := buildNode(pts[mid:], leafSize)

	return &node{
		bbox:       b,
		axis:       axis,
		splitValue: splitValue,
		left:       left,
		right:      right,
	}
}

// Len returns the number of points in the tree.
func (t *Tree) Len() int {
	if t.empty {
		return 0
	}
	return countPoints(t.root)
}

func countPoints(n *node) int {
	if n.isLeaf() {
		return len(n.points)
	}
	return countPoints(n.left) + countPoints(n.right)
}

// Nearest finds the point closest to (x, y). ok is false when the tree is
// empty or the query point lies strictly outside the tree's overall
// bounding box, per spec §4.D ("when the query point lies outside the
// overall bbox, return a sentinel indicating no match").
func (t *Tree) Nearest(x, y float64) (pt Point, dist float64, ok bool) {
	if t.empty {
		return Point{}, 0, false
	}
	if x < t.bbox.minX || x > t.bbox.maxX || y < t.bbox.minY || y > t.bbox.maxY {
		return Point{}, 0, false
	}

	s := &searchState{x: x, y: y, bestSqDist: math.Inf(1)}
	search(t.root, s)
	return s.best, math.Sqrt(s.bestSqDist), true
}

type searchState struct {
	x, y       float64
	best       Point
	bestSqDist float64
	found      bool
}

func search(n *node, s *searchState) {
	if sqDistToBBox(s.x, s.y, n.bbox) > s.bestSqDist {
		return
	}

	if n.isLeaf() {
		for _, p := range n.points {
			dx := p.X - s.x
			dy := p.Y - s.y
			d := dx*dx + dy*dy
			if !s.found || d < s.bestSqDist {
				s.found = true
				s.bestSqDist = d
				s.best = p
			}
		}
		return
	}

	// Descend the near side first (the side the query point falls on),
	// then the far side only if it isn't pruned by the current best.
	var near, far *node
	q := s.x
	if n.axis == 1 {
		q = s.y
	}
	if q <= n.splitValue {
		near, far = n.left, n.right
	} else {
		near, far = n.right, n.left
	}

	search(near, s)
	search(far, s)
}
