package kdtree

import (
	"math"
	"math/rand"
	"testing"
)

func bruteForceNearest(points []Point, x, y float64) (Point, float64, bool) {
	if len(points) == 0 {
		return Point{}, 0, false
	}
	// Mirror Nearest's contract: a query outside the points' bounding box
	// is no match.
	minX, maxX, minY, maxY := points[0].X, points[0].X, points[0].Y, points[0].Y
	for _, p := range points[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	if x < minX || x > maxX || y < minY || y > maxY {
		return Point{}, 0, false
	}
	best := points[0]
	bestD := math.Hypot(best.X-x, best.Y-y)
	for _, p := range points[1:] {
		d := math.Hypot(p.X-x, p.Y-y)
		if d < bestD {
			bestD = d
			best = p
		}
	}
	return best, bestD, true
}

func randomPoints(n int, seed int64) []Point {
	rng := rand.New(rand.NewSource(seed))
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = Point{X: rng.Float64() * 1000, Y: rng.Float64() * 1000, ID: uint32(i)}
	}
	return pts
}

func TestNearestMatchesBruteForceAcrossLeafSizes(t *testing.T) {
	points := randomPoints(1000, 42)
	rng := rand.New(rand.NewSource(7))

	for _, leafSize := range []int{1, 2, 5, 50} {
		tree := Build(points, leafSize)
		for i := 0; i < 100; i++ {
			qx := rng.Float64() * 1000
			qy := rng.Float64() * 1000

			gotPt, gotDist, gotOK := tree.Nearest(qx, qy)
			wantPt, wantDist, wantOK := bruteForceNearest(points, qx, qy)

			if gotOK != wantOK {
				t.Fatalf("leaf=%d: ok = %v, want %v", leafSize, gotOK, wantOK)
			}
			if math.Abs(gotDist-wantDist) > 1e-9 {
				t.Fatalf("leaf=%d query (%v,%v): dist = %v, want %v (tree picked id %d, brute picked id %d)",
					leafSize, qx, qy, gotDist, wantDist, gotPt.ID, wantPt.ID)
			}
		}
	}
}

func TestNearestOnBoundingBoxEdgeIsInBounds(t *testing.T) {
	points := []Point{{X: 0, Y: 0, ID: 1}, {X: 10, Y: 10, ID: 2}}
	tree := Build(points, 1)
	pt, _, ok := tree.Nearest(10, 10)
	if !ok {
		t.Fatal("query exactly on bbox edge should be in-bounds")
	}
	if pt.ID != 2 {
		t.Fatalf("got id %d, want 2", pt.ID)
	}
}

func TestNearestOutsideBBoxReturnsNoMatch(t *testing.T) {
	points := []Point{{X: 0, Y: 0, ID: 1}, {X: 10, Y: 10, ID: 2}}
	tree := Build(points, 1)
	if _, _, ok := tree.Nearest(100, 100); ok {
		t.Fatal("query outside bbox should return no match")
	}
}

func TestNearestEmptyTree(t *testing.T) {
	tree := Build(nil, 4)
	if _, _, ok := tree.Nearest(0, 0); ok {
		t.Fatal("empty tree should never match")
	}
	if tree.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", tree.Len())
	}
}

func TestNearestTiesBrokenByFirstSeen(t *testing.T) {
	// Two points equidistant from the query; the tree should return
	// whichever it encounters first during the search, deterministically.
	points := []Point{{X: -1, Y: 0, ID: 1}, {X: 1, Y: 0, ID: 2}}
	tree := Build(points, 1)
	pt1, _, _ := tree.Nearest(0, 0)
	pt2, _, _ := tree.Nearest(0, 0)
	if pt1.ID != pt2.ID {
		t.Fatalf("repeated identical queries returned different ids: %d vs %d", pt1.ID, pt2.ID)
	}
	// The split puts (-1,0) on the near side of the query, so it is seen
	// first and the equally distant (1,0) does not replace it.
	if pt1.ID != 1 {
		t.Fatalf("got id %d, want 1 (the first-seen of the tied points)", pt1.ID)
	}
}

func TestLenCountsAllPoints(t *testing.T) {
	points := randomPoints(137, 3)
	tree := Build(points, 5)
	if tree.Len() != 137 {
		t.Fatalf("Len() = %d, want 137", tree.Len())
	}
}
