package arcflags

import (
	"math"

	"github.com/giserh/taxisim/pkg/mapmodel"
)

// Workspace holds the per-node multi-origin search state for one region's
// Dijkstra run: distance vectors, their last-expansion snapshots,
// predecessor links, and a relaxation counter, all indexed by NodeID. A
// Workspace belongs to exactly one worker; per spec §5 there is no shared
// mutable state between workers running different regions concurrently.
type Workspace struct {
	B int // boundary-node count of the region currently being processed

	T           [][]float64          // T[n][i]: best-known cost from node n to boundary i (searched backward from i)
	S           [][]float64          // snapshot of T taken at n's last expansion
	P           [][]mapmodel.LinkID  // P[n][i]: link used to arrive at n from boundary i
	UpdateCount []int                // relaxations received since n's last expansion
}

// NewWorkspace allocates a workspace sized for numNodes nodes. Reset must
// be called before first use to size it for a specific region's boundary
// count.
func NewWorkspace(numNodes int) *Workspace {
	return &Workspace{
		T:           make([][]float64, numNodes),
		S:           make([][]float64, numNodes),
		P:           make([][]mapmodel.LinkID, numNodes),
		UpdateCount: make([]int, numNodes),
	}
}

// Reset clears the workspace for a region with b boundary nodes: every
// node's distance and snapshot vectors become length-b, filled with +Inf,
// and every predecessor slot becomes NoLink.
func (w *Workspace) Reset(b int) {
	w.B = b
	n := len(w.T)
	for i := 0; i < n; i++ {
		w.T[i] = fillInf(w.T[i], b)
		w.S[i] = fillInf(w.S[i], b)
		w.P[i] = fillNoLink(w.P[i], b)
		w.UpdateCount[i] = 0
	}
}

func fillInf(buf []float64, n int) []float64 {
	if cap(buf) < n {
		buf = make([]float64, n)
	} else {
		buf = buf[:n]
	}
	for i := range buf {
		buf[i] = math.Inf(1)
	}
	return buf
}

func fillNoLink(buf []mapmodel.LinkID, n int) []mapmodel.LinkID {
	if cap(buf) < n {
		buf = make([]mapmodel.LinkID, n)
	} else {
		buf = buf[:n]
	}
	for i := range buf {
		buf[i] = mapmodel.NoLink
	}
	return buf
}

// dominationValue counts how many of node n's B vector slots differ
// between its current distance and its last-expansion snapshot.
func dominationValue(w *Workspace, n mapmodel.NodeID) int {
	t, s := w.T[n], w.S[n]
	count := 0
	for i := range t {
		if t[i] != s[i] {
			count++
		}
	}
	return count
}

// minDistance returns the smallest entry of n's distance vector.
func minDistance(w *Workspace, n mapmodel.NodeID) float64 {
	best := math.Inf(1)
	for _, v := range w.T[n] {
		if v < best {
			best = v
		}
	}
	return best
}
