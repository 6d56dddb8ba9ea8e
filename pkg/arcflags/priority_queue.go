package arcflags

import (
	"container/heap"

	"github.com/giserh/taxisim/pkg/mapmodel"
)

// KeyMode selects how the expansion queue orders nodes, per spec §4.F
// "Priority".
type KeyMode int

const (
	// KeyDistance orders by min(t), the standard Dijkstra key.
	KeyDistance KeyMode = iota
	// KeyDomination orders by the negated count of vector slots changed
	// since the node's last expansion, amortizing repeated expansion of
	// the same node across many boundary origins.
	KeyDomination
)

// pqEntry is one priority-queue entry. Entries are never decrease-keyed in
// place: a relaxation that changes a node's state pushes a fresh entry and
// leaves any earlier entries for the same node in the heap. On pop, the
// entry's freshness is checked against the workspace's current state
// (dominationValue == 0 means nothing has changed since the last
// expansion, so the entry is stale and is skipped without re-expanding).
type pqEntry struct {
	node mapmodel.NodeID
	key  float64
}

type nodeHeap []pqEntry

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].key < h[j].key }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any) { *h = append(*h, x.(pqEntry)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// expansionQueue wraps nodeHeap behind the container/heap interface.
type expansionQueue struct {
	h    nodeHeap
	mode KeyMode
}

func newExpansionQueue(mode KeyMode) *expansionQueue {
	q := &expansionQueue{mode: mode}
	heap.Init(&q.h)
	return q
}

func (q *expansionQueue) key(ws *Workspace, n mapmodel.NodeID) float64 {
	if q.mode == KeyDomination {
		return -float64(dominationValue(ws, n))
	}
	return minDistance(ws, n)
}

func (q *expansionQueue) push(ws *Workspace, n mapmodel.NodeID) {
	heap.Push(&q.h, pqEntry{node: n, key: q.key(ws, n)})
}

func (q *expansionQueue) empty() bool { return q.h.Len() == 0 }

func (q *expansionQueue) pop() mapmodel.NodeID {
	return heap.Pop(&q.h).(pqEntry).node
}
