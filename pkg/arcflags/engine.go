// Package arcflags implements the multi-origin Dijkstra precomputation
// (spec §4.F) and the arc-flag extractor that derives per-link
// destination-region bitmasks from its predecessor vectors (spec §4.G).
package arcflags

import (
	"errors"
	"fmt"
	"sync"

	"github.com/giserh/taxisim/pkg/mapmodel"
)

// ErrNegativeTravelTime signals an invariant violation: a link with
// negative travel time would break Dijkstra's non-negative-weight
// assumption. Fatal per spec §7 "Invariant violation".
var ErrNegativeTravelTime = errors.New("arcflags: negative travel time")

// RegionStats reports what happened during one region's run, for logging.
type RegionStats struct {
	Region        int32
	BoundaryCount int
	NodesTouched  int
	Expansions    int
	MaxUpdateCount int
}

// Engine runs the multi-origin Dijkstra precomputation over a graph.
//
// RunRegion may be called concurrently from multiple goroutines against
// the same Engine (pkg/dispatch's tree fans work out this way). Each
// call's search phase only touches its own Workspace, but extractArcFlags
// mutates g.Links[*].ReachableRegions, which every region's run shares; mu
// serializes that one step so concurrent regions never race on the same
// link's bitset.
type Engine struct {
	g    *mapmodel.Graph
	mode KeyMode
	mu   sync.Mutex
}

// NewEngine creates an Engine over g, selecting the priority key per
// spec §4.F.
func NewEngine(g *mapmodel.Graph, mode KeyMode) *Engine {
	return &Engine{g: g, mode: mode}
}

// RunRegion executes one region's simultaneous backward Dijkstra sweep
// from every boundary node of region, using ws for scratch state, and
// writes arc flags onto g's links as a side effect. A region with no
// boundary nodes (including one with no nodes at all) is a no-op, per
// spec §4.F "Failure mode".
func (e *Engine) RunRegion(region int32, ws *Workspace) (RegionStats, error) {
	boundaries := e.g.BoundaryNodesInRegion(region)
	stats := RegionStats{Region: region, BoundaryCount: len(boundaries)}
	if len(boundaries) == 0 {
		return stats, nil
	}

	ws.Reset(len(boundaries))
	q := newExpansionQueue(e.mode)

	for i, b := range boundaries {
		ws.T[b][i] = 0
		q.push(ws, b)
	}

	touched := make(map[mapmodel.NodeID]bool, len(boundaries))
	for !q.empty() {
		n := q.pop()
		if dominationValue(ws, n) == 0 {
			// Stale entry: nothing has changed since n's last expansion.
			continue
		}

		copy(ws.S[n], ws.T[n])
		ws.UpdateCount[n] = 0
		stats.Expansions++
		touched[n] = true

		for _, lid := range e.g.Nodes[n].BackwardLinks {
			l := &e.g.Links[lid]
			if l.TravelTime < 0 {
				return stats, fmt.Errorf("%w: link %d (%d->%d)", ErrNegativeTravelTime, l.ID, l.Origin, l.Target)
			}
			m := l.Origin
			changed := false
			for i := 0; i < ws.B; i++ {
				cand := ws.T[n][i] + l.TravelTime
				if cand < ws.T[m][i] {
					ws.T[m][i] = cand
					ws.P[m][i] = l.ID
					changed = true
				}
			}
			if changed {
				ws.UpdateCount[m]++
				if ws.UpdateCount[m] > stats.MaxUpdateCount {
					stats.MaxUpdateCount = ws.UpdateCount[m]
				}
				q.push(ws, m)
			}
		}
	}

	stats.NodesTouched = len(touched)
	e.mu.Lock()
	extractArcFlags(e.g, ws, region, touched)
	e.mu.Unlock()
	return stats, nil
}
