package arcflags

import (
	"github.com/giserh/taxisim/pkg/bitcodec"
	"github.com/giserh/taxisim/pkg/mapmodel"
)

// extractArcFlags walks every touched node's predecessor chains (spec
// §4.G) and marks region on every link traversed. ws.P[cur][i] is one
// chain per boundary index i, and two different boundaries' chains can
// share a prefix link and diverge further downstream, so a link already
// being marked for this region says nothing about whether some other
// boundary's chain still needs to walk past it: every boundary's chain is
// walked in full, all the way to NoLink.
func extractArcFlags(g *mapmodel.Graph, ws *Workspace, region int32, touched map[mapmodel.NodeID]bool) {
	for n := range touched {
		for i := 0; i < ws.B; i++ {
			cur := n
			for {
				lid := ws.P[cur][i]
				if lid == mapmodel.NoLink {
					break
				}
				link := &g.Links[lid]
				if link.ReachableRegions == nil {
					link.ReachableRegions = bitcodec.NewBitset(g.NumRegions)
				}
				link.ReachableRegions.Set(int(region))
				cur = link.Target
			}
		}
	}
}
