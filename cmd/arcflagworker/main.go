// Command arcflagworker is the subprocess counterpart of cmd/precompute's
// remote-worker mode. It loads the same map independently from CSV, then
// repeatedly receives a batch of region IDs on stdin and reports the
// resulting arc-flag rows on stdout, using the chunked framing from
// pkg/dispatch. stdin carries only batches in and stdout only rows out, so
// the two directions never interleave on a single pipe pair; the ack
// channel chunk_send/chunk_recv expects is configured off (a very large
// ack interval) rather than wired to a real reader, since a local OS pipe
// already provides the backpressure that ack was standing in for.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/giserh/taxisim/pkg/arcflags"
	"github.com/giserh/taxisim/pkg/bitcodec"
	"github.com/giserh/taxisim/pkg/csvio"
	"github.com/giserh/taxisim/pkg/dispatch"
	"github.com/giserh/taxisim/pkg/loader"
)

const noAckInterval = 1 << 30

func main() {
	nodesPath := flag.String("nodes", "", "Path to nodes CSV")
	linksPath := flag.String("links", "", "Path to links CSV")
	gridD := flag.Int("grid-d", 20, "Grid side length (D*D regions)")
	pointLeaf := flag.Int("point-leaf-size", 8, "k-d tree leaf size for nearest-node lookup")
	keyMode := flag.String("key-mode", "domination", "Priority queue key: domination or distance")
	flag.Parse()

	if *nodesPath == "" || *linksPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: arcflagworker --nodes <nodes.csv> --links <links.csv>")
		os.Exit(1)
	}

	nodesF, err := os.Open(*nodesPath)
	if err != nil {
		log.Fatalf("open nodes: %v", err)
	}
	defer nodesF.Close()
	linksF, err := os.Open(*linksPath)
	if err != nil {
		log.Fatalf("open links: %v", err)
	}
	defer linksF.Close()

	cfg := loader.Config{GridD: *gridD, PointLeafSize: *pointLeaf, RegionLeafSize: 256}
	res, err := loader.Load(nodesF, linksF, cfg)
	if err != nil {
		log.Fatalf("load map: %v", err)
	}

	mode := arcflags.KeyDomination
	if *keyMode == "distance" {
		mode = arcflags.KeyDistance
	}
	engine := arcflags.NewEngine(res.Graph, mode)
	ws := arcflags.NewWorkspace(len(res.Graph.Nodes))

	noAck := bytes.NewReader(nil)

	for {
		var batch []int32
		if err := dispatch.ChunkRecv(os.Stdin, io.Discard, noAckInterval, &batch); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			log.Fatalf("receive batch: %v", err)
		}
		if len(batch) == 0 {
			return
		}

		for _, region := range batch {
			if _, err := engine.RunRegion(region, ws); err != nil {
				log.Fatalf("region %d: %v", region, err)
			}
		}

		rows := make([]csvio.ArcFlagRow, 0, len(res.Graph.Links))
		for _, l := range res.Graph.Links {
			if l.ReachableRegions == nil {
				continue
			}
			rows = append(rows, csvio.ArcFlagRow{
				BeginNodeID: res.Graph.Nodes[l.Origin].ExternalID,
				EndNodeID:   res.Graph.Nodes[l.Target].ExternalID,
				FlagsHex:    bitcodec.Encode(l.ReachableRegions),
			})
		}

		if err := dispatch.ChunkSend(os.Stdout, noAck, rows, 0, noAckInterval); err != nil {
			log.Fatalf("send result: %v", err)
		}
	}
}
