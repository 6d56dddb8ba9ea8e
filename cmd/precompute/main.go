package main

import (
	"bytes"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/giserh/taxisim/pkg/arcflags"
	"github.com/giserh/taxisim/pkg/bitcodec"
	"github.com/giserh/taxisim/pkg/csvio"
	"github.com/giserh/taxisim/pkg/dispatch"
	"github.com/giserh/taxisim/pkg/grid"
	"github.com/giserh/taxisim/pkg/loader"
	"github.com/giserh/taxisim/pkg/mapmodel"
)

func main() {
	nodesPath := flag.String("nodes", "", "Path to nodes CSV")
	linksPath := flag.String("links", "", "Path to links CSV")
	output := flag.String("output", "arc_flags.csv", "Output arc-flag CSV path")
	gridD := flag.Int("grid-d", 20, "Grid side length (D*D regions)")
	pointLeaf := flag.Int("point-leaf-size", 8, "k-d tree leaf size for nearest-node lookup")
	keyMode := flag.String("key-mode", "domination", "Priority queue key: domination or distance")
	workerCount := flag.Int("workers", 4, "Desired size of the in-process dispatch tree (goroutine count)")
	branching := flag.Int("branching-factor", 2, "Max children per dispatch tree node")
	batchSize := flag.Int("batch-size", 1, "Regions handed to each dispatch tree node per round")
	remoteWorkers := flag.Int("remote-workers", 0, "Number of arcflagworker subprocesses to fan out to, instead of running in-process")
	workerBin := flag.String("worker-bin", "arcflagworker", "Path to the arcflagworker binary")
	regionBBox := flag.String("region-bbox", "", "Debug: report regions intersecting 'latLo,latHi,lonLo,lonHi' and exit, instead of running the precomputation")
	flag.Parse()

	if *nodesPath == "" || *linksPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: precompute --nodes <nodes.csv> --links <links.csv> [--output arc_flags.csv]")
		os.Exit(1)
	}

	start := time.Now()

	log.Println("Loading nodes and links...")
	nodesF, err := os.Open(*nodesPath)
	if err != nil {
		log.Fatalf("Failed to open nodes file: %v", err)
	}
	defer nodesF.Close()
	linksF, err := os.Open(*linksPath)
	if err != nil {
		log.Fatalf("Failed to open links file: %v", err)
	}
	defer linksF.Close()

	cfg := loader.Config{GridD: *gridD, PointLeafSize: *pointLeaf, RegionLeafSize: 256}
	res, err := loader.Load(nodesF, linksF, cfg)
	if err != nil {
		log.Fatalf("Failed to load map: %v", err)
	}
	log.Printf("Loaded %d nodes, %d links (%d dangling links dropped), %d regions",
		len(res.Graph.Nodes), len(res.Graph.Links), res.DroppedLinks, res.Graph.NumRegions)

	if *regionBBox != "" {
		latLo, latHi, lonLo, lonHi, err := parseBBox(*regionBBox)
		if err != nil {
			log.Fatalf("invalid --region-bbox: %v", err)
		}
		hits := res.RegionIndex.QueryBBox(latLo, latHi, lonLo, lonHi)
		sort.Slice(hits, func(i, j int) bool { return hits[i] < hits[j] })
		fmt.Printf("regions intersecting (%.6f,%.6f,%.6f,%.6f): %v\n", latLo, latHi, lonLo, lonHi, hits)
		return
	}

	comps := res.Graph.AnalyzeComponents()
	if comps.NumComponents > 1 {
		log.Printf("warning: map has %d disconnected components (largest %d nodes, smallest %d nodes); "+
			"nodes outside a region's reachable component will never receive arc flags for that region",
			comps.NumComponents, comps.LargestComponent, comps.SmallestComponent)
	}

	bands := *workerCount
	if *remoteWorkers > 0 {
		bands = *remoteWorkers
	}
	regions := grid.SpatialOrder(res.Partitioner, res.RegionIndex, bands)

	if *remoteWorkers > 0 {
		log.Printf("Running precomputation over %d regions with %d remote workers (%s)...",
			res.Graph.NumRegions, *remoteWorkers, *workerBin)
		merged, err := runRemote(remoteConfig{
			workerBin:  *workerBin,
			nodesPath:  *nodesPath,
			linksPath:  *linksPath,
			gridD:      *gridD,
			pointLeaf:  *pointLeaf,
			keyMode:    *keyMode,
			numWorkers: *remoteWorkers,
			numRegions: res.Graph.NumRegions,
		}, regions)
		if err != nil {
			log.Fatalf("remote precomputation failed: %v", err)
		}
		log.Printf("Writing arc-flag table to %s...", *output)
		if err := writeMergedArcFlags(*output, res.Graph, merged); err != nil {
			log.Fatalf("Failed to write arc flags: %v", err)
		}
		log.Printf("Done in %s", time.Since(start).Round(time.Millisecond))
		return
	}

	mode := arcflags.KeyDomination
	if *keyMode == "distance" {
		mode = arcflags.KeyDistance
	}
	engine := arcflags.NewEngine(res.Graph, mode)

	log.Printf("Running precomputation over %d regions with %d workers...", res.Graph.NumRegions, *workerCount)

	var (
		mu         sync.Mutex
		failures   int
		totalExp   int
		regionsRun int
	)
	tree := dispatch.Plan(*workerCount, *branching)
	tree.Run(regions, *batchSize, func(region int32) {
		ws := arcflags.NewWorkspace(len(res.Graph.Nodes))
		stats, err := engine.RunRegion(region, ws)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			log.Printf("region %d failed: %v", region, err)
			failures++
			return
		}
		totalExp += stats.Expansions
		regionsRun++
	})

	if failures > 0 {
		log.Fatalf("precomputation failed: %d/%d regions errored", failures, res.Graph.NumRegions)
	}
	log.Printf("Precomputation complete: %d regions, %d total expansions", regionsRun, totalExp)

	log.Printf("Writing arc-flag table to %s...", *output)
	outF, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer outF.Close()
	if err := csvio.WriteArcFlags(outF, res.Graph); err != nil {
		log.Fatalf("Failed to write arc flags: %v", err)
	}

	log.Printf("Done in %s", time.Since(start).Round(time.Millisecond))
}

type remoteConfig struct {
	workerBin  string
	nodesPath  string
	linksPath  string
	gridD      int
	pointLeaf  int
	keyMode    string
	numWorkers int
	numRegions int
}

type linkKey struct {
	begin, end int64
}

// runRemote fans regions out across cfg.numWorkers arcflagworker
// subprocesses, each loading its own copy of the map over CSV and
// computing an independent slice of regions, then merges their arc-flag
// tables by OR-ing bitsets keyed on (begin_node_id, end_node_id): a link
// can be touched by regions assigned to more than one worker, so the
// merge must accumulate rather than overwrite.
func runRemote(cfg remoteConfig, regions []int32) (map[linkKey]*bitcodec.Bitset, error) {
	chunks := splitRegions(regions, cfg.numWorkers)

	merged := make(map[linkKey]*bitcodec.Bitset)
	var mu sync.Mutex
	var wg sync.WaitGroup
	errCh := make(chan error, len(chunks))

	for i, chunk := range chunks {
		if len(chunk) == 0 {
			continue
		}
		wg.Add(1)
		go func(idx int, regs []int32) {
			defer wg.Done()
			rows, err := runWorker(cfg, regs)
			if err != nil {
				errCh <- fmt.Errorf("worker %d: %w", idx, err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			for _, row := range rows {
				bits, err := bitcodec.Decode(row.FlagsHex, cfg.numRegions)
				if err != nil {
					errCh <- fmt.Errorf("worker %d: decode flags: %w", idx, err)
					return
				}
				key := linkKey{row.BeginNodeID, row.EndNodeID}
				if existing, ok := merged[key]; ok {
					existing.Or(bits)
				} else {
					merged[key] = bits
				}
			}
		}(i, chunk)
	}

	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			return nil, err
		}
	}
	return merged, nil
}

// runWorker spawns a single arcflagworker subprocess, hands it one batch
// of regions over its stdin and reads back its resulting arc-flag rows
// from stdout, both framed with pkg/dispatch's chunked transport.
func runWorker(cfg remoteConfig, regs []int32) ([]csvio.ArcFlagRow, error) {
	cmd := exec.Command(cfg.workerBin,
		"--nodes", cfg.nodesPath,
		"--links", cfg.linksPath,
		"--grid-d", strconv.Itoa(cfg.gridD),
		"--point-leaf-size", strconv.Itoa(cfg.pointLeaf),
		"--key-mode", cfg.keyMode,
	)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}

	noAck := bytes.NewReader(nil)
	const noAckInterval = 1 << 30

	if err := dispatch.ChunkSend(stdin, noAck, regs, 0, noAckInterval); err != nil {
		return nil, fmt.Errorf("send batch: %w", err)
	}
	stdin.Close()

	var rows []csvio.ArcFlagRow
	if err := dispatch.ChunkRecv(stdout, io.Discard, noAckInterval, &rows); err != nil {
		return nil, fmt.Errorf("recv rows: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("wait: %w", err)
	}
	return rows, nil
}

// parseBBox parses a "latLo,latHi,lonLo,lonHi" --region-bbox argument.
func parseBBox(s string) (latLo, latHi, lonLo, lonHi float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("expected 4 comma-separated values, got %d", len(parts))
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		vals[i], err = strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, 0, 0, 0, fmt.Errorf("value %d (%q): %w", i, p, err)
		}
	}
	return vals[0], vals[1], vals[2], vals[3], nil
}

// splitRegions divides regions into n contiguous, near-equal chunks.
func splitRegions(regions []int32, n int) [][]int32 {
	if n < 1 {
		n = 1
	}
	chunks := make([][]int32, n)
	total := len(regions)
	base := total / n
	extra := total % n
	start := 0
	for i := 0; i < n; i++ {
		size := base
		if i < extra {
			size++
		}
		end := start + size
		chunks[i] = regions[start:end]
		start = end
	}
	return chunks
}

// writeMergedArcFlags writes an arc-flag table sourced from a merged map
// rather than from g's own links, for the remote-worker path where g
// never had its bits set directly.
func writeMergedArcFlags(path string, g *mapmodel.Graph, merged map[linkKey]*bitcodec.Bitset) error {
	outF, err := os.Create(path)
	if err != nil {
		return err
	}
	defer outF.Close()

	cw := csv.NewWriter(outF)
	defer cw.Flush()

	if err := cw.Write([]string{"begin_node_id", "end_node_id", "hex_flags"}); err != nil {
		return err
	}

	empty := bitcodec.NewBitset(g.NumRegions)
	for _, l := range g.Links {
		begin := g.Nodes[l.Origin].ExternalID
		end := g.Nodes[l.Target].ExternalID
		bits, ok := merged[linkKey{begin, end}]
		if !ok {
			bits = empty
		}
		row := []string{
			strconv.FormatInt(begin, 10),
			strconv.FormatInt(end, 10),
			bitcodec.Encode(bits),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return cw.Error()
}
