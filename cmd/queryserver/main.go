package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/giserh/taxisim/pkg/api"
	"github.com/giserh/taxisim/pkg/loader"
)

func main() {
	nodesPath := flag.String("nodes", "", "Path to nodes CSV")
	linksPath := flag.String("links", "", "Path to links CSV")
	port := flag.Int("port", 8080, "HTTP port")
	corsOrigin := flag.String("cors-origin", "", "CORS allowed origin (empty = same-origin)")
	gridD := flag.Int("grid-d", 20, "Grid side length (D*D regions)")
	pointLeaf := flag.Int("point-leaf-size", 8, "k-d tree leaf size for nearest-node lookup")
	flag.Parse()

	if *nodesPath == "" || *linksPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: queryserver --nodes <nodes.csv> --links <links.csv> [--port 8080]")
		os.Exit(1)
	}

	start := time.Now()

	log.Printf("Loading map from %s, %s...", *nodesPath, *linksPath)
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
	log.Printf("Loaded %d nodes, %d links, %d regions",
		len(res.Graph.Nodes), len(res.Graph.Links), res.Graph.NumRegions)

	// Reclaim memory from init-time temporaries: loading builds and
	// discards several large intermediate slices (CSV rows, the
	// external-id map).
	runtime.GC()
	debug.FreeOSMemory()

	loadTime := time.Since(start)
	log.Printf("Ready in %s", loadTime.Round(time.Millisecond))

	addr := fmt.Sprintf(":%d", *port)
	serverCfg := api.DefaultConfig(addr)
	serverCfg.CORSOrigin = *corsOrigin

	stats := api.StatsResponse{
		NumNodes:   len(res.Graph.Nodes),
		NumLinks:   len(res.Graph.Links),
		NumRegions: res.Graph.NumRegions,
	}

	handlers := api.NewHandlers(res, stats)
	srv := api.NewServer(serverCfg, handlers)

	if err := api.ListenAndServe(srv); err != nil {
		log.Printf("Server stopped: %v", err)
		os.Exit(1)
	}
}
