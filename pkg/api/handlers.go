package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/giserh/taxisim/pkg/loader"
)

// Handlers holds the HTTP handlers and their dependencies. It serves
// query-time lookups against an already-loaded map: nearest-node snapping
// and region lookup. It does not run the precomputation itself; that is
// cmd/precompute's job.
type Handlers struct {
	res   *loader.Result
	stats StatsResponse
}

// NewHandlers creates handlers over a loaded map.
func NewHandlers(res *loader.Result, stats StatsResponse) *Handlers {
	return &Handlers{res: res, stats: stats}
}

// HandleNearestNode handles GET /v1/nearest-node?lat=&lon=.
func (h *Handlers) HandleNearestNode(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := parseLatLon(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", err.Error())
		return
	}

	node, dist, ok := h.res.NearestNode(lat, lon)
	if !ok {
		writeError(w, http.StatusNotFound, "no_match", "")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(NearestNodeResponse{
		NodeID:         node.ExternalID,
		Lat:            node.Lat,
		Lon:            node.Lon,
		Region:         node.Region,
		DistanceMeters: dist,
	})
}

// HandleRegion handles GET /v1/region?lat=&lon=.
func (h *Handlers) HandleRegion(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := parseLatLon(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", err.Error())
		return
	}

	region := h.res.Partitioner.RegionFor(lat, lon)
	latLo, latHi, lonLo, lonHi := h.res.Partitioner.CellBounds(region)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RegionResponse{
		Region: region,
		LatLo:  latLo,
		LatHi:  latHi,
		LonLo:  lonLo,
		LonHi:  lonHi,
	})
}

// HandleHealth handles GET /v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

// HandleStats handles GET /v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.stats)
}

func parseLatLon(r *http.Request) (lat, lon float64, err error) {
	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")
	if latStr == "" || lonStr == "" {
		return 0, 0, errors.New("lat and lon are required")
	}
	lat, err = strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, errors.New("lat must be a number")
	}
	lon, err = strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return 0, 0, errors.New("lon must be a number")
	}
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return 0, 0, errors.New("coordinates must be finite numbers")
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, errors.New("coordinates out of range")
	}
	return lat, lon, nil
}

func writeError(w http.ResponseWriter, status int, code, field string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: code, Field: field})
}
