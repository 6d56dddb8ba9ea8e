package api

// NearestNodeResponse is the JSON response for GET /v1/nearest-node.
type NearestNodeResponse struct {
	NodeID         int64   `json:"node_id"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	Region         int32   `json:"region"`
	DistanceMeters float64 `json:"distance_meters"`
}

// RegionResponse is the JSON response for GET /v1/region.
type RegionResponse struct {
	Region int32   `json:"region"`
	LatLo  float64 `json:"lat_lo"`
	LatHi  float64 `json:"lat_hi"`
	LonLo  float64 `json:"lon_lo"`
	LonHi  float64 `json:"lon_hi"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// StatsResponse is the JSON response for GET /v1/stats.
type StatsResponse struct {
	NumNodes   int `json:"num_nodes"`
	NumLinks   int `json:"num_links"`
	NumRegions int `json:"num_regions"`
}

// HealthResponse is the JSON response for GET /v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}
