// Package csvio reads the node/link/trip tables described in spec §6 and
// writes the arc-flag output table. It is the only package in this module
// that performs file I/O; pkg/loader assembles the in-memory graph from
// what this package parses.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// NodeRow is one row of the nodes CSV (spec §6 "Node input"). Only
// node_id, longitude, latitude, region_id are semantically consumed; the
// remaining columns are accepted but ignored.
type NodeRow struct {
	NodeID   int64
	Lat, Lon float64
	Region   int32
}

const nodeColumnCount = 11

// ReadNodes parses a nodes CSV (header row required) into NodeRows.
func ReadNodes(r io.Reader) ([]NodeRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	if _, err := cr.Read(); err != nil { // discard header
		if err == io.EOF {
			return nil, fmt.Errorf("csvio: empty nodes file")
		}
		return nil, fmt.Errorf("csvio: read nodes header: %w", err)
	}

	var rows []NodeRow
	lineNum := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		lineNum++
		if err != nil {
			return nil, fmt.Errorf("csvio: nodes line %d: %w", lineNum, err)
		}
		row, err := parseNodeRow(rec)
		if err != nil {
			return nil, fmt.Errorf("csvio: nodes line %d: %w", lineNum, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseNodeRow unpacks a node_id,is_complete,num_in_links,num_out_links,
// osm_traffic_controller,longitude,latitude,osm_changeset,birth_timestamp,
// death_timestamp,region_id row.
func parseNodeRow(rec []string) (NodeRow, error) {
	if len(rec) < nodeColumnCount {
		return NodeRow{}, fmt.Errorf("row has %d columns, want %d", len(rec), nodeColumnCount)
	}
	nodeID, err := strconv.ParseInt(rec[0], 10, 64)
	if err != nil {
		return NodeRow{}, fmt.Errorf("node_id: %w", err)
	}
	lon, err := strconv.ParseFloat(rec[5], 64)
	if err != nil {
		return NodeRow{}, fmt.Errorf("longitude: %w", err)
	}
	lat, err := strconv.ParseFloat(rec[6], 64)
	if err != nil {
		return NodeRow{}, fmt.Errorf("latitude: %w", err)
	}
	region, err := strconv.ParseInt(rec[10], 10, 32)
	if err != nil {
		return NodeRow{}, fmt.Errorf("region_id: %w", err)
	}
	return NodeRow{NodeID: nodeID, Lat: lat, Lon: lon, Region: int32(region)}, nil
}
