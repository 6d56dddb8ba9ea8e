package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// LinkRow is one row of the links CSV (spec §6 "Link input"). The file
// comes in three column-count variants depending on which optional
// columns upstream tooling has already computed:
//
//	16 columns: no speed, no precomputed travel time, no arc flags
//	18 columns: adds speed_limit and travel_time
//	19 columns: adds arc_flags_hex on top of the 18-column layout
//
// ReadLinks detects the variant per row from the column count.
type LinkRow struct {
	BeginNodeID, EndNodeID int64
	Length                 float64 // meters (street_length)

	Speed    float64 // meters/sec; only valid when HasSpeed
	HasSpeed bool

	ArcFlagsHex string
	HasArcFlags bool
}

const (
	linkColumnsBase      = 16
	linkColumnsWithSpeed = 18
	linkColumnsWithFlags = 19
)

// column indices shared by all three variants, per the base 16-column
// layout: link_id, begin_node_id, end_node_id, begin_angle, end_angle,
// street_length, osm_name, osm_class, osm_way_id, startX, startY, endX,
// endY, osm_changeset, birth_timestamp, death_timestamp.
const (
	colBeginNodeID   = 1
	colEndNodeID     = 2
	colStreetLength  = 5
	colSpeedLimit    = 16
	colArcFlagsIndex = 18
)

// ReadLinks parses a links CSV (header row required) into LinkRows.
func ReadLinks(r io.Reader) ([]LinkRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	if _, err := cr.Read(); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("csvio: empty links file")
		}
		return nil, fmt.Errorf("csvio: read links header: %w", err)
	}

	var rows []LinkRow
	lineNum := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		lineNum++
		if err != nil {
			return nil, fmt.Errorf("csvio: links line %d: %w", lineNum, err)
		}
		row, err := parseLinkRow(rec)
		if err != nil {
			return nil, fmt.Errorf("csvio: links line %d: %w", lineNum, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseLinkRow(rec []string) (LinkRow, error) {
	if len(rec) < linkColumnsBase {
		return LinkRow{}, fmt.Errorf("row has %d columns, want at least %d", len(rec), linkColumnsBase)
	}

	begin, err := strconv.ParseInt(rec[colBeginNodeID], 10, 64)
	if err != nil {
		return LinkRow{}, fmt.Errorf("begin_node_id: %w", err)
	}
	end, err := strconv.ParseInt(rec[colEndNodeID], 10, 64)
	if err != nil {
		return LinkRow{}, fmt.Errorf("end_node_id: %w", err)
	}
	length, err := strconv.ParseFloat(rec[colStreetLength], 64)
	if err != nil {
		return LinkRow{}, fmt.Errorf("street_length: %w", err)
	}

	row := LinkRow{BeginNodeID: begin, EndNodeID: end, Length: length}

	if len(rec) >= linkColumnsWithSpeed {
		speed, err := strconv.ParseFloat(rec[colSpeedLimit], 64)
		if err != nil {
			return LinkRow{}, fmt.Errorf("speed_limit: %w", err)
		}
		row.Speed = speed
		row.HasSpeed = true
	}

	if len(rec) >= linkColumnsWithFlags {
		row.ArcFlagsHex = rec[colArcFlagsIndex]
		row.HasArcFlags = row.ArcFlagsHex != ""
	}

	return row, nil
}
