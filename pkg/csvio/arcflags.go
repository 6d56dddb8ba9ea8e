package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/giserh/taxisim/pkg/bitcodec"
	"github.com/giserh/taxisim/pkg/mapmodel"
)

// WriteArcFlags persists g's arc-flag table, one row per link:
// (begin_node_id, end_node_id, hex_flags), per spec §6 "Arc-flag output".
// Links the precomputation never touched (ReachableRegions == nil) are
// written with an all-zero bitset of width g.NumRegions rather than
// skipped, so the output row count always equals len(g.Links).
func WriteArcFlags(w io.Writer, g *mapmodel.Graph) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"begin_node_id", "end_node_id", "hex_flags"}); err != nil {
		return fmt.Errorf("csvio: write arc-flag header: %w", err)
	}

	empty := bitcodec.NewBitset(g.NumRegions)
	for _, l := range g.Links {
		bits := l.ReachableRegions
		if bits == nil {
			bits = empty
		}
		row := []string{
			fmt.Sprintf("%d", g.Nodes[l.Origin].ExternalID),
			fmt.Sprintf("%d", g.Nodes[l.Target].ExternalID),
			bitcodec.Encode(bits),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csvio: write arc-flag row for link %d: %w", l.ID, err)
		}
	}
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csvio: flush arc-flag csv: %w", err)
	}
	return nil
}

// ArcFlagRow is one parsed row of an arc-flag table, keyed by the source
// CSV's external node IDs rather than internal arena NodeIDs.
type ArcFlagRow struct {
	BeginNodeID, EndNodeID int64
	FlagsHex               string
}

// ReadArcFlags parses a previously-written arc-flag CSV, for a query
// server loading a finished precomputation without re-running it.
func ReadArcFlags(r io.Reader) ([]ArcFlagRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3

	if _, err := cr.Read(); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("csvio: empty arc-flag file")
		}
		return nil, fmt.Errorf("csvio: read arc-flag header: %w", err)
	}

	var rows []ArcFlagRow
	lineNum := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		lineNum++
		if err != nil {
			return nil, fmt.Errorf("csvio: arc-flags line %d: %w", lineNum, err)
		}
		begin, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("csvio: arc-flags line %d: begin_node_id: %w", lineNum, err)
		}
		end, err := strconv.ParseInt(rec[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("csvio: arc-flags line %d: end_node_id: %w", lineNum, err)
		}
		rows = append(rows, ArcFlagRow{BeginNodeID: begin, EndNodeID: end, FlagsHex: rec[2]})
	}
	return rows, nil
}
