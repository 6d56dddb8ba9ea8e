package loader

import (
	"strings"
	"testing"

	"github.com/giserh/taxisim/pkg/csvio"
)

const nodesCSV = `node_id,is_complete,num_in_links,num_out_links,osm_traffic_controller,longitude,latitude,osm_changeset,birth_timestamp,death_timestamp,region_id
1,1,1,1,,0,0,1,0,,0
2,1,1,1,,0,1,1,0,,0
3,1,1,1,,1,1,1,0,,0
`

const linksCSVBase = `link_id,begin_node_id,end_node_id,begin_angle,end_angle,street_length,osm_name,osm_class,osm_way_id,startX,startY,endX,endY,osm_changeset,birth_timestamp,death_timestamp
1,1,2,0,0,10,Main,1,1,0,0,0,0,1,0,
2,2,3,0,0,10,Main,1,1,0,0,0,0,1,0,
3,1,99,0,0,10,Main,1,1,0,0,0,0,1,0,
`

func TestLoadDropsDanglingLinks(t *testing.T) {
	res, err := Load(strings.NewReader(nodesCSV), strings.NewReader(linksCSVBase), DefaultConfig())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Graph.Nodes) != 3 {
		t.Fatalf("len(Nodes) = %d, want 3", len(res.Graph.Nodes))
	}
	if len(res.Graph.Links) != 2 {
		t.Fatalf("len(Links) = %d, want 2 (link to node 99 should be dropped)", len(res.Graph.Links))
	}
	if res.DroppedLinks != 1 {
		t.Fatalf("DroppedLinks = %d, want 1", res.DroppedLinks)
	}
}

func TestLoadAssignsDefaultSpeedWithoutSpeedColumn(t *testing.T) {
	res, err := Load(strings.NewReader(nodesCSV), strings.NewReader(linksCSVBase), DefaultConfig())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, l := range res.Graph.Links {
		if l.Speed != 5.0 {
			t.Errorf("link %d speed = %v, want default 5.0", l.ID, l.Speed)
		}
	}
}

func TestNearestNodeSnapsToClosest(t *testing.T) {
	res, err := Load(strings.NewReader(nodesCSV), strings.NewReader(linksCSVBase), DefaultConfig())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	n, _, ok := res.NearestNode(0.01, 0.01)
	if !ok {
		t.Fatal("expected a match inside the bounding box")
	}
	if n.ExternalID != 1 {
		t.Errorf("nearest node ExternalID = %d, want 1", n.ExternalID)
	}
}

func TestNearestNodeOutsideBoundsReturnsNoMatch(t *testing.T) {
	res, err := Load(strings.NewReader(nodesCSV), strings.NewReader(linksCSVBase), DefaultConfig())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, _, ok := res.NearestNode(50, 50); ok {
		t.Error("expected no match far outside the bounding box")
	}
}

func TestAssembleFromPreparsedRows(t *testing.T) {
	nodeRows := []csvio.NodeRow{
		{NodeID: 10, Lat: 0, Lon: 0, Region: 0},
		{NodeID: 20, Lat: 0, Lon: 1, Region: 0},
	}
	linkRows := []csvio.LinkRow{
		{BeginNodeID: 10, EndNodeID: 20, Length: 5},
	}
	res, err := Assemble(nodeRows, linkRows, DefaultConfig())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(res.Graph.Links) != 1 {
		t.Fatalf("len(Links) = %d, want 1", len(res.Graph.Links))
	}
}
