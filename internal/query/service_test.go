package query

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/supplydeck/supplydeck/internal/fixtures"
)

func newService(t *testing.T, files map[string]string) *Service {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	store, err := fixtures.Open(root)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	return NewService(store)
}

const shipmentsJSON = `[
	{"id":"SHP_1000","shipment_no":"SN-1000","origin_entity_id":"ENT_P1","destination_entity_id":"ENT_W1","path_segment_ids":["SEG_1"],"status":"in_transit","predicted_arrival":"2026-09-04T10:00:00Z"},
	{"id":"SHP_1001","shipment_no":"SN-1001","origin_entity_id":"ENT_P2","destination_entity_id":"ENT_W2","path_segment_ids":["SEG_2"],"status":"delivered"},
	{"id":"SHP_1002","shipment_no":"SN-1002","origin_entity_id":"ENT_P1","destination_entity_id":"ENT_F1","path_segment_ids":["SEG_3"],"status":"in_transit"}
]`

func TestEntitiesConcatenatesRequestedTypes(t *testing.T) {
	svc := newService(t, map[string]string{
		"entities/ports.json":    `[{"id":"ENT_P1","type":"port","name":"Rotterdam"}]`,
		"entities/airports.json": `[{"id":"ENT_A1","type":"airport","name":"Schiphol"}]`,
	})

	got, err := svc.Entities([]string{"airport", "port"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Canonical order: ports before airports regardless of request order.
	if len(got) != 2 || got[0].ID != "ENT_P1" || got[1].ID != "ENT_A1" {
		t.Errorf("entities = %+v", got)
	}

	got, err = svc.Entities([]string{"port"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "ENT_P1" {
		t.Errorf("entities = %+v", got)
	}
}

func TestEntitiesMissingFixture(t *testing.T) {
	svc := newService(t, nil)
	if _, err := svc.Entities([]string{"port"}); err == nil {
		t.Fatal("expected error for missing fixture")
	}
}

func TestShipmentsStatusFilter(t *testing.T) {
	svc := newService(t, map[string]string{"shipments/shipments.json": shipmentsJSON})

	got, err := svc.Shipments(ShipmentFilter{Status: "in_transit"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "SHP_1000" || got[1].ID != "SHP_1002" {
		t.Errorf("shipments = %+v", got)
	}
}

func TestShipmentsSearchIsCaseInsensitive(t *testing.T) {
	svc := newService(t, map[string]string{"shipments/shipments.json": shipmentsJSON})

	got, err := svc.Shipments(ShipmentFilter{Search: "sn-1001"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "SHP_1001" {
		t.Errorf("shipments = %+v", got)
	}

	// Searching by origin entity id matches too.
	got, err = svc.Shipments(ShipmentFilter{Search: "ent_p1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 matches for origin search, got %d", len(got))
	}
}

func TestShipmentsLimit(t *testing.T) {
	svc := newService(t, map[string]string{"shipments/shipments.json": shipmentsJSON})

	got, err := svc.Shipments(ShipmentFilter{Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestShipmentByID(t *testing.T) {
	svc := newService(t, map[string]string{"shipments/shipments.json": shipmentsJSON})

	sh, err := svc.ShipmentByID("SHP_1001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sh == nil || sh.ShipmentNo != "SN-1001" {
		t.Errorf("shipment = %+v", sh)
	}

	sh, err = svc.ShipmentByID("SHP_9999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sh != nil {
		t.Errorf("expected nil for unknown id, got %+v", sh)
	}
}

func TestItems(t *testing.T) {
	svc := newService(t, map[string]string{
		"items/products.json":  `[{"id":"ITM_P1","type":"product","name":"Engine"}]`,
		"items/materials.json": `[{"id":"ITM_M1","type":"material","name":"Steel"}]`,
	})

	both, err := svc.Items("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(both) != 2 || both[0].ID != "ITM_P1" || both[1].ID != "ITM_M1" {
		t.Errorf("items = %+v", both)
	}

	materials, err := svc.Items("material")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(materials) != 1 || materials[0].ID != "ITM_M1" {
		t.Errorf("materials = %+v", materials)
	}

	if _, err := svc.Items("gadget"); err == nil {
		t.Error("expected error for unknown item type")
	}
}

func TestTreeAbsentIsNil(t *testing.T) {
	svc := newService(t, map[string]string{
		"trees/ITM_P1.json": `{"item":{"id":"ITM_P1","type":"product","name":"Engine"},"nodes":[{"id":"N1","entity_id":"ENT_F1","name":"Factory","node_type":"source","lat":1,"lon":2,"metrics":{}}],"edges":[],"metric_options":[]}`,
	})

	tree, err := svc.Tree("ITM_P1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree == nil || len(tree.Nodes) != 1 {
		t.Errorf("tree = %+v", tree)
	}

	tree, err = svc.Tree("ITM_NOPE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree != nil {
		t.Errorf("expected nil tree, got %+v", tree)
	}
}

func TestScenarios(t *testing.T) {
	svc := newService(t, map[string]string{
		"analytics/tab3.json": `{"predefined_scenarios":[{"id":"SC_1","name":"Suez closure","description":"Reroute sea legs"}]}`,
	})

	scenarios, err := svc.Scenarios()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scenarios) != 1 || scenarios[0].ID != "SC_1" {
		t.Errorf("scenarios = %+v", scenarios)
	}
}

func TestNewsFilters(t *testing.T) {
	svc := newService(t, map[string]string{
		"news/news.json": `{"sources":[{"id":"src1","name":"Wire","language":"en","region":"EU"}],"articles":[
			{"id":"N1","language":"en","title":"Port strike in Rotterdam","source":"Wire","source_id":"src1","url":"u","published_at":"2026-08-20T00:00:00Z","summary":"Dock workers walk out","tags":["strike"],"severity":3,"related_entities":[],"related_items":[],"tab_relevance":[1,2]},
			{"id":"N2","language":"de","title":"Sturm in der Nordsee","source":"Wire","source_id":"src1","url":"u","published_at":"2026-08-28T00:00:00Z","summary":"Schifffahrt verzoegert","tags":["weather"],"severity":2,"related_entities":[],"related_items":[],"tab_relevance":[3]}
		]}`,
	})

	tests := []struct {
		name   string
		filter NewsFilter
		want   []string
	}{
		{"by tab", NewsFilter{Tab: 1}, []string{"N1"}},
		{"by tag", NewsFilter{Tags: []string{"weather"}}, []string{"N2"}},
		{"by query", NewsFilter{Query: "STRIKE"}, []string{"N1"}},
		{"by since", NewsFilter{Since: "2026-08-25T00:00:00Z"}, []string{"N2"}},
		{"by lang", NewsFilter{Lang: "de"}, []string{"N2"}},
		{"combined", NewsFilter{Tab: 3, Lang: "de"}, []string{"N2"}},
		{"no match", NewsFilter{Tab: 1, Lang: "de"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.News(tt.filter)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got.Articles) != len(tt.want) {
				t.Fatalf("got %d articles, want %d", len(got.Articles), len(tt.want))
			}
			for i, id := range tt.want {
				if got.Articles[i].ID != id {
					t.Errorf("article[%d] = %s, want %s", i, got.Articles[i].ID, id)
				}
			}
			if len(got.Sources) != 1 {
				t.Errorf("sources should pass through unfiltered")
			}
		})
	}
}
