package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/supplydeck/supplydeck/internal/composer"
	"github.com/supplydeck/supplydeck/internal/fixtures"
	"github.com/supplydeck/supplydeck/internal/proxy"
	"github.com/supplydeck/supplydeck/internal/query"
	"github.com/supplydeck/supplydeck/internal/retrieval"
)

func writeFixtureTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func newTestHandler(t *testing.T, files map[string]string, completions *proxy.Client) http.Handler {
	t.Helper()
	root := t.TempDir()
	writeFixtureTree(t, root, files)
	store, err := fixtures.Open(root)
	if err != nil {
		t.Fatal(err)
	}
	queries := query.NewService(store)
	docs := retrieval.NewRetriever(store, 0)
	return NewHandler(Deps{
		Store:       store,
		Queries:     queries,
		Builder:     composer.NewBuilder(queries, docs, 3),
		Completions: completions,
		Model:       "test-model",
	})
}

func apiFixtures() map[string]string {
	return map[string]string{
		"entities/ports.json":      `[{"id":"ENT_P1","type":"port","name":"Rotterdam","city":"Rotterdam","country":"NL","region":"EU","lat":51.9,"lon":4.5,"status":"open","last_updated":"2026-08-30T00:00:00Z"}]`,
		"entities/airports.json":   `[{"id":"ENT_A1","type":"airport","name":"Schiphol","city":"Amsterdam","country":"NL","region":"EU","lat":52.3,"lon":4.8,"status":"open","last_updated":"2026-08-30T00:00:00Z"}]`,
		"entities/warehouses.json": `[]`,
		"entities/factories.json":  `[{"id":"ENT_F1","type":"factory","name":"Gdansk Plant","city":"Gdansk","country":"PL","region":"EU","lat":54.3,"lon":18.6,"status":"open","last_updated":"2026-08-30T00:00:00Z"}]`,
		"vehicles/ships.json":      `[{"id":"VEH_S1","type":"ship","status":"underway","lat":52.0,"lon":3.0,"last_updated":"2026-08-30T00:00:00Z"}]`,
		"vehicles/flights.json":    `[]`,
		"vehicles/trucks.json":     `[{"id":"VEH_T1","type":"truck","status":"idle","lat":51.0,"lon":4.0,"last_updated":"2026-08-30T00:00:00Z"}]`,
		"routes/segments.json":     `[{"id":"SEG_1","from_id":"ENT_P1","to_id":"ENT_F1","mode":"sea","distance_km":1000,"geometry":[],"avg_transit_days":3,"cost_usd_per_ton":40,"volume_tons_per_week":500,"delay_days_current":0.5,"status":"ok"}]`,
		"shipments/shipments.json": `[
			{"id":"SHP_2000","shipment_no":"SN-2000","origin_entity_id":"ENT_P1","destination_entity_id":"ENT_F1","path_segment_ids":["SEG_1"],"status":"in_transit"},
			{"id":"SHP_2001","shipment_no":"SN-2001","origin_entity_id":"ENT_A1","destination_entity_id":"ENT_F1","path_segment_ids":[],"status":"delivered"}
		]`,
		"items/products.json":  `[{"id":"ITM_1","type":"product","name":"Engine"}]`,
		"items/materials.json": `[{"id":"ITM_2","type":"material","name":"Steel"}]`,
		"trees/ITM_1.json":     `{"item":{"id":"ITM_1","type":"product","name":"Engine"},"nodes":[],"edges":[],"metric_options":[]}`,
		"analytics/tab1.json":  `{"kpis":{"on_time_rate":0.81},"shipment_eta_table":[]}`,
		"analytics/tab3.json":  `{"predefined_scenarios":[{"id":"SC_1","name":"Suez closure","description":"Reroute sea legs"}]}`,
		"news/news.json": `{"sources":[],"articles":[
			{"id":"N1","language":"en","title":"Port strike","source":"Wire","source_id":"s","url":"u","published_at":"2026-08-29T00:00:00Z","summary":"Dock workers walk out","tags":["labor"],"severity":3,"related_entities":[],"related_items":[],"tab_relevance":[1]},
			{"id":"N2","language":"de","title":"Zollreform","source":"Wire","source_id":"s","url":"u","published_at":"2026-08-20T00:00:00Z","summary":"Neue Regeln","tags":["customs"],"severity":1,"related_entities":[],"related_items":[],"tab_relevance":[2]}
		]}`,
		"weather/weather.json":     `{"cells":[{"lat":51.9,"lon":4.5,"wind_kts":32}]}`,
		"config/app_config.json":   `{"refresh_interval_sec":30}`,
		"config/news_sources.json": `[{"id":"s","name":"Wire","language":"en","region":"EU"}]`,
		"chatbot/topics.json":      `{"topics":["Which shipments need intervention?"]}`,
	}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decodeList[T any](t *testing.T, rec *httptest.ResponseRecorder) []T {
	t.Helper()
	var list []T
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decoding response: %v\n%s", err, rec.Body.String())
	}
	return list
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t, apiFixtures(), nil)
	rec := get(t, h, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != `{"status":"ok"}` {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestEntitiesEndpoint(t *testing.T) {
	h := newTestHandler(t, apiFixtures(), nil)

	rec := get(t, h, "/api/v1/entities")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	all := decodeList[query.Entity](t, rec)
	if len(all) != 3 {
		t.Fatalf("got %d entities, want 3", len(all))
	}
	// Canonical type order: ports before airports before factories.
	if all[0].ID != "ENT_P1" || all[1].ID != "ENT_A1" || all[2].ID != "ENT_F1" {
		t.Errorf("unexpected order: %v %v %v", all[0].ID, all[1].ID, all[2].ID)
	}

	rec = get(t, h, "/api/v1/entities?types=port,factory")
	subset := decodeList[query.Entity](t, rec)
	if len(subset) != 2 || subset[0].Type != "port" || subset[1].Type != "factory" {
		t.Errorf("subset = %+v", subset)
	}

	if rec := get(t, h, "/api/v1/entities?types=castle"); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown type status = %d", rec.Code)
	}
}

func TestVehiclesEndpoint(t *testing.T) {
	h := newTestHandler(t, apiFixtures(), nil)

	rec := get(t, h, "/api/v1/vehicles?types=truck")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	trucks := decodeList[query.Vehicle](t, rec)
	if len(trucks) != 1 || trucks[0].ID != "VEH_T1" {
		t.Errorf("trucks = %+v", trucks)
	}
}

func TestShipmentsEndpoint(t *testing.T) {
	h := newTestHandler(t, apiFixtures(), nil)

	rec := get(t, h, "/api/v1/shipments?status=in_transit")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	list := decodeList[query.Shipment](t, rec)
	if len(list) != 1 || list[0].ID != "SHP_2000" {
		t.Errorf("list = %+v", list)
	}

	for _, bad := range []string{"limit=0", "limit=2001", "limit=abc"} {
		if rec := get(t, h, "/api/v1/shipments?"+bad); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", bad, rec.Code)
		}
	}
}

func TestShipmentByIDEndpoint(t *testing.T) {
	h := newTestHandler(t, apiFixtures(), nil)

	rec := get(t, h, "/api/v1/shipments/SHP_2001")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var sh query.Shipment
	if err := json.Unmarshal(rec.Body.Bytes(), &sh); err != nil {
		t.Fatal(err)
	}
	if sh.ShipmentNo != "SN-2001" {
		t.Errorf("shipment_no = %s", sh.ShipmentNo)
	}

	rec = get(t, h, "/api/v1/shipments/SHP_9999")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing shipment status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == "" {
		t.Errorf("expected flat error body, got %s", rec.Body.String())
	}
}

func TestItemsEndpoint(t *testing.T) {
	h := newTestHandler(t, apiFixtures(), nil)

	rec := get(t, h, "/api/v1/items")
	both := decodeList[query.Item](t, rec)
	if len(both) != 2 || both[0].Type != "product" || both[1].Type != "material" {
		t.Errorf("items = %+v", both)
	}

	rec = get(t, h, "/api/v1/items?type=material")
	materials := decodeList[query.Item](t, rec)
	if len(materials) != 1 || materials[0].ID != "ITM_2" {
		t.Errorf("materials = %+v", materials)
	}

	if rec := get(t, h, "/api/v1/items?type=gadget"); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown item type status = %d", rec.Code)
	}
}

func TestTreeEndpoint(t *testing.T) {
	h := newTestHandler(t, apiFixtures(), nil)

	if rec := get(t, h, "/api/v1/trees/ITM_1"); rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if rec := get(t, h, "/api/v1/trees/ITM_404"); rec.Code != http.StatusNotFound {
		t.Errorf("missing tree status = %d", rec.Code)
	}
}

func TestNewsEndpoint(t *testing.T) {
	h := newTestHandler(t, apiFixtures(), nil)

	rec := get(t, h, "/api/v1/news?tab=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var news query.NewsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &news); err != nil {
		t.Fatal(err)
	}
	if len(news.Articles) != 1 || news.Articles[0].ID != "N1" {
		t.Errorf("articles = %+v", news.Articles)
	}

	rec = get(t, h, "/api/v1/news?lang=de&tags=customs")
	if err := json.Unmarshal(rec.Body.Bytes(), &news); err != nil {
		t.Fatal(err)
	}
	if len(news.Articles) != 1 || news.Articles[0].ID != "N2" {
		t.Errorf("articles = %+v", news.Articles)
	}

	if rec := get(t, h, "/api/v1/news?tab=9"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad tab status = %d", rec.Code)
	}
	if rec := get(t, h, "/api/v1/news?since=yesterday"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad since status = %d", rec.Code)
	}
}

func TestFixturePassthroughEndpoints(t *testing.T) {
	h := newTestHandler(t, apiFixtures(), nil)

	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/weather", `{"cells":[{"lat":51.9,"lon":4.5,"wind_kts":32}]}`},
		{"/api/v1/config/app", `{"refresh_interval_sec":30}`},
		{"/api/v1/config/news-sources", `[{"id":"s","name":"Wire","language":"en","region":"EU"}]`},
		{"/api/v1/chatbot/topics", `{"topics":["Which shipments need intervention?"]}`},
		{"/api/v1/analytics/tab1", `{"kpis":{"on_time_rate":0.81},"shipment_eta_table":[]}`},
	}
	for _, tt := range tests {
		rec := get(t, h, tt.path)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d", tt.path, rec.Code)
			continue
		}
		if rec.Body.String() != tt.want {
			t.Errorf("%s: body = %s", tt.path, rec.Body.String())
		}
	}
}

func TestTopicsMissingFixture(t *testing.T) {
	files := apiFixtures()
	delete(files, "chatbot/topics.json")
	h := newTestHandler(t, files, nil)

	if rec := get(t, h, "/api/v1/chatbot/topics"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestCollectionReadFailure(t *testing.T) {
	files := apiFixtures()
	files["routes/segments.json"] = `{not json`
	h := newTestHandler(t, files, nil)

	if rec := get(t, h, "/api/v1/segments"); rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
