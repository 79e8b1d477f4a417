package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/supplydeck/supplydeck/internal/fixtures"
)

// Fixture paths, relative to the fixture root.
const (
	pathShipments   = "shipments/shipments.json"
	pathSegments    = "routes/segments.json"
	pathTab1        = "analytics/tab1.json"
	pathTab3        = "analytics/tab3.json"
	pathNews        = "news/news.json"
	pathWeather     = "weather/weather.json"
	pathAppConfig   = "config/app_config.json"
	pathNewsSources = "config/news_sources.json"
	pathTopics      = "chatbot/topics.json"
)

var entityFiles = map[string]string{
	"port":      "entities/ports.json",
	"airport":   "entities/airports.json",
	"warehouse": "entities/warehouses.json",
	"factory":   "entities/factories.json",
}

var vehicleFiles = map[string]string{
	"ship":   "vehicles/ships.json",
	"flight": "vehicles/flights.json",
	"truck":  "vehicles/trucks.json",
}

// EntityTypes and VehicleTypes are the defaults applied when a caller
// requests no explicit subset. Order matters: results concatenate in
// this order.
var (
	EntityTypes  = []string{"port", "airport", "warehouse", "factory"}
	VehicleTypes = []string{"ship", "flight", "truck"}
)

const defaultShipmentLimit = 500

// Service answers read-only queries over the fixture store. It is
// stateless: construct one at process start and share it across requests.
type Service struct {
	store *fixtures.Store
}

func NewService(store *fixtures.Store) *Service {
	return &Service{store: store}
}

// Entities returns the facilities of the requested types, concatenated in
// canonical type order. Unknown types are ignored.
func (s *Service) Entities(types []string) ([]Entity, error) {
	requested := toSet(types)
	var all []Entity
	for _, typ := range EntityTypes {
		if !requested[typ] {
			continue
		}
		var batch []Entity
		if err := s.store.ReadJSON(entityFiles[typ], &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
	}
	return all, nil
}

// Vehicles returns the carriers of the requested types.
func (s *Service) Vehicles(types []string) ([]Vehicle, error) {
	requested := toSet(types)
	var all []Vehicle
	for _, typ := range VehicleTypes {
		if !requested[typ] {
			continue
		}
		var batch []Vehicle
		if err := s.store.ReadJSON(vehicleFiles[typ], &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
	}
	return all, nil
}

// Segments returns all transport legs.
func (s *Service) Segments() ([]Segment, error) {
	var segments []Segment
	if err := s.store.ReadJSON(pathSegments, &segments); err != nil {
		return nil, err
	}
	return segments, nil
}

// ShipmentFilter narrows a Shipments call. Zero values mean "no filter";
// Limit <= 0 applies the default of 500.
type ShipmentFilter struct {
	Status string
	Search string
	Limit  int
}

// Shipments returns shipments matching the filter, in fixture order.
func (s *Service) Shipments(f ShipmentFilter) ([]Shipment, error) {
	var list []Shipment
	if err := s.store.ReadJSON(pathShipments, &list); err != nil {
		return nil, err
	}

	if f.Status != "" {
		filtered := list[:0:0]
		for _, sh := range list {
			if sh.Status == f.Status {
				filtered = append(filtered, sh)
			}
		}
		list = filtered
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		filtered := list[:0:0]
		for _, sh := range list {
			if containsFold(sh.ShipmentNo, q) || containsFold(sh.ID, q) ||
				containsFold(sh.OriginEntityID, q) || containsFold(sh.DestinationEntityID, q) {
				filtered = append(filtered, sh)
			}
		}
		list = filtered
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultShipmentLimit
	}
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// ShipmentByID returns the shipment with the given id, or nil when no
// shipment matches.
func (s *Service) ShipmentByID(id string) (*Shipment, error) {
	var list []Shipment
	if err := s.store.ReadJSON(pathShipments, &list); err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, nil
}

// Items returns products, materials, or both ("" selects both, products
// first).
func (s *Service) Items(itemType string) ([]Item, error) {
	var products, materials []Item
	if err := s.store.ReadJSON("items/products.json", &products); err != nil {
		return nil, err
	}
	if err := s.store.ReadJSON("items/materials.json", &materials); err != nil {
		return nil, err
	}
	switch itemType {
	case "product":
		return products, nil
	case "material":
		return materials, nil
	case "":
		return append(products, materials...), nil
	default:
		return nil, fmt.Errorf("unknown item type %q", itemType)
	}
}

// Tree returns the supply tree for an item, or nil when no tree fixture
// exists for it.
func (s *Service) Tree(itemID string) (*ItemTree, error) {
	var tree ItemTree
	if !s.store.ReadJSONSafe("trees/"+itemID+".json", &tree) {
		return nil, nil
	}
	return &tree, nil
}

// AnalyticsTab1 returns the shipment-overview analytics table.
func (s *Service) AnalyticsTab1() (AnalyticsTab1, error) {
	var tab AnalyticsTab1
	if err := s.store.ReadJSON(pathTab1, &tab); err != nil {
		return AnalyticsTab1{}, err
	}
	return tab, nil
}

// Scenarios returns the predefined what-if scenarios from the network
// analytics fixture.
func (s *Service) Scenarios() ([]Scenario, error) {
	var tab AnalyticsTab3
	if err := s.store.ReadJSON(pathTab3, &tab); err != nil {
		return nil, err
	}
	return tab.PredefinedScenarios, nil
}

// NewsFilter narrows a News call. Filters are ANDed; zero values are
// skipped. Tab 0 means "any tab".
type NewsFilter struct {
	Tab   int
	Tags  []string
	Query string
	Since string
	Lang  string
}

// News returns the news fixture with the article list filtered.
func (s *Service) News(f NewsFilter) (NewsResponse, error) {
	var data NewsResponse
	if err := s.store.ReadJSON(pathNews, &data); err != nil {
		return NewsResponse{}, err
	}

	articles := data.Articles
	if f.Tab != 0 {
		articles = filterArticles(articles, func(a NewsArticle) bool {
			for _, tab := range a.TabRelevance {
				if tab == f.Tab {
					return true
				}
			}
			return false
		})
	}
	if len(f.Tags) > 0 {
		want := toSet(f.Tags)
		articles = filterArticles(articles, func(a NewsArticle) bool {
			for _, tag := range a.Tags {
				if want[tag] {
					return true
				}
			}
			return false
		})
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		articles = filterArticles(articles, func(a NewsArticle) bool {
			return containsFold(a.Title, q) || containsFold(a.Summary, q) ||
				containsFold(a.TitleEn, q) || containsFold(a.SummaryEn, q)
		})
	}
	if f.Since != "" {
		since, err := time.Parse(time.RFC3339, f.Since)
		if err != nil {
			return NewsResponse{}, fmt.Errorf("parsing since: %w", err)
		}
		articles = filterArticles(articles, func(a NewsArticle) bool {
			published, err := time.Parse(time.RFC3339, a.PublishedAt)
			return err == nil && !published.Before(since)
		})
	}
	if f.Lang != "" {
		articles = filterArticles(articles, func(a NewsArticle) bool {
			return a.Language == f.Lang
		})
	}

	data.Articles = articles
	return data, nil
}

// Raw returns fixture bytes unmodified, for the passthrough endpoints
// (weather, app config, news sources, chatbot topics, analytics tabs).
func (s *Service) Raw(rel string) ([]byte, error) {
	return s.store.ReadRaw(rel)
}

// Passthrough fixture paths used by the API layer.
func (s *Service) WeatherPath() string     { return pathWeather }
func (s *Service) AppConfigPath() string   { return pathAppConfig }
func (s *Service) NewsSourcesPath() string { return pathNewsSources }
func (s *Service) TopicsPath() string      { return pathTopics }
func (s *Service) Tab1Path() string        { return pathTab1 }
func (s *Service) Tab3Path() string        { return pathTab3 }

func filterArticles(in []NewsArticle, keep func(NewsArticle) bool) []NewsArticle {
	out := in[:0:0]
	for _, a := range in {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func containsFold(s, loweredSubstr string) bool {
	return strings.Contains(strings.ToLower(s), loweredSubstr)
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
