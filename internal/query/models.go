package query

// Fixture record types. Every "field may be absent" case in the fixture
// JSON is an explicit optional: pointers for numerics whose absence must
// render a placeholder, empty strings otherwise.

// Entity is a fixed physical facility (port, airport, warehouse, factory).
type Entity struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Name        string  `json:"name"`
	City        string  `json:"city"`
	Country     string  `json:"country"`
	Region      string  `json:"region"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Status      string  `json:"status"`
	LastUpdated string  `json:"last_updated"`
}

// Vehicle is a moving carrier (ship, flight, truck).
type Vehicle struct {
	ID               string   `json:"id"`
	Type             string   `json:"type"`
	Name             string   `json:"name,omitempty"`
	Status           string   `json:"status"`
	CurrentSegmentID string   `json:"current_segment_id,omitempty"`
	SegmentProgress  *float64 `json:"segment_progress,omitempty"`
	Lat              float64  `json:"lat"`
	Lon              float64  `json:"lon"`
	NextStopEntityID string   `json:"next_stop_entity_id,omitempty"`
	ETANextStop      string   `json:"eta_next_stop,omitempty"`
	LastUpdated      string   `json:"last_updated"`
}

// Segment is a directed transport leg between two entities.
type Segment struct {
	ID                       string       `json:"id"`
	FromID                   string       `json:"from_id"`
	ToID                     string       `json:"to_id"`
	Mode                     string       `json:"mode"`
	DistanceKm               float64      `json:"distance_km"`
	Geometry                 [][2]float64 `json:"geometry"`
	AvgTransitDays           float64      `json:"avg_transit_days"`
	TransitTimeVarianceDays  *float64     `json:"transit_time_variance_days,omitempty"`
	DelayVsPlanVarianceDays  *float64     `json:"delay_vs_plan_variance_days,omitempty"`
	CostUSDPerTon            float64      `json:"cost_usd_per_ton"`
	VolumeTonsPerWeek        float64      `json:"volume_tons_per_week"`
	DelayDaysCurrent         float64      `json:"delay_days_current"`
	Status                   string       `json:"status"`
	FromCity                 string       `json:"from_city,omitempty"`
	ToCity                   string       `json:"to_city,omitempty"`
	Corridor                 string       `json:"corridor,omitempty"`
}

// ETAForecastPoint is one entry of a shipment's ETA forecast time series,
// oldest first.
type ETAForecastPoint struct {
	AsOf               string   `json:"as_of"`
	ETA                string   `json:"eta"`
	CILow              string   `json:"ci_low"`
	CIHigh             string   `json:"ci_high"`
	ExpectedDelayHours float64  `json:"expected_delay_hours"`
	TopDrivers         []string `json:"top_drivers,omitempty"`
}

// Shipment is a tracked movement of goods along a path of segments.
type Shipment struct {
	ID                    string             `json:"id"`
	ShipmentNo            string             `json:"shipment_no"`
	OriginEntityID        string             `json:"origin_entity_id"`
	DestinationEntityID   string             `json:"destination_entity_id"`
	PathSegmentIDs        []string           `json:"path_segment_ids"`
	Status                string             `json:"status"`
	PredictedArrival      string             `json:"predicted_arrival,omitempty"`
	PlannedArrival        string             `json:"planned_arrival,omitempty"`
	ETAForecastTimeseries []ETAForecastPoint `json:"eta_forecast_timeseries,omitempty"`
}

// Item is a product or material tracked through the network.
type Item struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	Unit        string `json:"unit,omitempty"`
	Description string `json:"description,omitempty"`
	Active      *bool  `json:"active,omitempty"`
}

// TreeNode is a stage in an item's supply path.
type TreeNode struct {
	ID       string         `json:"id"`
	EntityID string         `json:"entity_id"`
	Name     string         `json:"name"`
	NodeType string         `json:"node_type"`
	Lat      float64        `json:"lat"`
	Lon      float64        `json:"lon"`
	Metrics  map[string]any `json:"metrics"`
}

// TreeEdge is a leg between two tree nodes.
type TreeEdge struct {
	ID                   string         `json:"id"`
	FromNodeID           string         `json:"from_node_id"`
	ToNodeID             string         `json:"to_node_id"`
	Label                string         `json:"label,omitempty"`
	UnderlyingSegmentIDs []string       `json:"underlying_segment_ids"`
	Geometry             [][2]float64   `json:"geometry"`
	Metrics              map[string]any `json:"metrics,omitempty"`
}

// MetricOption is a selectable metric in the tree explorer.
type MetricOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ItemTree is the hierarchical view of an item's supply path.
type ItemTree struct {
	Item          Item           `json:"item"`
	Nodes         []TreeNode     `json:"nodes"`
	Edges         []TreeEdge     `json:"edges"`
	MetricOptions []MetricOption `json:"metric_options"`
}

// NewsSource describes a news feed.
type NewsSource struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
	Region   string `json:"region"`
}

// NewsArticle is a single news item with tab and entity relevance.
type NewsArticle struct {
	ID              string   `json:"id"`
	Language        string   `json:"language"`
	Title           string   `json:"title"`
	TitleEn         string   `json:"title_en,omitempty"`
	Source          string   `json:"source"`
	SourceID        string   `json:"source_id"`
	URL             string   `json:"url"`
	PublishedAt     string   `json:"published_at"`
	Summary         string   `json:"summary"`
	SummaryEn       string   `json:"summary_en,omitempty"`
	Tags            []string `json:"tags"`
	Severity        int      `json:"severity"`
	RelatedEntities []string `json:"related_entities"`
	RelatedItems    []string `json:"related_items"`
	TabRelevance    []int    `json:"tab_relevance,omitempty"`
}

// NewsResponse is the news fixture with filters applied to Articles.
type NewsResponse struct {
	Sources  []NewsSource  `json:"sources"`
	Articles []NewsArticle `json:"articles"`
}

// ETATableRow is one risk-ranked row of the tab-1 analytics table.
type ETATableRow struct {
	ShipmentID         string   `json:"shipment_id"`
	ShipmentNo         string   `json:"shipment_no"`
	Origin             string   `json:"origin"`
	Destination        string   `json:"destination"`
	Status             string   `json:"status"`
	PredictedArrival   string   `json:"predicted_arrival,omitempty"`
	PlannedArrival     string   `json:"planned_arrival,omitempty"`
	PredictedDelayDays *float64 `json:"predicted_delay_days,omitempty"`
	RiskScore          *float64 `json:"risk_score,omitempty"`
	TopDrivers         []string `json:"top_drivers,omitempty"`
}

// AnalyticsTab1 is the shipment-overview analytics table.
type AnalyticsTab1 struct {
	KPIs             map[string]any `json:"kpis,omitempty"`
	ShipmentETATable []ETATableRow  `json:"shipment_eta_table,omitempty"`
}

// Scenario is a named set of hypothetical effects for what-if analysis.
type Scenario struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Effects     map[string]any `json:"effects,omitempty"`
}

// AnalyticsTab3 is the network-simulation analytics fixture.
type AnalyticsTab3 struct {
	PredefinedScenarios []Scenario `json:"predefined_scenarios,omitempty"`
}
