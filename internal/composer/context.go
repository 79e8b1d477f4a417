package composer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/supplydeck/supplydeck/internal/query"
	"github.com/supplydeck/supplydeck/internal/retrieval"
)

const (
	// placeholder renders absent numeric/date fields so row shapes stay
	// stable for the reading model.
	placeholder = "—"

	maxMentionLookups = 5
	inTransitFetch    = 25
	inTransitLines    = 15
	riskTableLines    = 15
	newsLines         = 5
	etaForecastTail   = 3
)

// Params is the UI selection state a context block is built from.
type Params struct {
	TabID              int
	SelectedEntityID   string
	SelectedItemID     string
	SelectedScenarioID string
	Role               string
	LastMessage        string
}

// Builder assembles the natural-language context block for a chat request
// from the query service and the document retriever. A context block is
// recomputed fresh for every request and never cached.
type Builder struct {
	queries *query.Service
	docs    *retrieval.Retriever
	topN    int
}

// NewBuilder creates a Builder. topN bounds document retrieval; <= 0
// applies the default of 3.
func NewBuilder(queries *query.Service, docs *retrieval.Retriever, topN int) *Builder {
	if topN <= 0 {
		topN = 3
	}
	return &Builder{queries: queries, docs: docs, topN: topN}
}

// Build produces the context block: a fixed-order sequence of sections
// joined by blank lines. Sections whose source data is missing or fails
// to load are omitted; no single section failure escalates. Independent
// fetches run concurrently, but output order is always the declared
// section order.
func (b *Builder) Build(ctx context.Context, p Params) string {
	builders := []func(context.Context, Params) string{
		b.headerSection,
		b.entitySection,
		b.itemSection,
		b.scenarioSection,
		b.mentionedShipmentsSection,
		b.inTransitSection,
		b.riskTableSection,
		b.newsSection,
		b.documentsSection,
	}

	sections := make([]string, len(builders))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, build := range builders {
		g.Go(func() error {
			sections[i] = build(gCtx, p)
			return nil
		})
	}
	g.Wait() // section builders never return errors

	var nonEmpty []string
	for _, section := range sections {
		if section != "" {
			nonEmpty = append(nonEmpty, section)
		}
	}
	return strings.Join(nonEmpty, "\n\n")
}

func (b *Builder) headerSection(_ context.Context, p Params) string {
	return fmt.Sprintf("Current tab: %d. User role: %s.", p.TabID, p.Role)
}

func (b *Builder) entitySection(_ context.Context, p Params) string {
	if p.SelectedEntityID == "" {
		return ""
	}
	entities, err := b.queries.Entities(query.EntityTypes)
	if err != nil {
		slog.Warn("context: entity lookup failed", "error", err)
		return ""
	}
	for _, entity := range entities {
		if entity.ID == p.SelectedEntityID {
			return "Selected entity: " + mustJSON(entity)
		}
	}
	return ""
}

func (b *Builder) itemSection(_ context.Context, p Params) string {
	if p.SelectedItemID == "" {
		return ""
	}
	tree, err := b.queries.Tree(p.SelectedItemID)
	if err != nil || tree == nil {
		return ""
	}
	return fmt.Sprintf("Selected item: %s\nTree nodes (summary): %d nodes, %d edges.",
		mustJSON(tree.Item), len(tree.Nodes), len(tree.Edges))
}

func (b *Builder) scenarioSection(_ context.Context, p Params) string {
	if p.SelectedScenarioID == "" {
		return ""
	}
	scenarios, err := b.queries.Scenarios()
	if err != nil {
		slog.Warn("context: scenario lookup failed", "error", err)
		return ""
	}
	for _, scenario := range scenarios {
		if scenario.ID == p.SelectedScenarioID {
			return "Selected scenario: " + mustJSON(scenario)
		}
	}
	return ""
}

// shipmentSummary is the bounded projection of a mentioned shipment. Only
// the last few ETA forecast points are included, oldest first.
type shipmentSummary struct {
	ID                    string                   `json:"id"`
	ShipmentNo            string                   `json:"shipment_no"`
	OriginEntityID        string                   `json:"origin_entity_id"`
	DestinationEntityID   string                   `json:"destination_entity_id"`
	Status                string                   `json:"status"`
	PlannedArrival        string                   `json:"planned_arrival,omitempty"`
	PredictedArrival      string                   `json:"predicted_arrival,omitempty"`
	PathSegmentIDs        []string                 `json:"path_segment_ids"`
	ETAForecastTimeseries []query.ETAForecastPoint `json:"eta_forecast_timeseries,omitempty"`
}

func (b *Builder) mentionedShipmentsSection(_ context.Context, p Params) string {
	ids := ShipmentMentions(p.LastMessage)
	if len(ids) > maxMentionLookups {
		ids = ids[:maxMentionLookups]
	}

	var lines []string
	for _, id := range ids {
		shipment, err := b.queries.ShipmentByID(id)
		if err != nil {
			slog.Warn("context: shipment lookup failed", "id", id, "error", err)
			continue
		}
		if shipment == nil {
			continue
		}
		forecast := shipment.ETAForecastTimeseries
		if len(forecast) > etaForecastTail {
			forecast = forecast[len(forecast)-etaForecastTail:]
		}
		summary := shipmentSummary{
			ID:                    shipment.ID,
			ShipmentNo:            shipment.ShipmentNo,
			OriginEntityID:        shipment.OriginEntityID,
			DestinationEntityID:   shipment.DestinationEntityID,
			Status:                shipment.Status,
			PlannedArrival:        shipment.PlannedArrival,
			PredictedArrival:      shipment.PredictedArrival,
			PathSegmentIDs:        shipment.PathSegmentIDs,
			ETAForecastTimeseries: forecast,
		}
		lines = append(lines, fmt.Sprintf("Shipment %s: %s", id, mustJSON(summary)))
	}
	return strings.Join(lines, "\n")
}

func (b *Builder) inTransitSection(_ context.Context, _ Params) string {
	shipments, err := b.queries.Shipments(query.ShipmentFilter{Status: "in_transit", Limit: inTransitFetch})
	if err != nil {
		slog.Warn("context: in-transit sample failed", "error", err)
		return ""
	}
	if len(shipments) == 0 {
		return ""
	}
	if len(shipments) > inTransitLines {
		shipments = shipments[:inTransitLines]
	}

	lines := []string{"Recent in-transit shipments (sample):"}
	for _, s := range shipments {
		lines = append(lines, fmt.Sprintf("- %s %s status=%s predicted_arrival=%s origin=%s dest=%s",
			s.ID, s.ShipmentNo, s.Status, orPlaceholder(s.PredictedArrival),
			s.OriginEntityID, s.DestinationEntityID))
	}
	return strings.Join(lines, "\n")
}

func (b *Builder) riskTableSection(_ context.Context, _ Params) string {
	tab, err := b.queries.AnalyticsTab1()
	if err != nil {
		slog.Warn("context: analytics lookup failed", "error", err)
		return ""
	}
	rows := tab.ShipmentETATable
	if len(rows) == 0 {
		return ""
	}
	if len(rows) > riskTableLines {
		rows = rows[:riskTableLines]
	}

	lines := []string{"Shipments by risk (from analytics, use for 'top N by risk'):"}
	for i, row := range rows {
		lines = append(lines, fmt.Sprintf("%d. %s %s risk_score=%s predicted_delay_days=%s status=%s origin=%s dest=%s top_drivers=[%s]",
			i+1, row.ShipmentID, row.ShipmentNo,
			floatOrPlaceholder(row.RiskScore), floatOrPlaceholder(row.PredictedDelayDays),
			row.Status, row.Origin, row.Destination, strings.Join(row.TopDrivers, ", ")))
	}
	return strings.Join(lines, "\n")
}

func (b *Builder) newsSection(_ context.Context, p Params) string {
	news, err := b.queries.News(query.NewsFilter{Tab: p.TabID})
	if err != nil {
		slog.Warn("context: news lookup failed", "error", err)
		return ""
	}
	articles := news.Articles
	if len(articles) == 0 {
		return ""
	}
	if len(articles) > newsLines {
		articles = articles[:newsLines]
	}

	lines := []string{"Relevant news (top 5):"}
	for _, a := range articles {
		lines = append(lines, fmt.Sprintf("- [%s] %s %s", a.ID, a.Title, a.Summary))
	}
	return strings.Join(lines, "\n")
}

func (b *Builder) documentsSection(_ context.Context, p Params) string {
	if p.LastMessage == "" {
		return ""
	}
	snippets := b.docs.Retrieve(p.LastMessage, b.topN)
	if len(snippets) == 0 {
		return ""
	}

	lines := []string{"RAG doc snippets:"}
	for _, s := range snippets {
		lines = append(lines, fmt.Sprintf("[%s]\n%s", s.DocID, s.Content))
	}
	return strings.Join(lines, "\n")
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func orPlaceholder(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}

func floatOrPlaceholder(v *float64) string {
	if v == nil {
		return placeholder
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
