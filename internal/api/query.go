package api

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/supplydeck/supplydeck/internal/fixtures"
	"github.com/supplydeck/supplydeck/internal/query"
)

const maxShipmentLimit = 2000

func handleEntities(q *query.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		types, ok := typesParam(w, r, query.EntityTypes)
		if !ok {
			return
		}
		entities, err := q.Entities(types)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "loading entities: %v", err)
			return
		}
		if entities == nil {
			entities = []query.Entity{}
		}
		writeJSON(w, entities)
	}
}

func handleVehicles(q *query.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		types, ok := typesParam(w, r, query.VehicleTypes)
		if !ok {
			return
		}
		vehicles, err := q.Vehicles(types)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "loading vehicles: %v", err)
			return
		}
		if vehicles == nil {
			vehicles = []query.Vehicle{}
		}
		writeJSON(w, vehicles)
	}
}

// typesParam parses the comma-separated types filter, defaulting to all
// known types. An unknown type is a 400; ok reports whether the request
// should proceed.
func typesParam(w http.ResponseWriter, r *http.Request, known []string) (types []string, ok bool) {
	raw := r.URL.Query().Get("types")
	if raw == "" {
		return known, true
	}
	for _, typ := range strings.Split(raw, ",") {
		typ = strings.TrimSpace(typ)
		if !slices.Contains(known, typ) {
			httpError(w, http.StatusBadRequest, "unknown type %q", typ)
			return nil, false
		}
		types = append(types, typ)
	}
	return types, true
}

func handleSegments(q *query.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		segments, err := q.Segments()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "loading segments: %v", err)
			return
		}
		if segments == nil {
			segments = []query.Segment{}
		}
		writeJSON(w, segments)
	}
}

func handleShipments(q *query.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := r.URL.Query()
		filter := query.ShipmentFilter{
			Status: params.Get("status"),
			Search: params.Get("search"),
		}
		if raw := params.Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 1 || limit > maxShipmentLimit {
				httpError(w, http.StatusBadRequest, "limit must be an integer between 1 and %d", maxShipmentLimit)
				return
			}
			filter.Limit = limit
		}

		shipments, err := q.Shipments(filter)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "loading shipments: %v", err)
			return
		}
		if shipments == nil {
			shipments = []query.Shipment{}
		}
		writeJSON(w, shipments)
	}
}

func handleShipmentByID(q *query.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "shipmentID")
		shipment, err := q.ShipmentByID(id)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "loading shipment: %v", err)
			return
		}
		if shipment == nil {
			httpError(w, http.StatusNotFound, "shipment %s not found", id)
			return
		}
		writeJSON(w, shipment)
	}
}

func handleItems(q *query.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemType := r.URL.Query().Get("type")
		switch itemType {
		case "", "product", "material":
		default:
			httpError(w, http.StatusBadRequest, "unknown item type %q", itemType)
			return
		}

		items, err := q.Items(itemType)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "loading items: %v", err)
			return
		}
		if items == nil {
			items = []query.Item{}
		}
		writeJSON(w, items)
	}
}

func handleTree(q *query.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "itemID")
		tree, err := q.Tree(id)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "loading tree: %v", err)
			return
		}
		if tree == nil {
			httpError(w, http.StatusNotFound, "no tree for item %s", id)
			return
		}
		writeJSON(w, tree)
	}
}

func handleNews(q *query.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := r.URL.Query()
		filter := query.NewsFilter{
			Query: params.Get("q"),
			Lang:  params.Get("lang"),
		}
		if raw := params.Get("tab"); raw != "" {
			tab, err := strconv.Atoi(raw)
			if err != nil || tab < 1 || tab > 3 {
				httpError(w, http.StatusBadRequest, "tab must be 1, 2 or 3")
				return
			}
			filter.Tab = tab
		}
		if raw := params.Get("tags"); raw != "" {
			filter.Tags = strings.Split(raw, ",")
		}
		if raw := params.Get("since"); raw != "" {
			if _, err := time.Parse(time.RFC3339, raw); err != nil {
				httpError(w, http.StatusBadRequest, "since must be an RFC 3339 timestamp")
				return
			}
			filter.Since = raw
		}

		news, err := q.News(filter)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "loading news: %v", err)
			return
		}
		if news.Articles == nil {
			news.Articles = []query.NewsArticle{}
		}
		writeJSON(w, news)
	}
}

// handleFixture serves a fixture file verbatim. The files are JSON
// already; re-encoding them would only cost fidelity.
func handleFixture(q *query.Service, rel string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := q.Raw(rel)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "loading %s: %v", rel, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(raw)
	}
}

// handleTopics serves the suggested-question chips. The fixture is
// optional, so absence is a 404 rather than a server error.
func handleTopics(store *fixtures.Store, q *query.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !store.Exists(q.TopicsPath()) {
			httpError(w, http.StatusNotFound, "no topics configured")
			return
		}
		handleFixture(q, q.TopicsPath())(w, r)
	}
}
