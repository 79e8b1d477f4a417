package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/supplydeck/supplydeck/internal/composer"
	"github.com/supplydeck/supplydeck/internal/fixtures"
	"github.com/supplydeck/supplydeck/internal/proxy"
	"github.com/supplydeck/supplydeck/internal/query"
)

// Deps wires the HTTP layer to the daemon's services. Completions may be
// nil: the chat endpoint then answers 503 per request while the query
// endpoints keep working.
type Deps struct {
	Store       *fixtures.Store
	Queries     *query.Service
	Builder     *composer.Builder
	Completions *proxy.Client
	Model       string
}

// NewHandler returns the full HTTP surface: /health, the streaming chat
// endpoint, and the read-only /api/v1 query endpoints.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	r.Post("/api/chat", handleChat(deps))

	r.Route("/api/v1", func(r chi.Router) {
		q := deps.Queries
		r.Get("/entities", handleEntities(q))
		r.Get("/vehicles", handleVehicles(q))
		r.Get("/segments", handleSegments(q))
		r.Get("/shipments", handleShipments(q))
		r.Get("/shipments/{shipmentID}", handleShipmentByID(q))
		r.Get("/items", handleItems(q))
		r.Get("/trees/{itemID}", handleTree(q))
		r.Get("/analytics/tab1", handleFixture(q, q.Tab1Path()))
		r.Get("/analytics/tab3", handleFixture(q, q.Tab3Path()))
		r.Get("/news", handleNews(q))
		r.Get("/weather", handleFixture(q, q.WeatherPath()))
		r.Get("/config/app", handleFixture(q, q.AppConfigPath()))
		r.Get("/config/news-sources", handleFixture(q, q.NewsSourcesPath()))
		r.Get("/chatbot/topics", handleTopics(deps.Store, q))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
