package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/supplydeck/supplydeck/internal/query"
	"github.com/supplydeck/supplydeck/internal/retrieval"
)

// NewMCPServer exposes the fixture data over MCP: shipment lookup,
// document search, news and scenario listings, plus the network KPIs as a
// resource. Everything is read-only.
func NewMCPServer(queries *query.Service, docs *retrieval.Retriever) *server.MCPServer {
	s := server.NewMCPServer(
		"supplydeck",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("supplydeck — supply chain command center data: shipments, facilities, segments, news, and operational documents."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("lookup_shipment",
			mcp.WithDescription("Look up a shipment by id, including its ETA forecast history."),
			mcp.WithString("id", mcp.Description("Shipment id, e.g. SHP_2000"), mcp.Required()),
		),
		mcpLookupShipment(queries),
	)

	s.AddTool(
		mcp.NewTool("search_docs",
			mcp.WithDescription("Keyword-search the operational document library and return ranked snippets."),
			mcp.WithString("query", mcp.Description("Search query"), mcp.Required()),
			mcp.WithNumber("top", mcp.Description("Maximum number of snippets (default 3)")),
		),
		mcpSearchDocs(docs),
	)

	s.AddTool(
		mcp.NewTool("list_news",
			mcp.WithDescription("List news articles, optionally restricted to one dashboard tab."),
			mcp.WithNumber("tab", mcp.Description("Dashboard tab (1-3); omit for all tabs")),
		),
		mcpListNews(queries),
	)

	s.AddTool(
		mcp.NewTool("list_scenarios",
			mcp.WithDescription("List the predefined what-if scenarios for network simulation."),
		),
		mcpListScenarios(queries),
	)

	s.AddResource(
		mcp.NewResource(
			"supplydeck://kpis",
			"Network KPIs",
			mcp.WithResourceDescription("Current shipment-overview KPIs as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceKPIs(queries),
	)

	return s
}

func mcpLookupShipment(queries *query.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		shipment, err := queries.ShipmentByID(id)
		if err != nil {
			return mcpError(fmt.Sprintf("lookup failed: %v", err)), nil
		}
		if shipment == nil {
			return mcpError(fmt.Sprintf("shipment %s not found", id)), nil
		}

		b, err := json.Marshal(shipment)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal shipment: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSearchDocs(docs *retrieval.Retriever) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		top := req.GetInt("top", 3)
		if top <= 0 {
			top = 3
		}
		if top > 10 {
			top = 10
		}

		snippets := docs.Retrieve(q, top)
		if len(snippets) == 0 {
			return mcpText("[]"), nil
		}

		b, err := json.Marshal(snippets)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal snippets: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpListNews(queries *query.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tab := req.GetInt("tab", 0)
		if tab < 0 || tab > 3 {
			return mcpError("tab must be between 1 and 3"), nil
		}

		news, err := queries.News(query.NewsFilter{Tab: tab})
		if err != nil {
			return mcpError(fmt.Sprintf("loading news failed: %v", err)), nil
		}
		if len(news.Articles) == 0 {
			return mcpText("[]"), nil
		}

		b, err := json.Marshal(news.Articles)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal articles: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpListScenarios(queries *query.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		scenarios, err := queries.Scenarios()
		if err != nil {
			return mcpError(fmt.Sprintf("loading scenarios failed: %v", err)), nil
		}
		if len(scenarios) == 0 {
			return mcpText("[]"), nil
		}

		b, err := json.Marshal(scenarios)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal scenarios: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceKPIs(queries *query.Service) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		tab, err := queries.AnalyticsTab1()
		if err != nil {
			return nil, fmt.Errorf("failed to load analytics: %w", err)
		}

		b, err := json.Marshal(tab.KPIs)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal KPIs: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
