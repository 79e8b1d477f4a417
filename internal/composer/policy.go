package composer

import (
	"strings"

	"github.com/supplydeck/supplydeck/internal/fixtures"
)

const policyPath = "chatbot/policies.json"

// Policy describes the assistant's scope boundaries. All fields are
// optional; a missing or unreadable policy fixture degrades to the zero
// value.
type Policy struct {
	OutOfScopePolicy string `json:"out_of_scope_policy,omitempty"`
	Scope            struct {
		InScope []string `json:"in_scope,omitempty"`
	} `json:"scope,omitempty"`
}

// LoadPolicy reads the policy fixture best-effort.
func LoadPolicy(store *fixtures.Store) Policy {
	var p Policy
	store.ReadJSONSafe(policyPath, &p)
	return p
}

// SystemInstruction builds the fixed system prompt for the assistant,
// folding in the policy document when present. The out-of-scope refusal
// rule is the one hard business rule: refuse only topics that are clearly
// not supply chain.
func SystemInstruction(p Policy) string {
	lines := []string{
		"You are a supply chain assistant for a command center dashboard.",
		"You MUST answer questions about: shipments (status, location, ETAs, which need intervention, delays), carriers and vehicles (ships, flights, trucks), ports/airports/warehouses/factories, segments, congestion, scenarios, news, and weather impacts. These are always in scope—answer them using the provided context. If the context has no exact match, summarize what is available (e.g. KPIs, recent news) and note any gaps.",
		"Only refuse with an out-of-scope message for topics that are clearly NOT supply chain (e.g. medical advice, legal advice, political opinions, personal data). Do NOT say out-of-scope for questions about shipments, carriers, delays, intervention, entities, or logistics.",
		"Use the provided context (structured data, news, RAG docs) to ground your answer. Cite sources as [S1], [S2] when possible. Do not invent data; if something is missing from context, say so briefly and still give a helpful answer where you can.",
	}
	if len(p.Scope.InScope) > 0 {
		lines = append(lines, "In-scope topics: "+strings.Join(p.Scope.InScope, ", ")+".")
	}
	if p.OutOfScopePolicy != "" {
		lines = append(lines, "Out-of-scope policy: "+p.OutOfScopePolicy)
	}
	return strings.Join(lines, "\n")
}
