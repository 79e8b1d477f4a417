package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/supplydeck/supplydeck/internal/composer"
	"github.com/supplydeck/supplydeck/internal/proxy"
)

const (
	maxChatBodySize = 1 << 20 // 1MB
	defaultRole     = "dispatcher"
	defaultTab      = 1
)

// chatEnvelope is the leniently-parsed chat request body. Fields stay raw
// so a malformed individual field degrades to its default instead of
// rejecting the request; only an unparseable body is a 400. Unknown
// fields are ignored.
type chatEnvelope struct {
	Messages           json.RawMessage `json:"messages"`
	TabID              json.RawMessage `json:"tabId"`
	SelectedEntityID   json.RawMessage `json:"selectedEntityId"`
	SelectedItemID     json.RawMessage `json:"selectedItemId"`
	SelectedScenarioID json.RawMessage `json:"selectedScenarioId"`
	Role               json.RawMessage `json:"role"`
	Filters            json.RawMessage `json:"filters"` // accepted, unused
}

func handleChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Completions == nil {
			httpError(w, http.StatusServiceUnavailable, "completion service credential is not configured")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxChatBodySize)
		defer r.Body.Close()

		var env chatEnvelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			httpError(w, http.StatusBadRequest, "invalid request body: %v", err)
			return
		}

		// A messages field that is not an array of {role, content}
		// degrades to an empty history.
		var history []proxy.Message
		if len(env.Messages) > 0 {
			json.Unmarshal(env.Messages, &history)
		}

		params := composer.Params{
			TabID:              intField(env.TabID, defaultTab),
			SelectedEntityID:   stringField(env.SelectedEntityID),
			SelectedItemID:     stringField(env.SelectedItemID),
			SelectedScenarioID: stringField(env.SelectedScenarioID),
			Role:               stringField(env.Role),
			LastMessage:        lastUserMessage(history),
		}
		if params.Role == "" {
			params.Role = defaultRole
		}

		id := uuid.NewString()
		slog.Info("chat request",
			"id", id,
			"tab", params.TabID,
			"role", params.Role,
			"history", len(history),
		)

		instruction := composer.SystemInstruction(composer.LoadPolicy(deps.Store))
		contextBlock := deps.Builder.Build(r.Context(), params)

		messages := make([]proxy.Message, 0, len(history)+1)
		messages = append(messages, proxy.Message{
			Role:    "system",
			Content: instruction + "\n\nContext:\n" + contextBlock,
		})
		messages = append(messages, history...)

		stream, err := deps.Completions.ChatStream(r.Context(), deps.Model, messages)
		if err != nil {
			slog.Error("chat upstream failure", "id", id, "error", err)
			httpError(w, http.StatusInternalServerError, "completion service failure")
			return
		}
		defer stream.Close()

		flusher, ok := w.(http.Flusher)
		if !ok {
			httpError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")

		for {
			fragment, err := stream.Recv()
			if err != nil {
				// Bytes already flushed stand; a mid-stream failure
				// simply ends the response.
				if !errors.Is(err, io.EOF) {
					slog.Warn("chat stream ended early", "id", id, "error", err)
				}
				return
			}
			io.WriteString(w, fragment)
			flusher.Flush()
		}
	}
}

func lastUserMessage(history []proxy.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "user" {
			return history[i].Content
		}
	}
	return ""
}

func stringField(raw json.RawMessage) string {
	var s string
	if len(raw) > 0 {
		json.Unmarshal(raw, &s)
	}
	return s
}

func intField(raw json.RawMessage, def int) int {
	// Unmarshal into *int: a literal null leaves the pointer nil instead
	// of silently decoding to 0.
	var n *int
	if len(raw) == 0 || json.Unmarshal(raw, &n) != nil || n == nil {
		return def
	}
	return *n
}
