package retrieval

import (
	"bytes"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/supplydeck/supplydeck/internal/fixtures"
)

const (
	indexPath = "chatbot/rag_index.json"
	docsDir   = "chatbot/rag_docs"

	defaultMaxDocChars = 3000
	minTokenLen        = 3
)

// IndexEntry is one record of the document index: a stable doc id, the
// backing filename under the docs directory, and its keyword set.
type IndexEntry struct {
	DocID    string   `json:"doc_id"`
	Filename string   `json:"filename"`
	Keywords []string `json:"keywords"`
}

type index struct {
	Docs []IndexEntry `json:"docs"`
}

// Snippet is a retrieved document fragment, truncated to the configured
// character cap.
type Snippet struct {
	DocID   string
	Content string
}

// Retriever ranks indexed documents against a query by keyword overlap.
// The index is re-read on every call; since the fixture store is
// read-only this is safe under concurrent requests.
type Retriever struct {
	store       *fixtures.Store
	maxDocChars int
}

// NewRetriever creates a Retriever over the given fixture store.
// maxDocChars <= 0 applies the default cap of 3000.
func NewRetriever(store *fixtures.Store, maxDocChars int) *Retriever {
	if maxDocChars <= 0 {
		maxDocChars = defaultMaxDocChars
	}
	return &Retriever{store: store, maxDocChars: maxDocChars}
}

type scoredEntry struct {
	IndexEntry
	score int
}

// Retrieve returns the up-to-topN highest scoring documents for the
// query. Zero-score documents are never returned, so the result may be
// shorter than topN. Any failure loading the index degrades to an empty
// result; a failure reading an individual document skips that document.
func (r *Retriever) Retrieve(query string, topN int) []Snippet {
	if topN <= 0 {
		return nil
	}

	var idx index
	if err := r.store.ReadJSON(indexPath, &idx); err != nil {
		slog.Debug("document index unavailable, skipping retrieval", "error", err)
		return nil
	}

	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	scored := make([]scoredEntry, len(idx.Docs))
	for i, entry := range idx.Docs {
		scored[i] = scoredEntry{IndexEntry: entry, score: score(entry.Keywords, tokens)}
	}
	// Stable, so equal scores keep index order and results are deterministic.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if topN > len(scored) {
		topN = len(scored)
	}
	// Only the first topN ranked entries are candidates; an unreadable
	// document shrinks the result rather than pulling in a lower-ranked one.
	var snippets []Snippet
	for _, entry := range scored[:topN] {
		if entry.score == 0 {
			break
		}
		content, err := r.readDocument(entry.Filename)
		if err != nil {
			slog.Warn("skipping unreadable document", "doc_id", entry.DocID, "error", err)
			continue
		}
		snippets = append(snippets, Snippet{DocID: entry.DocID, Content: content})
	}
	return snippets
}

// Tokenize lowercases the query, splits on whitespace, and drops tokens
// shorter than three characters.
func Tokenize(query string) []string {
	var tokens []string
	for _, tok := range strings.Fields(strings.ToLower(query)) {
		if len(tok) >= minTokenLen {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// score counts keywords that match some query token by bidirectional
// substring containment: "port" matches "ports" and vice versa.
func score(keywords, tokens []string) int {
	matched := 0
	for _, kw := range keywords {
		for _, tok := range tokens {
			if strings.Contains(kw, tok) || strings.Contains(tok, kw) {
				matched++
				break
			}
		}
	}
	return matched
}

func (r *Retriever) readDocument(filename string) (string, error) {
	path := r.store.Path(docsDir + "/" + filename)
	if strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return r.readPDF(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return r.truncate(string(data)), nil
}

func (r *Retriever) readPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	return r.truncate(buf.String()), nil
}

// truncate applies the character cap. The cut is not word-aware.
func (r *Retriever) truncate(content string) string {
	if len(content) > r.maxDocChars {
		return content[:r.maxDocChars]
	}
	return content
}
