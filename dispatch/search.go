package dispatch

import (
	"strings"
)

// Summary is a lightweight search result describing one registered
// callable.
type Summary struct {
	ID          string
	Name        string
	Signature   string
	Description string
}

// SearchDoc is the searchable form of a registered callable.
type SearchDoc struct {
	ID      string
	DocText string
	Summary Summary
}

// Searcher ranks search documents for a query.
type Searcher interface {
	Search(query string, limit int, docs []SearchDoc) ([]Summary, error)
}

// Search ranks registered callables against query using the configured
// Searcher. An empty query lists callables in registration order.
func (r *Registry) Search(query string, limit int) ([]Summary, error) {
	if limit <= 0 {
		return nil, nil
	}
	return r.searcher.Search(query, limit, r.searchDocs())
}

func (r *Registry) searchDocs() []SearchDoc {
	sigs := r.All()
	docs := make([]SearchDoc, 0, len(sigs))
	for _, sig := range sigs {
		docs = append(docs, newSearchDoc(sig))
	}
	return docs
}

func newSearchDoc(sig Signature) SearchDoc {
	text := sig.String()
	parts := []string{sig.Name, text, sig.Func, sig.Description}
	for _, p := range sig.Params {
		parts = append(parts, p.String())
	}
	if sig.Returns != nil {
		parts = append(parts, sig.Returns.String())
	}
	return SearchDoc{
		ID:      sig.ID,
		DocText: strings.ToLower(strings.Join(parts, " ")),
		Summary: Summary{
			ID:          sig.ID,
			Name:        sig.Name,
			Signature:   text,
			Description: sig.Description,
		},
	}
}

// lexicalSearcher matches every query term as a substring of the document
// text, keeping document order.
type lexicalSearcher struct{}

func (lexicalSearcher) Search(query string, limit int, docs []SearchDoc) ([]Summary, error) {
	terms := strings.Fields(strings.ToLower(query))
	out := make([]Summary, 0, min(limit, len(docs)))
	for _, doc := range docs {
		if len(out) == limit {
			break
		}
		if matchesAll(doc.DocText, terms) {
			out = append(out, doc.Summary)
		}
	}
	return out, nil
}

func matchesAll(text string, terms []string) bool {
	for _, term := range terms {
		if !strings.Contains(text, term) {
			return false
		}
	}
	return true
}
