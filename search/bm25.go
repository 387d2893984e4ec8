package search

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/jonwraymond/tooldispatch/dispatch"
)

// BM25Config configures field boosts and safety limits of a BM25Searcher.
type BM25Config struct {
	// NameBoost weights matches on the registered name.
	// Default: 3.
	NameBoost int

	// SignatureBoost weights matches on the rendered signature.
	// Default: 2.
	SignatureBoost int

	// MaxDocs limits the number of indexed documents.
	// Default: 0 (unlimited).
	MaxDocs int

	// MaxDocTextLen truncates document text before indexing.
	// Default: 0 (unlimited).
	MaxDocTextLen int
}

func (c BM25Config) withDefaults() BM25Config {
	if c.NameBoost <= 0 {
		c.NameBoost = 3
	}
	if c.SignatureBoost <= 0 {
		c.SignatureBoost = 2
	}
	return c
}

// BM25Searcher ranks registered callables with a Bleve in-memory index.
type BM25Searcher struct {
	cfg BM25Config

	mu          sync.RWMutex
	index       bleve.Index
	fingerprint string
	summaries   map[string]dispatch.Summary
}

var _ dispatch.Searcher = (*BM25Searcher)(nil)

// NewBM25Searcher creates a searcher with the given config.
func NewBM25Searcher(cfg BM25Config) *BM25Searcher {
	return &BM25Searcher{cfg: cfg.withDefaults()}
}

type bleveDoc struct {
	Name        string `json:"name"`
	Signature   string `json:"signature"`
	Description string `json:"description"`
	Text        string `json:"text"`
}

// Search returns up to limit summaries ranked for query. Results are ordered
// by score descending, then ID ascending.
func (s *BM25Searcher) Search(q string, limit int, docs []dispatch.SearchDoc) ([]dispatch.Summary, error) {
	if limit <= 0 {
		return []dispatch.Summary{}, nil
	}
	if s.cfg.MaxDocs > 0 && len(docs) > s.cfg.MaxDocs {
		docs = docs[:s.cfg.MaxDocs]
	}

	q = strings.TrimSpace(q)
	if q == "" {
		out := make([]dispatch.Summary, 0, min(limit, len(docs)))
		for _, doc := range docs[:min(limit, len(docs))] {
			out = append(out, doc.Summary)
		}
		return out, nil
	}

	if err := s.ensureIndex(docs); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(s.buildQuery(q), len(docs), 0, false)
	res, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", q, err)
	}

	hits := res.Hits
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})

	out := make([]dispatch.Summary, 0, min(limit, len(hits)))
	for _, hit := range hits {
		if len(out) == limit {
			break
		}
		if summary, ok := s.summaries[hit.ID]; ok {
			out = append(out, summary)
		}
	}
	return out, nil
}

func (s *BM25Searcher) buildQuery(q string) query.Query {
	name := bleve.NewMatchQuery(q)
	name.SetField("name")
	name.SetBoost(float64(s.cfg.NameBoost))

	sig := bleve.NewMatchQuery(q)
	sig.SetField("signature")
	sig.SetBoost(float64(s.cfg.SignatureBoost))

	desc := bleve.NewMatchQuery(q)
	desc.SetField("description")

	text := bleve.NewMatchQuery(q)
	text.SetField("text")

	return bleve.NewDisjunctionQuery(name, sig, desc, text)
}

// ensureIndex rebuilds the index when the document set changed.
func (s *BM25Searcher) ensureIndex(docs []dispatch.SearchDoc) error {
	fp := computeFingerprint(docs)

	s.mu.RLock()
	current := s.index != nil && s.fingerprint == fp
	s.mu.RUnlock()
	if current {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index != nil && s.fingerprint == fp {
		return nil
	}

	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	batch := idx.NewBatch()
	summaries := make(map[string]dispatch.Summary, len(docs))
	for _, doc := range docs {
		text := doc.DocText
		if s.cfg.MaxDocTextLen > 0 && len(text) > s.cfg.MaxDocTextLen {
			text = text[:s.cfg.MaxDocTextLen]
		}
		err := batch.Index(doc.ID, bleveDoc{
			Name:        doc.Summary.Name,
			Signature:   doc.Summary.Signature,
			Description: doc.Summary.Description,
			Text:        text,
		})
		if err != nil {
			_ = idx.Close()
			return fmt.Errorf("index %s: %w", doc.ID, err)
		}
		summaries[doc.ID] = doc.Summary
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return fmt.Errorf("index batch: %w", err)
	}

	if s.index != nil {
		_ = s.index.Close()
	}
	s.index = idx
	s.fingerprint = fp
	s.summaries = summaries
	return nil
}

// Close releases the index. The searcher rebuilds it on the next query.
func (s *BM25Searcher) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		return nil
	}
	err := s.index.Close()
	s.index = nil
	s.fingerprint = ""
	s.summaries = nil
	return err
}
