// Package search provides BM25-based ranking of registered callables.
//
// It exists to keep the dispatch package dependency-light: dispatch ships a
// substring matcher, and callers wanting relevance ranking plug in
// [BM25Searcher] through dispatch.Options:
//
//	reg := dispatch.New(dispatch.Options{
//	    Searcher: search.NewBM25Searcher(search.BM25Config{}),
//	})
//	results, err := reg.Search("add numbers", 5)
//
// # Configuration
//
// [BM25Config] allows customization of field boosts and safety limits:
//
//	cfg := search.BM25Config{
//	    NameBoost:      3,    // Boost name matches (default: 3)
//	    SignatureBoost: 2,    // Boost signature matches (default: 2)
//	    MaxDocs:        1000, // Limit documents to index (0 = unlimited)
//	    MaxDocTextLen:  5000, // Truncate long descriptions (0 = unlimited)
//	}
//
// # Thread Safety
//
// BM25Searcher is safe for concurrent use. It caches the Bleve index keyed by
// a fingerprint of the documents and only rebuilds it when the registered
// callables change.
//
// # Behavior
//
// Empty queries return the first N documents in registration order.
// Non-empty queries use BM25 ranking with deterministic tie-breaking (score
// DESC, then ID ASC).
package search
