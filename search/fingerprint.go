package search

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/jonwraymond/tooldispatch/dispatch"
)

// computeFingerprint generates a stable hash of the document slice.
// The fingerprint changes when document content changes, enabling
// efficient cache invalidation for the BM25 index.
func computeFingerprint(docs []dispatch.SearchDoc) string {
	h := sha256.New()

	for _, doc := range docs {
		h.Write([]byte(doc.ID))
		h.Write([]byte{0}) // separator

		h.Write([]byte(doc.DocText))
		h.Write([]byte{0})

		h.Write([]byte(doc.Summary.ID))
		h.Write([]byte{0})
		h.Write([]byte(doc.Summary.Name))
		h.Write([]byte{0})
		h.Write([]byte(doc.Summary.Signature))
		h.Write([]byte{0})
		h.Write([]byte(doc.Summary.Description))
		h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil))
}
