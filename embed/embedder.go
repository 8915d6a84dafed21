package embed

import "github.com/docanchor/docanchor/document"

// Embedder adapts Verification to the pipeline's embedding collaborator
// interface, enabling substitution with test doubles.
type Embedder struct{}

func (Embedder) Verification(original document.Document, issuer, verifyURL string) (document.Document, error) {
	return Verification(original, issuer, verifyURL)
}
