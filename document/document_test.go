package document

import (
	"bytes"
	"testing"
)

func TestDocumentCopiesBytes(t *testing.T) {
	src := []byte("original content")
	doc := New("diploma.pdf", "application/pdf", src)

	src[0] = 'X'
	if !bytes.Equal(doc.Bytes(), []byte("original content")) {
		t.Fatalf("mutating the source slice changed the document")
	}

	out := doc.Bytes()
	out[0] = 'Y'
	if !bytes.Equal(doc.Bytes(), []byte("original content")) {
		t.Fatalf("mutating a returned copy changed the document")
	}
}

func TestDocumentExt(t *testing.T) {
	if got := New("diploma.pdf", "application/pdf", nil).Ext(); got != ".pdf" {
		t.Fatalf("Ext = %q, want .pdf", got)
	}
	if got := New("diploma", "application/pdf", nil).Ext(); got != "" {
		t.Fatalf("Ext = %q, want empty", got)
	}
}

func TestDocumentIsZero(t *testing.T) {
	var zero Document
	if !zero.IsZero() {
		t.Fatalf("zero Document not reported as zero")
	}
	if New("a", "", nil).IsZero() {
		t.Fatalf("named Document reported as zero")
	}
}
