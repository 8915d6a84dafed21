// Package document defines the immutable document value carried through the
// issuance pipeline.
package document

import "path/filepath"

// Document is an opaque byte sequence with a display name and a declared
// media type.
//
// Documents are values: once constructed they never change, and every
// transformation produces a new Document. Bytes returns a copy so callers
// cannot mutate the underlying content.
type Document struct {
	name     string
	mimeType string
	data     []byte
}

// New constructs a Document from name, media type, and content bytes.
// The bytes are copied on construction.
func New(name, mimeType string, data []byte) Document {
	return Document{
		name:     name,
		mimeType: mimeType,
		data:     append([]byte(nil), data...),
	}
}

// Name returns the display name, including any extension.
func (d Document) Name() string { return d.name }

// MIMEType returns the declared media type (e.g. "application/pdf").
func (d Document) MIMEType() string { return d.mimeType }

// Bytes returns a copy of the document content.
func (d Document) Bytes() []byte { return append([]byte(nil), d.data...) }

// Size returns the content length in bytes.
func (d Document) Size() int { return len(d.data) }

// Ext returns the name's extension including the leading dot, or "" when the
// name carries none.
func (d Document) Ext() string { return filepath.Ext(d.name) }

// IsZero reports whether d is the zero Document (no name, no content).
func (d Document) IsZero() bool { return d.name == "" && d.mimeType == "" && len(d.data) == 0 }
