package issuance

import (
	"bytes"
	"encoding/json"

	"github.com/docanchor/docanchor/identity"
)

// MetadataRecord is the provenance record stored next to the document and
// referenced by the anchor. Constructed once per issuance and never mutated.
//
// CanonicalBytes is the single serialization path: the record must serialize
// identically every time so its content address is reproducible.
type MetadataRecord struct {
	Description string            `json:"description"`
	Name        string            `json:"name"`
	IssuedTo    identity.Identity `json:"issued_to"`
	Issuer      string            `json:"issuer"`
	Document    string            `json:"document"`
}

// CanonicalBytes serializes the record deterministically: fixed field order,
// no HTML escaping, no trailing newline.
func (m MetadataRecord) CanonicalBytes() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// ParseMetadata decodes a stored metadata record.
func ParseMetadata(data []byte) (MetadataRecord, error) {
	var m MetadataRecord
	if err := json.Unmarshal(data, &m); err != nil {
		return MetadataRecord{}, err
	}
	return m, nil
}
