package domain

import (
	"encoding/json"
	"time"
)

// Document holds the metadata and content address of a stored compliance file.
// The raw bytes are owned by the storage backend, a Document never retains them.
type Document struct {
	Name       string    `json:"name"`
	MimeType   string    `json:"mime_type"`
	Size       int64     `json:"size"`
	Locator    string    `json:"locator"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// BusinessDossier aggregates a business's submitted document references. It is
// itself content-addressed once serialized: SelfLocator carries that address and
// is excluded from the canonical form so it never influences its own value.
type BusinessDossier struct {
	BusinessIdentity string              `json:"business_identity"`
	Jurisdiction     string              `json:"jurisdiction"`
	BusinessType     string              `json:"business_type"`
	Documents        map[string]Document `json:"documents"`
	SubmittedAt      time.Time           `json:"submitted_at"`
	SelfLocator      string              `json:"-"`
}

// MarshalCanonical returns the canonical serialized form of the dossier, the
// bytes the self locator is derived from. encoding/json writes struct fields in
// declaration order and map keys sorted, so two dossiers with the same document
// set produce identical bytes regardless of insertion order.
func (d *BusinessDossier) MarshalCanonical() ([]byte, error) {
	return json.Marshal(d)
}
