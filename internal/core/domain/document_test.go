package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalIgnoresInsertionOrder(t *testing.T) {
	submitted := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	registration := Document{Name: "registration.pdf", MimeType: "application/pdf", Size: 1024}
	statement := Document{Name: "statement.pdf", MimeType: "application/pdf", Size: 2048}

	first := &BusinessDossier{
		BusinessIdentity: "0x742d35cc6634c0532925a3b844bc454e4438f44e",
		Jurisdiction:     "DE",
		BusinessType:     "GmbH",
		Documents:        map[string]Document{},
		SubmittedAt:      submitted,
	}
	first.Documents["registration"] = registration
	first.Documents["statement"] = statement

	second := &BusinessDossier{
		BusinessIdentity: "0x742d35cc6634c0532925a3b844bc454e4438f44e",
		Jurisdiction:     "DE",
		BusinessType:     "GmbH",
		Documents:        map[string]Document{},
		SubmittedAt:      submitted,
	}
	second.Documents["statement"] = statement
	second.Documents["registration"] = registration

	raw1, err := first.MarshalCanonical()
	require.NoError(t, err)
	raw2, err := second.MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, raw1, raw2)
}

func TestMarshalCanonicalExcludesSelfLocator(t *testing.T) {
	dossier := &BusinessDossier{
		BusinessIdentity: "0x742d35cc6634c0532925a3b844bc454e4438f44e",
		Documents:        map[string]Document{},
	}
	raw1, err := dossier.MarshalCanonical()
	require.NoError(t, err)

	dossier.SelfLocator = "doc1somethingelse"
	raw2, err := dossier.MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, raw1, raw2)
}
