package trade

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrganisationCustomer_DisplayName(t *testing.T) {
	c := OrganisationCustomer{LegalName: "Dupont Mobilier SAS", TradeName: "Maison Dupont"}
	assert.Equal(t, "Maison Dupont", c.DisplayName())

	c.TradeName = "  "
	assert.Equal(t, "Dupont Mobilier SAS", c.DisplayName())
}

func TestIndividualCustomer_DisplayName(t *testing.T) {
	assert.Equal(t, "Claire Martin", IndividualCustomer{FirstName: "Claire", LastName: "Martin"}.DisplayName())
	assert.Equal(t, "Martin", IndividualCustomer{LastName: "Martin"}.DisplayName())
}

func TestNewCustomer(t *testing.T) {
	id := uuid.New()

	t.Run("organisation round trip", func(t *testing.T) {
		ref := CustomerRef{Kind: CustomerKindOrganisation, ID: id, LegalName: "Dupont SAS", Email: "a@b.fr"}
		c, err := NewCustomer(ref)
		require.NoError(t, err)

		org, ok := c.(OrganisationCustomer)
		require.True(t, ok)
		assert.Equal(t, "Dupont SAS", org.DisplayName())
		assert.Equal(t, ref, RefOf(c))
	})

	t.Run("individual round trip", func(t *testing.T) {
		ref := CustomerRef{Kind: CustomerKindIndividual, ID: id, FirstName: "Claire", LastName: "Martin"}
		c, err := NewCustomer(ref)
		require.NoError(t, err)
		assert.Equal(t, CustomerKindIndividual, c.Kind())
		assert.Equal(t, id, c.CustomerID())
		assert.Equal(t, ref, RefOf(c))
	})

	tests := []struct {
		name string
		ref  CustomerRef
	}{
		{"missing id", CustomerRef{Kind: CustomerKindOrganisation, LegalName: "X"}},
		{"unknown kind", CustomerRef{Kind: "reseller", ID: id}},
		{"nameless organisation", CustomerRef{Kind: CustomerKindOrganisation, ID: id}},
		{"nameless individual", CustomerRef{Kind: CustomerKindIndividual, ID: id}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCustomer(tt.ref)
			assertCode(t, err, "INVALID_CUSTOMER")
		})
	}
}
