package trade

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/verone/backoffice/internal/domain/shared"
)

// CustomerKind discriminates the Customer variants
type CustomerKind string

const (
	CustomerKindOrganisation CustomerKind = "organisation"
	CustomerKindIndividual   CustomerKind = "individual"
)

// IsValid returns true if the kind is known
func (k CustomerKind) IsValid() bool {
	return k == CustomerKindOrganisation || k == CustomerKindIndividual
}

// ContactInfo is the capability shared by every customer variant
type ContactInfo interface {
	CustomerID() uuid.UUID
	Kind() CustomerKind
	DisplayName() string
	ContactEmail() string
}

// Customer is either an OrganisationCustomer or an IndividualCustomer.
// The unexported marker closes the set of variants.
type Customer interface {
	ContactInfo
	isCustomer()
}

// OrganisationCustomer is a business customer
type OrganisationCustomer struct {
	ID        uuid.UUID
	LegalName string
	TradeName string
	Email     string
	Phone     string
}

func (OrganisationCustomer) isCustomer() {}

// CustomerID returns the organisation ID
func (c OrganisationCustomer) CustomerID() uuid.UUID { return c.ID }

// Kind returns CustomerKindOrganisation
func (OrganisationCustomer) Kind() CustomerKind { return CustomerKindOrganisation }

// DisplayName prefers the trade name over the legal name
func (c OrganisationCustomer) DisplayName() string {
	if name := strings.TrimSpace(c.TradeName); name != "" {
		return name
	}
	return strings.TrimSpace(c.LegalName)
}

// ContactEmail returns the organisation email
func (c OrganisationCustomer) ContactEmail() string { return c.Email }

// IndividualCustomer is a private person
type IndividualCustomer struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

func (IndividualCustomer) isCustomer() {}

// CustomerID returns the individual's ID
func (c IndividualCustomer) CustomerID() uuid.UUID { return c.ID }

// Kind returns CustomerKindIndividual
func (IndividualCustomer) Kind() CustomerKind { return CustomerKindIndividual }

// DisplayName is "first last"
func (c IndividualCustomer) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// ContactEmail returns the individual's email
func (c IndividualCustomer) ContactEmail() string { return c.Email }

// CustomerRef is the flattened form of a Customer used at the API and storage
// boundaries.
type CustomerRef struct {
	Kind      CustomerKind
	ID        uuid.UUID
	LegalName string
	TradeName string
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// NewCustomer builds the variant described by ref
func NewCustomer(ref CustomerRef) (Customer, error) {
	if ref.ID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	switch ref.Kind {
	case CustomerKindOrganisation:
		c := OrganisationCustomer{ID: ref.ID, LegalName: ref.LegalName, TradeName: ref.TradeName, Email: ref.Email, Phone: ref.Phone}
		if c.DisplayName() == "" {
			return nil, shared.NewDomainError("INVALID_CUSTOMER", "Organisation name cannot be empty")
		}
		return c, nil
	case CustomerKindIndividual:
		c := IndividualCustomer{ID: ref.ID, FirstName: ref.FirstName, LastName: ref.LastName, Email: ref.Email, Phone: ref.Phone}
		if c.DisplayName() == "" {
			return nil, shared.NewDomainError("INVALID_CUSTOMER", "Individual name cannot be empty")
		}
		return c, nil
	}
	return nil, shared.NewDomainError("INVALID_CUSTOMER", fmt.Sprintf("Unknown customer type: %s", ref.Kind))
}

// RefOf flattens a Customer
func RefOf(c Customer) CustomerRef {
	switch v := c.(type) {
	case OrganisationCustomer:
		return CustomerRef{Kind: CustomerKindOrganisation, ID: v.ID, LegalName: v.LegalName, TradeName: v.TradeName,
			Email: v.Email, Phone: v.Phone}
	case IndividualCustomer:
		return CustomerRef{Kind: CustomerKindIndividual, ID: v.ID, FirstName: v.FirstName, LastName: v.LastName,
			Email: v.Email, Phone: v.Phone}
	}
	return CustomerRef{}
}
