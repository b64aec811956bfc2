package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultCountry is used when an address carries no country code
const DefaultCountry = "FR"

// Address is a postal address value object. It is stored as a JSON column.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// NewAddress trims all parts and applies the default country
func NewAddress(street, city, postalCode, country string) Address {
	a := Address{
		Street:     strings.TrimSpace(street),
		City:       strings.TrimSpace(city),
		PostalCode: strings.TrimSpace(postalCode),
		Country:    strings.ToUpper(strings.TrimSpace(country)),
	}
	if a.Country == "" && !a.IsEmpty() {
		a.Country = DefaultCountry
	}
	return a
}

// IsEmpty returns true if no street, city or postal code is set
func (a Address) IsEmpty() bool {
	return a.Street == "" && a.City == "" && a.PostalCode == ""
}

// IsBillable reports whether the address is complete enough to appear on an invoice
func (a Address) IsBillable() bool {
	return a.City != "" && a.PostalCode != ""
}

// CountryOrDefault returns the ISO country code, defaulting to FR
func (a Address) CountryOrDefault() string {
	if a.Country == "" {
		return DefaultCountry
	}
	return a.Country
}

// String formats the address on one line
func (a Address) String() string {
	if a.IsEmpty() {
		return ""
	}
	parts := make([]string, 0, 3)
	if a.Street != "" {
		parts = append(parts, a.Street)
	}
	if cityLine := strings.TrimSpace(a.PostalCode + " " + a.City); cityLine != "" {
		parts = append(parts, cityLine)
	}
	parts = append(parts, a.CountryOrDefault())
	return strings.Join(parts, ", ")
}

// Value implements driver.Valuer
func (a Address) Value() (driver.Value, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (a *Address) Scan(value any) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Address", value)
	}
	if len(data) == 0 {
		*a = Address{}
		return nil
	}
	return json.Unmarshal(data, a)
}
