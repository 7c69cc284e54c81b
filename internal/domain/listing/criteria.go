package listing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Criteria is the set of listing predicates shared by property search and saved search alerts.
// Unset fields do not constrain the result.
type Criteria struct {
	City         string           `gorm:"type:varchar(100)" json:"city,omitempty"`
	State        string           `gorm:"type:varchar(100)" json:"state,omitempty"`
	PropertyType PropertyType     `gorm:"type:varchar(20)" json:"property_type,omitempty"`
	MinPrice     *decimal.Decimal `gorm:"type:decimal(12,2)" json:"min_price,omitempty"`
	MaxPrice     *decimal.Decimal `gorm:"type:decimal(12,2)" json:"max_price,omitempty"`
	MinBedrooms  *int             `json:"min_bedrooms,omitempty"`
	MinBathrooms *float64         `gorm:"type:decimal(3,1)" json:"min_bathrooms,omitempty"`
	PetsAllowed  *bool            `json:"pets_allowed,omitempty"`
	Furnished    *bool            `json:"furnished,omitempty"`
}

// IsEmpty reports whether no predicate is set
func (c Criteria) IsEmpty() bool {
	return c.City == "" && c.State == "" && c.PropertyType == "" &&
		c.MinPrice == nil && c.MaxPrice == nil && c.MinBedrooms == nil &&
		c.MinBathrooms == nil && c.PetsAllowed == nil && c.Furnished == nil
}

// Validate checks that ranges are consistent
func (c Criteria) Validate() error {
	if c.PropertyType != "" && !c.PropertyType.IsValid() {
		return errInvalidCriteria("Invalid property type")
	}
	if c.MinPrice != nil && c.MinPrice.IsNegative() {
		return errInvalidCriteria("Minimum price cannot be negative")
	}
	if c.MinPrice != nil && c.MaxPrice != nil && c.MinPrice.GreaterThan(*c.MaxPrice) {
		return errInvalidCriteria("Minimum price cannot exceed maximum price")
	}
	if c.MinBedrooms != nil && *c.MinBedrooms < 0 {
		return errInvalidCriteria("Minimum bedrooms cannot be negative")
	}
	if c.MinBathrooms != nil && *c.MinBathrooms < 0 {
		return errInvalidCriteria("Minimum bathrooms cannot be negative")
	}
	return nil
}

// Matches reports whether the property satisfies every set predicate
func (c Criteria) Matches(p *Property) bool {
	if p == nil {
		return false
	}
	if c.City != "" && !strings.EqualFold(strings.TrimSpace(c.City), p.City) {
		return false
	}
	if c.State != "" && !strings.EqualFold(strings.TrimSpace(c.State), p.State) {
		return false
	}
	if c.PropertyType != "" && c.PropertyType != p.PropertyType {
		return false
	}
	if c.MinPrice != nil && p.Price.LessThan(*c.MinPrice) {
		return false
	}
	if c.MaxPrice != nil && p.Price.GreaterThan(*c.MaxPrice) {
		return false
	}
	if c.MinBedrooms != nil && p.Bedrooms < *c.MinBedrooms {
		return false
	}
	if c.MinBathrooms != nil && p.Bathrooms < *c.MinBathrooms {
		return false
	}
	if c.PetsAllowed != nil && *c.PetsAllowed != p.PetsAllowed {
		return false
	}
	if c.Furnished != nil && *c.Furnished != p.Furnished {
		return false
	}
	return true
}
