package listing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDetails() PropertyDetails {
	return PropertyDetails{
		Title:        "Sunny 2BR near the park",
		PropertyType: PropertyTypeApartment,
		Price:        decimal.NewFromInt(1850),
		Bedrooms:     2,
		Bathrooms:    1.5,
		Address:      "12 Elm St",
		City:         "Portland",
		State:        "OR",
	}
}

func TestNewProperty(t *testing.T) {
	owner := uuid.New()
	p, err := NewProperty(owner, validDetails())
	require.NoError(t, err)

	assert.Equal(t, PropertyStatusAvailable, p.Status)
	assert.Equal(t, DefaultCurrency, p.Currency)
	assert.True(t, p.IsOwnedBy(owner))
	assert.NotNil(t, p.Amenities)
	require.Len(t, p.GetDomainEvents(), 1)

	ev, ok := p.GetDomainEvents()[0].(*PropertyListedEvent)
	require.True(t, ok)
	assert.Equal(t, p.ID, ev.Property.ID)
	assert.Empty(t, ev.Property.GetDomainEvents())
}

func TestNewProperty_Validation(t *testing.T) {
	cases := map[string]func(d *PropertyDetails){
		"missing title":  func(d *PropertyDetails) { d.Title = " " },
		"bad type":       func(d *PropertyDetails) { d.PropertyType = "castle" },
		"zero price":     func(d *PropertyDetails) { d.Price = decimal.Zero },
		"missing city":   func(d *PropertyDetails) { d.City = "" },
		"missing street": func(d *PropertyDetails) { d.Address = "" },
		"negative rooms": func(d *PropertyDetails) { d.Bedrooms = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			d := validDetails()
			mutate(&d)
			_, err := NewProperty(uuid.New(), d)
			assert.Error(t, err)
		})
	}

	_, err := NewProperty(uuid.Nil, validDetails())
	assert.Error(t, err)
}

func TestProperty_ChangeStatus(t *testing.T) {
	p, err := NewProperty(uuid.New(), validDetails())
	require.NoError(t, err)
	p.ClearDomainEvents()

	require.NoError(t, p.ChangeStatus(PropertyStatusRented))
	assert.Empty(t, p.GetDomainEvents())
	assert.False(t, p.IsAvailable())

	require.NoError(t, p.ChangeStatus(PropertyStatusAvailable))
	assert.Len(t, p.GetDomainEvents(), 1)

	assert.Error(t, p.ChangeStatus("sold"))
}

func TestProperty_Images(t *testing.T) {
	p, err := NewProperty(uuid.New(), validDetails())
	require.NoError(t, err)

	require.NoError(t, p.AddImage("properties/a.jpg", "https://cdn/a.jpg"))
	assert.Error(t, p.AddImage("properties/a.jpg", "https://cdn/a.jpg"))
	require.NoError(t, p.AddImage("properties/b.jpg", "https://cdn/b.jpg"))

	assert.True(t, p.RemoveImage("properties/a.jpg"))
	assert.False(t, p.RemoveImage("properties/a.jpg"))
	require.Len(t, p.Images, 1)
	assert.Equal(t, "properties/b.jpg", p.Images[0].Key)
}

func TestCriteria_Matches(t *testing.T) {
	p, err := NewProperty(uuid.New(), validDetails())
	require.NoError(t, err)
	p.PetsAllowed = true

	min := decimal.NewFromInt(1000)
	max := decimal.NewFromInt(2000)
	low := decimal.NewFromInt(1500)
	beds := 2
	threeBeds := 3
	baths := 1.0
	yes := true
	no := false

	tests := []struct {
		name string
		c    Criteria
		want bool
	}{
		{"empty matches everything", Criteria{}, true},
		{"city is case-insensitive", Criteria{City: "portland"}, true},
		{"other city", Criteria{City: "Seattle"}, false},
		{"state", Criteria{State: "or"}, true},
		{"type", Criteria{PropertyType: PropertyTypeHouse}, false},
		{"price in range", Criteria{MinPrice: &min, MaxPrice: &max}, true},
		{"price above max", Criteria{MaxPrice: &low}, false},
		{"bedrooms satisfied", Criteria{MinBedrooms: &beds}, true},
		{"bedrooms short", Criteria{MinBedrooms: &threeBeds}, false},
		{"bathrooms", Criteria{MinBathrooms: &baths}, true},
		{"pets", Criteria{PetsAllowed: &yes}, true},
		{"furnished required", Criteria{Furnished: &yes}, false},
		{"unfurnished required", Criteria{Furnished: &no}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.Matches(p))
		})
	}
	assert.False(t, Criteria{}.Matches(nil))
}

func TestCriteria_Validate(t *testing.T) {
	min := decimal.NewFromInt(3000)
	max := decimal.NewFromInt(2000)
	assert.Error(t, Criteria{MinPrice: &min, MaxPrice: &max}.Validate())
	assert.Error(t, Criteria{PropertyType: "castle"}.Validate())
	assert.NoError(t, Criteria{City: "Austin"}.Validate())
	assert.True(t, Criteria{}.IsEmpty())
	assert.False(t, Criteria{City: "Austin"}.IsEmpty())
}
