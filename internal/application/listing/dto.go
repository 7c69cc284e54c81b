package listing

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/listing"
	"github.com/shopspring/decimal"
)

// PropertyInput carries the editable attributes of a listing
type PropertyInput struct {
	Title         string
	Description   string
	PropertyType  listing.PropertyType
	Price         decimal.Decimal
	Currency      string
	Bedrooms      int
	Bathrooms     float64
	SquareFeet    int
	Address       string
	City          string
	State         string
	ZipCode       string
	Latitude      *float64
	Longitude     *float64
	Amenities     []string
	PetsAllowed   bool
	Furnished     bool
	AvailableFrom *time.Time
}

func (in PropertyInput) details() listing.PropertyDetails {
	return listing.PropertyDetails{
		Title:         in.Title,
		Description:   in.Description,
		PropertyType:  in.PropertyType,
		Price:         in.Price,
		Currency:      in.Currency,
		Bedrooms:      in.Bedrooms,
		Bathrooms:     in.Bathrooms,
		SquareFeet:    in.SquareFeet,
		Address:       in.Address,
		City:          in.City,
		State:         in.State,
		ZipCode:       in.ZipCode,
		Latitude:      in.Latitude,
		Longitude:     in.Longitude,
		Amenities:     in.Amenities,
		PetsAllowed:   in.PetsAllowed,
		Furnished:     in.Furnished,
		AvailableFrom: in.AvailableFrom,
	}
}

// UpdatePropertyInput replaces the listing details and optionally moves its status
type UpdatePropertyInput struct {
	PropertyInput
	Status *listing.PropertyStatus
}

// UploadURLInput requests a presigned upload for one image
type UploadURLInput struct {
	FileName    string
	ContentType string
}

// UploadURLResult is a presigned PUT target for an image
type UploadURLResult struct {
	UploadURL  string    `json:"upload_url"`
	StorageKey string    `json:"storage_key"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// PropertyResult is the public representation of a listing
type PropertyResult struct {
	ID            uuid.UUID               `json:"id"`
	OwnerID       uuid.UUID               `json:"owner_id"`
	Title         string                  `json:"title"`
	Description   string                  `json:"description"`
	PropertyType  listing.PropertyType    `json:"property_type"`
	Status        listing.PropertyStatus  `json:"status"`
	Price         decimal.Decimal         `json:"price"`
	Currency      string                  `json:"currency"`
	Bedrooms      int                     `json:"bedrooms"`
	Bathrooms     float64                 `json:"bathrooms"`
	SquareFeet    int                     `json:"square_feet"`
	Address       string                  `json:"address"`
	City          string                  `json:"city"`
	State         string                  `json:"state"`
	ZipCode       string                  `json:"zip_code"`
	Latitude      *float64                `json:"latitude,omitempty"`
	Longitude     *float64                `json:"longitude,omitempty"`
	Amenities     []string                `json:"amenities"`
	Images        []listing.PropertyImage `json:"images"`
	PetsAllowed   bool                    `json:"pets_allowed"`
	Furnished     bool                    `json:"furnished"`
	AvailableFrom *time.Time              `json:"available_from,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

// ToPropertyResult converts a listing to its result form
func ToPropertyResult(p *listing.Property) PropertyResult {
	amenities := p.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	images := p.Images
	if images == nil {
		images = []listing.PropertyImage{}
	}
	return PropertyResult{
		ID:            p.ID,
		OwnerID:       p.OwnerID,
		Title:         p.Title,
		Description:   p.Description,
		PropertyType:  p.PropertyType,
		Status:        p.Status,
		Price:         p.Price,
		Currency:      p.Currency,
		Bedrooms:      p.Bedrooms,
		Bathrooms:     p.Bathrooms,
		SquareFeet:    p.SquareFeet,
		Address:       p.Address,
		City:          p.City,
		State:         p.State,
		ZipCode:       p.ZipCode,
		Latitude:      p.Latitude,
		Longitude:     p.Longitude,
		Amenities:     amenities,
		Images:        images,
		PetsAllowed:   p.PetsAllowed,
		Furnished:     p.Furnished,
		AvailableFrom: p.AvailableFrom,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// ToPropertyResults converts a slice of listings
func ToPropertyResults(properties []listing.Property) []PropertyResult {
	results := make([]PropertyResult, len(properties))
	for i := range properties {
		results[i] = ToPropertyResult(&properties[i])
	}
	return results
}
