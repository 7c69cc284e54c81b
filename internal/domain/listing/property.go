package listing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PropertyType represents the kind of dwelling being let
type PropertyType string

const (
	PropertyTypeApartment PropertyType = "apartment"
	PropertyTypeHouse     PropertyType = "house"
	PropertyTypeCondo     PropertyType = "condo"
	PropertyTypeTownhouse PropertyType = "townhouse"
	PropertyTypeStudio    PropertyType = "studio"
	PropertyTypeRoom      PropertyType = "room"
)

// IsValid returns true if the property type is known
func (t PropertyType) IsValid() bool {
	switch t {
	case PropertyTypeApartment, PropertyTypeHouse, PropertyTypeCondo,
		PropertyTypeTownhouse, PropertyTypeStudio, PropertyTypeRoom:
		return true
	default:
		return false
	}
}

// PropertyStatus represents the lifecycle of a listing
type PropertyStatus string

const (
	PropertyStatusAvailable PropertyStatus = "available"
	PropertyStatusPending   PropertyStatus = "pending" // an application was approved
	PropertyStatusRented    PropertyStatus = "rented"
	PropertyStatusInactive  PropertyStatus = "inactive"
)

// IsValid returns true if the status is known
func (s PropertyStatus) IsValid() bool {
	switch s {
	case PropertyStatusAvailable, PropertyStatusPending, PropertyStatusRented, PropertyStatusInactive:
		return true
	default:
		return false
	}
}

// AllPropertyStatuses lists every status, in display order
func AllPropertyStatuses() []PropertyStatus {
	return []PropertyStatus{PropertyStatusAvailable, PropertyStatusPending, PropertyStatusRented, PropertyStatusInactive}
}

// DefaultCurrency is used when a listing does not name one
const DefaultCurrency = "USD"

// PropertyImage is an uploaded photo of a listing
type PropertyImage struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Property is a rental listing owned by a landlord
type Property struct {
	shared.BaseAggregateRoot
	OwnerID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Title         string          `gorm:"type:varchar(200);not null"`
	Description   string          `gorm:"type:text"`
	PropertyType  PropertyType    `gorm:"type:varchar(20);not null;index"`
	Status        PropertyStatus  `gorm:"type:varchar(20);not null;default:'available';index"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency      string          `gorm:"type:varchar(3);not null;default:'USD'"`
	Bedrooms      int             `gorm:"not null;default:0"`
	Bathrooms     float64         `gorm:"type:decimal(3,1);not null;default:0"`
	SquareFeet    int             `gorm:"not null;default:0"`
	Address       string          `gorm:"type:varchar(300);not null"`
	City          string          `gorm:"type:varchar(100);not null;index"`
	State         string          `gorm:"type:varchar(100)"`
	ZipCode       string          `gorm:"type:varchar(20)"`
	Latitude      *float64
	Longitude     *float64
	Amenities     []string        `gorm:"serializer:json;type:jsonb"`
	Images        []PropertyImage `gorm:"serializer:json;type:jsonb"`
	PetsAllowed   bool            `gorm:"not null;default:false"`
	Furnished     bool            `gorm:"not null;default:false"`
	AvailableFrom *time.Time
}

// TableName returns the table name for GORM
func (Property) TableName() string {
	return "properties"
}

// PropertyDetails carries the editable attributes of a listing
type PropertyDetails struct {
	Title         string
	Description   string
	PropertyType  PropertyType
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

// NewProperty creates an available listing and raises PropertyListed
func NewProperty(ownerID uuid.UUID, d PropertyDetails) (*Property, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Owner is required")
	}
	p := &Property{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OwnerID:           ownerID,
		Status:            PropertyStatusAvailable,
	}
	if err := p.apply(d); err != nil {
		return nil, err
	}
	p.Images = make([]PropertyImage, 0)
	p.AddDomainEvent(NewPropertyListedEvent(p))
	return p, nil
}

// Update replaces the editable attributes
func (p *Property) Update(d PropertyDetails) error {
	if err := p.apply(d); err != nil {
		return err
	}
	p.Touch()
	return nil
}

func (p *Property) apply(d PropertyDetails) error {
	if err := validateDetails(d); err != nil {
		return err
	}
	currency := strings.ToUpper(strings.TrimSpace(d.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	amenities := d.Amenities
	if amenities == nil {
		amenities = make([]string, 0)
	}

	p.Title = strings.TrimSpace(d.Title)
	p.Description = d.Description
	p.PropertyType = d.PropertyType
	p.Price = d.Price.Round(2)
	p.Currency = currency
	p.Bedrooms = d.Bedrooms
	p.Bathrooms = d.Bathrooms
	p.SquareFeet = d.SquareFeet
	p.Address = strings.TrimSpace(d.Address)
	p.City = strings.TrimSpace(d.City)
	p.State = strings.TrimSpace(d.State)
	p.ZipCode = strings.TrimSpace(d.ZipCode)
	p.Latitude = d.Latitude
	p.Longitude = d.Longitude
	p.Amenities = amenities
	p.PetsAllowed = d.PetsAllowed
	p.Furnished = d.Furnished
	p.AvailableFrom = d.AvailableFrom
	return nil
}

// ChangeStatus moves the listing to another status.
// Returning to available re-announces the listing.
func (p *Property) ChangeStatus(status PropertyStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Invalid property status")
	}
	if p.Status == status {
		return nil
	}
	p.Status = status
	p.Touch()
	if status == PropertyStatusAvailable {
		p.AddDomainEvent(NewPropertyListedEvent(p))
	}
	return nil
}

// IsAvailable reports whether the listing accepts applications
func (p *Property) IsAvailable() bool {
	return p.Status == PropertyStatusAvailable
}

// IsOwnedBy reports whether the profile owns the listing
func (p *Property) IsOwnedBy(profileID uuid.UUID) bool {
	return p.OwnerID == profileID
}

// AddImage appends an uploaded image
func (p *Property) AddImage(key, url string) error {
	if key == "" || url == "" {
		return shared.NewDomainError("INVALID_INPUT", "Image key and URL are required")
	}
	for _, img := range p.Images {
		if img.Key == key {
			return shared.NewDomainError("ALREADY_EXISTS", "Image already attached to property")
		}
	}
	if len(p.Images) >= MaxImagesPerProperty {
		return shared.NewDomainError("INVALID_INPUT", "Too many images for one property")
	}
	p.Images = append(p.Images, PropertyImage{Key: key, URL: url})
	p.Touch()
	return nil
}

// RemoveImage detaches an image, reporting whether it was present
func (p *Property) RemoveImage(key string) bool {
	for i, img := range p.Images {
		if img.Key == key {
			p.Images = append(p.Images[:i], p.Images[i+1:]...)
			p.Touch()
			return true
		}
	}
	return false
}

// MaxImagesPerProperty caps the photo gallery
const MaxImagesPerProperty = 30

func validateDetails(d PropertyDetails) error {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return shared.NewDomainError("INVALID_INPUT", "Title is required")
	}
	if len(title) > 200 {
		return shared.NewDomainError("INVALID_INPUT", "Title cannot exceed 200 characters")
	}
	if !d.PropertyType.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "Invalid property type")
	}
	if !d.Price.IsPositive() {
		return shared.NewDomainError("INVALID_INPUT", "Price must be greater than zero")
	}
	if strings.TrimSpace(d.Address) == "" {
		return shared.NewDomainError("INVALID_INPUT", "Address is required")
	}
	if strings.TrimSpace(d.City) == "" {
		return shared.NewDomainError("INVALID_INPUT", "City is required")
	}
	if d.Bedrooms < 0 || d.Bathrooms < 0 || d.SquareFeet < 0 {
		return shared.NewDomainError("INVALID_INPUT", "Room counts and size cannot be negative")
	}
	if len(d.Currency) > 3 {
		return shared.NewDomainError("INVALID_INPUT", "Currency must be an ISO 4217 code")
	}
	return nil
}
