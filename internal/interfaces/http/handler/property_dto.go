package handler

import (
	"time"

	"github.com/google/uuid"
	listingapp "github.com/rentnest/backend/internal/application/listing"
	"github.com/rentnest/backend/internal/domain/listing"
	"github.com/shopspring/decimal"
)

// PropertyRequest represents the request body for creating or replacing a listing
type PropertyRequest struct {
	Title         string          `json:"title" binding:"required,min=3,max=200" example:"Sunny two-bed near the park"`
	Description   string          `json:"description" binding:"max=5000"`
	PropertyType  string          `json:"property_type" binding:"required,oneof=apartment house condo townhouse studio room" example:"apartment"`
	Price         decimal.Decimal `json:"price" binding:"dpositive" swaggertype:"string" example:"1850.00"`
	Currency      string          `json:"currency" binding:"omitempty,len=3,currency" example:"USD"`
	Bedrooms      int             `json:"bedrooms" binding:"gte=0,lte=50" example:"2"`
	Bathrooms     float64         `json:"bathrooms" binding:"gte=0,lte=50" example:"1.5"`
	SquareFeet    int             `json:"square_feet" binding:"gte=0" example:"900"`
	Address       string          `json:"address" binding:"required,max=300" example:"12 Elm Street"`
	City          string          `json:"city" binding:"required,max=100" example:"Austin"`
	State         string          `json:"state" binding:"max=100" example:"TX"`
	ZipCode       string          `json:"zip_code" binding:"max=20" example:"78701"`
	Latitude      *float64        `json:"latitude" binding:"omitempty,latitude"`
	Longitude     *float64        `json:"longitude" binding:"omitempty,longitude"`
	Amenities     []string        `json:"amenities" binding:"max=50,dive,max=50"`
	PetsAllowed   bool            `json:"pets_allowed"`
	Furnished     bool            `json:"furnished"`
	AvailableFrom *time.Time      `json:"available_from"`
}

func (r PropertyRequest) toInput() listingapp.PropertyInput {
	return listingapp.PropertyInput{
		Title:         r.Title,
		Description:   r.Description,
		PropertyType:  listing.PropertyType(r.PropertyType),
		Price:         r.Price,
		Currency:      r.Currency,
		Bedrooms:      r.Bedrooms,
		Bathrooms:     r.Bathrooms,
		SquareFeet:    r.SquareFeet,
		Address:       r.Address,
		City:          r.City,
		State:         r.State,
		ZipCode:       r.ZipCode,
		Latitude:      r.Latitude,
		Longitude:     r.Longitude,
		Amenities:     r.Amenities,
		PetsAllowed:   r.PetsAllowed,
		Furnished:     r.Furnished,
		AvailableFrom: r.AvailableFrom,
	}
}

// UpdatePropertyRequest replaces a listing and may move its status
type UpdatePropertyRequest struct {
	PropertyRequest
	Status string `json:"status" binding:"omitempty,oneof=available pending rented inactive" example:"inactive"`
}

// PropertyStatusRequest is the admin moderation body
type PropertyStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=available pending rented inactive" example:"inactive"`
}

// UploadURLRequest asks for a presigned image upload
type UploadURLRequest struct {
	FileName    string `json:"file_name" binding:"required,max=255" example:"living-room.jpg"`
	ContentType string `json:"content_type" binding:"required" example:"image/jpeg"`
}

// ImageRequest names an uploaded image by its storage key
type ImageRequest struct {
	StorageKey string `json:"storage_key" binding:"required,max=500"`
}

// PropertySearchQuery is the query string of the public listing search
type PropertySearchQuery struct {
	City         string   `form:"city" binding:"max=100"`
	State        string   `form:"state" binding:"max=100"`
	PropertyType string   `form:"property_type" binding:"omitempty,oneof=apartment house condo townhouse studio room"`
	Status       string   `form:"status" binding:"omitempty,oneof=available pending rented inactive"`
	MinPrice     string   `form:"min_price" binding:"omitempty,numeric"`
	MaxPrice     string   `form:"max_price" binding:"omitempty,numeric"`
	MinBedrooms  *int     `form:"min_bedrooms" binding:"omitempty,gte=0"`
	MaxBedrooms  *int     `form:"max_bedrooms" binding:"omitempty,gte=0"`
	MinBathrooms *float64 `form:"min_bathrooms" binding:"omitempty,gte=0"`
	PetsAllowed  *bool    `form:"pets_allowed"`
	Furnished    *bool    `form:"furnished"`
	OwnerID      string   `form:"owner_id" binding:"omitempty,uuid"`
	Search       string   `form:"search" binding:"max=100"`
	OrderBy      string   `form:"order_by" binding:"omitempty,oneof=created_at price bedrooms square_feet title"`
	OrderDir     string   `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Pagination
}

// toFilter converts the query; numeric already vouches for the price strings
func (q PropertySearchQuery) toFilter() listing.SearchFilter {
	filter := listing.SearchFilter{
		Criteria: listing.Criteria{
			City:         q.City,
			State:        q.State,
			PropertyType: listing.PropertyType(q.PropertyType),
			MinPrice:     decimalPtr(q.MinPrice),
			MaxPrice:     decimalPtr(q.MaxPrice),
			MinBedrooms:  q.MinBedrooms,
			MinBathrooms: q.MinBathrooms,
			PetsAllowed:  q.PetsAllowed,
			Furnished:    q.Furnished,
		},
		MaxBedrooms: q.MaxBedrooms,
		Search:      q.Search,
		Page:        q.Page,
		PageSize:    q.PageSize,
		OrderBy:     q.OrderBy,
		OrderDir:    q.OrderDir,
	}
	if q.Status != "" {
		status := listing.PropertyStatus(q.Status)
		filter.Status = &status
	}
	if q.OwnerID != "" {
		if id, err := uuid.Parse(q.OwnerID); err == nil {
			filter.OwnerID = &id
		}
	}
	return filter
}

func decimalPtr(s string) *decimal.Decimal {
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}
