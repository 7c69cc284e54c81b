package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/listing"
	"gorm.io/gorm"
)

// GormPropertyRepository implements PropertyRepository using GORM
type GormPropertyRepository struct {
	db *gorm.DB
}

// NewGormPropertyRepository creates a new GormPropertyRepository
func NewGormPropertyRepository(db *gorm.DB) *GormPropertyRepository {
	return &GormPropertyRepository{db: db}
}

// Create inserts a new property
func (r *GormPropertyRepository) Create(ctx context.Context, property *listing.Property) error {
	return translateError(r.db.WithContext(ctx).Create(property).Error)
}

// Update saves an existing property
func (r *GormPropertyRepository) Update(ctx context.Context, property *listing.Property) error {
	return translateError(r.db.WithContext(ctx).Save(property).Error)
}

// Delete deletes a property
func (r *GormPropertyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&listing.Property{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return listing.ErrPropertyNotFound
	}
	return nil
}

// FindByID finds a property by its ID
func (r *GormPropertyRepository) FindByID(ctx context.Context, id uuid.UUID) (*listing.Property, error) {
	var property listing.Property
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&property).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, listing.ErrPropertyNotFound
		}
		return nil, err
	}
	return &property, nil
}

// FindByIDs finds multiple properties by their IDs
func (r *GormPropertyRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]listing.Property, error) {
	if len(ids) == 0 {
		return []listing.Property{}, nil
	}
	var properties []listing.Property
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&properties).Error; err != nil {
		return nil, err
	}
	return properties, nil
}

// Search finds one page of properties matching the filter
func (r *GormPropertyRepository) Search(ctx context.Context, filter listing.SearchFilter) ([]listing.Property, int64, error) {
	if filter.Scope != nil && filter.Scope.IsEmpty() {
		return []listing.Property{}, 0, nil
	}

	query := r.applySearch(r.db.WithContext(ctx).Model(&listing.Property{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)
	var properties []listing.Property
	if err := query.
		Order(orderClause(filter.OrderBy, filter.OrderDir, PropertySortFields, "created_at")).
		Limit(limit).
		Offset(offset).
		Find(&properties).Error; err != nil {
		return nil, 0, err
	}
	return properties, total, nil
}

func (r *GormPropertyRepository) applySearch(query *gorm.DB, filter listing.SearchFilter) *gorm.DB {
	c := filter.Criteria
	if c.City != "" {
		query = query.Where("LOWER(city) = LOWER(?)", c.City)
	}
	if c.State != "" {
		query = query.Where("LOWER(state) = LOWER(?)", c.State)
	}
	if c.PropertyType != "" {
		query = query.Where("property_type = ?", c.PropertyType)
	}
	if c.MinPrice != nil {
		query = query.Where("price >= ?", *c.MinPrice)
	}
	if c.MaxPrice != nil {
		query = query.Where("price <= ?", *c.MaxPrice)
	}
	if c.MinBedrooms != nil {
		query = query.Where("bedrooms >= ?", *c.MinBedrooms)
	}
	if filter.MaxBedrooms != nil {
		query = query.Where("bedrooms <= ?", *filter.MaxBedrooms)
	}
	if c.MinBathrooms != nil {
		query = query.Where("bathrooms >= ?", *c.MinBathrooms)
	}
	if c.PetsAllowed != nil {
		query = query.Where("pets_allowed = ?", *c.PetsAllowed)
	}
	if c.Furnished != nil {
		query = query.Where("furnished = ?", *c.Furnished)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.Scope != nil {
		switch {
		case len(filter.Scope.OwnerIDs) > 0 && len(filter.Scope.PropertyIDs) > 0:
			query = query.Where("owner_id IN ? OR id IN ?", filter.Scope.OwnerIDs, filter.Scope.PropertyIDs)
		case len(filter.Scope.OwnerIDs) > 0:
			query = query.Where("owner_id IN ?", filter.Scope.OwnerIDs)
		default:
			query = query.Where("id IN ?", filter.Scope.PropertyIDs)
		}
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where(
			"LOWER(title)"+likeMatch+" OR LOWER(description)"+likeMatch+
				" OR LOWER(address)"+likeMatch+" OR LOWER(city)"+likeMatch,
			pattern, pattern, pattern, pattern,
		)
	}
	return query
}

// OwnerIDsOf maps each existing property id to its owner
func (r *GormPropertyRepository) OwnerIDsOf(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	owners := make(map[uuid.UUID]uuid.UUID, len(ids))
	if len(ids) == 0 {
		return owners, nil
	}
	var rows []struct {
		ID      uuid.UUID
		OwnerID uuid.UUID
	}
	if err := r.db.WithContext(ctx).Model(&listing.Property{}).
		Select("id, owner_id").
		Where("id IN ?", ids).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		owners[row.ID] = row.OwnerID
	}
	return owners, nil
}

// CountByStatus counts properties grouped by status
func (r *GormPropertyRepository) CountByStatus(ctx context.Context) (map[listing.PropertyStatus]int64, error) {
	var rows []struct {
		Status listing.PropertyStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).Model(&listing.Property{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[listing.PropertyStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Ensure GormPropertyRepository implements PropertyRepository
var _ listing.PropertyRepository = (*GormPropertyRepository)(nil)
