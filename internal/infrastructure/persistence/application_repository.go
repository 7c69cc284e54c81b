package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentnest/backend/internal/domain/leasing"
	"gorm.io/gorm"
)

// GormApplicationRepository implements ApplicationRepository using GORM
type GormApplicationRepository struct {
	db *gorm.DB
}

// NewGormApplicationRepository creates a new GormApplicationRepository
func NewGormApplicationRepository(db *gorm.DB) *GormApplicationRepository {
	return &GormApplicationRepository{db: db}
}

// Create inserts a new application
func (r *GormApplicationRepository) Create(ctx context.Context, app *leasing.Application) error {
	return translateError(r.db.WithContext(ctx).Create(app).Error)
}

// Update saves an existing application
func (r *GormApplicationRepository) Update(ctx context.Context, app *leasing.Application) error {
	return translateError(r.db.WithContext(ctx).Save(app).Error)
}

// FindByID finds an application by its ID
func (r *GormApplicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*leasing.Application, error) {
	var app leasing.Application
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&app).Error; err != nil {
		return nil, translateError(err)
	}
	return &app, nil
}

// FindAll finds one page of applications visible under the filter
func (r *GormApplicationRepository) FindAll(ctx context.Context, filter leasing.ApplicationFilter) ([]leasing.Application, int64, error) {
	query := r.db.WithContext(ctx).Model(&leasing.Application{})

	scoped, ok := r.applyScope(query, filter)
	if !ok {
		return []leasing.Application{}, 0, nil
	}
	query = scoped

	if filter.Status != nil {
		query = query.Where("applications.status = ?", *filter.Status)
	}
	if filter.PropertyID != nil {
		query = query.Where("applications.property_id = ?", *filter.PropertyID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)
	var apps []leasing.Application
	if err := query.Order("applications.created_at DESC").Limit(limit).Offset(offset).Find(&apps).Error; err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

// applyScope ORs the visibility scopes together; ok is false when the caller can see nothing
func (r *GormApplicationRepository) applyScope(query *gorm.DB, filter leasing.ApplicationFilter) (*gorm.DB, bool) {
	var conds []string
	var args []any
	if filter.ApplicantID != nil {
		conds = append(conds, "applications.applicant_id = ?")
		args = append(args, *filter.ApplicantID)
	}
	if len(filter.PropertyIDs) > 0 {
		conds = append(conds, "applications.property_id IN ?")
		args = append(args, filter.PropertyIDs)
	}
	if len(filter.OwnerIDs) > 0 {
		conds = append(conds, "applications.property_id IN (SELECT id FROM properties WHERE owner_id IN ?)")
		args = append(args, filter.OwnerIDs)
	}
	if len(conds) == 0 {
		return query, !filter.Restricted
	}
	where := conds[0]
	for _, c := range conds[1:] {
		where += " OR " + c
	}
	return query.Where(where, args...), true
}

// HasOpenApplication checks for a pending or approved application by the applicant
func (r *GormApplicationRepository) HasOpenApplication(ctx context.Context, propertyID, applicantID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&leasing.Application{}).
		Where("property_id = ? AND applicant_id = ? AND status IN ?", propertyID, applicantID,
			[]leasing.ApplicationStatus{leasing.ApplicationStatusPending, leasing.ApplicationStatusApproved}).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByStatus counts applications grouped by status
func (r *GormApplicationRepository) CountByStatus(ctx context.Context) (map[leasing.ApplicationStatus]int64, error) {
	var rows []struct {
		Status leasing.ApplicationStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).Model(&leasing.Application{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[leasing.ApplicationStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Ensure GormApplicationRepository implements ApplicationRepository
var _ leasing.ApplicationRepository = (*GormApplicationRepository)(nil)
