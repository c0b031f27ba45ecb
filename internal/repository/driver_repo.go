package repository

import (
	"context"

	"fleet-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DriverRepository interface {
	Create(ctx context.Context, driver *model.Driver) error
	Update(ctx context.Context, driver *model.Driver) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Driver, error)
	List(ctx context.Context, status, search string, page, limit int) ([]model.Driver, int64, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	// CompareAndSetStatus flips the status only if the driver currently holds
	// fromStatus. See VehicleRepository.CompareAndSetStatus.
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus string) (bool, error)
}

type driverRepository struct {
	db *gorm.DB
}

func NewDriverRepository(db *gorm.DB) DriverRepository {
	return &driverRepository{db: db}
}

func (r *driverRepository) Create(ctx context.Context, driver *model.Driver) error {
	return GetDB(ctx, r.db).Create(driver).Error
}

func (r *driverRepository) Update(ctx context.Context, driver *model.Driver) error {
	return GetDB(ctx, r.db).Save(driver).Error
}

func (r *driverRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Driver{}).Error
}

func (r *driverRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Driver, error) {
	var driver model.Driver
	if err := GetDB(ctx, r.db).First(&driver, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &driver, nil
}

func (r *driverRepository) List(ctx context.Context, status, search string, page, limit int) ([]model.Driver, int64, error) {
	var drivers []model.Driver
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Driver{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if search != "" {
		query = query.Where("name LIKE ? OR license_number LIKE ?",
			"%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("name ASC").Offset(offset).Limit(limit).Find(&drivers).Error; err != nil {
		return nil, 0, err
	}

	return drivers, total, nil
}

func (r *driverRepository) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Driver{}).Where("id = ?", id).
		Update("status", status).Error
}

func (r *driverRepository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus string) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.Driver{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Update("status", toStatus)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
