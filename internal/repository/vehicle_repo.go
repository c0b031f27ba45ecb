package repository

import (
	"context"

	"fleet-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VehicleRepository interface {
	Create(ctx context.Context, vehicle *model.Vehicle) error
	Update(ctx context.Context, vehicle *model.Vehicle) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error)
	List(ctx context.Context, status, search string, page, limit int) ([]model.Vehicle, int64, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	// CompareAndSetStatus flips the status only if the vehicle currently holds
	// fromStatus. Returns false when the vehicle was in any other status, which
	// is how two assignments racing for the same vehicle are kept apart.
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus string) (bool, error)
}

type vehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) VehicleRepository {
	return &vehicleRepository{db: db}
}

func (r *vehicleRepository) Create(ctx context.Context, vehicle *model.Vehicle) error {
	return GetDB(ctx, r.db).Create(vehicle).Error
}

func (r *vehicleRepository) Update(ctx context.Context, vehicle *model.Vehicle) error {
	return GetDB(ctx, r.db).Save(vehicle).Error
}

func (r *vehicleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Vehicle{}).Error
}

func (r *vehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	if err := GetDB(ctx, r.db).First(&vehicle, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (r *vehicleRepository) List(ctx context.Context, status, search string, page, limit int) ([]model.Vehicle, int64, error) {
	var vehicles []model.Vehicle
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Vehicle{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if search != "" {
		query = query.Where("plate LIKE ? OR make LIKE ? OR model LIKE ?",
			"%"+search+"%", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("plate ASC").Offset(offset).Limit(limit).Find(&vehicles).Error; err != nil {
		return nil, 0, err
	}

	return vehicles, total, nil
}

func (r *vehicleRepository) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Vehicle{}).Where("id = ?", id).
		Update("status", status).Error
}

func (r *vehicleRepository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, fromStatus, toStatus string) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.Vehicle{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Update("status", toStatus)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
