package repository

import (
	"context"

	"fleet-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RequestRepository interface {
	Create(ctx context.Context, req *model.TransportRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TransportRequest, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.TransportRequest, error)
	List(ctx context.Context, status string, page, limit int) ([]model.TransportRequest, int64, error)
	Update(ctx context.Context, req *model.TransportRequest) error
	// UpdateStatusIf applies the column changes only when the request is still
	// in fromStatus. Returns false when another writer got there first.
	UpdateStatusIf(ctx context.Context, id uuid.UUID, fromStatus string, changes map[string]interface{}) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountActiveByVehicle(ctx context.Context, vehicleID uuid.UUID) (int64, error)
	CountActiveByDriver(ctx context.Context, driverID uuid.UUID) (int64, error)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

// activeStatuses are the non-terminal statuses that hold resources.
var activeStatuses = []string{model.RequestApproved, model.RequestInProgress}

func (r *requestRepository) Create(ctx context.Context, req *model.TransportRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TransportRequest, error) {
	var req model.TransportRequest
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.TransportRequest, error) {
	var req model.TransportRequest
	if err := GetDB(ctx, r.db).Preload("Vehicle").Preload("Driver").First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) List(ctx context.Context, status string, page, limit int) ([]model.TransportRequest, int64, error) {
	var requests []model.TransportRequest
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.TransportRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Preload("Vehicle").Preload("Driver")
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("created_at DESC").Offset(offset).Limit(limit).Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *requestRepository) Update(ctx context.Context, req *model.TransportRequest) error {
	return GetDB(ctx, r.db).Save(req).Error
}

func (r *requestRepository) UpdateStatusIf(ctx context.Context, id uuid.UUID, fromStatus string, changes map[string]interface{}) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.TransportRequest{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(changes)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *requestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.TransportRequest{}).Error
}

func (r *requestRepository) CountActiveByVehicle(ctx context.Context, vehicleID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.TransportRequest{}).
		Where("vehicle_id = ? AND status IN ?", vehicleID, activeStatuses).
		Count(&count).Error
	return count, err
}

func (r *requestRepository) CountActiveByDriver(ctx context.Context, driverID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.TransportRequest{}).
		Where("driver_id = ? AND status IN ?", driverID, activeStatuses).
		Count(&count).Error
	return count, err
}
