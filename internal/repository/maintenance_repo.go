package repository

import (
	"context"

	"fleet-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MaintenanceRepository interface {
	Create(ctx context.Context, record *model.MaintenanceRecord) error
	Update(ctx context.Context, record *model.MaintenanceRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.MaintenanceRecord, error)
	List(ctx context.Context, vehicleID *uuid.UUID, status string, page, limit int) ([]model.MaintenanceRecord, int64, error)
	TotalCostByVehicle(ctx context.Context, vehicleID uuid.UUID) (decimal.Decimal, error)
}

type maintenanceRepository struct {
	db *gorm.DB
}

func NewMaintenanceRepository(db *gorm.DB) MaintenanceRepository {
	return &maintenanceRepository{db: db}
}

func (r *maintenanceRepository) Create(ctx context.Context, record *model.MaintenanceRecord) error {
	return GetDB(ctx, r.db).Create(record).Error
}

func (r *maintenanceRepository) Update(ctx context.Context, record *model.MaintenanceRecord) error {
	return GetDB(ctx, r.db).Save(record).Error
}

func (r *maintenanceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.MaintenanceRecord, error) {
	var record model.MaintenanceRecord
	if err := GetDB(ctx, r.db).Preload("Vehicle").First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *maintenanceRepository) List(ctx context.Context, vehicleID *uuid.UUID, status string, page, limit int) ([]model.MaintenanceRecord, int64, error) {
	var records []model.MaintenanceRecord
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.MaintenanceRecord{})
	if vehicleID != nil {
		query = query.Where("vehicle_id = ?", *vehicleID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Preload("Vehicle")
	if vehicleID != nil {
		fetchQuery = fetchQuery.Where("vehicle_id = ?", *vehicleID)
	}
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("scheduled_date DESC").Offset(offset).Limit(limit).Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *maintenanceRepository) TotalCostByVehicle(ctx context.Context, vehicleID uuid.UUID) (decimal.Decimal, error) {
	var records []model.MaintenanceRecord
	err := GetDB(ctx, r.db).
		Where("vehicle_id = ? AND status = ?", vehicleID, model.MaintenanceCompleted).
		Find(&records).Error
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, rec := range records {
		total = total.Add(rec.Cost)
	}
	return total, nil
}
