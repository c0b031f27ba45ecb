package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fleet-backend/internal/model"
	"fleet-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type ScheduleMaintenanceDTO struct {
	VehicleID     string          `json:"vehicle_id" binding:"required"`
	Type          string          `json:"type" binding:"required,oneof=PREVENTIVE CORRECTIVE"`
	ScheduledDate time.Time       `json:"scheduled_date" binding:"required"`
	Description   string          `json:"description" binding:"required"`
	Cost          decimal.Decimal `json:"cost"`
	Mileage       int             `json:"mileage"`
	Workshop      string          `json:"workshop"`
	Technician    string          `json:"technician"`
	Notes         string          `json:"notes"`
}

type CompleteMaintenanceDTO struct {
	Cost    *decimal.Decimal `json:"cost"`
	Mileage *int             `json:"mileage"`
	Notes   *string          `json:"notes"`
}

type MaintenanceResponse struct {
	ID            string          `json:"id"`
	VehicleID     string          `json:"vehicle_id"`
	VehiclePlate  string          `json:"vehicle_plate,omitempty"`
	Type          string          `json:"type"`
	Status        string          `json:"status"`
	ScheduledDate time.Time       `json:"scheduled_date"`
	CompletedDate *time.Time      `json:"completed_date"`
	Description   string          `json:"description"`
	Cost          decimal.Decimal `json:"cost"`
	Mileage       int             `json:"mileage"`
	Workshop      string          `json:"workshop"`
	Technician    string          `json:"technician"`
	Notes         string          `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
}

// --- Interface ---

// MaintenanceService runs the workshop workflow. Starting a record is the one
// sanctioned way a vehicle enters Maintenance status; a vehicle on a trip
// cannot be pulled into the workshop until the engine releases it.
type MaintenanceService interface {
	Schedule(ctx context.Context, req ScheduleMaintenanceDTO) (MaintenanceResponse, error)
	Start(ctx context.Context, id string) (MaintenanceResponse, error)
	Complete(ctx context.Context, id string, req CompleteMaintenanceDTO) (MaintenanceResponse, error)
	Cancel(ctx context.Context, id string) (MaintenanceResponse, error)
	Get(ctx context.Context, id string) (MaintenanceResponse, error)
	List(ctx context.Context, vehicleID, status string, page, limit int) ([]MaintenanceResponse, int64, error)
	TotalCostByVehicle(ctx context.Context, vehicleID string) (decimal.Decimal, error)
}

type maintenanceService struct {
	maintenanceRepo repository.MaintenanceRepository
	vehicleRepo     repository.VehicleRepository
	auditRepo       repository.AuditRepository
	txManager       repository.TransactionManager
}

func NewMaintenanceService(
	maintenanceRepo repository.MaintenanceRepository,
	vehicleRepo repository.VehicleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) MaintenanceService {
	return &maintenanceService{
		maintenanceRepo: maintenanceRepo,
		vehicleRepo:     vehicleRepo,
		auditRepo:       auditRepo,
		txManager:       txManager,
	}
}

// --- Implementation ---

func (s *maintenanceService) Schedule(ctx context.Context, req ScheduleMaintenanceDTO) (MaintenanceResponse, error) {
	vehicleID, err := uuid.Parse(req.VehicleID)
	if err != nil {
		return MaintenanceResponse{}, fmt.Errorf("invalid vehicle id: %w", ErrValidation)
	}
	if req.Cost.IsNegative() {
		return MaintenanceResponse{}, fmt.Errorf("cost cannot be negative: %w", ErrValidation)
	}

	var record model.MaintenanceRecord
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		vehicle, findErr := s.vehicleRepo.FindByID(txCtx, vehicleID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("vehicle %s: %w", req.VehicleID, ErrNotFound)
			}
			return findErr
		}

		record = model.MaintenanceRecord{
			VehicleID:     vehicleID,
			Type:          req.Type,
			Status:        model.MaintenanceScheduled,
			ScheduledDate: req.ScheduledDate,
			Description:   req.Description,
			Cost:          req.Cost,
			Mileage:       req.Mileage,
			Workshop:      req.Workshop,
			Technician:    req.Technician,
			Notes:         req.Notes,
		}
		if createErr := s.maintenanceRepo.Create(txCtx, &record); createErr != nil {
			return fmt.Errorf("failed to create maintenance record: %w", createErr)
		}
		record.Vehicle = vehicle

		details, _ := json.Marshal(map[string]interface{}{
			"type":           req.Type,
			"scheduled_date": req.ScheduledDate,
		})
		audit := model.AuditLog{
			Action:     model.ActionScheduleMaintenance,
			EntityID:   record.ID.String(),
			EntityName: vehicle.Plate,
			Details:    string(details),
		}
		return s.auditRepo.Create(txCtx, &audit)
	})
	if err != nil {
		return MaintenanceResponse{}, err
	}

	return toMaintenanceResponse(record), nil
}

func (s *maintenanceService) Start(ctx context.Context, id string) (MaintenanceResponse, error) {
	recordID, err := uuid.Parse(id)
	if err != nil {
		return MaintenanceResponse{}, fmt.Errorf("invalid maintenance record id: %w", ErrValidation)
	}

	var record *model.MaintenanceRecord
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		record, err = s.findRecord(txCtx, recordID)
		if err != nil {
			return err
		}
		if record.Status != model.MaintenanceScheduled {
			return fmt.Errorf("maintenance record is %s, only scheduled work can start: %w", record.Status, ErrPreconditionFailed)
		}

		// The vehicle must not be on a trip. Same compare-and-swap discipline
		// as the assignment engine so maintenance cannot steal an InUse vehicle.
		ok, casErr := s.vehicleRepo.CompareAndSetStatus(txCtx, record.VehicleID, model.VehicleAvailable, model.VehicleMaintenance)
		if casErr != nil {
			return casErr
		}
		if !ok {
			return fmt.Errorf("vehicle is not available for maintenance: %w", ErrPreconditionFailed)
		}

		record.Status = model.MaintenanceInProgress
		if updErr := s.maintenanceRepo.Update(txCtx, record); updErr != nil {
			return fmt.Errorf("failed to update maintenance record: %w", updErr)
		}

		audit := model.AuditLog{
			Action:   model.ActionStartMaintenance,
			EntityID: record.ID.String(),
		}
		return s.auditRepo.Create(txCtx, &audit)
	})
	if err != nil {
		return MaintenanceResponse{}, err
	}

	return toMaintenanceResponse(*record), nil
}

func (s *maintenanceService) Complete(ctx context.Context, id string, req CompleteMaintenanceDTO) (MaintenanceResponse, error) {
	recordID, err := uuid.Parse(id)
	if err != nil {
		return MaintenanceResponse{}, fmt.Errorf("invalid maintenance record id: %w", ErrValidation)
	}

	var record *model.MaintenanceRecord
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		record, err = s.findRecord(txCtx, recordID)
		if err != nil {
			return err
		}
		if record.Status != model.MaintenanceInProgress {
			return fmt.Errorf("maintenance record is %s, only in-progress work can be completed: %w", record.Status, ErrPreconditionFailed)
		}

		now := time.Now()
		record.Status = model.MaintenanceCompleted
		record.CompletedDate = &now
		if req.Cost != nil {
			if req.Cost.IsNegative() {
				return fmt.Errorf("cost cannot be negative: %w", ErrValidation)
			}
			record.Cost = *req.Cost
		}
		if req.Mileage != nil {
			record.Mileage = *req.Mileage
		}
		if req.Notes != nil {
			record.Notes = *req.Notes
		}

		if updErr := s.maintenanceRepo.Update(txCtx, record); updErr != nil {
			return fmt.Errorf("failed to update maintenance record: %w", updErr)
		}

		if setErr := s.vehicleRepo.SetStatus(txCtx, record.VehicleID, model.VehicleAvailable); setErr != nil {
			return setErr
		}

		details, _ := json.Marshal(map[string]interface{}{"cost": record.Cost})
		audit := model.AuditLog{
			Action:   model.ActionCompleteMaintenance,
			EntityID: record.ID.String(),
			Details:  string(details),
		}
		return s.auditRepo.Create(txCtx, &audit)
	})
	if err != nil {
		return MaintenanceResponse{}, err
	}

	return toMaintenanceResponse(*record), nil
}

func (s *maintenanceService) Cancel(ctx context.Context, id string) (MaintenanceResponse, error) {
	recordID, err := uuid.Parse(id)
	if err != nil {
		return MaintenanceResponse{}, fmt.Errorf("invalid maintenance record id: %w", ErrValidation)
	}

	var record *model.MaintenanceRecord
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		record, err = s.findRecord(txCtx, recordID)
		if err != nil {
			return err
		}
		if record.Status == model.MaintenanceCompleted || record.Status == model.MaintenanceCanceled {
			return fmt.Errorf("maintenance record is already %s: %w", record.Status, ErrPreconditionFailed)
		}

		wasInProgress := record.Status == model.MaintenanceInProgress
		record.Status = model.MaintenanceCanceled
		if updErr := s.maintenanceRepo.Update(txCtx, record); updErr != nil {
			return fmt.Errorf("failed to update maintenance record: %w", updErr)
		}

		// Only in-progress work holds the vehicle.
		if wasInProgress {
			if setErr := s.vehicleRepo.SetStatus(txCtx, record.VehicleID, model.VehicleAvailable); setErr != nil {
				return setErr
			}
		}

		audit := model.AuditLog{
			Action:   model.ActionCancelMaintenance,
			EntityID: record.ID.String(),
		}
		return s.auditRepo.Create(txCtx, &audit)
	})
	if err != nil {
		return MaintenanceResponse{}, err
	}

	return toMaintenanceResponse(*record), nil
}

func (s *maintenanceService) Get(ctx context.Context, id string) (MaintenanceResponse, error) {
	recordID, err := uuid.Parse(id)
	if err != nil {
		return MaintenanceResponse{}, fmt.Errorf("invalid maintenance record id: %w", ErrValidation)
	}

	record, err := s.findRecord(ctx, recordID)
	if err != nil {
		return MaintenanceResponse{}, err
	}
	return toMaintenanceResponse(*record), nil
}

func (s *maintenanceService) List(ctx context.Context, vehicleID, status string, page, limit int) ([]MaintenanceResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var filter *uuid.UUID
	if vehicleID != "" {
		vehID, err := uuid.Parse(vehicleID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid vehicle id: %w", ErrValidation)
		}
		filter = &vehID
	}

	records, total, err := s.maintenanceRepo.List(ctx, filter, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch maintenance records: %w", err)
	}

	result := make([]MaintenanceResponse, 0, len(records))
	for _, r := range records {
		result = append(result, toMaintenanceResponse(r))
	}

	return result, total, nil
}

func (s *maintenanceService) TotalCostByVehicle(ctx context.Context, vehicleID string) (decimal.Decimal, error) {
	vehID, err := uuid.Parse(vehicleID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid vehicle id: %w", ErrValidation)
	}
	return s.maintenanceRepo.TotalCostByVehicle(ctx, vehID)
}

// --- Helpers ---

func (s *maintenanceService) findRecord(ctx context.Context, id uuid.UUID) (*model.MaintenanceRecord, error) {
	record, err := s.maintenanceRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("maintenance record %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return record, nil
}

func toMaintenanceResponse(r model.MaintenanceRecord) MaintenanceResponse {
	resp := MaintenanceResponse{
		ID:            r.ID.String(),
		VehicleID:     r.VehicleID.String(),
		Type:          r.Type,
		Status:        r.Status,
		ScheduledDate: r.ScheduledDate,
		CompletedDate: r.CompletedDate,
		Description:   r.Description,
		Cost:          r.Cost,
		Mileage:       r.Mileage,
		Workshop:      r.Workshop,
		Technician:    r.Technician,
		Notes:         r.Notes,
		CreatedAt:     r.CreatedAt,
	}
	if r.Vehicle != nil {
		resp.VehiclePlate = r.Vehicle.Plate
	}
	return resp
}
