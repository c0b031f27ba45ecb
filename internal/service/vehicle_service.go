package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"fleet-backend/internal/model"
	"fleet-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateVehicleDTO struct {
	Plate            string     `json:"plate" binding:"required"`
	Make             string     `json:"make" binding:"required"`
	Model            string     `json:"model" binding:"required"`
	Year             int        `json:"year"`
	Type             string     `json:"type"`
	Color            string     `json:"color"`
	Capacity         int        `json:"capacity"`
	FuelType         string     `json:"fuel_type"`
	Vin              string     `json:"vin"`
	Owner            string     `json:"owner"`
	InsuranceCompany string     `json:"insurance_company"`
	InsurancePolicy  string     `json:"insurance_policy"`
	SoatExpiry       *time.Time `json:"soat_expiry"`
	TechReviewExpiry *time.Time `json:"tech_review_expiry"`
	Mileage          int        `json:"mileage"`
}

type UpdateVehicleDTO struct {
	Plate            *string    `json:"plate"`
	Make             *string    `json:"make"`
	Model            *string    `json:"model"`
	Year             *int       `json:"year"`
	Type             *string    `json:"type"`
	Color            *string    `json:"color"`
	Capacity         *int       `json:"capacity"`
	FuelType         *string    `json:"fuel_type"`
	Vin              *string    `json:"vin"`
	Owner            *string    `json:"owner"`
	InsuranceCompany *string    `json:"insurance_company"`
	InsurancePolicy  *string    `json:"insurance_policy"`
	SoatExpiry       *time.Time `json:"soat_expiry"`
	TechReviewExpiry *time.Time `json:"tech_review_expiry"`
	Mileage          *int       `json:"mileage"`
}

type VehicleResponse struct {
	ID               string     `json:"id"`
	Plate            string     `json:"plate"`
	Make             string     `json:"make"`
	Model            string     `json:"model"`
	Year             int        `json:"year"`
	Type             string     `json:"type"`
	Color            string     `json:"color"`
	Capacity         int        `json:"capacity"`
	FuelType         string     `json:"fuel_type"`
	Vin              string     `json:"vin"`
	Owner            string     `json:"owner"`
	InsuranceCompany string     `json:"insurance_company"`
	InsurancePolicy  string     `json:"insurance_policy"`
	SoatExpiry       *time.Time `json:"soat_expiry"`
	TechReviewExpiry *time.Time `json:"tech_review_expiry"`
	Status           string     `json:"status"`
	Mileage          int        `json:"mileage"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// --- Interface ---

type VehicleService interface {
	CreateVehicle(ctx context.Context, req CreateVehicleDTO) (VehicleResponse, error)
	GetVehicle(ctx context.Context, id string) (VehicleResponse, error)
	ListVehicles(ctx context.Context, status, search string, page, limit int) ([]VehicleResponse, int64, error)
	UpdateVehicle(ctx context.Context, id string, req UpdateVehicleDTO) (VehicleResponse, error)
	DeleteVehicle(ctx context.Context, id string) error
	// SetStatus is the manual toggle (maintenance scheduling, admin fixes).
	// It refuses to touch a vehicle that an active request currently holds;
	// those vehicles are released only by the assignment engine.
	SetStatus(ctx context.Context, id, status string) (VehicleResponse, error)
	IsAvailable(ctx context.Context, id string) (bool, error)
}

type vehicleService struct {
	vehicleRepo repository.VehicleRepository
	requestRepo repository.RequestRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewVehicleService(
	vehicleRepo repository.VehicleRepository,
	requestRepo repository.RequestRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) VehicleService {
	return &vehicleService{
		vehicleRepo: vehicleRepo,
		requestRepo: requestRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

// --- Validation ---

var validVehicleStatuses = map[string]bool{
	model.VehicleAvailable:   true,
	model.VehicleInUse:       true,
	model.VehicleMaintenance: true,
}

// --- Implementation ---

func (s *vehicleService) CreateVehicle(ctx context.Context, req CreateVehicleDTO) (VehicleResponse, error) {
	vehicle := model.Vehicle{
		Plate:            req.Plate,
		Make:             req.Make,
		Model:            req.Model,
		Year:             req.Year,
		Type:             req.Type,
		Color:            req.Color,
		Capacity:         req.Capacity,
		FuelType:         req.FuelType,
		Vin:              req.Vin,
		Owner:            req.Owner,
		InsuranceCompany: req.InsuranceCompany,
		InsurancePolicy:  req.InsurancePolicy,
		SoatExpiry:       req.SoatExpiry,
		TechReviewExpiry: req.TechReviewExpiry,
		Status:           model.VehicleAvailable,
		Mileage:          req.Mileage,
	}

	if err := s.vehicleRepo.Create(ctx, &vehicle); err != nil {
		return VehicleResponse{}, fmt.Errorf("failed to create vehicle: %w", err)
	}

	return toVehicleResponse(vehicle), nil
}

func (s *vehicleService) GetVehicle(ctx context.Context, id string) (VehicleResponse, error) {
	vehicle, err := s.findVehicle(ctx, id)
	if err != nil {
		return VehicleResponse{}, err
	}
	return toVehicleResponse(*vehicle), nil
}

func (s *vehicleService) ListVehicles(ctx context.Context, status, search string, page, limit int) ([]VehicleResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	vehicles, total, err := s.vehicleRepo.List(ctx, status, search, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch vehicles: %w", err)
	}

	result := make([]VehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		result = append(result, toVehicleResponse(v))
	}

	return result, total, nil
}

func (s *vehicleService) UpdateVehicle(ctx context.Context, id string, req UpdateVehicleDTO) (VehicleResponse, error) {
	vehicle, err := s.findVehicle(ctx, id)
	if err != nil {
		return VehicleResponse{}, err
	}

	if req.Plate != nil {
		vehicle.Plate = *req.Plate
	}
	if req.Make != nil {
		vehicle.Make = *req.Make
	}
	if req.Model != nil {
		vehicle.Model = *req.Model
	}
	if req.Year != nil {
		vehicle.Year = *req.Year
	}
	if req.Type != nil {
		vehicle.Type = *req.Type
	}
	if req.Color != nil {
		vehicle.Color = *req.Color
	}
	if req.Capacity != nil {
		vehicle.Capacity = *req.Capacity
	}
	if req.FuelType != nil {
		vehicle.FuelType = *req.FuelType
	}
	if req.Vin != nil {
		vehicle.Vin = *req.Vin
	}
	if req.Owner != nil {
		vehicle.Owner = *req.Owner
	}
	if req.InsuranceCompany != nil {
		vehicle.InsuranceCompany = *req.InsuranceCompany
	}
	if req.InsurancePolicy != nil {
		vehicle.InsurancePolicy = *req.InsurancePolicy
	}
	if req.SoatExpiry != nil {
		vehicle.SoatExpiry = req.SoatExpiry
	}
	if req.TechReviewExpiry != nil {
		vehicle.TechReviewExpiry = req.TechReviewExpiry
	}
	if req.Mileage != nil {
		vehicle.Mileage = *req.Mileage
	}

	if err := s.vehicleRepo.Update(ctx, vehicle); err != nil {
		return VehicleResponse{}, fmt.Errorf("failed to update vehicle: %w", err)
	}

	return toVehicleResponse(*vehicle), nil
}

func (s *vehicleService) DeleteVehicle(ctx context.Context, id string) error {
	vehicle, err := s.findVehicle(ctx, id)
	if err != nil {
		return err
	}

	active, err := s.requestRepo.CountActiveByVehicle(ctx, vehicle.ID)
	if err != nil {
		return err
	}
	if active > 0 {
		return fmt.Errorf("vehicle %s is held by an active request: %w", vehicle.Plate, ErrPreconditionFailed)
	}

	return s.vehicleRepo.Delete(ctx, vehicle.ID)
}

func (s *vehicleService) SetStatus(ctx context.Context, id, status string) (VehicleResponse, error) {
	if !validVehicleStatuses[status] {
		return VehicleResponse{}, fmt.Errorf("invalid vehicle status %q: %w", status, ErrValidation)
	}
	vehicleID, err := uuid.Parse(id)
	if err != nil {
		return VehicleResponse{}, fmt.Errorf("invalid vehicle id: %w", ErrValidation)
	}

	var vehicle *model.Vehicle
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		vehicle, findErr = s.vehicleRepo.FindByID(txCtx, vehicleID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				log.Printf("WARNING: status change for unknown vehicle %s ignored", id)
				return fmt.Errorf("vehicle %s: %w", id, ErrNotFound)
			}
			return findErr
		}

		active, countErr := s.requestRepo.CountActiveByVehicle(txCtx, vehicle.ID)
		if countErr != nil {
			return countErr
		}
		if active > 0 {
			return fmt.Errorf("vehicle %s is held by an active request: %w", vehicle.Plate, ErrPreconditionFailed)
		}

		if setErr := s.vehicleRepo.SetStatus(txCtx, vehicle.ID, status); setErr != nil {
			return setErr
		}
		vehicle.Status = status

		details, _ := json.Marshal(map[string]interface{}{"status": status})
		audit := model.AuditLog{
			Action:     model.ActionSetVehicleStatus,
			EntityID:   vehicle.ID.String(),
			EntityName: vehicle.Plate,
			Details:    string(details),
		}
		return s.auditRepo.Create(txCtx, &audit)
	})
	if err != nil {
		return VehicleResponse{}, err
	}

	return toVehicleResponse(*vehicle), nil
}

func (s *vehicleService) IsAvailable(ctx context.Context, id string) (bool, error) {
	vehicle, err := s.findVehicle(ctx, id)
	if err != nil {
		return false, err
	}
	return vehicle.Status == model.VehicleAvailable, nil
}

// --- Helpers ---

func (s *vehicleService) findVehicle(ctx context.Context, id string) (*model.Vehicle, error) {
	vehicleID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid vehicle id: %w", ErrValidation)
	}

	vehicle, err := s.vehicleRepo.FindByID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("WARNING: stale vehicle reference %s", id)
			return nil, fmt.Errorf("vehicle %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return vehicle, nil
}

func toVehicleResponse(v model.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:               v.ID.String(),
		Plate:            v.Plate,
		Make:             v.Make,
		Model:            v.Model,
		Year:             v.Year,
		Type:             v.Type,
		Color:            v.Color,
		Capacity:         v.Capacity,
		FuelType:         v.FuelType,
		Vin:              v.Vin,
		Owner:            v.Owner,
		InsuranceCompany: v.InsuranceCompany,
		InsurancePolicy:  v.InsurancePolicy,
		SoatExpiry:       v.SoatExpiry,
		TechReviewExpiry: v.TechReviewExpiry,
		Status:           v.Status,
		Mileage:          v.Mileage,
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
	}
}
