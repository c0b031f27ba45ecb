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

type CreateDriverDTO struct {
	Name          string `json:"name" binding:"required"`
	LicenseNumber string `json:"license_number" binding:"required"`
	Contact       string `json:"contact"`
	Email         string `json:"email"`
}

type UpdateDriverDTO struct {
	Name          *string `json:"name"`
	LicenseNumber *string `json:"license_number"`
	Contact       *string `json:"contact"`
	Email         *string `json:"email"`
}

type DriverResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	LicenseNumber string    `json:"license_number"`
	Contact       string    `json:"contact"`
	Email         string    `json:"email"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// --- Interface ---

type DriverService interface {
	CreateDriver(ctx context.Context, req CreateDriverDTO) (DriverResponse, error)
	GetDriver(ctx context.Context, id string) (DriverResponse, error)
	ListDrivers(ctx context.Context, status, search string, page, limit int) ([]DriverResponse, int64, error)
	UpdateDriver(ctx context.Context, id string, req UpdateDriverDTO) (DriverResponse, error)
	DeleteDriver(ctx context.Context, id string) error
	// SetStatus is the manual toggle (leave management, admin fixes). It
	// refuses to touch a driver that an active request currently holds.
	SetStatus(ctx context.Context, id, status string) (DriverResponse, error)
	IsAvailable(ctx context.Context, id string) (bool, error)
}

type driverService struct {
	driverRepo  repository.DriverRepository
	requestRepo repository.RequestRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewDriverService(
	driverRepo repository.DriverRepository,
	requestRepo repository.RequestRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) DriverService {
	return &driverService{
		driverRepo:  driverRepo,
		requestRepo: requestRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

// --- Validation ---

var validDriverStatuses = map[string]bool{
	model.DriverAvailable: true,
	model.DriverOnTrip:    true,
	model.DriverOnLeave:   true,
}

// --- Implementation ---

func (s *driverService) CreateDriver(ctx context.Context, req CreateDriverDTO) (DriverResponse, error) {
	driver := model.Driver{
		Name:          req.Name,
		LicenseNumber: req.LicenseNumber,
		Contact:       req.Contact,
		Email:         req.Email,
		Status:        model.DriverAvailable,
	}

	if err := s.driverRepo.Create(ctx, &driver); err != nil {
		return DriverResponse{}, fmt.Errorf("failed to create driver: %w", err)
	}

	return toDriverResponse(driver), nil
}

func (s *driverService) GetDriver(ctx context.Context, id string) (DriverResponse, error) {
	driver, err := s.findDriver(ctx, id)
	if err != nil {
		return DriverResponse{}, err
	}
	return toDriverResponse(*driver), nil
}

func (s *driverService) ListDrivers(ctx context.Context, status, search string, page, limit int) ([]DriverResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	drivers, total, err := s.driverRepo.List(ctx, status, search, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch drivers: %w", err)
	}

	result := make([]DriverResponse, 0, len(drivers))
	for _, d := range drivers {
		result = append(result, toDriverResponse(d))
	}

	return result, total, nil
}

func (s *driverService) UpdateDriver(ctx context.Context, id string, req UpdateDriverDTO) (DriverResponse, error) {
	driver, err := s.findDriver(ctx, id)
	if err != nil {
		return DriverResponse{}, err
	}

	if req.Name != nil {
		driver.Name = *req.Name
	}
	if req.LicenseNumber != nil {
		driver.LicenseNumber = *req.LicenseNumber
	}
	if req.Contact != nil {
		driver.Contact = *req.Contact
	}
	if req.Email != nil {
		driver.Email = *req.Email
	}

	if err := s.driverRepo.Update(ctx, driver); err != nil {
		return DriverResponse{}, fmt.Errorf("failed to update driver: %w", err)
	}

	return toDriverResponse(*driver), nil
}

func (s *driverService) DeleteDriver(ctx context.Context, id string) error {
	driver, err := s.findDriver(ctx, id)
	if err != nil {
		return err
	}

	active, err := s.requestRepo.CountActiveByDriver(ctx, driver.ID)
	if err != nil {
		return err
	}
	if active > 0 {
		return fmt.Errorf("driver %s is held by an active request: %w", driver.Name, ErrPreconditionFailed)
	}

	return s.driverRepo.Delete(ctx, driver.ID)
}

func (s *driverService) SetStatus(ctx context.Context, id, status string) (DriverResponse, error) {
	if !validDriverStatuses[status] {
		return DriverResponse{}, fmt.Errorf("invalid driver status %q: %w", status, ErrValidation)
	}
	driverID, err := uuid.Parse(id)
	if err != nil {
		return DriverResponse{}, fmt.Errorf("invalid driver id: %w", ErrValidation)
	}

	var driver *model.Driver
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		driver, findErr = s.driverRepo.FindByID(txCtx, driverID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				log.Printf("WARNING: status change for unknown driver %s ignored", id)
				return fmt.Errorf("driver %s: %w", id, ErrNotFound)
			}
			return findErr
		}

		active, countErr := s.requestRepo.CountActiveByDriver(txCtx, driver.ID)
		if countErr != nil {
			return countErr
		}
		if active > 0 {
			return fmt.Errorf("driver %s is held by an active request: %w", driver.Name, ErrPreconditionFailed)
		}

		if setErr := s.driverRepo.SetStatus(txCtx, driver.ID, status); setErr != nil {
			return setErr
		}
		driver.Status = status

		details, _ := json.Marshal(map[string]interface{}{"status": status})
		audit := model.AuditLog{
			Action:     model.ActionSetDriverStatus,
			EntityID:   driver.ID.String(),
			EntityName: driver.Name,
			Details:    string(details),
		}
		return s.auditRepo.Create(txCtx, &audit)
	})
	if err != nil {
		return DriverResponse{}, err
	}

	return toDriverResponse(*driver), nil
}

func (s *driverService) IsAvailable(ctx context.Context, id string) (bool, error) {
	driver, err := s.findDriver(ctx, id)
	if err != nil {
		return false, err
	}
	return driver.Status == model.DriverAvailable, nil
}

// --- Helpers ---

func (s *driverService) findDriver(ctx context.Context, id string) (*model.Driver, error) {
	driverID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid driver id: %w", ErrValidation)
	}

	driver, err := s.driverRepo.FindByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("WARNING: stale driver reference %s", id)
			return nil, fmt.Errorf("driver %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return driver, nil
}

func toDriverResponse(d model.Driver) DriverResponse {
	return DriverResponse{
		ID:            d.ID.String(),
		Name:          d.Name,
		LicenseNumber: d.LicenseNumber,
		Contact:       d.Contact,
		Email:         d.Email,
		Status:        d.Status,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}
