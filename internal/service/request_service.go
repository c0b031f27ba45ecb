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
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateRequestDTO struct {
	Requester      string     `json:"requester" binding:"required"`
	RequesterEmail string     `json:"requester_email"`
	Department     string     `json:"department" binding:"required"`
	Date           time.Time  `json:"date" binding:"required"`
	DepartureDate  *time.Time `json:"departure_date"`
	Origin         string     `json:"origin" binding:"required"`
	Destination    string     `json:"destination" binding:"required"`
	Passengers     int        `json:"passengers" binding:"required,gt=0"`
	Purpose        string     `json:"purpose"`
	Observations   string     `json:"observations"`
}

// UpdateRequestDTO covers the descriptive payload only. Status and resource
// references change exclusively through the assignment engine.
type UpdateRequestDTO struct {
	Requester      *string    `json:"requester"`
	RequesterEmail *string    `json:"requester_email"`
	Department     *string    `json:"department"`
	Date           *time.Time `json:"date"`
	DepartureDate  *time.Time `json:"departure_date"`
	Origin         *string    `json:"origin"`
	Destination    *string    `json:"destination"`
	Passengers     *int       `json:"passengers"`
	Purpose        *string    `json:"purpose"`
	Observations   *string    `json:"observations"`
}

type RequestFilter struct {
	Status string
	Page   int
	Limit  int
}

type RequestResponse struct {
	ID             string     `json:"id"`
	Requester      string     `json:"requester"`
	RequesterEmail string     `json:"requester_email"`
	Department     string     `json:"department"`
	Date           time.Time  `json:"date"`
	DepartureDate  *time.Time `json:"departure_date"`
	Origin         string     `json:"origin"`
	Destination    string     `json:"destination"`
	Passengers     int        `json:"passengers"`
	Purpose        string     `json:"purpose"`
	Observations   string     `json:"observations"`
	Status         string     `json:"status"`
	VehicleID      *string    `json:"vehicle_id"`
	VehiclePlate   string     `json:"vehicle_plate,omitempty"`
	DriverID       *string    `json:"driver_id"`
	DriverName     string     `json:"driver_name,omitempty"`
	CancelReason   string     `json:"cancel_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// --- Interface ---

type RequestService interface {
	CreateRequest(ctx context.Context, req CreateRequestDTO) (RequestResponse, error)
	GetRequest(ctx context.Context, id string) (RequestResponse, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]RequestResponse, int64, error)
	UpdateRequest(ctx context.Context, id string, req UpdateRequestDTO) (RequestResponse, error)
	DeleteRequest(ctx context.Context, id string) error
}

type requestService struct {
	requestRepo repository.RequestRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	engine      AssignmentService
}

func NewRequestService(
	requestRepo repository.RequestRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	engine AssignmentService,
) RequestService {
	return &requestService{
		requestRepo: requestRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		engine:      engine,
	}
}

// --- Implementation ---

func (s *requestService) CreateRequest(ctx context.Context, req CreateRequestDTO) (RequestResponse, error) {
	request := model.TransportRequest{
		Requester:      req.Requester,
		RequesterEmail: req.RequesterEmail,
		Department:     req.Department,
		Date:           req.Date,
		DepartureDate:  req.DepartureDate,
		Origin:         req.Origin,
		Destination:    req.Destination,
		Passengers:     req.Passengers,
		Purpose:        req.Purpose,
		Observations:   req.Observations,
		Status:         model.RequestPending,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.requestRepo.Create(txCtx, &request); createErr != nil {
			return fmt.Errorf("failed to create request: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"requester":   req.Requester,
			"destination": req.Destination,
			"date":        req.Date,
		})
		audit := model.AuditLog{
			Action:     model.ActionCreateRequest,
			EntityID:   request.ID.String(),
			EntityName: req.Requester + " -> " + req.Destination,
			Details:    string(details),
		}
		if auditErr := s.auditRepo.Create(txCtx, &audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})
	if err != nil {
		return RequestResponse{}, err
	}

	return toRequestResponse(request), nil
}

func (s *requestService) GetRequest(ctx context.Context, id string) (RequestResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return RequestResponse{}, fmt.Errorf("invalid request id: %w", ErrValidation)
	}

	request, err := s.requestRepo.FindByIDWithRelations(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RequestResponse{}, fmt.Errorf("request %s: %w", id, ErrNotFound)
		}
		return RequestResponse{}, err
	}

	return toRequestResponse(*request), nil
}

func (s *requestService) ListRequests(ctx context.Context, filter RequestFilter) ([]RequestResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	requests, total, err := s.requestRepo.List(ctx, filter.Status, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch requests: %w", err)
	}

	result := make([]RequestResponse, 0, len(requests))
	for _, r := range requests {
		result = append(result, toRequestResponse(r))
	}

	return result, total, nil
}

func (s *requestService) UpdateRequest(ctx context.Context, id string, req UpdateRequestDTO) (RequestResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return RequestResponse{}, fmt.Errorf("invalid request id: %w", ErrValidation)
	}

	var request *model.TransportRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, err = s.requestRepo.FindByID(txCtx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("request %s: %w", id, ErrNotFound)
			}
			return err
		}

		if req.Requester != nil {
			request.Requester = *req.Requester
		}
		if req.RequesterEmail != nil {
			request.RequesterEmail = *req.RequesterEmail
		}
		if req.Department != nil {
			request.Department = *req.Department
		}
		if req.Date != nil {
			request.Date = *req.Date
		}
		if req.DepartureDate != nil {
			request.DepartureDate = req.DepartureDate
		}
		if req.Origin != nil {
			request.Origin = *req.Origin
		}
		if req.Destination != nil {
			request.Destination = *req.Destination
		}
		if req.Passengers != nil {
			if *req.Passengers <= 0 {
				return fmt.Errorf("passengers must be positive: %w", ErrValidation)
			}
			request.Passengers = *req.Passengers
		}
		if req.Purpose != nil {
			request.Purpose = *req.Purpose
		}
		if req.Observations != nil {
			request.Observations = *req.Observations
		}

		if updateErr := s.requestRepo.Update(txCtx, request); updateErr != nil {
			return fmt.Errorf("failed to update request: %w", updateErr)
		}

		audit := model.AuditLog{
			Action:     model.ActionUpdateRequest,
			EntityID:   request.ID.String(),
			EntityName: request.Requester + " -> " + request.Destination,
		}
		if auditErr := s.auditRepo.Create(txCtx, &audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})
	if err != nil {
		return RequestResponse{}, err
	}

	return toRequestResponse(*request), nil
}

// DeleteRequest removes a request. A non-terminal request is first canceled
// through the assignment engine so an attached vehicle and driver are released
// instead of leaking into a permanently unavailable state.
func (s *requestService) DeleteRequest(ctx context.Context, id string) error {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid request id: %w", ErrValidation)
	}

	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("request %s: %w", id, ErrNotFound)
		}
		return err
	}

	if !request.IsTerminal() {
		if _, cancelErr := s.engine.Cancel(ctx, id, "request deleted"); cancelErr != nil {
			return fmt.Errorf("failed to release resources before delete: %w", cancelErr)
		}
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if deleteErr := s.requestRepo.Delete(txCtx, requestID); deleteErr != nil {
			return fmt.Errorf("failed to delete request: %w", deleteErr)
		}

		audit := model.AuditLog{
			Action:     model.ActionDeleteRequest,
			EntityID:   id,
			EntityName: request.Requester + " -> " + request.Destination,
		}
		if auditErr := s.auditRepo.Create(txCtx, &audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})
}

// --- Helpers ---

func toRequestResponse(r model.TransportRequest) RequestResponse {
	resp := RequestResponse{
		ID:             r.ID.String(),
		Requester:      r.Requester,
		RequesterEmail: r.RequesterEmail,
		Department:     r.Department,
		Date:           r.Date,
		DepartureDate:  r.DepartureDate,
		Origin:         r.Origin,
		Destination:    r.Destination,
		Passengers:     r.Passengers,
		Purpose:        r.Purpose,
		Observations:   r.Observations,
		Status:         r.Status,
		CancelReason:   r.CancelReason,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}

	if r.VehicleID != nil {
		s := r.VehicleID.String()
		resp.VehicleID = &s
	}
	if r.Vehicle != nil {
		resp.VehiclePlate = r.Vehicle.Plate
	}
	if r.DriverID != nil {
		s := r.DriverID.String()
		resp.DriverID = &s
	}
	if r.Driver != nil {
		resp.DriverName = r.Driver.Name
	}

	return resp
}
