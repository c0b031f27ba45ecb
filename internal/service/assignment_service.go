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

// AssignmentService is the request lifecycle state machine. It is the only
// writer that moves a vehicle between Available and InUse, or a driver between
// Available and OnTrip, in response to request transitions. Every transition
// runs in a single transaction; a rejected transition changes nothing.
type AssignmentService interface {
	Assign(ctx context.Context, requestID, vehicleID, driverID string, startNow bool) (RequestResponse, error)
	Start(ctx context.Context, requestID string) (RequestResponse, error)
	Complete(ctx context.Context, requestID string) (RequestResponse, error)
	Cancel(ctx context.Context, requestID, reason string) (RequestResponse, error)
}

type assignmentService struct {
	requestRepo repository.RequestRepository
	vehicleRepo repository.VehicleRepository
	driverRepo  repository.DriverRepository
	surveyRepo  repository.SurveyRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	notifier    NotificationService
}

func NewAssignmentService(
	requestRepo repository.RequestRepository,
	vehicleRepo repository.VehicleRepository,
	driverRepo repository.DriverRepository,
	surveyRepo repository.SurveyRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier NotificationService,
) AssignmentService {
	return &assignmentService{
		requestRepo: requestRepo,
		vehicleRepo: vehicleRepo,
		driverRepo:  driverRepo,
		surveyRepo:  surveyRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		notifier:    notifier,
	}
}

// Assign attaches an available vehicle and driver to a pending request and
// moves it to Approved, or straight to InProgress when startNow is set. The
// availability checks are compare-and-swap status writes, so two requests
// racing for the same vehicle cannot both win.
func (s *assignmentService) Assign(ctx context.Context, requestID, vehicleID, driverID string, startNow bool) (RequestResponse, error) {
	reqID, err := uuid.Parse(requestID)
	if err != nil {
		return RequestResponse{}, fmt.Errorf("invalid request id: %w", ErrValidation)
	}
	vehID, err := uuid.Parse(vehicleID)
	if err != nil {
		return RequestResponse{}, fmt.Errorf("invalid vehicle id: %w", ErrValidation)
	}
	drvID, err := uuid.Parse(driverID)
	if err != nil {
		return RequestResponse{}, fmt.Errorf("invalid driver id: %w", ErrValidation)
	}

	targetStatus := model.RequestApproved
	if startNow {
		targetStatus = model.RequestInProgress
	}

	var request *model.TransportRequest
	var vehicle *model.Vehicle
	var driver *model.Driver

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, err = s.findRequest(txCtx, reqID)
		if err != nil {
			return err
		}
		if request.Status != model.RequestPending {
			return fmt.Errorf("request is %s, only pending requests can be assigned: %w", request.Status, ErrPreconditionFailed)
		}

		vehicle, err = s.findVehicle(txCtx, vehID)
		if err != nil {
			return err
		}
		driver, err = s.findDriver(txCtx, drvID)
		if err != nil {
			return err
		}

		ok, casErr := s.vehicleRepo.CompareAndSetStatus(txCtx, vehID, model.VehicleAvailable, model.VehicleInUse)
		if casErr != nil {
			return casErr
		}
		if !ok {
			return fmt.Errorf("vehicle %s is not available: %w", vehicle.Plate, ErrPreconditionFailed)
		}

		ok, casErr = s.driverRepo.CompareAndSetStatus(txCtx, drvID, model.DriverAvailable, model.DriverOnTrip)
		if casErr != nil {
			return casErr
		}
		if !ok {
			return fmt.Errorf("driver %s is not available: %w", driver.Name, ErrPreconditionFailed)
		}

		ok, updErr := s.requestRepo.UpdateStatusIf(txCtx, reqID, model.RequestPending, map[string]interface{}{
			"status":     targetStatus,
			"vehicle_id": vehID,
			"driver_id":  drvID,
		})
		if updErr != nil {
			return updErr
		}
		if !ok {
			return fmt.Errorf("request is no longer pending: %w", ErrPreconditionFailed)
		}

		return s.audit(txCtx, model.ActionAssignRequest, request, map[string]interface{}{
			"vehicle_id":    vehicleID,
			"vehicle_plate": vehicle.Plate,
			"driver_id":     driverID,
			"driver_name":   driver.Name,
		})
	})
	if err != nil {
		return RequestResponse{}, err
	}

	request.Status = targetStatus
	request.VehicleID = &vehID
	request.Vehicle = vehicle
	request.DriverID = &drvID
	request.Driver = driver

	s.notifier.NotifyAssignment(ctx, request, vehicle, driver)

	return toRequestResponse(*request), nil
}

// Start moves an approved request to InProgress. Resources stay attached.
func (s *assignmentService) Start(ctx context.Context, requestID string) (RequestResponse, error) {
	reqID, err := uuid.Parse(requestID)
	if err != nil {
		return RequestResponse{}, fmt.Errorf("invalid request id: %w", ErrValidation)
	}

	var request *model.TransportRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, err = s.findRequest(txCtx, reqID)
		if err != nil {
			return err
		}
		if request.Status != model.RequestApproved {
			return fmt.Errorf("request is %s, only approved requests can start: %w", request.Status, ErrPreconditionFailed)
		}

		ok, updErr := s.requestRepo.UpdateStatusIf(txCtx, reqID, model.RequestApproved, map[string]interface{}{
			"status": model.RequestInProgress,
		})
		if updErr != nil {
			return updErr
		}
		if !ok {
			return fmt.Errorf("request is no longer approved: %w", ErrPreconditionFailed)
		}

		return s.audit(txCtx, model.ActionStartRequest, request, nil)
	})
	if err != nil {
		return RequestResponse{}, err
	}

	request.Status = model.RequestInProgress
	return toRequestResponse(*request), nil
}

// Complete finishes a trip: the request keeps its vehicle/driver references as
// history while both resources return to Available, and a survey prompt opens
// for the request. Completing a request that never had resources assigned is
// rejected.
func (s *assignmentService) Complete(ctx context.Context, requestID string) (RequestResponse, error) {
	reqID, err := uuid.Parse(requestID)
	if err != nil {
		return RequestResponse{}, fmt.Errorf("invalid request id: %w", ErrValidation)
	}

	var request *model.TransportRequest
	var driver *model.Driver

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, err = s.findRequest(txCtx, reqID)
		if err != nil {
			return err
		}
		if !model.CanTransition(request.Status, model.RequestCompleted) {
			return fmt.Errorf("request is %s and cannot be completed: %w", request.Status, ErrPreconditionFailed)
		}
		if !request.HasResources() {
			return fmt.Errorf("request has no vehicle or driver assigned: %w", ErrPreconditionFailed)
		}

		ok, updErr := s.requestRepo.UpdateStatusIf(txCtx, reqID, request.Status, map[string]interface{}{
			"status": model.RequestCompleted,
		})
		if updErr != nil {
			return updErr
		}
		if !ok {
			return fmt.Errorf("request status changed concurrently: %w", ErrPreconditionFailed)
		}

		if setErr := s.vehicleRepo.SetStatus(txCtx, *request.VehicleID, model.VehicleAvailable); setErr != nil {
			return setErr
		}
		if setErr := s.driverRepo.SetStatus(txCtx, *request.DriverID, model.DriverAvailable); setErr != nil {
			return setErr
		}

		driver, err = s.findDriver(txCtx, *request.DriverID)
		if err != nil {
			return err
		}

		prompt := model.SurveyPrompt{RequestID: reqID}
		if promptErr := s.surveyRepo.CreatePrompt(txCtx, &prompt); promptErr != nil {
			return fmt.Errorf("failed to open survey prompt: %w", promptErr)
		}

		return s.audit(txCtx, model.ActionCompleteRequest, request, map[string]interface{}{
			"vehicle_id": request.VehicleID.String(),
			"driver_id":  request.DriverID.String(),
		})
	})
	if err != nil {
		return RequestResponse{}, err
	}

	request.Status = model.RequestCompleted
	s.notifier.NotifyCompletion(ctx, request, driver)

	return toRequestResponse(*request), nil
}

// Cancel moves a non-terminal request to Canceled and releases an attached
// vehicle and driver back to Available. The stale references stay on the
// request as historical record. A pending request with no resources is a pure
// status flip.
func (s *assignmentService) Cancel(ctx context.Context, requestID, reason string) (RequestResponse, error) {
	reqID, err := uuid.Parse(requestID)
	if err != nil {
		return RequestResponse{}, fmt.Errorf("invalid request id: %w", ErrValidation)
	}

	var request *model.TransportRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		request, err = s.findRequest(txCtx, reqID)
		if err != nil {
			return err
		}
		if request.IsTerminal() {
			return fmt.Errorf("request is already %s: %w", request.Status, ErrPreconditionFailed)
		}

		ok, updErr := s.requestRepo.UpdateStatusIf(txCtx, reqID, request.Status, map[string]interface{}{
			"status":        model.RequestCanceled,
			"cancel_reason": reason,
		})
		if updErr != nil {
			return updErr
		}
		if !ok {
			return fmt.Errorf("request status changed concurrently: %w", ErrPreconditionFailed)
		}

		if request.VehicleID != nil {
			if setErr := s.vehicleRepo.SetStatus(txCtx, *request.VehicleID, model.VehicleAvailable); setErr != nil {
				return setErr
			}
		}
		if request.DriverID != nil {
			if setErr := s.driverRepo.SetStatus(txCtx, *request.DriverID, model.DriverAvailable); setErr != nil {
				return setErr
			}
		}

		return s.audit(txCtx, model.ActionCancelRequest, request, map[string]interface{}{
			"reason": reason,
		})
	})
	if err != nil {
		return RequestResponse{}, err
	}

	request.Status = model.RequestCanceled
	request.CancelReason = reason
	s.notifier.NotifyCancellation(ctx, request, reason)

	return toRequestResponse(*request), nil
}

// --- Helpers ---

func (s *assignmentService) findRequest(ctx context.Context, id uuid.UUID) (*model.TransportRequest, error) {
	request, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("request %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return request, nil
}

func (s *assignmentService) findVehicle(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	vehicle, err := s.vehicleRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("WARNING: stale vehicle reference %s", id)
			return nil, fmt.Errorf("vehicle %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return vehicle, nil
}

func (s *assignmentService) findDriver(ctx context.Context, id uuid.UUID) (*model.Driver, error) {
	driver, err := s.driverRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("WARNING: stale driver reference %s", id)
			return nil, fmt.Errorf("driver %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return driver, nil
}

func (s *assignmentService) audit(ctx context.Context, action string, request *model.TransportRequest, details map[string]interface{}) error {
	payload := ""
	if details != nil {
		details["at"] = time.Now().Format(time.RFC3339)
		raw, _ := json.Marshal(details)
		payload = string(raw)
	}
	entry := model.AuditLog{
		Action:     action,
		EntityID:   request.ID.String(),
		EntityName: request.Requester + " -> " + request.Destination,
		Details:    payload,
	}
	if err := s.auditRepo.Create(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
