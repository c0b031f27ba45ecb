package service

import (
	"errors"
	"testing"

	"fleet-backend/internal/model"

	"github.com/google/uuid"
)

func TestAssign(t *testing.T) {
	env := newTestEnv(t)
	vehicle := seedVehicle(t, env.db, "ABC-123", model.VehicleAvailable)
	driver := seedDriver(t, env.db, "Carlos Mendez", "LIC-001", model.DriverAvailable)
	request := seedRequest(t, env.db, "Laura Gomez", model.RequestPending)

	resp, err := env.assignments.Assign(testCtx, request.ID.String(), vehicle.ID.String(), driver.ID.String(), false)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if resp.Status != model.RequestApproved {
		t.Errorf("status = %s, want %s", resp.Status, model.RequestApproved)
	}
	if resp.VehiclePlate != "ABC-123" {
		t.Errorf("vehicle plate = %q, want ABC-123", resp.VehiclePlate)
	}

	fresh := reloadRequest(t, env.db, request)
	if fresh.Status != model.RequestApproved {
		t.Errorf("stored status = %s, want %s", fresh.Status, model.RequestApproved)
	}
	if fresh.VehicleID == nil || *fresh.VehicleID != vehicle.ID {
		t.Error("vehicle reference not stored on request")
	}
	if fresh.DriverID == nil || *fresh.DriverID != driver.ID {
		t.Error("driver reference not stored on request")
	}

	if got := reloadVehicle(t, env.db, vehicle).Status; got != model.VehicleInUse {
		t.Errorf("vehicle status = %s, want %s", got, model.VehicleInUse)
	}
	if got := reloadDriver(t, env.db, driver).Status; got != model.DriverOnTrip {
		t.Errorf("driver status = %s, want %s", got, model.DriverOnTrip)
	}

	// One message for the requester and one for the driver.
	if got := countNotifications(t, env.db, model.NotificationAssignment); got != 2 {
		t.Errorf("assignment notifications = %d, want 2", got)
	}
	if got := countAuditLogs(t, env.db, model.ActionAssignRequest); got != 1 {
		t.Errorf("assign audit entries = %d, want 1", got)
	}
}

func TestAssignStartNow(t *testing.T) {
	env := newTestEnv(t)
	vehicle := seedVehicle(t, env.db, "ABC-124", model.VehicleAvailable)
	driver := seedDriver(t, env.db, "Ana Ruiz", "LIC-002", model.DriverAvailable)
	request := seedRequest(t, env.db, "Pedro Silva", model.RequestPending)

	resp, err := env.assignments.Assign(testCtx, request.ID.String(), vehicle.ID.String(), driver.ID.String(), true)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if resp.Status != model.RequestInProgress {
		t.Errorf("status = %s, want %s", resp.Status, model.RequestInProgress)
	}
}

func TestAssignVehicleNotAvailable(t *testing.T) {
	env := newTestEnv(t)
	vehicle := seedVehicle(t, env.db, "BUSY-01", model.VehicleInUse)
	driver := seedDriver(t, env.db, "Free Driver", "LIC-003", model.DriverAvailable)
	request := seedRequest(t, env.db, "Second Requester", model.RequestPending)

	_, err := env.assignments.Assign(testCtx, request.ID.String(), vehicle.ID.String(), driver.ID.String(), false)
	if !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("err = %v, want ErrPreconditionFailed", err)
	}

	// The rejected transition changed nothing.
	if got := reloadRequest(t, env.db, request).Status; got != model.RequestPending {
		t.Errorf("request status = %s, want %s", got, model.RequestPending)
	}
	if got := reloadDriver(t, env.db, driver).Status; got != model.DriverAvailable {
		t.Errorf("driver status = %s, want %s", got, model.DriverAvailable)
	}
	if got := countNotifications(t, env.db, ""); got != 0 {
		t.Errorf("notifications = %d, want 0", got)
	}
}

func TestAssignDriverNotAvailableRollsBackVehicle(t *testing.T) {
	env := newTestEnv(t)
	vehicle := seedVehicle(t, env.db, "ROLL-01", model.VehicleAvailable)
	driver := seedDriver(t, env.db, "Busy Driver", "LIC-004", model.DriverOnTrip)
	request := seedRequest(t, env.db, "Requester", model.RequestPending)

	_, err := env.assignments.Assign(testCtx, request.ID.String(), vehicle.ID.String(), driver.ID.String(), false)
	if !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("err = %v, want ErrPreconditionFailed", err)
	}

	// The vehicle was claimed inside the transaction and must be released by
	// the rollback.
	if got := reloadVehicle(t, env.db, vehicle).Status; got != model.VehicleAvailable {
		t.Errorf("vehicle status = %s, want %s", got, model.VehicleAvailable)
	}
}

func TestAssignNonPendingRequest(t *testing.T) {
	env := newTestEnv(t)
	vehicle := seedVehicle(t, env.db, "ABC-125", model.VehicleAvailable)
	driver := seedDriver(t, env.db, "Driver", "LIC-005", model.DriverAvailable)
	request := seedRequest(t, env.db, "Requester", model.RequestCompleted)

	_, err := env.assignments.Assign(testCtx, request.ID.String(), vehicle.ID.String(), driver.ID.String(), false)
	if !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("err = %v, want ErrPreconditionFailed", err)
	}
}

func TestAssignUnknownRequest(t *testing.T) {
	env := newTestEnv(t)
	vehicle := seedVehicle(t, env.db, "ABC-126", model.VehicleAvailable)
	driver := seedDriver(t, env.db, "Driver", "LIC-006", model.DriverAvailable)

	_, err := env.assignments.Assign(testCtx, uuid.NewString(), vehicle.ID.String(), driver.ID.String(), false)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	_, err = env.assignments.Assign(testCtx, "not-a-uuid", vehicle.ID.String(), driver.ID.String(), false)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestStart(t *testing.T) {
	env := newTestEnv(t)
	vehicle := seedVehicle(t, env.db, "ABC-127", model.VehicleAvailable)
	driver := seedDriver(t, env.db, "Driver", "LIC-007", model.DriverAvailable)
	request := seedRequest(t, env.db, "Requester", model.RequestPending)

	if _, err := env.assignments.Assign(testCtx, request.ID.String(), vehicle.ID.String(), driver.ID.String(), false); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	resp, err := env.assignments.Start(testCtx, request.ID.String())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if resp.Status != model.RequestInProgress {
		t.Errorf("status = %s, want %s", resp.Status, model.RequestInProgress)
	}

	// A second Start is rejected.
	if _, err := env.assignments.Start(testCtx, request.ID.String()); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("second Start err = %v, want ErrPreconditionFailed", err)
	}
}

func TestStartPendingRequest(t *testing.T) {
	env := newTestEnv(t)
	request := seedRequest(t, env.db, "Requester", model.RequestPending)

	if _, err := env.assignments.Start(testCtx, request.ID.String()); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("err = %v, want ErrPreconditionFailed", err)
	}
}

func TestComplete(t *testing.T) {
	env := newTestEnv(t)
	vehicle := seedVehicle(t, env.db, "ABC-128", model.VehicleAvailable)
	driver := seedDriver(t, env.db, "Maria Lopez", "LIC-008", model.DriverAvailable)
	request := seedRequest(t, env.db, "Requester", model.RequestPending)

	if _, err := env.assignments.Assign(testCtx, request.ID.String(), vehicle.ID.String(), driver.ID.String(), true); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	resp, err := env.assignments.Complete(testCtx, request.ID.String())
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Status != model.RequestCompleted {
		t.Errorf("status = %s, want %s", resp.Status, model.RequestCompleted)
	}

	// Resources return to the pool; the request keeps its references.
	if got := reloadVehicle(t, env.db, vehicle).Status; got != model.VehicleAvailable {
		t.Errorf("vehicle status = %s, want %s", got, model.VehicleAvailable)
	}
	if got := reloadDriver(t, env.db, driver).Status; got != model.DriverAvailable {
		t.Errorf("driver status = %s, want %s", got, model.DriverAvailable)
	}
	fresh := reloadRequest(t, env.db, request)
	if fresh.VehicleID == nil || fresh.DriverID == nil {
		t.Error("completed request lost its resource references")
	}

	// Completing opens a survey prompt for the requester.
	prompts, err := env.surveys.ListOpenPrompts(testCtx)
	if err != nil {
		t.Fatalf("ListOpenPrompts: %v", err)
	}
	if len(prompts) != 1 {
		t.Fatalf("open prompts = %d, want 1", len(prompts))
	}
	if prompts[0].RequestID != request.ID.String() {
		t.Errorf("prompt request = %s, want %s", prompts[0].RequestID, request.ID)
	}

	if got := countNotifications(t, env.db, model.NotificationCompletion); got != 1 {
		t.Errorf("completion notifications = %d, want 1", got)
	}
}

func TestCompleteWithoutResources(t *testing.T) {
	env := newTestEnv(t)
	request := seedRequest(t, env.db, "Requester", model.RequestPending)

	if _, err := env.assignments.Complete(testCtx, request.ID.String()); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("err = %v, want ErrPreconditionFailed", err)
	}
	if got := reloadRequest(t, env.db, request).Status; got != model.RequestPending {
		t.Errorf("request status = %s, want %s", got, model.RequestPending)
	}
}

func TestCancelPendingRequest(t *testing.T) {
	env := newTestEnv(t)
	request := seedRequest(t, env.db, "Requester", model.RequestPending)

	resp, err := env.assignments.Cancel(testCtx, request.ID.String(), "plans changed")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if resp.Status != model.RequestCanceled {
		t.Errorf("status = %s, want %s", resp.Status, model.RequestCanceled)
	}
	if resp.CancelReason != "plans changed" {
		t.Errorf("cancel reason = %q, want %q", resp.CancelReason, "plans changed")
	}

	if got := countNotifications(t, env.db, model.NotificationCancellation); got != 1 {
		t.Errorf("cancellation notifications = %d, want 1", got)
	}
}

func TestCancelReleasesResources(t *testing.T) {
	env := newTestEnv(t)
	vehicle := seedVehicle(t, env.db, "ABC-129", model.VehicleAvailable)
	driver := seedDriver(t, env.db, "Driver", "LIC-009", model.DriverAvailable)
	request := seedRequest(t, env.db, "Requester", model.RequestPending)

	if _, err := env.assignments.Assign(testCtx, request.ID.String(), vehicle.ID.String(), driver.ID.String(), false); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if _, err := env.assignments.Cancel(testCtx, request.ID.String(), ""); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if got := reloadVehicle(t, env.db, vehicle).Status; got != model.VehicleAvailable {
		t.Errorf("vehicle status = %s, want %s", got, model.VehicleAvailable)
	}
	if got := reloadDriver(t, env.db, driver).Status; got != model.DriverAvailable {
		t.Errorf("driver status = %s, want %s", got, model.DriverAvailable)
	}

	// The canceled request keeps the references as history.
	fresh := reloadRequest(t, env.db, request)
	if fresh.VehicleID == nil || fresh.DriverID == nil {
		t.Error("canceled request lost its resource references")
	}

	// The freed vehicle can be assigned again.
	second := seedRequest(t, env.db, "Next Requester", model.RequestPending)
	if _, err := env.assignments.Assign(testCtx, second.ID.String(), vehicle.ID.String(), driver.ID.String(), false); err != nil {
		t.Fatalf("reassign after cancel: %v", err)
	}
}

func TestCancelTerminalRequest(t *testing.T) {
	env := newTestEnv(t)
	for _, status := range []string{model.RequestCompleted, model.RequestCanceled} {
		request := seedRequest(t, env.db, "Requester "+status, status)
		if _, err := env.assignments.Cancel(testCtx, request.ID.String(), ""); !errors.Is(err, ErrPreconditionFailed) {
			t.Errorf("Cancel(%s) err = %v, want ErrPreconditionFailed", status, err)
		}
	}
}
