package service

import (
	"errors"
	"testing"

	"fleet-backend/internal/model"
)

func TestCreateVehicle(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.vehicles.CreateVehicle(testCtx, CreateVehicleDTO{
		Plate:    "NEW-001",
		Make:     "Nissan",
		Model:    "Urvan",
		Year:     2022,
		Capacity: 15,
	})
	if err != nil {
		t.Fatalf("CreateVehicle: %v", err)
	}
	if resp.Status != model.VehicleAvailable {
		t.Errorf("status = %s, want %s", resp.Status, model.VehicleAvailable)
	}
}

func TestVehicleSetStatusManualToggle(t *testing.T) {
	env := newTestEnv(t)
	vehicle := seedVehicle(t, env.db, "TOG-001", model.VehicleAvailable)

	resp, err := env.vehicles.SetStatus(testCtx, vehicle.ID.String(), model.VehicleMaintenance)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if resp.Status != model.VehicleMaintenance {
		t.Errorf("status = %s, want %s", resp.Status, model.VehicleMaintenance)
	}

	if _, err := env.vehicles.SetStatus(testCtx, vehicle.ID.String(), "PARKED"); !errors.Is(err, ErrValidation) {
		t.Fatalf("invalid status err = %v, want ErrValidation", err)
	}
}

func TestVehicleSetStatusRefusedWhileHeld(t *testing.T) {
	env := newTestEnv(t)
	vehicle := seedVehicle(t, env.db, "HELD-001", model.VehicleAvailable)
	driver := seedDriver(t, env.db, "Driver", "LIC-V01", model.DriverAvailable)
	request := seedRequest(t, env.db, "Requester", model.RequestPending)

	if _, err := env.assignments.Assign(testCtx, request.ID.String(), vehicle.ID.String(), driver.ID.String(), false); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	// Vehicles held by an active request are released only by the engine.
	if _, err := env.vehicles.SetStatus(testCtx, vehicle.ID.String(), model.VehicleAvailable); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("err = %v, want ErrPreconditionFailed", err)
	}
	if got := reloadVehicle(t, env.db, vehicle).Status; got != model.VehicleInUse {
		t.Errorf("vehicle status = %s, want %s", got, model.VehicleInUse)
	}
}

func TestDeleteVehicleRefusedWhileHeld(t *testing.T) {
	env := newTestEnv(t)
	vehicle := seedVehicle(t, env.db, "HELD-002", model.VehicleAvailable)
	driver := seedDriver(t, env.db, "Driver", "LIC-V02", model.DriverAvailable)
	request := seedRequest(t, env.db, "Requester", model.RequestPending)

	if _, err := env.assignments.Assign(testCtx, request.ID.String(), vehicle.ID.String(), driver.ID.String(), false); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if err := env.vehicles.DeleteVehicle(testCtx, vehicle.ID.String()); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("err = %v, want ErrPreconditionFailed", err)
	}

	// After completion the guard lifts.
	if _, err := env.assignments.Complete(testCtx, request.ID.String()); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := env.vehicles.DeleteVehicle(testCtx, vehicle.ID.String()); err != nil {
		t.Fatalf("DeleteVehicle after complete: %v", err)
	}
}

func TestDeleteVehicleClearsHistoricalReferences(t *testing.T) {
	env := newTestEnv(t)
	vehicle := seedVehicle(t, env.db, "HIST-001", model.VehicleAvailable)
	driver := seedDriver(t, env.db, "Driver", "LIC-V03", model.DriverAvailable)
	request := seedRequest(t, env.db, "Requester", model.RequestPending)

	if _, err := env.assignments.Assign(testCtx, request.ID.String(), vehicle.ID.String(), driver.ID.String(), true); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if _, err := env.assignments.Complete(testCtx, request.ID.String()); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	// The completed request still references the vehicle; deleting the vehicle
	// nulls that reference out instead of failing.
	if err := env.vehicles.DeleteVehicle(testCtx, vehicle.ID.String()); err != nil {
		t.Fatalf("DeleteVehicle: %v", err)
	}

	fresh := reloadRequest(t, env.db, request)
	if fresh.VehicleID != nil {
		t.Error("deleted vehicle still referenced by the completed request")
	}
	if fresh.DriverID == nil {
		t.Error("driver reference was lost with the vehicle")
	}
}

func TestDriverSetStatusManualToggle(t *testing.T) {
	env := newTestEnv(t)
	driver := seedDriver(t, env.db, "Leave Driver", "LIC-D01", model.DriverAvailable)

	resp, err := env.drivers.SetStatus(testCtx, driver.ID.String(), model.DriverOnLeave)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if resp.Status != model.DriverOnLeave {
		t.Errorf("status = %s, want %s", resp.Status, model.DriverOnLeave)
	}

	// A driver on leave cannot be assigned.
	vehicle := seedVehicle(t, env.db, "LVE-001", model.VehicleAvailable)
	request := seedRequest(t, env.db, "Requester", model.RequestPending)
	if _, err := env.assignments.Assign(testCtx, request.ID.String(), vehicle.ID.String(), driver.ID.String(), false); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("assign on-leave driver err = %v, want ErrPreconditionFailed", err)
	}
}

func TestDriverSetStatusRefusedWhileOnTrip(t *testing.T) {
	env := newTestEnv(t)
	vehicle := seedVehicle(t, env.db, "TRP-001", model.VehicleAvailable)
	driver := seedDriver(t, env.db, "Trip Driver", "LIC-D02", model.DriverAvailable)
	request := seedRequest(t, env.db, "Requester", model.RequestPending)

	if _, err := env.assignments.Assign(testCtx, request.ID.String(), vehicle.ID.String(), driver.ID.String(), true); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if _, err := env.drivers.SetStatus(testCtx, driver.ID.String(), model.DriverOnLeave); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("err = %v, want ErrPreconditionFailed", err)
	}
}
