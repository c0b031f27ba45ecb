package service

import (
	"errors"
	"testing"
	"time"

	"fleet-backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func scheduleJob(t *testing.T, env *testEnv, vehicleID string) MaintenanceResponse {
	t.Helper()
	resp, err := env.maintenance.Schedule(testCtx, ScheduleMaintenanceDTO{
		VehicleID:     vehicleID,
		Type:          model.MaintenancePreventive,
		ScheduledDate: time.Now().Add(72 * time.Hour),
		Description:   "oil change and brake inspection",
		Cost:          decimal.NewFromInt(150),
		Workshop:      "Central Garage",
	})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	return resp
}

func TestScheduleMaintenance(t *testing.T) {
	env := newTestEnv(t)
	vehicle := seedVehicle(t, env.db, "MNT-001", model.VehicleAvailable)

	resp := scheduleJob(t, env, vehicle.ID.String())
	if resp.Status != model.MaintenanceScheduled {
		t.Errorf("status = %s, want %s", resp.Status, model.MaintenanceScheduled)
	}

	// Scheduling alone does not park the vehicle.
	if got := reloadVehicle(t, env.db, vehicle).Status; got != model.VehicleAvailable {
		t.Errorf("vehicle status = %s, want %s", got, model.VehicleAvailable)
	}

	if _, err := env.maintenance.Schedule(testCtx, ScheduleMaintenanceDTO{
		VehicleID:     uuid.NewString(),
		Type:          model.MaintenanceCorrective,
		ScheduledDate: time.Now(),
		Description:   "x",
	}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown vehicle err = %v, want ErrNotFound", err)
	}
}

func TestMaintenanceLifecycle(t *testing.T) {
	env := newTestEnv(t)
	vehicle := seedVehicle(t, env.db, "MNT-002", model.VehicleAvailable)
	record := scheduleJob(t, env, vehicle.ID.String())

	started, err := env.maintenance.Start(testCtx, record.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if started.Status != model.MaintenanceInProgress {
		t.Errorf("status = %s, want %s", started.Status, model.MaintenanceInProgress)
	}
	if got := reloadVehicle(t, env.db, vehicle).Status; got != model.VehicleMaintenance {
		t.Errorf("vehicle status = %s, want %s", got, model.VehicleMaintenance)
	}

	// A parked vehicle is out of the assignment pool.
	driver := seedDriver(t, env.db, "Driver", "LIC-M01", model.DriverAvailable)
	request := seedRequest(t, env.db, "Requester", model.RequestPending)
	if _, err := env.assignments.Assign(testCtx, request.ID.String(), vehicle.ID.String(), driver.ID.String(), false); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("assign parked vehicle err = %v, want ErrPreconditionFailed", err)
	}

	finalCost := decimal.NewFromFloat(212.50)
	notes := "replaced brake pads"
	completed, err := env.maintenance.Complete(testCtx, record.ID, CompleteMaintenanceDTO{
		Cost:  &finalCost,
		Notes: &notes,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if completed.Status != model.MaintenanceCompleted {
		t.Errorf("status = %s, want %s", completed.Status, model.MaintenanceCompleted)
	}
	if completed.CompletedDate == nil {
		t.Error("completed record has no completion date")
	}
	if !completed.Cost.Equal(finalCost) {
		t.Errorf("cost = %s, want %s", completed.Cost, finalCost)
	}
	if got := reloadVehicle(t, env.db, vehicle).Status; got != model.VehicleAvailable {
		t.Errorf("vehicle status = %s, want %s", got, model.VehicleAvailable)
	}
}

func TestStartMaintenanceRequiresAvailableVehicle(t *testing.T) {
	env := newTestEnv(t)
	vehicle := seedVehicle(t, env.db, "MNT-003", model.VehicleInUse)
	record := scheduleJob(t, env, vehicle.ID.String())

	if _, err := env.maintenance.Start(testCtx, record.ID); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("err = %v, want ErrPreconditionFailed", err)
	}
}

func TestCompleteMaintenanceRequiresInProgress(t *testing.T) {
	env := newTestEnv(t)
	vehicle := seedVehicle(t, env.db, "MNT-004", model.VehicleAvailable)
	record := scheduleJob(t, env, vehicle.ID.String())

	if _, err := env.maintenance.Complete(testCtx, record.ID, CompleteMaintenanceDTO{}); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("err = %v, want ErrPreconditionFailed", err)
	}
}

func TestCancelMaintenanceReleasesVehicle(t *testing.T) {
	env := newTestEnv(t)
	vehicle := seedVehicle(t, env.db, "MNT-005", model.VehicleAvailable)
	record := scheduleJob(t, env, vehicle.ID.String())

	if _, err := env.maintenance.Start(testCtx, record.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}

	canceled, err := env.maintenance.Cancel(testCtx, record.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if canceled.Status != model.MaintenanceCanceled {
		t.Errorf("status = %s, want %s", canceled.Status, model.MaintenanceCanceled)
	}
	if got := reloadVehicle(t, env.db, vehicle).Status; got != model.VehicleAvailable {
		t.Errorf("vehicle status = %s, want %s", got, model.VehicleAvailable)
	}

	// Terminal records stay put.
	if _, err := env.maintenance.Cancel(testCtx, record.ID); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("cancel terminal err = %v, want ErrPreconditionFailed", err)
	}
}

func TestDeleteVehicleRemovesMaintenanceHistory(t *testing.T) {
	env := newTestEnv(t)
	vehicle := seedVehicle(t, env.db, "MNT-007", model.VehicleAvailable)
	record := scheduleJob(t, env, vehicle.ID.String())

	if _, err := env.maintenance.Start(testCtx, record.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := env.maintenance.Complete(testCtx, record.ID, CompleteMaintenanceDTO{}); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if err := env.vehicles.DeleteVehicle(testCtx, vehicle.ID.String()); err != nil {
		t.Fatalf("DeleteVehicle: %v", err)
	}

	var count int64
	if err := env.db.Model(&model.MaintenanceRecord{}).Where("vehicle_id = ?", vehicle.ID).Count(&count).Error; err != nil {
		t.Fatalf("count maintenance records: %v", err)
	}
	if count != 0 {
		t.Errorf("maintenance records for deleted vehicle = %d, want 0", count)
	}
}

func TestTotalCostByVehicle(t *testing.T) {
	env := newTestEnv(t)
	vehicle := seedVehicle(t, env.db, "MNT-006", model.VehicleAvailable)

	first := scheduleJob(t, env, vehicle.ID.String())
	if _, err := env.maintenance.Start(testCtx, first.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cost := decimal.NewFromInt(100)
	if _, err := env.maintenance.Complete(testCtx, first.ID, CompleteMaintenanceDTO{Cost: &cost}); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	// A scheduled-but-unfinished job does not count.
	scheduleJob(t, env, vehicle.ID.String())

	total, err := env.maintenance.TotalCostByVehicle(testCtx, vehicle.ID.String())
	if err != nil {
		t.Fatalf("TotalCostByVehicle: %v", err)
	}
	if !total.Equal(cost) {
		t.Errorf("total = %s, want %s", total, cost)
	}
}
