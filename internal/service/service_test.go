package service

import (
	"context"
	"testing"
	"time"

	"fleet-backend/internal/model"
	"fleet-backend/internal/repository"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Foreign keys are enforced so deletes behave like they do on Postgres.
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Vehicle{},
		&model.Driver{},
		&model.TransportRequest{},
		&model.Notification{},
		&model.Survey{},
		&model.SurveyPrompt{},
		&model.MaintenanceRecord{},
		&model.AuditLog{},
	); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

// testEnv wires the full service graph against an in-memory database. The
// websocket hub is left nil so nothing blocks on broadcast.
type testEnv struct {
	db *gorm.DB

	requests     RequestService
	assignments  AssignmentService
	vehicles     VehicleService
	drivers      DriverService
	surveys      SurveyService
	maintenance  MaintenanceService
	notification NotificationService
	audit        AuditService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := openTestDB(t)

	txManager := repository.NewTransactionManager(db)
	requestRepo := repository.NewRequestRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	driverRepo := repository.NewDriverRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	surveyRepo := repository.NewSurveyRepository(db)
	maintenanceRepo := repository.NewMaintenanceRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	notificationService := NewNotificationService(notificationRepo, nil)
	assignmentService := NewAssignmentService(requestRepo, vehicleRepo, driverRepo, surveyRepo, auditRepo, txManager, notificationService)

	return &testEnv{
		db:           db,
		requests:     NewRequestService(requestRepo, auditRepo, txManager, assignmentService),
		assignments:  assignmentService,
		vehicles:     NewVehicleService(vehicleRepo, requestRepo, auditRepo, txManager),
		drivers:      NewDriverService(driverRepo, requestRepo, auditRepo, txManager),
		surveys:      NewSurveyService(surveyRepo, requestRepo, auditRepo, txManager),
		maintenance:  NewMaintenanceService(maintenanceRepo, vehicleRepo, auditRepo, txManager),
		notification: notificationService,
		audit:        NewAuditService(auditRepo),
	}
}

func seedVehicle(t *testing.T, db *gorm.DB, plate, status string) *model.Vehicle {
	t.Helper()
	v := model.Vehicle{
		Plate:    plate,
		Make:     "Toyota",
		Model:    "Hiace",
		Year:     2021,
		Capacity: 12,
		Status:   status,
	}
	if err := db.Create(&v).Error; err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}
	return &v
}

func seedDriver(t *testing.T, db *gorm.DB, name, license, status string) *model.Driver {
	t.Helper()
	d := model.Driver{
		Name:          name,
		LicenseNumber: license,
		Contact:       "555-0101",
		Status:        status,
	}
	if err := db.Create(&d).Error; err != nil {
		t.Fatalf("seed driver: %v", err)
	}
	return &d
}

func seedRequest(t *testing.T, db *gorm.DB, requester, status string) *model.TransportRequest {
	t.Helper()
	r := model.TransportRequest{
		Requester:   requester,
		Department:  "Operations",
		Date:        time.Now().Add(24 * time.Hour),
		Origin:      "Main Office",
		Destination: "Airport",
		Passengers:  3,
		Status:      status,
	}
	if err := db.Create(&r).Error; err != nil {
		t.Fatalf("seed request: %v", err)
	}
	return &r
}

func reloadRequest(t *testing.T, db *gorm.DB, r *model.TransportRequest) *model.TransportRequest {
	t.Helper()
	var fresh model.TransportRequest
	if err := db.First(&fresh, "id = ?", r.ID).Error; err != nil {
		t.Fatalf("reload request: %v", err)
	}
	return &fresh
}

func reloadVehicle(t *testing.T, db *gorm.DB, v *model.Vehicle) *model.Vehicle {
	t.Helper()
	var fresh model.Vehicle
	if err := db.First(&fresh, "id = ?", v.ID).Error; err != nil {
		t.Fatalf("reload vehicle: %v", err)
	}
	return &fresh
}

func reloadDriver(t *testing.T, db *gorm.DB, d *model.Driver) *model.Driver {
	t.Helper()
	var fresh model.Driver
	if err := db.First(&fresh, "id = ?", d.ID).Error; err != nil {
		t.Fatalf("reload driver: %v", err)
	}
	return &fresh
}

func countNotifications(t *testing.T, db *gorm.DB, notifType string) int64 {
	t.Helper()
	var count int64
	q := db.Model(&model.Notification{})
	if notifType != "" {
		q = q.Where("type = ?", notifType)
	}
	if err := q.Count(&count).Error; err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	return count
}

func countAuditLogs(t *testing.T, db *gorm.DB, action string) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&model.AuditLog{}).Where("action = ?", action).Count(&count).Error; err != nil {
		t.Fatalf("count audit logs: %v", err)
	}
	return count
}

var testCtx = context.Background()
