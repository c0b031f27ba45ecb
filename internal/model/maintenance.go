package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaintenanceType constants
const (
	MaintenancePreventive = "PREVENTIVE"
	MaintenanceCorrective = "CORRECTIVE"
)

// MaintenanceStatus constants
const (
	MaintenanceScheduled  = "SCHEDULED"
	MaintenanceInProgress = "IN_PROGRESS"
	MaintenanceCompleted  = "COMPLETED"
	MaintenanceCanceled   = "CANCELED"
)

// MaintenanceRecord tracks scheduled and performed work on a vehicle.
// Starting a record puts the vehicle into Maintenance status; completing or
// canceling an in-progress record returns it to Available.
type MaintenanceRecord struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	VehicleID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	Vehicle       *Vehicle        `gorm:"foreignKey:VehicleID;constraint:OnDelete:CASCADE" json:"vehicle,omitempty"`
	Type          string          `gorm:"type:varchar(20);not null" json:"type"`
	Status        string          `gorm:"type:varchar(20);not null;default:'SCHEDULED';index" json:"status"`
	ScheduledDate time.Time       `gorm:"not null" json:"scheduled_date"`
	CompletedDate *time.Time      `json:"completed_date"`
	Description   string          `gorm:"type:text;not null" json:"description"`
	Cost          decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"cost"`
	Mileage       int             `gorm:"type:int;default:0" json:"mileage"`
	Workshop      string          `gorm:"type:varchar(255)" json:"workshop"`
	Technician    string          `gorm:"type:varchar(255)" json:"technician"`
	Notes         string          `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (m *MaintenanceRecord) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
