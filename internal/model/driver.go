package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DriverStatus constants
const (
	DriverAvailable = "AVAILABLE"
	DriverOnTrip    = "ON_TRIP"
	DriverOnLeave   = "ON_LEAVE"
)

// Driver represents a fleet driver. Status moves Available <-> OnTrip only
// through the assignment engine; OnLeave is a manual toggle.
type Driver struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string    `gorm:"type:varchar(255);not null" json:"name"`
	LicenseNumber string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"license_number"`
	Contact       string    `gorm:"type:varchar(50)" json:"contact"`
	Email         string    `gorm:"type:varchar(255)" json:"email"`
	Status        string    `gorm:"type:varchar(20);not null;default:'AVAILABLE';index" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (d *Driver) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
