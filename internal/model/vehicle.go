package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VehicleStatus constants
const (
	VehicleAvailable   = "AVAILABLE"
	VehicleInUse       = "IN_USE"
	VehicleMaintenance = "MAINTENANCE"
)

// Vehicle represents a fleet vehicle. Status moves Available <-> InUse only
// through the assignment engine; Maintenance is toggled by the maintenance
// workflow or manual status changes.
type Vehicle struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Plate            string     `gorm:"type:varchar(20);uniqueIndex;not null" json:"plate"`
	Make             string     `gorm:"type:varchar(100);not null" json:"make"`
	Model            string     `gorm:"type:varchar(100);not null" json:"model"`
	Year             int        `gorm:"type:int" json:"year"`
	Type             string     `gorm:"type:varchar(50)" json:"type"`
	Color            string     `gorm:"type:varchar(50)" json:"color"`
	Capacity         int        `gorm:"type:int;default:0" json:"capacity"`
	FuelType         string     `gorm:"type:varchar(50)" json:"fuel_type"`
	Vin              string     `gorm:"type:varchar(50)" json:"vin"`
	Owner            string     `gorm:"type:varchar(255)" json:"owner"`
	InsuranceCompany string     `gorm:"type:varchar(255)" json:"insurance_company"`
	InsurancePolicy  string     `gorm:"type:varchar(100)" json:"insurance_policy"`
	SoatExpiry       *time.Time `json:"soat_expiry"`
	TechReviewExpiry *time.Time `json:"tech_review_expiry"`
	Status           string     `gorm:"type:varchar(20);not null;default:'AVAILABLE';index" json:"status"`
	Mileage          int        `gorm:"type:int;default:0" json:"mileage"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (v *Vehicle) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
