package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestStatus constants
const (
	RequestPending    = "PENDING"
	RequestApproved   = "APPROVED"
	RequestInProgress = "IN_PROGRESS"
	RequestCompleted  = "COMPLETED"
	RequestCanceled   = "CANCELED"
)

// allowedTransitions is the directed graph of legal request status changes.
// Terminal statuses have no outgoing edges.
var allowedTransitions = map[string][]string{
	RequestPending:    {RequestApproved, RequestInProgress, RequestCanceled},
	RequestApproved:   {RequestInProgress, RequestCompleted, RequestCanceled},
	RequestInProgress: {RequestCompleted, RequestCanceled},
	RequestCompleted:  {},
	RequestCanceled:   {},
}

// CanTransition reports whether from -> to is a legal request status change.
func CanTransition(from, to string) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether a request status allows no further transitions.
func IsTerminalStatus(status string) bool {
	return status == RequestCompleted || status == RequestCanceled
}

// TransportRequest represents a request for a vehicle + driver service.
// Vehicle/driver references are set only by the assignment engine; a Canceled
// request keeps its last references as historical record.
type TransportRequest struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Requester      string     `gorm:"type:varchar(255);not null" json:"requester"`
	RequesterEmail string     `gorm:"type:varchar(255)" json:"requester_email"`
	Department     string     `gorm:"type:varchar(255);not null" json:"department"`
	Date           time.Time  `gorm:"not null" json:"date"`
	DepartureDate  *time.Time `json:"departure_date"`
	Origin         string     `gorm:"type:varchar(255);not null" json:"origin"`
	Destination    string     `gorm:"type:varchar(255);not null" json:"destination"`
	Passengers     int        `gorm:"type:int;not null;default:1" json:"passengers"`
	Purpose        string     `gorm:"type:text" json:"purpose"`
	Observations   string     `gorm:"type:text" json:"observations"`
	Status         string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	VehicleID      *uuid.UUID `gorm:"type:uuid;index" json:"vehicle_id"`
	Vehicle        *Vehicle   `gorm:"foreignKey:VehicleID;constraint:OnDelete:SET NULL" json:"vehicle,omitempty"`
	DriverID       *uuid.UUID `gorm:"type:uuid;index" json:"driver_id"`
	Driver         *Driver    `gorm:"foreignKey:DriverID;constraint:OnDelete:SET NULL" json:"driver,omitempty"`
	CancelReason   string     `gorm:"type:text" json:"cancel_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (r *TransportRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// HasResources reports whether both a vehicle and a driver are attached.
func (r *TransportRequest) HasResources() bool {
	return r.VehicleID != nil && r.DriverID != nil
}

// IsTerminal reports whether the request reached Completed or Canceled.
func (r *TransportRequest) IsTerminal() bool {
	return IsTerminalStatus(r.Status)
}
