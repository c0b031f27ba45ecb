package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreateRequest   = "CREATE_REQUEST"
	ActionUpdateRequest   = "UPDATE_REQUEST"
	ActionDeleteRequest   = "DELETE_REQUEST"
	ActionAssignRequest   = "ASSIGN_REQUEST"
	ActionStartRequest    = "START_REQUEST"
	ActionCompleteRequest = "COMPLETE_REQUEST"
	ActionCancelRequest   = "CANCEL_REQUEST"

	ActionSetVehicleStatus = "SET_VEHICLE_STATUS"
	ActionSetDriverStatus  = "SET_DRIVER_STATUS"

	ActionScheduleMaintenance = "SCHEDULE_MAINTENANCE"
	ActionStartMaintenance    = "START_MAINTENANCE"
	ActionCompleteMaintenance = "COMPLETE_MAINTENANCE"
	ActionCancelMaintenance   = "CANCEL_MAINTENANCE"

	ActionSubmitSurvey = "SUBMIT_SURVEY"
)

// AuditLog tracks What and When for critical fleet state changes
type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Action     string    `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string    `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string    `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string    `gorm:"type:text" json:"details"`                       // Serialized JSON payload of the action
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
