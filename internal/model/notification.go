package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationType constants
const (
	NotificationAssignment   = "ASSIGNMENT"
	NotificationApproval     = "APPROVAL"
	NotificationCancellation = "CANCELLATION"
	NotificationCompletion   = "COMPLETION"
)

// RecipientType constants
const (
	RecipientRequester = "REQUESTER"
	RecipientDriver    = "DRIVER"
)

// Notification is a dispatched message tied to a request transition.
// Immutable after creation except for the read flag.
type Notification struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Type          string            `gorm:"type:varchar(20);not null;index" json:"type"`
	Recipient     string            `gorm:"type:varchar(255);not null;index" json:"recipient"`
	RecipientType string            `gorm:"type:varchar(20);not null" json:"recipient_type"`
	Message       string            `gorm:"type:text;not null" json:"message"`
	RequestID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"request_id"`
	Request       *TransportRequest `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"-"`
	Read          bool              `gorm:"not null;default:false" json:"read"`
	CreatedAt     time.Time         `gorm:"index" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
