package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Survey is a service rating for a completed request. A request may collect
// more than one survey; submissions are not deduplicated.
type Survey struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID uuid.UUID         `gorm:"type:uuid;not null;index" json:"request_id"`
	Request   *TransportRequest `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"request,omitempty"`
	Rating    int               `gorm:"type:int;not null" json:"rating"` // 1..5
	Comments  string            `gorm:"type:text" json:"comments"`
	Date      time.Time         `gorm:"not null" json:"date"`
	CreatedAt time.Time         `json:"created_at"`
}

func (s *Survey) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SurveyPrompt is an open invitation to rate a completed request. Created by
// the assignment engine when a trip completes, closed by submitting a survey
// or skipping the prompt. Skipping leaves no Survey record behind.
type SurveyPrompt struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex" json:"request_id"`
	Request   *TransportRequest `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"request,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func (p *SurveyPrompt) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
