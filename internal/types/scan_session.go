package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ScanSessionStatusActive = "active"
	ScanSessionStatusClosed = "closed"
)

type ScanSession struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	VehicleID uuid.UUID      `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	Vehicle   *Vehicle       `gorm:"constraint:OnDelete:CASCADE;foreignKey:VehicleID;references:ID" json:"vehicle,omitempty"`
	Status    string         `gorm:"not null;default:'active';index" json:"status"`
	StartedAt time.Time      `gorm:"not null;default:now()" json:"started_at"`
	ClosedAt  *time.Time     `json:"closed_at,omitempty"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ScanSession) TableName() string { return "scan_session" }
