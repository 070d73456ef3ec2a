package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// VehicleEvent is the per-vehicle timeline (one row per ingestion batch,
// booking change, recommendation, ...), rendered by clients as history.
type VehicleEvent struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	VehicleID uuid.UUID      `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	Vehicle   *Vehicle       `gorm:"constraint:OnDelete:CASCADE;foreignKey:VehicleID;references:ID" json:"vehicle,omitempty"`
	Type      string         `gorm:"not null;index" json:"type"`
	Data      datatypes.JSON `gorm:"type:jsonb" json:"data"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (VehicleEvent) TableName() string { return "vehicle_event" }
