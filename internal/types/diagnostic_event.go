package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	DiagnosticSourceOBDScan  = "obd_scan"
	DiagnosticSourceDTCClear = "dtc_clear"
	DiagnosticSourceManual   = "manual"
)

// DiagnosticEvent is append-only: clearing a code creates a new row with
// source dtc_clear, existing rows are never mutated.
type DiagnosticEvent struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	VehicleID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	Vehicle        *Vehicle       `gorm:"constraint:OnDelete:CASCADE;foreignKey:VehicleID;references:ID" json:"vehicle,omitempty"`
	ScanSessionID  *uuid.UUID     `gorm:"type:uuid;index" json:"scan_session_id,omitempty"`
	ScanSession    *ScanSession   `gorm:"constraint:OnDelete:SET NULL;foreignKey:ScanSessionID;references:ID" json:"scan_session,omitempty"`
	Source         string         `gorm:"not null;default:'obd_scan';index" json:"source"`
	DTCCode        string         `gorm:"column:dtc_code;not null;index" json:"dtc_code"`
	Severity       string         `json:"severity,omitempty"`
	FreezeFrame    datatypes.JSON `gorm:"type:jsonb;column:freeze_frame" json:"freeze_frame,omitempty"`
	SensorSnapshot datatypes.JSON `gorm:"type:jsonb;column:sensor_snapshot" json:"sensor_snapshot,omitempty"`
	IdempotencyKey *string        `gorm:"column:idempotency_key;uniqueIndex" json:"idempotency_key,omitempty"`
	OccurredAt     time.Time      `gorm:"not null;default:now()" json:"occurred_at"`
	CapturedAt     time.Time      `gorm:"not null;default:now()" json:"captured_at"`
	IngestedAt     time.Time      `gorm:"not null;default:now()" json:"ingested_at"`
}

func (DiagnosticEvent) TableName() string { return "diagnostic_event" }
