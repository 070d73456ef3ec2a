package types

import (
	"time"

	"github.com/google/uuid"
)

// DtcKnowledge is seeded reference data, read-only from the engine's side.
type DtcKnowledge struct {
	ID                  uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Code                string     `gorm:"uniqueIndex;not null" json:"code"`
	Category            string     `json:"category"`
	DefaultSeverity     string     `gorm:"column:default_severity;not null;default:'service_soon'" json:"default_severity"`
	DefaultDriveability string     `gorm:"column:default_driveability;not null;default:'drivable'" json:"default_driveability"`
	SafetyCritical      bool       `gorm:"column:safety_critical;not null;default:false" json:"safety_critical"`
	DIYAllowed          bool       `gorm:"column:diy_allowed;not null;default:false" json:"diy_allowed"`
	SummaryTemplate     string     `gorm:"column:summary_template" json:"summary_template"`
	Source              string     `json:"source"`
	SourceVersion       string     `gorm:"column:source_version" json:"source_version"`
	EffectiveFrom       *time.Time `gorm:"column:effective_from" json:"effective_from,omitempty"`
	EffectiveTo         *time.Time `gorm:"column:effective_to" json:"effective_to,omitempty"`
	CreatedAt           time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (DtcKnowledge) TableName() string { return "dtc_knowledge" }
