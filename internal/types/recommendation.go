package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RecommendationTypeServiceShop    = "service_shop"
	RecommendationTypeDIY            = "diy"
	RecommendationTypeServicePlanned = "service_planned"
	RecommendationTypeMonitor        = "monitor"
)

// Recommendation content is immutable once written; a new generation run
// writes a new row. Admins may only flip IsActive.
type Recommendation struct {
	ID                uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DiagnosticEventID uuid.UUID        `gorm:"type:uuid;not null;index" json:"diagnostic_event_id"`
	DiagnosticEvent   *DiagnosticEvent `gorm:"constraint:OnDelete:CASCADE;foreignKey:DiagnosticEventID;references:ID" json:"diagnostic_event,omitempty"`
	Type              string           `gorm:"not null" json:"type"`
	Urgency           string           `gorm:"not null" json:"urgency"`
	Confidence        int              `gorm:"not null" json:"confidence"`
	Title             string           `gorm:"not null" json:"title"`
	Details           datatypes.JSON   `gorm:"type:jsonb" json:"details"`
	IsActive          bool             `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt         time.Time        `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt         time.Time        `gorm:"not null;default:now()" json:"updated_at"`
}

func (Recommendation) TableName() string { return "recommendation" }
