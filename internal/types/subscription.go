package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	SubscriptionTierFree = "free"
	SubscriptionTierPro  = "pro"
)

// Subscription is maintained by the billing webhook reconciler; this core
// only reads it through the entitlement gate.
type Subscription struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID           uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User             *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Tier             string     `gorm:"not null;default:'free'" json:"tier"`
	Status           string     `gorm:"not null;default:'active'" json:"status"`
	CurrentPeriodEnd *time.Time `gorm:"column:current_period_end" json:"current_period_end,omitempty"`
	CreatedAt        time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (Subscription) TableName() string { return "subscription" }
