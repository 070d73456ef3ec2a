package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	BookingStatusRequested = "requested"
	BookingStatusAccepted  = "accepted"
	BookingStatusAlternate = "alternate"
	BookingStatusRejected  = "rejected"
	BookingStatusConfirmed = "confirmed"
)

type Booking struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	VehicleID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	Vehicle     *Vehicle       `gorm:"constraint:OnDelete:CASCADE;foreignKey:VehicleID;references:ID" json:"vehicle,omitempty"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User        *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	PartnerID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"partner_id"`
	Status      string         `gorm:"not null;default:'requested';index" json:"status"`
	Notes       string         `json:"notes"`
	RequestedAt time.Time      `gorm:"not null;default:now()" json:"requested_at"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Booking) TableName() string { return "booking" }
