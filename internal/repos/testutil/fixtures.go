package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/types"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedVehicle(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID) *types.Vehicle {
	tb.Helper()
	v := &types.Vehicle{
		ID:     uuid.New(),
		UserID: userID,
		Make:   "Toyota",
		Model:  "Corolla",
		Year:   2018,
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed vehicle: %v", err)
	}
	return v
}

func SeedScanSession(tb testing.TB, ctx context.Context, tx *gorm.DB, vehicleID uuid.UUID, status string) *types.ScanSession {
	tb.Helper()
	s := &types.ScanSession{
		ID:        uuid.New(),
		VehicleID: vehicleID,
		Status:    status,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed scan session: %v", err)
	}
	return s
}

func SeedDtcKnowledge(tb testing.TB, ctx context.Context, tx *gorm.DB, code, severity, driveability string, safetyCritical, diyAllowed bool) *types.DtcKnowledge {
	tb.Helper()
	k := &types.DtcKnowledge{
		ID:                  uuid.New(),
		Code:                code,
		Category:            "powertrain",
		DefaultSeverity:     severity,
		DefaultDriveability: driveability,
		SafetyCritical:      safetyCritical,
		DIYAllowed:          diyAllowed,
		Source:              "seed",
		SourceVersion:       "v1",
	}
	if err := tx.WithContext(ctx).Create(k).Error; err != nil {
		tb.Fatalf("seed dtc knowledge: %v", err)
	}
	return k
}

func PtrString(s string) *string { return &s }
