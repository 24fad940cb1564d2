package db

import (
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/notification/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/testkit"
)

func TestDB_CreateDelivery(t *testing.T) {
	// Arrange
	pool := testkit.Postgres(t)
	db := NewDB(pool, instrument.NewNoop())
	ctx := context.Background()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	// Act
	err := db.CreateDelivery(ctx, entity.Delivery{
		ID:        1,
		UserID:    7,
		Channel:   entity.ChannelEmail,
		Purpose:   "password_reset",
		Recipient: "jane@example.com",
		Status:    entity.DeliveryStatusFailed,
		Error:     "smtp: 421",
		CreatedAt: at,
	})

	// Assert
	if err != nil {
		t.Fatalf("CreateDelivery: %v", err)
	}

	var (
		status    int16
		errText   string
		createdAt time.Time
	)
	if err := pool.QueryRow(ctx, `SELECT status, error, created_at FROM notification_deliveries WHERE id = 1`).
		Scan(&status, &errText, &createdAt); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if entity.DeliveryStatus(status) != entity.DeliveryStatusFailed || errText != "smtp: 421" || !createdAt.Equal(at) {
		t.Fatalf("unexpected row status=%d error=%q created_at=%v", status, errText, createdAt)
	}

	if err := db.CreateDelivery(ctx, entity.Delivery{ID: 1, CreatedAt: at}); err == nil {
		t.Fatal("duplicate id must fail")
	}
}
