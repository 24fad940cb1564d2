package clock

import (
	"testing"
	"time"
)

func TestFixed_Advance(t *testing.T) {
	// Arrange
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	c := NewFixed(start)

	// Act
	c.Advance(4 * time.Minute)

	// Assert
	if got := c.Now(); !got.Equal(start.Add(4 * time.Minute)) {
		t.Fatalf("Now() = %v, want %v", got, start.Add(4*time.Minute))
	}

	c.Set(start)
	if got := c.Now(); !got.Equal(start) {
		t.Fatalf("Now() after Set = %v, want %v", got, start)
	}
}

func TestTimeClocker_NowIsUTC(t *testing.T) {
	if loc := New().Now().Location(); loc != time.UTC {
		t.Fatalf("Now().Location() = %v, want UTC", loc)
	}
}
