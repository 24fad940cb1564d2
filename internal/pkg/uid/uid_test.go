package uid

import (
	"testing"

	"github.com/google/uuid"
)

func TestSnowflake_Unique(t *testing.T) {
	// Arrange
	gen, err := NewSnowflake(1)
	if err != nil {
		t.Fatalf("NewSnowflake() error = %v", err)
	}

	// Act
	seen := make(map[int64]struct{}, 1000)
	for range 1000 {
		seen[gen.Generate()] = struct{}{}
	}

	// Assert
	if len(seen) != 1000 {
		t.Fatalf("unique ids = %d, want 1000", len(seen))
	}
}

func TestNewSnowflake_InvalidNode(t *testing.T) {
	if _, err := NewSnowflake(4096); err == nil {
		t.Fatal("expected error for out-of-range node")
	}
}

func TestUUID_Generate(t *testing.T) {
	id, err := uuid.Parse(NewUUID().Generate())
	if err != nil {
		t.Fatalf("uuid.Parse() error = %v", err)
	}
	if id.Version() != 7 {
		t.Fatalf("Version() = %d, want 7", id.Version())
	}
}
