package uid

import "github.com/google/uuid"

// UUID produces time-ordered v7 identifiers, used for correlation ids and
// grant token ids. It degrades to v4 if the v7 clock source fails.
type UUID struct{}

func NewUUID() *UUID {
	return &UUID{}
}

func (*UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
