package entity

import "time"

// Delivery is one attempt to hand a code to its recipient. The code itself is
// never part of it.
type Delivery struct {
	ID        int64
	UserID    int64
	Channel   Channel
	Purpose   string
	Recipient string
	Status    DeliveryStatus
	Error     string
	MessageID string
	CreatedAt time.Time
}
