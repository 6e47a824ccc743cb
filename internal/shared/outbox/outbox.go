package outbox

import "time"

// Message is an outbox row persisted inside the same DB transaction as the
// vote-state change that produced it. The worker relay reads pending rows and
// publishes them to the message bus.
type Message struct {
	OutboxID  string
	EventType string
	Payload   []byte
	Status    string // pending, published
	CreatedAt time.Time
}
