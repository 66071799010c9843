// Package queue defines the domain events published to the message broker,
// the publisher used by services and the audit consumer.
package queue

import "time"

// Event types.
const (
	EventLogin               = "session.login"
	EventLogout              = "session.logout"
	EventPaymentRecalculated = "payment.total_recalculated"
)

// EventsQueue is the durable queue every event is routed to.
const EventsQueue = "conductor.events"

// Event is the single envelope for every domain event. Fields irrelevant to
// the type are left empty.
type Event struct {
	Type        string    `json:"type"`
	OccurredAt  time.Time `json:"occurred_at"`
	UserID      uint64    `json:"user_id"`
	PaymentID   uint64    `json:"payment_id,omitempty"`
	TotalAmount string    `json:"total_amount,omitempty"`
	RemoteIP    string    `json:"remote_ip,omitempty"`
}
