// Package queue defines message payloads exchanged over the message
// broker and the background consumer standing in for the CRM layer.
package queue

import "encoding/json"

// ApplicationQueueName is the durable queue carrying submitted
// exhibitor applications to the CRM/application-persistence layer.
const ApplicationQueueName = "application.submitted"

// ApplicationSubmittedEvent is published when a hold is converted into
// a submitted application. It carries the stand facts and the full
// form payload so downstream consumers can persist the application
// without querying the reservation service. The claim is already
// PENDING_APPROVAL by the time this message exists, so a slow
// consumer never blocks stand availability for other clients.
type ApplicationSubmittedEvent struct {
	StandID     string          `json:"stand_id"`
	HolderToken string          `json:"holder_token"`
	Category    string          `json:"category"`
	SizeM2      uint32          `json:"size_m2"`
	PriceCents  uint64          `json:"price_cents"`
	Form        json.RawMessage `json:"form"`
	Version     uint64          `json:"version"`
	SubmittedAt string          `json:"submitted_at"`
}
