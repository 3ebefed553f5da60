// Package events publishes booking lifecycle events to Kafka so downstream
// services (notifications, analytics) can react without coupling to this
// service's storage.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Topic and event type names for the booking event stream.
const (
	TopicBookingEvents = "booking.events"

	BookingRequested = "booking.requested"
	BookingConfirmed = "booking.confirmed"
	BookingCancelled = "booking.cancelled"
)

// CloudEvent is the envelope every published event is wrapped in.
type CloudEvent struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Source          string          `json:"source"`
	Type            string          `json:"type"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	Data            json.RawMessage `json:"data"`
}

// NewCloudEvent wraps the payload in a CloudEvent envelope.
func NewCloudEvent(source, eventType string, data interface{}) (CloudEvent, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return CloudEvent{}, fmt.Errorf("failed to marshal event data: %w", err)
	}
	return CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.NewString(),
		Source:          source,
		Type:            eventType,
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            raw,
	}, nil
}

// ParseData unmarshals the event payload into dest.
func (e CloudEvent) ParseData(dest interface{}) error {
	return json.Unmarshal(e.Data, dest)
}

// BookingRequestedEvent is published when a renter creates a pending booking.
type BookingRequestedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	CarID         uuid.UUID `json:"car_id"`
	OwnerID       uuid.UUID `json:"owner_id"`
	RenterID      uuid.UUID `json:"renter_id"`
	PickupDate    string    `json:"pickup_date"`
	ReturnDate    string    `json:"return_date"`
	PriceCents    int64     `json:"price_cents"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingStatusChangedEvent is published when the owner confirms or cancels
// a booking.
type BookingStatusChangedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	CarID         uuid.UUID `json:"car_id"`
	OwnerID       uuid.UUID `json:"owner_id"`
	RenterID      uuid.UUID `json:"renter_id"`
	OldStatus     string    `json:"old_status"`
	NewStatus     string    `json:"new_status"`
	OccurredAt    time.Time `json:"occurred_at"`
}
