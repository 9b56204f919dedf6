package booking

import (
	"time"

	"github.com/hackgods/clinic-booking/internal/store"
)

const (
	EventBookingCreated     = "BOOKING_CREATED"
	EventBookingCancelled   = "BOOKING_CANCELLED"
	EventBookingRescheduled = "BOOKING_RESCHEDULED"
)

// DefaultDailySlots is the schedule template used when none is configured.
var DefaultDailySlots = []string{"09:00", "14:00", "16:30"}

// DefaultProvider stands in for an empty provider name in availability checks.
const DefaultProvider = "clinic"

type Booking struct {
	Confirmation string `json:"confirmation"`
	Patient      string `json:"patient"`
	Reason       string `json:"reason"`
	SlotID       string `json:"slot_id"`
	SlotKey      string `json:"slot_key"`
	Doctor       string `json:"doctor"`
	Date         string `json:"date"`
	Time         string `json:"time"`
}

func fromRecord(confirmation string, rec store.Record) *Booking {
	return &Booking{
		Confirmation: confirmation,
		Patient:      rec.Patient,
		Reason:       rec.Reason,
		SlotID:       rec.SlotID,
		SlotKey:      rec.SlotKey,
		Doctor:       rec.Doctor,
		Date:         rec.Date,
		Time:         rec.Time,
	}
}

// OpenSlot is a bookable slot returned by an availability check.
type OpenSlot struct {
	SlotID string `json:"slot_id"`
	Time   string `json:"time"`
}

type Event struct {
	ID           int64
	EventType    string
	Confirmation string
	Payload      []byte
	CreatedAt    time.Time
}
