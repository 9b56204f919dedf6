package api

import (
	"github.com/hackgods/clinic-booking/internal/booking"
	"github.com/hackgods/clinic-booking/internal/clinicinfo"
)

type BookRequest struct {
	SlotID  string `json:"slot_id" validate:"required,max=100"`
	Patient string `json:"patient" validate:"required,max=200"`
	Reason  string `json:"reason" validate:"max=500"`
}

type RescheduleRequest struct {
	NewSlotID string `json:"new_slot_id" validate:"required,max=100"`
}

type EmiratesIDRequest struct {
	Last5Digits string `json:"last_5_digits" validate:"required"`
}

type PhoneRequest struct {
	Phone string `json:"phone" validate:"required"`
}

// Every response carries the status line a conversational client can relay
// verbatim in Message.

type AvailabilityResponse struct {
	Date     string             `json:"date"`
	Provider string             `json:"provider"`
	Slots    []booking.OpenSlot `json:"slots"`
	Message  string             `json:"message"`
}

type BookingResponse struct {
	Booking *booking.Booking `json:"booking,omitempty"`
	Message string           `json:"message"`
}

type InfoResponse struct {
	Topic   clinicinfo.Topic    `json:"topic"`
	Text    string              `json:"text"`
	Doctors []clinicinfo.Doctor `json:"doctors,omitempty"`
	Matches []string            `json:"matches,omitempty"`
}

type VerifyResponse struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Message string `json:"message,omitempty"`
}
