package booking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hackgods/clinic-booking/internal/slot"
)

// Status line markers. Conversational callers tell outcomes apart by the
// leading glyph.
const (
	SuccessMark = "✓"
	FailureMark = "✕"
)

func AvailabilityMessage(date, provider string, open []OpenSlot, err error) string {
	if errors.Is(err, ErrInvalidSlotID) {
		return fmt.Sprintf("%s Invalid date %q. Please use the YYYY-MM-DD format.", FailureMark, date)
	}
	if err != nil {
		return failure(err, "slot")
	}

	key := slot.NormalizeProvider(provider)
	if key == "" {
		key = DefaultProvider
	}
	label := slot.ProviderLabel(key)

	if len(open) == 0 {
		return fmt.Sprintf("%s No open slots for %s on %s.", FailureMark, label, date)
	}

	parts := make([]string, 0, len(open))
	for _, o := range open {
		parts = append(parts, fmt.Sprintf("%s (slot %s)", o.Time, o.SlotID))
	}
	return fmt.Sprintf("%s Available slots for %s on %s: %s", SuccessMark, label, date, strings.Join(parts, ", "))
}

func BookedMessage(b *Booking, err error) string {
	if err != nil {
		return failure(err, "slot")
	}
	return fmt.Sprintf("%s Appointment booked for %s with %s on %s at %s. Confirmation: %s",
		SuccessMark, b.Patient, b.Doctor, b.Date, b.Time, b.Confirmation)
}

func CancelledMessage(confirmation string, err error) string {
	if err != nil {
		return failure(err, "slot")
	}
	return fmt.Sprintf("%s Appointment %s cancelled successfully.", SuccessMark, confirmation)
}

func RescheduledMessage(b *Booking, err error) string {
	if err != nil {
		return failure(err, "new slot")
	}
	return fmt.Sprintf("%s Appointment %s rescheduled to %s at %s.", SuccessMark, b.Confirmation, b.Date, b.Time)
}

func BookingDetailsMessage(b *Booking, err error) string {
	if err != nil {
		return failure(err, "slot")
	}
	return fmt.Sprintf("%s Appointment %s: %s with %s on %s at %s (%s).",
		SuccessMark, b.Confirmation, b.Patient, b.Doctor, b.Date, b.Time, b.Reason)
}

func failure(err error, what string) string {
	switch {
	case errors.Is(err, ErrInvalidSlotID):
		return fmt.Sprintf("%s Invalid %s identifier. Please use the provided slot id format.", FailureMark, what)
	case errors.Is(err, ErrSlotUnavailable):
		return fmt.Sprintf("%s That %s is no longer available. Please choose another time.", FailureMark, what)
	case errors.Is(err, ErrBookingNotFound):
		return FailureMark + " Appointment not found."
	case errors.Is(err, ErrStoreBusy):
		return FailureMark + " The booking system is busy. Please try again in a moment."
	default:
		return FailureMark + " Something went wrong while handling the appointment. Please try again."
	}
}
