package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/clinic-booking/internal/booking"
)

type BookingService interface {
	CheckAvailability(ctx context.Context, date, provider string) ([]booking.OpenSlot, error)
	Book(ctx context.Context, slotID, patient, reason string) (*booking.Booking, error)
	Cancel(ctx context.Context, confirmation string) (*booking.Booking, error)
	Reschedule(ctx context.Context, confirmation, newSlotID string) (*booking.Booking, error)
	Get(ctx context.Context, confirmation string) (*booking.Booking, error)
}

func availabilityHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		provider := r.URL.Query().Get("provider")

		open, err := svc.CheckAvailability(r.Context(), date, provider)
		msg := booking.AvailabilityMessage(date, provider, open, err)
		if err != nil {
			handleBookingError(w, err, msg)
			return
		}

		if open == nil {
			open = []booking.OpenSlot{}
		}
		writeJSON(w, http.StatusOK, AvailabilityResponse{
			Date:     date,
			Provider: provider,
			Slots:    open,
			Message:  msg,
		})
	}
}

func bookHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		b, err := svc.Book(r.Context(), req.SlotID, req.Patient, req.Reason)
		if err != nil {
			handleBookingError(w, err, booking.BookedMessage(nil, err))
			return
		}

		writeJSON(w, http.StatusCreated, BookingResponse{Booking: b, Message: booking.BookedMessage(b, nil)})
	}
}

func getBookingHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := svc.Get(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			handleBookingError(w, err, booking.BookingDetailsMessage(nil, err))
			return
		}

		writeJSON(w, http.StatusOK, BookingResponse{Booking: b, Message: booking.BookingDetailsMessage(b, nil)})
	}
}

func cancelHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		b, err := svc.Cancel(r.Context(), code)
		if err != nil {
			handleBookingError(w, err, booking.CancelledMessage(code, err))
			return
		}

		writeJSON(w, http.StatusOK, BookingResponse{Booking: b, Message: booking.CancelledMessage(b.Confirmation, nil)})
	}
}

func rescheduleHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RescheduleRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		b, err := svc.Reschedule(r.Context(), chi.URLParam(r, "code"), req.NewSlotID)
		if err != nil {
			handleBookingError(w, err, booking.RescheduledMessage(nil, err))
			return
		}

		writeJSON(w, http.StatusOK, BookingResponse{Booking: b, Message: booking.RescheduledMessage(b, nil)})
	}
}

func handleBookingError(w http.ResponseWriter, err error, msg string) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, booking.ErrInvalidSlotID):
		status, code = http.StatusBadRequest, "invalid_slot_id"
	case errors.Is(err, booking.ErrSlotUnavailable):
		status, code = http.StatusConflict, "slot_unavailable"
	case errors.Is(err, booking.ErrBookingNotFound):
		status, code = http.StatusNotFound, "appointment_not_found"
	case errors.Is(err, booking.ErrStoreBusy):
		status, code = http.StatusServiceUnavailable, "store_busy"
	}

	writeJSON(w, status, ErrorResponse{Error: code, Details: err.Error(), Message: msg})
}
