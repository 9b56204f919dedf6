package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hackgods/clinic-booking/internal/booking"
	"github.com/hackgods/clinic-booking/internal/clinicinfo"
	"github.com/hackgods/clinic-booking/internal/verify"
)

// errFailed marks a command whose status line was already printed.
var errFailed = errors.New("operation failed")

type serviceFactory func(ctx context.Context) (*booking.Service, func(), error)

func newRootCmd(open serviceFactory) *cobra.Command {
	root := &cobra.Command{
		Use:           "clinicctl",
		Short:         "Check availability and manage clinic appointments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	withService := func(cmd *cobra.Command, fn func(ctx context.Context, svc *booking.Service) error) error {
		svc, closeFn, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()
		return fn(cmd.Context(), svc)
	}

	root.AddCommand(availabilityCmd(withService))
	root.AddCommand(bookCmd(withService))
	root.AddCommand(cancelCmd(withService))
	root.AddCommand(rescheduleCmd(withService))
	root.AddCommand(showCmd(withService))
	root.AddCommand(infoCmd())
	root.AddCommand(verifyCmd())

	return root
}

type runner func(cmd *cobra.Command, fn func(ctx context.Context, svc *booking.Service) error) error

// report prints the status line and turns a failed operation into errFailed
// so the process exits non-zero.
func report(cmd *cobra.Command, msg string, err error) error {
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	if err != nil {
		return errFailed
	}
	return nil
}

func availabilityCmd(run runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "availability",
		Short: "List open slots for a date and provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, _ := cmd.Flags().GetString("date")
			provider, _ := cmd.Flags().GetString("provider")

			return run(cmd, func(ctx context.Context, svc *booking.Service) error {
				open, err := svc.CheckAvailability(ctx, date, provider)
				return report(cmd, booking.AvailabilityMessage(date, provider, open, err), err)
			})
		},
	}
	cmd.Flags().String("date", "", "Date as YYYY-MM-DD")
	cmd.Flags().String("provider", "", "Doctor or provider name")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func bookCmd(run runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book a slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			slotID, _ := cmd.Flags().GetString("slot")
			patient, _ := cmd.Flags().GetString("patient")
			reason, _ := cmd.Flags().GetString("reason")

			return run(cmd, func(ctx context.Context, svc *booking.Service) error {
				b, err := svc.Book(ctx, slotID, patient, reason)
				return report(cmd, booking.BookedMessage(b, err), err)
			})
		},
	}
	cmd.Flags().String("slot", "", "Slot id from an availability check")
	cmd.Flags().String("patient", "", "Patient name")
	cmd.Flags().String("reason", "", "Reason for the visit")
	_ = cmd.MarkFlagRequired("slot")
	_ = cmd.MarkFlagRequired("patient")
	return cmd
}

func cancelCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <confirmation>",
		Short: "Cancel an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, svc *booking.Service) error {
				_, err := svc.Cancel(ctx, args[0])
				return report(cmd, booking.CancelledMessage(args[0], err), err)
			})
		},
	}
}

func rescheduleCmd(run runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reschedule <confirmation>",
		Short: "Move an appointment to another slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slotID, _ := cmd.Flags().GetString("slot")

			return run(cmd, func(ctx context.Context, svc *booking.Service) error {
				b, err := svc.Reschedule(ctx, args[0], slotID)
				return report(cmd, booking.RescheduledMessage(b, err), err)
			})
		},
	}
	cmd.Flags().String("slot", "", "New slot id")
	_ = cmd.MarkFlagRequired("slot")
	return cmd
}

func showCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "show <confirmation>",
		Short: "Show an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, svc *booking.Service) error {
				b, err := svc.Get(ctx, args[0])
				return report(cmd, booking.BookingDetailsMessage(b, err), err)
			})
		},
	}
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info [question]",
		Short: "Answer questions about hours, doctors, insurance, services and location",
		RunE: func(cmd *cobra.Command, args []string) error {
			answer := clinicinfo.DefaultDirectory().Lookup(strings.Join(args, " "))
			fmt.Fprintln(cmd.OutOrStdout(), answer.Text)
			return nil
		},
	}
}

func verifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify patient identity",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "emirates-id <last 5 digits>",
		Short: "Verify the last five digits of an Emirates ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := verify.EmiratesID(args[0])
			return report(cmd, verify.EmiratesIDMessage(args[0], err), err)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "phone <number>",
		Short: "Verify a UAE phone number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := verify.Phone(args[0])
			return report(cmd, verify.PhoneMessage(args[0], err), err)
		},
	})

	return cmd
}

func logLevel(env string) zerolog.Level {
	if env == "dev" || env == "development" {
		return zerolog.InfoLevel
	}
	return zerolog.WarnLevel
}
