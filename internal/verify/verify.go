// Package verify performs the patient identity checks that precede booking.
package verify

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidEmiratesID  = errors.New("emirates id must be exactly 5 digits")
	ErrEmiratesIDNotFound = errors.New("emirates id not found")
	ErrInvalidPhone       = errors.New("invalid UAE phone number")
)

const (
	uaePrefix      = "+971"
	minPhoneLength = 12

	// unknownEmiratesID is the only suffix the mock registry does not know.
	unknownEmiratesID = "00000"
)

// EmiratesID checks the last five digits of an Emirates ID.
func EmiratesID(last5 string) error {
	last5 = strings.TrimSpace(last5)
	if len(last5) != 5 {
		return ErrInvalidEmiratesID
	}
	for _, r := range last5 {
		if r < '0' || r > '9' {
			return ErrInvalidEmiratesID
		}
	}
	if last5 == unknownEmiratesID {
		return ErrEmiratesIDNotFound
	}
	return nil
}

// Phone checks that number is a UAE number with country code.
func Phone(number string) error {
	number = strings.TrimSpace(number)
	if !strings.HasPrefix(number, uaePrefix) || len(number) < minPhoneLength {
		return ErrInvalidPhone
	}
	return nil
}

func EmiratesIDMessage(last5 string, err error) string {
	switch {
	case err == nil:
		return fmt.Sprintf("✓ Emirates ID verified (ending in %s)", strings.TrimSpace(last5))
	case errors.Is(err, ErrEmiratesIDNotFound):
		return "✕ Emirates ID not found in system. Please verify and try again."
	default:
		return "✕ Invalid format. Please provide exactly 5 digits."
	}
}

func PhoneMessage(number string, err error) string {
	if err != nil {
		return "✕ Invalid UAE phone number. Format: +971XXXXXXXXX"
	}
	return fmt.Sprintf("✓ Phone number %s verified. SMS confirmation will be sent.", strings.TrimSpace(number))
}
