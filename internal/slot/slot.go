package slot

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// AnyProvider is the provider key implied by the legacy compact identifier.
const AnyProvider = "any"

const dateLayout = "2006-01-02"

var ErrInvalidID = errors.New("invalid slot identifier")

var (
	// date:provider:time, time may carry stray '-' or '_'
	canonicalPattern = regexp.MustCompile(`^([^:]+):([^:]+):([0-9_-]+)$`)
	// date + '-' or '_' + time, whitespace already removed
	legacyPattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})[-_]([0-9_-]+)$`)

	whitespace = regexp.MustCompile(`\s+`)

	// ':' separates identifier fields, so it can never survive into a key.
	providerSeparators = strings.NewReplacer(".", " ", ":", " ")
)

// ID is a parsed slot identifier. Time is always canonical HH:MM.
type ID struct {
	Date     string
	Provider string
	Time     string
}

// String returns the canonical caller-facing identifier.
func (id ID) String() string {
	return FormatID(id.Date, id.Provider, id.Time)
}

// Key returns the internal uniqueness key for the slot.
func (id ID) Key() string {
	return Key(id.Date, id.Provider, id.Time)
}

// Label returns the display label of the slot's provider.
func (id ID) Label() string {
	return ProviderLabel(id.Provider)
}

// NormalizeProvider turns free text into a provider key: lowercase words
// joined by single hyphens. Periods and colons separate words, so
// "Dr. Smith", "Dr: Smith" and "dr smith" share the key "dr-smith".
func NormalizeProvider(raw string) string {
	return strings.Join(strings.Fields(providerSeparators.Replace(strings.ToLower(raw))), "-")
}

// ProviderLabel is the display form of a provider key. Punctuation and
// casing of the original name are not recoverable.
func ProviderLabel(key string) string {
	// Casers carry state and are not safe to share.
	return cases.Title(language.Und).String(strings.ReplaceAll(key, "-", " "))
}

func Key(date, provider, clock string) string {
	return provider + ":" + date + ":" + clock
}

func FormatID(date, provider, clock string) string {
	return date + ":" + provider + ":" + strings.ReplaceAll(clock, ":", "")
}

// ParseID accepts either the canonical date:provider:HHMM form or the
// legacy date-HHMM form, whose provider is AnyProvider.
func ParseID(raw string) (ID, error) {
	raw = strings.TrimSpace(raw)

	var date, provider, token string
	if m := canonicalPattern.FindStringSubmatch(raw); m != nil {
		date, provider, token = m[1], NormalizeProvider(m[2]), m[3]
		if provider == "" {
			return ID{}, fmt.Errorf("%w: empty provider in %q", ErrInvalidID, raw)
		}
	} else if m := legacyPattern.FindStringSubmatch(whitespace.ReplaceAllString(raw, "")); m != nil {
		date, provider, token = m[1], AnyProvider, m[2]
	} else {
		return ID{}, fmt.Errorf("%w: unrecognised format %q", ErrInvalidID, raw)
	}

	if err := ValidateDate(date); err != nil {
		return ID{}, err
	}

	clock, err := normalizeTimeToken(token)
	if err != nil {
		return ID{}, err
	}

	return ID{Date: date, Provider: provider, Time: clock}, nil
}

// ValidateDate checks that date is a real YYYY-MM-DD calendar date.
func ValidateDate(date string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return fmt.Errorf("%w: bad date %q", ErrInvalidID, date)
	}
	return nil
}

// ParseClock normalizes HH:MM, HHMM or HMM into HH:MM.
func ParseClock(s string) (string, error) {
	return normalizeTimeToken(strings.Replace(strings.TrimSpace(s), ":", "", 1))
}

func normalizeTimeToken(token string) (string, error) {
	cleaned := strings.NewReplacer("-", "", "_", "").Replace(token)
	if len(cleaned) < 3 || len(cleaned) > 4 {
		return "", fmt.Errorf("%w: bad time %q", ErrInvalidID, token)
	}
	for i := 0; i < len(cleaned); i++ {
		if cleaned[i] < '0' || cleaned[i] > '9' {
			return "", fmt.Errorf("%w: bad time %q", ErrInvalidID, token)
		}
	}

	padded := strings.Repeat("0", 4-len(cleaned)) + cleaned
	hour, _ := strconv.Atoi(padded[:2])
	minute, _ := strconv.Atoi(padded[2:])
	if hour > 23 || minute > 59 {
		return "", fmt.Errorf("%w: time out of range %q", ErrInvalidID, token)
	}

	return padded[:2] + ":" + padded[2:], nil
}
