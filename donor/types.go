/*
Package donor provides the core domain model for the blood donor registry.

PURPOSE:
  This package contains everything the registry knows about donors and their
  donation history, independent of HTTP and storage concerns:
  - Donor: a registered person with a soft-delete flag and cached summary fields
  - DonationRecord: one entry in a donor's donation ledger
  - BloodType: the eight-value enum used for lookups
  - Eligibility calculator: pure date arithmetic for the 3-month window
  - Ledger: the transactional procedure that keeps summary fields consistent

KEY CONCEPTS IN THIS FILE (types.go):
  - Dates are calendar dates (day granularity, UTC). The storage and API
    layers format them as "2006-01-02"; this package compares them by day.
  - Blood units use decimal.Decimal so 0.5-unit donations don't accumulate
    floating-point noise.

DESIGN PRINCIPLES:
  1. Summary fields are caches: date_of_last_donation and next_donation_date
     are always re-derivable from the donation ledger. Only the Ledger
     transaction writes them after a ledger mutation.
  2. Soft delete: donors are deactivated, never physically removed. Their
     donation history survives with them.
  3. Precision: decimal.Decimal for quantities, never float64.

SEE ALSO:
  - eligibility.go: next-eligible-date calculator
  - ledger.go: transactional insert/delete with summary recompute
  - store.go: persistence interfaces
*/
package donor

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BLOOD TYPE - Eight-value enum
// =============================================================================

// BloodType is one of the eight ABO/Rh blood groups.
type BloodType string

const (
	APositive  BloodType = "A+"
	ANegative  BloodType = "A-"
	BPositive  BloodType = "B+"
	BNegative  BloodType = "B-"
	ABPositive BloodType = "AB+"
	ABNegative BloodType = "AB-"
	OPositive  BloodType = "O+"
	ONegative  BloodType = "O-"
)

// BloodTypes lists every valid blood type, in display order.
var BloodTypes = []BloodType{
	APositive, ANegative,
	BPositive, BNegative,
	ABPositive, ABNegative,
	OPositive, ONegative,
}

// ParseBloodType validates a raw string against the enum.
func ParseBloodType(s string) (BloodType, error) {
	for _, bt := range BloodTypes {
		if string(bt) == s {
			return bt, nil
		}
	}
	return "", ErrInvalidBloodType
}

// =============================================================================
// DATES - Calendar-day granularity
// =============================================================================

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// NewDate builds a calendar date at UTC midnight.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a "2006-01-02" string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// truncateToDay drops the time component, keeping the calendar date in UTC.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// DONOR
// =============================================================================

// Donor is a registered blood donor.
//
// LastDonation and NextDonation are denormalized from the donation ledger:
// LastDonation is the maximum donation date across the donor's records and
// NextDonation is NextEligibleDate(LastDonation). Both are nil for a donor
// with no recorded donations. After any ledger mutation the Ledger
// transaction rewrites them; nothing else should.
type Donor struct {
	ID            string
	Name          string
	BloodType     BloodType
	ContactNumber string
	IsActive      bool
	LastDonation  *time.Time
	NextDonation  *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// =============================================================================
// DONATION RECORD - One ledger entry
// =============================================================================

// DefaultBloodUnits is a single whole-blood donation.
var DefaultBloodUnits = decimal.NewFromInt(1)

// DonationRecord is one entry in a donor's donation ledger. Records are
// created by RecordDonation and destroyed individually by DeleteDonation;
// deleting a donor cascades to its records.
type DonationRecord struct {
	ID           string
	DonorID      string
	DonationDate time.Time
	BloodUnits   decimal.Decimal
	Center       string
	Notes        string
	CreatedAt    time.Time
}
