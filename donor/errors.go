/*
errors.go - Centralized error types for the donor domain

PURPOSE:
  All domain errors in one place for consistency and discoverability.
  The HTTP layer maps these to status codes with errors.Is.

ERROR CATEGORIES:
  1. Not-found errors - referenced donor/donation doesn't exist
  2. Refusal errors - the record exists but the operation is not allowed
  3. Transaction errors - the atomic mutate-then-recompute sequence failed

USAGE:
    if errors.Is(err, donor.ErrDonorNotFound) {
        // 404
    }

SEE ALSO:
  - ledger.go: produces these errors
  - api/handlers.go: maps them to HTTP responses
*/
package donor

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDonorNotFound is returned when a referenced donor doesn't exist.
	ErrDonorNotFound = errors.New("donor not found")

	// ErrDonationNotFound is returned when a donation record doesn't exist
	// or doesn't belong to the stated donor.
	ErrDonationNotFound = errors.New("donation not found")

	// ErrDonorInactive is returned when recording a donation for a
	// soft-deleted donor. Deactivated donors keep their history but
	// cannot accrue new entries.
	ErrDonorInactive = errors.New("donor is deactivated")

	// ErrDuplicateContact is returned when registering a donor whose
	// contact number already belongs to an active donor.
	ErrDuplicateContact = errors.New("contact number already registered")

	// ErrInvalidBloodType is returned for strings outside the 8-value enum.
	ErrInvalidBloodType = errors.New("invalid blood type")

	// ErrDonationDateRequired is returned when recording a donation
	// without a date. The date is the only field this layer requires.
	ErrDonationDateRequired = errors.New("donation date is required")

	// ErrTransactionFailed wraps any storage error inside the atomic
	// mutate-then-recompute sequence. The transaction has been rolled
	// back; no partial state was persisted. The core never retries.
	ErrTransactionFailed = errors.New("donation transaction failed")
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDonorNotFound) || errors.Is(err, ErrDonationNotFound)
}

// IsClientError returns true if the error is due to invalid client input
// rather than a server-side failure.
func IsClientError(err error) bool {
	return IsNotFound(err) ||
		errors.Is(err, ErrDonorInactive) ||
		errors.Is(err, ErrDuplicateContact) ||
		errors.Is(err, ErrInvalidBloodType) ||
		errors.Is(err, ErrDonationDateRequired)
}
