/*
store.go - Persistence interfaces for the donation ledger transaction

PURPOSE:
  Defines the narrow interface between the Ledger and the database.
  Only the operations the transactional insert/delete-then-recompute
  sequence needs live here; listing, filtering, stats, and user
  persistence are concerns of the concrete store.

TRANSACTIONAL CONTRACT:
  TxStore.WithTx runs a function against a Store bound to one database
  transaction. If the function returns an error the transaction is rolled
  back; otherwise it is committed. The Ledger performs its whole
  mutate-then-recompute sequence inside a single WithTx call so no reader
  ever observes a ledger/summary mismatch.

IMPLEMENTATIONS:
  - store/sqlite: production store (also used in-memory by tests)

SEE ALSO:
  - ledger.go: the only consumer of these interfaces
  - store/sqlite/sqlite.go: concrete implementation
*/
package donor

import (
	"context"
	"time"
)

// Store is the persistence surface the ledger transaction operates on.
// Lookup methods return (nil, nil) when the record doesn't exist.
type Store interface {
	// GetDonor loads a donor by id, active or not.
	GetDonor(ctx context.Context, id string) (*Donor, error)

	// GetDonation loads a donation scoped to its owning donor. A donation
	// id that exists under a different donor is (nil, nil).
	GetDonation(ctx context.Context, donorID, donationID string) (*DonationRecord, error)

	// InsertDonation appends one record to the donor's ledger.
	InsertDonation(ctx context.Context, rec DonationRecord) error

	// DeleteDonation removes one record, scoped to its owning donor.
	DeleteDonation(ctx context.Context, donorID, donationID string) error

	// LatestDonationDate returns the maximum donation date across ALL of
	// the donor's remaining ledger entries, or nil for an empty ledger.
	LatestDonationDate(ctx context.Context, donorID string) (*time.Time, error)

	// UpdateDonorSummary writes both cached summary fields in one
	// statement. Nil pointers clear the fields.
	UpdateDonorSummary(ctx context.Context, donorID string, last, next *time.Time) error
}

// TxStore wraps Store with transaction support.
// If fn returns an error the transaction is rolled back on every exit
// path, including panics; if fn returns nil it is committed.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
}
