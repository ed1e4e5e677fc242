/*
ledger.go - Transactional donation ledger

PURPOSE:
  The Ledger keeps the donor's cached summary fields (date of last
  donation, next eligible date) exactly consistent with the donor's
  donation history after every ledger mutation, and does so atomically
  with the mutation itself.

CRITICAL INVARIANT:
  After any successful RecordDonation or DeleteDonation:
    donor.LastDonation == MAX(donation_date) over the remaining ledger
                          (nil when the ledger is empty)
    donor.NextDonation == NextEligibleDate(donor.LastDonation)

WHY RECOMPUTE FROM THE FULL LEDGER?
  Records are inserted and deleted out of chronological order - a donor's
  history is append-only by insertion, not by date. An entry backdated
  before the current maximum must not move the summary, and deleting the
  maximum must fall back to the next-latest entry. The MAX query over the
  remaining ledger is therefore the single source of truth on every
  mutation; there is no incremental running-max shortcut to get wrong.

FAILURE SEMANTICS:
  Any storage error inside the transaction body rolls the whole thing
  back - ledger mutation and summary update stand or fall together - and
  surfaces as ErrTransactionFailed. Domain refusals (missing donor,
  deactivated donor, missing donation) pass through unwrapped. The core
  never retries; the caller decides.

CONCURRENCY:
  The database transaction boundary is the concurrency contract. Two
  concurrent mutations on the same donor serialize in either order, and
  because each re-queries the ledger inside its own transaction, whichever
  commits last still writes a summary consistent with what it sees.

SEE ALSO:
  - eligibility.go: the derivation rule for the next-eligible field
  - store.go: the transactional store interface
  - ledger_test.go: the invariant exercised exhaustively
*/
package donor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// SUMMARY - The pair of cached donor fields the ledger maintains
// =============================================================================

// Summary is the recomputed (date_of_last_donation, next_donation_date)
// pair returned by every ledger mutation. Both fields are nil when the
// donor's ledger is empty.
type Summary struct {
	LastDonation *time.Time
	NextEligible *time.Time
}

// =============================================================================
// LEDGER
// =============================================================================

// Ledger performs donation inserts and deletes transactionally, recomputing
// the owning donor's summary fields inside the same database transaction.
type Ledger struct {
	store TxStore
}

// NewLedger creates a Ledger over a transactional store.
func NewLedger(store TxStore) *Ledger {
	return &Ledger{store: store}
}

// DonationInput carries the caller-supplied fields for a new donation.
// Units defaults to one whole-blood unit when zero. No date validity check
// beyond presence is enforced at this layer; the API boundary decides
// whether future-dating is allowed.
type DonationInput struct {
	Date   time.Time
	Units  decimal.Decimal
	Center string
	Notes  string
}

// RecordDonation appends a donation to the donor's ledger and recomputes
// the summary fields, all inside one transaction. The donor must exist and
// be active. Returns the created record and the recomputed summary.
func (l *Ledger) RecordDonation(ctx context.Context, donorID string, in DonationInput) (*DonationRecord, Summary, error) {
	if in.Date.IsZero() {
		return nil, Summary{}, ErrDonationDateRequired
	}

	units := in.Units
	if units.IsZero() {
		units = DefaultBloodUnits
	}

	rec := DonationRecord{
		ID:           uuid.NewString(),
		DonorID:      donorID,
		DonationDate: truncateToDay(in.Date),
		BloodUnits:   units,
		Center:       in.Center,
		Notes:        in.Notes,
		CreatedAt:    time.Now().UTC(),
	}

	var summary Summary
	err := l.store.WithTx(ctx, func(s Store) error {
		d, err := s.GetDonor(ctx, donorID)
		if err != nil {
			return err
		}
		if d == nil {
			return ErrDonorNotFound
		}
		if !d.IsActive {
			return ErrDonorInactive
		}

		if err := s.InsertDonation(ctx, rec); err != nil {
			return err
		}

		summary, err = recomputeSummary(ctx, s, donorID)
		return err
	})
	if err != nil {
		return nil, Summary{}, wrapTxErr(err)
	}

	return &rec, summary, nil
}

// DeleteDonation removes one donation from the donor's ledger and
// recomputes the summary fields, all inside one transaction. The donation
// must exist and belong to the stated donor. Returns the recomputed
// summary, which has both fields nil when the last record was deleted.
func (l *Ledger) DeleteDonation(ctx context.Context, donorID, donationID string) (Summary, error) {
	var summary Summary
	err := l.store.WithTx(ctx, func(s Store) error {
		rec, err := s.GetDonation(ctx, donorID, donationID)
		if err != nil {
			return err
		}
		if rec == nil {
			return ErrDonationNotFound
		}

		if err := s.DeleteDonation(ctx, donorID, donationID); err != nil {
			return err
		}

		summary, err = recomputeSummary(ctx, s, donorID)
		return err
	})
	if err != nil {
		return Summary{}, wrapTxErr(err)
	}

	return summary, nil
}

// recomputeSummary re-derives both summary fields from the donor's current
// ledger and persists them. Running it against an unchanged ledger writes
// the identical values, so it is safe to call after every mutation.
func recomputeSummary(ctx context.Context, s Store, donorID string) (Summary, error) {
	last, err := s.LatestDonationDate(ctx, donorID)
	if err != nil {
		return Summary{}, err
	}

	next := NextEligibleDate(last)
	if err := s.UpdateDonorSummary(ctx, donorID, last, next); err != nil {
		return Summary{}, err
	}

	return Summary{LastDonation: last, NextEligible: next}, nil
}

// wrapTxErr lets domain refusals through untouched and folds everything
// else (constraint violations, connectivity loss) into the single opaque
// transaction-failure error the caller is promised.
func wrapTxErr(err error) error {
	if err == nil {
		return nil
	}
	if IsClientError(err) {
		return err
	}
	return &txError{cause: err}
}

type txError struct {
	cause error
}

func (e *txError) Error() string {
	return ErrTransactionFailed.Error() + ": " + e.cause.Error()
}

func (e *txError) Unwrap() error {
	return ErrTransactionFailed
}
