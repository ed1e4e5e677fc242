package donor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lostSilverfish/blood-donors-SHAH/donor"
	"github.com/lostSilverfish/blood-donors-SHAH/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger(t *testing.T) (*donor.Ledger, *sqlite.Store) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return donor.NewLedger(store), store
}

func seedDonor(t *testing.T, store *sqlite.Store, id string, active bool) {
	t.Helper()

	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	err := store.CreateDonor(context.Background(), donor.Donor{
		ID:            id,
		Name:          "Maya Perera",
		BloodType:     donor.OPositive,
		ContactNumber: "+94771234567",
		IsActive:      active,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	require.NoError(t, err)
}

func donationOn(date time.Time) donor.DonationInput {
	return donor.DonationInput{Date: date}
}

func summaryOf(t *testing.T, store *sqlite.Store, donorID string) (last, next *time.Time) {
	t.Helper()

	d, err := store.GetDonor(context.Background(), donorID)
	require.NoError(t, err)
	require.NotNil(t, d)
	return d.LastDonation, d.NextDonation
}

// =============================================================================
// RECORDING DONATIONS
// =============================================================================

func TestRecordDonation_UpdatesSummary(t *testing.T) {
	// GIVEN: An active donor with no history
	// WHEN: Recording a donation
	// THEN: Summary points at it, three months out

	ledger, store := newTestLedger(t)
	ctx := context.Background()
	seedDonor(t, store, "donor-1", true)

	rec, summary, err := ledger.RecordDonation(ctx, "donor-1", donationOn(donor.NewDate(2024, time.March, 15)))

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "donor-1", rec.DonorID)
	assert.True(t, rec.BloodUnits.Equal(decimal.NewFromInt(1)), "units default to 1")

	require.NotNil(t, summary.LastDonation)
	require.NotNil(t, summary.NextEligible)
	assert.Equal(t, donor.NewDate(2024, time.March, 15), *summary.LastDonation)
	assert.Equal(t, donor.NewDate(2024, time.June, 15), *summary.NextEligible)

	// Summary persisted on the donor row, not just returned
	last, next := summaryOf(t, store, "donor-1")
	require.NotNil(t, last)
	require.NotNil(t, next)
	assert.Equal(t, donor.NewDate(2024, time.March, 15), *last)
	assert.Equal(t, donor.NewDate(2024, time.June, 15), *next)
}

func TestRecordDonation_OutOfOrderInsert(t *testing.T) {
	// GIVEN: A donor whose latest donation is in May
	// WHEN: Back-filling an older March donation
	// THEN: The summary stays pinned to May

	ledger, store := newTestLedger(t)
	ctx := context.Background()
	seedDonor(t, store, "donor-1", true)

	_, _, err := ledger.RecordDonation(ctx, "donor-1", donationOn(donor.NewDate(2024, time.May, 20)))
	require.NoError(t, err)

	_, summary, err := ledger.RecordDonation(ctx, "donor-1", donationOn(donor.NewDate(2024, time.March, 2)))
	require.NoError(t, err)

	require.NotNil(t, summary.LastDonation)
	assert.Equal(t, donor.NewDate(2024, time.May, 20), *summary.LastDonation)
	assert.Equal(t, donor.NewDate(2024, time.August, 20), *summary.NextEligible)
}

func TestRecordDonation_KeepsExplicitUnits(t *testing.T) {
	ledger, store := newTestLedger(t)
	ctx := context.Background()
	seedDonor(t, store, "donor-1", true)

	in := donationOn(donor.NewDate(2024, time.April, 1))
	in.Units = decimal.RequireFromString("0.5")
	in.Center = "Colombo Central"
	in.Notes = "apheresis"

	rec, _, err := ledger.RecordDonation(ctx, "donor-1", in)

	require.NoError(t, err)
	assert.True(t, rec.BloodUnits.Equal(decimal.RequireFromString("0.5")))

	// Round-trips through storage
	stored, err := store.GetDonation(ctx, "donor-1", rec.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.BloodUnits.Equal(rec.BloodUnits))
	assert.Equal(t, "Colombo Central", stored.Center)
	assert.Equal(t, "apheresis", stored.Notes)
}

func TestRecordDonation_UnknownDonor(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, _, err := ledger.RecordDonation(context.Background(), "nope", donationOn(donor.NewDate(2024, time.March, 15)))

	assert.ErrorIs(t, err, donor.ErrDonorNotFound)
}

func TestRecordDonation_InactiveDonor(t *testing.T) {
	ledger, store := newTestLedger(t)
	seedDonor(t, store, "donor-1", false)

	_, _, err := ledger.RecordDonation(context.Background(), "donor-1", donationOn(donor.NewDate(2024, time.March, 15)))

	assert.ErrorIs(t, err, donor.ErrDonorInactive)
}

func TestRecordDonation_MissingDate(t *testing.T) {
	ledger, store := newTestLedger(t)
	seedDonor(t, store, "donor-1", true)

	_, _, err := ledger.RecordDonation(context.Background(), "donor-1", donor.DonationInput{})

	assert.ErrorIs(t, err, donor.ErrDonationDateRequired)
}

// =============================================================================
// DELETING DONATIONS
// =============================================================================

func TestDeleteDonation_DeletingTheMaximum(t *testing.T) {
	// GIVEN: March and May donations, summary pinned to May
	// WHEN: Deleting the May record
	// THEN: The summary falls back to March

	ledger, store := newTestLedger(t)
	ctx := context.Background()
	seedDonor(t, store, "donor-1", true)

	_, _, err := ledger.RecordDonation(ctx, "donor-1", donationOn(donor.NewDate(2024, time.March, 2)))
	require.NoError(t, err)
	mayRec, _, err := ledger.RecordDonation(ctx, "donor-1", donationOn(donor.NewDate(2024, time.May, 20)))
	require.NoError(t, err)

	summary, err := ledger.DeleteDonation(ctx, "donor-1", mayRec.ID)

	require.NoError(t, err)
	require.NotNil(t, summary.LastDonation)
	assert.Equal(t, donor.NewDate(2024, time.March, 2), *summary.LastDonation)
	assert.Equal(t, donor.NewDate(2024, time.June, 2), *summary.NextEligible)
}

func TestDeleteDonation_EmptiesLedger(t *testing.T) {
	// GIVEN: A donor with exactly one donation
	// WHEN: Deleting it
	// THEN: Both summary fields are cleared and the donor is eligible again

	ledger, store := newTestLedger(t)
	ctx := context.Background()
	seedDonor(t, store, "donor-1", true)

	rec, _, err := ledger.RecordDonation(ctx, "donor-1", donationOn(donor.NewDate(2024, time.May, 20)))
	require.NoError(t, err)

	summary, err := ledger.DeleteDonation(ctx, "donor-1", rec.ID)

	require.NoError(t, err)
	assert.Nil(t, summary.LastDonation)
	assert.Nil(t, summary.NextEligible)

	last, next := summaryOf(t, store, "donor-1")
	assert.Nil(t, last)
	assert.Nil(t, next)
}

func TestDeleteDonation_UnknownRecord(t *testing.T) {
	ledger, store := newTestLedger(t)
	seedDonor(t, store, "donor-1", true)

	_, err := ledger.DeleteDonation(context.Background(), "donor-1", "nope")

	assert.ErrorIs(t, err, donor.ErrDonationNotFound)
}

func TestDeleteDonation_ScopedToDonor(t *testing.T) {
	// A donation id belonging to another donor must not be deletable
	// through the wrong donor's URL.

	ledger, store := newTestLedger(t)
	ctx := context.Background()
	seedDonor(t, store, "donor-1", true)
	seedDonor2 := func() {
		now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, store.CreateDonor(ctx, donor.Donor{
			ID:            "donor-2",
			Name:          "Ruwan Silva",
			BloodType:     donor.ABNegative,
			ContactNumber: "+94770000000",
			IsActive:      true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}))
	}
	seedDonor2()

	rec, _, err := ledger.RecordDonation(ctx, "donor-1", donationOn(donor.NewDate(2024, time.May, 20)))
	require.NoError(t, err)

	_, err = ledger.DeleteDonation(ctx, "donor-2", rec.ID)

	assert.ErrorIs(t, err, donor.ErrDonationNotFound)

	// donor-1's record survived
	stored, err := store.GetDonation(ctx, "donor-1", rec.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored)
}

// =============================================================================
// IDEMPOTENT RECOMPUTATION
// =============================================================================

func TestSummary_RecordThenDeleteIsIdentity(t *testing.T) {
	// Recording a donation and deleting it again must leave the donor
	// row exactly where it started.

	ledger, store := newTestLedger(t)
	ctx := context.Background()
	seedDonor(t, store, "donor-1", true)

	_, _, err := ledger.RecordDonation(ctx, "donor-1", donationOn(donor.NewDate(2024, time.March, 2)))
	require.NoError(t, err)

	before, beforeNext := summaryOf(t, store, "donor-1")

	rec, _, err := ledger.RecordDonation(ctx, "donor-1", donationOn(donor.NewDate(2024, time.January, 10)))
	require.NoError(t, err)
	_, err = ledger.DeleteDonation(ctx, "donor-1", rec.ID)
	require.NoError(t, err)

	after, afterNext := summaryOf(t, store, "donor-1")
	assert.Equal(t, before, after)
	assert.Equal(t, beforeNext, afterNext)
}

// =============================================================================
// ATOMICITY
// =============================================================================

// faultyStore delegates to a real sqlite store but fails the summary write,
// exercising the rollback path from inside a live transaction.
type faultyStore struct {
	*sqlite.Store
}

var errDiskFull = errors.New("disk full")

func (f *faultyStore) WithTx(ctx context.Context, fn func(donor.Store) error) error {
	return f.Store.WithTx(ctx, func(s donor.Store) error {
		return fn(&faultyTxStore{Store: s})
	})
}

type faultyTxStore struct {
	donor.Store
}

func (f *faultyTxStore) UpdateDonorSummary(ctx context.Context, donorID string, last, next *time.Time) error {
	return errDiskFull
}

func TestRecordDonation_AtomicUnderFailure(t *testing.T) {
	// GIVEN: A store whose summary write always fails
	// WHEN: Recording a donation
	// THEN: The whole transaction rolls back, the history gains nothing,
	//       and the error carries the transaction-failure sentinel

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	seedDonor(t, store, "donor-1", true)

	ledger := donor.NewLedger(&faultyStore{Store: store})
	ctx := context.Background()

	_, _, err = ledger.RecordDonation(ctx, "donor-1", donationOn(donor.NewDate(2024, time.March, 15)))

	require.Error(t, err)
	assert.ErrorIs(t, err, donor.ErrTransactionFailed)

	// No orphan row in the history
	records, err := store.ListDonations(ctx, "donor-1")
	require.NoError(t, err)
	assert.Empty(t, records)

	// Donor summary untouched
	last, next := summaryOf(t, store, "donor-1")
	assert.Nil(t, last)
	assert.Nil(t, next)
}

func TestDeleteDonation_AtomicUnderFailure(t *testing.T) {
	// GIVEN: A recorded donation, then a store whose summary write fails
	// WHEN: Deleting the donation
	// THEN: The record survives and the summary still points at it

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	seedDonor(t, store, "donor-1", true)

	healthy := donor.NewLedger(store)
	ctx := context.Background()

	rec, _, err := healthy.RecordDonation(ctx, "donor-1", donationOn(donor.NewDate(2024, time.May, 20)))
	require.NoError(t, err)

	faulty := donor.NewLedger(&faultyStore{Store: store})
	_, err = faulty.DeleteDonation(ctx, "donor-1", rec.ID)

	require.Error(t, err)
	assert.ErrorIs(t, err, donor.ErrTransactionFailed)

	stored, err := store.GetDonation(ctx, "donor-1", rec.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored, "record must survive the rolled-back delete")

	last, _ := summaryOf(t, store, "donor-1")
	require.NotNil(t, last)
	assert.Equal(t, donor.NewDate(2024, time.May, 20), *last)
}
