package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lostSilverfish/blood-donors-SHAH/donor"
	"github.com/lostSilverfish/blood-donors-SHAH/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func makeDonor(id, name string, bt donor.BloodType, contact string, active bool) donor.Donor {
	now := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	return donor.Donor{
		ID:            id,
		Name:          name,
		BloodType:     bt,
		ContactNumber: contact,
		IsActive:      active,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// =============================================================================
// DONOR CRUD
// =============================================================================

func TestStore_CreateAndGetDonor(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	last := donor.NewDate(2024, time.February, 10)
	d := makeDonor("d-1", "Maya Perera", donor.OPositive, "+94771234567", true)
	d.LastDonation = &last
	d.NextDonation = donor.NextEligibleDate(&last)

	require.NoError(t, store.CreateDonor(ctx, d))

	got, err := store.GetDonor(ctx, "d-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Maya Perera", got.Name)
	assert.Equal(t, donor.OPositive, got.BloodType)
	assert.True(t, got.IsActive)
	require.NotNil(t, got.LastDonation)
	assert.Equal(t, last, *got.LastDonation)
	require.NotNil(t, got.NextDonation)
	assert.Equal(t, donor.NewDate(2024, time.May, 10), *got.NextDonation)
}

func TestStore_GetDonor_Missing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetDonor(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_UpdateDonor_Partial(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateDonor(ctx, makeDonor("d-1", "Maya Perera", donor.OPositive, "+94771234567", true)))

	name := "Maya Fernando"
	found, err := store.UpdateDonor(ctx, "d-1", sqlite.DonorUpdate{Name: &name})
	require.NoError(t, err)
	assert.True(t, found)

	got, err := store.GetDonor(ctx, "d-1")
	require.NoError(t, err)
	assert.Equal(t, "Maya Fernando", got.Name)
	// Untouched fields survive
	assert.Equal(t, donor.OPositive, got.BloodType)
	assert.Equal(t, "+94771234567", got.ContactNumber)
}

func TestStore_UpdateDonor_LastDonationRecomputesNext(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateDonor(ctx, makeDonor("d-1", "Maya Perera", donor.OPositive, "+94771234567", true)))

	last := donor.NewDate(2024, time.January, 31)
	found, err := store.UpdateDonor(ctx, "d-1", sqlite.DonorUpdate{
		LastDonation:    &last,
		SetLastDonation: true,
	})
	require.NoError(t, err)
	assert.True(t, found)

	got, err := store.GetDonor(ctx, "d-1")
	require.NoError(t, err)
	require.NotNil(t, got.NextDonation)
	assert.Equal(t, donor.NewDate(2024, time.May, 1), *got.NextDonation)

	// Explicit clear wipes both fields
	found, err = store.UpdateDonor(ctx, "d-1", sqlite.DonorUpdate{SetLastDonation: true})
	require.NoError(t, err)
	assert.True(t, found)

	got, err = store.GetDonor(ctx, "d-1")
	require.NoError(t, err)
	assert.Nil(t, got.LastDonation)
	assert.Nil(t, got.NextDonation)
}

func TestStore_UpdateDonor_Missing(t *testing.T) {
	store := newTestStore(t)

	name := "Nobody"
	found, err := store.UpdateDonor(context.Background(), "absent", sqlite.DonorUpdate{Name: &name})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_DeactivateDonor(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateDonor(ctx, makeDonor("d-1", "Maya Perera", donor.OPositive, "+94771234567", true)))

	found, err := store.DeactivateDonor(ctx, "d-1")
	require.NoError(t, err)
	assert.True(t, found)

	got, err := store.GetDonor(ctx, "d-1")
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	// Second deactivation is a no-op
	found, err = store.DeactivateDonor(ctx, "d-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_FindActiveDonorByContact(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateDonor(ctx, makeDonor("d-1", "Maya Perera", donor.OPositive, "+94771234567", true)))
	require.NoError(t, store.CreateDonor(ctx, makeDonor("d-2", "Ruwan Silva", donor.BPositive, "+94772222222", false)))

	got, err := store.FindActiveDonorByContact(ctx, "+94771234567")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "d-1", got.ID)

	// Inactive donors don't block re-registration of a number
	got, err = store.FindActiveDonorByContact(ctx, "+94772222222")
	require.NoError(t, err)
	assert.Nil(t, got)
}

// =============================================================================
// LISTING AND FILTERS
// =============================================================================

func seedListingDonors(t *testing.T, store *sqlite.Store) {
	t.Helper()
	ctx := context.Background()

	eligible := donor.NewDate(2024, time.March, 1)
	waiting := donor.NewDate(2024, time.September, 1)

	donors := []donor.Donor{
		makeDonor("d-1", "Amara Jayasuriya", donor.OPositive, "+94771111111", true),
		makeDonor("d-2", "Bimal Perera", donor.APositive, "+94772222222", true),
		makeDonor("d-3", "Chatura Silva", donor.OPositive, "+94773333333", false),
		makeDonor("d-4", "Dilani Fernando", donor.ONegative, "+94774444444", true),
	}
	donors[0].NextDonation = &eligible // past: available
	donors[1].NextDonation = &waiting  // future: still waiting
	// d-4 never donated: available

	for _, d := range donors {
		require.NoError(t, store.CreateDonor(ctx, d))
	}
}

func TestStore_ListDonors_DefaultsToActive(t *testing.T) {
	store := newTestStore(t)
	seedListingDonors(t, store)

	donors, total, err := store.ListDonors(context.Background(), sqlite.DonorFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	for _, d := range donors {
		assert.True(t, d.IsActive)
	}
}

func TestStore_ListDonors_InactiveFilter(t *testing.T) {
	store := newTestStore(t)
	seedListingDonors(t, store)

	inactive := false
	donors, total, err := store.ListDonors(context.Background(), sqlite.DonorFilter{IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, donors, 1)
	assert.Equal(t, "d-3", donors[0].ID)
}

func TestStore_ListDonors_BloodTypeAndSearch(t *testing.T) {
	store := newTestStore(t)
	seedListingDonors(t, store)
	ctx := context.Background()

	_, total, err := store.ListDonors(ctx, sqlite.DonorFilter{BloodType: donor.OPositive})
	require.NoError(t, err)
	assert.Equal(t, 1, total, "inactive O+ donor excluded")

	donors, total, err := store.ListDonors(ctx, sqlite.DonorFilter{Search: "Fernando"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, donors, 1)
	assert.Equal(t, "d-4", donors[0].ID)

	// Search also matches contact numbers
	_, total, err = store.ListDonors(ctx, sqlite.DonorFilter{Search: "9477222"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestStore_ListDonors_AvailableOnly(t *testing.T) {
	store := newTestStore(t)
	seedListingDonors(t, store)

	donors, total, err := store.ListDonors(context.Background(), sqlite.DonorFilter{
		AvailableOnly: true,
		AsOf:          donor.NewDate(2024, time.June, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	ids := []string{}
	for _, d := range donors {
		ids = append(ids, d.ID)
	}
	assert.ElementsMatch(t, []string{"d-1", "d-4"}, ids)
}

func TestStore_ListDonors_Pagination(t *testing.T) {
	store := newTestStore(t)
	seedListingDonors(t, store)
	ctx := context.Background()

	page1, total, err := store.ListDonors(ctx, sqlite.DonorFilter{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page1, 2)

	page2, _, err := store.ListDonors(ctx, sqlite.DonorFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page2, 1)

	// Name-ordered, no overlap between pages
	assert.Equal(t, "Amara Jayasuriya", page1[0].Name)
	assert.Equal(t, "Bimal Perera", page1[1].Name)
	assert.Equal(t, "Dilani Fernando", page2[0].Name)
}

// =============================================================================
// USERS
// =============================================================================

func TestStore_Users(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, sqlite.User{
		ID:           "u-1",
		Username:     "admin",
		Email:        "admin@example.com",
		PasswordHash: "hash-1",
		Role:         "admin",
	}))

	byName, err := store.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, "u-1", byName.ID)

	byID, err := store.GetUserByID(ctx, "u-1")
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "admin", byID.Username)

	missing, err := store.GetUserByUsername(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_UpsertUser_RefreshesHash(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertUser(ctx, sqlite.User{
		ID: "u-1", Username: "admin", Email: "admin@example.com",
		PasswordHash: "hash-1", Role: "admin",
	}))
	require.NoError(t, store.UpsertUser(ctx, sqlite.User{
		ID: "u-2", Username: "admin", Email: "admin@example.com",
		PasswordHash: "hash-2", Role: "admin",
	}))

	got, err := store.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u-1", got.ID, "original id kept")
	assert.Equal(t, "hash-2", got.PasswordHash, "hash refreshed")
}

// =============================================================================
// STATS
// =============================================================================

func TestStore_Stats(t *testing.T) {
	store := newTestStore(t)
	seedListingDonors(t, store)
	ctx := context.Background()

	ledger := donor.NewLedger(store)
	_, _, err := ledger.RecordDonation(ctx, "d-1", donor.DonationInput{Date: donor.NewDate(2024, time.June, 10)})
	require.NoError(t, err)
	_, _, err = ledger.RecordDonation(ctx, "d-2", donor.DonationInput{Date: donor.NewDate(2024, time.April, 2)})
	require.NoError(t, err)

	st, err := store.AdminStats(ctx, donor.NewDate(2024, time.June, 15))
	require.NoError(t, err)

	assert.Equal(t, 4, st.TotalDonors)
	assert.Equal(t, 3, st.ActiveDonors)
	assert.Equal(t, 1, st.InactiveDonors)
	assert.Equal(t, 2, st.TotalDonations)
	assert.Equal(t, 1, st.ThisMonthDonations)
	// d-4 never donated; d-1 and d-2 now wait out their three months
	assert.Equal(t, 1, st.AvailableDonors)

	pub, err := store.PublicStatsAsOf(ctx, donor.NewDate(2024, time.June, 15))
	require.NoError(t, err)
	assert.Equal(t, 3, pub.TotalDonors)
	assert.Equal(t, 2, pub.TotalDonations)
	assert.Equal(t, 1, pub.AvailableDonors)
}

// =============================================================================
// CASCADE DELETE
// =============================================================================

func TestStore_DonationHistorySurvivesDeactivation(t *testing.T) {
	// Soft delete must not touch the ledger.
	store := newTestStore(t)
	ctx := context.Background()
	seedListingDonors(t, store)

	ledger := donor.NewLedger(store)
	_, _, err := ledger.RecordDonation(ctx, "d-1", donor.DonationInput{Date: donor.NewDate(2024, time.June, 10)})
	require.NoError(t, err)

	_, err = store.DeactivateDonor(ctx, "d-1")
	require.NoError(t, err)

	records, err := store.ListDonations(ctx, "d-1")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
