/*
Package sqlite provides the SQLite-backed implementation of the registry's
storage interfaces.

PURPOSE:
  Implements donor.Store and donor.TxStore plus everything the HTTP layer
  needs around them: donor listing with filters and pagination, donation
  history, admin users, and the stats queries. In production the same
  patterns apply to MySQL or PostgreSQL - only minor SQL dialect
  differences.

KEY TABLES:
  users:            Admin accounts (bcrypt password hashes)
  donors:           Donor records with soft-delete flag and the two cached
                    summary fields
  donation_history: The per-donor donation ledger, FK cascade on donor

SUMMARY FIELD CONTRACT:
  date_of_last_donation and next_donation_date on donors are caches over
  donation_history. They are rewritten by UpdateDonorSummary inside the
  same transaction as the ledger mutation (see donor/ledger.go); readers
  can therefore trust them without joining the history table.

CONCURRENCY:
  Uses sync.RWMutex for in-process thread-safety on top of SQLite's own
  locking. WithTx holds the write lock for the whole transaction, so the
  per-transaction store methods are deliberately lock-free.

WAL MODE:
  SQLite is opened with WAL and foreign keys on. Cascade delete of a
  donor's history relies on _foreign_keys=on.

USAGE:
  store, err := sqlite.New("./data/registry.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := donor.NewLedger(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - donor/store.go: Interface definitions
  - donor/ledger.go: The transactional consumer
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/lostSilverfish/blood-donors-SHAH/donor"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite allows a single writer anyway, and pooling
	// would give every ":memory:" connection its own empty database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Admin accounts
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'admin',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Donors (soft-deleted via is_active; summary fields cached from ledger)
	CREATE TABLE IF NOT EXISTS donors (
		id TEXT PRIMARY KEY,
		donor_name TEXT NOT NULL,
		blood_type TEXT NOT NULL,
		contact_number TEXT NOT NULL,
		date_of_last_donation TEXT,
		next_donation_date TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_donors_blood_type
		ON donors(blood_type);
	CREATE INDEX IF NOT EXISTS idx_donors_is_active
		ON donors(is_active);
	CREATE INDEX IF NOT EXISTS idx_donors_next_donation_date
		ON donors(next_donation_date);

	-- Donation ledger (per-donor, cascade delete with the donor)
	CREATE TABLE IF NOT EXISTS donation_history (
		id TEXT PRIMARY KEY,
		donor_id TEXT NOT NULL REFERENCES donors(id) ON DELETE CASCADE,
		donation_date TEXT NOT NULL,
		blood_units TEXT NOT NULL DEFAULT '1',
		donation_center TEXT,
		notes TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_donation_history_donor
		ON donation_history(donor_id);
	CREATE INDEX IF NOT EXISTS idx_donation_history_date
		ON donation_history(donation_date);

	-- Hot path: MAX(donation_date) per donor on every ledger mutation
	CREATE INDEX IF NOT EXISTS idx_donation_history_donor_date
		ON donation_history(donor_id, donation_date DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is the subset of *sql.DB and *sql.Tx the query helpers need, so the
// same code serves both direct and in-transaction calls.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// DONOR STORE (donor.Store interface)
// =============================================================================

// GetDonor loads a donor by id, active or not. Returns (nil, nil) when the
// donor doesn't exist.
func (s *Store) GetDonor(ctx context.Context, id string) (*donor.Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getDonor(ctx, s.db, id)
}

func getDonor(ctx context.Context, db dbtx, id string) (*donor.Donor, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, donor_name, blood_type, contact_number,
		       date_of_last_donation, next_donation_date, is_active,
		       created_at, updated_at
		FROM donors WHERE id = ?
	`, id)

	d, err := scanDonor(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// GetDonation loads a donation scoped to its owning donor.
func (s *Store) GetDonation(ctx context.Context, donorID, donationID string) (*donor.DonationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getDonation(ctx, s.db, donorID, donationID)
}

func getDonation(ctx context.Context, db dbtx, donorID, donationID string) (*donor.DonationRecord, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, donor_id, donation_date, blood_units, donation_center, notes, created_at
		FROM donation_history WHERE id = ? AND donor_id = ?
	`, donationID, donorID)

	rec, err := scanDonation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// InsertDonation appends one record to the donor's ledger.
func (s *Store) InsertDonation(ctx context.Context, rec donor.DonationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return insertDonation(ctx, s.db, rec)
}

func insertDonation(ctx context.Context, db dbtx, rec donor.DonationRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO donation_history
		(id, donor_id, donation_date, blood_units, donation_center, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.DonorID,
		rec.DonationDate.Format(donor.DateLayout),
		rec.BloodUnits.String(),
		nullString(rec.Center),
		nullString(rec.Notes),
		rec.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert donation: %w", err)
	}
	return nil
}

// DeleteDonation removes one record, scoped to its owning donor.
func (s *Store) DeleteDonation(ctx context.Context, donorID, donationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return deleteDonation(ctx, s.db, donorID, donationID)
}

func deleteDonation(ctx context.Context, db dbtx, donorID, donationID string) error {
	_, err := db.ExecContext(ctx,
		"DELETE FROM donation_history WHERE id = ? AND donor_id = ?",
		donationID, donorID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete donation: %w", err)
	}
	return nil
}

// LatestDonationDate returns the maximum donation date across the donor's
// ledger, or nil when the ledger is empty.
func (s *Store) LatestDonationDate(ctx context.Context, donorID string) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return latestDonationDate(ctx, s.db, donorID)
}

func latestDonationDate(ctx context.Context, db dbtx, donorID string) (*time.Time, error) {
	var max sql.NullString
	err := db.QueryRowContext(ctx,
		"SELECT MAX(donation_date) FROM donation_history WHERE donor_id = ?",
		donorID,
	).Scan(&max)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest donation date: %w", err)
	}
	if !max.Valid {
		return nil, nil
	}

	t, err := donor.ParseDate(max.String)
	if err != nil {
		return nil, fmt.Errorf("corrupt donation date %q: %w", max.String, err)
	}
	return &t, nil
}

// UpdateDonorSummary writes both cached summary fields in one statement.
func (s *Store) UpdateDonorSummary(ctx context.Context, donorID string, last, next *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return updateDonorSummary(ctx, s.db, donorID, last, next)
}

func updateDonorSummary(ctx context.Context, db dbtx, donorID string, last, next *time.Time) error {
	_, err := db.ExecContext(ctx, `
		UPDATE donors
		SET date_of_last_donation = ?, next_donation_date = ?, updated_at = ?
		WHERE id = ?
	`,
		nullDate(last),
		nullDate(next),
		time.Now().UTC().Format(time.RFC3339),
		donorID,
	)
	if err != nil {
		return fmt.Errorf("failed to update donor summary: %w", err)
	}
	return nil
}

// =============================================================================
// TRANSACTIONAL STORE (donor.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction. The write lock
// is held for the whole transaction; the txStore methods below must stay
// lock-free.
func (s *Store) WithTx(ctx context.Context, fn func(donor.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) GetDonor(ctx context.Context, id string) (*donor.Donor, error) {
	return getDonor(ctx, ts.tx, id)
}

func (ts *txStore) GetDonation(ctx context.Context, donorID, donationID string) (*donor.DonationRecord, error) {
	return getDonation(ctx, ts.tx, donorID, donationID)
}

func (ts *txStore) InsertDonation(ctx context.Context, rec donor.DonationRecord) error {
	return insertDonation(ctx, ts.tx, rec)
}

func (ts *txStore) DeleteDonation(ctx context.Context, donorID, donationID string) error {
	return deleteDonation(ctx, ts.tx, donorID, donationID)
}

func (ts *txStore) LatestDonationDate(ctx context.Context, donorID string) (*time.Time, error) {
	return latestDonationDate(ctx, ts.tx, donorID)
}

func (ts *txStore) UpdateDonorSummary(ctx context.Context, donorID string, last, next *time.Time) error {
	return updateDonorSummary(ctx, ts.tx, donorID, last, next)
}

// =============================================================================
// DONOR CRUD (registration, update, listing)
// =============================================================================

// CreateDonor inserts a new donor record.
func (s *Store) CreateDonor(ctx context.Context, d donor.Donor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO donors
		(id, donor_name, blood_type, contact_number,
		 date_of_last_donation, next_donation_date, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		d.ID,
		d.Name,
		string(d.BloodType),
		d.ContactNumber,
		nullDate(d.LastDonation),
		nullDate(d.NextDonation),
		boolToInt(d.IsActive),
		d.CreatedAt.Format(time.RFC3339),
		d.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create donor: %w", err)
	}
	return nil
}

// DonorUpdate carries a partial donor update. Nil pointers leave fields
// untouched. SetLastDonation applies LastDonation (nil clears it) and
// rewrites next_donation_date from the eligibility rule, matching what the
// admin console sends when correcting a donor registered with pre-system
// history.
type DonorUpdate struct {
	Name            *string
	BloodType       *donor.BloodType
	ContactNumber   *string
	IsActive        *bool
	LastDonation    *time.Time
	SetLastDonation bool
}

// IsEmpty reports whether the update would touch nothing.
func (u DonorUpdate) IsEmpty() bool {
	return u.Name == nil && u.BloodType == nil && u.ContactNumber == nil &&
		u.IsActive == nil && !u.SetLastDonation
}

// UpdateDonor applies a partial update. Returns false when the donor
// doesn't exist.
func (s *Store) UpdateDonor(ctx context.Context, id string, u DonorUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := []string{}
	args := []any{}

	if u.Name != nil {
		set = append(set, "donor_name = ?")
		args = append(args, *u.Name)
	}
	if u.BloodType != nil {
		set = append(set, "blood_type = ?")
		args = append(args, string(*u.BloodType))
	}
	if u.ContactNumber != nil {
		set = append(set, "contact_number = ?")
		args = append(args, *u.ContactNumber)
	}
	if u.IsActive != nil {
		set = append(set, "is_active = ?")
		args = append(args, boolToInt(*u.IsActive))
	}
	if u.SetLastDonation {
		set = append(set, "date_of_last_donation = ?", "next_donation_date = ?")
		args = append(args, nullDate(u.LastDonation), nullDate(donor.NextEligibleDate(u.LastDonation)))
	}
	if len(set) == 0 {
		return false, nil
	}

	set = append(set, "updated_at = ?")
	args = append(args, time.Now().UTC().Format(time.RFC3339), id)

	res, err := s.db.ExecContext(ctx,
		"UPDATE donors SET "+strings.Join(set, ", ")+" WHERE id = ?",
		args...,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update donor: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeactivateDonor soft-deletes a donor. Returns false when the donor
// doesn't exist or is already inactive.
func (s *Store) DeactivateDonor(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE donors SET is_active = 0, updated_at = ? WHERE id = ? AND is_active = 1",
		time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate donor: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// FindActiveDonorByContact returns the active donor registered with the
// given contact number, or nil. Used for the duplicate-registration check.
func (s *Store) FindActiveDonorByContact(ctx context.Context, contact string) (*donor.Donor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, donor_name, blood_type, contact_number,
		       date_of_last_donation, next_donation_date, is_active,
		       created_at, updated_at
		FROM donors WHERE contact_number = ? AND is_active = 1
		LIMIT 1
	`, contact)

	d, err := scanDonor(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// DonorFilter selects and pages donors for the listing endpoints.
type DonorFilter struct {
	// Search matches donor_name or contact_number with LIKE.
	Search string

	// BloodType narrows to one blood type when non-empty.
	BloodType donor.BloodType

	// IsActive overrides the default active-only listing when non-nil.
	IsActive *bool

	// AvailableOnly keeps donors whose next_donation_date is null or on or
	// before AsOf.
	AvailableOnly bool
	AsOf          time.Time

	Page  int
	Limit int
}

// ListDonors returns one page of donors (ordered by name) plus the total
// count for the filter.
func (s *Store) ListDonors(ctx context.Context, f DonorFilter) ([]donor.Donor, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where := []string{}
	args := []any{}

	if f.IsActive != nil {
		where = append(where, "is_active = ?")
		args = append(args, boolToInt(*f.IsActive))
	} else {
		where = append(where, "is_active = 1")
	}
	if f.BloodType != "" {
		where = append(where, "blood_type = ?")
		args = append(args, string(f.BloodType))
	}
	if f.Search != "" {
		where = append(where, "(donor_name LIKE ? OR contact_number LIKE ?)")
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern)
	}
	if f.AvailableOnly {
		where = append(where, "(next_donation_date IS NULL OR next_donation_date <= ?)")
		args = append(args, f.AsOf.Format(donor.DateLayout))
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM donors WHERE "+whereClause, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count donors: %w", err)
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, donor_name, blood_type, contact_number,
		       date_of_last_donation, next_donation_date, is_active,
		       created_at, updated_at
		FROM donors WHERE `+whereClause+`
		ORDER BY donor_name ASC
		LIMIT ? OFFSET ?
	`, append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list donors: %w", err)
	}
	defer rows.Close()

	var donors []donor.Donor
	for rows.Next() {
		d, err := scanDonor(rows)
		if err != nil {
			return nil, 0, err
		}
		donors = append(donors, *d)
	}
	return donors, total, rows.Err()
}

// ListDonations returns a donor's full donation history, newest first.
func (s *Store) ListDonations(ctx context.Context, donorID string) ([]donor.DonationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, donor_id, donation_date, blood_units, donation_center, notes, created_at
		FROM donation_history WHERE donor_id = ?
		ORDER BY donation_date DESC, created_at DESC
	`, donorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list donations: %w", err)
	}
	defer rows.Close()

	var records []donor.DonationRecord
	for rows.Next() {
		rec, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// =============================================================================
// USER STORE (admin accounts)
// =============================================================================

// User is an admin account.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// CreateUser inserts a user.
func (s *Store) CreateUser(ctx context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.Role, now, now)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByUsername returns the user with the given username, or nil.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getUser(ctx, "username = ?", username)
}

// GetUserByID returns the user with the given id, or nil.
func (s *Store) GetUserByID(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getUser(ctx, "id = ?", id)
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*User, error) {
	var u User
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, role, created_at FROM users WHERE "+where,
		arg,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &u, nil
}

// UpsertUser creates the user or, when the username is taken, refreshes its
// password hash. Used by admin seeding so a forgotten password can be reset
// by restarting with new seed credentials.
func (s *Store) UpsertUser(ctx context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			password_hash = excluded.password_hash,
			updated_at = excluded.updated_at
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.Role, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// =============================================================================
// STATS
// =============================================================================

// Stats is the admin dashboard summary.
type Stats struct {
	TotalDonors        int
	ActiveDonors       int
	InactiveDonors     int
	TotalDonations     int
	ThisMonthDonations int
	AvailableDonors    int
}

// PublicStats is the reduced summary for the public landing page.
type PublicStats struct {
	TotalDonors     int
	TotalDonations  int
	AvailableDonors int
}

// AdminStats computes the dashboard counters as of now.
func (s *Store) AdminStats(ctx context.Context, now time.Time) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats

	counts := []struct {
		dest  *int
		query string
		args  []any
	}{
		{&st.TotalDonors, "SELECT COUNT(*) FROM donors", nil},
		{&st.ActiveDonors, "SELECT COUNT(*) FROM donors WHERE is_active = 1", nil},
		{&st.TotalDonations, "SELECT COUNT(*) FROM donation_history", nil},
		{&st.ThisMonthDonations,
			"SELECT COUNT(*) FROM donation_history WHERE strftime('%Y-%m', donation_date) = ?",
			[]any{now.UTC().Format("2006-01")}},
		{&st.AvailableDonors,
			"SELECT COUNT(*) FROM donors WHERE is_active = 1 AND (next_donation_date IS NULL OR next_donation_date <= ?)",
			[]any{now.UTC().Format(donor.DateLayout)}},
	}

	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dest); err != nil {
			return Stats{}, fmt.Errorf("failed to compute stats: %w", err)
		}
	}

	st.InactiveDonors = st.TotalDonors - st.ActiveDonors
	return st, nil
}

// PublicStatsAsOf computes the public counters as of now. TotalDonors here
// counts active donors only.
func (s *Store) PublicStatsAsOf(ctx context.Context, now time.Time) (PublicStats, error) {
	st, err := s.AdminStats(ctx, now)
	if err != nil {
		return PublicStats{}, err
	}
	return PublicStats{
		TotalDonors:     st.ActiveDonors,
		TotalDonations:  st.TotalDonations,
		AvailableDonors: st.AvailableDonors,
	}, nil
}

// =============================================================================
// SCANNING HELPERS
// =============================================================================

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDonor(row rowScanner) (*donor.Donor, error) {
	var (
		d            donor.Donor
		bloodType    string
		lastDonation sql.NullString
		nextDonation sql.NullString
		isActive     int
		createdAt    string
		updatedAt    string
	)

	err := row.Scan(&d.ID, &d.Name, &bloodType, &d.ContactNumber,
		&lastDonation, &nextDonation, &isActive, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	d.BloodType = donor.BloodType(bloodType)
	d.IsActive = isActive != 0
	if d.LastDonation, err = parseNullDate(lastDonation); err != nil {
		return nil, fmt.Errorf("corrupt last donation date %q: %w", lastDonation.String, err)
	}
	if d.NextDonation, err = parseNullDate(nextDonation); err != nil {
		return nil, fmt.Errorf("corrupt next donation date %q: %w", nextDonation.String, err)
	}
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &d, nil
}

func scanDonation(row rowScanner) (*donor.DonationRecord, error) {
	var (
		rec       donor.DonationRecord
		date      string
		units     string
		center    sql.NullString
		notes     sql.NullString
		createdAt string
	)

	err := row.Scan(&rec.ID, &rec.DonorID, &date, &units, &center, &notes, &createdAt)
	if err != nil {
		return nil, err
	}

	rec.DonationDate, err = donor.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("corrupt donation date %q: %w", date, err)
	}
	rec.BloodUnits, err = decimal.NewFromString(units)
	if err != nil {
		return nil, fmt.Errorf("corrupt blood units %q: %w", units, err)
	}
	rec.Center = center.String
	rec.Notes = notes.String
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &rec, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(donor.DateLayout), Valid: true}
}

func parseNullDate(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := donor.ParseDate(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
