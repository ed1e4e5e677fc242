/*
handlers.go - HTTP API handlers for the blood donor registry

PURPOSE:
  Exposes the donor registry via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Donor directory (public):
    GET    /api/donors                     List donors (search/filter/paged)
    GET    /api/donors/{id}                Donor details + donation history
    GET    /api/donors/{id}/donations      Donation history alone
    GET    /api/donors/blood-type/{type}   Donors of one blood type
    GET    /api/donors/public-stats        Public counters

  Donor management (admin):
    POST   /api/donors                     Register donor
    PUT    /api/donors/{id}                Update donor (partial)
    DELETE /api/donors/{id}                Deactivate donor (soft delete)
    GET    /api/donors/stats               Dashboard counters

  Ledger (admin):
    POST   /api/donors/{id}/donation                 Record donation
    DELETE /api/donors/{id}/donation/{donationId}    Delete donation

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access
  - Ledger: Transactional donation recording
  - Tokens: JWT issue/validate (see auth.go)

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (ledger, store)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: Missing/invalid token
  - 404: Donor or donation not found
  - 409: Conflict (duplicate contact, inactive donor)
  - 500: Internal errors, failed transactions

SEE ALSO:
  - dto.go: Request/response data structures
  - auth.go: Login handler and bearer middleware
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lostSilverfish/blood-donors-SHAH/auth"
	"github.com/lostSilverfish/blood-donors-SHAH/donor"
	"github.com/lostSilverfish/blood-donors-SHAH/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Ledger *donor.Ledger
	Tokens *auth.TokenService

	// now is swappable for tests; defaults to time.Now.
	now func() time.Time
}

// NewHandler creates a new handler with the given store and token service.
func NewHandler(store *sqlite.Store, tokens *auth.TokenService) *Handler {
	return &Handler{
		Store:  store,
		Ledger: donor.NewLedger(store),
		Tokens: tokens,
		now:    time.Now,
	}
}

// =============================================================================
// INPUT VALIDATION
// =============================================================================

var contactPattern = regexp.MustCompile(`^\+?[1-9][0-9]{0,15}$`)

// maxBloodUnits caps one donation; whole blood draws are ~0.5 units and
// apheresis at most 2, so anything near this is a data-entry error.
var maxBloodUnits = decimal.NewFromInt(10)

func validateDonorName(name string) error {
	n := len(strings.TrimSpace(name))
	if n < 2 || n > 100 {
		return fmt.Errorf("donor_name must be 2-100 characters")
	}
	return nil
}

func validateContactNumber(contact string) error {
	if !contactPattern.MatchString(contact) {
		return fmt.Errorf("contact_number must be a valid phone number")
	}
	return nil
}

// parsePastDate parses a YYYY-MM-DD date and rejects dates after today.
func parsePastDate(field, value string, now time.Time) (time.Time, error) {
	t, err := donor.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a valid date (use YYYY-MM-DD)", field)
	}
	if t.After(now) {
		return time.Time{}, fmt.Errorf("%s cannot be in the future", field)
	}
	return t, nil
}

func parseBloodUnits(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Decimal{}, nil
	}
	units, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("blood_units must be a decimal number")
	}
	if units.LessThanOrEqual(decimal.Zero) || units.GreaterThan(maxBloodUnits) {
		return decimal.Decimal{}, fmt.Errorf("blood_units must be between 0 and %s", maxBloodUnits)
	}
	return units, nil
}

// =============================================================================
// DONOR HANDLERS
// =============================================================================

// ListDonors returns a filtered, paged donor listing.
// GET /api/donors?search=&blood_type=&is_active=&available_only=&page=&limit=
func (h *Handler) ListDonors(w http.ResponseWriter, r *http.Request) {
	f, err := h.parseDonorFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	donors, total, err := h.Store.ListDonors(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list donors", err)
		return
	}

	writeJSON(w, http.StatusOK, DonorListDTO{
		Donors:     toDonorDTOs(donors, h.now()),
		Pagination: paginationFor(f.Page, f.Limit, total),
	})
}

// ListDonorsByBloodType returns active donors of one blood type.
// GET /api/donors/blood-type/{bloodType}?available_only=
func (h *Handler) ListDonorsByBloodType(w http.ResponseWriter, r *http.Request) {
	bt, err := donor.ParseBloodType(chi.URLParam(r, "bloodType"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	f, err := h.parseDonorFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	f.BloodType = bt
	f.IsActive = nil // blood type search is always active-only

	donors, total, err := h.Store.ListDonors(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list donors", err)
		return
	}

	writeJSON(w, http.StatusOK, DonorListDTO{
		Donors:     toDonorDTOs(donors, h.now()),
		Pagination: paginationFor(f.Page, f.Limit, total),
	})
}

func (h *Handler) parseDonorFilter(r *http.Request) (sqlite.DonorFilter, error) {
	q := r.URL.Query()
	f := sqlite.DonorFilter{
		Search: strings.TrimSpace(q.Get("search")),
		Page:   1,
		Limit:  10,
	}

	if v := q.Get("blood_type"); v != "" {
		bt, err := donor.ParseBloodType(v)
		if err != nil {
			return f, err
		}
		f.BloodType = bt
	}
	if v := q.Get("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("is_active must be true or false")
		}
		f.IsActive = &active
	}
	if v := q.Get("available_only"); v != "" {
		avail, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("available_only must be true or false")
		}
		f.AvailableOnly = avail
		f.AsOf = h.now()
	}
	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return f, fmt.Errorf("page must be a positive integer")
		}
		f.Page = page
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > 100 {
			return f, fmt.Errorf("limit must be between 1 and 100")
		}
		f.Limit = limit
	}
	return f, nil
}

func paginationFor(page, limit, total int) PaginationDTO {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return PaginationDTO{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

// GetDonor returns a single donor with their full donation history.
// GET /api/donors/{id}
func (h *Handler) GetDonor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	d, err := h.Store.GetDonor(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get donor", err)
		return
	}
	if d == nil {
		writeError(w, http.StatusNotFound, "Donor not found", nil)
		return
	}

	history, err := h.Store.ListDonations(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load donation history", err)
		return
	}

	writeJSON(w, http.StatusOK, DonorDetailDTO{
		Donor:           toDonorDTO(*d, h.now()),
		DonationHistory: toDonationDTOs(history),
	})
}

// CreateDonor registers a new donor.
// POST /api/donors
func (h *Handler) CreateDonor(w http.ResponseWriter, r *http.Request) {
	var req CreateDonorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	req.DonorName = strings.TrimSpace(req.DonorName)
	if err := validateDonorName(req.DonorName); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	bt, err := donor.ParseBloodType(req.BloodType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := validateContactNumber(req.ContactNumber); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	var last *time.Time
	if req.DateOfLastDonation != nil && *req.DateOfLastDonation != "" {
		t, err := parsePastDate("date_of_last_donation", *req.DateOfLastDonation, h.now())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		last = &t
	}

	existing, err := h.Store.FindActiveDonorByContact(r.Context(), req.ContactNumber)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check contact number", err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "An active donor with this contact number already exists", donor.ErrDuplicateContact)
		return
	}

	now := h.now().UTC()
	d := donor.Donor{
		ID:            uuid.NewString(),
		Name:          req.DonorName,
		BloodType:     bt,
		ContactNumber: req.ContactNumber,
		LastDonation:  last,
		NextDonation:  donor.NextEligibleDate(last),
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.Store.CreateDonor(r.Context(), d); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create donor", err)
		return
	}

	writeJSON(w, http.StatusCreated, toDonorDTO(d, h.now()))
}

// UpdateDonor partially updates a donor.
// PUT /api/donors/{id}
func (h *Handler) UpdateDonor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req, err := decodeUpdateDonorRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	upd := sqlite.DonorUpdate{IsActive: req.IsActive}

	if req.DonorName != nil {
		name := strings.TrimSpace(*req.DonorName)
		if err := validateDonorName(name); err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		upd.Name = &name
	}
	if req.BloodType != nil {
		bt, err := donor.ParseBloodType(*req.BloodType)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		upd.BloodType = &bt
	}
	if req.ContactNumber != nil {
		if err := validateContactNumber(*req.ContactNumber); err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		existing, err := h.Store.FindActiveDonorByContact(r.Context(), *req.ContactNumber)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to check contact number", err)
			return
		}
		if existing != nil && existing.ID != id {
			writeError(w, http.StatusConflict, "An active donor with this contact number already exists", donor.ErrDuplicateContact)
			return
		}
		upd.ContactNumber = req.ContactNumber
	}
	if req.HasLastDonation {
		upd.SetLastDonation = true
		if req.DateOfLastDonation != nil && *req.DateOfLastDonation != "" {
			t, err := parsePastDate("date_of_last_donation", *req.DateOfLastDonation, h.now())
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error(), nil)
				return
			}
			upd.LastDonation = &t
		}
	}

	if upd.IsEmpty() {
		writeError(w, http.StatusBadRequest, "At least one field must be provided", nil)
		return
	}

	found, err := h.Store.UpdateDonor(r.Context(), id, upd)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update donor", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Donor not found", nil)
		return
	}

	d, err := h.Store.GetDonor(r.Context(), id)
	if err != nil || d == nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload donor", err)
		return
	}
	writeJSON(w, http.StatusOK, toDonorDTO(*d, h.now()))
}

// decodeUpdateDonorRequest decodes the body twice: once into a raw map to
// learn which keys were present, once into the typed request. Needed so an
// explicit "date_of_last_donation": null clears the date instead of being
// ignored.
func decodeUpdateDonorRequest(r *http.Request) (UpdateDonorRequest, error) {
	var req UpdateDonorRequest

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return req, err
	}
	blob, err := json.Marshal(raw)
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(blob, &req); err != nil {
		return req, err
	}
	_, req.HasLastDonation = raw["date_of_last_donation"]
	return req, nil
}

// DeactivateDonor soft-deletes a donor. The donation history is kept.
// DELETE /api/donors/{id}
func (h *Handler) DeactivateDonor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	found, err := h.Store.DeactivateDonor(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to deactivate donor", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Donor not found", nil)
		return
	}

	writeMessage(w, http.StatusOK, "Donor deactivated")
}

// =============================================================================
// DONATION HANDLERS
// =============================================================================

// ListDonations returns a donor's donation history, newest first.
// GET /api/donors/{id}/donations
func (h *Handler) ListDonations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	d, err := h.Store.GetDonor(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get donor", err)
		return
	}
	if d == nil {
		writeError(w, http.StatusNotFound, "Donor not found", nil)
		return
	}

	records, err := h.Store.ListDonations(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list donations", err)
		return
	}

	writeJSON(w, http.StatusOK, toDonationDTOs(records))
}

// RecordDonation appends a donation to the donor's history and refreshes
// the donor's last/next donation dates, atomically.
// POST /api/donors/{id}/donation
func (h *Handler) RecordDonation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req RecordDonationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.DonationDate == "" {
		writeError(w, http.StatusBadRequest, "donation_date is required", nil)
		return
	}
	date, err := parsePastDate("donation_date", req.DonationDate, h.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	units, err := parseBloodUnits(req.BloodUnits)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	rec, summary, err := h.Ledger.RecordDonation(r.Context(), id, donor.DonationInput{
		Date:   date,
		Units:  units,
		Center: strings.TrimSpace(req.DonationCenter),
		Notes:  strings.TrimSpace(req.Notes),
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	dto := toDonationDTO(*rec)
	writeJSON(w, http.StatusCreated, DonationResultDTO{
		Donation:     &dto,
		LastDonation: dateStr(summary.LastDonation),
		NextDonation: dateStr(summary.NextEligible),
	})
}

// DeleteDonation removes a donation and refreshes the donor's summary
// from the remaining history, atomically.
// DELETE /api/donors/{id}/donation/{donationId}
func (h *Handler) DeleteDonation(w http.ResponseWriter, r *http.Request) {
	donorID := chi.URLParam(r, "id")
	donationID := chi.URLParam(r, "donationId")

	summary, err := h.Ledger.DeleteDonation(r.Context(), donorID, donationID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DonationResultDTO{
		LastDonation: dateStr(summary.LastDonation),
		NextDonation: dateStr(summary.NextEligible),
	})
}

// writeLedgerError maps ledger errors to HTTP statuses.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case donor.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case donor.IsClientError(err):
		writeError(w, http.StatusConflict, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "Failed to update donation history", err)
	}
}

// =============================================================================
// STATS HANDLERS
// =============================================================================

// GetStats returns the admin dashboard counters.
// GET /api/donors/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Store.AdminStats(r.Context(), h.now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute stats", err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsDTO(st))
}

// GetPublicStats returns the reduced public counters. No auth.
// GET /api/donors/public-stats
func (h *Handler) GetPublicStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Store.PublicStatsAsOf(r.Context(), h.now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute stats", err)
		return
	}
	writeJSON(w, http.StatusOK, PublicStatsDTO{
		TotalDonors:     st.TotalDonors,
		TotalDonations:  st.TotalDonations,
		AvailableDonors: st.AvailableDonors,
	})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: true, Message: message})
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
