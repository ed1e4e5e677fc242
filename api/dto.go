/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

ENVELOPE:
  Every response body is wrapped:
    {"success": true,  "data": ..., "message": "..."}
    {"success": false, "error": "...", "details": "..."}
  Clients branch on "success" and never on HTTP status alone.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - auth.go: Login types
*/
package api

import (
	"time"

	"github.com/lostSilverfish/blood-donors-SHAH/donor"
	"github.com/lostSilverfish/blood-donors-SHAH/store/sqlite"
)

// =============================================================================
// ENVELOPE
// =============================================================================

// envelope wraps every successful response body.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is returned for all error statuses.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// PaginationDTO describes one page of a list response.
type PaginationDTO struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// DonorListDTO is the paged donor listing.
type DonorListDTO struct {
	Donors     []DonorDTO    `json:"donors"`
	Pagination PaginationDTO `json:"pagination"`
}

// =============================================================================
// DONOR TYPES
// =============================================================================

// DonorDTO represents a donor in API responses.
type DonorDTO struct {
	ID            string  `json:"id"`
	DonorName     string  `json:"donor_name"`
	BloodType     string  `json:"blood_type"`
	ContactNumber string  `json:"contact_number"`
	LastDonation  *string `json:"date_of_last_donation"`
	NextDonation  *string `json:"next_donation_date"`
	IsEligibleNow bool    `json:"is_eligible_now"`
	IsActive      bool    `json:"is_active"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// DonorDetailDTO is the get-by-id response: the donor plus their full
// donation history, newest first.
type DonorDetailDTO struct {
	Donor           DonorDTO      `json:"donor"`
	DonationHistory []DonationDTO `json:"donation_history"`
}

// CreateDonorRequest creates a donor. DateOfLastDonation is optional and
// covers donors registered with pre-system donation history.
type CreateDonorRequest struct {
	DonorName          string  `json:"donor_name"`
	BloodType          string  `json:"blood_type"`
	ContactNumber      string  `json:"contact_number"`
	DateOfLastDonation *string `json:"date_of_last_donation"`
}

// UpdateDonorRequest partially updates a donor. All fields optional, at
// least one required.
type UpdateDonorRequest struct {
	DonorName          *string `json:"donor_name"`
	BloodType          *string `json:"blood_type"`
	ContactNumber      *string `json:"contact_number"`
	IsActive           *bool   `json:"is_active"`
	DateOfLastDonation *string `json:"date_of_last_donation"`

	// HasLastDonation distinguishes an absent date_of_last_donation key
	// from an explicit null. Set during decode, never by clients.
	HasLastDonation bool `json:"-"`
}

// =============================================================================
// DONATION TYPES
// =============================================================================

// DonationDTO represents one donation record.
type DonationDTO struct {
	ID             string `json:"id"`
	DonorID        string `json:"donor_id"`
	DonationDate   string `json:"donation_date"`
	BloodUnits     string `json:"blood_units"`
	DonationCenter string `json:"donation_center,omitempty"`
	Notes          string `json:"notes,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// RecordDonationRequest appends one donation to a donor's history.
type RecordDonationRequest struct {
	DonationDate   string `json:"donation_date"`
	BloodUnits     string `json:"blood_units"`
	DonationCenter string `json:"donation_center"`
	Notes          string `json:"notes"`
}

// DonationResultDTO is returned after a ledger mutation: the affected
// record (insert only) plus the donor's recomputed summary.
type DonationResultDTO struct {
	Donation     *DonationDTO `json:"donation,omitempty"`
	LastDonation *string      `json:"date_of_last_donation"`
	NextDonation *string      `json:"next_donation_date"`
}

// =============================================================================
// STATS TYPES
// =============================================================================

// StatsDTO is the admin dashboard summary.
type StatsDTO struct {
	TotalDonors        int `json:"total_donors"`
	ActiveDonors       int `json:"active_donors"`
	InactiveDonors     int `json:"inactive_donors"`
	TotalDonations     int `json:"total_donations"`
	ThisMonthDonations int `json:"this_month_donations"`
	AvailableDonors    int `json:"available_donors"`
}

// PublicStatsDTO is the reduced summary for the public landing page.
type PublicStatsDTO struct {
	TotalDonors     int `json:"total_donors"`
	TotalDonations  int `json:"total_donations"`
	AvailableDonors int `json:"available_donors"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toDonorDTO(d donor.Donor, now time.Time) DonorDTO {
	return DonorDTO{
		ID:            d.ID,
		DonorName:     d.Name,
		BloodType:     string(d.BloodType),
		ContactNumber: d.ContactNumber,
		LastDonation:  dateStr(d.LastDonation),
		NextDonation:  dateStr(d.NextDonation),
		IsEligibleNow: donor.IsEligibleNow(d.NextDonation, now),
		IsActive:      d.IsActive,
		CreatedAt:     d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     d.UpdatedAt.Format(time.RFC3339),
	}
}

func toDonorDTOs(donors []donor.Donor, now time.Time) []DonorDTO {
	dtos := make([]DonorDTO, len(donors))
	for i, d := range donors {
		dtos[i] = toDonorDTO(d, now)
	}
	return dtos
}

func toDonationDTO(rec donor.DonationRecord) DonationDTO {
	return DonationDTO{
		ID:             rec.ID,
		DonorID:        rec.DonorID,
		DonationDate:   rec.DonationDate.Format(donor.DateLayout),
		BloodUnits:     rec.BloodUnits.String(),
		DonationCenter: rec.Center,
		Notes:          rec.Notes,
		CreatedAt:      rec.CreatedAt.Format(time.RFC3339),
	}
}

func toDonationDTOs(recs []donor.DonationRecord) []DonationDTO {
	dtos := make([]DonationDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = toDonationDTO(rec)
	}
	return dtos
}

func toStatsDTO(st sqlite.Stats) StatsDTO {
	return StatsDTO{
		TotalDonors:        st.TotalDonors,
		ActiveDonors:       st.ActiveDonors,
		InactiveDonors:     st.InactiveDonors,
		TotalDonations:     st.TotalDonations,
		ThisMonthDonations: st.ThisMonthDonations,
		AvailableDonors:    st.AvailableDonors,
	}
}

func dateStr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(donor.DateLayout)
	return &s
}
