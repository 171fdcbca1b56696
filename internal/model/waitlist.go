package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationChannel string

const (
	ChannelWhatsApp NotificationChannel = "whatsapp"
	ChannelEmail    NotificationChannel = "email"
)

// OfferOutcome is the patient's answer to an active offer.
type OfferOutcome string

const (
	OfferOutcomeAccept  OfferOutcome = "accept"
	OfferOutcomeDecline OfferOutcome = "decline"
)

// WaitlistEntry is a patient's standing request for a slot in a
// specialty. The offer fields model the entry's offer sub-state:
// while OfferActive is set the entry holds exactly one time-boxed
// offer for the proposed slot and is excluded from candidate
// selection. An entry with AssignedAt set has been converted into an
// appointment and is never selected again.
type WaitlistEntry struct {
	Base
	PatientID        uuid.UUID           `db:"patient_id" json:"patient_id"`
	SpecialtyID      uuid.UUID           `db:"specialty_id" json:"specialty_id"`
	ProfessionalID   *uuid.UUID          `db:"professional_id" json:"professional_id,omitempty"`
	PreferredChannel NotificationChannel `db:"preferred_channel" json:"preferred_channel"`
	PriorityTier     int                 `db:"priority_tier" json:"priority_tier"`
	RegisteredAt     time.Time           `db:"registered_at" json:"registered_at"`
	AssignedAt       *time.Time          `db:"assigned_at" json:"assigned_at,omitempty"`

	OfferActive         bool       `db:"offer_active" json:"offer_active"`
	OfferProfessionalID *uuid.UUID `db:"offer_professional_id" json:"offer_professional_id,omitempty"`
	OfferDate           *time.Time `db:"offer_date" json:"offer_date,omitempty"`
	OfferTime           *string    `db:"offer_time" json:"offer_time,omitempty"`
	OfferExpiresAt      *time.Time `db:"offer_expires_at" json:"offer_expires_at,omitempty"`
	OfferCreatedAt      *time.Time `db:"offer_created_at" json:"offer_created_at,omitempty"`
}

// OfferedSlot rebuilds the proposed slot from the offer fields.
func (e *WaitlistEntry) OfferedSlot() (Slot, bool) {
	if e.OfferProfessionalID == nil || e.OfferDate == nil || e.OfferTime == nil {
		return Slot{}, false
	}
	return Slot{
		ProfessionalID: *e.OfferProfessionalID,
		Date:           *e.OfferDate,
		Time:           *e.OfferTime,
	}, true
}

// Candidate is a waitlist entry joined with the patient fields the
// selector and the dispatcher need.
type Candidate struct {
	WaitlistEntry
	PatientName      string     `db:"patient_name" json:"patient_name"`
	PatientPhone     string     `db:"patient_phone" json:"patient_phone"`
	PatientEmail     string     `db:"patient_email" json:"patient_email"`
	PatientBirthDate *time.Time `db:"patient_birth_date" json:"patient_birth_date,omitempty"`
}

// PatientAge returns the patient's age in full years, or -1 when the
// birth date is unknown.
func (c *Candidate) PatientAge(at time.Time) int {
	p := Patient{BirthDate: c.PatientBirthDate}
	return p.Age(at)
}

type CreateWaitlistEntryRequest struct {
	PatientID        string `json:"patient_id" binding:"required,uuid"`
	SpecialtyID      string `json:"specialty_id" binding:"required,uuid"`
	ProfessionalID   string `json:"professional_id" binding:"omitempty,uuid"`
	PreferredChannel string `json:"preferred_channel" binding:"omitempty,oneof=whatsapp email"`
	PriorityTier     int    `json:"priority_tier" binding:"omitempty,min=1,max=5"`
}

type WaitlistFilters struct {
	SpecialtyID uuid.UUID
	OnlyWaiting bool
}
