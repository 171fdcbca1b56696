package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

// ActiveStatuses are the statuses that occupy a slot. At most one
// appointment in one of these statuses may exist per slot.
var ActiveStatuses = []AppointmentStatus{
	AppointmentStatusPending,
	AppointmentStatusConfirmed,
}

// Slot identifies one bookable (professional, date, time) tuple.
type Slot struct {
	ProfessionalID uuid.UUID `json:"professional_id"`
	Date           time.Time `json:"date"`
	Time           string    `json:"time"`
}

type Appointment struct {
	Base
	PatientID      uuid.UUID         `db:"patient_id" json:"patient_id"`
	ProfessionalID uuid.UUID         `db:"professional_id" json:"professional_id"`
	Date           time.Time         `db:"date" json:"date"`
	Time           string            `db:"time" json:"time"`
	Status         AppointmentStatus `db:"status" json:"status"`
	CancelReason   *string           `db:"cancel_reason" json:"cancel_reason,omitempty"`
}

func (a *Appointment) Slot() Slot {
	return Slot{ProfessionalID: a.ProfessionalID, Date: a.Date, Time: a.Time}
}

type CreateAppointmentRequest struct {
	PatientID      string `json:"patient_id" binding:"required,uuid"`
	ProfessionalID string `json:"professional_id" binding:"required,uuid"`
	Date           string `json:"date" binding:"required"`
	Time           string `json:"time" binding:"required"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type AppointmentFilters struct {
	ProfessionalID uuid.UUID
	PatientID      uuid.UUID
	Status         AppointmentStatus
	Date           *time.Time
}
