package model

import (
	"time"
)

type PatientStatus string

const (
	PatientStatusActive   PatientStatus = "active"
	PatientStatusInactive PatientStatus = "inactive"
)

type Patient struct {
	Base
	Name      string        `db:"name" json:"name"`
	Document  string        `db:"document" json:"document"`
	Email     string        `db:"email" json:"email,omitempty"`
	Phone     string        `db:"phone" json:"phone"`
	BirthDate *time.Time    `db:"birth_date" json:"birth_date,omitempty"`
	Status    PatientStatus `db:"status" json:"status"`
}

// Age returns full years at the given reference time, or -1 when the
// birth date is unknown.
func (p *Patient) Age(at time.Time) int {
	if p.BirthDate == nil {
		return -1
	}
	years := at.Year() - p.BirthDate.Year()
	anniversary := p.BirthDate.AddDate(years, 0, 0)
	if anniversary.After(at) {
		years--
	}
	return years
}

type CreatePatientRequest struct {
	Name      string `json:"name" binding:"required"`
	Document  string `json:"document" binding:"required"`
	Email     string `json:"email" binding:"omitempty,email"`
	Phone     string `json:"phone" binding:"required"`
	BirthDate string `json:"birth_date" binding:"omitempty"`
}

type UpdatePatientRequest struct {
	Name   *string        `json:"name"`
	Email  *string        `json:"email" binding:"omitempty,email"`
	Phone  *string        `json:"phone"`
	Status *PatientStatus `json:"status"`
}
