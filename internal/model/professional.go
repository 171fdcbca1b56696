package model

import (
	"github.com/google/uuid"
)

type ProfessionalStatus string

const (
	ProfessionalStatusActive   ProfessionalStatus = "active"
	ProfessionalStatusInactive ProfessionalStatus = "inactive"
)

type Professional struct {
	Base
	Name        string             `db:"name" json:"name"`
	SpecialtyID uuid.UUID          `db:"specialty_id" json:"specialty_id"`
	Status      ProfessionalStatus `db:"status" json:"status"`
}

func (p *Professional) IsActive() bool {
	return p.Status == ProfessionalStatusActive
}

type CreateProfessionalRequest struct {
	Name        string `json:"name" binding:"required"`
	SpecialtyID string `json:"specialty_id" binding:"required,uuid"`
}

type UpdateProfessionalStatusRequest struct {
	Status ProfessionalStatus `json:"status" binding:"required,oneof=active inactive"`
}
