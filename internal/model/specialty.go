package model

type Specialty struct {
	Base
	Name string `db:"name" json:"name"`
}

type CreateSpecialtyRequest struct {
	Name string `json:"name" binding:"required"`
}
