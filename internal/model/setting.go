package model

import "time"

// Setting is one named configuration value. Values are stored as text
// and interpreted by the settings service.
type Setting struct {
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Keys read by the waitlist engine.
const (
	SettingAutoOfferEnabled  = "auto_offer_enabled"
	SettingOfferTTLMinutes   = "tiempo_max_oferta"
	SettingPrioritizeElderly = "prioridad_adultos_mayores"
	SettingPrioritizeUrgent  = "prioridad_urgentes"
	SettingPrioritizeWaiting = "prioridad_tiempo_espera"
	SettingOfferTemplate     = "mensaje_oferta_cupo"
)

type UpdateSettingRequest struct {
	Value string `json:"value" binding:"required"`
}
