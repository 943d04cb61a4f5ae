package models

import "time"

type BusinessSite struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ClientID uint   `gorm:"index;not null" json:"cliente"`
	Client   Client `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`

	Nome      string `gorm:"size:100;not null" json:"nome"`
	Descricao string `gorm:"type:text" json:"descricao"`

	Address `gorm:"embedded"`

	DistanciaKm float64 `gorm:"not null;default:0" json:"distancia_km"`

	CreatedAt time.Time `json:"criado_em"`
	UpdatedAt time.Time `json:"atualizado_em"`
}
