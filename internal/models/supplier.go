package models

import "time"

type Supplier struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Nome     string `gorm:"size:255;not null" json:"nome"`
	CNPJ     string `gorm:"size:14;index" json:"cnpj"`
	Telefone string `gorm:"size:20" json:"telefone"`
	Email    string `gorm:"size:100" json:"email"`

	Address `gorm:"embedded"`

	CreatedAt time.Time `json:"criado_em"`
	UpdatedAt time.Time `json:"atualizado_em"`
}
