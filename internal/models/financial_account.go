package models

import "time"

type FinancialAccount struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Tipo           string     `gorm:"size:10;not null;index" json:"tipo"`
	Descricao      string     `gorm:"size:255;not null" json:"descricao"`
	Valor          float64    `gorm:"not null" json:"valor"`
	DataVencimento time.Time  `gorm:"type:date;not null;index" json:"data_vencimento"`
	DataPagamento  *time.Time `gorm:"type:date" json:"data_pagamento"`
	FormaPagamento string     `gorm:"size:20" json:"forma_pagamento"`
	Status         string     `gorm:"size:10;default:'pendente';index" json:"status"`
	TipoDespesa    string     `gorm:"size:100" json:"tipo_despesa"`

	ClientID *uint   `gorm:"index" json:"cliente"`
	Client   *Client `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`

	SupplierID *uint     `gorm:"index" json:"fornecedor"`
	Supplier   *Supplier `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`

	ServiceOrderID *uint `gorm:"uniqueIndex" json:"ordem_servico"`

	ComprovanteURL string `gorm:"size:500" json:"comprovante_url"`
	PaymentLink    string `gorm:"size:500" json:"link_pagamento"`

	CreatedAt time.Time `json:"criado_em"`
	UpdatedAt time.Time `json:"atualizado_em"`
}
