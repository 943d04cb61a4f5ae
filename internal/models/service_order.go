package models

import "time"

type ServiceOrder struct {
	ID uint `gorm:"primaryKey" json:"id"`

	QuoteID *uint  `gorm:"uniqueIndex" json:"orcamento"`
	Quote   *Quote `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`

	ClientID       uint  `gorm:"index;not null" json:"cliente"`
	BusinessSiteID uint  `gorm:"index;not null" json:"empreendimento"`
	EquipmentID    *uint `gorm:"index" json:"equipamento"`

	Descricao   string  `gorm:"type:text" json:"descricao_servico"`
	Responsavel string  `gorm:"size:100" json:"responsavel"`
	Status      string  `gorm:"size:12;default:'ABERTA';index" json:"status"`
	Valor       float64 `json:"valor"`

	DataAbertura    time.Time  `json:"data_abertura"`
	DataFinalizacao *time.Time `json:"data_finalizacao"`

	Withdrawal *StockWithdrawal `gorm:"foreignKey:ServiceOrderID" json:"retirada,omitempty"`

	CreatedAt time.Time `json:"criado_em"`
	UpdatedAt time.Time `json:"atualizado_em"`
}
