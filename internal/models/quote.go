package models

import "time"

type Quote struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ClientID uint   `gorm:"index;not null" json:"cliente"`
	Client   Client `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`

	BusinessSiteID uint         `gorm:"index;not null" json:"empreendimento"`
	BusinessSite   BusinessSite `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`

	EquipmentID *uint      `gorm:"index" json:"equipamento"`
	Equipment   *Equipment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`

	Descricao      string    `gorm:"type:text" json:"descricao"`
	DataVencimento time.Time `gorm:"type:date;not null" json:"data_vencimento"`

	// snapshot do empreendimento no momento do cálculo
	DistanciaKm       float64 `json:"distancia_km"`
	ValorKm           float64 `json:"valor_km"`
	CustoDeslocamento float64 `json:"custo_deslocamento"`
	ValorItens        float64 `json:"valor_itens"`
	ValorTotal        float64 `json:"valor_total"`

	Status string `gorm:"size:12;default:'PENDENTE';index" json:"status"`

	ApprovedAt *time.Time `json:"aprovado_em"`
	ApprovedBy *uint      `json:"aprovado_por"`

	Items []QuoteItem `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE;" json:"itens"`

	CreatedAt time.Time `json:"data_criacao"`
	UpdatedAt time.Time `json:"atualizado_em"`
}

type QuoteItem struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	QuoteID uint `gorm:"index;not null" json:"-"`

	ProductID uint    `gorm:"index;not null" json:"produto"`
	Product   Product `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`

	Descricao     string  `gorm:"size:255" json:"descricao"`
	Quantidade    float64 `gorm:"not null" json:"quantidade"`
	PrecoUnitario float64 `gorm:"not null" json:"preco_unitario"`
	Subtotal      float64 `gorm:"not null" json:"subtotal"`
}
