package models

import "time"

// Abastecimento de equipamento, em posto externo ou com baixa no almoxarifado.
type FuelRecord struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Numero string `gorm:"size:20;uniqueIndex;not null" json:"numero"`

	EquipmentID uint      `gorm:"index:idx_fuel_equipment_data;not null" json:"equipamento"`
	Equipment   Equipment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`

	Origem    string   `gorm:"size:20;not null;index" json:"origem_combustivel"`
	ProductID *uint    `gorm:"index" json:"produto"`
	Product   *Product `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`

	Combustivel      string    `gorm:"size:50;not null" json:"combustivel"`
	Data             time.Time `gorm:"index:idx_fuel_equipment_data;not null" json:"data_abastecimento"`
	QuantidadeLitros float64   `gorm:"not null" json:"quantidade_litros"`
	PrecoLitro       float64   `gorm:"not null" json:"preco_litro"`
	ValorTotal       float64   `gorm:"not null" json:"valor_total"`

	EstoqueAntes  *float64 `json:"estoque_antes"`
	EstoqueDepois *float64 `json:"estoque_depois"`

	TipoMedicao     string  `gorm:"size:15;not null" json:"tipo_medicao"`
	MedicaoAtual    float64 `gorm:"not null" json:"medicao_atual"`
	MedicaoAnterior float64 `json:"medicao_anterior"`

	Posto       string `gorm:"size:200" json:"posto_combustivel"`
	Cidade      string `gorm:"size:100" json:"cidade"`
	Observacoes string `gorm:"type:text" json:"observacoes"`

	Aprovado      bool       `gorm:"not null;index" json:"aprovado"`
	AprovadoPor   *uint      `json:"aprovado_por"`
	DataAprovacao *time.Time `json:"data_aprovacao"`

	CriadoPor uint `json:"criado_por"`

	CreatedAt time.Time `json:"criado_em"`
	UpdatedAt time.Time `json:"atualizado_em"`
}
