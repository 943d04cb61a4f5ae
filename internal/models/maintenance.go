package models

import "time"

type MaintenanceRecord struct {
	ID uint `gorm:"primaryKey" json:"id"`

	EquipmentID uint      `gorm:"index;not null" json:"equipamento"`
	Equipment   Equipment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	ServiceOrderID *uint `gorm:"index" json:"ordem_servico"`

	Data          time.Time  `gorm:"type:date;not null" json:"data"`
	Tipo          string     `gorm:"size:20;not null" json:"tipo"`
	Descricao     string     `gorm:"type:text;not null" json:"descricao"`
	Horimetro     float64    `gorm:"not null" json:"horimetro"`
	CustoEstimado float64    `gorm:"default:0" json:"custo_estimado"`
	Proxima       *time.Time `gorm:"type:date" json:"proxima_manutencao"`

	CreatedAt time.Time `json:"criado_em"`
	UpdatedAt time.Time `json:"atualizado_em"`
}
