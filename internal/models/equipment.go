package models

import "time"

type Equipment struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	UUID string `gorm:"size:36;uniqueIndex;not null" json:"uuid"`

	ClientID uint   `gorm:"index;not null" json:"cliente"`
	Client   Client `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`

	BusinessSiteID uint         `gorm:"index;not null" json:"empreendimento"`
	BusinessSite   BusinessSite `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`

	Nome        string  `gorm:"size:100;not null" json:"nome"`
	Descricao   string  `gorm:"type:text" json:"descricao"`
	Tipo        string  `gorm:"size:100" json:"tipo"`
	Marca       string  `gorm:"size:100" json:"marca"`
	Modelo      string  `gorm:"size:100" json:"modelo"`
	NumeroSerie *string `gorm:"size:100;uniqueIndex" json:"n_serie"`
	Horimetro   float64 `gorm:"default:0" json:"horimetro"`
	Status      string  `gorm:"size:15;default:'OPERACIONAL'" json:"status"`

	ProximaManutencao *time.Time `gorm:"type:date" json:"proxima_manutencao"`

	CreatedAt time.Time `json:"criado_em"`
	UpdatedAt time.Time `json:"atualizado_em"`
}
