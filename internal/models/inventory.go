package models

import "time"

// Produto do almoxarifado
type Product struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Codigo        string `gorm:"size:20;uniqueIndex;not null" json:"codigo"`
	Descricao     string `gorm:"size:100;not null" json:"descricao"`
	UnidadeMedida string `gorm:"size:10;not null" json:"unidade_medida"`

	EstoqueAtual     float64 `gorm:"not null;default:0" json:"estoque_atual"`
	EstoqueReservado float64 `gorm:"not null;default:0" json:"estoque_reservado"`
	EstoqueMinimo    float64 `gorm:"not null;default:0" json:"estoque_minimo"`
	PrecoCusto       float64 `gorm:"default:0" json:"preco_custo"`
	Ativo            bool    `gorm:"not null" json:"ativo"`

	CreatedAt time.Time `json:"criado_em"`
	UpdatedAt time.Time `json:"atualizado_em"`
}

func (p Product) Disponivel() float64 {
	return p.EstoqueAtual - p.EstoqueReservado
}

type StockMovement struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ProductID uint    `gorm:"index;not null" json:"produto"`
	Product   Product `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`

	Tipo       string  `gorm:"size:10;not null" json:"tipo"`
	Quantidade float64 `gorm:"not null" json:"quantidade"`
	Origem     string  `gorm:"size:100" json:"origem"`

	ServiceOrderID *uint `gorm:"index" json:"ordem_servico"`
	UserID         *uint `json:"usuario"`

	CreatedAt time.Time `json:"data"`
}

// Retirada de estoque emitida na aprovação do orçamento
type StockWithdrawal struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ServiceOrderID uint   `gorm:"uniqueIndex;not null" json:"ordem_servico"`
	Status         string `gorm:"size:10;default:'PENDENTE'" json:"status"`

	Items []StockWithdrawalItem `gorm:"foreignKey:WithdrawalID;constraint:OnDelete:CASCADE;" json:"itens"`

	CreatedAt time.Time `json:"criado_em"`
	UpdatedAt time.Time `json:"atualizado_em"`
}

type StockWithdrawalItem struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	WithdrawalID uint    `gorm:"index;not null" json:"-"`
	ProductID    uint    `gorm:"index;not null" json:"produto"`
	Quantidade   float64 `gorm:"not null" json:"quantidade"`
}
