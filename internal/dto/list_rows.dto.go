package dto

import "github.com/mandacaru/erp-api/internal/models"

// Linhas das listagens: o registro mais os nomes resolvidos por JOIN,
// para a tabela do front não precisar de uma chamada por linha.

type SiteListDTO struct {
	models.BusinessSite
	ClienteNome string `json:"cliente_nome"`
}

type MaintenanceListDTO struct {
	models.MaintenanceRecord
	EquipamentoNome string `json:"equipamento_nome"`
}

type QuoteListDTO struct {
	models.Quote
	ClienteNome        string `json:"cliente_nome"`
	EmpreendimentoNome string `json:"empreendimento_nome"`
}

type ServiceOrderListDTO struct {
	models.ServiceOrder
	ClienteNome        string `json:"cliente_nome"`
	EmpreendimentoNome string `json:"empreendimento_nome"`
}

type OrdersByClientDTO struct {
	ClientID   uint    `json:"cliente"`
	Nome       string  `json:"cliente_nome"`
	Quantidade int64   `json:"quantidade"`
	ValorTotal float64 `json:"valor_total"`
}

type FuelListDTO struct {
	models.FuelRecord
	EquipamentoNome string `json:"equipamento_nome"`
}
