package models

import "time"

// Cliente (pessoa jurídica) dono dos empreendimentos e equipamentos
type Client struct {
	ID uint `gorm:"primaryKey" json:"id"`

	RazaoSocial       string `gorm:"size:255;not null" json:"razao_social"`
	NomeFantasia      string `gorm:"size:255" json:"nome_fantasia"`
	CNPJ              string `gorm:"size:14;uniqueIndex;not null" json:"cnpj"`
	InscricaoEstadual string `gorm:"size:20" json:"inscricao_estadual"`
	Email             string `gorm:"size:100" json:"email"`
	Telefone          string `gorm:"size:20" json:"telefone"`

	Address `gorm:"embedded"`

	Observacoes string `gorm:"type:text" json:"observacoes"`

	CreatedAt time.Time `json:"criado_em"`
	UpdatedAt time.Time `json:"atualizado_em"`
}

// DisplayName prefere o nome fantasia, como nas telas de seleção.
func (c Client) DisplayName() string {
	if c.NomeFantasia != "" {
		return c.NomeFantasia
	}
	return c.RazaoSocial
}
