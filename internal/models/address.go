package models

// Address é embutido em Client, BusinessSite e Supplier.
type Address struct {
	Logradouro string `gorm:"size:255" json:"logradouro"`
	Numero     string `gorm:"size:20" json:"numero"`
	Bairro     string `gorm:"size:100" json:"bairro"`
	Cidade     string `gorm:"size:100" json:"cidade"`
	UF         string `gorm:"size:2" json:"uf"`
	CEP        string `gorm:"size:9" json:"cep"`
}
