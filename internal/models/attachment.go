package models

import "time"

type Attachment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Entity   string `gorm:"size:50;index:idx_attachment_entity" json:"entidade"`
	EntityID uint   `gorm:"index:idx_attachment_entity" json:"entidade_id"`

	FileName    string `gorm:"size:255" json:"nome_arquivo"`
	ContentType string `gorm:"size:100" json:"content_type"`
	Size        int64  `json:"tamanho"`
	Key         string `gorm:"size:255" json:"-"`
	URL         string `gorm:"size:500" json:"url"`

	UploadedBy *uint     `json:"enviado_por"`
	CreatedAt  time.Time `json:"criado_em"`
}
