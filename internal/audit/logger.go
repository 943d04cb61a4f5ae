package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mandacaru/erp-api/internal/models"
)

// prazo de cada gravação feita pelo worker
const writeTimeout = 5 * time.Second

// Store grava eventos em audit_logs.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Write(ev Event) error {
	row := models.AuditLog{
		UserID:   ev.UserID,
		Action:   ev.Action,
		Entity:   ev.Entity,
		EntityID: ev.EntityID,
	}
	if ev.Metadata != nil {
		raw, err := json.Marshal(ev.Metadata)
		if err != nil {
			return fmt.Errorf("audit metadata %s: %w", ev.Action, err)
		}
		row.Metadata = string(raw)
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return s.db.WithContext(ctx).Create(&row).Error
}
