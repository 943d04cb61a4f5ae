package models

// All lista os modelos migrados pelo AutoMigrate (produção e testes).
func All() []any {
	return []any{
		&User{},
		&Client{},
		&BusinessSite{},
		&Equipment{},
		&Product{},
		&Quote{},
		&QuoteItem{},
		&ServiceOrder{},
		&StockWithdrawal{},
		&StockWithdrawalItem{},
		&StockMovement{},
		&MaintenanceRecord{},
		&FuelRecord{},
		&Supplier{},
		&FinancialAccount{},
		&Attachment{},
		&AuditLog{},
	}
}
