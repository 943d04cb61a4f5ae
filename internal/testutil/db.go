// Package testutil monta banco SQLite em memória e cadastros básicos para
// os testes de repositório, caso de uso e handler.
package testutil

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mandacaru/erp-api/internal/db"
	"github.com/mandacaru/erp-api/internal/models"
)

func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	// uma conexão só: evita "table is locked" do cache compartilhado
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

type Fixture struct {
	Client    models.Client
	Site      models.BusinessSite
	Equipment models.Equipment
}

// SeedCascade cria cliente → empreendimento (10 km) → equipamento.
func SeedCascade(t *testing.T, gdb *gorm.DB, suffix string) Fixture {
	t.Helper()

	cnpjs := map[string]string{
		"":  "11222333000181",
		"a": "11222333000181",
		"b": "11444777000161",
	}
	cnpj, ok := cnpjs[suffix]
	if !ok {
		t.Fatalf("unknown fixture suffix %q", suffix)
	}

	f := Fixture{
		Client: models.Client{
			RazaoSocial:  "Mineração Mandacaru " + suffix,
			NomeFantasia: "Mandacaru " + suffix,
			CNPJ:         cnpj,
		},
	}
	mustCreate(t, gdb, &f.Client)

	f.Site = models.BusinessSite{ClientID: f.Client.ID, Nome: "Pedreira " + suffix, DistanciaKm: 10}
	mustCreate(t, gdb, &f.Site)

	f.Equipment = models.Equipment{
		UUID:           uuid.NewString(),
		ClientID:       f.Client.ID,
		BusinessSiteID: f.Site.ID,
		Nome:           "Britador " + suffix,
		Status:         "OPERACIONAL",
	}
	mustCreate(t, gdb, &f.Equipment)

	return f
}

func SeedProduct(t *testing.T, gdb *gorm.DB, codigo string, onHand, reserved float64) models.Product {
	t.Helper()
	p := models.Product{
		Codigo:           codigo,
		Descricao:        "Produto " + codigo,
		UnidadeMedida:    "UN",
		EstoqueAtual:     onHand,
		EstoqueReservado: reserved,
		PrecoCusto:       10,
		Ativo:            true,
	}
	mustCreate(t, gdb, &p)
	return p
}

func mustCreate(t *testing.T, gdb *gorm.DB, v any) {
	t.Helper()
	if err := gdb.Create(v).Error; err != nil {
		t.Fatalf("seed %T: %v", v, err)
	}
}
