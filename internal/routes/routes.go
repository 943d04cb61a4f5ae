package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mandacaru/erp-api/internal/audit"
	"github.com/mandacaru/erp-api/internal/config"
	"github.com/mandacaru/erp-api/internal/handlers"
	"github.com/mandacaru/erp-api/internal/infra/cache"
	"github.com/mandacaru/erp-api/internal/infra/payment"
	infraRepo "github.com/mandacaru/erp-api/internal/infra/repository"
	"github.com/mandacaru/erp-api/internal/infra/storage"
	"github.com/mandacaru/erp-api/internal/metrics"
	"github.com/mandacaru/erp-api/internal/middleware"
	ucServiceOrder "github.com/mandacaru/erp-api/internal/usecase/serviceorder"
)

// Deps reúne os singletons montados no main. Uploader, Payments e
// Idempotency podem ficar nil: viram Disabled / pass-through.
type Deps struct {
	DB      *gorm.DB
	Config  *config.Config
	Log     *zap.Logger
	Audit   *audit.Dispatcher
	Metrics *metrics.Metrics

	Uploader    storage.Uploader
	Payments    payment.LinkCreator
	Idempotency cache.IdempotencyStore
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	cfg := d.Config
	db := d.DB

	if d.Uploader == nil {
		d.Uploader = storage.Disabled{}
	}
	if d.Payments == nil {
		d.Payments = payment.Disabled{}
	}

	// ======================================================
	// 🔧 INFRA (SINGLETONS)
	// ======================================================
	quoteRepo := infraRepo.NewQuoteGormRepository(db)
	orderRepo := infraRepo.NewServiceOrderGormRepository(db)
	inventoryRepo := infraRepo.NewInventoryGormRepository(db)

	// ======================================================
	// 🧩 HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(db, cfg, d.Audit)
	meHandler := handlers.NewMeHandler(db)
	auditLogsHandler := handlers.NewAuditLogsHandler(db)
	lookupHandler := handlers.NewLookupHandler(db)

	clientHandler := handlers.NewClientHandler(db, d.Audit)
	siteHandler := handlers.NewBusinessSiteHandler(db, d.Audit)
	equipmentHandler := handlers.NewEquipmentHandler(db, d.Audit, d.Uploader, cfg.MaxUploadBytes())
	maintenanceHandler := handlers.NewMaintenanceHandler(db, d.Audit)
	fuelHandler := handlers.NewFuelHandler(db, d.Audit, d.Metrics)
	supplierHandler := handlers.NewSupplierHandler(db, d.Audit)

	quoteHandler := handlers.NewQuoteHandler(db, quoteRepo, d.Audit, d.Metrics, cfg.Rules.KmRate)
	orderHandler := handlers.NewServiceOrderHandler(db, orderRepo, d.Audit, d.Metrics, ucServiceOrder.ReceivableRules{
		DueDays:       cfg.Rules.ReceivableDueDays,
		PaymentMethod: cfg.Rules.DefaultPaymentMethod,
	})
	inventoryHandler := handlers.NewInventoryHandler(db, inventoryRepo, d.Audit, d.Metrics, cfg.Rules.LowStockThreshold)
	financialHandler := handlers.NewFinancialHandler(db, d.Audit, d.Uploader, cfg.MaxUploadBytes(), d.Payments)
	reportHandler := handlers.NewReportHandler(db, cfg.Rules.LowStockThreshold)

	// ======================================================
	// 🩺 INFRA ROUTES
	// ======================================================
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.EnableMetrics && d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	// ======================================================
	// 🌐 API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// 🔐 AUTH
		// ------------------------------
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/register", middleware.OptionalAuth(cfg), authHandler.Register)

		// ------------------------------
		// 🔐 API PRIVADA
		// ------------------------------
		secured := api.Group("")
		secured.Use(
			middleware.AuthMiddleware(cfg),
			middleware.AdminForDelete(),
			middleware.Idempotency(d.Idempotency, cfg.IdempotencyTTL, d.Log),
		)
		{
			secured.GET("/me", meHandler.GetMe)
			secured.GET("/audit-logs", middleware.RequireRole(middleware.RoleAdmin), auditLogsHandler.List)

			crud(secured.Group("/clientes"), clientHandler)
			secured.GET("/clientes/:id/empreendimentos/", clientHandler.Sites)

			crud(secured.Group("/empreendimentos"), siteHandler)
			secured.GET("/empreendimentos/:id/equipamentos/", siteHandler.Equipments)

			equipamentos := secured.Group("/equipamentos")
			crud(equipamentos, equipmentHandler)
			equipamentos.GET("/uuid/:uuid/", equipmentHandler.GetByUUID)
			equipamentos.POST("/:id/anexos/", equipmentHandler.UploadAttachment)
			equipamentos.GET("/:id/anexos/", equipmentHandler.ListAttachments)

			crud(secured.Group("/manutencoes"), maintenanceHandler)

			abastecimentos := secured.Group("/abastecimentos")
			crud(abastecimentos, fuelHandler)
			abastecimentos.POST("/:id/aprovar/", middleware.RequireRole(middleware.RoleAdmin), fuelHandler.Approve)
			crud(secured.Group("/fornecedores"), supplierHandler)

			// ------------------------------
			// ORÇAMENTOS
			// ------------------------------
			orcamentos := secured.Group("/orcamentos")
			crud(orcamentos, quoteHandler)
			orcamentos.POST("/calcular/", quoteHandler.Calculate)
			orcamentos.POST("/:id/aprovar/", quoteHandler.Approve)
			orcamentos.POST("/:id/rejeitar/", quoteHandler.Reject)
			orcamentos.POST("/:id/cancelar/", quoteHandler.Cancel)

			// ------------------------------
			// ORDENS DE SERVIÇO
			// ------------------------------
			ordens := secured.Group("/ordens-servico")
			crud(ordens, orderHandler)
			ordens.POST("/:id/iniciar/", orderHandler.Start)
			ordens.POST("/:id/finalizar/", orderHandler.Finish)
			ordens.POST("/:id/cancelar/", orderHandler.Cancel)

			// ------------------------------
			// ALMOXARIFADO
			// ------------------------------
			almox := secured.Group("/almoxarifado")
			{
				almox.GET("/produtos/", inventoryHandler.ListProducts)
				almox.GET("/produtos/:id/", inventoryHandler.GetProduct)
				almox.POST("/produtos/", inventoryHandler.CreateProduct)
				almox.PUT("/produtos/:id/", inventoryHandler.UpdateProduct)
				almox.PATCH("/produtos/:id/", inventoryHandler.UpdateProduct)
				almox.DELETE("/produtos/:id/", inventoryHandler.DeleteProduct)

				almox.GET("/movimentacoes/", inventoryHandler.ListMovements)
				almox.POST("/movimentacoes/", inventoryHandler.CreateMovement)
			}

			// ------------------------------
			// FINANCEIRO
			// ------------------------------
			contas := secured.Group("/financeiro/contas")
			crud(contas, financialHandler)
			contas.POST("/:id/pagar/", financialHandler.Pay)
			contas.POST("/:id/link-pagamento/", financialHandler.PaymentLink)

			// ------------------------------
			// RELATÓRIOS / OPÇÕES
			// ------------------------------
			relatorios := secured.Group("/relatorios")
			{
				relatorios.GET("/financeiro/", reportHandler.Financial)
				relatorios.GET("/estoque-baixo/", reportHandler.LowStock)
				relatorios.GET("/os-por-cliente/", reportHandler.OrdersByClient)
				relatorios.GET("/dashboard/", reportHandler.Dashboard)
			}

			opcoes := secured.Group("/opcoes")
			{
				opcoes.GET("/clientes/", lookupHandler.Clients)
				opcoes.GET("/empreendimentos/", lookupHandler.Sites)
				opcoes.GET("/equipamentos/", lookupHandler.Equipments)
			}
		}
	}
}

type crudHandler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// crud registra list/detail/create/update/delete no padrão "/recurso/:id/".
func crud(g *gin.RouterGroup, h crudHandler) {
	g.GET("/", h.List)
	g.POST("/", h.Create)
	g.GET("/:id/", h.Get)
	g.PUT("/:id/", h.Update)
	g.PATCH("/:id/", h.Update)
	g.DELETE("/:id/", h.Delete)
}
