package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"gorm.io/gorm"

	"github.com/mandacaru/erp-api/internal/audit"
	"github.com/mandacaru/erp-api/internal/domain/finance"
	"github.com/mandacaru/erp-api/internal/domain/money"
	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/httpresp"
	"github.com/mandacaru/erp-api/internal/infra/payment"
	"github.com/mandacaru/erp-api/internal/infra/storage"
	"github.com/mandacaru/erp-api/internal/models"
	"github.com/mandacaru/erp-api/internal/timezone"
)

type FinancialHandler struct {
	db       *gorm.DB
	audit    *audit.Dispatcher
	files    fileUploader
	payments payment.LinkCreator
}

func NewFinancialHandler(
	db *gorm.DB,
	audit *audit.Dispatcher,
	uploader storage.Uploader,
	maxUploadBytes int64,
	payments payment.LinkCreator,
) *FinancialHandler {
	return &FinancialHandler{
		db:       db,
		audit:    audit,
		files:    fileUploader{uploader: uploader, maxBytes: maxUploadBytes},
		payments: payments,
	}
}

// accountRequest serve JSON e multipart; no multipart o arquivo vem em
// "comprovante".
type accountRequest struct {
	Tipo           *string  `json:"tipo" form:"tipo"`
	Descricao      *string  `json:"descricao" form:"descricao"`
	Valor          *float64 `json:"valor" form:"valor"`
	DataVencimento *string  `json:"data_vencimento" form:"data_vencimento"`
	DataPagamento  *string  `json:"data_pagamento" form:"data_pagamento"`
	FormaPagamento *string  `json:"forma_pagamento" form:"forma_pagamento"`
	Status         *string  `json:"status" form:"status"`
	TipoDespesa    *string  `json:"tipo_despesa" form:"tipo_despesa"`
	ClientID       *uint    `json:"cliente" form:"cliente"`
	SupplierID     *uint    `json:"fornecedor" form:"fornecedor"`
}

func (r accountRequest) apply(db *gorm.DB, a *models.FinancialAccount, full bool) error {
	if full && (isBlank(r.Tipo) || isBlank(r.Descricao) || r.Valor == nil || isBlank(r.DataVencimento)) {
		return httperr.ErrBusiness("missing_required_fields")
	}

	if r.Tipo != nil {
		a.Tipo = strings.ToLower(strings.TrimSpace(*r.Tipo))
	}
	if r.Descricao != nil {
		if isBlank(r.Descricao) {
			return httperr.ErrBusiness("missing_required_fields")
		}
		setString(&a.Descricao, r.Descricao)
	}
	if r.Valor != nil {
		a.Valor = money.Round2(*r.Valor)
	}
	if r.DataVencimento != nil {
		due, err := parseDate(*r.DataVencimento, "invalid_due_date")
		if err != nil {
			return err
		}
		a.DataVencimento = due
	}
	if r.DataPagamento != nil {
		paid, err := parseOptionalDate(r.DataPagamento, "invalid_payment_date")
		if err != nil {
			return err
		}
		a.DataPagamento = paid
	}
	if r.Status != nil {
		a.Status = strings.ToLower(strings.TrimSpace(*r.Status))
	}
	setString(&a.FormaPagamento, r.FormaPagamento)
	setString(&a.TipoDespesa, r.TipoDespesa)

	if r.ClientID != nil {
		a.ClientID = nonZero(*r.ClientID)
	}
	if r.SupplierID != nil {
		a.SupplierID = nonZero(*r.SupplierID)
	}
	if a.ClientID != nil {
		if err := findOr(db, &models.Client{}, *a.ClientID, "client_not_found"); err != nil {
			return err
		}
	}
	if a.SupplierID != nil {
		if err := findOr(db, &models.Supplier{}, *a.SupplierID, "supplier_not_found"); err != nil {
			return err
		}
	}

	// pago sem data assume hoje
	if finance.Status(a.Status) == finance.StatusPaid && a.DataPagamento == nil {
		d := today()
		a.DataPagamento = &d
	}
	return finance.Validate(a)
}

func nonZero(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), binding.MIMEMultipartPOSTForm)
}

// bind lê o corpo em JSON ou multipart.
func (h *FinancialHandler) bind(c *gin.Context, req *accountRequest) bool {
	var err error
	if isMultipart(c) {
		err = c.ShouldBindWith(req, binding.FormMultipart)
	} else {
		err = c.ShouldBindJSON(req)
	}
	if err != nil {
		httperr.InvalidRequest(c, err)
		return false
	}
	return true
}

// attachReceipt sobe o arquivo "comprovante", se houver, e grava a URL.
func (h *FinancialHandler) attachReceipt(c *gin.Context, tx *gorm.DB, a *models.FinancialAccount) error {
	if !isMultipart(c) {
		return nil
	}
	fh, err := c.FormFile("comprovante")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil
		}
		return httperr.ErrBusiness("invalid_file")
	}

	att, err := h.files.upload(c.Request.Context(), fh, "comprovantes", a.ID)
	if err != nil {
		return err
	}
	a.ComprovanteURL = att.URL
	return tx.Model(a).Update("comprovante_url", att.URL).Error
}

// ======================================================
// FILTERS
// ======================================================

// accountFilters aplica os filtros comuns da listagem e do relatório
// financeiro. Devolve false quando já respondeu 400.
func accountFilters(c *gin.Context, q *gorm.DB) (*gorm.DB, bool) {
	if tipo := strings.ToLower(strings.TrimSpace(c.Query("tipo"))); tipo != "" {
		q = q.Where("tipo = ?", tipo)
	}
	if st := strings.ToLower(strings.TrimSpace(c.Query("status"))); st != "" {
		q = q.Where("status = ?", st)
	}

	for _, f := range []struct{ param, column string }{
		{"cliente", "client_id"},
		{"fornecedor", "supplier_id"},
	} {
		id, present, ok := queryID(c, f.param)
		if !ok {
			httperr.BadRequest(c, "invalid_filter", "Filtro inválido: "+f.param+".")
			return nil, false
		}
		if present {
			q = q.Where(f.column+" = ?", id)
		}
	}

	month, year, ok := monthFilter(c)
	if !ok {
		httperr.BadRequest(c, "invalid_filter", "Filtro inválido: mes/ano.")
		return nil, false
	}
	loc := timezone.Location(timezone.DefaultTimezone)
	switch {
	case month > 0:
		start, end := finance.MonthRange(year, month, loc)
		q = q.Where("data_vencimento >= ? AND data_vencimento < ?", start, end)
	case year > 0:
		start, _ := finance.MonthRange(year, 1, loc)
		q = q.Where("data_vencimento >= ? AND data_vencimento < ?", start, start.AddDate(1, 0, 0))
	}

	if overdue, present := queryBool(c, "vencidas"); present && overdue {
		q = q.Where("status = ? AND data_vencimento < ?", string(finance.StatusPending), today())
	}
	return q, true
}

// monthFilter: mes sem ano usa o ano corrente.
func monthFilter(c *gin.Context) (month, year int, ok bool) {
	rawMonth := strings.TrimSpace(c.Query("mes"))
	rawYear := strings.TrimSpace(c.Query("ano"))

	if rawYear != "" {
		y, err := strconv.Atoi(rawYear)
		if err != nil || y < 1900 || y > 9999 {
			return 0, 0, false
		}
		year = y
	}
	if rawMonth != "" {
		m, err := strconv.Atoi(rawMonth)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, false
		}
		month = m
		if year == 0 {
			year = today().Year()
		}
	}
	return month, year, true
}

// ======================================================
// CRUD
// ======================================================

func (h *FinancialHandler) List(c *gin.Context) {
	p := parseListParams(c)

	q, ok := accountFilters(c, h.db.Model(&models.FinancialAccount{}))
	if !ok {
		return
	}
	if p.query != "" {
		q = q.Where("LOWER(descricao) LIKE ? OR LOWER(tipo_despesa) LIKE ?", p.like(), p.like())
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Internal(c, "failed_to_list_accounts", "Erro ao listar contas.")
		return
	}

	var accounts []models.FinancialAccount
	if err := q.Order("data_vencimento ASC, id ASC").
		Limit(p.limit).
		Offset(p.offset).
		Find(&accounts).Error; err != nil {

		httperr.Internal(c, "failed_to_list_accounts", "Erro ao listar contas.")
		return
	}

	httpresp.Page(c, accounts, p.page, p.limit, total)
}

func (h *FinancialHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var a models.FinancialAccount
	if err := findOr(h.db, &a, id, "account_not_found"); err != nil {
		httperr.FromError(c, err, "failed_to_get_account")
		return
	}
	httpresp.OK(c, a)
}

func (h *FinancialHandler) Create(c *gin.Context) {
	var req accountRequest
	if !h.bind(c, &req) {
		return
	}

	a := models.FinancialAccount{Status: string(finance.StatusPending)}
	if err := req.apply(h.db, &a, true); err != nil {
		httperr.FromError(c, err, "failed_to_create_account")
		return
	}

	// falha no upload desfaz o cadastro
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&a).Error; err != nil {
			return err
		}
		return h.attachReceipt(c, tx, &a)
	})
	if err != nil {
		httperr.FromError(c, err, "failed_to_create_account")
		return
	}

	writeAudit(h.audit, c, "account_created", "financial_account", a.ID, map[string]any{
		"tipo":  a.Tipo,
		"valor": a.Valor,
	})
	httpresp.Created(c, a)
}

func (h *FinancialHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var a models.FinancialAccount
	if err := findOr(h.db, &a, id, "account_not_found"); err != nil {
		httperr.FromError(c, err, "failed_to_update_account")
		return
	}

	var req accountRequest
	if !h.bind(c, &req) {
		return
	}
	if err := req.apply(h.db, &a, c.Request.Method == http.MethodPut); err != nil {
		httperr.FromError(c, err, "failed_to_update_account")
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Client", "Supplier").Save(&a).Error; err != nil {
			return err
		}
		return h.attachReceipt(c, tx, &a)
	})
	if err != nil {
		httperr.FromError(c, err, "failed_to_update_account")
		return
	}

	writeAudit(h.audit, c, "account_updated", "financial_account", a.ID, nil)
	httpresp.OK(c, a)
}

func (h *FinancialHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := deleteGuarded(h.db, &models.FinancialAccount{}, id, "account_not_found", "account_in_use"); err != nil {
		httperr.FromError(c, err, "failed_to_delete_account")
		return
	}

	writeAudit(h.audit, c, "account_deleted", "financial_account", id, nil)
	httpresp.NoContent(c)
}

// ======================================================
// ACTIONS
// ======================================================

type payRequest struct {
	DataPagamento  *string `json:"data_pagamento"`
	FormaPagamento *string `json:"forma_pagamento"`
}

func (h *FinancialHandler) Pay(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req payRequest
	// corpo opcional
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httperr.InvalidRequest(c, err)
			return
		}
	}

	paidAt := today()
	if req.DataPagamento != nil {
		d, err := parseOptionalDate(req.DataPagamento, "invalid_payment_date")
		if err != nil {
			httperr.FromError(c, err, "failed_to_pay_account")
			return
		}
		if d != nil {
			paidAt = *d
		}
	}

	var a models.FinancialAccount
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := findOr(tx, &a, id, "account_not_found"); err != nil {
			return err
		}
		if err := finance.Pay(&a, paidAt); err != nil {
			return err
		}
		if req.FormaPagamento != nil && !isBlank(req.FormaPagamento) {
			setString(&a.FormaPagamento, req.FormaPagamento)
			if !finance.IsValidPaymentMethod(a.FormaPagamento) {
				return httperr.ErrBusiness("invalid_payment_method")
			}
		}
		return tx.Model(&a).
			Select("status", "data_pagamento", "forma_pagamento").
			Updates(&a).Error
	})
	if err != nil {
		httperr.FromError(c, err, "failed_to_pay_account")
		return
	}

	writeAudit(h.audit, c, "account_paid", "financial_account", a.ID, map[string]any{
		"valor": a.Valor,
	})
	httpresp.OK(c, a)
}

func (h *FinancialHandler) PaymentLink(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var a models.FinancialAccount
	if err := findOr(h.db, &a, id, "account_not_found"); err != nil {
		httperr.FromError(c, err, "failed_to_create_payment_link")
		return
	}
	if err := finance.CanCreateLink(&a); err != nil {
		httperr.FromError(c, err, "failed_to_create_payment_link")
		return
	}

	link, err := h.payments.CreateLink(c.Request.Context(), payment.LinkRequest{
		AccountID: a.ID,
		Title:     a.Descricao,
		Amount:    a.Valor,
	})
	if err != nil {
		httperr.FromError(c, err, "failed_to_create_payment_link")
		return
	}

	a.PaymentLink = link.URL
	if err := h.db.Model(&a).Update("payment_link", link.URL).Error; err != nil {
		httperr.FromError(c, err, "failed_to_create_payment_link")
		return
	}

	writeAudit(h.audit, c, "payment_link_created", "financial_account", a.ID, map[string]any{
		"preference_id": link.PreferenceID,
	})
	httpresp.OK(c, gin.H{
		"conta":         a,
		"link":          link.URL,
		"preference_id": link.PreferenceID,
	})
}
