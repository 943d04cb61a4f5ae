package fuel

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mandacaru/erp-api/internal/domain/money"
	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/models"
)

type Origin string

const (
	OriginStock   Origin = "ALMOXARIFADO"
	OriginStation Origin = "POSTO_EXTERNO"
)

type Measure string

const (
	MeasureHours Measure = "HORIMETRO"
	MeasureKm    Measure = "QUILOMETRAGEM"
)

const numberPrefix = "AB"

func Validate(r *models.FuelRecord) error {
	switch Origin(r.Origem) {
	case OriginStock:
		if r.ProductID == nil {
			return httperr.ErrBusiness("missing_fuel_product")
		}
	case OriginStation:
	default:
		return httperr.ErrBusiness("invalid_fuel_origin")
	}

	switch Measure(r.TipoMedicao) {
	case MeasureHours, MeasureKm:
	default:
		return httperr.ErrBusiness("invalid_measurement_type")
	}

	if r.QuantidadeLitros <= 0 {
		return httperr.ErrBusiness("invalid_quantity")
	}
	if r.PrecoLitro < 0 {
		return httperr.ErrBusiness("invalid_amount")
	}
	if r.MedicaoAtual < 0 {
		return httperr.ErrBusiness("invalid_measurement")
	}
	return nil
}

// Total = litros × preço, em centavos.
func Total(r models.FuelRecord) float64 {
	return money.Round2(r.QuantidadeLitros * r.PrecoLitro)
}

// Consumption devolve litros por hora (ou por km) desde o abastecimento
// anterior; nil sem leitura anterior válida.
func Consumption(r models.FuelRecord) *float64 {
	if r.MedicaoAnterior <= 0 || r.MedicaoAtual <= r.MedicaoAnterior {
		return nil
	}
	v := money.Round2(r.QuantidadeLitros / (r.MedicaoAtual - r.MedicaoAnterior))
	return &v
}

// NumberPrefix: "AB" + ano e mês, ex. AB202406.
func NumberPrefix(now time.Time) string {
	return numberPrefix + now.Format("200601")
}

// NextNumber continua a sequência do mês a partir do último número emitido
// ("" quando ainda não há nenhum).
func NextNumber(now time.Time, last string) string {
	prefix := NumberPrefix(now)
	seq := 1
	if strings.HasPrefix(last, prefix) {
		if n, err := strconv.Atoi(strings.TrimPrefix(last, prefix)); err == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s%04d", prefix, seq)
}

// CanEdit: registro aprovado não muda mais
func CanEdit(r models.FuelRecord) error {
	if r.Aprovado {
		return httperr.ErrBusiness("invalid_state")
	}
	return nil
}

func Approve(r *models.FuelRecord, userID uint, now time.Time) error {
	if err := CanEdit(*r); err != nil {
		return err
	}
	r.Aprovado = true
	r.AprovadoPor = &userID
	r.DataAprovacao = &now
	return nil
}
