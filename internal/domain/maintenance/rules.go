package maintenance

import (
	"time"

	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/models"
)

type Kind string

const (
	KindPreventive Kind = "preventiva"
	KindCorrective Kind = "corretiva"
)

func IsValidKind(k Kind) bool {
	return k == KindPreventive || k == KindCorrective
}

// Validate confere um registro contra o último horímetro conhecido do
// equipamento (excluindo o próprio registro, em caso de edição).
func Validate(rec *models.MaintenanceRecord, lastHorimetro *float64) error {
	if !IsValidKind(Kind(rec.Tipo)) {
		return httperr.ErrBusiness("invalid_maintenance_type")
	}
	if rec.Horimetro < 0 {
		return httperr.ErrBusiness("invalid_horimetro")
	}
	if Kind(rec.Tipo) == KindPreventive && rec.Proxima == nil {
		return httperr.ErrBusiness("next_maintenance_required")
	}
	if rec.Proxima != nil && !rec.Proxima.After(rec.Data) {
		return httperr.ErrBusiness("invalid_next_maintenance")
	}
	if lastHorimetro != nil && rec.Horimetro <= *lastHorimetro {
		return httperr.ErrBusiness("horimetro_not_increasing")
	}
	return nil
}

// ApplyToEquipment propaga leitura e próxima data ao equipamento.
// Leituras antigas não regridem o horímetro e a próxima data só vem do
// registro mais recente.
func ApplyToEquipment(eq *models.Equipment, rec *models.MaintenanceRecord, newest bool) {
	if rec.Horimetro > eq.Horimetro {
		eq.Horimetro = rec.Horimetro
	}
	if newest && rec.Proxima != nil {
		next := *rec.Proxima
		eq.ProximaManutencao = &next
	}
}

// IsDue: manutenção vencida ou dentro da janela informada.
func IsDue(eq models.Equipment, now time.Time, window time.Duration) bool {
	if eq.ProximaManutencao == nil {
		return false
	}
	return !eq.ProximaManutencao.After(now.Add(window))
}
