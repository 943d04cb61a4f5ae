package handlers

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/models"
	"github.com/mandacaru/erp-api/internal/validators"
)

// reference aponta uma coluna que impede a exclusão do registro.
type reference struct {
	model  any
	column string
}

func inUse(db *gorm.DB, id uint, refs ...reference) (bool, error) {
	for _, r := range refs {
		var n int64
		if err := db.Model(r.model).Where(r.column+" = ?", id).Count(&n).Error; err != nil {
			return false, err
		}
		if n > 0 {
			return true, nil
		}
	}
	return false, nil
}

// deleteGuarded apaga o registro se nada o referencia. Em caso de erro o
// banco fica como estava.
func deleteGuarded(
	db *gorm.DB,
	model any,
	id uint,
	notFoundCode string,
	inUseCode string,
	refs ...reference,
) error {
	if err := db.First(model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.ErrBusiness(notFoundCode)
		}
		return err
	}

	busy, err := inUse(db, id, refs...)
	if err != nil {
		return err
	}
	if busy {
		return httperr.ErrBusiness(inUseCode)
	}

	if err := db.Select(clause.Associations).Delete(model).Error; err != nil {
		if httperr.IsForeignKeyViolation(err) {
			return httperr.ErrBusiness(inUseCode)
		}
		return err
	}
	return nil
}

func findOr(db *gorm.DB, dest any, id uint, notFoundCode string) error {
	return notFoundAs(db.First(dest, id).Error, notFoundCode)
}

// saveErr troca violação de unicidade pelo código específico do recurso.
func saveErr(err error, duplicateCode string) error {
	if err != nil && httperr.IsUniqueViolation(err) {
		return httperr.ErrBusiness(duplicateCode)
	}
	return err
}

// ======================================================
// Address
// ======================================================

type addressRequest struct {
	Logradouro *string `json:"logradouro"`
	Numero     *string `json:"numero"`
	Bairro     *string `json:"bairro"`
	Cidade     *string `json:"cidade"`
	UF         *string `json:"uf"`
	CEP        *string `json:"cep"`
}

func (r addressRequest) apply(a *models.Address) error {
	setString(&a.Logradouro, r.Logradouro)
	setString(&a.Numero, r.Numero)
	setString(&a.Bairro, r.Bairro)
	setString(&a.Cidade, r.Cidade)

	if r.UF != nil {
		uf := upper(*r.UF)
		if uf != "" && len(uf) != 2 {
			return httperr.ErrBusiness("invalid_uf")
		}
		a.UF = uf
	}
	if r.CEP != nil {
		cep := validators.OnlyDigits(*r.CEP)
		if cep != "" && len(cep) != 8 {
			return httperr.ErrBusiness("invalid_cep")
		}
		a.CEP = cep
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *trimPtr(v)
	}
}

func notFoundAs(err error, code string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httperr.ErrBusiness(code)
	}
	return err
}
