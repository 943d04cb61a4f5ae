package handlers

import (
	"strings"
	"time"

	"github.com/mandacaru/erp-api/internal/httperr"
	"github.com/mandacaru/erp-api/internal/timezone"
)

// datas da API chegam como "YYYY-MM-DD" no fuso de Brasília

func parseDate(s string, code string) (time.Time, error) {
	d, err := timezone.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, httperr.ErrBusiness(code)
	}
	return d, nil
}

// parseOptionalDate: nil ou "" vira nil.
func parseOptionalDate(s *string, code string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	d, err := parseDate(*s, code)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func today() time.Time {
	return timezone.Today()
}
