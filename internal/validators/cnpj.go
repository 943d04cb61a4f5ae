package validators

import "strings"

// OnlyDigits remove pontuação de documentos e CEP.
func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsCNPJ valida os dois dígitos verificadores. Aceita com ou sem máscara.
func IsCNPJ(v string) bool {
	d := OnlyDigits(v)
	if len(d) != 14 {
		return false
	}

	// 00000000000000, 11111111111111... passam no cálculo mas não existem
	if strings.Count(d, d[:1]) == 14 {
		return false
	}

	return d[12] == cnpjDigit(d[:12]) && d[13] == cnpjDigit(d[:13])
}

func cnpjDigit(base string) byte {
	weights := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	offset := len(weights) - len(base)

	sum := 0
	for i := 0; i < len(base); i++ {
		sum += int(base[i]-'0') * weights[offset+i]
	}

	rest := sum % 11
	if rest < 2 {
		return '0'
	}
	return byte('0' + 11 - rest)
}

// NormalizeCNPJ devolve só os dígitos, ou "" quando inválido.
func NormalizeCNPJ(v string) string {
	if !IsCNPJ(v) {
		return ""
	}
	return OnlyDigits(v)
}
