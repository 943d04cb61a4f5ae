package money

import "math"

// Round2 arredonda para centavos (meio para longe do zero).
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round3 é usado para quantidades de estoque (litros, metros, kg).
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
