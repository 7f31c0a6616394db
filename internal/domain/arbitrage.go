package domain

// Signal es el resultado tri-estado de la clasificación de un par A/B.
type Signal int

const (
	SignalBuyB Signal = -1 // comprar en B, vender en A (al high de A)
	SignalNone Signal = 0  // sin oportunidad
	SignalBuyA Signal = 1  // comprar en A (al low de A), vender en B
)

func (s Signal) String() string {
	switch s {
	case SignalBuyA:
		return "BUY_A_SELL_B"
	case SignalBuyB:
		return "BUY_B_SELL_A"
	default:
		return "NONE"
	}
}

// IsOpportunity devuelve true para cualquier señal distinta de SignalNone.
func (s Signal) IsOpportunity() bool {
	return s != SignalNone
}

// --- Funciones de cálculo ---
//
// Ninguna protege denominadores a cero: un Low o Price de 0 produce ±Inf o NaN
// según IEEE-754 y el valor se propaga tal cual. NaN nunca supera el threshold.

// profitBuyingA es el retorno de comprar al low de A y vender al precio de B.
func profitBuyingA(a Candle, b Tick) float64 {
	return (b.Price - a.Low) / a.Low
}

// profitBuyingB es el retorno de comprar al precio de B y vender al high de A.
func profitBuyingB(a Candle, b Tick) float64 {
	return (a.High - b.Price) / b.Price
}

// Classify decide si el par (a, b) supera el threshold en alguna dirección.
//
// El orden de evaluación es fijo: primero A→B, luego B→A. Si ambas direcciones
// superan el threshold gana SignalBuyA.
func Classify(a Candle, b Tick, threshold float64) Signal {
	if profitBuyingA(a, b) > threshold {
		return SignalBuyA
	}
	if profitBuyingB(a, b) > threshold {
		return SignalBuyB
	}
	return SignalNone
}

// ProfitUnitary calcula la ganancia en unidades de moneda de la dirección que
// elige Classify. Devuelve 0 si no hay oportunidad.
func ProfitUnitary(a Candle, b Tick, threshold float64) float64 {
	return unitaryFor(Classify(a, b, threshold), a, b)
}

// ProfitPercentage calcula la ganancia fraccional (0.05 = 5%) de la dirección
// que elige Classify. Devuelve 0 si no hay oportunidad.
func ProfitPercentage(a Candle, b Tick, threshold float64) float64 {
	return percentageFor(Classify(a, b, threshold), a, b)
}

func unitaryFor(s Signal, a Candle, b Tick) float64 {
	switch s {
	case SignalBuyA:
		return b.Price - a.Low
	case SignalBuyB:
		return a.High - b.Price
	default:
		return 0
	}
}

// percentageFor usa exactamente las mismas expresiones que Classify para que
// el valor coincida bit a bit con el que decidió la señal.
func percentageFor(s Signal, a Candle, b Tick) float64 {
	switch s {
	case SignalBuyA:
		return profitBuyingA(a, b)
	case SignalBuyB:
		return profitBuyingB(a, b)
	default:
		return 0
	}
}
