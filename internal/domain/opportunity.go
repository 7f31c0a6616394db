package domain

import "time"

// Opportunity es una fila terminal del resultado: un par A/B cuya ganancia
// supera el threshold. Se crea una vez y no se modifica.
type Opportunity struct {
	Timestamp time.Time // timestamp del Tick (el resultado sigue el calendario de B)
	Type      Signal

	ProfitUnitary    float64 // ganancia en unidades de moneda
	ProfitPercentage float64 // ganancia fraccional: ProfitUnitary / denominador de Type

	PriceAHigh float64
	PriceALow  float64
	PriceB     float64
	VolumeA    float64
	VolumeB    float64

	Threshold float64 // threshold con el que se clasificó
}

// BuildOpportunity arma el registro completo para el par (a, b).
//
// Clasifica una sola vez y deriva ambas ganancias de esa señal; los valores son
// idénticos a llamar Classify, ProfitUnitary y ProfitPercentage por separado.
func BuildOpportunity(a Candle, b Tick, threshold float64) Opportunity {
	signal := Classify(a, b, threshold)
	return Opportunity{
		Timestamp:        b.Timestamp,
		Type:             signal,
		ProfitUnitary:    unitaryFor(signal, a, b),
		ProfitPercentage: percentageFor(signal, a, b),
		PriceAHigh:       a.High,
		PriceALow:        a.Low,
		PriceB:           b.Price,
		VolumeA:          a.Volume,
		VolumeB:          b.Volume,
		Threshold:        threshold,
	}
}

// Denominator devuelve el precio de compra sobre el que se calcula el porcentaje:
// Low de A para SignalBuyA, precio de B para SignalBuyB, 0 si no hay señal.
func (o Opportunity) Denominator() float64 {
	switch o.Type {
	case SignalBuyA:
		return o.PriceALow
	case SignalBuyB:
		return o.PriceB
	default:
		return 0
	}
}

// BuyPrice y SellPrice describen las dos patas de la operación.
func (o Opportunity) BuyPrice() float64 {
	return o.Denominator()
}

func (o Opportunity) SellPrice() float64 {
	switch o.Type {
	case SignalBuyA:
		return o.PriceB
	case SignalBuyB:
		return o.PriceAHigh
	default:
		return 0
	}
}
