package domain

import (
	"math"
	"time"
)

// Run es el resultado de un escaneo completo con un threshold dado.
type Run struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Threshold float64
	Index     string // implementación del nearest lookup usada ("linear" | "sorted")
	RowsA     int
	RowsB     int

	Opportunities []Opportunity
	Summary       Summary
}

// Summary agrega las métricas de un conjunto de oportunidades.
type Summary struct {
	Total   int
	BuyA    int // SignalBuyA
	BuyB    int // SignalBuyB
	Invalid int // ganancias no finitas (precio a cero en algún feed)

	TotalUnitary float64 // solo valores finitos
	AvgPct       float64
	BestPct      float64
	Best         *Opportunity
}

// Summarize calcula el resumen de las oportunidades.
// Las filas con ganancia ±Inf/NaN se cuentan en Invalid y no entran en los promedios.
func Summarize(opps []Opportunity) Summary {
	var s Summary
	var sumPct float64
	finite := 0

	for i := range opps {
		o := opps[i]
		s.Total++
		switch o.Type {
		case SignalBuyA:
			s.BuyA++
		case SignalBuyB:
			s.BuyB++
		}

		if !isFinite(o.ProfitUnitary) || !isFinite(o.ProfitPercentage) {
			s.Invalid++
			continue
		}
		finite++
		s.TotalUnitary += o.ProfitUnitary
		sumPct += o.ProfitPercentage
		if s.Best == nil || o.ProfitPercentage > s.BestPct {
			s.BestPct = o.ProfitPercentage
			s.Best = &opps[i]
		}
	}

	if finite > 0 {
		s.AvgPct = sumPct / float64(finite)
	}
	return s
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
