package scanner

import (
	"context"
	"errors"
	"fmt"

	"github.com/alejandrodnm/spatialarb/internal/domain"
)

// ErrEmptyFeed se devuelve si el feed A no tiene filas: sin filas no existe
// timestamp más cercano.
var ErrEmptyFeed = errors.New("feed A is empty")

// Aligner empareja cada fila del feed B con la fila del feed A de timestamp más
// cercano. El índice se construye una vez y se reutiliza entre thresholds.
type Aligner struct {
	candles  domain.CandleFeed
	index    NearestIndex
	progress ProgressFunc
	every    int
}

// NewAligner crea un Aligner sobre el feed A con el índice dado.
// progress puede ser nil; every <= 0 usa el default de 1000 filas.
func NewAligner(candles domain.CandleFeed, index NearestIndex, progress ProgressFunc, every int) *Aligner {
	if progress == nil {
		progress = noProgress
	}
	if every <= 0 {
		every = defaultProgressEvery
	}
	return &Aligner{
		candles:  candles,
		index:    index,
		progress: progress,
		every:    every,
	}
}

// Find recorre el feed B en orden y devuelve una oportunidad por cada fila cuya
// señal no sea SignalNone. El resultado conserva el orden del feed B.
func (a *Aligner) Find(ctx context.Context, ticks domain.TickFeed, threshold float64) ([]domain.Opportunity, error) {
	if len(a.candles) == 0 || a.index.Len() == 0 {
		return nil, fmt.Errorf("scanner.Find: %w", ErrEmptyFeed)
	}

	var opps []domain.Opportunity
	for i, tick := range ticks {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scanner.Find: row %d: %w", i, err)
		}

		pos := a.index.Nearest(tick.Timestamp)
		if pos < 0 || pos >= len(a.candles) {
			return nil, fmt.Errorf("scanner.Find: row %d: index returned position %d for %d candles", i, pos, len(a.candles))
		}
		candle := a.candles[pos]

		if domain.Classify(candle, tick, threshold).IsOpportunity() {
			opps = append(opps, domain.BuildOpportunity(candle, tick, threshold))
		}

		if processed := i + 1; processed%a.every == 0 {
			a.progress(processed, len(ticks))
		}
	}
	return opps, nil
}

// FindOpportunities es el scan de referencia: índice lineal, aviso de progreso
// cada 1000 filas vía slog.
func FindOpportunities(ctx context.Context, candles domain.CandleFeed, ticks domain.TickFeed, threshold float64) ([]domain.Opportunity, error) {
	a := NewAligner(candles, NewLinearIndex(candles), LogProgress(threshold, 0), defaultProgressEvery)
	return a.Find(ctx, ticks, threshold)
}
