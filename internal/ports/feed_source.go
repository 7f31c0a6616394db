package ports

import (
	"context"

	"github.com/alejandrodnm/spatialarb/internal/domain"
)

// FeedSource carga los dos feeds ya materializados, en su orden de almacenamiento.
type FeedSource interface {
	// LoadCandles devuelve las filas del feed A (low/high/volume).
	LoadCandles(ctx context.Context) (domain.CandleFeed, error)

	// LoadTicks devuelve las filas del feed B (price/volume).
	LoadTicks(ctx context.Context) (domain.TickFeed, error)
}
