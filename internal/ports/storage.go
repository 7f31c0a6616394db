package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/spatialarb/internal/domain"
)

// Storage persiste los resultados de cada escaneo.
type Storage interface {
	// SaveRun persiste el resumen del run y todas sus oportunidades.
	SaveRun(ctx context.Context, run domain.Run) error

	// GetRuns devuelve los runs iniciados en el rango de tiempo dado (sin oportunidades).
	GetRuns(ctx context.Context, from, to time.Time) ([]domain.Run, error)

	// GetOpportunities devuelve las oportunidades de un run en el orden del feed B.
	GetOpportunities(ctx context.Context, runID string) ([]domain.Opportunity, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
