package ports

import (
	"context"

	"github.com/alejandrodnm/spatialarb/internal/domain"
)

// Notifier presenta los runs al usuario.
type Notifier interface {
	// Notify muestra el resultado de un run.
	// En la implementación de consola, imprime una línea o una tabla formateada.
	Notify(ctx context.Context, run domain.Run) error
}

// Exporter escribe las oportunidades de un run en un formato tabular externo.
type Exporter interface {
	Export(ctx context.Context, runs []domain.Run) error
}
