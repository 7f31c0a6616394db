package scanner

import (
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

const defaultProgressEvery = 1000

// ProgressFunc recibe el número de filas del feed B procesadas y el total.
// Es solo diagnóstico: no afecta al resultado del scan.
type ProgressFunc func(processed, total int)

// LogProgress devuelve un ProgressFunc que escribe a slog.
//
// Con feeds muy grandes el aviso cada N filas inunda el log; rate.Sometimes deja
// pasar el primero y después como mucho uno por interval. interval <= 0 loguea todos.
func LogProgress(threshold float64, interval time.Duration) ProgressFunc {
	limiter := &rate.Sometimes{Every: 1}
	if interval > 0 {
		limiter = &rate.Sometimes{First: 1, Interval: interval}
	}
	return func(processed, total int) {
		limiter.Do(func() {
			slog.Info("scan progress",
				"processed", processed,
				"total", total,
				"threshold", threshold,
			)
		})
	}
}

// noProgress descarta los avisos.
func noProgress(int, int) {}
