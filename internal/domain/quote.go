package domain

import "time"

// Candle es una fila del feed A: rango de precios de un intervalo.
// Se lee una vez y no se modifica.
type Candle struct {
	Timestamp time.Time
	Low       float64 // precio mínimo negociado en el intervalo
	High      float64 // precio máximo negociado en el intervalo
	Volume    float64 // cantidad negociada (columna "Volume BTC" en los dumps OHLCV habituales)
}

// Tick es una fila del feed B: un único precio de trade/quote.
type Tick struct {
	Timestamp time.Time
	Price     float64
	Volume    float64
}

// Feed A y feed B como series ordenadas. El orden de almacenamiento importa:
// define los desempates del scanner y el orden del resultado.
type (
	CandleFeed []Candle
	TickFeed   []Tick
)
