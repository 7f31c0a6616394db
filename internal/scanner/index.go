package scanner

// index.go: búsqueda del timestamp más cercano en el feed A.
//
// Dos implementaciones con el mismo resultado:
//   - LinearIndex: recorre todo el feed por cada consulta, O(|A|). Es la
//     semántica de referencia.
//   - SortedIndex: ordena una vez y resuelve cada consulta con búsqueda binaria,
//     O(log |A|). Mismo desempate que la lineal.
//
// Desempate: entre todas las filas a distancia mínima gana la primera en el orden
// del feed A. Eso incluye timestamps duplicados (se toma la primera fila con ese
// timestamp) y equidistancias (t-d vs t+d: gana la que aparece antes en el feed).

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/alejandrodnm/spatialarb/internal/domain"
)

const (
	IndexLinear = "linear"
	IndexSorted = "sorted"
)

// NearestIndex resuelve, para un timestamp, la posición de la fila del feed A
// con el timestamp más cercano.
type NearestIndex interface {
	// Nearest devuelve la posición en el feed A, o -1 si el feed está vacío.
	Nearest(t time.Time) int
	Len() int
}

// NewIndex construye el índice indicado por kind sobre el feed A.
func NewIndex(kind string, feed domain.CandleFeed) (NearestIndex, error) {
	switch kind {
	case IndexLinear:
		return NewLinearIndex(feed), nil
	case IndexSorted, "":
		return NewSortedIndex(feed), nil
	default:
		return nil, fmt.Errorf("scanner.NewIndex: unknown index %q (want %s|%s)", kind, IndexLinear, IndexSorted)
	}
}

// LinearIndex es el argmin directo sobre el feed.
type LinearIndex struct {
	feed domain.CandleFeed
}

func NewLinearIndex(feed domain.CandleFeed) *LinearIndex {
	return &LinearIndex{feed: feed}
}

func (l *LinearIndex) Len() int { return len(l.feed) }

// Nearest devuelve el primer mínimo estricto: una fila posterior con la misma
// distancia nunca reemplaza a la anterior, así que el argmin ya es la primera
// fila con ese timestamp.
func (l *LinearIndex) Nearest(t time.Time) int {
	best := -1
	var bestDiff time.Duration
	for i, c := range l.feed {
		d := absDiff(c.Timestamp, t)
		if best < 0 || d < bestDiff {
			best = i
			bestDiff = d
		}
	}
	return best
}

// sortedEntry es un timestamp distinto del feed y la primera fila que lo tiene.
type sortedEntry struct {
	ts    time.Time
	first int
}

// SortedIndex guarda los timestamps distintos ordenados ascendentemente.
type SortedIndex struct {
	entries []sortedEntry
	n       int
}

// NewSortedIndex ordena (estable) y deduplica los timestamps del feed.
// El feed no necesita venir ordenado.
func NewSortedIndex(feed domain.CandleFeed) *SortedIndex {
	all := make([]sortedEntry, len(feed))
	for i, c := range feed {
		all[i] = sortedEntry{ts: c.Timestamp, first: i}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].ts.Before(all[j].ts)
	})

	// Tras el sort estable, el primer elemento de cada grupo es la fila más temprana
	entries := make([]sortedEntry, 0, len(all))
	for _, e := range all {
		if n := len(entries); n > 0 && entries[n-1].ts.Equal(e.ts) {
			continue
		}
		entries = append(entries, e)
	}
	return &SortedIndex{entries: entries, n: len(feed)}
}

func (s *SortedIndex) Len() int { return s.n }

func (s *SortedIndex) Nearest(t time.Time) int {
	if len(s.entries) == 0 {
		return -1
	}

	// Primer timestamp >= t
	i := sort.Search(len(s.entries), func(i int) bool {
		return !s.entries[i].ts.Before(t)
	})

	switch {
	case i == 0:
		return s.entries[0].first
	case i == len(s.entries):
		return s.entries[i-1].first
	}

	lower, upper := s.entries[i-1], s.entries[i]
	dl, du := absDiff(lower.ts, t), absDiff(upper.ts, t)
	switch {
	case dl < du:
		return lower.first
	case du < dl:
		return upper.first
	default:
		// Equidistantes: gana la que aparece antes en el feed A
		if lower.first < upper.first {
			return lower.first
		}
		return upper.first
	}
}

// absDiff devuelve |a - b|. time.Sub satura en los extremos; el abs de
// math.MinInt64 también se satura para no volver a ser negativo.
func absDiff(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		if d == math.MinInt64 {
			return math.MaxInt64
		}
		return -d
	}
	return d
}
