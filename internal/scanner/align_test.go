package scanner_test

import (
	"context"
	"testing"

	"github.com/alejandrodnm/spatialarb/internal/domain"
	"github.com/alejandrodnm/spatialarb/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tickAt(sec int, price float64) domain.Tick {
	return domain.Tick{Timestamp: at(sec), Price: price, Volume: 0.5}
}

func TestFindOpportunities_Scenarios(t *testing.T) {
	candles := domain.CandleFeed{
		{Timestamp: at(0), Low: 100, High: 110, Volume: 1},
		{Timestamp: at(60), Low: 100, High: 100, Volume: 2},
	}
	ticks := domain.TickFeed{
		tickAt(0, 105),  // A: +1, 5, 0.05
		tickAt(2, 95),   // A: -1, 15, 0.1579
		tickAt(60, 100), // B: flat → sin registro
	}

	opps, err := scanner.FindOpportunities(context.Background(), candles, ticks, 0)
	require.NoError(t, err)
	require.Len(t, opps, 2)

	assert.Equal(t, domain.SignalBuyA, opps[0].Type)
	assert.InDelta(t, 5.0, opps[0].ProfitUnitary, 1e-12)
	assert.InDelta(t, 0.05, opps[0].ProfitPercentage, 1e-12)
	assert.Equal(t, at(0), opps[0].Timestamp)

	assert.Equal(t, domain.SignalBuyB, opps[1].Type)
	assert.InDelta(t, 15.0, opps[1].ProfitUnitary, 1e-12)
	assert.InDelta(t, 0.1579, opps[1].ProfitPercentage, 1e-4)
	assert.Equal(t, at(2), opps[1].Timestamp, "timestamp del tick, no de la candle")
	assert.Equal(t, 1.0, opps[1].VolumeA)
}

func TestFindOpportunities_ThresholdFiltersAll(t *testing.T) {
	candles := domain.CandleFeed{{Timestamp: at(0), Low: 100, High: 110}}
	ticks := domain.TickFeed{tickAt(0, 105)}

	opps, err := scanner.FindOpportunities(context.Background(), candles, ticks, 0.10)
	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestFindOpportunities_EmptyFeedA(t *testing.T) {
	_, err := scanner.FindOpportunities(context.Background(), nil, domain.TickFeed{tickAt(0, 1)}, 0)
	assert.ErrorIs(t, err, scanner.ErrEmptyFeed)
}

func TestFindOpportunities_EmptyFeedB(t *testing.T) {
	opps, err := scanner.FindOpportunities(context.Background(), candlesAt(0), nil, 0)
	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestFindOpportunities_UsesNearestCandle(t *testing.T) {
	candles := domain.CandleFeed{
		{Timestamp: at(0), Low: 200, High: 200},   // lejos
		{Timestamp: at(100), Low: 100, High: 100}, // cercano a 90
	}
	opps, err := scanner.FindOpportunities(context.Background(), candles, domain.TickFeed{tickAt(90, 101)}, 0)
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, 100.0, opps[0].PriceALow)
	assert.Equal(t, domain.SignalBuyA, opps[0].Type)
}

func TestAligner_OutputIsOrderedSubsequenceWithoutNone(t *testing.T) {
	candles := candlesAt(0, 30, 60, 90) // low 100, high 110
	var ticks domain.TickFeed
	for i := 0; i < 50; i++ {
		// alterna precios dentro y fuera del rango [100,110]
		ticks = append(ticks, tickAt(i*2, 90+float64(i%25)))
	}

	for _, kind := range []string{scanner.IndexLinear, scanner.IndexSorted} {
		idx, err := scanner.NewIndex(kind, candles)
		require.NoError(t, err)

		opps, err := scanner.NewAligner(candles, idx, nil, 0).Find(context.Background(), ticks, 0.02)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(opps), len(ticks))

		last := -1
		for _, o := range opps {
			assert.NotEqual(t, domain.SignalNone, o.Type)
			pos := -1
			for j := last + 1; j < len(ticks); j++ {
				if ticks[j].Timestamp.Equal(o.Timestamp) {
					pos = j
					break
				}
			}
			require.Greater(t, pos, last, "orden del feed B")
			last = pos
		}
	}
}

func TestAligner_LinearAndSortedAgree(t *testing.T) {
	candles := domain.CandleFeed{
		{Timestamp: at(120), Low: 98, High: 103},
		{Timestamp: at(0), Low: 100, High: 110},
		{Timestamp: at(60), Low: 101, High: 104},
		{Timestamp: at(60), Low: 90, High: 120},
	}
	var ticks domain.TickFeed
	for s := -10; s < 200; s += 3 {
		ticks = append(ticks, tickAt(s, 95+float64(s%13)))
	}

	linear, err := scanner.NewAligner(candles, scanner.NewLinearIndex(candles), nil, 0).Find(context.Background(), ticks, 0)
	require.NoError(t, err)
	sorted, err := scanner.NewAligner(candles, scanner.NewSortedIndex(candles), nil, 0).Find(context.Background(), ticks, 0)
	require.NoError(t, err)
	assert.Equal(t, linear, sorted)
}

func TestAligner_ProgressEveryN(t *testing.T) {
	candles := candlesAt(0)
	ticks := make(domain.TickFeed, 2500)
	for i := range ticks {
		ticks[i] = tickAt(i, 100)
	}

	var calls []int
	progress := func(processed, total int) {
		calls = append(calls, processed)
		assert.Equal(t, 2500, total)
	}

	_, err := scanner.NewAligner(candles, scanner.NewSortedIndex(candles), progress, 1000).
		Find(context.Background(), ticks, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{1000, 2000}, calls)
}

func TestAligner_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	candles := candlesAt(0)
	_, err := scanner.NewAligner(candles, scanner.NewLinearIndex(candles), nil, 0).
		Find(ctx, domain.TickFeed{tickAt(0, 105)}, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
