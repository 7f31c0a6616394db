package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Total)
	assert.Nil(t, s.Best)
	assert.Equal(t, 0.0, s.AvgPct)
}

func TestSummarize_CountsAndBest(t *testing.T) {
	opps := []Opportunity{
		BuildOpportunity(candle(100, 110), tick(105), 0), // A, 5 / 0.05
		BuildOpportunity(candle(100, 110), tick(95), 0),  // B, 15 / 0.1579
		BuildOpportunity(candle(100, 110), tick(102), 0), // A, 2 / 0.02
	}

	s := Summarize(opps)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.BuyA)
	assert.Equal(t, 1, s.BuyB)
	assert.Equal(t, 0, s.Invalid)
	assert.InDelta(t, 22.0, s.TotalUnitary, 1e-9)
	assert.InDelta(t, (0.05+15.0/95+0.02)/3, s.AvgPct, 1e-12)

	require.NotNil(t, s.Best)
	assert.Equal(t, SignalBuyB, s.Best.Type)
	assert.InDelta(t, 15.0/95, s.BestPct, 1e-12)
}

func TestSummarize_NonFiniteExcludedFromAverages(t *testing.T) {
	opps := []Opportunity{
		BuildOpportunity(candle(0, 10), tick(5), 0), // +Inf
		BuildOpportunity(candle(100, 110), tick(105), 0),
	}
	require.True(t, math.IsInf(opps[0].ProfitPercentage, 1))

	s := Summarize(opps)
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.Invalid)
	assert.InDelta(t, 0.05, s.AvgPct, 1e-12)
	assert.InDelta(t, 0.05, s.BestPct, 1e-12)
}
