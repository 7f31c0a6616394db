package notify_test

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/alejandrodnm/spatialarb/internal/adapters/notify"
	"github.com/alejandrodnm/spatialarb/internal/domain"
	"github.com/alejandrodnm/spatialarb/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.Notifier = (*notify.Console)(nil)

var ts = time.Date(2024, 5, 2, 14, 30, 0, 0, time.UTC)

func makeRun(threshold float64, prices ...float64) domain.Run {
	a := domain.Candle{Timestamp: ts, Low: 100, High: 110, Volume: 3}
	var opps []domain.Opportunity
	for i, p := range prices {
		tick := domain.Tick{Timestamp: ts.Add(time.Duration(i) * time.Minute), Price: p, Volume: 0.2}
		if domain.Classify(a, tick, threshold).IsOpportunity() {
			opps = append(opps, domain.BuildOpportunity(a, tick, threshold))
		}
	}
	return domain.Run{
		ID:            "5f1c2a9e-7b7d-4f36-9a8e-0d6b0c1e2f3a",
		Threshold:     threshold,
		Index:         "sorted",
		RowsA:         1,
		RowsB:         len(prices),
		Opportunities: opps,
		Summary:       domain.Summarize(opps),
	}
}

func TestConsole_Compact(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false, 0)

	require.NoError(t, n.Notify(context.Background(), makeRun(0, 105, 95)))

	out := buf.String()
	assert.Contains(t, out, "2 opps (buyA:1 buyB:1)")
	assert.Contains(t, out, "best 15.7895%")
	assert.Contains(t, out, "BUY_B_SELL_A")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestConsole_Compact_NoOpportunities(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false, 0)

	require.NoError(t, n.Notify(context.Background(), makeRun(0.5, 105)))
	assert.Contains(t, buf.String(), "no opportunities found")
}

func TestConsole_Table(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true, 0)

	require.NoError(t, n.Notify(context.Background(), makeRun(0, 105, 95)))

	out := buf.String()
	assert.Contains(t, out, "RUN 5f1c2a9e")
	assert.Contains(t, out, "BUY_A_SELL_B")
	assert.Contains(t, out, "5.0000%")
	assert.Contains(t, out, "Buy A / Buy B: 1 / 1")
	assert.NotContains(t, out, "WARNING")
}

func TestConsole_Table_TopLimit(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true, 2)

	require.NoError(t, n.Notify(context.Background(), makeRun(0, 101, 102, 103, 104, 105)))

	out := buf.String()
	assert.Contains(t, out, "(top 2 of 5 by profit %)")
	assert.Contains(t, out, "5.0000%")
	assert.NotContains(t, out, "1.0000%")
}

func TestConsole_Table_NonFiniteWarning(t *testing.T) {
	a := domain.Candle{Timestamp: ts, Low: 0, High: 10}
	opp := domain.BuildOpportunity(a, domain.Tick{Timestamp: ts, Price: 5}, 0)
	require.True(t, math.IsInf(opp.ProfitPercentage, 1))
	run := domain.Run{ID: "x", RowsB: 1, Opportunities: []domain.Opportunity{opp}, Summary: domain.Summarize([]domain.Opportunity{opp})}

	var buf bytes.Buffer
	require.NoError(t, notify.NewConsoleWriter(&buf, true, 0).Notify(context.Background(), run))
	assert.Contains(t, buf.String(), "WARNING: 1 rows with non-finite profit")
	assert.Contains(t, buf.String(), fmt.Sprintf("%v", math.Inf(1)))
}

func TestConsole_PrintHistory(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true, 0)

	n.PrintHistory(nil)
	assert.Contains(t, buf.String(), "no runs stored")

	buf.Reset()
	n.PrintHistory([]domain.Run{makeRun(0, 105, 95), makeRun(0.1, 105, 95)})
	out := buf.String()
	assert.Contains(t, out, "5f1c2a9e")
	assert.Contains(t, out, "10.0000%")
}
