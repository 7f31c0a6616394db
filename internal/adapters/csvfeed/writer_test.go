package csvfeed_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alejandrodnm/spatialarb/internal/adapters/csvfeed"
	"github.com/alejandrodnm/spatialarb/internal/domain"
	"github.com/alejandrodnm/spatialarb/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.Exporter = (*csvfeed.Writer)(nil)

var ts = time.Date(2024, 1, 1, 0, 0, 10, 0, time.UTC)

func sampleRuns() []domain.Run {
	a := domain.Candle{Timestamp: ts, Low: 100, High: 110, Volume: 2}
	return []domain.Run{
		{Threshold: 0, Opportunities: []domain.Opportunity{
			domain.BuildOpportunity(a, domain.Tick{Timestamp: ts, Price: 105, Volume: 0.5}, 0),
			domain.BuildOpportunity(a, domain.Tick{Timestamp: ts.Add(time.Second), Price: 95, Volume: 0.25}, 0),
		}},
		{Threshold: 0.1, Opportunities: []domain.Opportunity{
			domain.BuildOpportunity(a, domain.Tick{Timestamp: ts.Add(time.Second), Price: 95, Volume: 0.25}, 0.1),
		}},
	}
}

func readBack(t *testing.T, data string) [][]string {
	t.Helper()
	rows, err := csv.NewReader(strings.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := csvfeed.NewWriter(csvfeed.WriterConfig{})
	require.NoError(t, w.Write(context.Background(), &buf, sampleRuns()))

	rows := readBack(t, buf.String())
	require.Len(t, rows, 4)
	assert.Equal(t, csvfeed.Header, rows[0])

	assert.Equal(t, []string{"2024-01-01T00:00:10Z", "1", "5", "0.05", "110", "100", "105", "2", "0.5", "0"}, rows[1])
	assert.Equal(t, "-1", rows[2][1])
	assert.Equal(t, "15", rows[2][2])
	assert.Equal(t, "0.15789474", rows[2][3])
	assert.Equal(t, "0.1", rows[3][9])
}

func TestWriter_NonFinite(t *testing.T) {
	a := domain.Candle{Timestamp: ts, Low: 0, High: 10}
	opp := domain.BuildOpportunity(a, domain.Tick{Timestamp: ts, Price: 5}, 0)
	require.True(t, math.IsInf(opp.ProfitPercentage, 1))

	var buf bytes.Buffer
	w := csvfeed.NewWriter(csvfeed.WriterConfig{Precision: 2})
	require.NoError(t, w.Write(context.Background(), &buf, []domain.Run{{Opportunities: []domain.Opportunity{opp}}}))

	rows := readBack(t, buf.String())
	require.Len(t, rows, 2)
	assert.Equal(t, "+Inf", rows[1][3])
	assert.Equal(t, "5", rows[1][2])
}

func TestWriter_EmptyRunsWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, csvfeed.NewWriter(csvfeed.WriterConfig{}).Write(context.Background(), &buf, nil))
	assert.Equal(t, strings.Join(csvfeed.Header, ",")+"\n", buf.String())
}

func TestWriter_ExportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w := csvfeed.NewWriter(csvfeed.WriterConfig{Path: path})
	require.NoError(t, w.Export(context.Background(), sampleRuns()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, readBack(t, string(data)), 4)
}

func TestWriter_ExportBadPath(t *testing.T) {
	w := csvfeed.NewWriter(csvfeed.WriterConfig{Path: filepath.Join(t.TempDir(), "missing", "out.csv")})
	assert.Error(t, w.Export(context.Background(), sampleRuns()))
}

func TestWriter_ExportDashWritesToStdout(t *testing.T) {
	var buf bytes.Buffer
	w := csvfeed.NewWriter(csvfeed.WriterConfig{Path: "-", Stdout: &buf})
	require.NoError(t, w.Export(context.Background(), sampleRuns()))

	assert.Len(t, readBack(t, buf.String()), 4)
	_, err := os.Stat("-")
	assert.True(t, os.IsNotExist(err))
}
