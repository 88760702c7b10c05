package render

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/spray.report/internal/timeutil"
)

func TestMetricsRenderer_CountsVisits(t *testing.T) {
	muteLogs(t)
	reg := prometheus.NewRegistry()
	m, err := NewMetricsRenderer(reg)
	require.NoError(t, err)

	plan := testPlan(t, 20)
	player := &Player{Clock: timeutil.NewAutoClock(time.Unix(0, 0))}
	for i := 0; i < 2; i++ {
		_, err := player.Play(context.Background(), "r", plan, m)
		require.NoError(t, err)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RunsTotal))
	assert.Equal(t, float64(2*len(plan.Ordered)), testutil.ToFloat64(m.VisitsTotal))
	assert.InDelta(t, 2*plan.Summary.TotalArea, testutil.ToFloat64(m.SprayedArea), 1e-6)
	assert.InDelta(t, plan.Summary.RequiredPasses, testutil.ToFloat64(m.RequiredPasses), 1e-9)
	assert.Equal(t, 1, testutil.CollectAndCount(m.PestSize))
}

func TestMetricsRenderer_ReRegisterReuses(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewMetricsRenderer(reg)
	require.NoError(t, err)
	b, err := NewMetricsRenderer(reg)
	require.NoError(t, err)

	a.RunsTotal.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(b.RunsTotal))
}

func TestMetricsRenderer_WriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetricsRenderer(reg)
	require.NoError(t, err)
	m.VisitsTotal.Add(3)

	path := filepath.Join(t.TempDir(), "spray.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "spray_visits_total 3"), string(data))
}
