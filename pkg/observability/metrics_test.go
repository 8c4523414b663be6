package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnStepComplete(ctx, &domain.StepEvent{Step: "search_web", Duration: 200 * time.Millisecond})
	hooks.OnStepComplete(ctx, &domain.StepEvent{Step: "search_web", Error: "boom"})
	hooks.OnRunComplete(ctx, &domain.RunEvent{Status: domain.StatusCompleted})
	hooks.OnRunComplete(ctx, &domain.RunEvent{Status: domain.StatusFailed})
	hooks.OnRunComplete(ctx, &domain.RunEvent{Status: domain.StatusCompleted})

	m.ObserveCache("hit")
	m.ObserveCache("miss")
	m.ObserveCache("hit")
	m.SnapshotFailed(domain.Snapshot{}, errors.New("disk full"))

	assert.Equal(t, 2, testutil.CollectAndCount(reg, "espalier_step_duration_seconds"))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 4)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `espalier_runs_total{status="completed"} 2`)
	assert.Contains(t, body, `espalier_runs_total{status="failed"} 1`)
	assert.Contains(t, body, `espalier_search_cache_total{result="hit"} 2`)
	assert.Contains(t, body, `espalier_snapshot_failures_total 1`)
	assert.Contains(t, body, `espalier_step_duration_seconds_count{status="failed",step="search_web"} 1`)
}

func TestCombine(t *testing.T) {
	var order []string
	a := domain.LifecycleHooks{
		OnRunStart: func(context.Context, *domain.RunEvent) { order = append(order, "a") },
	}
	b := domain.LifecycleHooks{
		OnRunStart:     func(context.Context, *domain.RunEvent) { order = append(order, "b") },
		OnStepComplete: func(context.Context, *domain.StepEvent) { order = append(order, "b-step") },
	}

	hooks := observability.Combine(a, b)
	hooks.OnRunStart(context.Background(), &domain.RunEvent{})
	hooks.OnStepComplete(context.Background(), &domain.StepEvent{})
	hooks.OnStepStart(context.Background(), &domain.StepEvent{})
	hooks.OnRunComplete(context.Background(), &domain.RunEvent{})

	assert.Equal(t, []string{"a", "b", "b-step"}, order)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	hooks := observability.LoggingHooks(logger)
	ctx := context.Background()

	hooks.OnStepComplete(ctx, &domain.StepEvent{
		EventBase: domain.EventBase{RunID: "r1"},
		Step:      "generate_queries",
		Diff:      &domain.StateDiff{Fields: []string{"search_queries"}},
	})
	hooks.OnRunComplete(ctx, &domain.RunEvent{Status: domain.StatusFailed, Error: "search_web: boom"})

	out := buf.String()
	assert.Contains(t, out, `"msg":"step_complete"`)
	assert.Contains(t, out, `"changed":["search_queries"]`)
	assert.Contains(t, out, `"level":"ERROR"`)
	assert.Contains(t, out, `"err":"search_web: boom"`)
}
