package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/vbazhenov/go-bound-cache/config"
	"github.com/vbazhenov/go-bound-cache/internal/model"
)

type statsSource struct {
	mu sync.Mutex
	m  model.Metrics

	scans   int64
	removed int64
}

func (s *statsSource) Metrics() model.Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m
}

func (s *statsSource) SweeperMetrics() (int64, int64, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scans, 0, s.removed
}

func (s *statsSource) set(m model.Metrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = m
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func telemetryCfg() *config.TelemetryCfg {
	return &config.TelemetryCfg{
		LogsEnabled:  true,
		LogsInterval: config.Duration(time.Second),
		Namespace:    "boundcache",
	}
}

func TestLogsEmitsPeriodicStats(t *testing.T) {
	buf := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(buf, nil))
	src := &statsSource{}
	src.set(model.Metrics{Hits: 4, Misses: 1, Items: 2, SizeBytes: 128, HitRate: 0.8})
	mock := clock.NewMock()

	l := New(context.Background(), telemetryCfg(), logger, src, src, mock)
	defer l.Close()

	require.Equal(t, time.Second, l.Interval())

	mock.Add(time.Second)
	require.Eventually(t, func() bool {
		out := buf.String()
		return contains(out, "cache stats") && contains(out, "hits_delta=4")
	}, time.Second, 5*time.Millisecond)
}

func TestLogsReportsDeltasBetweenTicks(t *testing.T) {
	buf := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(buf, nil))
	src := &statsSource{}
	src.set(model.Metrics{Hits: 10})
	mock := clock.NewMock()

	l := New(context.Background(), telemetryCfg(), logger, src, src, mock)
	defer l.Close()

	mock.Add(time.Second)
	require.Eventually(t, func() bool {
		return contains(buf.String(), "hits_delta=10")
	}, time.Second, 5*time.Millisecond)

	src.set(model.Metrics{Hits: 13})
	mock.Add(time.Second)
	require.Eventually(t, func() bool {
		return contains(buf.String(), "hits_delta=3")
	}, time.Second, 5*time.Millisecond)
}

func TestLogsDisabledStaysSilent(t *testing.T) {
	buf := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(buf, nil))
	src := &statsSource{}
	mock := clock.NewMock()

	cfg := telemetryCfg()
	cfg.LogsEnabled = false
	l := New(context.Background(), cfg, logger, src, src, mock)
	defer l.Close()

	mock.Add(10 * time.Second)
	time.Sleep(20 * time.Millisecond)
	require.Empty(t, buf.String())
}

func TestLogsCloseStopsLoop(t *testing.T) {
	buf := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(buf, nil))
	src := &statsSource{}
	mock := clock.NewMock()

	l := New(context.Background(), telemetryCfg(), logger, src, src, mock)
	require.NoError(t, l.Close())

	time.Sleep(10 * time.Millisecond)
	before := buf.String()
	mock.Add(5 * time.Second)
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, before, buf.String())
}

func contains(s, sub string) bool {
	return bytes.Contains([]byte(s), []byte(sub))
}
