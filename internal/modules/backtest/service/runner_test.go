package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade_tracker/internal/backtest"
	"trade_tracker/internal/config"
	"trade_tracker/internal/storage"
	"trade_tracker/internal/tracker"
)

type fakeSink struct {
	run     storage.RunInfo
	results []backtest.Result
	err     error
}

func (s *fakeSink) Save(_ context.Context, run storage.RunInfo, results []backtest.Result) error {
	s.run, s.results = run, results
	return s.err
}

type fakeNotifier struct{ msgs []string }

func (n *fakeNotifier) Send(msg string)                 { n.msgs = append(n.msgs, msg) }
func (n *fakeNotifier) Sendf(format string, args ...any) {}

type fakeProgress struct {
	mu     sync.Mutex
	runID  string
	total  int
	done   int
	halted int
	ready  []bool
}

func (p *fakeProgress) BeginRun(runID string, total int) { p.runID, p.total = runID, total }
func (p *fakeProgress) SetReady(v bool)                  { p.ready = append(p.ready, v) }
func (p *fakeProgress) InstrumentDone(halted bool, _ time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	if halted {
		p.halted++
	}
}

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	bars := "time,open,high,low,close,volume\n" +
		"2024-01-02T00:00:00Z,100,101,99,100.5,1\n" +
		"2024-01-02T01:00:00Z,100.5,102,100,101.5,1\n" +
		"2024-01-02T02:00:00Z,101.5,103,101,102.5,1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bars.csv"), []byte(bars), 0o644))

	cfg := config.Default()
	cfg.Backtest.DataDir = dir
	cfg.Backtest.Workers = 2
	cfg.Telegram.Token = "secret"
	cfg.Instruments = []config.Instrument{
		{Name: "TEST:A", Bars: "bars.csv", Preset: tracker.DefaultPreset()},
		{Name: "TEST:B", Bars: "bars.csv", Preset: tracker.DefaultPreset()},
	}
	return &cfg
}

func newTestRunner(t *testing.T, cfg *config.Config, sink storage.Sink, n *fakeNotifier, p *fakeProgress) *Runner {
	e, err := backtest.NewFromConfig(cfg, nil, n, backtest.WithProgress(func(r backtest.Result) {
		p.InstrumentDone(r.Halted(), time.Now())
	}))
	require.NoError(t, err)
	r := NewRunner(cfg, e, sink, n, p)
	r.newID = func() string { return "run-42" }
	return r
}

func TestRunnerRun(t *testing.T) {
	cfg := testConfig(t)
	sink, n, p := &fakeSink{}, &fakeNotifier{}, &fakeProgress{}

	rep, err := newTestRunner(t, cfg, sink, n, p).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "run-42", rep.Run.ID)
	require.Len(t, rep.Results, 2)
	assert.Equal(t, 0, rep.Halted())
	assert.False(t, rep.Run.FinishedAt.Before(rep.Run.StartedAt))

	assert.Equal(t, "run-42", sink.run.ID)
	assert.Len(t, sink.results, 2)
	masked, ok := sink.run.Config.(*config.Config)
	require.True(t, ok)
	assert.Equal(t, "***", masked.Telegram.Token)
	assert.Equal(t, "secret", cfg.Telegram.Token)

	assert.Equal(t, "run-42", p.runID)
	assert.Equal(t, 2, p.total)
	assert.Equal(t, 2, p.done)
	assert.Equal(t, []bool{true, false}, p.ready)

	require.Len(t, n.msgs, 1)
	assert.Contains(t, n.msgs[0], "run-42")
	assert.Contains(t, n.msgs[0], "TEST:B")

	sums := rep.Summaries()
	require.Len(t, sums, 2)
	assert.Equal(t, "TEST:A", sums[0].Instrument)
	// без сигналов позиция не открывается
	assert.Equal(t, 0.0, sums[0].Quantity)
	assert.Equal(t, 0, sums[0].Trades)
}

func TestRunnerSaveError(t *testing.T) {
	cfg := testConfig(t)
	sink, n, p := &fakeSink{err: errors.New("disk full")}, &fakeNotifier{}, &fakeProgress{}

	rep, err := newTestRunner(t, cfg, sink, n, p).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save audit")
	assert.Len(t, rep.Results, 2)
	assert.Empty(t, n.msgs)
}

func TestRunnerLoadError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Instruments[0].Bars = "missing.csv"
	sink, n, p := &fakeSink{}, &fakeNotifier{}, &fakeProgress{}

	_, err := newTestRunner(t, cfg, sink, n, p).Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, p.runID)
	assert.Empty(t, sink.run.ID)
}
