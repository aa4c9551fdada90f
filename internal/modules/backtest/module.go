package backtest

import (
	"context"
	"time"

	"go.uber.org/fx"

	"trade_tracker/internal/backtest"
	"trade_tracker/internal/config"
	"trade_tracker/internal/metrics"
	"trade_tracker/internal/modules/backtest/service"
	health "trade_tracker/internal/modules/health/service"
	"trade_tracker/internal/notify"
	"trade_tracker/internal/storage"
	"trade_tracker/pkg/db"
	"trade_tracker/pkg/logger"
)

func NewNotifier(cfg *config.Config) (notify.Notifier, error) {
	return notify.New(cfg.Telegram.Token, cfg.Telegram.ChatID)
}

// NewEngine связывает движок с метриками и прогрессом для /healthz.
func NewEngine(cfg *config.Config, m *metrics.Metrics, n notify.Notifier, state *health.State) (*backtest.Engine, error) {
	return backtest.NewFromConfig(cfg, m, n, backtest.WithProgress(func(r backtest.Result) {
		state.InstrumentDone(r.Halted(), time.Now())
	}))
}

type sinkParams struct {
	fx.In

	Lc  fx.Lifecycle
	Cfg *config.Config
	Tx  db.TxManager `optional:"true"`
}

// NewSink выбирает хранилище аудита; для postgres схема создаётся на старте.
func NewSink(p sinkParams) (storage.Sink, error) {
	sink, err := storage.NewSink(p.Cfg, p.Tx)
	if err != nil {
		return nil, err
	}
	if pg, ok := sink.(*storage.PostgresSink); ok {
		p.Lc.Append(fx.StartHook(func(ctx context.Context) error {
			logger.Info("ensuring tracker schema")
			return pg.EnsureSchema(ctx)
		}))
	}
	return sink, nil
}

func Module() fx.Option {
	return fx.Module("backtest",
		fx.Provide(
			metrics.New,
			NewNotifier,
			NewEngine,
			NewSink,
			func(s *health.State) service.Progress { return s },
			service.NewRunner,
		),
	)
}
