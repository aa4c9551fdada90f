package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"trade_tracker/internal/config"
	backtestmodule "trade_tracker/internal/modules/backtest"
	"trade_tracker/internal/modules/backtest/service"
	configmodule "trade_tracker/internal/modules/config"
	"trade_tracker/internal/modules/health"
	"trade_tracker/internal/modules/postgres"
	"trade_tracker/pkg/logger"
	"trade_tracker/pkg/tracing"
)

func newBacktestCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "backtest",
		Short: "Run every configured instrument and store the audit trail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var runner *service.Runner
			app := fx.New(
				fx.NopLogger,
				configmodule.Module(configmodule.Params{
					Path:      v.GetString("config"),
					Overrides: overrides(v),
				}),
				fx.Invoke(initTracing),
				postgres.Module(),
				health.Module(),
				backtestmodule.Module(),
				fx.Populate(&runner),
			)
			if err := app.Err(); err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := app.Start(ctx); err != nil {
				return err
			}
			defer func() {
				if err := app.Stop(context.Background()); err != nil {
					logger.Warn("shutdown: %v", err)
				}
				logger.Sync()
			}()

			rep, err := runner.Run(ctx)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), rep)
			return nil
		},
	}
}

func initTracing(lc fx.Lifecycle, cfg *config.Config) error {
	tracing.SetServiceName(cfg.Service.Name)
	_, closer, err := tracing.InitTracer(tracing.Config{
		Enabled: cfg.Tracing.Enabled,
		Host:    cfg.Tracing.Host,
		Port:    cfg.Tracing.Port,
	})
	if err != nil {
		return err
	}
	lc.Append(fx.StopHook(closer))
	return nil
}

func printReport(w io.Writer, rep service.Report) {
	fmt.Fprintf(w, "run %s\n", rep.Run.ID)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"instrument", "strategy", "status", "qty", "avg", "stop", "pnl", "trades", "stops", "hits", "bars", "signals"})
	for _, r := range rep.Results {
		s := r.Summary
		status := string(r.Stop)
		if r.Err != nil {
			status += ": " + r.Err.Error()
		}
		table.Append([]string{
			r.Instrument,
			string(r.Strategy),
			status,
			num(s.Quantity),
			num(s.AveragePrice),
			num(s.Stop),
			num(s.RealizedPnL),
			strconv.Itoa(s.Trades),
			strconv.Itoa(s.StopUpdates),
			strconv.Itoa(s.StopHits),
			strconv.Itoa(r.Bars),
			fmt.Sprintf("%d/%d", r.Accepted, r.Signals),
		})
	}
	table.Render()
}

func num(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
