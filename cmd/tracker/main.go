package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"trade_tracker/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	root := &cobra.Command{
		Use:          "tracker",
		Short:        "Replays recorded market data through position trackers",
		SilenceUsage: true,
	}

	f := root.PersistentFlags()
	f.String("config", "", "config file (default $CONFIG_FILE or "+config.DefaultPath+")")
	f.String("log-level", "", "debug|info|warn|error")
	f.Int("workers", 0, "parallel instrument replays")
	f.String("audit-format", "", "none|json|parquet|postgres")
	f.String("horizon", "", "RFC3339 time after which events are not replayed")
	_ = v.BindPFlags(f)

	v.SetEnvPrefix("TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root.AddCommand(
		newBacktestCmd(v),
		newRadCmd(),
		newConfigCmd(v),
	)
	return root
}

// overrides applies flags and TRACKER_* variables on top of the config file.
func overrides(v *viper.Viper) func(*config.Config) error {
	return func(cfg *config.Config) error {
		if s := v.GetString("log-level"); s != "" {
			cfg.Log.Level = s
		}
		if n := v.GetInt("workers"); n > 0 {
			cfg.Backtest.Workers = n
		}
		if s := v.GetString("audit-format"); s != "" {
			cfg.Backtest.Audit.Format = s
		}
		if s := v.GetString("horizon"); s != "" {
			cfg.Backtest.Horizon = s
		}
		return nil
	}
}

func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg, err := config.Load(v.GetString("config"))
	if err != nil {
		return nil, err
	}
	if err := overrides(v)(cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func newConfigCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			out, err := cfg.Dump()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
