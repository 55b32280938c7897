package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/warp/statpay/config"
	"github.com/warp/statpay/factory"
)

// app carries resolved configuration from the root command to subcommands.
type app struct {
	v          *viper.Viper
	cfg        config.Config
	configFile string
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:           "statpay",
		Short:         "Statutory holiday pay and leave entitlement engine",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (yaml, json or toml)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "console", "log format (console or json)")
	pf.String("rules-file", "", "rule table file; empty uses the embedded Canadian table")
	a.bind(pf, "log_level", "log-level")
	a.bind(pf, "log_format", "log-format")
	a.bind(pf, "rules_file", "rules-file")

	root.AddCommand(serveCmd(a))
	root.AddCommand(computeCmd(a))
	root.AddCommand(rulesCmd(a))
	root.AddCommand(holidaysCmd(a))
	return root
}

// bind maps a flag onto a config key. A flag only overrides the key when
// it is set on the command line.
func (a *app) bind(fs *pflag.FlagSet, key, flag string) {
	if err := a.v.BindPFlag(key, fs.Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind %s: %v", flag, err))
	}
}

func (a *app) load() error {
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	lvl, _ := cfg.Level()
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.LogFormat == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return nil
}

// ruleTable loads the configured rule table file, or the embedded default.
func (a *app) ruleTable(path string) (*factory.RuleTable, string, error) {
	if path == "" {
		path = a.cfg.RulesFile
	}
	if path == "" {
		rt, err := factory.Default()
		return rt, "embedded", err
	}
	rt, err := factory.LoadFile(path)
	return rt, path, err
}
