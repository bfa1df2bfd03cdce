package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const app = "assessrec"

// Global flag keys, also readable as ASSESSREC_ENV, ASSESSREC_CONFIG, ASSESSREC_LOG_LEVEL.
const (
	flagEnv      = "env"
	flagConfig   = "config"
	flagLogLevel = "log-level"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(strings.ToUpper(app))
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           app,
		Short:         "assessrec recommends assessments for job descriptions by semantic similarity",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String(flagEnv, "", "environment name selecting config/<env>.yaml (default $ENV or local)")
	flags.String(flagConfig, "", "explicit config file path (overrides --env lookup)")
	flags.String(flagLogLevel, "", "log level override: debug, info, warn, error")
	for _, name := range []string{flagEnv, flagConfig, flagLogLevel} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		newServeCmd(v),
		newBuildCmd(v),
		newRecommendCmd(v),
		newEvaluateCmd(v),
		newVersionCmd(),
	)
	return root
}
