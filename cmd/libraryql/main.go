// cmd/libraryql/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"libraryql/internal/apperr"
	"libraryql/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if apperr.IsKind(err, apperr.Configuration) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var configFile string

	root := &cobra.Command{
		Use:           "libraryql",
		Short:         "GraphQL API for authors, books, users and rentals",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			if configFile == "" {
				return nil
			}
			v.SetConfigFile(configFile)
			if err := v.ReadInConfig(); err != nil {
				return apperr.Configurationf("read config file %s: %v", configFile, err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "Optional config file (yaml, json or toml).")
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(newServeCmd(v), newCheckCmd(v))
	return root
}

func newCheckCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration ok: env=%s port=%d database=%s\n",
				cfg.Env, cfg.Port, cfg.Database.Name)
			return nil
		},
	}
}
