package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nikbrunner/bmsync/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	var pathOnly bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Print the configuration after defaults and BM_* environment overrides
are applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pathOnly {
				fmt.Fprintln(cmd.OutOrStdout(), a.cfgPath)
				return nil
			}
			shown := *a.cfg
			shown.Server.Accounts = make([]config.Account, len(a.cfg.Server.Accounts))
			for i, acct := range a.cfg.Server.Accounts {
				acct.Token = "<redacted>"
				shown.Server.Accounts[i] = acct
			}
			data, err := yaml.Marshal(shown)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", a.cfgPath, data)
			return nil
		},
	}
	cmd.Flags().BoolVar(&pathOnly, "path", false, "only print the config file path")
	return cmd
}
