package cmd

import (
	"github.com/netrixframework/qlearn/cmd/run"
	"github.com/netrixframework/qlearn/cmd/table"
	"github.com/netrixframework/qlearn/config"
	"github.com/spf13/cobra"
)

// RootCmd returns the root cobra command of the tool
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "qlearn",
		Short:        "Tabular Q-learning on the FrozenLake grid world",
		SilenceUsage: true,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.PersistentFlags().StringVarP(&config.ConfigPath, "config", "c", "", "Config file path (JSON or YAML)")
	cmd.AddCommand(run.RunCmd())
	cmd.AddCommand(table.TableCmd())
	return cmd
}
