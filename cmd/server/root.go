package main

import (
	"github.com/spf13/cobra"

	"desk-agent/config"
)

// newRootCmd 构建命令树；不带子命令时等同 serve
func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "desk-agent",
		Short:         "Turns a spoken command plus window context into a desktop action batch",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfgFile)
		},
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default config/$APP_ENV.yaml)")

	root.AddCommand(
		newServeCmd(&cfgFile),
		newPromptCmd(),
		newMediateCmd(),
	)
	return root
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
