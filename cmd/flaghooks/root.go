package main

import "github.com/spf13/cobra"

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	ctx := newCommandContext(flags)

	rootCmd := &cobra.Command{
		Use:           "flaghooks",
		Short:         "Send feature flag lifecycle webhooks",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "YAML configuration file path")
	rootCmd.PersistentFlags().StringVar(&flags.baseURL, "url", "", "Base webhook URL (overrides configuration)")
	rootCmd.PersistentFlags().StringArrayVarP(&flags.headers, "header", "H", nil, "Base header as key=value (repeatable)")

	rootCmd.AddCommand(newNotifyCommand(ctx))
	rootCmd.AddCommand(newEndpointsCommand(ctx))

	return rootCmd
}
