package main

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bankbot",
		Short:         "Banking assistant: rule-driven dialogue engine with a classifier fallback",
		Long:          "bankbot answers retail banking questions and runs card, ATM, loan, account opening and fund transfer conversations over HTTP or in the terminal.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newChatCmd(),
		newAccountsCmd(),
	)
	return rootCmd
}
