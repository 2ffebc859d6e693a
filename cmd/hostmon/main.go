package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stiventc/hostmon/internal/version"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "hostmon",
		Short:        "Host metrics monitor with a two-stage alarm system",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "hostmon.yml", "config file path")

	root.AddCommand(versionCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(watchCmd())

	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("hostmon %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
