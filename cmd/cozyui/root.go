package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cozyui",
	Short: "CozyUI is a real-time collaboration server for shared workflow editing",
	Long: `CozyUI lets multiple users edit node-graph generation workflows together,
relaying cursor positions, node selections, and graph changes between
everyone working in the same session.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
}
