package main

import (
	"catalog-assistant/internal/common/config"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "catalog-assistant",
	Short: "Conversational product catalog assistant",
	Long: `catalog-assistant answers natural-language questions about a product catalog:
prices, costs, margins, stock, dimensions, comparisons and listings by status,
category or creation date. It asks back when a product name is ambiguous.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: ./configs/config.yaml)")
	rootCmd.AddCommand(serveCmd, askCmd, repliesCmd)
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFromFile(cfgFile)
	}
	return config.Load()
}
