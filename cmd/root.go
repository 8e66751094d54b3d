package cmd

import (
	"github.com/spf13/cobra"

	"github.com/RianMcHale/Container-Security-Scanner/internal/config"
)

var (
	cfgFile   string
	debugMode bool
)

var rootCmd = &cobra.Command{
	Use:   "container-security-scanner",
	Short: "Scan container images with Trivy and serve the results over HTTP",
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	cobra.OnInitialize(func() {
		config.Init(cfgFile)
	})
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.config/container-security-scanner/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")
}
