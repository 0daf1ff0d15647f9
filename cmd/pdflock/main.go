// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdflock CLI, a thin front-end
// over the batch conversion-and-encryption pipeline.
// See docs/ARCHITECTURE § Front-Ends.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the pdflock CLI.
var rootCmd = &cobra.Command{
	Use:   "pdflock",
	Short: "Convert documents to password-protected PDFs",
	Long: `pdflock turns batches of documents (PDF, Word, Excel, PowerPoint) into
AES-256 password-protected PDFs. Office documents are converted to PDF
first, through installed Microsoft Office where available or a headless
LibreOffice otherwise, then encrypted and written under collision-free
names.

Already-protected PDFs are rejected: unlock them out-of-band before
running them through pdflock.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pdflock.yaml or ~/.config/pdflock/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pdflock")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pdflock"))
		}
	}

	viper.SetEnvPrefix("PDFLOCK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
