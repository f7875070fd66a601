package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"snowsearch/pkg/errors"
)

var (
	verbose bool

	rootCmd = &cobra.Command{
		Use:   "snowsearch",
		Short: "Explore and ingest Snowflake data from the terminal",
		Long: "SnowSearch - an interactive CLI for exploring warehouse data: " +
			"saved templated searches, ad-hoc joins, CSV ingestion and announcements.",
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		errors.GetGlobalErrorHandler().Handle(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose error output")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		errors.GetGlobalErrorHandler().SetVerbose(verbose)
	}
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	home, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(home + "/.snowsearch")
	}

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found is okay, setup creates it
	}
}
