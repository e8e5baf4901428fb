// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cmd

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/wenming2024/zhaocai/analysis"
	"github.com/wenming2024/zhaocai/library"
	"github.com/wenming2024/zhaocai/provider"
	"github.com/wenming2024/zhaocai/report"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "zhaocai",
	Short: "zhaocai maintains a database of HK financial statements and values securities",
	Long: `zhaocai is a command line utility for building and maintaining a database
of financial statement data for Hong Kong listed securities and running
cash-flow based valuations against it.

Statement data is crawled from the exchange data provider, merged into one
composite record per (security, report period) and stored in PostgreSQL.
Reports combine the stored fundamentals with price history, a DCF and
reverse-DCF valuation, and optional model-generated qualitative analysis.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.zhaocai.toml)")
	rootCmd.PersistentFlags().String("dbUrl", "", "database connection string")
	if err := viper.BindPFlag("DBUrl", rootCmd.PersistentFlags().Lookup("dbUrl")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for dbUrl failed")
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".zhaocai" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("toml")
		viper.SetConfigName(".zhaocai")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Info().Str("ConfigFN", viper.ConfigFileUsed()).Msg("Using config file")
	}
}

// openLibrary connects to the configured database or exits
func openLibrary(ctx context.Context) *library.Library {
	dbURL := viper.GetString("DBUrl")
	if dbURL == "" {
		log.Fatal().Msg("no database connection string configured; run `zhaocai init` or set --dbUrl")
	}

	myLibrary, err := library.NewFromDB(ctx, dbURL)
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to database")
	}

	return myLibrary
}

// newService wires the report service used by the data commands
func newService(myLibrary *library.Library) *report.Service {
	return report.NewService(myLibrary, provider.NewClient(), analysis.NewClient())
}
