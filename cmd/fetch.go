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

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/wenming2024/zhaocai/healthcheck"
	"github.com/wenming2024/zhaocai/report"
)

var (
	fetchAll      bool
	skipFresh     bool
	maxAgeDays    int
	healthCheckID string
)

// fetchCmd crawls financial statement data for one or more securities
var fetchCmd = &cobra.Command{
	Use:   "fetch [securityCode...]",
	Short: "Crawl and store financial statement data for HK securities",
	Long: `Fetch downloads the four financial report categories for each security,
merges them into composite records and upserts them into the database.
Fetches are spaced out to stay under the provider's rate limits, so large
batches take a while. With --all the securities already in the database
are refreshed instead of an explicit list.`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary := openLibrary(ctx)
		defer myLibrary.Close()

		service := newService(myLibrary)

		securityCodes := args
		if fetchAll {
			securities, err := myLibrary.SecurityCodes(ctx)
			if err != nil {
				log.Fatal().Err(err).Msg("could not list stored securities")
			}
			for _, security := range securities {
				securityCodes = append(securityCodes, security.SecurityCode)
			}
		}

		if len(securityCodes) == 0 {
			log.Fatal().Msg("no securities to fetch; pass security codes or --all")
		}

		summary := service.RefreshBatch(ctx, securityCodes, skipFresh, maxAgeDays)

		log.Info().Int("Requested", summary.Requested).Int("Refreshed", summary.Refreshed).
			Int("Skipped", summary.Skipped).Int("Failed", len(summary.Failed)).
			Int64("RowsSaved", summary.RowsSaved).Msg("fetch complete")

		if len(summary.Failed) > 0 {
			log.Warn().Strs("SecurityCodes", summary.Failed).Msg("some securities failed to refresh")
		}

		if healthCheckID != "" {
			ping := healthcheck.Ping
			if summary.Refreshed == 0 && len(summary.Failed) > 0 {
				ping = healthcheck.PingFail
			}
			if err := ping(healthCheckID); err != nil {
				log.Error().Err(err).Msg("could not ping healthcheck")
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().BoolVar(&fetchAll, "all", false, "refresh every security already in the database")
	fetchCmd.Flags().BoolVar(&skipFresh, "skip-fresh", false, "skip securities whose data is still fresh")
	fetchCmd.Flags().IntVar(&maxAgeDays, "max-age", report.DefaultFreshnessDays, "freshness threshold in days used with --skip-fresh")
	fetchCmd.Flags().StringVar(&healthCheckID, "healthcheck", "", "healthchecks.io check id to ping on completion")
}
