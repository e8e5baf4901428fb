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
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/wenming2024/zhaocai/report"
	"github.com/xeonx/timeago"
)

var statusMaxAge int

// statusCmd summarizes what is stored and how fresh it is
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored securities, their record counts and data freshness",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary := openLibrary(ctx)
		defer myLibrary.Close()

		securities, err := myLibrary.SecurityCodes(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not list stored securities")
		}

		if len(securities) == 0 {
			log.Warn().Msg("database is empty; run `zhaocai fetch` first")
			return
		}

		now := time.Now()
		stale := 0

		fmt.Printf("%-10s %-16s %8s %14s %20s %s\n",
			"CODE", "NAME", "RECORDS", "LATEST", "UPDATED", "STATUS")

		for _, security := range securities {
			total, err := myLibrary.TotalRecords(ctx, security.SecurityCode)
			if err != nil {
				log.Error().Err(err).Str("SecurityCode", security.SecurityCode).
					Msg("could not count records")
				continue
			}

			latest, err := myLibrary.LatestReportDate(ctx, security.SecurityCode)
			if err != nil {
				log.Error().Err(err).Str("SecurityCode", security.SecurityCode).
					Msg("could not read latest report date")
				continue
			}

			status := "fresh"
			if report.IsStale(latest, statusMaxAge, now) {
				status = "stale"
				stale++
			}

			fmt.Printf("%-10s %-16s %8d %14s %20s %s\n",
				security.SecurityCode, security.SecurityNameAbbr, total,
				latest.Format(time.DateOnly), timeago.Chinese.Format(latest), status)
		}

		fmt.Printf("\n%d securities, %d stale (threshold %d days)\n",
			len(securities), stale, statusMaxAge)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().IntVar(&statusMaxAge, "max-age", report.DefaultFreshnessDays, "freshness threshold in days")
}
