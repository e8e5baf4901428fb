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

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// datesCmd lists the report periods stored for a security
var datesCmd = &cobra.Command{
	Use:   "dates securityCode",
	Short: "List the report periods available for a security",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		securityCode := args[0]

		myLibrary := openLibrary(ctx)
		defer myLibrary.Close()

		service := newService(myLibrary)

		tokens, err := service.AvailableReportDates(ctx, securityCode)
		if err != nil {
			log.Fatal().Err(err).Str("SecurityCode", securityCode).Msg("could not list report dates")
		}

		if len(tokens) == 0 {
			log.Warn().Str("SecurityCode", securityCode).Msg("no data stored; run `zhaocai fetch` first")
			return
		}

		fmt.Printf("%s (%s.HK):\n", service.SecurityName(ctx, securityCode), securityCode)
		for _, token := range tokens {
			fmt.Printf("  %s\n", token)
		}
	},
}

func init() {
	rootCmd.AddCommand(datesCmd)
}
