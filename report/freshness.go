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
package report

import "time"

// DefaultFreshnessDays is how long stored statement data stays fresh
// before a batch refresh re-crawls the security.
const DefaultFreshnessDays = 30

// IsStale reports whether a security needs re-crawling: either nothing is
// stored yet (zero latest) or the newest stored report date is older than
// the threshold.
func IsStale(latestReportDate time.Time, thresholdDays int, now time.Time) bool {
	if latestReportDate.IsZero() {
		return true
	}

	age := now.Sub(latestReportDate)
	return age > time.Duration(thresholdDays)*24*time.Hour
}
