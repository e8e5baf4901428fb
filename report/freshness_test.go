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
package report_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wenming2024/zhaocai/report"
)

var _ = Describe("IsStale", func() {
	now := time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC)

	It("treats missing data as stale", func() {
		Expect(report.IsStale(time.Time{}, report.DefaultFreshnessDays, now)).To(BeTrue())
	})

	It("treats recent data as fresh", func() {
		latest := now.AddDate(0, 0, -10)
		Expect(report.IsStale(latest, report.DefaultFreshnessDays, now)).To(BeFalse())
	})

	It("treats data older than the threshold as stale", func() {
		latest := now.AddDate(0, 0, -40)
		Expect(report.IsStale(latest, report.DefaultFreshnessDays, now)).To(BeTrue())
	})

	It("honors a custom threshold", func() {
		latest := now.AddDate(0, 0, -40)
		Expect(report.IsStale(latest, 90, now)).To(BeFalse())
	})
})
