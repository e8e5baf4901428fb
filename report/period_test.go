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

	"github.com/wenming2024/zhaocai/data"
	"github.com/wenming2024/zhaocai/report"
)

func annualStatement(year int) *data.FinancialStatement {
	return &data.FinancialStatement{
		ReportDate: time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC),
	}
}

var _ = Describe("ResolvePeriod", func() {
	Context("with the latest token", func() {
		It("resolves to last year's annual report early in the year", func() {
			now := time.Date(2025, 2, 15, 10, 0, 0, 0, time.UTC)
			period, err := report.ResolvePeriod("latest", now)
			Expect(err).NotTo(HaveOccurred())
			Expect(period.Type).To(Equal(report.Annual))
			Expect(period.FiscalYear).To(Equal(2024))
			Expect(period.Date).To(Equal(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)))
		})

		It("resolves to Q1 during the second quarter", func() {
			now := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
			period, err := report.ResolvePeriod("latest", now)
			Expect(err).NotTo(HaveOccurred())
			Expect(period.Token()).To(Equal("2025-Q1"))
			Expect(period.Date).To(Equal(time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)))
		})

		It("resolves to Q2 during the third quarter", func() {
			now := time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC)
			period, err := report.ResolvePeriod("latest", now)
			Expect(err).NotTo(HaveOccurred())
			Expect(period.Token()).To(Equal("2025-Q2"))
			Expect(period.Date).To(Equal(time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)))
		})

		It("resolves to Q3 during the fourth quarter", func() {
			now := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
			period, err := report.ResolvePeriod("latest", now)
			Expect(err).NotTo(HaveOccurred())
			Expect(period.Token()).To(Equal("2025-Q3"))
			Expect(period.Date).To(Equal(time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC)))
		})
	})

	Context("with explicit tokens", func() {
		It("resolves an annual token to Dec 31", func() {
			period, err := report.ResolvePeriod("2023", time.Now())
			Expect(err).NotTo(HaveOccurred())
			Expect(period.Type).To(Equal(report.Annual))
			Expect(period.Quarter).To(BeZero())
			Expect(period.Date).To(Equal(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)))
		})

		It("resolves a quarterly token to the quarter close", func() {
			period, err := report.ResolvePeriod("2024-Q3", time.Now())
			Expect(err).NotTo(HaveOccurred())
			Expect(period.Type).To(Equal(report.Quarterly))
			Expect(period.Quarter).To(Equal(3))
			Expect(period.Date).To(Equal(time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)))
		})

		It("round-trips through Token", func() {
			for _, token := range []string{"2021", "2024-Q1", "2024-Q4"} {
				period, err := report.ResolvePeriod(token, time.Now())
				Expect(err).NotTo(HaveOccurred())
				Expect(period.Token()).To(Equal(token))
			}
		})
	})

	Context("with malformed tokens", func() {
		It("rejects them with ErrInvalidPeriodFormat", func() {
			for _, token := range []string{"", "24", "2024-Q5", "2024-Q0", "2024Q1", "garbage", "2024-q1"} {
				_, err := report.ResolvePeriod(token, time.Now())
				Expect(err).To(MatchError(report.ErrInvalidPeriodFormat), token)
			}
		})
	})
})

var _ = Describe("AnchorYear", func() {
	It("anchors Q1-Q3 to the prior fiscal year", func() {
		period, err := report.ResolvePeriod("2024-Q2", time.Now())
		Expect(err).NotTo(HaveOccurred())
		Expect(period.AnchorYear()).To(Equal(2023))
	})

	It("anchors Q4 to its own fiscal year", func() {
		period, err := report.ResolvePeriod("2024-Q4", time.Now())
		Expect(err).NotTo(HaveOccurred())
		Expect(period.AnchorYear()).To(Equal(2024))
	})

	It("anchors annual periods to their own fiscal year", func() {
		period, err := report.ResolvePeriod("2024", time.Now())
		Expect(err).NotTo(HaveOccurred())
		Expect(period.AnchorYear()).To(Equal(2024))
	})
})

var _ = Describe("PriorPeriodDate", func() {
	It("keeps the period shape while stepping back years", func() {
		period, err := report.ResolvePeriod("2024-Q2", time.Now())
		Expect(err).NotTo(HaveOccurred())
		Expect(period.PriorPeriodDate(2)).To(Equal(time.Date(2022, 6, 30, 0, 0, 0, 0, time.UTC)))

		annual, err := report.ResolvePeriod("2024", time.Now())
		Expect(err).NotTo(HaveOccurred())
		Expect(annual.PriorPeriodDate(3)).To(Equal(time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC)))
	})
})

var _ = Describe("TokenForDate", func() {
	It("maps December closes to annual tokens", func() {
		Expect(report.TokenForDate(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC))).To(Equal("2023"))
	})

	It("maps other closes to quarterly tokens", func() {
		Expect(report.TokenForDate(time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC))).To(Equal("2023-Q1"))
		Expect(report.TokenForDate(time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC))).To(Equal("2023-Q2"))
		Expect(report.TokenForDate(time.Date(2023, 9, 30, 0, 0, 0, 0, time.UTC))).To(Equal("2023-Q3"))
	})
})

var _ = Describe("NearestAnnual", func() {
	It("prefers the exact year when it exists", func() {
		statements := []*data.FinancialStatement{
			annualStatement(2021), annualStatement(2022), annualStatement(2023),
		}
		Expect(report.NearestAnnual(statements, 2022).ReportDate.Year()).To(Equal(2022))
	})

	It("minimizes distance when the exact year is missing", func() {
		statements := []*data.FinancialStatement{
			annualStatement(2019), annualStatement(2023),
		}
		Expect(report.NearestAnnual(statements, 2022).ReportDate.Year()).To(Equal(2023))
	})

	It("breaks distance ties toward the more recent year", func() {
		statements := []*data.FinancialStatement{
			annualStatement(2021), annualStatement(2023),
		}
		Expect(report.NearestAnnual(statements, 2022).ReportDate.Year()).To(Equal(2023))
	})

	It("ignores quarterly filings", func() {
		statements := []*data.FinancialStatement{
			{ReportDate: time.Date(2022, 6, 30, 0, 0, 0, 0, time.UTC)},
			annualStatement(2019),
		}
		Expect(report.NearestAnnual(statements, 2022).ReportDate.Year()).To(Equal(2019))
	})

	It("returns nil when no annual filings exist", func() {
		statements := []*data.FinancialStatement{
			{ReportDate: time.Date(2022, 6, 30, 0, 0, 0, 0, time.UTC)},
		}
		Expect(report.NearestAnnual(statements, 2022)).To(BeNil())
	})
})
