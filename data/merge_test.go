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
package data_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wenming2024/zhaocai/data"
)

var _ = Describe("MergeStatements", func() {
	var indicators []data.IndicatorRow

	BeforeEach(func() {
		indicators = []data.IndicatorRow{
			{
				SecurityCode:     "00700",
				SecurityNameAbbr: "腾讯控股",
				ReportDate:       "2024-12-31 00:00:00",
				FiscalYear:       "12-31",
				OperateIncome:    660_000_000_000,
				NetcashOperate:   220_000_000_000,
			},
			{
				SecurityCode:   "00700",
				ReportDate:     "2024-06-30 00:00:00",
				NetcashOperate: 100_000_000_000,
			},
		}
	})

	It("creates one composite record per indicator row", func() {
		merged := data.MergeStatements(indicators, nil, nil, nil)
		Expect(merged).To(HaveLen(2))
		Expect(merged[0].ReportDate).To(Equal(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)))
		Expect(merged[0].SecurityNameAbbr).To(Equal("腾讯控股"))
		Expect(merged[1].ReportDate).To(Equal(time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)))
	})

	It("attaches line items from the secondary categories", func() {
		balance := []data.LineItemRow{{
			SecurityCode: "00700",
			ReportDate:   "2024-12-31 00:00:00",
			StdItemCode:  "004001",
			StdItemName:  "总资产",
			Amount:       1_800_000_000_000,
		}}
		cashflow := []data.LineItemRow{{
			SecurityCode: "00700",
			ReportDate:   "2024-06-30 00:00:00",
			StdItemCode:  "005012",
			StdItemName:  "经营活动产生的现金流量净额",
			Amount:       100_000_000_000,
		}}

		merged := data.MergeStatements(indicators, balance, nil, cashflow)
		Expect(merged[0].BalanceItemName).To(Equal("总资产"))
		Expect(merged[0].BalanceAmount).To(Equal(1_800_000_000_000.0))
		Expect(merged[0].CashflowItemCode).To(BeEmpty())
		Expect(merged[1].CashflowItemCode).To(Equal("005012"))
	})

	It("drops line items whose report date has no indicator row", func() {
		income := []data.LineItemRow{{
			SecurityCode: "00700",
			ReportDate:   "2019-12-31 00:00:00",
			StdItemCode:  "006001",
			Amount:       42,
		}}

		merged := data.MergeStatements(indicators, nil, income, nil)
		Expect(merged).To(HaveLen(2))
		for _, statement := range merged {
			Expect(statement.IncomeItemCode).To(BeEmpty())
		}
	})

	It("overwrites in place when an indicator key repeats", func() {
		indicators = append(indicators, data.IndicatorRow{
			SecurityCode:   "00700",
			ReportDate:     "2024-12-31 00:00:00",
			OperateIncome:  661_000_000_000,
			NetcashOperate: 221_000_000_000,
		})

		merged := data.MergeStatements(indicators, nil, nil, nil)
		Expect(merged).To(HaveLen(2))
		Expect(merged[0].OperateIncome).To(Equal(661_000_000_000.0))
	})

	It("skips indicator rows with unparseable report dates", func() {
		indicators = append(indicators, data.IndicatorRow{
			SecurityCode: "00700",
			ReportDate:   "not-a-date",
		})

		merged := data.MergeStatements(indicators, nil, nil, nil)
		Expect(merged).To(HaveLen(2))
	})

	It("keeps securities separate even on the same report date", func() {
		indicators = append(indicators, data.IndicatorRow{
			SecurityCode:   "00941",
			ReportDate:     "2024-12-31 00:00:00",
			OperateIncome:  1,
			NetcashOperate: 1,
		})

		merged := data.MergeStatements(indicators, nil, nil, nil)
		Expect(merged).To(HaveLen(3))
		Expect(merged[0].OperateIncome).To(Equal(660_000_000_000.0))
	})
})

var _ = Describe("FinancialStatement", func() {
	It("recognizes annual filings by their Dec 31 close", func() {
		annual := &data.FinancialStatement{
			ReportDate: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		}
		interim := &data.FinancialStatement{
			ReportDate: time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC),
		}
		Expect(annual.IsAnnual()).To(BeTrue())
		Expect(interim.IsAnnual()).To(BeFalse())
	})
})

var _ = Describe("ParseReportDate", func() {
	It("parses provider timestamps down to the date", func() {
		parsed, err := data.ParseReportDate("2024-09-30 00:00:00")
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed).To(Equal(time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)))
	})

	It("rejects garbage", func() {
		_, err := data.ParseReportDate("Q3 2024")
		Expect(err).To(HaveOccurred())
	})
})
