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
package provider_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wenming2024/zhaocai/provider"
)

var _ = Describe("query construction", func() {
	var eastmoney *provider.Client

	BeforeEach(func() {
		eastmoney = provider.NewClient()
	})

	It("filters on the HK-suffixed security code", func() {
		params := eastmoney.QueryParams(provider.MainIndicator, "00700", nil)
		Expect(params["filter"]).To(Equal(`(SECUCODE="00700.HK")`))
		Expect(params["reportName"]).To(Equal("RPT_HKF10_FN_MAININDICATOR"))
		Expect(params["sortColumns"]).To(Equal("STD_REPORT_DATE"))
		Expect(params["sortTypes"]).To(Equal("-1"))
		Expect(params["columns"]).To(Equal("ALL"))
		Expect(params["source"]).To(Equal("F10"))
		Expect(params["client"]).To(Equal("PC"))
	})

	It("restricts secondary categories to the seeded report dates", func() {
		dates := []string{"2024-12-31", "2024-06-30"}
		params := eastmoney.QueryParams(provider.BalanceSheet, "00700", dates)
		Expect(params["filter"]).To(
			Equal(`(SECUCODE="00700.HK")(REPORT_DATE in ('2024-12-31','2024-06-30'))`))
		Expect(params["reportName"]).To(Equal("RPT_HKF10_FN_BALANCE_PC"))
		Expect(params["sortColumns"]).To(Equal("REPORT_DATE,STD_ITEM_CODE"))
		Expect(params["sortTypes"]).To(Equal("-1,1"))
	})

	It("uses the per-category version tokens", func() {
		Expect(eastmoney.QueryParams(provider.MainIndicator, "00700", nil)["v"]).To(
			Equal("0391365200322224"))
		Expect(eastmoney.QueryParams(provider.BalanceSheet, "00700", nil)["v"]).To(
			Equal("07956401139605905"))
		Expect(eastmoney.QueryParams(provider.IncomeStatement, "00700", nil)["v"]).To(
			Equal("08122767709863961"))
		Expect(eastmoney.QueryParams(provider.CashFlow, "00700", nil)["v"]).To(
			Equal("05295176816734208"))
	})
})
