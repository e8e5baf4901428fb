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
package valuation_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wenming2024/zhaocai/valuation"
)

var _ = Describe("FreeCashFlow", func() {
	It("passes operating cash flow through with the capex placeholder", func() {
		fcf := valuation.FreeCashFlow(1_000_000, valuation.DefaultAssumptions())
		Expect(fcf).To(Equal(1_000_000.0))
	})

	It("subtracts capex as an absolute value", func() {
		assumptions := valuation.DefaultAssumptions()
		assumptions.CapitalExpenditure = -200_000
		Expect(valuation.FreeCashFlow(1_000_000, assumptions)).To(Equal(800_000.0))

		assumptions.CapitalExpenditure = 200_000
		Expect(valuation.FreeCashFlow(1_000_000, assumptions)).To(Equal(800_000.0))
	})
})

var _ = Describe("DCF", func() {
	It("reproduces a hand-calculated single-year valuation", func() {
		assumptions := valuation.Assumptions{
			DiscountRate:   0.10,
			TerminalGrowth: 0.0,
			GrowthRate:     0.0,
			HorizonYears:   1,
		}

		// year 1 FCF = 100, pv = 90.9091; terminal = 100/0.10 = 1000,
		// pv = 909.0909; enterprise value = 1000
		result, err := valuation.DCF(assumptions, 2023, 100, 0, 1000, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.EnterpriseValue).To(BeNumerically("~", 1000, 1e-9))
		Expect(result.SharesOutstanding).To(BeNumerically("~", 100, 1e-9))
		Expect(result.FairValuePerShare).To(BeNumerically("~", 10, 1e-9))
		Expect(result.ExpectedReturn).To(BeNumerically("~", 0, 1e-9))
	})

	It("produces a forecast row per horizon year with compounding growth", func() {
		result, err := valuation.DCF(valuation.DefaultAssumptions(), 2023, 100, 0, 1000, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Forecast).To(HaveLen(5))
		Expect(result.Forecast[0].Year).To(Equal(2024))
		Expect(result.Forecast[0].FCF).To(BeNumerically("~", 110, 1e-9))
		Expect(result.Forecast[4].Year).To(Equal(2028))
		Expect(result.Forecast[4].FCF).To(BeNumerically("~", 100*1.1*1.1*1.1*1.1*1.1, 1e-9))
	})

	It("adds current-period cash to equity value", func() {
		withoutCash, err := valuation.DCF(valuation.DefaultAssumptions(), 2023, 100, 0, 1000, 10)
		Expect(err).NotTo(HaveOccurred())

		withCash, err := valuation.DCF(valuation.DefaultAssumptions(), 2023, 100, 500, 1000, 10)
		Expect(err).NotTo(HaveOccurred())

		Expect(withCash.EquityValue - withoutCash.EquityValue).To(BeNumerically("~", 500, 1e-9))
		Expect(withCash.EnterpriseValue).To(BeNumerically("~", withoutCash.EnterpriseValue, 1e-9))
	})

	It("values faster growth higher", func() {
		slow := valuation.DefaultAssumptions()
		slow.GrowthRate = 0.05

		fast := valuation.DefaultAssumptions()
		fast.GrowthRate = 0.15

		slowResult, err := valuation.DCF(slow, 2023, 100, 0, 1000, 10)
		Expect(err).NotTo(HaveOccurred())
		fastResult, err := valuation.DCF(fast, 2023, 100, 0, 1000, 10)
		Expect(err).NotTo(HaveOccurred())

		Expect(fastResult.FairValuePerShare).To(BeNumerically(">", slowResult.FairValuePerShare))
	})

	It("never reports NaN for a negative free cash flow base", func() {
		result, err := valuation.DCF(valuation.DefaultAssumptions(), 2023, -100, 0, 1000, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.FairValuePerShare).To(BeNumerically("<", 0))
		Expect(math.IsNaN(result.ExpectedReturn)).To(BeFalse())
		Expect(result.ExpectedReturn).To(BeZero())
	})

	It("rejects a discount rate at or below terminal growth", func() {
		assumptions := valuation.DefaultAssumptions()
		assumptions.DiscountRate = assumptions.TerminalGrowth

		_, err := valuation.DCF(assumptions, 2023, 100, 0, 1000, 10)
		Expect(err).To(MatchError(valuation.ErrInvalidAssumptions))
	})

	It("rejects a non-positive share price", func() {
		_, err := valuation.DCF(valuation.DefaultAssumptions(), 2023, 100, 0, 1000, 0)
		Expect(err).To(MatchError(valuation.ErrInvalidAssumptions))
	})
})
