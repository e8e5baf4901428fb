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
package format_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wenming2024/zhaocai/format"
)

var _ = Describe("SafeNumber", func() {
	It("passes ordinary values through", func() {
		Expect(format.SafeNumber(42.5)).To(Equal(42.5))
		Expect(format.SafeNumber(-1)).To(Equal(-1.0))
	})

	It("collapses NaN and infinities to zero", func() {
		Expect(format.SafeNumber(math.NaN())).To(BeZero())
		Expect(format.SafeNumber(math.Inf(1))).To(BeZero())
		Expect(format.SafeNumber(math.Inf(-1))).To(BeZero())
	})
})

var _ = Describe("SafeDiv", func() {
	It("divides normally", func() {
		Expect(format.SafeDiv(10, 4)).To(Equal(2.5))
	})

	It("treats a zero denominator as zero", func() {
		Expect(format.SafeDiv(10, 0)).To(BeZero())
	})
})

var _ = Describe("amount rendering", func() {
	It("renders yuan amounts in 亿元", func() {
		Expect(format.ToBillion(660_000_000_000)).To(Equal("6600.00亿元"))
		Expect(format.ToBillion(-12_340_000_000)).To(Equal("-123.40亿元"))
	})

	It("renders yuan amounts in 万元", func() {
		Expect(format.ToTenThousand(1_234_500)).To(Equal("123.45万元"))
	})

	It("renders fractions and percentages", func() {
		Expect(format.Percent(0.096)).To(Equal("9.60%"))
		Expect(format.PercentValue(12.3)).To(Equal("12.30%"))
	})

	It("renders multiples and prices", func() {
		Expect(format.Multiple(18.7)).To(Equal("18.70x"))
		Expect(format.HKD(321.4)).To(Equal("321.40港币"))
	})

	It("never prints NaN", func() {
		Expect(format.ToBillion(math.NaN())).To(Equal("0.00亿元"))
		Expect(format.Percent(math.Inf(1))).To(Equal("0.00%"))
	})
})
