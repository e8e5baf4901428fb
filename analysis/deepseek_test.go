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
package analysis_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wenming2024/zhaocai/analysis"
)

var _ = Describe("ExtractJSON", func() {
	It("passes bare JSON through", func() {
		Expect(analysis.ExtractJSON(`{"pros": []}`)).To(Equal(`{"pros": []}`))
	})

	It("strips markdown code fences", func() {
		reply := "```json\n{\"pros\": [\"a\"]}\n```"
		Expect(analysis.ExtractJSON(reply)).To(Equal(`{"pros": ["a"]}`))
	})

	It("trims prose around a JSON object", func() {
		reply := `好的，以下是分析结果：{"pros": ["a"], "cons": ["b"]} 希望对您有帮助。`
		Expect(analysis.ExtractJSON(reply)).To(Equal(`{"pros": ["a"], "cons": ["b"]}`))
	})

	It("extracts JSON arrays", func() {
		reply := "结果如下：[{\"dimension\": \"护城河\", \"score\": 8}]"
		Expect(analysis.ExtractJSON(reply)).To(Equal(`[{"dimension": "护城河", "score": 8}]`))
	})
})

var _ = Describe("DefaultReport", func() {
	It("carries placeholder pros and cons", func() {
		report := analysis.DefaultReport()
		Expect(report.ProsCons.Pros).To(ConsistOf("暂无数据"))
		Expect(report.ProsCons.Cons).To(ConsistOf("暂无数据"))
		Expect(report.Ratings).To(BeEmpty())
		Expect(report.Revenue).To(BeEmpty())
	})
})

var _ = Describe("disabled client", func() {
	It("returns the placeholder report without calling the API", func() {
		// no analysis.apikey configured in tests
		client := analysis.NewClient()
		report := client.FullReport(context.Background(), "腾讯控股", "00700")
		Expect(report).To(Equal(analysis.DefaultReport()))
	})
})
