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
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/wenming2024/zhaocai/format"
	"github.com/wenming2024/zhaocai/report"
)

var reportRaw bool

// reportCmd renders the composite financial report for one security
var reportCmd = &cobra.Command{
	Use:   "report securityCode [period]",
	Short: "Render the financial report and valuation for a security",
	Long: `Report assembles the stored fundamentals for a security at the given
report period (latest, YYYY or YYYY-Qn), values it with a DCF and a
reverse DCF, and renders the result as a terminal report. Data missing
from the database is crawled on demand.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		securityCode := args[0]
		periodToken := "latest"
		if len(args) > 1 {
			periodToken = args[1]
		}

		myLibrary := openLibrary(ctx)
		defer myLibrary.Close()

		service := newService(myLibrary)

		financialReport, err := service.FinancialReport(ctx, securityCode, periodToken)
		if err != nil {
			log.Fatal().Err(err).Str("SecurityCode", securityCode).Str("Period", periodToken).
				Msg("could not build financial report")
		}

		markdown := renderMarkdown(financialReport)

		if reportRaw {
			fmt.Println(markdown)
			return
		}

		renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
		if err != nil {
			log.Fatal().Err(err).Msg("could not create terminal renderer")
		}

		out, err := renderer.Render(markdown)
		if err != nil {
			log.Fatal().Err(err).Msg("could not render report")
		}

		fmt.Print(out)
	},
}

func renderMarkdown(financialReport *report.FinancialReport) string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "# %s (%s.HK) 财务报告\n\n", financialReport.SecurityName, financialReport.SecurityCode)
	fmt.Fprintf(&buf, "报告期: %s (%s)\n\n", financialReport.Period.Token(),
		financialReport.Period.Date.Format(time.DateOnly))

	writeSnapshot(&buf, financialReport.Current)
	writeHistory(&buf, financialReport.History)
	writeValuation(&buf, financialReport)
	writeAnalysis(&buf, financialReport)

	return buf.String()
}

func writeSnapshot(buf *strings.Builder, snapshot *report.Snapshot) {
	buf.WriteString("## 核心指标\n\n")
	buf.WriteString("| 指标 | 数值 | 指标 | 数值 |\n")
	buf.WriteString("| --- | --- | --- | --- |\n")
	fmt.Fprintf(buf, "| 营业收入 | %s | 同比增长 | %s |\n",
		format.ToBillion(snapshot.OperateIncome), format.PercentValue(snapshot.OperateIncomeYoY))
	fmt.Fprintf(buf, "| 毛利润 | %s | 毛利率 | %s |\n",
		format.ToBillion(snapshot.GrossProfit), format.PercentValue(snapshot.GrossProfitRatio))
	fmt.Fprintf(buf, "| 归母净利润 | %s | 同比增长 | %s |\n",
		format.ToBillion(snapshot.HolderProfit), format.PercentValue(snapshot.HolderProfitYoY))
	fmt.Fprintf(buf, "| 经营现金流 | %s | 自由现金流 | %s |\n",
		format.ToBillion(snapshot.NetcashOperate), format.ToBillion(snapshot.FreeCashFlow))
	fmt.Fprintf(buf, "| 期末现金 | %s | 总市值 | %s |\n",
		format.ToBillion(snapshot.EndCash), format.ToBillion(snapshot.TotalMarketCap))
	fmt.Fprintf(buf, "| 总资产 | %s | 总负债 | %s |\n",
		format.ToBillion(snapshot.TotalAssets), format.ToBillion(snapshot.TotalLiabilities))
	fmt.Fprintf(buf, "| PE(TTM) | %s | PB(TTM) | %s |\n",
		format.Multiple(snapshot.PETTM), format.Multiple(snapshot.PBTTM))
	fmt.Fprintf(buf, "| ROE | %s | ROA | %s |\n\n",
		format.PercentValue(snapshot.ROEAvg), format.PercentValue(snapshot.ROA))
}

func writeHistory(buf *strings.Builder, records []report.HistoryRecord) {
	if len(records) == 0 {
		return
	}

	buf.WriteString("## 历史数据\n\n")
	buf.WriteString("| 报告期 | 营业收入 | 同比 | 归母净利润 | 同比 | 毛利率 | ROE | 自由现金流 |\n")
	buf.WriteString("| --- | --- | --- | --- | --- | --- | --- | --- |\n")
	for _, record := range records {
		fmt.Fprintf(buf, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			record.PeriodToken,
			format.ToBillion(record.OperateIncome),
			format.PercentValue(record.OperateIncomeYoY),
			format.ToBillion(record.HolderProfit),
			format.PercentValue(record.HolderProfitYoY),
			format.PercentValue(record.GrossProfitRatio),
			format.PercentValue(record.ROEAvg),
			format.ToBillion(record.FreeCashFlow))
	}
	buf.WriteString("\n")
}

func writeValuation(buf *strings.Builder, financialReport *report.FinancialReport) {
	if financialReport.Price != nil {
		price := financialReport.Price
		buf.WriteString("## 股价背景\n\n")
		fmt.Fprintf(buf, "- 报告期末股价: %s\n", format.HKD(price.ReportEndPrice))
		fmt.Fprintf(buf, "- 五年前股价: %s\n", format.HKD(price.FiveYearsAgoPrice))
		fmt.Fprintf(buf, "- 五年股价年化增长: %s\n", format.PercentValue(price.CAGR))
		fmt.Fprintf(buf, "- 最新收盘: %s (%s)\n\n", format.HKD(price.LatestClose),
			price.LatestDate.Format(time.DateOnly))
	}

	if valuationResult := financialReport.Valuation; valuationResult != nil {
		buf.WriteString("## DCF 估值\n\n")
		fmt.Fprintf(buf, "数据来源: %s\n\n", valuationResult.DataSource)
		fmt.Fprintf(buf, "- 基期自由现金流: %s\n", format.ToBillion(valuationResult.BaseFCF))
		fmt.Fprintf(buf, "- 折现率(WACC): %s | 永续增长率: %s | 预测增长率: %s\n",
			format.Percent(valuationResult.Assumptions.DiscountRate),
			format.Percent(valuationResult.Assumptions.TerminalGrowth),
			format.Percent(valuationResult.Assumptions.GrowthRate))
		fmt.Fprintf(buf, "- 企业价值: %s | 股权价值: %s\n",
			format.ToBillion(valuationResult.EnterpriseValue),
			format.ToBillion(valuationResult.EquityValue))
		fmt.Fprintf(buf, "- 每股公允价值: %s\n", format.HKD(valuationResult.FairValuePerShare))
		fmt.Fprintf(buf, "- 预期年化回报: %s\n\n", format.Percent(valuationResult.ExpectedReturn))
	}

	if reverse := financialReport.Reverse; reverse != nil {
		buf.WriteString("## 反向 DCF\n\n")
		fmt.Fprintf(buf, "- 市场隐含增长率: %s\n", format.Percent(reverse.ImpliedGrowthRate))
		fmt.Fprintf(buf, "- 终值倍数: %s\n", format.Multiple(reverse.TerminalMultiple))
		fmt.Fprintf(buf, "- 实现概率: %.2f%%\n\n", reverse.FeasibilityProbability)
	}
}

func writeAnalysis(buf *strings.Builder, financialReport *report.FinancialReport) {
	if financialReport.Analysis == nil {
		return
	}

	buf.WriteString("## 投资亮点与风险\n\n")
	for _, pro := range financialReport.Analysis.ProsCons.Pros {
		fmt.Fprintf(buf, "- :+1: %s\n", pro)
	}
	for _, con := range financialReport.Analysis.ProsCons.Cons {
		fmt.Fprintf(buf, "- :warning: %s\n", con)
	}
	buf.WriteString("\n")

	if len(financialReport.Analysis.Ratings) > 0 {
		buf.WriteString("## 业务评分\n\n")
		buf.WriteString("| 维度 | 评分 | 点评 |\n")
		buf.WriteString("| --- | --- | --- |\n")
		for _, rating := range financialReport.Analysis.Ratings {
			fmt.Fprintf(buf, "| %s | %.1f | %s |\n", rating.Dimension, rating.Score, rating.Comment)
		}
		buf.WriteString("\n")
	}

	if len(financialReport.Analysis.Revenue) > 0 {
		buf.WriteString("## 收入构成\n\n")
		buf.WriteString("| 业务 | 占比 |\n")
		buf.WriteString("| --- | --- |\n")
		for _, segment := range financialReport.Analysis.Revenue {
			fmt.Fprintf(buf, "| %s | %s |\n", segment.Business, format.PercentValue(segment.Percent))
		}
		buf.WriteString("\n")
	}
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().BoolVar(&reportRaw, "raw", false, "print raw markdown instead of rendering")
}
