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
package data

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// MergeStatements joins the four report categories into composite
// FinancialStatement records keyed by security code and report date.
//
// The indicator rows define the canonical set of known report dates: a
// composite record exists for every indicator row, and rows from the other
// categories whose key has no matching indicator row are dropped. Output
// order follows the indicator input order. The merge is a pure function;
// persisting the result is the caller's responsibility.
func MergeStatements(indicators []IndicatorRow, balance, income, cashflow []LineItemRow) []*FinancialStatement {
	merged := make([]*FinancialStatement, 0, len(indicators))
	byKey := make(map[string]*FinancialStatement, len(indicators))

	for _, row := range indicators {
		reportDate, err := ParseReportDate(row.ReportDate)
		if err != nil {
			log.Warn().Str("SecurityCode", row.SecurityCode).Str("ReportDate", row.ReportDate).
				Msg("skipping indicator row with unparseable report date")
			continue
		}

		statement := &FinancialStatement{
			SecurityCode:     row.SecurityCode,
			SecurityNameAbbr: row.SecurityNameAbbr,
			OrgCode:          row.OrgCode,
			ReportDate:       reportDate,
			FiscalYear:       row.FiscalYear,
			DateTypeCode:     row.DateTypeCode,
			OperateIncome:    row.OperateIncome,
			OperateIncomeYoY: row.OperateIncomeYoY,
			GrossProfit:      row.GrossProfit,
			GrossProfitRatio: row.GrossProfitRatio,
			HolderProfit:     row.HolderProfit,
			HolderProfitYoY:  row.HolderProfitYoY,
			NetcashOperate:   row.NetcashOperate,
			NetcashInvest:    row.NetcashInvest,
			EndCash:          row.EndCash,
			TotalAssets:      row.TotalAssets,
			TotalLiabilities: row.TotalLiabilities,
			TotalMarketCap:   row.TotalMarketCap,
			PETTM:            row.PETTM,
			PBTTM:            row.PBTTM,
			ROEAvg:           row.ROEAvg,
			ROA:              row.ROA,
		}

		key := mergeKey(row.SecurityCode, row.ReportDate)
		if _, exists := byKey[key]; exists {
			// map semantics: a duplicate indicator row overwrites in place
			// without creating a second composite record
			*byKey[key] = *statement
			continue
		}

		byKey[key] = statement
		merged = append(merged, statement)
	}

	for _, row := range balance {
		if statement, ok := byKey[mergeKey(row.SecurityCode, row.ReportDate)]; ok {
			statement.BalanceItemCode = row.StdItemCode
			statement.BalanceItemName = row.StdItemName
			statement.BalanceAmount = row.Amount
		}
	}

	for _, row := range income {
		if statement, ok := byKey[mergeKey(row.SecurityCode, row.ReportDate)]; ok {
			statement.IncomeItemCode = row.StdItemCode
			statement.IncomeItemName = row.StdItemName
			statement.IncomeAmount = row.Amount
		}
	}

	for _, row := range cashflow {
		if statement, ok := byKey[mergeKey(row.SecurityCode, row.ReportDate)]; ok {
			statement.CashflowItemCode = row.StdItemCode
			statement.CashflowItemName = row.StdItemName
			statement.CashflowAmount = row.Amount
		}
	}

	return merged
}

func mergeKey(securityCode, reportDate string) string {
	return fmt.Sprintf("%s_%s", securityCode, DateOnly(reportDate))
}
