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
	"strings"
	"time"
)

// FinancialStatement is one composite financial record for a Hong Kong
// listed security. Each row is uniquely identified by (SecurityCode,
// ReportDate). The indicator fields come from the main-indicator report;
// the per-category item fields are attached during the merge step from
// the balance sheet, income statement and cash flow reports.
type FinancialStatement struct {
	SecurityCode     string    `db:"security_code"`
	SecurityNameAbbr string    `db:"security_name_abbr"`
	OrgCode          string    `db:"org_code"`
	ReportDate       time.Time `db:"report_date"`
	FiscalYear       string    `db:"fiscal_year"`
	DateTypeCode     string    `db:"date_type_code"`

	// [Indicators] Operating revenue for the period and its year-over-year
	// growth as reported by the provider (growth is a percentage).
	OperateIncome    float64 `db:"operate_income"`
	OperateIncomeYoY float64 `db:"operate_income_yoy"`

	// [Indicators] Gross profit and gross margin (percentage).
	GrossProfit      float64 `db:"gross_profit"`
	GrossProfitRatio float64 `db:"gross_profit_ratio"`

	// [Indicators] Profit attributable to holders of the parent and its
	// year-over-year growth (percentage).
	HolderProfit    float64 `db:"holder_profit"`
	HolderProfitYoY float64 `db:"holder_profit_yoy"`

	// [Indicators] Net cash flow from operating and investing activities.
	// The investing figure is unreliable upstream; see valuation.Assumptions
	// for how capital expenditure is currently derived.
	NetcashOperate float64 `db:"netcash_operate"`
	NetcashInvest  float64 `db:"netcash_invest"`

	// [Indicators] Cash and cash equivalents at period end.
	EndCash float64 `db:"end_cash"`

	TotalAssets      float64 `db:"total_assets"`
	TotalLiabilities float64 `db:"total_liabilities"`

	// [Indicators] Valuation context captured with the filing.
	TotalMarketCap float64 `db:"total_market_cap"`
	PETTM          float64 `db:"pe_ttm"`
	PBTTM          float64 `db:"pb_ttm"`
	ROEAvg         float64 `db:"roe_avg"`
	ROA            float64 `db:"roa"`

	// Standard line items attached from the secondary report categories.
	// At most one item per category survives the merge for a given key.
	BalanceItemCode  string  `db:"balance_item_code"`
	BalanceItemName  string  `db:"balance_item_name"`
	BalanceAmount    float64 `db:"balance_amount"`
	IncomeItemCode   string  `db:"income_item_code"`
	IncomeItemName   string  `db:"income_item_name"`
	IncomeAmount     float64 `db:"income_amount"`
	CashflowItemCode string  `db:"cashflow_item_code"`
	CashflowItemName string  `db:"cashflow_item_name"`
	CashflowAmount   float64 `db:"cashflow_amount"`
}

// IsAnnual reports whether the statement is a full-year filing. Annual
// filings for HK securities always close on Dec 31.
func (statement *FinancialStatement) IsAnnual() bool {
	return statement.ReportDate.Month() == time.December && statement.ReportDate.Day() == 31
}

// IndicatorRow is one row of the RPT_HKF10_FN_MAININDICATOR report as
// returned by the provider. Dates arrive as "YYYY-MM-DD HH:MM:SS" strings.
type IndicatorRow struct {
	SecuCode         string  `json:"SECUCODE"`
	SecurityCode     string  `json:"SECURITY_CODE"`
	SecurityNameAbbr string  `json:"SECURITY_NAME_ABBR"`
	OrgCode          string  `json:"ORG_CODE"`
	ReportDate       string  `json:"REPORT_DATE"`
	StdReportDate    string  `json:"STD_REPORT_DATE"`
	FiscalYear       string  `json:"FISCAL_YEAR"`
	DateTypeCode     string  `json:"DATE_TYPE_CODE"`
	OperateIncome    float64 `json:"OPERATE_INCOME"`
	OperateIncomeYoY float64 `json:"OPERATE_INCOME_YOY"`
	GrossProfit      float64 `json:"GROSS_PROFIT"`
	GrossProfitRatio float64 `json:"GROSS_PROFIT_RATIO"`
	HolderProfit     float64 `json:"HOLDER_PROFIT"`
	HolderProfitYoY  float64 `json:"HOLDER_PROFIT_YOY"`
	NetcashOperate   float64 `json:"NETCASH_OPERATE"`
	NetcashInvest    float64 `json:"NETCASH_INVEST"`
	EndCash          float64 `json:"END_CASH"`
	TotalAssets      float64 `json:"TOTAL_ASSETS"`
	TotalLiabilities float64 `json:"TOTAL_LIABILITIES"`
	TotalMarketCap   float64 `json:"TOTAL_MARKET_CAP"`
	PETTM            float64 `json:"PE_TTM"`
	PBTTM            float64 `json:"PB_TTM"`
	ROEAvg           float64 `json:"ROE_AVG"`
	ROA              float64 `json:"ROA"`
}

// LineItemRow is one standard line item row shared by the balance sheet,
// income statement and cash flow report categories.
type LineItemRow struct {
	SecuCode     string  `json:"SECUCODE"`
	SecurityCode string  `json:"SECURITY_CODE"`
	ReportDate   string  `json:"REPORT_DATE"`
	DateTypeCode string  `json:"DATE_TYPE_CODE"`
	FiscalYear   string  `json:"FISCAL_YEAR"`
	StdItemCode  string  `json:"STD_ITEM_CODE"`
	StdItemName  string  `json:"STD_ITEM_NAME"`
	Amount       float64 `json:"AMOUNT"`
}

// DateOnly strips the time-of-day portion from a provider date string,
// e.g. "2024-12-31 00:00:00" becomes "2024-12-31".
func DateOnly(providerDate string) string {
	date, _, _ := strings.Cut(providerDate, " ")
	return date
}

// ParseReportDate parses the date portion of a provider date string.
func ParseReportDate(providerDate string) (time.Time, error) {
	return time.Parse(time.DateOnly, DateOnly(providerDate))
}
