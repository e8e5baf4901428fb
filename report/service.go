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

// Package report resolves report period tokens and assembles the
// composite financial report for a security: the requested period's
// statement, up to five years of comparable history, a DCF and
// reverse-DCF valuation anchored on the right annual filing, price
// context and qualitative analysis.
package report

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/rs/zerolog/log"
	"github.com/wenming2024/zhaocai/analysis"
	"github.com/wenming2024/zhaocai/data"
	"github.com/wenming2024/zhaocai/library"
	"github.com/wenming2024/zhaocai/provider"
	"github.com/wenming2024/zhaocai/valuation"
)

// ErrDataNotFound is returned when neither the database nor a fresh crawl
// produced a statement for the requested security and period.
var ErrDataNotFound = errors.New("no financial data found")

// how many years of comparable periods the report history covers
const historyYears = 5

const (
	annualSourceLabel  = "年度数据(%d年)"
	currentSourceLabel = "当前报告期数据"
)

// Snapshot is the headline view of one report period's statement
type Snapshot struct {
	ReportDate       time.Time
	FiscalYear       string
	OperateIncome    float64
	OperateIncomeYoY float64
	GrossProfit      float64
	GrossProfitRatio float64
	HolderProfit     float64
	HolderProfitYoY  float64
	NetcashOperate   float64
	FreeCashFlow     float64
	EndCash          float64
	TotalAssets      float64
	TotalLiabilities float64
	TotalMarketCap   float64
	PETTM            float64
	PBTTM            float64
	ROEAvg           float64
	ROA              float64
}

// AnnualRecord identifies the annual filing a valuation compounds from
// and how it was chosen.
type AnnualRecord struct {
	FiscalYear     int
	ReportDate     time.Time
	NetcashOperate float64
	FreeCashFlow   float64

	// TotalMarketCap is the market capitalization from the anchor filing's
	// report-date context, falling back to the current period's when the
	// anchor filing carries none
	TotalMarketCap float64

	// Exact is false when the anchor year had no annual filing and the
	// nearest available year substituted for it
	Exact bool

	// DataSource labels the record for presentation
	DataSource string
}

// HistoryRecord is one comparable period in the report's history table
type HistoryRecord struct {
	PeriodToken      string
	ReportDate       time.Time
	OperateIncome    float64
	OperateIncomeYoY float64
	HolderProfit     float64
	HolderProfitYoY  float64
	GrossProfitRatio float64
	ROEAvg           float64
	NetcashOperate   float64
	FreeCashFlow     float64
}

// FinancialReport is the composite read model rendered by the report
// command. Price, Valuation, Reverse and Analysis are enrichment: any of
// them may be nil (or a placeholder) when its source failed, while the
// statement data is always present.
type FinancialReport struct {
	SecurityCode string
	SecurityName string
	Period       *ReportPeriod
	GeneratedAt  time.Time

	Current *Snapshot
	History []HistoryRecord
	Anchor  *AnnualRecord

	Price     *provider.PriceContext
	Valuation *valuation.Result
	Reverse   *valuation.ReverseResult
	Analysis  *analysis.Report
}

// BatchSummary tallies a batch refresh run
type BatchSummary struct {
	Requested int
	Refreshed int
	Skipped   int
	Failed    []string
	RowsSaved int64
}

// Service wires the statement store, the upstream data provider and the
// analysis model into the report operations used by the CLI commands.
type Service struct {
	library  *library.Library
	provider *provider.Client
	analysis *analysis.Client

	// security code -> abbreviated name, shared across batch runs
	names *haxmap.Map[string, string]
}

// NewService builds a report service over the given stores and clients
func NewService(myLibrary *library.Library, eastmoney *provider.Client, deepseek *analysis.Client) *Service {
	return &Service{
		library:  myLibrary,
		provider: eastmoney,
		analysis: deepseek,
		names:    haxmap.New[string, string](),
	}
}

// SecurityName resolves the abbreviated display name for a security,
// caching hits so batch runs query the database once per code.
func (service *Service) SecurityName(ctx context.Context, securityCode string) string {
	if name, ok := service.names.Get(securityCode); ok {
		return name
	}

	name, err := service.library.SecurityName(ctx, securityCode)
	if err != nil {
		log.Warn().Err(err).Str("SecurityCode", securityCode).Msg("could not resolve security name")
		return securityCode
	}

	if name == "" {
		return securityCode
	}

	service.names.Set(securityCode, name)
	return name
}

// NeedsUpdate reports whether a security's stored data is stale, along
// with the newest stored report date (zero when nothing is stored).
func (service *Service) NeedsUpdate(ctx context.Context, securityCode string, thresholdDays int) (bool, time.Time, error) {
	latest, err := service.library.LatestReportDate(ctx, securityCode)
	if err != nil {
		return false, time.Time{}, err
	}

	return IsStale(latest, thresholdDays, time.Now()), latest, nil
}

// Refresh crawls a security's complete financial picture and upserts it,
// returning the crawl summary and the number of rows written.
func (service *Service) Refresh(ctx context.Context, securityCode string) (*provider.FetchSummary, int64, error) {
	statements, summary, err := service.provider.Financials(ctx, securityCode)
	if err != nil {
		return nil, 0, err
	}

	if len(statements) == 0 {
		return summary, 0, nil
	}

	affected, err := service.library.BulkUpsertStatements(ctx, statements)
	if err != nil {
		return summary, affected, err
	}

	return summary, affected, nil
}

// RefreshBatch refreshes securities one at a time; the provider's rate
// limiter spaces the crawls. With skipFresh set, securities whose stored
// data is newer than thresholdDays are skipped. A failed security is
// recorded and the batch continues.
func (service *Service) RefreshBatch(ctx context.Context, securityCodes []string, skipFresh bool, thresholdDays int) *BatchSummary {
	summary := &BatchSummary{Requested: len(securityCodes)}

	for _, securityCode := range securityCodes {
		logger := log.With().Str("SecurityCode", securityCode).Logger()

		if skipFresh {
			stale, latest, err := service.NeedsUpdate(ctx, securityCode, thresholdDays)
			if err != nil {
				logger.Error().Err(err).Msg("freshness check failed")
				summary.Failed = append(summary.Failed, securityCode)
				continue
			}
			if !stale {
				logger.Info().Time("LatestReportDate", latest).Msg("data is fresh; skipping")
				summary.Skipped++
				continue
			}
		}

		_, affected, err := service.Refresh(ctx, securityCode)
		if err != nil {
			logger.Error().Err(err).Msg("refresh failed")
			summary.Failed = append(summary.Failed, securityCode)
			continue
		}

		summary.Refreshed++
		summary.RowsSaved += affected
	}

	return summary
}

// AvailableReportDates lists the period tokens stored for a security,
// most recent first, deduplicated.
func (service *Service) AvailableReportDates(ctx context.Context, securityCode string) ([]string, error) {
	statements, err := service.library.StatementsByCode(ctx, securityCode, 0)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(statements))
	tokens := make([]string, 0, len(statements))
	for _, statement := range statements {
		token := TokenForDate(statement.ReportDate)
		if seen[token] {
			continue
		}
		seen[token] = true
		tokens = append(tokens, token)
	}

	return tokens, nil
}

// statementAt returns the stored statement for a (code, date) key,
// crawling the security first when the database has nothing for it.
func (service *Service) statementAt(ctx context.Context, securityCode string, reportDate time.Time) (*data.FinancialStatement, error) {
	statement, err := service.library.StatementByCodeAndDate(ctx, securityCode, reportDate)
	if err != nil {
		return nil, err
	}
	if statement != nil {
		return statement, nil
	}

	log.Info().Str("SecurityCode", securityCode).Time("ReportDate", reportDate).
		Msg("statement not in database; crawling")

	if _, _, err := service.Refresh(ctx, securityCode); err != nil {
		return nil, err
	}

	return service.library.StatementByCodeAndDate(ctx, securityCode, reportDate)
}

// annualAnchor locates the annual filing valuation projections compound
// from. The exact anchor-year filing is preferred; otherwise the nearest
// annual filing substitutes; with no annual filings at all the current
// period's own cash flow serves as the base.
func annualAnchor(statements []*data.FinancialStatement, current *data.FinancialStatement, period *ReportPeriod, assumptions valuation.Assumptions) *AnnualRecord {
	anchorYear := period.AnchorYear()

	var annual *data.FinancialStatement
	for _, statement := range statements {
		if statement.IsAnnual() && statement.ReportDate.Year() == anchorYear {
			annual = statement
			break
		}
	}

	exact := annual != nil
	if annual == nil {
		annual = NearestAnnual(statements, anchorYear)
	}

	if annual == nil {
		return &AnnualRecord{
			FiscalYear:     period.FiscalYear,
			ReportDate:     current.ReportDate,
			NetcashOperate: current.NetcashOperate,
			FreeCashFlow:   valuation.FreeCashFlow(current.NetcashOperate, assumptions),
			TotalMarketCap: current.TotalMarketCap,
			Exact:          false,
			DataSource:     currentSourceLabel,
		}
	}

	marketCap := annual.TotalMarketCap
	if marketCap == 0 {
		marketCap = current.TotalMarketCap
	}

	return &AnnualRecord{
		FiscalYear:     annual.ReportDate.Year(),
		ReportDate:     annual.ReportDate,
		NetcashOperate: annual.NetcashOperate,
		FreeCashFlow:   valuation.FreeCashFlow(annual.NetcashOperate, assumptions),
		TotalMarketCap: marketCap,
		Exact:          exact,
		DataSource:     fmt.Sprintf(annualSourceLabel, annual.ReportDate.Year()),
	}
}

func snapshotOf(statement *data.FinancialStatement, assumptions valuation.Assumptions) *Snapshot {
	return &Snapshot{
		ReportDate:       statement.ReportDate,
		FiscalYear:       statement.FiscalYear,
		OperateIncome:    statement.OperateIncome,
		OperateIncomeYoY: statement.OperateIncomeYoY,
		GrossProfit:      statement.GrossProfit,
		GrossProfitRatio: statement.GrossProfitRatio,
		HolderProfit:     statement.HolderProfit,
		HolderProfitYoY:  statement.HolderProfitYoY,
		NetcashOperate:   statement.NetcashOperate,
		FreeCashFlow:     valuation.FreeCashFlow(statement.NetcashOperate, assumptions),
		EndCash:          statement.EndCash,
		TotalAssets:      statement.TotalAssets,
		TotalLiabilities: statement.TotalLiabilities,
		TotalMarketCap:   statement.TotalMarketCap,
		PETTM:            statement.PETTM,
		PBTTM:            statement.PBTTM,
		ROEAvg:           statement.ROEAvg,
		ROA:              statement.ROA,
	}
}

// history assembles up to five years of same-shaped periods (the same
// quarter for quarterly reports, annual filings for annual reports),
// most recent first. Missing years are simply absent.
func history(statements []*data.FinancialStatement, period *ReportPeriod, assumptions valuation.Assumptions) []HistoryRecord {
	byDate := make(map[time.Time]*data.FinancialStatement, len(statements))
	for _, statement := range statements {
		byDate[statement.ReportDate] = statement
	}

	records := make([]HistoryRecord, 0, historyYears)
	for yearsBack := 0; yearsBack < historyYears; yearsBack++ {
		statement, ok := byDate[period.PriorPeriodDate(yearsBack)]
		if !ok {
			continue
		}

		records = append(records, HistoryRecord{
			PeriodToken:      TokenForDate(statement.ReportDate),
			ReportDate:       statement.ReportDate,
			OperateIncome:    statement.OperateIncome,
			OperateIncomeYoY: statement.OperateIncomeYoY,
			HolderProfit:     statement.HolderProfit,
			HolderProfitYoY:  statement.HolderProfitYoY,
			GrossProfitRatio: statement.GrossProfitRatio,
			ROEAvg:           statement.ROEAvg,
			NetcashOperate:   statement.NetcashOperate,
			FreeCashFlow:     valuation.FreeCashFlow(statement.NetcashOperate, assumptions),
		})
	}

	return records
}

// annualFCFHistory collects up to five annual FCF observations, most
// recent first, for the reverse-DCF feasibility score.
func annualFCFHistory(statements []*data.FinancialStatement, assumptions valuation.Assumptions) []valuation.YearFCF {
	series := make([]valuation.YearFCF, 0, historyYears)
	for _, statement := range statements {
		if !statement.IsAnnual() {
			continue
		}
		series = append(series, valuation.YearFCF{
			Year: statement.ReportDate.Year(),
			FCF:  valuation.FreeCashFlow(statement.NetcashOperate, assumptions),
		})
		if len(series) == historyYears {
			break
		}
	}

	return series
}

// FinancialReport assembles the complete report for a security and period
// token. Statement data is required: a missing period fails with
// ErrDataNotFound (wrapped). Price, valuation and analysis are fetched
// concurrently and each settles independently; a failed branch leaves its
// section nil or at its placeholder.
func (service *Service) FinancialReport(ctx context.Context, securityCode, periodToken string) (*FinancialReport, error) {
	period, err := ResolvePeriod(periodToken, time.Now())
	if err != nil {
		return nil, err
	}

	current, err := service.statementAt(ctx, securityCode, period.Date)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("%w: %s period %s", ErrDataNotFound, securityCode, period.Token())
	}

	statements, err := service.library.StatementsByCode(ctx, securityCode, 0)
	if err != nil {
		return nil, err
	}

	assumptions := valuation.DefaultAssumptions()
	anchor := annualAnchor(statements, current, period, assumptions)

	financialReport := &FinancialReport{
		SecurityCode: securityCode,
		SecurityName: current.SecurityNameAbbr,
		Period:       period,
		GeneratedAt:  time.Now(),
		Current:      snapshotOf(current, assumptions),
		History:      history(statements, period, assumptions),
		Anchor:       anchor,
	}

	logger := log.With().Str("SecurityCode", securityCode).Str("Period", period.Token()).Logger()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()

		price, err := service.provider.PriceAround(ctx, securityCode, period.Date)
		if err != nil {
			logger.Warn().Err(err).Msg("price history unavailable; skipping valuation")
			return
		}
		financialReport.Price = price

		sharePrice := price.ReportEndPrice

		// shares outstanding derive from the anchor filing's own market
		// capitalization, not the requested period's
		marketCap := anchor.TotalMarketCap

		dcf, err := valuation.DCF(assumptions, anchor.FiscalYear, anchor.FreeCashFlow,
			current.EndCash, marketCap, sharePrice)
		if err != nil {
			logger.Warn().Err(err).Msg("DCF valuation failed")
		} else {
			dcf.DataSource = anchor.DataSource
			financialReport.Valuation = dcf
		}

		reverse, err := valuation.ReverseDCF(assumptions, anchor.FiscalYear, anchor.FreeCashFlow,
			marketCap, annualFCFHistory(statements, assumptions))
		if err != nil {
			logger.Warn().Err(err).Msg("reverse DCF valuation failed")
		} else {
			reverse.DataSource = anchor.DataSource
			financialReport.Reverse = reverse
		}
	}()

	go func() {
		defer wg.Done()
		financialReport.Analysis = service.analysis.FullReport(ctx, current.SecurityNameAbbr, securityCode)
	}()

	wg.Wait()

	return financialReport, nil
}
