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
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/wenming2024/zhaocai/data"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	datacenterURL = "https://datacenter.eastmoney.com/securities/api/data/v1/get"

	// eastmoney blocks clients that hammer the datacenter API; keep at
	// least this much space between per-security fetches when batching
	fetchSpacing = 2 * time.Second

	fetchTimeout = 30 * time.Second

	// the indicator report caps how many report dates seed the other
	// three categories
	maxReportDates = 100

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

var (
	// ErrUpstreamFetch marks transport failures, timeouts and non-success
	// API responses from the data provider; callers may retry.
	ErrUpstreamFetch = errors.New("upstream fetch failed")

	ErrInvalidStatusCode = errors.New("invalid status code received")
)

// ReportCategory identifies one of the four financial report tables
// published by the datacenter API.
type ReportCategory string

const (
	MainIndicator   ReportCategory = "RPT_HKF10_FN_MAININDICATOR"
	BalanceSheet    ReportCategory = "RPT_HKF10_FN_BALANCE_PC"
	IncomeStatement ReportCategory = "RPT_HKF10_FN_INCOME_PC"
	CashFlow        ReportCategory = "RPT_HKF10_FN_CASHFLOW_PC"
)

// categoryConfig carries the per-category request parameters the API
// expects; the v parameter is an opaque version token observed from the
// provider's own frontend.
type categoryConfig struct {
	v           string
	sortTypes   string
	sortColumns string
	columns     string
	pageSize    string
}

var categoryConfigs = map[ReportCategory]categoryConfig{
	MainIndicator: {
		v:           "0391365200322224",
		sortTypes:   "-1",
		sortColumns: "STD_REPORT_DATE",
		columns:     "ALL",
		pageSize:    "100",
	},
	BalanceSheet: {
		v:           "07956401139605905",
		sortTypes:   "-1,1",
		sortColumns: "REPORT_DATE,STD_ITEM_CODE",
		columns:     "SECUCODE,SECURITY_CODE,SECURITY_NAME_ABBR,ORG_CODE,REPORT_DATE,DATE_TYPE_CODE,FISCAL_YEAR,STD_ITEM_CODE,STD_ITEM_NAME,AMOUNT,STD_REPORT_DATE",
	},
	IncomeStatement: {
		v:           "08122767709863961",
		sortTypes:   "-1,1",
		sortColumns: "REPORT_DATE,STD_ITEM_CODE",
		columns:     "SECUCODE,SECURITY_CODE,SECURITY_NAME_ABBR,ORG_CODE,REPORT_DATE,DATE_TYPE_CODE,FISCAL_YEAR,START_DATE,STD_ITEM_CODE,STD_ITEM_NAME,AMOUNT",
	},
	CashFlow: {
		v:           "05295176816734208",
		sortTypes:   "-1,1",
		sortColumns: "REPORT_DATE,STD_ITEM_CODE",
		columns:     "SECUCODE,SECURITY_CODE,SECURITY_NAME_ABBR,ORG_CODE,REPORT_DATE,DATE_TYPE_CODE,FISCAL_YEAR,START_DATE,STD_ITEM_CODE,STD_ITEM_NAME,AMOUNT",
	},
}

type datacenterResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Success bool   `json:"success"`
	Result  struct {
		Pages int             `json:"pages"`
		Count int             `json:"count"`
		Data  json.RawMessage `json:"data"`
	} `json:"result"`
}

// FetchSummary counts the rows contributed by each category of a crawl
type FetchSummary struct {
	MainIndicators  int
	BalanceSheet    int
	IncomeStatement int
	CashFlow        int
	Merged          int
}

// Client fetches financial statement data from the eastmoney datacenter
// API. A single client paces its per-security fetches so batch crawls do
// not trip upstream throttling.
type Client struct {
	client  *resty.Client
	limiter *rate.Limiter
}

// NewClient builds a datacenter client with the standard timeout and
// inter-fetch spacing.
func NewClient() *Client {
	return &Client{
		client: resty.New().
			SetTimeout(fetchTimeout).
			SetHeader("User-Agent", userAgent),
		limiter: rate.NewLimiter(rate.Every(fetchSpacing), 1),
	}
}

func (eastmoney *Client) queryParams(category ReportCategory, securityCode string, reportDates []string) map[string]string {
	config := categoryConfigs[category]

	filter := fmt.Sprintf(`(SECUCODE="%s.HK")`, securityCode)
	if len(reportDates) > 0 {
		quoted := make([]string, 0, len(reportDates))
		for _, date := range reportDates {
			quoted = append(quoted, fmt.Sprintf("'%s'", date))
		}
		filter += fmt.Sprintf("(REPORT_DATE in (%s))", strings.Join(quoted, ","))
	}

	return map[string]string{
		"reportName":   string(category),
		"columns":      config.columns,
		"quoteColumns": "",
		"filter":       filter,
		"pageNumber":   "1",
		"pageSize":     config.pageSize,
		"sortTypes":    config.sortTypes,
		"sortColumns":  config.sortColumns,
		"source":       "F10",
		"client":       "PC",
		"v":            config.v,
	}
}

func (eastmoney *Client) fetch(ctx context.Context, category ReportCategory, securityCode string, reportDates []string) (json.RawMessage, error) {
	var envelope datacenterResponse

	resp, err := eastmoney.client.R().
		SetContext(ctx).
		SetQueryParams(eastmoney.queryParams(category, securityCode, reportDates)).
		SetResult(&envelope).
		Get(datacenterURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUpstreamFetch, err.Error())
	}

	if resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatusCode, resp.StatusCode())
	}

	if envelope.Code != 0 {
		return nil, fmt.Errorf("%w: api code %d: %s", ErrUpstreamFetch, envelope.Code, envelope.Message)
	}

	return envelope.Result.Data, nil
}

// FetchIndicators downloads the main-indicator rows for a security. The
// indicator report defines which report dates exist for the security.
func (eastmoney *Client) FetchIndicators(ctx context.Context, securityCode string) ([]data.IndicatorRow, error) {
	raw, err := eastmoney.fetch(ctx, MainIndicator, securityCode, nil)
	if err != nil {
		return nil, err
	}

	var rows []data.IndicatorRow
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("%w: decode indicator rows: %s", ErrUpstreamFetch, err.Error())
		}
	}

	return rows, nil
}

// FetchLineItems downloads the standard line item rows of one secondary
// report category restricted to the given report dates.
func (eastmoney *Client) FetchLineItems(ctx context.Context, category ReportCategory, securityCode string, reportDates []string) ([]data.LineItemRow, error) {
	raw, err := eastmoney.fetch(ctx, category, securityCode, reportDates)
	if err != nil {
		return nil, err
	}

	var rows []data.LineItemRow
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("%w: decode %s rows: %s", ErrUpstreamFetch, category, err.Error())
		}
	}

	return rows, nil
}

// Financials crawls the complete financial picture of one security:
// indicators first (they define the report dates), then the three
// statement categories concurrently, merged into composite records.
func (eastmoney *Client) Financials(ctx context.Context, securityCode string) ([]*data.FinancialStatement, *FetchSummary, error) {
	if err := eastmoney.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	logger := log.With().Str("SecurityCode", securityCode).Logger()

	indicators, err := eastmoney.FetchIndicators(ctx, securityCode)
	if err != nil {
		return nil, nil, err
	}

	if len(indicators) == 0 {
		logger.Warn().Msg("no indicator rows returned for security")
		return nil, &FetchSummary{}, nil
	}

	reportDates := make([]string, 0, maxReportDates)
	for _, row := range indicators {
		if len(reportDates) == maxReportDates {
			break
		}
		reportDates = append(reportDates, data.DateOnly(row.ReportDate))
	}

	var balance, income, cashflow []data.LineItemRow

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() (err error) {
		balance, err = eastmoney.FetchLineItems(groupCtx, BalanceSheet, securityCode, reportDates)
		return err
	})
	group.Go(func() (err error) {
		income, err = eastmoney.FetchLineItems(groupCtx, IncomeStatement, securityCode, reportDates)
		return err
	})
	group.Go(func() (err error) {
		cashflow, err = eastmoney.FetchLineItems(groupCtx, CashFlow, securityCode, reportDates)
		return err
	})

	if err := group.Wait(); err != nil {
		return nil, nil, err
	}

	merged := data.MergeStatements(indicators, balance, income, cashflow)

	summary := &FetchSummary{
		MainIndicators:  len(indicators),
		BalanceSheet:    len(balance),
		IncomeStatement: len(income),
		CashFlow:        len(cashflow),
		Merged:          len(merged),
	}

	logger.Info().Int("MainIndicators", summary.MainIndicators).Int("BalanceSheet", summary.BalanceSheet).
		Int("IncomeStatement", summary.IncomeStatement).Int("CashFlow", summary.CashFlow).
		Int("Merged", summary.Merged).Msg("fetched financial statements")

	return merged, summary, nil
}
