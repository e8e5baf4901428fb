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
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const klineURL = "https://push2his.eastmoney.com/api/qt/stock/kline/get"

// ErrNoPriceData is returned when the kline endpoint has no quotes for the
// requested security and date range.
var ErrNoPriceData = errors.New("no price data available")

// Quote is one daily candle of a security's price history
type Quote struct {
	Date   time.Time
	Open   float64
	Close  float64
	High   float64
	Low    float64
	Volume int64
}

// PriceContext summarizes the share price around a report date. CAGR is
// the 5-year annualized price growth in percent.
type PriceContext struct {
	ReportEndPrice    float64
	FiveYearsAgoPrice float64
	CAGR              float64
	StartDate         time.Time
	EndDate           time.Time
	TotalDays         int
	LatestClose       float64
	LatestDate        time.Time
}

type klineResponse struct {
	Data struct {
		Code   string   `json:"code"`
		Name   string   `json:"name"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

// History fetches daily forward-adjusted candles for a HK security
func (eastmoney *Client) History(ctx context.Context, securityCode string, startDate, endDate time.Time) ([]*Quote, error) {
	var envelope klineResponse

	resp, err := eastmoney.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"secid":   fmt.Sprintf("116.%s", strings.TrimSpace(securityCode)),
			"ut":      "fa5fd1943c7b386f172d6893dbfba10b",
			"fields1": "f1,f2,f3,f4,f5,f6",
			"fields2": "f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61",
			"klt":     "101",
			"fqt":     "1",
			"beg":     startDate.Format("20060102"),
			"end":     endDate.Format("20060102"),
			"lmt":     "10000",
		}).
		SetResult(&envelope).
		Get(klineURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUpstreamFetch, err.Error())
	}

	if resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatusCode, resp.StatusCode())
	}

	quotes := make([]*Quote, 0, len(envelope.Data.Klines))
	for _, kline := range envelope.Data.Klines {
		// date,open,close,high,low,volume,amount,amplitude,changeRate,changeAmount,turnoverRate
		fields := strings.Split(kline, ",")
		if len(fields) < 6 {
			log.Warn().Str("Kline", kline).Msg("skipping malformed kline row")
			continue
		}

		date, err := time.Parse(time.DateOnly, fields[0])
		if err != nil {
			log.Warn().Str("DateStr", fields[0]).Msg("skipping kline row with unparseable date")
			continue
		}

		quote := &Quote{Date: date}
		quote.Open, _ = strconv.ParseFloat(fields[1], 64)
		quote.Close, _ = strconv.ParseFloat(fields[2], 64)
		quote.High, _ = strconv.ParseFloat(fields[3], 64)
		quote.Low, _ = strconv.ParseFloat(fields[4], 64)
		quote.Volume, _ = strconv.ParseInt(fields[5], 10, 64)

		quotes = append(quotes, quote)
	}

	return quotes, nil
}

// PriceAround computes the report-end price, the price five years prior
// and the implied 5-year CAGR for a security. The report-end price falls
// back to the most recent quote on or before the report date; the 5-year
// price falls back to the earliest quote in range.
func (eastmoney *Client) PriceAround(ctx context.Context, securityCode string, reportDate time.Time) (*PriceContext, error) {
	startDate := reportDate.AddDate(-5, 0, 0)

	quotes, err := eastmoney.History(ctx, securityCode, startDate, reportDate)
	if err != nil {
		return nil, err
	}

	if len(quotes) == 0 {
		return nil, fmt.Errorf("%w: %s %s to %s", ErrNoPriceData, securityCode,
			startDate.Format(time.DateOnly), reportDate.Format(time.DateOnly))
	}

	// quotes arrive in ascending date order
	endPrice := quotes[len(quotes)-1].Close
	for idx := len(quotes) - 1; idx >= 0; idx-- {
		if !quotes[idx].Date.After(reportDate) {
			endPrice = quotes[idx].Close
			break
		}
	}

	startPrice := quotes[0].Close

	cagr := 0.0
	if startPrice > 0 {
		cagr = (math.Pow(endPrice/startPrice, 1.0/5.0) - 1) * 100
	}

	latest := quotes[len(quotes)-1]

	return &PriceContext{
		ReportEndPrice:    endPrice,
		FiveYearsAgoPrice: startPrice,
		CAGR:              cagr,
		StartDate:         startDate,
		EndDate:           reportDate,
		TotalDays:         len(quotes),
		LatestClose:       latest.Close,
		LatestDate:        latest.Date,
	}, nil
}
