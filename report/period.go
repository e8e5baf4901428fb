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
package report

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/wenming2024/zhaocai/data"
)

// ErrInvalidPeriodFormat marks a malformed report period token. Valid
// tokens are "latest", "YYYY" and "YYYY-Q1" through "YYYY-Q4".
var ErrInvalidPeriodFormat = errors.New("invalid report period format")

// ReportType distinguishes annual from quarterly filings
type ReportType string

const (
	Annual    ReportType = "annual"
	Quarterly ReportType = "quarterly"
)

var periodPattern = regexp.MustCompile(`^(\d{4})(?:-Q([1-4]))?$`)

// ReportPeriod is a resolved report period: its type, fiscal year,
// quarter (0 for annual) and the concrete filing close date.
type ReportPeriod struct {
	Type       ReportType
	FiscalYear int
	Quarter    int
	Date       time.Time
}

// ResolvePeriod maps a period token to a concrete report period.
//
// "latest" resolves relative to now under the assumption that filings lag
// one quarter: during Jan-Mar the freshest filing is last year's annual
// report, during Apr-Jun it is Q1 of the current year, and so on. Annual
// periods close on Dec 31; quarterly periods close on the last day of the
// quarter-ending month. Malformed tokens fail with ErrInvalidPeriodFormat.
func ResolvePeriod(token string, now time.Time) (*ReportPeriod, error) {
	if token == "latest" {
		year := now.Year()
		switch {
		case now.Month() <= 3:
			return newAnnualPeriod(year - 1), nil
		case now.Month() <= 6:
			return newQuarterlyPeriod(year, 1), nil
		case now.Month() <= 9:
			return newQuarterlyPeriod(year, 2), nil
		default:
			return newQuarterlyPeriod(year, 3), nil
		}
	}

	match := periodPattern.FindStringSubmatch(token)
	if match == nil {
		return nil, fmt.Errorf("%w: %q (expected latest, YYYY or YYYY-Q1..Q4)", ErrInvalidPeriodFormat, token)
	}

	year, _ := strconv.Atoi(match[1])
	if match[2] == "" {
		return newAnnualPeriod(year), nil
	}

	quarter, _ := strconv.Atoi(match[2])
	return newQuarterlyPeriod(year, quarter), nil
}

func newAnnualPeriod(year int) *ReportPeriod {
	return &ReportPeriod{
		Type:       Annual,
		FiscalYear: year,
		Date:       annualCloseDate(year),
	}
}

func newQuarterlyPeriod(year, quarter int) *ReportPeriod {
	return &ReportPeriod{
		Type:       Quarterly,
		FiscalYear: year,
		Quarter:    quarter,
		Date:       quarterCloseDate(year, quarter),
	}
}

func annualCloseDate(year int) time.Time {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

func quarterCloseDate(year, quarter int) time.Time {
	month := time.Month(quarter * 3)
	// last calendar day of the quarter-ending month
	return time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}

// Token renders the period back in its token form
func (period *ReportPeriod) Token() string {
	if period.Type == Annual {
		return strconv.Itoa(period.FiscalYear)
	}
	return fmt.Sprintf("%d-Q%d", period.FiscalYear, period.Quarter)
}

// AnchorYear returns the fiscal year of the most recently closed annual
// report for this period. Q1-Q3 of year Y precede year Y's annual filing,
// so they anchor to Y-1; Q4 and annual periods anchor to Y itself. This
// rule decides which annual FCF base valuation projections compound from.
func (period *ReportPeriod) AnchorYear() int {
	if period.Type == Quarterly && period.Quarter != 4 {
		return period.FiscalYear - 1
	}
	return period.FiscalYear
}

// PriorPeriodDate returns the close date of the same-shaped period
// yearsBack years earlier, used when assembling the historical series.
func (period *ReportPeriod) PriorPeriodDate(yearsBack int) time.Time {
	year := period.FiscalYear - yearsBack
	if period.Type == Annual {
		return annualCloseDate(year)
	}
	return quarterCloseDate(year, period.Quarter)
}

// TokenForDate derives the period token for a stored report date: month
// 12 is an annual filing, anything else maps to its calendar quarter.
func TokenForDate(reportDate time.Time) string {
	if reportDate.Month() == time.December {
		return strconv.Itoa(reportDate.Year())
	}
	quarter := (int(reportDate.Month()) + 2) / 3
	return fmt.Sprintf("%d-Q%d", reportDate.Year(), quarter)
}

// NearestAnnual picks the annual (Dec 31) statement whose fiscal year is
// closest to targetYear. When two annual filings are equally distant the
// more recent year wins. Returns nil when no annual filing exists.
func NearestAnnual(statements []*data.FinancialStatement, targetYear int) *data.FinancialStatement {
	var nearest *data.FinancialStatement
	bestDistance := 0

	for _, statement := range statements {
		if !statement.IsAnnual() {
			continue
		}

		year := statement.ReportDate.Year()
		distance := year - targetYear
		if distance < 0 {
			distance = -distance
		}

		switch {
		case nearest == nil,
			distance < bestDistance,
			distance == bestDistance && year > nearest.ReportDate.Year():
			nearest = statement
			bestDistance = distance
		}
	}

	return nearest
}
