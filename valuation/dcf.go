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
package valuation

import (
	"fmt"
	"math"
)

// ForecastYear is one explicit-period year of a DCF projection
type ForecastYear struct {
	Year         int
	FCF          float64
	PresentValue float64
}

// Result is a complete DCF valuation. All rates are fractions (0.096 for
// 9.6%); presentation layers convert to percentages.
type Result struct {
	Assumptions Assumptions

	// DataSource labels whether the projection base was an annual filing
	// or the current report period
	DataSource string

	// BaseYear and BaseFCF identify the anchor the projection compounds from
	BaseYear int
	BaseFCF  float64

	Forecast         []ForecastYear
	TerminalValue    float64
	TerminalMultiple float64
	EnterpriseValue  float64
	EquityValue      float64

	SharesOutstanding float64
	FairValuePerShare float64

	// ExpectedReturn is the annualized return implied by the gap between
	// fair value and the current share price over the forecast horizon
	ExpectedReturn float64
}

// FreeCashFlow derives FCF from operating cash flow under the given
// assumptions. Capital expenditure is applied as an absolute value; with
// the zero placeholder this passes operating cash flow through unchanged.
func FreeCashFlow(operatingCashFlow float64, assumptions Assumptions) float64 {
	return operatingCashFlow - math.Abs(assumptions.CapitalExpenditure)
}

// DCF projects baseFCF forward over the assumption horizon, discounts the
// explicit period and a Gordon-growth terminal value, and derives per-share
// fair value. cashEquivalents must come from the current (latest) report so
// equity value reflects the most recent cash position even when the FCF
// base is an older annual filing; marketCap and sharePrice establish shares
// outstanding.
func DCF(assumptions Assumptions, baseYear int, baseFCF, cashEquivalents, marketCap, sharePrice float64) (*Result, error) {
	if err := assumptions.validateRates(); err != nil {
		return nil, fmt.Errorf("%w: discount rate %.4f vs terminal growth %.4f",
			err, assumptions.DiscountRate, assumptions.TerminalGrowth)
	}

	if sharePrice <= 0 {
		return nil, fmt.Errorf("%w: share price %.4f", ErrInvalidAssumptions, sharePrice)
	}

	sharesOutstanding := marketCap / sharePrice
	if sharesOutstanding == 0 {
		return nil, fmt.Errorf("%w: zero shares outstanding", ErrInvalidAssumptions)
	}

	forecast := make([]ForecastYear, 0, assumptions.HorizonYears)
	fcf := baseFCF
	explicitPV := 0.0

	for year := 1; year <= assumptions.HorizonYears; year++ {
		fcf *= 1 + assumptions.GrowthRate
		pv := fcf / math.Pow(1+assumptions.DiscountRate, float64(year))
		explicitPV += pv
		forecast = append(forecast, ForecastYear{
			Year:         baseYear + year,
			FCF:          fcf,
			PresentValue: pv,
		})
	}

	terminalFCF := forecast[len(forecast)-1].FCF
	terminalValue := terminalFCF * (1 + assumptions.TerminalGrowth) /
		(assumptions.DiscountRate - assumptions.TerminalGrowth)
	terminalPV := terminalValue / math.Pow(1+assumptions.DiscountRate, float64(assumptions.HorizonYears))

	enterpriseValue := explicitPV + terminalPV
	equityValue := enterpriseValue + cashEquivalents
	fairValue := equityValue / sharesOutstanding

	// a non-positive fair value (negative base FCF) has no real annualized
	// return; report zero instead of handing callers a NaN
	expectedReturn := 0.0
	if ratio := fairValue / sharePrice; ratio > 0 {
		expectedReturn = math.Pow(ratio, 1/float64(assumptions.HorizonYears)) - 1
	}

	return &Result{
		Assumptions:       assumptions,
		BaseYear:          baseYear,
		BaseFCF:           baseFCF,
		Forecast:          forecast,
		TerminalValue:     terminalValue,
		TerminalMultiple:  terminalValue / terminalFCF,
		EnterpriseValue:   enterpriseValue,
		EquityValue:       equityValue,
		SharesOutstanding: sharesOutstanding,
		FairValuePerShare: fairValue,
		ExpectedReturn:    expectedReturn,
	}, nil
}
