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

const (
	// bisection bracket for the implied growth rate
	growthSearchMin = -0.5
	growthSearchMax = 1.0

	growthTolerance = 0.001

	// hard cap so a pathological objective can never loop forever
	maxBisectIterations = 100
)

// YearFCF is one historical annual FCF observation, used to judge how
// plausible an implied growth rate is against the security's own record.
type YearFCF struct {
	Year int
	FCF  float64
}

// ReverseResult is a reverse-DCF valuation: the growth rate the market
// price implies, plus a plausibility score against historical growth.
type ReverseResult struct {
	Assumptions Assumptions
	DataSource  string

	BaseYear int
	BaseFCF  float64

	// ImpliedGrowthRate is the explicit-period growth rate (fraction) at
	// which the DCF reproduces the current market capitalization
	ImpliedGrowthRate float64

	TerminalValue    float64
	TerminalMultiple float64

	// ExpectedReturn for a fairly priced security equals the discount rate
	ExpectedReturn float64

	// FeasibilityProbability scores the implied growth against historical
	// FCF growth on a 0-100 scale, clamped to [10, 90] with a neutral 50
	// when history is too thin to judge
	FeasibilityProbability float64
}

// Value evaluates the DCF at a candidate growth rate: the sum of
// discounted explicit-period cash flows plus the discounted terminal
// value. It is the bisection objective and is monotonically increasing in
// growthRate.
func Value(fcf, growthRate, wacc, terminalGrowth float64, horizonYears int) float64 {
	presentValue := 0.0
	projected := fcf

	for year := 1; year <= horizonYears; year++ {
		projected *= 1 + growthRate
		presentValue += projected / math.Pow(1+wacc, float64(year))
	}

	terminalValue := projected * (1 + terminalGrowth) / (wacc - terminalGrowth)
	presentValue += terminalValue / math.Pow(1+wacc, float64(horizonYears))

	return presentValue
}

// SolveImpliedGrowth finds the growth rate in [-50%, +100%] at which the
// DCF value of baseFCF equals marketCap, by bisection. The objective's
// monotonicity in growth guarantees the bracket halves every iteration;
// the iteration cap guards against NaN poisoning from degenerate inputs.
func SolveImpliedGrowth(marketCap, baseFCF, wacc, terminalGrowth float64, horizonYears int) (float64, error) {
	if wacc <= terminalGrowth || horizonYears <= 0 {
		return 0, fmt.Errorf("%w: wacc %.4f vs terminal growth %.4f",
			ErrInvalidAssumptions, wacc, terminalGrowth)
	}

	low := growthSearchMin
	high := growthSearchMax

	for iteration := 0; high-low > growthTolerance; iteration++ {
		if iteration >= maxBisectIterations {
			return 0, fmt.Errorf("%w after %d iterations", ErrNoConvergence, maxBisectIterations)
		}

		mid := (low + high) / 2
		value := Value(baseFCF, mid, wacc, terminalGrowth, horizonYears)

		switch {
		case math.Abs(value-marketCap) < growthTolerance:
			return mid, nil
		case value > marketCap:
			high = mid
		default:
			low = mid
		}
	}

	return (low + high) / 2, nil
}

// ReverseDCF solves for the growth rate implied by the market
// capitalization and scores its feasibility against up to five years of
// historical annual FCF.
func ReverseDCF(assumptions Assumptions, baseYear int, baseFCF, marketCap float64, history []YearFCF) (*ReverseResult, error) {
	implied, err := SolveImpliedGrowth(marketCap, baseFCF,
		assumptions.DiscountRate, assumptions.TerminalGrowth, assumptions.HorizonYears)
	if err != nil {
		return nil, err
	}

	terminalFCF := baseFCF * math.Pow(1+implied, float64(assumptions.HorizonYears))
	terminalValue := terminalFCF * (1 + assumptions.TerminalGrowth) /
		(assumptions.DiscountRate - assumptions.TerminalGrowth)

	terminalMultiple := 0.0
	if terminalFCF != 0 {
		terminalMultiple = terminalValue / terminalFCF
	}

	return &ReverseResult{
		Assumptions:            assumptions,
		BaseYear:               baseYear,
		BaseFCF:                baseFCF,
		ImpliedGrowthRate:      implied,
		TerminalValue:          terminalValue,
		TerminalMultiple:       terminalMultiple,
		ExpectedReturn:         assumptions.DiscountRate,
		FeasibilityProbability: FeasibilityProbability(implied, history),
	}, nil
}

// FeasibilityProbability compares an implied growth rate against the
// average year-over-year growth of the historical series (ordered most
// recent first). Implied growth at or below the historical trend scores
// high; above-trend implied growth is penalized twice as steeply. Steps
// whose prior-year FCF is not positive are skipped. With fewer than two
// usable points the score is a neutral 50.
func FeasibilityProbability(impliedGrowth float64, history []YearFCF) float64 {
	if len(history) < 2 {
		return 50.0
	}

	growthSum := 0.0
	growthCount := 0
	for idx := 0; idx < len(history)-1; idx++ {
		previous := history[idx+1].FCF
		if previous <= 0 {
			continue
		}
		growthSum += (history[idx].FCF - previous) / previous
		growthCount++
	}

	if growthCount == 0 {
		return 50.0
	}

	diff := impliedGrowth - growthSum/float64(growthCount)

	var probability float64
	if diff <= 0 {
		probability = math.Min(90, 70+math.Abs(diff)*100)
	} else {
		probability = math.Max(10, 70-diff*200)
	}

	return math.Round(probability*100) / 100
}
