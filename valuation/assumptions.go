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

import "errors"

var (
	// ErrInvalidAssumptions marks degenerate valuation inputs: a discount
	// rate at or below the terminal growth rate, a non-positive share
	// price, or zero shares outstanding.
	ErrInvalidAssumptions = errors.New("invalid valuation assumptions")

	// ErrNoConvergence is returned when the implied-growth search exhausts
	// its iteration budget without collapsing the bracket.
	ErrNoConvergence = errors.New("implied growth search did not converge")
)

// CapexZeroPlaceholder stands in for capital expenditure until the
// investing cash flow field from the upstream source has a reliable
// mapping. Correct DefaultAssumptions when that happens; call sites read
// capex from Assumptions and need no changes.
const CapexZeroPlaceholder = 0.0

// Assumptions are the financial model parameters shared by the DCF and
// reverse-DCF calculations. They are passed explicitly so tests and
// future tuning can override any of them.
type Assumptions struct {
	// DiscountRate is the WACC used to discount projected cash flows
	DiscountRate float64

	// TerminalGrowth is the perpetual growth rate beyond the forecast horizon
	TerminalGrowth float64

	// GrowthRate is the explicit forecast growth applied during the horizon
	GrowthRate float64

	// HorizonYears is the length of the explicit forecast period
	HorizonYears int

	// CapitalExpenditure is subtracted (as an absolute value) from
	// operating cash flow when deriving free cash flow
	CapitalExpenditure float64
}

// DefaultAssumptions returns the model parameters used for HK securities:
// 9.6% WACC, 2.5% terminal growth, 10% forecast growth over 5 years.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		DiscountRate:       0.096,
		TerminalGrowth:     0.025,
		GrowthRate:         0.10,
		HorizonYears:       5,
		CapitalExpenditure: CapexZeroPlaceholder,
	}
}

func (assumptions Assumptions) validateRates() error {
	if assumptions.DiscountRate <= assumptions.TerminalGrowth {
		return ErrInvalidAssumptions
	}
	if assumptions.HorizonYears <= 0 {
		return ErrInvalidAssumptions
	}
	return nil
}
