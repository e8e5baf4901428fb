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

// Package format renders financial figures for report output. Provider
// amounts arrive in yuan; display uses 亿元 for statement lines and 万元
// for per-share context.
package format

import (
	"fmt"
	"math"
)

const (
	yiYuan  = 1e8
	wanYuan = 1e4
)

// SafeNumber collapses NaN and infinities to zero so report rendering
// never prints garbage from a degenerate calculation.
func SafeNumber(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}

// SafeDiv divides, treating a zero denominator as a zero result
func SafeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return SafeNumber(numerator / denominator)
}

// ToBillion renders a yuan amount in 亿元 with two decimals
func ToBillion(value float64) string {
	return fmt.Sprintf("%.2f亿元", SafeNumber(value)/yiYuan)
}

// ToTenThousand renders a yuan amount in 万元 with two decimals
func ToTenThousand(value float64) string {
	return fmt.Sprintf("%.2f万元", SafeNumber(value)/wanYuan)
}

// Percent renders a fraction as a percentage with two decimals
func Percent(fraction float64) string {
	return fmt.Sprintf("%.2f%%", SafeNumber(fraction)*100)
}

// PercentValue renders a value that is already a percentage
func PercentValue(percent float64) string {
	return fmt.Sprintf("%.2f%%", SafeNumber(percent))
}

// Multiple renders a valuation multiple such as PE or the terminal
// FCF multiple.
func Multiple(value float64) string {
	return fmt.Sprintf("%.2fx", SafeNumber(value))
}

// HKD renders a per-share price in Hong Kong dollars
func HKD(value float64) string {
	return fmt.Sprintf("%.2f港币", SafeNumber(value))
}
