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

// Package analysis enriches financial reports with qualitative commentary
// from an OpenAI-compatible chat completion API. Every call degrades to a
// placeholder section on failure so report rendering never depends on the
// model being reachable.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	defaultBaseURL = "https://api.deepseek.com"
	defaultModel   = "deepseek-chat"

	// chat completions routinely take tens of seconds for long prompts
	requestTimeout = 60 * time.Second
)

// ErrAnalysisUnavailable marks a failed or disabled model call; callers
// should fall back to placeholder content.
var ErrAnalysisUnavailable = errors.New("analysis unavailable")

// ProsCons lists investment highlights and risk factors for a security
type ProsCons struct {
	Pros []string `json:"pros"`
	Cons []string `json:"cons"`
}

// BusinessRating scores one dimension of the business on a 1-10 scale
type BusinessRating struct {
	Dimension string  `json:"dimension"`
	Score     float64 `json:"score"`
	Comment   string  `json:"comment"`
}

// RevenueSegment is one line of business and its share of total revenue
type RevenueSegment struct {
	Business string  `json:"business"`
	Percent  float64 `json:"percent"`
}

// Report bundles the qualitative sections attached to a financial report
type Report struct {
	ProsCons ProsCons
	Ratings  []BusinessRating
	Revenue  []RevenueSegment
}

// DefaultReport is the placeholder used when the model is disabled or a
// call fails.
func DefaultReport() *Report {
	return &Report{
		ProsCons: ProsCons{
			Pros: []string{"暂无数据"},
			Cons: []string{"暂无数据"},
		},
		Ratings: []BusinessRating{},
		Revenue: []RevenueSegment{},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client calls a chat completion endpoint for qualitative analysis. A nil
// API key disables the client; all methods then return defaults.
type Client struct {
	client  *resty.Client
	model   string
	enabled bool
}

// NewClient builds an analysis client from the analysis.* configuration
// keys. Without an API key the client is disabled rather than failing.
func NewClient() *Client {
	baseURL := viper.GetString("analysis.baseurl")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	model := viper.GetString("analysis.model")
	if model == "" {
		model = defaultModel
	}

	apiKey := viper.GetString("analysis.apikey")
	if apiKey == "" {
		log.Info().Msg("analysis.apikey not set; qualitative analysis disabled")
	}

	return &Client{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(requestTimeout).
			SetAuthToken(apiKey).
			SetHeader("Content-Type", "application/json"),
		model:   model,
		enabled: apiKey != "",
	}
}

func (deepseek *Client) chat(ctx context.Context, prompt string) (string, error) {
	if !deepseek.enabled {
		return "", ErrAnalysisUnavailable
	}

	var envelope chatResponse

	resp, err := deepseek.client.R().
		SetContext(ctx).
		SetBody(&chatRequest{
			Model: deepseek.model,
			Messages: []chatMessage{
				{Role: "system", Content: "你是一位专业的港股证券分析师，回答必须是合法的JSON，不要包含任何额外说明。"},
				{Role: "user", Content: prompt},
			},
		}).
		SetResult(&envelope).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrAnalysisUnavailable, err.Error())
	}

	if resp.StatusCode() >= 300 {
		return "", fmt.Errorf("%w: status %d: %s", ErrAnalysisUnavailable,
			resp.StatusCode(), envelope.Error.Message)
	}

	if len(envelope.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrAnalysisUnavailable)
	}

	return envelope.Choices[0].Message.Content, nil
}

// extractJSON pulls the first JSON object or array out of a model reply,
// tolerating markdown code fences around it.
func extractJSON(reply string) string {
	reply = strings.TrimSpace(reply)
	reply = strings.TrimPrefix(reply, "```json")
	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSuffix(reply, "```")
	reply = strings.TrimSpace(reply)

	for _, open := range []struct{ open, close byte }{{'{', '}'}, {'[', ']'}} {
		start := strings.IndexByte(reply, open.open)
		end := strings.LastIndexByte(reply, open.close)
		if start >= 0 && end > start {
			return reply[start : end+1]
		}
	}

	return reply
}

// ProsAndCons asks the model for investment highlights and risk factors
func (deepseek *Client) ProsAndCons(ctx context.Context, securityName, securityCode string) (*ProsCons, error) {
	prompt := fmt.Sprintf(
		"分析港股上市公司 %s（股票代码 %s.HK）的投资亮点和风险因素。"+
			"以JSON对象回答，格式：{\"pros\": [\"亮点1\", ...], \"cons\": [\"风险1\", ...]}，各列出3到5条。",
		securityName, securityCode)

	reply, err := deepseek.chat(ctx, prompt)
	if err != nil {
		return nil, err
	}

	prosCons := &ProsCons{}
	if err := json.Unmarshal([]byte(extractJSON(reply)), prosCons); err != nil {
		return nil, fmt.Errorf("%w: decode pros and cons: %s", ErrAnalysisUnavailable, err.Error())
	}

	return prosCons, nil
}

// BusinessRatings asks the model to score the business across standard
// dimensions such as moat, growth and management quality.
func (deepseek *Client) BusinessRatings(ctx context.Context, securityName, securityCode string) ([]BusinessRating, error) {
	prompt := fmt.Sprintf(
		"对港股上市公司 %s（股票代码 %s.HK）从护城河、成长性、盈利能力、管理层、财务健康五个维度打分（1-10分）。"+
			"以JSON数组回答，格式：[{\"dimension\": \"护城河\", \"score\": 8, \"comment\": \"简短点评\"}, ...]。",
		securityName, securityCode)

	reply, err := deepseek.chat(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var ratings []BusinessRating
	if err := json.Unmarshal([]byte(extractJSON(reply)), &ratings); err != nil {
		return nil, fmt.Errorf("%w: decode business ratings: %s", ErrAnalysisUnavailable, err.Error())
	}

	return ratings, nil
}

// RevenueDistribution asks the model for the revenue split across the
// company's lines of business.
func (deepseek *Client) RevenueDistribution(ctx context.Context, securityName, securityCode string) ([]RevenueSegment, error) {
	prompt := fmt.Sprintf(
		"列出港股上市公司 %s（股票代码 %s.HK）最近一个财年的主营业务收入构成及占比。"+
			"以JSON数组回答，格式：[{\"business\": \"业务名称\", \"percent\": 45.2}, ...]，percent为占总收入的百分比。",
		securityName, securityCode)

	reply, err := deepseek.chat(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var segments []RevenueSegment
	if err := json.Unmarshal([]byte(extractJSON(reply)), &segments); err != nil {
		return nil, fmt.Errorf("%w: decode revenue distribution: %s", ErrAnalysisUnavailable, err.Error())
	}

	return segments, nil
}

// FullReport runs all three analysis sections concurrently and settles
// every branch: a failed branch is logged and replaced by its placeholder
// instead of failing the report.
func (deepseek *Client) FullReport(ctx context.Context, securityName, securityCode string) *Report {
	report := DefaultReport()

	if !deepseek.enabled {
		return report
	}

	logger := log.With().Str("SecurityCode", securityCode).Logger()

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		if prosCons, err := deepseek.ProsAndCons(ctx, securityName, securityCode); err != nil {
			logger.Warn().Err(err).Msg("pros and cons analysis failed; using placeholder")
		} else {
			report.ProsCons = *prosCons
		}
	}()

	go func() {
		defer wg.Done()
		if ratings, err := deepseek.BusinessRatings(ctx, securityName, securityCode); err != nil {
			logger.Warn().Err(err).Msg("business rating analysis failed; using placeholder")
		} else {
			report.Ratings = ratings
		}
	}()

	go func() {
		defer wg.Done()
		if segments, err := deepseek.RevenueDistribution(ctx, securityName, securityCode); err != nil {
			logger.Warn().Err(err).Msg("revenue distribution analysis failed; using placeholder")
		} else {
			report.Revenue = segments
		}
	}()

	wg.Wait()
	return report
}
