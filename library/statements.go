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
package library

import (
	"context"
	"errors"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"github.com/wenming2024/zhaocai/data"
)

const statementColumns = `security_code, security_name_abbr, org_code, report_date,
fiscal_year, date_type_code, operate_income, operate_income_yoy, gross_profit,
gross_profit_ratio, holder_profit, holder_profit_yoy, netcash_operate,
netcash_invest, end_cash, total_assets, total_liabilities, total_market_cap,
pe_ttm, pb_ttm, roe_avg, roa, balance_item_code, balance_item_name,
balance_amount, income_item_code, income_item_name, income_amount,
cashflow_item_code, cashflow_item_name, cashflow_amount`

// Security is a distinct security code with its abbreviated name
type Security struct {
	SecurityCode     string `db:"security_code"`
	SecurityNameAbbr string `db:"security_name_abbr"`
}

// StatementByCodeAndDate returns the composite record for the given
// security and report date, or nil when no record exists.
func (myLibrary *Library) StatementByCodeAndDate(ctx context.Context, securityCode string, reportDate time.Time) (*data.FinancialStatement, error) {
	statement := &data.FinancialStatement{}
	err := pgxscan.Get(ctx, myLibrary.Pool, statement,
		`SELECT `+statementColumns+` FROM hk_financial_data
		WHERE security_code = $1 AND report_date = $2`,
		securityCode, reportDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return statement, nil
}

// StatementsByCode returns all composite records for a security ordered by
// report date descending. A limit of 0 returns every record.
func (myLibrary *Library) StatementsByCode(ctx context.Context, securityCode string, limit int) ([]*data.FinancialStatement, error) {
	sql := `SELECT ` + statementColumns + ` FROM hk_financial_data
		WHERE security_code = $1 ORDER BY report_date DESC`

	var statements []*data.FinancialStatement
	var err error

	if limit > 0 {
		err = pgxscan.Select(ctx, myLibrary.Pool, &statements, sql+` LIMIT $2`, securityCode, limit)
	} else {
		err = pgxscan.Select(ctx, myLibrary.Pool, &statements, sql, securityCode)
	}

	return statements, err
}

// BulkUpsertStatements saves composite records, overwriting any previous
// values for the same (security_code, report_date) key. It returns the
// number of rows written.
func (myLibrary *Library) BulkUpsertStatements(ctx context.Context, statements []*data.FinancialStatement) (int64, error) {
	conn, err := myLibrary.Pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return 0, err
	}

	defer func() {
		if err := tx.Commit(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			log.Error().Err(err).Msg("error committing statement transaction to database")
		}
	}()

	var affected int64

	sql := `INSERT INTO hk_financial_data (` + statementColumns + `) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31
	) ON CONFLICT (security_code, report_date) DO UPDATE SET
		security_name_abbr = EXCLUDED.security_name_abbr,
		org_code = EXCLUDED.org_code,
		fiscal_year = EXCLUDED.fiscal_year,
		date_type_code = EXCLUDED.date_type_code,
		operate_income = EXCLUDED.operate_income,
		operate_income_yoy = EXCLUDED.operate_income_yoy,
		gross_profit = EXCLUDED.gross_profit,
		gross_profit_ratio = EXCLUDED.gross_profit_ratio,
		holder_profit = EXCLUDED.holder_profit,
		holder_profit_yoy = EXCLUDED.holder_profit_yoy,
		netcash_operate = EXCLUDED.netcash_operate,
		netcash_invest = EXCLUDED.netcash_invest,
		end_cash = EXCLUDED.end_cash,
		total_assets = EXCLUDED.total_assets,
		total_liabilities = EXCLUDED.total_liabilities,
		total_market_cap = EXCLUDED.total_market_cap,
		pe_ttm = EXCLUDED.pe_ttm,
		pb_ttm = EXCLUDED.pb_ttm,
		roe_avg = EXCLUDED.roe_avg,
		roa = EXCLUDED.roa,
		balance_item_code = EXCLUDED.balance_item_code,
		balance_item_name = EXCLUDED.balance_item_name,
		balance_amount = EXCLUDED.balance_amount,
		income_item_code = EXCLUDED.income_item_code,
		income_item_name = EXCLUDED.income_item_name,
		income_amount = EXCLUDED.income_amount,
		cashflow_item_code = EXCLUDED.cashflow_item_code,
		cashflow_item_name = EXCLUDED.cashflow_item_name,
		cashflow_amount = EXCLUDED.cashflow_amount`

	for _, statement := range statements {
		tag, err := tx.Exec(ctx, sql,
			statement.SecurityCode,
			statement.SecurityNameAbbr,
			statement.OrgCode,
			statement.ReportDate,
			statement.FiscalYear,
			statement.DateTypeCode,
			statement.OperateIncome,
			statement.OperateIncomeYoY,
			statement.GrossProfit,
			statement.GrossProfitRatio,
			statement.HolderProfit,
			statement.HolderProfitYoY,
			statement.NetcashOperate,
			statement.NetcashInvest,
			statement.EndCash,
			statement.TotalAssets,
			statement.TotalLiabilities,
			statement.TotalMarketCap,
			statement.PETTM,
			statement.PBTTM,
			statement.ROEAvg,
			statement.ROA,
			statement.BalanceItemCode,
			statement.BalanceItemName,
			statement.BalanceAmount,
			statement.IncomeItemCode,
			statement.IncomeItemName,
			statement.IncomeAmount,
			statement.CashflowItemCode,
			statement.CashflowItemName,
			statement.CashflowAmount,
		)
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				log.Error().Err(rollbackErr).Msg("error rolling back statement transaction")
			}
			log.Error().Err(err).Str("SecurityCode", statement.SecurityCode).
				Time("ReportDate", statement.ReportDate).Msg("save financial statement to DB failed")
			return affected, err
		}

		affected += tag.RowsAffected()
	}

	return affected, nil
}

// LatestReportDate returns the most recent report date stored for a
// security; the zero time means no data exists.
func (myLibrary *Library) LatestReportDate(ctx context.Context, securityCode string) (time.Time, error) {
	var latest time.Time
	err := myLibrary.Pool.QueryRow(ctx,
		`SELECT coalesce(max(report_date), '0001-01-01'::timestamp) FROM hk_financial_data
		WHERE security_code = $1`, securityCode).Scan(&latest)
	if err != nil {
		return time.Time{}, err
	}

	if latest.Year() <= 1 {
		return time.Time{}, nil
	}

	return latest, nil
}

// SecurityCodes returns every distinct security with statement data
func (myLibrary *Library) SecurityCodes(ctx context.Context) ([]*Security, error) {
	var securities []*Security
	err := pgxscan.Select(ctx, myLibrary.Pool, &securities,
		`SELECT DISTINCT security_code, security_name_abbr FROM hk_financial_data
		ORDER BY security_code`)
	return securities, err
}

// TotalRecords returns the number of statement rows stored for a security
func (myLibrary *Library) TotalRecords(ctx context.Context, securityCode string) (int, error) {
	count := 0
	err := myLibrary.Pool.QueryRow(ctx,
		`SELECT count(*) FROM hk_financial_data WHERE security_code = $1`,
		securityCode).Scan(&count)
	return count, err
}

// SecurityName returns the abbreviated name stored with a security's
// statements, or the empty string when the security is unknown.
func (myLibrary *Library) SecurityName(ctx context.Context, securityCode string) (string, error) {
	var name string
	err := myLibrary.Pool.QueryRow(ctx,
		`SELECT security_name_abbr FROM hk_financial_data
		WHERE security_code = $1 ORDER BY report_date DESC LIMIT 1`,
		securityCode).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}

	return name, err
}
