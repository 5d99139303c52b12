package repository

import "fmt"

// AssessmentTableDDL creates the table ClickHouseStorage writes to.
func AssessmentTableDDL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id String,
    ticker LowCardinality(String),
    status LowCardinality(String),
    decision LowCardinality(String),
    z_score Float64,
    zone LowCardinality(String),
    default_probability Float64,
    default_point Float64,
    implied_asset_value Float64,
    drift Float64,
    volatility Float64,
    iterations UInt32,
    converged UInt8,
    failure_stage LowCardinality(String),
    failure_code LowCardinality(String),
    failure_message String,
    evaluated_at DateTime64(3, 'UTC')
) ENGINE = MergeTree ORDER BY (ticker, evaluated_at)`, table)
}

// SnapshotTableDDL creates the table CHSnapshotStore reads and writes.
func SnapshotTableDDL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    ticker LowCardinality(String),
    total_assets Float64,
    total_liabilities Float64,
    current_liabilities Float64,
    non_current_assets Float64,
    retained_earnings Float64,
    ebit Float64,
    total_revenue Float64,
    market_value_of_equity Float64,
    current_debt Float64,
    long_term_debt Float64,
    historical_total_assets Array(Float64),
    ingested_at DateTime64(3, 'UTC')
) ENGINE = MergeTree ORDER BY (ticker, ingested_at)`, table)
}
