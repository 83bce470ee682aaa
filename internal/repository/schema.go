package repository

// SchemaStatements are the idempotent DDL statements applied at startup.
// Keyed tables use ReplacingMergeTree so re-upserting a key replaces the row
// at merge time; reads that must observe the replacement use FINAL.
var SchemaStatements = []string{
	`CREATE DATABASE IF NOT EXISTS squeezewatch`,

	`CREATE TABLE IF NOT EXISTS squeezewatch.daily_metrics (
        ticker                LowCardinality(String),
        trade_date            Date,
        open_price            Float64,
        high_price            Float64,
        low_price             Float64,
        close_price           Float64,
        prev_close_price      Float64,
        borrow_balance        Float64,
        borrow_balance_change Float64,
        margin_balance        Float64,
        short_balance         Float64,
        margin_ratio          Float64,
        hv_20d                Float64,
        volume                Int64,
        avg_volume_20d        Float64,
        turnover              Float64,
        resistance_level      Float64,
        ingested_at           DateTime DEFAULT now()
    ) ENGINE = ReplacingMergeTree(ingested_at)
    ORDER BY (ticker, trade_date)`,

	`CREATE TABLE IF NOT EXISTS squeezewatch.warrant_quotes (
        warrant_id        String,
        underlying_ticker LowCardinality(String),
        trade_date        Date,
        implied_vol       Float64,
        close_price       Float64,
        volume            Int64,
        ingested_at       DateTime DEFAULT now()
    ) ENGINE = ReplacingMergeTree(ingested_at)
    ORDER BY (warrant_id, trade_date)`,

	`CREATE TABLE IF NOT EXISTS squeezewatch.squeeze_signals (
        ticker            LowCardinality(String),
        trade_date        Date,
        score             Int32,
        trend             LowCardinality(String),
        comment           String,
        borrow_score      Nullable(Float64),
        gamma_score       Nullable(Float64),
        margin_score      Nullable(Float64),
        momentum_score    Nullable(Float64),
        notification_sent UInt8,
        generated_at      DateTime
    ) ENGINE = ReplacingMergeTree(generated_at)
    ORDER BY (ticker, trade_date)`,

	`CREATE TABLE IF NOT EXISTS squeezewatch.cb_issuance (
        cb_ticker         String,
        cb_name           String,
        underlying_ticker LowCardinality(String),
        conversion_price  Float64,
        trigger_ratio     Float64,
        trigger_days      Int32,
        total_issued      Float64,
        outstanding       Float64,
        redemption_called UInt8,
        active            UInt8,
        updated_at        DateTime DEFAULT now()
    ) ENGINE = ReplacingMergeTree(updated_at)
    ORDER BY cb_ticker`,

	`CREATE TABLE IF NOT EXISTS squeezewatch.cb_tracking (
        cb_ticker          String,
        underlying_ticker  LowCardinality(String),
        trade_date         Date,
        close_price        Float64,
        conversion_price   Float64,
        price_ratio        Float64,
        above_trigger      UInt8,
        consecutive_days   Int32,
        days_remaining     Int32,
        trigger_progress   Float64,
        outstanding        Float64,
        balance_change_pct Float64,
        warning_level      LowCardinality(String),
        comment            String,
        evaluated_at       DateTime
    ) ENGINE = ReplacingMergeTree(evaluated_at)
    ORDER BY (cb_ticker, trade_date)`,

	`CREATE TABLE IF NOT EXISTS squeezewatch.tracked_tickers (
        ticker     String,
        name       String,
        category   LowCardinality(String),
        active     UInt8,
        added_at   DateTime,
        updated_at DateTime DEFAULT now()
    ) ENGINE = ReplacingMergeTree(updated_at)
    ORDER BY ticker`,

	`CREATE TABLE IF NOT EXISTS squeezewatch.system_config (
        key        String,
        value      String,
        updated_at DateTime DEFAULT now()
    ) ENGINE = ReplacingMergeTree(updated_at)
    ORDER BY key`,
}
