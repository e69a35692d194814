package database

// Schema is the single source of truth for the ledgerlink database layout.
// All statements are idempotent so Migrate can run on every startup.
//
// Dates are stored as Unix timestamps at midnight UTC. Amounts are stored as
// REAL in whole currency units (signed: income positive, expense negative).
//
// The (project_id, source_tag) index is deliberately NOT unique: manual
// transactions carry no source tag, and dedup enforcement lives in the import
// path rather than the schema.
const Schema = `
CREATE TABLE IF NOT EXISTS projects (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS integrations (
    id             TEXT PRIMARY KEY,
    provider       TEXT NOT NULL,
    name           TEXT NOT NULL,
    project_id     TEXT NOT NULL REFERENCES projects(id),
    active         INTEGER NOT NULL DEFAULT 1,
    config_json    TEXT,
    last_synced_at INTEGER,
    created_at     INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_integrations_active ON integrations(active, provider);

CREATE TABLE IF NOT EXISTS transactions (
    id          TEXT PRIMARY KEY,
    project_id  TEXT NOT NULL REFERENCES projects(id),
    date        INTEGER NOT NULL,
    description TEXT NOT NULL,
    amount      REAL NOT NULL,
    type        TEXT NOT NULL CHECK (type IN ('income', 'expense')),
    category    TEXT,
    source_tag  TEXT,
    created_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_project_date ON transactions(project_id, date);
CREATE INDEX IF NOT EXISTS idx_transactions_source_tag ON transactions(project_id, source_tag);

CREATE TABLE IF NOT EXISTS import_history (
    id            TEXT PRIMARY KEY,
    source_type   TEXT NOT NULL,
    source_name   TEXT NOT NULL,
    triggered_by  TEXT NOT NULL CHECK (triggered_by IN ('manual', 'cron')),
    started_at    INTEGER NOT NULL,
    completed_at  INTEGER,
    status        TEXT NOT NULL CHECK (status IN ('running', 'completed', 'partial', 'failed')),
    rows_imported INTEGER NOT NULL DEFAULT 0,
    rows_skipped  INTEGER NOT NULL DEFAULT 0,
    rows_errored  INTEGER NOT NULL DEFAULT 0,
    error_details TEXT
);

CREATE INDEX IF NOT EXISTS idx_import_history_started ON import_history(started_at DESC);

CREATE TABLE IF NOT EXISTS ad_daily_metrics (
    campaign_id   TEXT NOT NULL,
    date          INTEGER NOT NULL,
    campaign_name TEXT,
    spend         REAL NOT NULL DEFAULT 0,
    impressions   INTEGER NOT NULL DEFAULT 0,
    clicks        INTEGER NOT NULL DEFAULT 0,
    currency      TEXT NOT NULL DEFAULT 'USD',
    updated_at    INTEGER NOT NULL,
    PRIMARY KEY (campaign_id, date)
);

CREATE TABLE IF NOT EXISTS reconciliation_matches (
    id               TEXT PRIMARY KEY,
    transaction_a_id TEXT NOT NULL REFERENCES transactions(id),
    transaction_b_id TEXT NOT NULL REFERENCES transactions(id),
    match_type       TEXT NOT NULL CHECK (match_type IN ('auto', 'manual')),
    confidence       REAL NOT NULL,
    matched_on       TEXT,
    status           TEXT NOT NULL CHECK (status IN ('pending', 'confirmed', 'rejected')),
    confirmed_by     TEXT,
    confirmed_at     INTEGER,
    created_at       INTEGER NOT NULL,
    CHECK (transaction_a_id != transaction_b_id)
);

CREATE INDEX IF NOT EXISTS idx_matches_status ON reconciliation_matches(status);
`
