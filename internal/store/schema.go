package store

import "fmt"

// Money columns are TEXT on SQLite so decimals round-trip exactly instead
// of going through REAL affinity.
const schemaTemplate = `
CREATE TABLE IF NOT EXISTS clients (
    id                   TEXT PRIMARY KEY,
    name                 TEXT NOT NULL,
    status               TEXT NOT NULL DEFAULT 'active',
    contact_name         TEXT NOT NULL DEFAULT '',
    created_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
    id                   TEXT PRIMARY KEY,
    client_id            TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
    platform             TEXT NOT NULL,
    external_id          TEXT NOT NULL,
    name                 TEXT NOT NULL DEFAULT '',
    monthly_budget       %[1]s NOT NULL,
    is_primary           INTEGER NOT NULL DEFAULT 0,
    created_at           TEXT NOT NULL,
    UNIQUE (platform, external_id)
);

CREATE TABLE IF NOT EXISTS custom_budgets (
    id                   TEXT PRIMARY KEY,
    client_id            TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
    account_id           TEXT NOT NULL DEFAULT '',
    platform             TEXT NOT NULL,
    amount               %[1]s NOT NULL,
    start_date           TEXT NOT NULL,
    end_date             TEXT NOT NULL,
    is_active            INTEGER NOT NULL DEFAULT 1,
    description          TEXT NOT NULL DEFAULT '',
    created_at           TEXT NOT NULL,
    updated_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS reviews (
    id                   TEXT PRIMARY KEY,
    account_id           TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    client_id            TEXT NOT NULL,
    platform             TEXT NOT NULL,
    review_date          TEXT NOT NULL,
    total_budget         %[1]s NOT NULL,
    spent                %[1]s NOT NULL,
    current_daily_budget %[1]s NOT NULL,
    trailing_average     %[1]s NOT NULL,
    remaining_days       INTEGER NOT NULL,
    remaining_budget     %[1]s NOT NULL,
    ideal_daily_budget   %[1]s NOT NULL,
    custom_budget_id     TEXT NOT NULL DEFAULT '',
    period_start         TEXT NOT NULL,
    period_end           TEXT NOT NULL,
    current_direction    TEXT NOT NULL,
    current_magnitude    %[1]s NOT NULL,
    average_direction    TEXT NOT NULL,
    average_magnitude    %[1]s NOT NULL,
    created_at           TEXT NOT NULL,
    UNIQUE (account_id, review_date)
);

CREATE TABLE IF NOT EXISTS api_tokens (
    name                 TEXT PRIMARY KEY,
    value                TEXT NOT NULL,
    updated_at           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_accounts_client ON accounts(client_id);
CREATE INDEX IF NOT EXISTS idx_custom_budgets_lookup ON custom_budgets(client_id, platform, is_active);
CREATE INDEX IF NOT EXISTS idx_reviews_platform_date ON reviews(platform, review_date);
`

func schemaFor(d dialect) string {
	money := "TEXT"
	if d == dialectPostgres {
		money = "NUMERIC"
	}
	return fmt.Sprintf(schemaTemplate, money)
}
