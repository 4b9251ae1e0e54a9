package store

const schema = `
CREATE TABLE IF NOT EXISTS channels (
    id                   TEXT PRIMARY KEY,
    name                 TEXT NOT NULL,
    login_url            TEXT NOT NULL,
    logged_in_indicator  TEXT NOT NULL DEFAULT '',
    login_page_indicator TEXT NOT NULL DEFAULT '',
    tier                 TEXT NOT NULL DEFAULT 'public',
    monitor_urls         TEXT NOT NULL DEFAULT '[]',
    created_at           DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS sessions (
    channel_id            TEXT PRIMARY KEY REFERENCES channels(id),
    status                TEXT NOT NULL DEFAULT 'unknown',
    last_checked_at       DATETIME,
    last_authenticated_at DATETIME,
    failure_count         INTEGER NOT NULL DEFAULT 0,
    notes                 TEXT NOT NULL DEFAULT '',
    updated_at            DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS leads (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp  DATETIME NOT NULL,
    source     TEXT NOT NULL,
    title      TEXT NOT NULL,
    url        TEXT NOT NULL UNIQUE,
    budget     TEXT NOT NULL DEFAULT '',
    location   TEXT NOT NULL DEFAULT '',
    hot_lead   BOOLEAN NOT NULL DEFAULT 0,
    notes      TEXT NOT NULL DEFAULT '',
    archived   BOOLEAN NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_leads_source ON leads(source);
CREATE INDEX IF NOT EXISTS idx_leads_timestamp ON leads(timestamp);
CREATE INDEX IF NOT EXISTS idx_leads_hot ON leads(hot_lead) WHERE hot_lead = 1;
CREATE INDEX IF NOT EXISTS idx_leads_url ON leads(url);

CREATE TABLE IF NOT EXISTS activity_log (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp  DATETIME NOT NULL,
    channel_id TEXT,
    action     TEXT NOT NULL,
    result     TEXT NOT NULL DEFAULT '',
    notes      TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_activity_timestamp ON activity_log(timestamp);
`
