package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations, versions sequential
// from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS items (
	id               TEXT PRIMARY KEY,
	source_url       TEXT NOT NULL,
	display_name     TEXT NOT NULL,
	last_known_price INTEGER NOT NULL,
	threshold_price  INTEGER NOT NULL,
	owner_id         TEXT NOT NULL REFERENCES users(id),
	created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_items_owner_id ON items(owner_id);

CREATE TABLE IF NOT EXISTS meta (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	last_cycle_at DATETIME
);

INSERT INTO meta (id, last_cycle_at) VALUES (1, NULL);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
