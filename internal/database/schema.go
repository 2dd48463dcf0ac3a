package database

const cacheSchema = `
-- One row per card record file under data/
CREATE TABLE card_cache (
	sanitized_name TEXT NOT NULL,
	block TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL,
	uuid TEXT,
	set_name TEXT,
	collector_number TEXT,
	double_faced BOOLEAN NOT NULL DEFAULT 0,
	path TEXT NOT NULL,
	cached_at TIMESTAMP NOT NULL,
	last_used TIMESTAMP NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (sanitized_name, block)
);

CREATE INDEX idx_card_block ON card_cache(block);
CREATE INDEX idx_card_uuid ON card_cache(uuid);
CREATE INDEX idx_card_last_used ON card_cache(last_used);

-- One row per image file under images/
CREATE TABLE image_cache (
	path TEXT PRIMARY KEY,
	sanitized_name TEXT NOT NULL,
	name TEXT NOT NULL,
	block TEXT NOT NULL DEFAULT '',
	face TEXT NOT NULL,
	uuid TEXT,
	size INTEGER NOT NULL DEFAULT 0,
	cached_at TIMESTAMP NOT NULL
);

CREATE INDEX idx_image_card ON image_cache(sanitized_name, block);
`

// migrations are applied in order; user_version counts how many have run.
// The first entry is the base schema.
var migrations = []string{
	cacheSchema,
}
