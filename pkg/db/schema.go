package db

// migrationsSQL creates the final schema. Statements are split on ';' so
// none of them may contain one.
const migrationsSQL = `
CREATE TABLE IF NOT EXISTS languages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	definition_hash TEXT NOT NULL DEFAULT '',
	added_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS vocabulary (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	language_id INTEGER NOT NULL REFERENCES languages(id) ON DELETE CASCADE,
	word TEXT NOT NULL,
	output TEXT NOT NULL,
	occurrence_count INTEGER NOT NULL DEFAULT 1,
	first_seen_at DATETIME,
	UNIQUE(language_id, word)
);

CREATE TABLE IF NOT EXISTS sources (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source_type TEXT NOT NULL,
	title TEXT,
	author TEXT,
	website TEXT,
	url TEXT,
	meta TEXT,
	added_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(url, title, author)
);

CREATE TABLE IF NOT EXISTS sentences (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	text TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	language_id INTEGER NOT NULL REFERENCES languages(id) ON DELETE CASCADE,
	source_id INTEGER REFERENCES sources(id) ON DELETE SET NULL,
	started_at DATETIME NOT NULL,
	finished_at DATETIME,
	sentence_count INTEGER NOT NULL DEFAULT 0,
	error_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS translations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT REFERENCES runs(id) ON DELETE SET NULL,
	source_id INTEGER NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
	language_id INTEGER NOT NULL REFERENCES languages(id) ON DELETE CASCADE,
	sentence_index INTEGER NOT NULL,
	sentence_id INTEGER REFERENCES sentences(id),
	output TEXT NOT NULL,
	error_count INTEGER NOT NULL DEFAULT 0,
	UNIQUE(source_id, language_id, sentence_index)
);

CREATE INDEX IF NOT EXISTS idx_translations_run ON translations(run_id);

CREATE TABLE IF NOT EXISTS source_progress (
	source_id INTEGER NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
	language_id INTEGER NOT NULL REFERENCES languages(id) ON DELETE CASCADE,
	last_processed_sentence INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (source_id, language_id)
);
`
