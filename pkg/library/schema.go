package library

// SchemaDDL defines the SQLite schema for the lutra game library.
// Tables: games, service_games.
// Execute against a SQLite database with: db.Exec(SchemaDDL)
const SchemaDDL = `
-- The local game library. slug is unique so every lookup strategy
-- yields at most one game.
CREATE TABLE IF NOT EXISTS games (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE,
    installer_slug TEXT,
    runner TEXT,
    platform TEXT,
    directory TEXT,
    installed INTEGER NOT NULL DEFAULT 0,
    installed_at INTEGER,
    lastplayed INTEGER,
    playtime REAL NOT NULL DEFAULT 0,
    configpath TEXT,
    service TEXT,
    service_id TEXT,
    year INTEGER
);

-- installer_slug is not unique (several games can share an installer
-- family); lookups order by id so results stay deterministic.
CREATE INDEX IF NOT EXISTS idx_games_installer_slug ON games (installer_slug);

CREATE INDEX IF NOT EXISTS idx_games_service ON games (service, service_id);

-- Games seen in external stores (Steam import and friends), whether or
-- not they made it into the library proper.
CREATE TABLE IF NOT EXISTS service_games (
    id INTEGER PRIMARY KEY,
    service TEXT NOT NULL,
    appid TEXT NOT NULL,
    name TEXT NOT NULL,
    slug TEXT NOT NULL,
    details TEXT,
    UNIQUE (service, appid)
);
`
