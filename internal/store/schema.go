package store

const schema = `
CREATE TABLE IF NOT EXISTS snapshot_meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS packages (
    name TEXT PRIMARY KEY,
    version TEXT NOT NULL,
    modified INTEGER NOT NULL,
    has_desc BOOLEAN NOT NULL,
    synopsis TEXT,
    haystack TEXT
);

CREATE TABLE IF NOT EXISTS dependencies (
    package TEXT NOT NULL,
    seq INTEGER NOT NULL,
    depends_on TEXT NOT NULL,
    vrange TEXT NOT NULL,
    PRIMARY KEY (package, seq),
    FOREIGN KEY (package) REFERENCES packages(name) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_deps_depends ON dependencies(depends_on);
`
