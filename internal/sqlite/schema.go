// Package sqlite implements the SQLite backend for the mangashelf storage
// system: SQLite is the query engine and JSONL files are the source of truth.
package sqlite

// Schema DDL for all tables. Tag references on a manga are stored as a JSON
// array of ids in mangas.tags.
const (
	createMangas = `CREATE TABLE mangas (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    link TEXT NOT NULL DEFAULT '',
    image TEXT NOT NULL DEFAULT '',
    chapters INTEGER NOT NULL DEFAULT 0,
    is_favorite INTEGER NOT NULL DEFAULT 0,
    type TEXT NOT NULL DEFAULT 'other',
    state TEXT NOT NULL DEFAULT 'none',
    tags TEXT NOT NULL DEFAULT '[]',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createTags = `CREATE TABLE tags (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    color TEXT NOT NULL DEFAULT ''
);`

	createDocuments = `CREATE TABLE documents (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`
)

// Index DDL. The title index serves ordered title scans; the others back
// Table.RangeQuery.
const (
	idxMangasTitle     = `CREATE INDEX idx_mangas_title ON mangas(title COLLATE NOCASE);`
	idxMangasChapters  = `CREATE INDEX idx_mangas_chapters ON mangas(chapters);`
	idxMangasCreatedAt = `CREATE INDEX idx_mangas_created_at ON mangas(created_at);`
	idxMangasUpdatedAt = `CREATE INDEX idx_mangas_updated_at ON mangas(updated_at);`
	idxTagsName        = `CREATE INDEX idx_tags_name ON tags(name COLLATE NOCASE);`
)

// schemaDDL lists all CREATE TABLE statements.
var schemaDDL = []string{
	createMangas,
	createTags,
	createDocuments,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxMangasTitle,
	idxMangasChapters,
	idxMangasCreatedAt,
	idxMangasUpdatedAt,
	idxTagsName,
}

// mangaColumns is the SELECT list shared by every manga query; scanManga
// reads columns in this order.
const mangaColumns = "id, title, link, image, chapters, is_favorite, type, state, tags, created_at, updated_at"

// tagColumns is the SELECT list shared by every tag query.
const tagColumns = "id, name, color"
