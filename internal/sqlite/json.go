// JSON record structures for SQLite backend persistence.
// These structures define the JSONL record format for data files.
package sqlite

// File names of the JSONL data files in DataDir.
const (
	mangasFile    = "mangas.jsonl"
	tagsFile      = "tags.jsonl"
	documentsFile = "documents.jsonl"
	databaseFile  = "shelf.db"
)

// mangaJSON represents a manga in mangas.jsonl.
type mangaJSON struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	Link       string  `json:"link"`
	Image      string  `json:"image"`
	Chapters   int     `json:"chapters"`
	IsFavorite bool    `json:"is_favorite"`
	Type       string  `json:"type"`
	State      string  `json:"state"`
	Tags       []int64 `json:"tags"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

// tagJSON represents a tag in tags.jsonl.
type tagJSON struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// documentJSON represents a stored document in documents.jsonl. Value holds
// the raw JSON document as a string.
type documentJSON struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	UpdatedAt string `json:"updated_at"`
}
