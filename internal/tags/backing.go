package tags

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

// Backing persists extracted tag records across sessions. Artwork
// references are transient and never persisted.
type Backing interface {
	// Load returns all stored records, least recently written first.
	Load() ([]Record, error)
	Store(rec Record) error
	Close() error
}

// SQLiteBacking persists records in a SQLite database.
type SQLiteBacking struct {
	db *sql.DB
}

// OpenDefaultBacking opens the backing at the default cache location.
func OpenDefaultBacking() (*SQLiteBacking, error) {
	return OpenBacking(filepath.Join(xdg.CacheHome, "tide", "tags.db"))
}

// OpenBacking opens (creating if needed) a SQLite backing at path.
func OpenBacking(path string) (*SQLiteBacking, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS tag_records (
			track_id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			artist TEXT NOT NULL DEFAULT '',
			album TEXT NOT NULL DEFAULT '',
			genre TEXT NOT NULL DEFAULT '',
			year INTEGER NOT NULL DEFAULT 0,
			lyrics TEXT NOT NULL DEFAULT '',
			seq INTEGER
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteBacking{db: db}, nil
}

// Load returns all records ordered by write sequence, oldest first, so
// hydration reproduces the cache's recency order.
func (b *SQLiteBacking) Load() ([]Record, error) {
	rows, err := b.db.Query(`
		SELECT track_id, title, artist, album, genre, year, lyrics
		FROM tag_records
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.TrackID, &rec.Title, &rec.Artist, &rec.Album,
			&rec.Genre, &rec.Year, &rec.Lyrics); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// Store upserts a record, bumping its write sequence.
func (b *SQLiteBacking) Store(rec Record) error {
	_, err := b.db.Exec(`
		INSERT INTO tag_records (track_id, title, artist, album, genre, year, lyrics, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM tag_records))
		ON CONFLICT(track_id) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			genre = excluded.genre,
			year = excluded.year,
			lyrics = excluded.lyrics,
			seq = excluded.seq
	`, rec.TrackID, rec.Title, rec.Artist, rec.Album, rec.Genre, rec.Year, rec.Lyrics)
	return err
}

// Close closes the database.
func (b *SQLiteBacking) Close() error {
	return b.db.Close()
}
