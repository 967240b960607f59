package offline

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

// StoredEntry is the persisted form of a cache entry.
type StoredEntry struct {
	TrackID string
	At      time.Time
	Lyrics  []byte
	Artwork []byte
}

// Backing persists cache entries across sessions.
type Backing interface {
	// Load returns all stored entries in recency order, oldest first.
	Load() ([]StoredEntry, error)
	Store(e StoredEntry) error
	Delete(trackID string) error
	Close() error
}

// SQLiteBacking persists entries in a SQLite database.
type SQLiteBacking struct {
	db *sql.DB
}

// OpenDefaultBacking opens the backing at the default cache location.
func OpenDefaultBacking() (*SQLiteBacking, error) {
	return OpenBacking(filepath.Join(xdg.CacheHome, "tide", "offline.db"))
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
		CREATE TABLE IF NOT EXISTS offline_artifacts (
			track_id TEXT PRIMARY KEY,
			at INTEGER NOT NULL,
			lyrics BLOB,
			artwork BLOB
		);
		CREATE INDEX IF NOT EXISTS idx_offline_artifacts_at ON offline_artifacts(at);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteBacking{db: db}, nil
}

// Load returns all entries ordered by last touch, oldest first.
func (b *SQLiteBacking) Load() ([]StoredEntry, error) {
	rows, err := b.db.Query(`
		SELECT track_id, at, lyrics, artwork
		FROM offline_artifacts
		ORDER BY at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StoredEntry
	for rows.Next() {
		var e StoredEntry
		var at int64
		if err := rows.Scan(&e.TrackID, &at, &e.Lyrics, &e.Artwork); err != nil {
			return nil, err
		}
		e.At = time.UnixMilli(at)
		result = append(result, e)
	}
	return result, rows.Err()
}

// Store upserts an entry.
func (b *SQLiteBacking) Store(e StoredEntry) error {
	_, err := b.db.Exec(`
		INSERT INTO offline_artifacts (track_id, at, lyrics, artwork)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(track_id) DO UPDATE SET
			at = excluded.at,
			lyrics = COALESCE(excluded.lyrics, lyrics),
			artwork = COALESCE(excluded.artwork, artwork)
	`, e.TrackID, e.At.UnixMilli(), e.Lyrics, e.Artwork)
	return err
}

// Delete removes an entry.
func (b *SQLiteBacking) Delete(trackID string) error {
	_, err := b.db.Exec(`DELETE FROM offline_artifacts WHERE track_id = ?`, trackID)
	return err
}

// Close closes the database.
func (b *SQLiteBacking) Close() error {
	return b.db.Close()
}
