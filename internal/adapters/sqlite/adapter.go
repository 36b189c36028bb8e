// Package sqlite provides a SQLite-backed catalog source and recommendation
// history repository.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously

	"github.com/ewilliams-labs/moodmix/internal/core/domain"
	"github.com/ewilliams-labs/moodmix/internal/core/ports"
)

var (
	_ ports.CatalogSource     = (*Adapter)(nil)
	_ ports.CatalogWriter     = (*Adapter)(nil)
	_ ports.HistoryRepository = (*Adapter)(nil)
)

// Adapter implements the catalog source and history ports for SQLite
type Adapter struct {
	db *sql.DB
}

// NewAdapter creates a connection and runs the schema migration
func NewAdapter(storagePath string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open db: %w", err)
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to ping db: %w", err)
	}

	adapter := &Adapter{db: db}

	if err := adapter.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migration failed: %w", err)
	}

	return adapter, nil
}

// Ping verifies the database is reachable.
func (a *Adapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// Close ensures the DB connection is closed gracefully
func (a *Adapter) Close() error {
	return a.db.Close()
}

// LoadTracks returns the stored catalog in insertion order. Profile keys are
// returned exactly as stored.
func (a *Adapter) LoadTracks(ctx context.Context) ([]domain.Track, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT t.id, t.title, t.artist, IFNULL(t.album, ''), IFNULL(t.uri, ''), IFNULL(t.popularity, 0),
			e.label, e.weight
		FROM tracks t
		LEFT JOIN track_emotions e ON e.track_id = t.id
		ORDER BY t.position ASC, t.id ASC, e.label ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to load tracks: %w", err)
	}
	defer rows.Close()

	tracks := make([]domain.Track, 0)
	for rows.Next() {
		var (
			track  domain.Track
			label  sql.NullString
			weight sql.NullFloat64
		)
		if err := rows.Scan(
			&track.ID,
			&track.Title,
			&track.Artist,
			&track.Album,
			&track.URI,
			&track.Popularity,
			&label,
			&weight,
		); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan track: %w", err)
		}

		if n := len(tracks); n == 0 || tracks[n-1].ID != track.ID {
			track.Profile = domain.EmotionProfile{}
			tracks = append(tracks, track)
		}
		if label.Valid {
			tracks[len(tracks)-1].Profile[domain.EmotionLabel(label.String)] = weight.Float64
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to iterate tracks: %w", err)
	}

	return tracks, nil
}

// UpsertTracks stores tracks in order, replacing the profile of any track
// that already exists. Positions continue after the tracks already stored.
func (a *Adapter) UpsertTracks(ctx context.Context, tracks []domain.Track) error {
	// 1. Start Transaction
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safety net: auto-rollback if we error/panic before commit

	var next int
	if err := tx.QueryRowContext(ctx, "SELECT IFNULL(MAX(position), -1) + 1 FROM tracks").Scan(&next); err != nil {
		return fmt.Errorf("sqlite: failed to read track positions: %w", err)
	}

	// 2. Prepare statements once for performance
	stmtTrack, err := tx.PrepareContext(ctx, `
		INSERT INTO tracks (id, position, title, artist, album, uri, popularity)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title,
			artist=excluded.artist,
			album=excluded.album,
			uri=excluded.uri,
			popularity=excluded.popularity;
	`)
	if err != nil {
		return fmt.Errorf("sqlite: failed to prepare track upsert: %w", err)
	}
	defer stmtTrack.Close()

	stmtClear, err := tx.PrepareContext(ctx, "DELETE FROM track_emotions WHERE track_id = ?")
	if err != nil {
		return fmt.Errorf("sqlite: failed to prepare profile reset: %w", err)
	}
	defer stmtClear.Close()

	stmtEmotion, err := tx.PrepareContext(ctx, `
		INSERT INTO track_emotions (track_id, label, weight) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("sqlite: failed to prepare profile insert: %w", err)
	}
	defer stmtEmotion.Close()

	// 3. Upsert each track and rewrite its profile
	for i, t := range tracks {
		if _, err := stmtTrack.ExecContext(ctx, t.ID, next+i, t.Title, t.Artist, t.Album, t.URI, t.Popularity); err != nil {
			return fmt.Errorf("sqlite: failed to save track %s: %w", t.ID, err)
		}
		if _, err := stmtClear.ExecContext(ctx, t.ID); err != nil {
			return fmt.Errorf("sqlite: failed to clear profile of %s: %w", t.ID, err)
		}
		for label, weight := range t.Profile {
			if _, err := stmtEmotion.ExecContext(ctx, t.ID, string(label), weight); err != nil {
				return fmt.Errorf("sqlite: failed to save profile of %s: %w", t.ID, err)
			}
		}
	}

	// 4. Commit Transaction
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: transaction commit failed: %w", err)
	}

	return nil
}

// RecordRecommendation appends one entry to the history log.
func (a *Adapter) RecordRecommendation(ctx context.Context, entry domain.HistoryEntry) error {
	emotions, err := json.Marshal(entry.Emotions)
	if err != nil {
		return fmt.Errorf("sqlite: failed to encode emotions: %w", err)
	}
	trackIDs, err := json.Marshal(entry.TrackIDs)
	if err != nil {
		return fmt.Errorf("sqlite: failed to encode track ids: %w", err)
	}

	if _, err := a.db.ExecContext(ctx, `
		INSERT INTO recommendation_history (id, created_at, source, emotions, requested, track_ids, fallback)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID,
		entry.CreatedAt.UTC().UnixNano(),
		entry.Source,
		string(emotions),
		entry.Requested,
		string(trackIDs),
		entry.Fallback,
	); err != nil {
		return fmt.Errorf("sqlite: failed to record recommendation %s: %w", entry.ID, err)
	}
	return nil
}

// ListHistory returns up to limit entries, newest first.
func (a *Adapter) ListHistory(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, created_at, source, emotions, requested, track_ids, fallback
		FROM recommendation_history
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list history: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.HistoryEntry, 0)
	for rows.Next() {
		var (
			entry    domain.HistoryEntry
			created  int64
			emotions string
			trackIDs string
		)
		if err := rows.Scan(&entry.ID, &created, &entry.Source, &emotions, &entry.Requested, &trackIDs, &entry.Fallback); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan history entry: %w", err)
		}
		entry.CreatedAt = time.Unix(0, created).UTC()
		if err := json.Unmarshal([]byte(emotions), &entry.Emotions); err != nil {
			return nil, fmt.Errorf("sqlite: failed to decode emotions of %s: %w", entry.ID, err)
		}
		if err := json.Unmarshal([]byte(trackIDs), &entry.TrackIDs); err != nil {
			return nil, fmt.Errorf("sqlite: failed to decode track ids of %s: %w", entry.ID, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to iterate history: %w", err)
	}

	return entries, nil
}

func (a *Adapter) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS tracks (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		album TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS track_emotions (
		track_id TEXT,
		label TEXT,
		weight REAL NOT NULL,
		PRIMARY KEY (track_id, label),
		FOREIGN KEY(track_id) REFERENCES tracks(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS recommendation_history (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		source TEXT NOT NULL,
		emotions TEXT NOT NULL,
		requested INTEGER NOT NULL,
		track_ids TEXT NOT NULL,
		fallback INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_history_created_at ON recommendation_history (created_at);
	`
	if _, err := a.db.Exec(query); err != nil {
		return err
	}

	for _, column := range []string{
		"ALTER TABLE tracks ADD COLUMN uri TEXT",
		"ALTER TABLE tracks ADD COLUMN popularity INTEGER DEFAULT 0",
	} {
		if _, err := a.db.Exec(column); err != nil {
			if !isDuplicateColumnError(err) {
				return err
			}
		}
	}

	return nil
}

func isDuplicateColumnError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "duplicate column") || strings.Contains(err.Error(), "already exists"))
}
