package db

import (
	"database/sql"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Database is the room directory: operational metadata about rooms the
// server has seen. Canvas history never touches it; drawing state lives
// only in memory and dies with the process.
type Database struct {
	db *sql.DB
}

type RoomRecord struct {
	ID         string
	CreatedAt  time.Time
	LastActive time.Time
	Strokes    int
	PeakUsers  int
}

func New(dbPath string) (*Database, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// WAL so directory reads never block the janitor's writes
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	log.Printf("Room directory initialized at %s", dbPath)
	return &Database{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		last_active DATETIME NOT NULL,
		stroke_count INTEGER NOT NULL DEFAULT 0,
		peak_users INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_rooms_last_active ON rooms(last_active DESC);
	`

	_, err := db.Exec(schema)
	return err
}

func (d *Database) Close() error {
	return d.db.Close()
}

// TouchRoom upserts a room's usage record. Peak user counts only ever
// grow; the live count for the current process wins everything else.
func (d *Database) TouchRoom(id string, createdAt, lastActive time.Time, strokes, peakUsers int) error {
	_, err := d.db.Exec(`
		INSERT INTO rooms (id, created_at, last_active, stroke_count, peak_users)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_active = excluded.last_active,
			stroke_count = excluded.stroke_count,
			peak_users = CASE WHEN excluded.peak_users > peak_users
				THEN excluded.peak_users ELSE peak_users END
	`, id, createdAt, lastActive, strokes, peakUsers)
	return err
}

func (d *Database) GetRoom(id string) (*RoomRecord, error) {
	row := d.db.QueryRow(
		"SELECT id, created_at, last_active, stroke_count, peak_users FROM rooms WHERE id = ?",
		id,
	)

	var rec RoomRecord
	err := row.Scan(&rec.ID, &rec.CreatedAt, &rec.LastActive, &rec.Strokes, &rec.PeakUsers)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (d *Database) ListRooms(limit, offset int) ([]RoomRecord, error) {
	rows, err := d.db.Query(
		"SELECT id, created_at, last_active, stroke_count, peak_users FROM rooms ORDER BY last_active DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RoomRecord
	for rows.Next() {
		var rec RoomRecord
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.LastActive, &rec.Strokes, &rec.PeakUsers); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (d *Database) DeleteRoom(id string) error {
	_, err := d.db.Exec("DELETE FROM rooms WHERE id = ?", id)
	return err
}

// PruneIdle removes directory rows whose last activity predates cutoff.
func (d *Database) PruneIdle(cutoff time.Time) (int64, error) {
	res, err := d.db.Exec("DELETE FROM rooms WHERE last_active < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (d *Database) GetStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var roomCount int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM rooms").Scan(&roomCount); err != nil {
		return nil, err
	}
	stats["room_count"] = roomCount

	var strokeCount int
	if err := d.db.QueryRow("SELECT COALESCE(SUM(stroke_count), 0) FROM rooms").Scan(&strokeCount); err != nil {
		return nil, err
	}
	stats["stroke_count"] = strokeCount

	return stats, nil
}
