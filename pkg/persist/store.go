package persist

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store keeps snapshot history in a SQLite database, one row per snapshot
// keyed by UUID.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id    TEXT PRIMARY KEY,
	taken TIMESTAMP NOT NULL,
	vars  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS snapshots_taken ON snapshots(taken);
`

// Open opens (creating if needed) a snapshot store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init snapshot store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (st *Store) Close() error { return st.db.Close() }

// Save records a snapshot, assigning it a fresh UUID when it has none, and
// returns the snapshot ID.
func (st *Store) Save(snap Snapshot) (string, error) {
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.Taken.IsZero() {
		snap.Taken = time.Now()
	}
	vars, err := json.Marshal(snap.Vars)
	if err != nil {
		return "", err
	}
	_, err = st.db.Exec(
		"INSERT OR REPLACE INTO snapshots (id, taken, vars) VALUES (?, ?, ?)",
		snap.ID, snap.Taken, string(vars))
	if err != nil {
		return "", fmt.Errorf("save snapshot %s: %w", snap.ID, err)
	}
	return snap.ID, nil
}

// Load fetches a snapshot by ID.
func (st *Store) Load(id string) (Snapshot, error) {
	row := st.db.QueryRow("SELECT id, taken, vars FROM snapshots WHERE id = ?", id)
	return scanSnapshot(row)
}

// Latest fetches the most recently taken snapshot.
func (st *Store) Latest() (Snapshot, error) {
	row := st.db.QueryRow("SELECT id, taken, vars FROM snapshots ORDER BY taken DESC LIMIT 1")
	return scanSnapshot(row)
}

// List returns the IDs and timestamps of all snapshots, newest first.
func (st *Store) List() ([]Snapshot, error) {
	rows, err := st.db.Query("SELECT id, taken FROM snapshots ORDER BY taken DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.Taken); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSnapshot(row *sql.Row) (Snapshot, error) {
	var snap Snapshot
	var vars string
	if err := row.Scan(&snap.ID, &snap.Taken, &vars); err != nil {
		return snap, err
	}
	if err := json.Unmarshal([]byte(vars), &snap.Vars); err != nil {
		return snap, fmt.Errorf("decode snapshot %s: %w", snap.ID, err)
	}
	return snap, nil
}
