// Package storage persists the chat core's durable state. The whole
// persisted subset lives in a single record keyed by a fixed store name;
// saves replace the full record atomically rather than patching fields.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"canvaschat/model"
)

// StateStoreName keys the single persisted record.
const StateStoreName = "note-chat"

type StateStore struct {
	db *sql.DB
}

// NewStateStore opens (creating if needed) the state database under dataDir.
func NewStateStore(dataDir string) (*StateStore, error) {
	dbPath := filepath.Join(dataDir, "state.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &StateStore{db: db}

	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

func (ss *StateStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS stores (
		name TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`

	_, err := ss.db.Exec(schema)
	return err
}

// Save serializes the persisted subset and replaces the record. Transient
// fields never reach this layer; model.PersistedState carries only the
// durable triple.
func (ss *StateStore) Save(state model.PersistedState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	query := `
	INSERT OR REPLACE INTO stores (name, data, updated_at)
	VALUES (?, ?, ?)
	`

	_, err = ss.db.Exec(query, StateStoreName, string(data), time.Now())
	if err != nil {
		return fmt.Errorf("failed to write state record: %w", err)
	}

	return nil
}

// Load reads the record back. The second return is false when no record has
// been saved yet (first run).
func (ss *StateStore) Load() (model.PersistedState, bool, error) {
	var data string
	err := ss.db.QueryRow(`SELECT data FROM stores WHERE name = ?`, StateStoreName).Scan(&data)
	if err == sql.ErrNoRows {
		return model.PersistedState{}, false, nil
	}
	if err != nil {
		return model.PersistedState{}, false, fmt.Errorf("failed to read state record: %w", err)
	}

	var state model.PersistedState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return model.PersistedState{}, false, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	return state, true, nil
}

func (ss *StateStore) Close() error {
	if ss.db != nil {
		return ss.db.Close()
	}
	return nil
}
