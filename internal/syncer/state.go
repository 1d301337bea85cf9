package syncer

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fithub/records/internal/models"
)

// StateDB remembers what the last sync saw: a content hash per record date
// and the keys of the PRs that were current.
type StateDB struct {
	db *sql.DB
}

// OpenStateDB opens (or creates) the SQLite state database at dir/state.db.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS record_hashes (
			date      TEXT PRIMARY KEY,
			hash      TEXT NOT NULL,
			synced_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS current_prs (
			pr_key TEXT PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS sync_meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating state table: %w", err)
		}
	}

	return &StateDB{db: db}, nil
}

// RecordHashes returns the stored hash per record date.
func (s *StateDB) RecordHashes() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT date, hash FROM record_hashes`)
	if err != nil {
		return nil, fmt.Errorf("querying record hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var date, hash string
		if err := rows.Scan(&date, &hash); err != nil {
			return nil, fmt.Errorf("scanning record hash: %w", err)
		}
		hashes[date] = hash
	}
	return hashes, rows.Err()
}

// CurrentPRKeys returns the PR keys that were current after the last sync.
func (s *StateDB) CurrentPRKeys() (map[string]bool, error) {
	rows, err := s.db.Query(`SELECT pr_key FROM current_prs`)
	if err != nil {
		return nil, fmt.Errorf("querying current prs: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]bool)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning current pr: %w", err)
		}
		keys[k] = true
	}
	return keys, rows.Err()
}

// HasSynced reports whether Save has completed at least once, even if that
// run saw no records.
func (s *StateDB) HasSynced() (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sync_meta WHERE key = 'last_sync'`).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("querying sync marker: %w", err)
	}
	return n > 0, nil
}

// Save replaces both the record hashes and the current PR keys in one transaction.
func (s *StateDB) Save(hashes map[string]string, prKeys []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning state tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM record_hashes`); err != nil {
		return fmt.Errorf("clearing record hashes: %w", err)
	}
	for date, hash := range hashes {
		if _, err := tx.Exec(`INSERT INTO record_hashes (date, hash) VALUES (?, ?)`, date, hash); err != nil {
			return fmt.Errorf("storing hash for %s: %w", date, err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM current_prs`); err != nil {
		return fmt.Errorf("clearing current prs: %w", err)
	}
	for _, k := range prKeys {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO current_prs (pr_key) VALUES (?)`, k); err != nil {
			return fmt.Errorf("storing current pr %s: %w", k, err)
		}
	}

	if _, err := tx.Exec(`INSERT OR REPLACE INTO sync_meta (key, value) VALUES ('last_sync', ?)`,
		time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("storing sync marker: %w", err)
	}

	return tx.Commit()
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}

// HashRecord computes the SHA-256 of a record's JSON encoding. Struct field
// order makes the encoding stable.
func HashRecord(rec models.TrainingRecord) (string, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encoding record %s: %w", rec.Date, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// diffHashes counts dates that are new or changed in next, and dates of
// prev that are gone from next.
func diffHashes(prev, next map[string]string) (changed, removed int) {
	for date, h := range next {
		if prev[date] != h {
			changed++
		}
	}
	for date := range prev {
		if _, ok := next[date]; !ok {
			removed++
		}
	}
	return changed, removed
}
