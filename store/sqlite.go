package store

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const createArtifactsTable = `
CREATE TABLE IF NOT EXISTS artifacts (
	run_id TEXT NOT NULL,
	key TEXT NOT NULL,
	content BLOB NOT NULL,
	PRIMARY KEY (run_id, key)
);
`

// SqliteStore is a Store implementation backed by an embedded SQLite
// database file, for single-binary deployments that want durability
// without standing up a separate server.
type SqliteStore struct {
	db *sql.DB
}

// Compile-time check that SqliteStore implements Store.
var _ Store = (*SqliteStore)(nil)

// Compile-time check that SqliteStore implements RunEnumerator.
var _ RunEnumerator = (*SqliteStore)(nil)

// NewSqliteStore opens (creating if necessary) a SQLite database at path
// and ensures the artifacts table exists.
func NewSqliteStore(path string) (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(createArtifactsTable); err != nil {
		db.Close()
		return nil, err
	}
	return &SqliteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SqliteStore) Close() error { return s.db.Close() }

func (s *SqliteStore) Save(ctx context.Context, runID, key string, content []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (run_id, key, content) VALUES (?, ?, ?)
		 ON CONFLICT(run_id, key) DO UPDATE SET content = excluded.content`,
		runID, key, content)
	return err
}

func (s *SqliteStore) Get(ctx context.Context, runID, key string) ([]byte, error) {
	var content []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT content FROM artifacts WHERE run_id = ? AND key = ?`, runID, key).Scan(&content)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return content, err
}

func (s *SqliteStore) Exists(ctx context.Context, runID, key string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM artifacts WHERE run_id = ? AND key = ?`, runID, key).Scan(&n)
	return n > 0, err
}

func (s *SqliteStore) Delete(ctx context.Context, runID, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM artifacts WHERE run_id = ? AND key = ?`, runID, key)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SqliteStore) ListKeys(ctx context.Context, runID, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM artifacts WHERE run_id = ? AND key LIKE ? ESCAPE '\'`,
		runID, likeEscape(prefix)+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SqliteStore) Clear(ctx context.Context, runID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM artifacts WHERE run_id = ?`, runID)
	return err
}

// ListRunIDs implements store.RunEnumerator.
func (s *SqliteStore) ListRunIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT run_id FROM artifacts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// likeEscape escapes SQL LIKE metacharacters in a literal prefix.
func likeEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
