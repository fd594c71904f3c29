// Package sqlite implements the durable memory store on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver

	"github.com/mnemora/mnemora-go-sdk/memory"
)

// Store implements memory.Store using SQLite. Entries are keyed by
// (user_id, id); vectors are stored as little-endian float32 blobs.
type Store struct {
	db *sql.DB
}

var _ memory.Store = (*Store)(nil)

// Open opens or creates a SQLite database at the given path. ":memory:"
// yields an in-process store suitable for tests.
func Open(dbPath string) (*Store, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		dsn = dbPath + "?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		user_id          TEXT NOT NULL,
		id               TEXT NOT NULL,
		text             TEXT NOT NULL,
		vector           BLOB NOT NULL,
		kind             TEXT NOT NULL,
		importance       REAL NOT NULL,
		created_at       TEXT NOT NULL,
		last_accessed_at TEXT NOT NULL,
		access_count     INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, id)
	);
	CREATE INDEX IF NOT EXISTS idx_entries_user_created ON entries(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_entries_user_importance ON entries(user_id, importance DESC);

	CREATE TABLE IF NOT EXISTS profiles (
		user_id    TEXT PRIMARY KEY,
		summary    TEXT NOT NULL,
		traits     TEXT NOT NULL,
		version    INTEGER NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Insert persists a new entry.
func (s *Store) Insert(ctx context.Context, e *memory.Entry) error {
	if len(e.Vector) == 0 {
		return fmt.Errorf("entry %s has no vector", e.ID)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (user_id, id, text, vector, kind, importance, created_at, last_accessed_at, access_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.ID, e.Text, encodeVector(e.Vector), string(e.Kind),
		e.Importance, formatTime(e.CreatedAt), formatTime(e.LastAccessedAt), e.AccessCount,
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// Get returns one entry or memory.ErrNotFound.
func (s *Store) Get(ctx context.Context, userID, id string) (*memory.Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, id, text, vector, kind, importance, created_at, last_accessed_at, access_count
		FROM entries WHERE user_id = ? AND id = ?`, userID, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entry %s: %w", id, memory.ErrNotFound)
	}
	return e, err
}

// maxBatchIDs bounds IN-clause placeholder lists well below the driver's
// host-parameter limit.
const maxBatchIDs = 500

// Delete removes entries by ID. Missing IDs are ignored.
func (s *Store) Delete(ctx context.Context, userID string, ids ...string) error {
	for len(ids) > 0 {
		n := len(ids)
		if n > maxBatchIDs {
			n = maxBatchIDs
		}
		batch := ids[:n]
		ids = ids[n:]

		query := fmt.Sprintf(`DELETE FROM entries WHERE user_id = ? AND id IN (%s)`, placeholders(len(batch)))
		args := make([]any, 0, len(batch)+1)
		args = append(args, userID)
		for _, id := range batch {
			args = append(args, id)
		}
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("delete entries: %w", err)
		}
	}
	return nil
}

// Scan returns a user's entries per the options.
func (s *Store) Scan(ctx context.Context, userID string, opts memory.ScanOptions) ([]*memory.Entry, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT user_id, id, text, vector, kind, importance, created_at, last_accessed_at, access_count
		FROM entries WHERE user_id = ?`)
	args := []any{userID}

	if !opts.Since.IsZero() {
		sb.WriteString(` AND created_at >= ?`)
		args = append(args, formatTime(opts.Since))
	}
	switch opts.Order {
	case memory.OrderImportanceDesc:
		sb.WriteString(` ORDER BY importance DESC, created_at DESC`)
	default:
		sb.WriteString(` ORDER BY created_at DESC`)
	}
	if opts.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("scan entries: %w", err)
	}
	defer rows.Close()

	var out []*memory.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns the number of entries for a user.
func (s *Store) Count(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entries WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// Users enumerates user IDs that have at least one entry.
func (s *Store) Users(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM entries ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// TouchAccess records retrieval hits in one statement per batch: access
// count, last accessed timestamp and a saturating importance boost.
func (s *Store) TouchAccess(ctx context.Context, userID string, ids []string, boost float64, now time.Time) error {
	for len(ids) > 0 {
		n := len(ids)
		if n > maxBatchIDs {
			n = maxBatchIDs
		}
		batch := ids[:n]
		ids = ids[n:]

		query := fmt.Sprintf(`
			UPDATE entries
			SET access_count = access_count + 1,
			    last_accessed_at = ?,
			    importance = MIN(1.0, importance + ?)
			WHERE user_id = ? AND id IN (%s)`, placeholders(len(batch)))
		args := make([]any, 0, len(batch)+3)
		args = append(args, formatTime(now), boost, userID)
		for _, id := range batch {
			args = append(args, id)
		}
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("touch access: %w", err)
		}
	}
	return nil
}

// Profile returns the user's profile or memory.ErrNotFound.
func (s *Store) Profile(ctx context.Context, userID string) (*memory.Profile, error) {
	var p memory.Profile
	var traitsJSON, updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, summary, traits, version, updated_at
		FROM profiles WHERE user_id = ?`, userID).
		Scan(&p.UserID, &p.Summary, &traitsJSON, &p.Version, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile for %s: %w", userID, memory.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if err := json.Unmarshal([]byte(traitsJSON), &p.Traits); err != nil {
		return nil, fmt.Errorf("decode traits: %w", err)
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("decode updated_at: %w", err)
	}
	return &p, nil
}

// PutProfile replaces the user's profile wholesale.
func (s *Store) PutProfile(ctx context.Context, p *memory.Profile) error {
	traits, err := json.Marshal(p.Traits)
	if err != nil {
		return fmt.Errorf("encode traits: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, summary, traits, version, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			summary = excluded.summary,
			traits = excluded.traits,
			version = excluded.version,
			updated_at = excluded.updated_at`,
		p.UserID, p.Summary, string(traits), p.Version, formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("store profile: %w", err)
	}
	return nil
}

// Stats summarizes a user's stored memories.
func (s *Store) Stats(ctx context.Context, userID string) (*memory.UserStats, error) {
	stats := &memory.UserStats{ByKind: make(map[memory.Kind]int)}

	var mean sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), AVG(importance) FROM entries WHERE user_id = ?`, userID).
		Scan(&stats.Entries, &mean)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	if mean.Valid {
		stats.MeanImportance = mean.Float64
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, COUNT(*) FROM entries WHERE user_id = ? GROUP BY kind`, userID)
	if err != nil {
		return nil, fmt.Errorf("stats by kind: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		stats.ByKind[memory.Kind(kind)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if p, err := s.Profile(ctx, userID); err == nil {
		stats.ProfileVersion = p.Version
	} else if !errors.Is(err, memory.ErrNotFound) {
		return nil, err
	}
	return stats, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*memory.Entry, error) {
	var e memory.Entry
	var vector []byte
	var kind, createdAt, lastAccessedAt string
	err := row.Scan(&e.UserID, &e.ID, &e.Text, &vector, &kind,
		&e.Importance, &createdAt, &lastAccessedAt, &e.AccessCount)
	if err != nil {
		return nil, err
	}
	e.Kind = memory.Kind(kind)
	e.Vector = decodeVector(vector)
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}
	if e.LastAccessedAt, err = parseTime(lastAccessedAt); err != nil {
		return nil, fmt.Errorf("decode last_accessed_at: %w", err)
	}
	return &e, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// timeLayout is fixed width, unlike RFC3339Nano which trims trailing
// zeros from the fractional second. Ordering and range filters compare
// these columns as TEXT, so the encoding must sort lexicographically in
// time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// encodeVector packs a vector as little-endian float32s.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
