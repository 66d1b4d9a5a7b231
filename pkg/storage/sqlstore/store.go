// Package sqlstore persists the snapshot in normalized SQL tables.
//
// It is shared by the sqlite, postgres and oceanbase backends, which only
// differ in how they open the connection and in their Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/methmouth/Robot/pkg/storage"
)

// DefaultTablePrefix names the tables atlas_snapshot, atlas_memories, ...
const DefaultTablePrefix = "atlas"

var validPrefix = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store implements storage.SnapshotStore on database/sql.
type Store struct {
	db      *sql.DB
	dialect Dialect
	prefix  string

	// mu serializes saves so concurrent replaces cannot interleave.
	mu sync.Mutex
}

// New creates the tables if needed and returns a Store. The Store takes
// ownership of db and closes it in Close.
func New(ctx context.Context, db *sql.DB, dialect Dialect, prefix string) (*Store, error) {
	if prefix == "" {
		prefix = DefaultTablePrefix
	}
	if !validPrefix.MatchString(prefix) {
		return nil, fmt.Errorf("sqlstore: invalid table prefix %q", prefix)
	}

	s := &Store{db: db, dialect: dialect, prefix: prefix}
	if err := s.initTables(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) table(name string) string {
	return s.prefix + "_" + name
}

// initTables initializes the database table structure.
func (s *Store) initTables(ctx context.Context) error {
	d := s.dialect
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY,
			version INTEGER NOT NULL,
			saved_at BIGINT NOT NULL,
			has_personality INTEGER NOT NULL,
			name VARCHAR(255),
			tone VARCHAR(64),
			verbosity VARCHAR(64),
			proactive INTEGER NOT NULL
		)`, s.table("snapshot")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGINT PRIMARY KEY,
			seq INTEGER NOT NULL,
			created_at BIGINT NOT NULL,
			kind VARCHAR(32) NOT NULL,
			content %s,
			importance INTEGER NOT NULL
		)`, s.table("memories"), d.LongTextType),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			pref_key VARCHAR(255) PRIMARY KEY,
			value %s,
			source VARCHAR(16) NOT NULL,
			confidence %s NOT NULL,
			updated_at BIGINT NOT NULL
		)`, s.table("preferences"), d.LongTextType, d.DoubleType),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			name VARCHAR(255) PRIMARY KEY,
			seq INTEGER NOT NULL,
			actions %s,
			time_window VARCHAR(32) NOT NULL,
			occurrences INTEGER NOT NULL,
			confidence %s NOT NULL,
			automated INTEGER NOT NULL,
			suggested_automation INTEGER NOT NULL,
			steps %s,
			voice_trigger VARCHAR(255),
			created_at BIGINT NOT NULL
		)`, s.table("routines"), d.LongTextType, d.DoubleType, d.LongTextType),
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("initTables: %w", err)
		}
	}
	return nil
}

// Save implements storage.SnapshotStore. All rows are replaced inside one
// transaction.
func (s *Store) Save(ctx context.Context, snap *storage.Snapshot) (err error) {
	if snap == nil {
		return errors.New("sqlstore: nil snapshot")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Save: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, name := range []string{"snapshot", "memories", "preferences", "routines"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+s.table(name)); err != nil {
			return fmt.Errorf("Save: clear %s: %w", name, err)
		}
	}

	if err = s.saveHeader(ctx, tx, snap); err != nil {
		return err
	}
	if err = s.saveMemories(ctx, tx, snap.LongTermMemory); err != nil {
		return err
	}
	if err = s.savePreferences(ctx, tx, snap.Preferences); err != nil {
		return err
	}
	if err = s.saveRoutines(ctx, tx, snap.Routines); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("Save: commit: %w", err)
	}
	return nil
}

func (s *Store) exec(ctx context.Context, tx *sql.Tx, query string, args ...any) error {
	_, err := tx.ExecContext(ctx, s.dialect.Rebind(query), args...)
	return err
}

func (s *Store) saveHeader(ctx context.Context, tx *sql.Tx, snap *storage.Snapshot) error {
	var p storage.Personality
	has := snap.Personality != nil
	if has {
		p = *snap.Personality
	}
	savedAt := snap.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}
	version := snap.Version
	if version == 0 {
		version = storage.SnapshotVersion
	}
	err := s.exec(ctx, tx, fmt.Sprintf(`INSERT INTO %s
		(id, version, saved_at, has_personality, name, tone, verbosity, proactive)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)`, s.table("snapshot")),
		version, savedAt.UnixNano(), boolInt(has), p.Name, p.Tone, p.Verbosity, boolInt(p.Proactive))
	if err != nil {
		return fmt.Errorf("Save: header: %w", err)
	}
	return nil
}

func (s *Store) saveMemories(ctx context.Context, tx *sql.Tx, records []storage.MemoryRecord) error {
	query := fmt.Sprintf(`INSERT INTO %s (id, seq, created_at, kind, content, importance)
		VALUES (?, ?, ?, ?, ?, ?)`, s.table("memories"))
	for i, rec := range records {
		content, err := json.Marshal(rec.Content)
		if err != nil {
			return fmt.Errorf("Save: memory %d: %w", rec.ID, err)
		}
		if err := s.exec(ctx, tx, query, rec.ID, i, unixNano(rec.Timestamp), rec.Kind, string(content), rec.Importance); err != nil {
			return fmt.Errorf("Save: memory %d: %w", rec.ID, err)
		}
	}
	return nil
}

func (s *Store) savePreferences(ctx context.Context, tx *sql.Tx, prefs map[string]storage.Preference) error {
	query := fmt.Sprintf(`INSERT INTO %s (pref_key, value, source, confidence, updated_at)
		VALUES (?, ?, ?, ?, ?)`, s.table("preferences"))
	for key, p := range prefs {
		value, err := json.Marshal(p.Value)
		if err != nil {
			return fmt.Errorf("Save: preference %s: %w", key, err)
		}
		if err := s.exec(ctx, tx, query, key, string(value), p.Source, p.Confidence, unixNano(p.LastUpdated)); err != nil {
			return fmt.Errorf("Save: preference %s: %w", key, err)
		}
	}
	return nil
}

func (s *Store) saveRoutines(ctx context.Context, tx *sql.Tx, routines []storage.Routine) error {
	query := fmt.Sprintf(`INSERT INTO %s
		(name, seq, actions, time_window, occurrences, confidence, automated, suggested_automation, steps, voice_trigger, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table("routines"))
	for i, r := range routines {
		actions, err := json.Marshal(r.Actions)
		if err != nil {
			return fmt.Errorf("Save: routine %s: %w", r.Name, err)
		}
		steps, err := json.Marshal(r.Steps)
		if err != nil {
			return fmt.Errorf("Save: routine %s: %w", r.Name, err)
		}
		err = s.exec(ctx, tx, query, r.Name, i, string(actions), r.TimeWindow, r.Occurrences, r.Confidence,
			boolInt(r.Automated), boolInt(r.SuggestedAutomation), string(steps), r.VoiceTrigger, unixNano(r.CreatedAt))
		if err != nil {
			return fmt.Errorf("Save: routine %s: %w", r.Name, err)
		}
	}
	return nil
}

// Load implements storage.SnapshotStore.
func (s *Store) Load(ctx context.Context) (*storage.Snapshot, error) {
	snap := &storage.Snapshot{Preferences: map[string]storage.Preference{}}

	var (
		savedAt        int64
		hasPersonality int
		proactive      int
		name           sql.NullString
		tone           sql.NullString
		verbosity      sql.NullString
	)
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT version, saved_at, has_personality, name, tone, verbosity, proactive FROM %s WHERE id = 1`,
		s.table("snapshot")))
	err := row.Scan(&snap.Version, &savedAt, &hasPersonality, &name, &tone, &verbosity, &proactive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Load: header: %w", err)
	}
	snap.SavedAt = fromUnixNano(savedAt)
	if hasPersonality != 0 {
		snap.Personality = &storage.Personality{
			Name:      name.String,
			Tone:      tone.String,
			Verbosity: verbosity.String,
			Proactive: proactive != 0,
		}
	}

	if err := s.loadMemories(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.loadPreferences(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.loadRoutines(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Store) loadMemories(ctx context.Context, snap *storage.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, created_at, kind, content, importance FROM %s ORDER BY seq`, s.table("memories")))
	if err != nil {
		return fmt.Errorf("Load: memories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			rec     storage.MemoryRecord
			created int64
			content sql.NullString
		)
		if err := rows.Scan(&rec.ID, &created, &rec.Kind, &content, &rec.Importance); err != nil {
			return fmt.Errorf("Load: memories: %w", err)
		}
		rec.Timestamp = fromUnixNano(created)
		if content.Valid && content.String != "" {
			if err := json.Unmarshal([]byte(content.String), &rec.Content); err != nil {
				return fmt.Errorf("%w: memory %d: %v", storage.ErrCorruptSnapshot, rec.ID, err)
			}
		}
		snap.LongTermMemory = append(snap.LongTermMemory, rec)
	}
	return rows.Err()
}

func (s *Store) loadPreferences(ctx context.Context, snap *storage.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT pref_key, value, source, confidence, updated_at FROM %s`, s.table("preferences")))
	if err != nil {
		return fmt.Errorf("Load: preferences: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			p       storage.Preference
			value   sql.NullString
			updated int64
		)
		if err := rows.Scan(&p.Key, &value, &p.Source, &p.Confidence, &updated); err != nil {
			return fmt.Errorf("Load: preferences: %w", err)
		}
		p.LastUpdated = fromUnixNano(updated)
		if value.Valid && value.String != "" {
			if err := json.Unmarshal([]byte(value.String), &p.Value); err != nil {
				return fmt.Errorf("%w: preference %s: %v", storage.ErrCorruptSnapshot, p.Key, err)
			}
		}
		snap.Preferences[p.Key] = p
	}
	return rows.Err()
}

func (s *Store) loadRoutines(ctx context.Context, snap *storage.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT name, actions, time_window, occurrences, confidence, automated, suggested_automation, steps, voice_trigger, created_at
		FROM %s ORDER BY seq`, s.table("routines")))
	if err != nil {
		return fmt.Errorf("Load: routines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			r                    storage.Routine
			actions, steps       sql.NullString
			trigger              sql.NullString
			automated, suggested int
			created              int64
		)
		err := rows.Scan(&r.Name, &actions, &r.TimeWindow, &r.Occurrences, &r.Confidence,
			&automated, &suggested, &steps, &trigger, &created)
		if err != nil {
			return fmt.Errorf("Load: routines: %w", err)
		}
		r.Automated = automated != 0
		r.SuggestedAutomation = suggested != 0
		r.VoiceTrigger = trigger.String
		r.CreatedAt = fromUnixNano(created)
		if actions.Valid && actions.String != "" {
			if err := json.Unmarshal([]byte(actions.String), &r.Actions); err != nil {
				return fmt.Errorf("%w: routine %s: %v", storage.ErrCorruptSnapshot, r.Name, err)
			}
		}
		if steps.Valid && steps.String != "" && steps.String != "null" {
			if err := json.Unmarshal([]byte(steps.String), &r.Steps); err != nil {
				return fmt.Errorf("%w: routine %s: %v", storage.ErrCorruptSnapshot, r.Name, err)
			}
		}
		snap.Routines = append(snap.Routines, r)
	}
	return rows.Err()
}

// Close implements storage.SnapshotStore.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Zero times are stored as 0 so they survive a round trip.
func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
